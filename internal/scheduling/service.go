package scheduling

import (
	"errors"
	"fmt"
	"time"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kidusm001/multi-fleet-managment-sub007/internal/models"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/notify"
)

// RouteService is the transaction manager for the route lifecycle. Every
// write happens inside one gorm transaction so a route, its stops, its
// employee bindings and its vehicle-availability row never go out of step;
// any failure before commit leaves zero partial state.
type RouteService struct {
	db       *gorm.DB
	checker  Checker
	notifier notify.Notifier
}

func NewRouteService(db *gorm.DB, checker Checker, notifier notify.Notifier) *RouteService {
	return &RouteService{db: db, checker: checker, notifier: notifier}
}

// StopInput is one requested stop; EmployeeID nil means an empty pickup point.
type StopInput struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat" binding:"required"`
	Lng        float64 `json:"lng" binding:"required"`
	EmployeeID *uint   `json:"employee_id"`
}

// CreateRouteInput is a validated route draft. Path, when present, is WKB
// already decoded from GeoJSON at the API edge.
type CreateRouteInput struct {
	Name          string
	VehicleID     uint
	ShiftID       uint
	Window        TimeWindow
	Stops         []StopInput
	TotalDistance float64
	TotalTime     float64
	Path          []byte
}

// CheckAvailability answers "is this vehicle free for this window" from the
// current snapshot. Read-only; the authoritative re-check happens inside the
// create transaction.
func (s *RouteService) CheckAvailability(orgID, vehicleID, shiftID uint, window TimeWindow) (Availability, error) {
	vehicle, err := s.fetchVehicle(s.db, orgID, vehicleID)
	if err != nil {
		return Availability{}, err
	}
	shift, err := s.fetchShift(s.db, orgID, shiftID)
	if err != nil {
		return Availability{}, err
	}
	existing, err := s.routeWindows(s.db, vehicle.ID, window.Start)
	if err != nil {
		return Availability{}, err
	}
	return Result(s.checker.Check(vehicle, shift, window, existing)), nil
}

// Create validates the draft, then creates the route, its stops, the
// employee bindings and the availability contribution in one transaction.
// The transaction locks the slot's availability row before re-validating,
// so two concurrent creates for the same vehicle/shift/date run one at a
// time and the loser sees the winner's route in its conflict re-check.
func (s *RouteService) Create(orgID uint, in CreateRouteInput) (*models.Route, error) {
	if orgID == 0 {
		return nil, fmt.Errorf("%w: missing organization", ErrOrgMismatch)
	}
	if err := in.Window.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	shift, err := s.fetchShift(s.db, orgID, in.ShiftID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.fetchVehicle(s.db, orgID, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if riders := countRiders(in.Stops); riders > vehicle.Capacity {
		return nil, fmt.Errorf("%w: %d riders on a capacity-%d vehicle", ErrCapacityExceeded, riders, vehicle.Capacity)
	}

	existing, err := s.routeWindows(s.db, vehicle.ID, in.Window.Start)
	if err != nil {
		return nil, err
	}
	if err := s.checker.Check(vehicle, shift, in.Window, existing); err != nil {
		return nil, err
	}
	if err := s.validateBindings(s.db, orgID, in.Stops, 0); err != nil {
		return nil, err
	}

	var route models.Route
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// The availability row is the serialization point for the slot:
		// taking its lock first means a concurrent create for the same
		// vehicle/shift/date has either committed (and its route is visible
		// to the re-check below) or rolled back before we proceed.
		avail, err := s.lockAvailability(tx, orgID, vehicle.ID, shift.ID, dateOnly(in.Window.Start))
		if err != nil {
			return err
		}
		vehicle, err := s.fetchVehicle(tx, orgID, in.VehicleID)
		if err != nil {
			return err
		}
		locked, err := s.routeWindows(tx, vehicle.ID, in.Window.Start)
		if err != nil {
			return err
		}
		if err := s.checker.Check(vehicle, shift, in.Window, locked); err != nil {
			return err
		}
		if err := s.validateBindings(tx, orgID, in.Stops, 0); err != nil {
			return err
		}

		route = models.Route{
			OrgID:         orgID,
			Name:          in.Name,
			VehicleID:     vehicle.ID,
			ShiftID:       shift.ID,
			Date:          dateOnly(in.Window.Start),
			StartTime:     in.Window.Start,
			EndTime:       in.Window.End,
			Status:        models.RouteStatusActive,
			TotalDistance: in.TotalDistance,
			TotalTime:     in.TotalTime,
			Path:          in.Path,
		}
		if err := tx.Create(&route).Error; err != nil {
			return err
		}
		if err := s.writeStops(tx, &route, in.Stops); err != nil {
			return err
		}
		riders := countRiders(in.Stops)
		return s.bumpAvailability(tx, avail, in.Window, riders, riders, +1)
	})
	if err != nil {
		return nil, s.mapTxError(err)
	}

	s.fireHook(s.notifier.RouteCreated, routeEvent(&route))
	return s.reload(route.ID)
}

// UpdateStops replaces the route's stop set. Old bindings are released and
// the new set is re-sequenced 1..n inside one transaction; on any failure
// the previous stop set survives untouched.
func (s *RouteService) UpdateStops(orgID, routeID uint, stops []StopInput) (*models.Route, error) {
	route, err := s.fetchRoute(s.db, orgID, routeID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.fetchVehicle(s.db, orgID, route.VehicleID)
	if err != nil {
		return nil, err
	}
	newRiders := countRiders(stops)
	if newRiders > vehicle.Capacity {
		return nil, fmt.Errorf("%w: %d riders on a capacity-%d vehicle", ErrCapacityExceeded, newRiders, vehicle.Capacity)
	}
	if err := s.validateBindings(s.db, orgID, stops, route.ID); err != nil {
		return nil, err
	}

	window := TimeWindow{Start: route.StartTime, End: route.EndTime}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		avail, err := s.lockAvailability(tx, orgID, route.VehicleID, route.ShiftID, route.Date)
		if err != nil {
			return err
		}
		// Re-run capacity and binding checks under the lock; the pre-check
		// snapshot may be stale by now.
		vehicle, err := s.fetchVehicle(tx, orgID, route.VehicleID)
		if err != nil {
			return err
		}
		if newRiders > vehicle.Capacity {
			return fmt.Errorf("%w: %d riders on a capacity-%d vehicle", ErrCapacityExceeded, newRiders, vehicle.Capacity)
		}
		if err := s.validateBindings(tx, orgID, stops, route.ID); err != nil {
			return err
		}
		oldRiders, err := s.releaseStops(tx, route)
		if err != nil {
			return err
		}
		if err := s.writeStops(tx, route, stops); err != nil {
			return err
		}
		return s.bumpAvailability(tx, avail, window, newRiders-oldRiders, newRiders-oldRiders, 0)
	})
	if err != nil {
		return nil, s.mapTxError(err)
	}

	s.fireHook(s.notifier.RouteStopsUpdated, routeEvent(route))
	return s.reload(route.ID)
}

// Delete soft-deletes one or more routes. Validation is all-or-nothing: any
// missing id fails the whole call before a single cascade runs. Each cascade
// releases employee bindings, unassigns stops, rolls back the availability
// contribution and marks the route canceled, all in one transaction.
func (s *RouteService) Delete(orgID uint, routeIDs ...uint) error {
	if len(routeIDs) == 0 {
		return fmt.Errorf("%w: no route ids given", ErrValidation)
	}
	routes := make([]*models.Route, 0, len(routeIDs))
	for _, id := range routeIDs {
		route, err := s.fetchRoute(s.db, orgID, id)
		if err != nil {
			return err
		}
		routes = append(routes, route)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, route := range routes {
			avail, err := s.lockAvailability(tx, route.OrgID, route.VehicleID, route.ShiftID, route.Date)
			if err != nil {
				return err
			}
			riders, err := s.releaseStops(tx, route)
			if err != nil {
				return err
			}
			window := TimeWindow{Start: route.StartTime, End: route.EndTime}
			if err := s.bumpAvailability(tx, avail, window, -riders, -riders, -1); err != nil {
				return err
			}
			if err := tx.Model(route).Update("status", models.RouteStatusCanceled).Error; err != nil {
				return err
			}
			if err := tx.Delete(route).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.mapTxError(err)
	}

	for _, route := range routes {
		s.fireHook(s.notifier.RouteDeleted, routeEvent(route))
	}
	return nil
}

// Get returns one route with ordered stops. includeDeleted opens the audit
// view of soft-deleted routes.
func (s *RouteService) Get(orgID, routeID uint, includeDeleted bool) (*models.Route, error) {
	db := s.db
	if includeDeleted {
		db = db.Unscoped()
	}
	var route models.Route
	if err := db.Preload("Stops", stopPreload(includeDeleted)).First(&route, routeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: route %d", ErrNotFound, routeID)
		}
		return nil, err
	}
	if route.OrgID != orgID {
		return nil, fmt.Errorf("%w: route %d", ErrOrgMismatch, routeID)
	}
	return &route, nil
}

// List returns the org's routes, newest date first, excluding soft-deleted
// unless the audit view is requested.
func (s *RouteService) List(orgID uint, includeDeleted bool) ([]models.Route, error) {
	db := s.db
	if includeDeleted {
		db = db.Unscoped()
	}
	var routes []models.Route
	err := db.Preload("Stops", stopPreload(includeDeleted)).
		Where("org_id = ?", orgID).Order("date DESC, start_time ASC").Find(&routes).Error
	if err != nil {
		return nil, err
	}
	return routes, nil
}

// stopPreload orders stops by sequence; the audit view also has to lift the
// soft-delete scope on the preload or a canceled route comes back stopless.
func stopPreload(includeDeleted bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if includeDeleted {
			db = db.Unscoped()
		}
		return db.Order("seq ASC")
	}
}

// RankVehicles lists the org's vehicles that could take one more rider in
// the given shift/date/window, ordered by the load-balancing score.
func (s *RouteService) RankVehicles(orgID, shiftID uint, window TimeWindow) ([]VehicleLoad, error) {
	shift, err := s.fetchShift(s.db, orgID, shiftID)
	if err != nil {
		return nil, err
	}
	var vehicles []models.Vehicle
	if err := s.db.Where("org_id = ?", orgID).Find(&vehicles).Error; err != nil {
		return nil, err
	}

	candidates := make([]VehicleLoad, 0, len(vehicles))
	for i := range vehicles {
		v := &vehicles[i]
		existing, err := s.routeWindows(s.db, v.ID, window.Start)
		if err != nil {
			return nil, err
		}
		if s.checker.Check(v, shift, window, existing) != nil {
			continue
		}
		occupied, err := s.occupiedSeats(v.ID, shift.ID, window.Start)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, VehicleLoad{VehicleID: v.ID, Capacity: v.Capacity, Occupied: occupied})
	}
	return Rank(candidates, 1), nil
}

// --- storage helpers -------------------------------------------------------

func (s *RouteService) fetchVehicle(db *gorm.DB, orgID, id uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := db.First(&vehicle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vehicle %d", ErrNotFound, id)
		}
		return nil, err
	}
	if vehicle.OrgID != orgID {
		return nil, fmt.Errorf("%w: vehicle %d", ErrOrgMismatch, id)
	}
	return &vehicle, nil
}

func (s *RouteService) fetchShift(db *gorm.DB, orgID, id uint) (*models.Shift, error) {
	var shift models.Shift
	if err := db.First(&shift, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: shift %d", ErrNotFound, id)
		}
		return nil, err
	}
	if shift.OrgID != orgID {
		return nil, fmt.Errorf("%w: shift %d", ErrOrgMismatch, id)
	}
	return &shift, nil
}

func (s *RouteService) fetchRoute(db *gorm.DB, orgID, id uint) (*models.Route, error) {
	var route models.Route
	if err := db.First(&route, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: route %d", ErrNotFound, id)
		}
		return nil, err
	}
	if route.OrgID != orgID {
		return nil, fmt.Errorf("%w: route %d", ErrOrgMismatch, id)
	}
	return &route, nil
}

// reload reads back a route with ordered stops after its transaction
// committed. A failure here is reported as such, not as a failed mutation:
// the write is already durable.
func (s *RouteService) reload(routeID uint) (*models.Route, error) {
	var route models.Route
	err := s.db.Preload("Stops", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).First(&route, routeID).Error
	if err != nil {
		return nil, fmt.Errorf("route %d committed but reading it back failed: %w", routeID, err)
	}
	return &route, nil
}

// routeWindows fetches the conflict snapshot: every non-deleted, non-canceled
// route of the vehicle on the window's date.
func (s *RouteService) routeWindows(db *gorm.DB, vehicleID uint, date time.Time) ([]RouteWindow, error) {
	var routes []models.Route
	err := db.Where("vehicle_id = ? AND date = ? AND status <> ?",
		vehicleID, dateOnly(date), models.RouteStatusCanceled).Find(&routes).Error
	if err != nil {
		return nil, err
	}
	windows := make([]RouteWindow, 0, len(routes))
	for _, r := range routes {
		windows = append(windows, RouteWindow{
			RouteID: r.ID,
			Window:  TimeWindow{Start: r.StartTime, End: r.EndTime},
		})
	}
	return windows, nil
}

// lockRows adds FOR UPDATE on drivers that support it. SQLite allows one
// writer at a time, so its transactions serialize without the clause.
func (s *RouteService) lockRows(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// validateBindings enforces the one-binding-per-employee rule, both against
// stored bindings and within the request itself. An employee bound to a stop
// of excludeRouteID is fine: that binding is being replaced.
func (s *RouteService) validateBindings(db *gorm.DB, orgID uint, stops []StopInput, excludeRouteID uint) error {
	seen := make(map[uint]struct{}, len(stops))
	for _, in := range stops {
		if in.EmployeeID == nil {
			continue
		}
		if _, dup := seen[*in.EmployeeID]; dup {
			return fmt.Errorf("%w: employee %d listed on more than one stop", ErrDoubleBooking, *in.EmployeeID)
		}
		seen[*in.EmployeeID] = struct{}{}
		var employee models.Employee
		if err := db.First(&employee, *in.EmployeeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: employee %d", ErrNotFound, *in.EmployeeID)
			}
			return err
		}
		if employee.OrgID != orgID {
			return fmt.Errorf("%w: employee %d", ErrOrgMismatch, *in.EmployeeID)
		}
		if employee.StopID == nil {
			continue
		}
		var bound models.Stop
		if err := db.First(&bound, *employee.StopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Stale back-reference to a removed stop; treat as free.
				continue
			}
			return err
		}
		if bound.RouteID != excludeRouteID {
			return &DoubleBookingError{EmployeeID: employee.ID, RouteID: bound.RouteID}
		}
	}
	return nil
}

// writeStops creates the stop set re-sequenced 1..n in the given order and
// points each bound employee at its new stop.
func (s *RouteService) writeStops(tx *gorm.DB, route *models.Route, inputs []StopInput) error {
	stops := make([]models.Stop, 0, len(inputs))
	for _, in := range inputs {
		stops = append(stops, models.Stop{
			RouteID:    route.ID,
			OrgID:      route.OrgID,
			Name:       in.Name,
			Lat:        in.Lat,
			Lng:        in.Lng,
			EmployeeID: in.EmployeeID,
		})
	}
	stops = Resequence(stops)
	for i := range stops {
		if err := tx.Create(&stops[i]).Error; err != nil {
			return err
		}
		if stops[i].EmployeeID != nil {
			err := tx.Model(&models.Employee{}).
				Where("id = ?", *stops[i].EmployeeID).
				Update("stop_id", stops[i].ID).Error
			if err != nil {
				return err
			}
		}
	}
	route.Stops = stops
	return nil
}

// releaseStops clears the employee bindings held by the route's current
// stops and removes the stops, returning how many riders were released.
func (s *RouteService) releaseStops(tx *gorm.DB, route *models.Route) (int, error) {
	var stops []models.Stop
	if err := tx.Where("route_id = ?", route.ID).Find(&stops).Error; err != nil {
		return 0, err
	}
	riders := 0
	for _, stop := range stops {
		if stop.EmployeeID != nil {
			riders++
		}
	}
	err := tx.Model(&models.Employee{}).
		Where("stop_id IN (?)", tx.Model(&models.Stop{}).Select("id").Where("route_id = ?", route.ID)).
		Update("stop_id", nil).Error
	if err != nil {
		return 0, err
	}
	if err := tx.Model(&models.Stop{}).Where("route_id = ?", route.ID).Update("employee_id", nil).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("route_id = ?", route.ID).Delete(&models.Stop{}).Error; err != nil {
		return 0, err
	}
	return riders, nil
}

// lockAvailability returns the (vehicle, shift, date) availability row with
// its row lock held, inserting the row first if this is the slot's first
// route. The insert uses ON CONFLICT DO NOTHING so losing the insert race
// just means blocking on the winner's lock and reusing its row; either way
// the caller holds the slot's lock until commit, and every route write goes
// through here before touching routes or stops.
func (s *RouteService) lockAvailability(tx *gorm.DB, orgID, vehicleID, shiftID uint, date time.Time) (*models.VehicleAvailability, error) {
	var row models.VehicleAvailability
	err := s.lockRows(tx).Where("vehicle_id = ? AND shift_id = ? AND date = ?",
		vehicleID, shiftID, date).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	fresh := models.VehicleAvailability{
		OrgID:     orgID,
		VehicleID: vehicleID,
		ShiftID:   shiftID,
		Date:      date,
	}
	if err := fresh.SetSlots(map[string]int{}); err != nil {
		return nil, err
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, err
	}
	if err := s.lockRows(tx).Where("vehicle_id = ? AND shift_id = ? AND date = ?",
		vehicleID, shiftID, date).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// bumpAvailability adjusts the locked row's counters: seatDelta moves the
// aggregate occupancy, slotDelta the per-window counter, routeDelta the
// route count. The row comes from lockAvailability in the same transaction.
func (s *RouteService) bumpAvailability(tx *gorm.DB, row *models.VehicleAvailability, window TimeWindow, seatDelta, slotDelta, routeDelta int) error {
	row.RouteCount += routeDelta
	if row.RouteCount < 0 {
		row.RouteCount = 0
	}
	row.OccupiedSeats += seatDelta
	if row.OccupiedSeats < 0 {
		row.OccupiedSeats = 0
	}
	slots, err := row.Slots()
	if err != nil {
		return err
	}
	key := window.SlotKey()
	slots[key] += slotDelta
	if slots[key] <= 0 {
		delete(slots, key)
	}
	if err := row.SetSlots(slots); err != nil {
		return err
	}
	return tx.Save(row).Error
}

func (s *RouteService) occupiedSeats(vehicleID, shiftID uint, date time.Time) (int, error) {
	var row models.VehicleAvailability
	err := s.db.Where("vehicle_id = ? AND shift_id = ? AND date = ?",
		vehicleID, shiftID, dateOnly(date)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.OccupiedSeats, nil
}

// mapTxError keeps the typed taxonomy intact across the transaction boundary
// and turns a lost uniqueness race into the same Conflict a pre-check would
// have produced.
func (s *RouteService) mapTxError(err error) error {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrDoubleBooking),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrOrgMismatch),
		errors.Is(err, ErrValidation):
		return err
	case isUniqueViolation(err):
		return fmt.Errorf("%w: slot already taken", ErrConflict)
	default:
		logrus.WithError(err).Error("route transaction aborted")
		return fmt.Errorf("route transaction failed: %w", err)
	}
}

func (s *RouteService) fireHook(fn func(notify.Event) error, e notify.Event) {
	go func() {
		if err := fn(e); err != nil {
			logrus.WithError(err).WithField("route_id", e.RouteID).Warn("notification delivery failed")
		}
	}()
}

func routeEvent(route *models.Route) notify.Event {
	return notify.Event{
		OrgID:     route.OrgID,
		RouteID:   route.ID,
		VehicleID: route.VehicleID,
		RouteName: route.Name,
		Date:      route.Date.Format("2006-01-02"),
	}
}

func countRiders(stops []StopInput) int {
	riders := 0
	for _, s := range stops {
		if s.EmployeeID != nil {
			riders++
		}
	}
	return riders
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
