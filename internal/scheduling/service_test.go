package scheduling

import (
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kidusm001/multi-fleet-managment-sub007/internal/config"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/models"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/notify"
)

type fixture struct {
	db       *gorm.DB
	svc      *RouteService
	org      models.Organization
	otherOrg models.Organization
	shift    models.Shift
	vehicle  models.Vehicle // capacity 2
	e1, e2   models.Employee
	e3       models.Employee
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{db: db, svc: NewRouteService(db, Checker{}, notify.LogNotifier{})}

	f.org = models.Organization{Name: "acme", Email: "fleet@acme.test"}
	f.otherOrg = models.Organization{Name: "globex", Email: "fleet@globex.test"}
	mustCreate(t, db, &f.org, &f.otherOrg)

	f.shift = models.Shift{
		OrgID:     f.org.ID,
		Name:      "morning",
		StartTime: time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(0, 1, 1, 17, 0, 0, 0, time.UTC),
		TimeZone:  "UTC",
	}
	mustCreate(t, db, &f.shift)

	f.vehicle = models.Vehicle{OrgID: f.org.ID, Name: "V1", PlateNo: "KAA 001", Capacity: 2, Status: models.VehicleStatusActive}
	mustCreate(t, db, &f.vehicle)

	f.e1 = models.Employee{OrgID: f.org.ID, Name: "E1", ShiftID: f.shift.ID}
	f.e2 = models.Employee{OrgID: f.org.ID, Name: "E2", ShiftID: f.shift.ID}
	f.e3 = models.Employee{OrgID: f.org.ID, Name: "E3", ShiftID: f.shift.ID}
	mustCreate(t, db, &f.e1, &f.e2, &f.e3)

	return f
}

func mustCreate(t *testing.T, db *gorm.DB, records ...interface{}) {
	t.Helper()
	for _, r := range records {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed %T: %v", r, err)
		}
	}
}

func (f *fixture) draft(name string, w TimeWindow, employees ...uint) CreateRouteInput {
	stops := make([]StopInput, 0, len(employees))
	for i, id := range employees {
		eid := id
		stops = append(stops, StopInput{Name: name, Lat: float64(i), Lng: float64(i), EmployeeID: &eid})
	}
	return CreateRouteInput{
		Name:      name,
		VehicleID: f.vehicle.ID,
		ShiftID:   f.shift.ID,
		Window:    w,
		Stops:     stops,
	}
}

func TestCreate_PersistsRouteStopsBindingsAndAvailability(t *testing.T) {
	f := newFixture(t)

	route, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID, f.e2.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if route.Status != models.RouteStatusActive || route.OrgID != f.org.ID {
		t.Fatalf("unexpected route %+v", route)
	}
	if len(route.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(route.Stops))
	}
	for i, stop := range route.Stops {
		if stop.Seq != i+1 {
			t.Fatalf("stop %d: seq = %d, want %d", i, stop.Seq, i+1)
		}
		if stop.OrgID != f.org.ID {
			t.Fatalf("stop %d missing org stamp", i)
		}
	}

	var e1 models.Employee
	f.db.First(&e1, f.e1.ID)
	if e1.StopID == nil {
		t.Fatal("employee E1 not bound to a stop")
	}

	var avail models.VehicleAvailability
	err = f.db.Where("vehicle_id = ? AND shift_id = ?", f.vehicle.ID, f.shift.ID).First(&avail).Error
	if err != nil {
		t.Fatalf("availability row missing: %v", err)
	}
	if avail.RouteCount != 1 || avail.OccupiedSeats != 2 {
		t.Fatalf("availability counters = %d routes / %d seats", avail.RouteCount, avail.OccupiedSeats)
	}
	slots, _ := avail.Slots()
	if slots["09:00-09:30"] != 2 {
		t.Fatalf("slot load = %v", slots)
	}
}

func TestCreate_ConflictReferencesBlockingRoute(t *testing.T) {
	f := newFixture(t)

	r1, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30)))
	if err != nil {
		t.Fatalf("create R1: %v", err)
	}

	_, err = f.svc.Create(f.org.ID, f.draft("R2", window(9, 15, 9, 45)))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.RouteID != r1.ID {
		t.Fatalf("conflict references route %d, want %d", conflict.RouteID, r1.ID)
	}

	// Half-open boundary: starting exactly at R1's end is fine.
	if _, err := f.svc.Create(f.org.ID, f.draft("R3", window(9, 30, 10, 0))); err != nil {
		t.Fatalf("boundary-adjacent create rejected: %v", err)
	}
}

func TestCreate_RejectsDoubleBookedEmployee(t *testing.T) {
	f := newFixture(t)

	r1, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID))
	if err != nil {
		t.Fatalf("create R1: %v", err)
	}

	_, err = f.svc.Create(f.org.ID, f.draft("R2", window(10, 0, 10, 30), f.e1.ID))
	var double *DoubleBookingError
	if !errors.As(err, &double) {
		t.Fatalf("expected DoubleBookingError, got %v", err)
	}
	if double.EmployeeID != f.e1.ID || double.RouteID != r1.ID {
		t.Fatalf("unexpected double booking detail %+v", double)
	}
}

func TestCreate_RejectsOverCapacity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID, f.e2.ID, f.e3.ID))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	var n int64
	f.db.Unscoped().Model(&models.Route{}).Count(&n)
	if n != 0 {
		t.Fatalf("rejected create left %d route rows", n)
	}
}

func TestCreate_RejectsVehicleInMaintenance(t *testing.T) {
	f := newFixture(t)
	f.db.Model(&f.vehicle).Update("status", models.VehicleStatusMaintenance)

	_, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30)))
	if !errors.Is(err, ErrVehicleUnavailable) {
		t.Fatalf("expected ErrVehicleUnavailable, got %v", err)
	}
}

func TestCreate_NotFoundAndOrgMismatch(t *testing.T) {
	f := newFixture(t)

	in := f.draft("R1", window(9, 0, 9, 30))
	in.ShiftID = 9999
	if _, err := f.svc.Create(f.org.ID, in); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing shift, got %v", err)
	}

	if _, err := f.svc.Create(f.otherOrg.ID, f.draft("R1", window(9, 0, 9, 30))); !errors.Is(err, ErrOrgMismatch) {
		t.Fatalf("expected ErrOrgMismatch for cross-org access, got %v", err)
	}
}

func TestCreate_AbortLeavesNoPartialState(t *testing.T) {
	f := newFixture(t)

	// Force a storage failure after the route insert but before the stop
	// insert: the whole transaction must roll back.
	if err := f.db.Migrator().DropTable(&models.Stop{}); err != nil {
		t.Fatalf("drop stops: %v", err)
	}

	_, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID))
	if err == nil {
		t.Fatal("expected create to fail")
	}

	var routes, avail int64
	f.db.Unscoped().Model(&models.Route{}).Count(&routes)
	f.db.Unscoped().Model(&models.VehicleAvailability{}).Count(&avail)
	if routes != 0 || avail != 0 {
		t.Fatalf("partial state survived abort: %d routes, %d availability rows", routes, avail)
	}
}

func TestCreate_RejectsRepeatedEmployeeInOneRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID, f.e1.ID))
	if !errors.Is(err, ErrDoubleBooking) {
		t.Fatalf("expected ErrDoubleBooking, got %v", err)
	}

	var routes int64
	f.db.Unscoped().Model(&models.Route{}).Count(&routes)
	if routes != 0 {
		t.Fatalf("rejected create left %d route rows", routes)
	}
	var e1 models.Employee
	f.db.First(&e1, f.e1.ID)
	if e1.StopID != nil {
		t.Fatal("employee bound by a rejected create")
	}
}

// Sequential storm against one vehicle/day: only mutually disjoint windows
// may land, and the availability bookkeeping has to agree with the survivors.
func TestCreate_OverlappingBurstAdmitsOnlyDisjointWindows(t *testing.T) {
	f := newFixture(t)

	attempts := []struct {
		name string
		w    TimeWindow
		ok   bool
	}{
		{"A", window(9, 0, 9, 30), true},
		{"B", window(9, 15, 9, 45), false},
		{"C", window(9, 30, 10, 0), true},
		{"D", window(9, 45, 10, 15), false},
		{"E", window(10, 0, 10, 30), true},
	}
	admitted := 0
	for _, a := range attempts {
		_, err := f.svc.Create(f.org.ID, f.draft(a.name, a.w))
		if a.ok && err != nil {
			t.Fatalf("%s rejected: %v", a.name, err)
		}
		if !a.ok && !errors.Is(err, ErrConflict) {
			t.Fatalf("%s: expected conflict, got %v", a.name, err)
		}
		if err == nil {
			admitted++
		}
	}

	var routes int64
	f.db.Model(&models.Route{}).Where("status <> ?", models.RouteStatusCanceled).Count(&routes)
	if routes != int64(admitted) {
		t.Fatalf("%d routes persisted, %d admitted", routes, admitted)
	}
	var avail models.VehicleAvailability
	if err := f.db.Where("vehicle_id = ? AND shift_id = ?", f.vehicle.ID, f.shift.ID).First(&avail).Error; err != nil {
		t.Fatalf("availability row: %v", err)
	}
	if avail.RouteCount != admitted {
		t.Fatalf("availability counts %d routes, want %d", avail.RouteCount, admitted)
	}
}

func TestReloadAfterCommit_ReportsReadBackFailure(t *testing.T) {
	f := newFixture(t)

	route, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.db.Migrator().DropTable(&models.Stop{}); err != nil {
		t.Fatalf("drop stops: %v", err)
	}
	if _, err := f.svc.reload(route.ID); err == nil {
		t.Fatal("expected the read-back to fail without the stops table")
	}
}

func TestUpdateStops_ResequencesAndRebinds(t *testing.T) {
	f := newFixture(t)

	route, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.svc.UpdateStops(f.org.ID, route.ID, []StopInput{
		{Name: "gate", Lat: 1, Lng: 1},
		{Name: "market", Lat: 2, Lng: 2, EmployeeID: &f.e2.ID},
		{Name: "depot", Lat: 3, Lng: 3, EmployeeID: &f.e1.ID},
	})
	if err != nil {
		t.Fatalf("update stops: %v", err)
	}
	if len(updated.Stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(updated.Stops))
	}
	for i, stop := range updated.Stops {
		if stop.Seq != i+1 {
			t.Fatalf("stop %d: seq = %d, want %d", i, stop.Seq, i+1)
		}
	}

	var avail models.VehicleAvailability
	f.db.Where("vehicle_id = ?", f.vehicle.ID).First(&avail)
	if avail.OccupiedSeats != 2 {
		t.Fatalf("occupied seats = %d, want 2", avail.OccupiedSeats)
	}
}

func TestUpdateStops_OverCapacityLeavesStopSetUntouched(t *testing.T) {
	f := newFixture(t)

	route, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID, f.e2.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.UpdateStops(f.org.ID, route.ID, []StopInput{
		{Name: "a", Lat: 1, Lng: 1, EmployeeID: &f.e1.ID},
		{Name: "b", Lat: 2, Lng: 2, EmployeeID: &f.e2.ID},
		{Name: "c", Lat: 3, Lng: 3, EmployeeID: &f.e3.ID},
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	var stops []models.Stop
	f.db.Where("route_id = ?", route.ID).Order("seq").Find(&stops)
	if len(stops) != 2 {
		t.Fatalf("stop set changed: %d stops, want 2", len(stops))
	}
	var e1 models.Employee
	f.db.First(&e1, f.e1.ID)
	if e1.StopID == nil {
		t.Fatal("existing binding lost on rejected update")
	}
}

func TestUpdateStops_RejectsEmployeeBoundElsewhere(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID))
	if err != nil {
		t.Fatalf("create R1: %v", err)
	}
	r2, err := f.svc.Create(f.org.ID, f.draft("R2", window(10, 0, 10, 30), f.e2.ID))
	if err != nil {
		t.Fatalf("create R2: %v", err)
	}

	_, err = f.svc.UpdateStops(f.org.ID, r2.ID, []StopInput{
		{Name: "a", Lat: 1, Lng: 1, EmployeeID: &f.e1.ID},
	})
	if !errors.Is(err, ErrDoubleBooking) {
		t.Fatalf("expected ErrDoubleBooking, got %v", err)
	}
}

func TestUpdateStops_RejectsRepeatedEmployeeInOneRequest(t *testing.T) {
	f := newFixture(t)

	route, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.UpdateStops(f.org.ID, route.ID, []StopInput{
		{Name: "a", Lat: 1, Lng: 1, EmployeeID: &f.e2.ID},
		{Name: "b", Lat: 2, Lng: 2, EmployeeID: &f.e2.ID},
	})
	if !errors.Is(err, ErrDoubleBooking) {
		t.Fatalf("expected ErrDoubleBooking, got %v", err)
	}

	var stops []models.Stop
	f.db.Where("route_id = ?", route.ID).Find(&stops)
	if len(stops) != 1 {
		t.Fatalf("stop set changed: %d stops, want 1", len(stops))
	}
}

func TestDelete_CascadesAndFreesTheSlot(t *testing.T) {
	f := newFixture(t)

	route, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID, f.e2.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.Delete(f.org.ID, route.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Bindings released.
	var e1, e2 models.Employee
	f.db.First(&e1, f.e1.ID)
	f.db.First(&e2, f.e2.ID)
	if e1.StopID != nil || e2.StopID != nil {
		t.Fatal("employee bindings not released")
	}

	// Soft-deleted: gone from default queries, visible in the audit view.
	if _, err := f.svc.Get(f.org.ID, route.ID, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from default view, got %v", err)
	}
	audit, err := f.svc.Get(f.org.ID, route.ID, true)
	if err != nil {
		t.Fatalf("audit view: %v", err)
	}
	if audit.Status != models.RouteStatusCanceled {
		t.Fatalf("audit status = %s, want canceled", audit.Status)
	}
	// The audit view keeps the historical stop set, unassigned.
	if len(audit.Stops) != 2 {
		t.Fatalf("audit view lost the stops: got %d, want 2", len(audit.Stops))
	}
	for i, stop := range audit.Stops {
		if stop.EmployeeID != nil {
			t.Fatalf("audit stop %d still bound to employee %d", i, *stop.EmployeeID)
		}
	}

	// Availability contribution rolled back.
	var avail models.VehicleAvailability
	f.db.Where("vehicle_id = ?", f.vehicle.ID).First(&avail)
	if avail.RouteCount != 0 || avail.OccupiedSeats != 0 {
		t.Fatalf("availability not rolled back: %d routes / %d seats", avail.RouteCount, avail.OccupiedSeats)
	}

	// The slot and the riders are reusable immediately.
	if _, err := f.svc.Create(f.org.ID, f.draft("R2", window(9, 0, 9, 30), f.e1.ID)); err != nil {
		t.Fatalf("recreate after delete rejected: %v", err)
	}
}

func TestDelete_BulkValidationIsAllOrNothing(t *testing.T) {
	f := newFixture(t)

	route, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.Delete(f.org.ID, route.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// R1 untouched by the failed bulk call.
	if _, err := f.svc.Get(f.org.ID, route.ID, false); err != nil {
		t.Fatalf("route should survive failed bulk delete: %v", err)
	}
}

func TestCheckAvailability_SnapshotAnswers(t *testing.T) {
	f := newFixture(t)

	r1, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	free, err := f.svc.CheckAvailability(f.org.ID, f.vehicle.ID, f.shift.ID, window(10, 0, 10, 30))
	if err != nil || !free.Available {
		t.Fatalf("expected available, got %+v err %v", free, err)
	}

	busy, err := f.svc.CheckAvailability(f.org.ID, f.vehicle.ID, f.shift.ID, window(9, 15, 9, 45))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if busy.Available || busy.ConflictRouteID != r1.ID {
		t.Fatalf("expected conflict with %d, got %+v", r1.ID, busy)
	}

	if _, err := f.svc.CheckAvailability(f.org.ID, 9999, f.shift.ID, window(9, 0, 9, 30)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRankVehicles_OrdersByFreeShareAndSkipsBlocked(t *testing.T) {
	f := newFixture(t)

	v2 := models.Vehicle{OrgID: f.org.ID, Name: "V2", PlateNo: "KAA 002", Capacity: 4, Status: models.VehicleStatusActive}
	v3 := models.Vehicle{OrgID: f.org.ID, Name: "V3", PlateNo: "KAA 003", Capacity: 4, Status: models.VehicleStatusActive}
	mustCreate(t, f.db, &v2, &v3)

	// V1 (capacity 2) carries one rider at 09:00; V3 is busy during the
	// ranking window itself.
	if _, err := f.svc.Create(f.org.ID, f.draft("R1", window(9, 0, 9, 30), f.e1.ID)); err != nil {
		t.Fatalf("create R1: %v", err)
	}
	in := f.draft("R2", window(10, 0, 10, 30))
	in.VehicleID = v3.ID
	if _, err := f.svc.Create(f.org.ID, in); err != nil {
		t.Fatalf("create R2: %v", err)
	}

	ranked, err := f.svc.RankVehicles(f.org.ID, f.shift.ID, window(10, 0, 10, 30))
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", ranked)
	}
	// V2: 100% free beats V1: 50% free; V3 excluded for the conflict.
	if ranked[0].VehicleID != v2.ID || ranked[1].VehicleID != f.vehicle.ID {
		t.Fatalf("unexpected order %+v", ranked)
	}
}
