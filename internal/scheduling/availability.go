package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/kidusm001/multi-fleet-managment-sub007/internal/models"
)

// Vehicle-level rejection reasons. Both are conflicts from the caller's
// point of view: pick a different vehicle or a different window.
var (
	ErrVehicleUnavailable = fmt.Errorf("%w: vehicle not in service", ErrConflict)
	ErrBufferViolation    = fmt.Errorf("%w: route ends inside the shift buffer", ErrConflict)
)

// RouteWindow is one existing booking in the availability snapshot.
type RouteWindow struct {
	RouteID uint
	Window  TimeWindow
}

// Checker decides whether a vehicle can take a proposed window. It works on
// a snapshot the caller fetched; it performs no I/O of its own.
type Checker struct {
	// BufferEnabled turns on the minimum gap between a route's end and the
	// shift's start. Off unless the deployment opts in.
	BufferEnabled bool
	Buffer        time.Duration
}

// Availability is the outcome of a check, shaped for the read-only endpoint.
type Availability struct {
	Available       bool   `json:"available"`
	Reason          string `json:"reason,omitempty"`
	ConflictRouteID uint   `json:"conflict_route_id,omitempty"`
}

// Check returns nil when the vehicle is free for the proposed window, or a
// typed error naming the first obstacle found (fail-fast, no aggregation).
func (c Checker) Check(vehicle *models.Vehicle, shift *models.Shift, proposed TimeWindow, existing []RouteWindow) error {
	if err := proposed.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !vehicle.Schedulable() {
		return fmt.Errorf("%w (vehicle %d is %s)", ErrVehicleUnavailable, vehicle.ID, vehicle.Status)
	}
	for _, rw := range existing {
		if proposed.Overlaps(rw.Window) {
			return &ConflictError{RouteID: rw.RouteID, Window: rw.Window}
		}
	}
	if c.BufferEnabled {
		shiftStart := pinToDate(proposed.Start, shift.StartTime)
		if proposed.End.Add(c.Buffer).After(shiftStart) {
			return fmt.Errorf("%w (route must end %s before shift start)", ErrBufferViolation, c.Buffer)
		}
	}
	return nil
}

// Result converts a Check outcome into the wire shape.
func Result(err error) Availability {
	if err == nil {
		return Availability{Available: true}
	}
	out := Availability{Available: false, Reason: err.Error()}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		out.ConflictRouteID = conflict.RouteID
	}
	return out
}
