package scheduling

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Error taxonomy surfaced to callers. Handlers map these to HTTP statuses;
// they are never collapsed into a generic failure because a Conflict means
// "try another vehicle" while a ValidationError means "fix your input".
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("invalid input")
	ErrConflict         = errors.New("schedule conflict")
	ErrDoubleBooking    = errors.New("employee already booked")
	ErrCapacityExceeded = errors.New("vehicle capacity exceeded")
	ErrOrgMismatch      = errors.New("organization mismatch")
)

// ConflictError reports the first route found overlapping a proposed window.
type ConflictError struct {
	RouteID uint
	Window  TimeWindow
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict with route %d (%s)", e.RouteID, e.Window)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// DoubleBookingError reports an employee already bound to a stop elsewhere.
type DoubleBookingError struct {
	EmployeeID uint
	RouteID    uint
}

func (e *DoubleBookingError) Error() string {
	return fmt.Sprintf("employee %d already booked on route %d", e.EmployeeID, e.RouteID)
}

func (e *DoubleBookingError) Unwrap() error { return ErrDoubleBooking }

// isUniqueViolation detects a duplicate-key insert on Postgres (23505),
// on GORM's translated error, and on the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}
