// internal/models/employee.go
package models

import (
	"gorm.io/gorm"
)

// Employee is a rider who can be booked onto at most one stop across all
// non-deleted routes for a given date/shift. StopID is a weak back-reference
// to the current binding, cleared when the owning route is deleted.
type Employee struct {
	gorm.Model
	OrgID        uint   `json:"org_id" gorm:"index;not null"`
	DepartmentID uint   `json:"department_id" gorm:"index"`
	ShiftID      uint   `json:"shift_id" gorm:"index"` // preferred shift
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	StopID       *uint  `json:"stop_id" gorm:"index"`
}
