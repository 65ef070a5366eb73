package models

import (
	"gorm.io/gorm"
)

// Stop is a pickup/drop-off point within a route. Seq is the 1-based visit
// order, kept contiguous by the stop sequencer on every mutation. EmployeeID
// is nil for a pickup point with no rider bound.
type Stop struct {
	gorm.Model

	RouteID    uint    `json:"route_id" gorm:"index;not null"`
	OrgID      uint    `json:"org_id" gorm:"index;not null"`
	Seq        int     `json:"seq"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	EmployeeID *uint   `json:"employee_id" gorm:"index"`
}
