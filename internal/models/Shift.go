package models

import (
	"time"

	"gorm.io/gorm"
)

// Shift is a recurring work window (e.g. "Morning 06:00-14:00") that routes
// are scheduled against. Window bounds are read-only once routes reference it.
type Shift struct {
	gorm.Model

	OrgID     uint      `json:"org_id" gorm:"index;not null"`
	Name      string    `json:"name" binding:"required"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TimeZone  string    `json:"time_zone" gorm:"default:UTC"`

	Employees []Employee `gorm:"foreignKey:ShiftID" json:"employees,omitempty"`
}
