package models

import (
	"time"

	"gorm.io/gorm"
)

// Route lifecycle statuses. The only transition is active -> canceled,
// which happens through the scheduler's soft delete.
const (
	RouteStatusActive   = "active"
	RouteStatusInactive = "inactive"
	RouteStatusCanceled = "canceled"
)

// Route is one scheduled trip of a vehicle on a date within a shift.
// It exclusively owns its ordered stops; it references (does not own)
// its vehicle and shift.
type Route struct {
	gorm.Model

	OrgID     uint   `json:"org_id" gorm:"index;not null"`
	Name      string `json:"name" binding:"required"`
	VehicleID uint   `json:"vehicle_id" gorm:"index;not null"`
	ShiftID   uint   `json:"shift_id" gorm:"index;not null"`

	Date      time.Time `json:"date" gorm:"type:date;index"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status" gorm:"default:active;index"`

	TotalDistance float64 `json:"total_distance"`
	TotalTime     float64 `json:"total_time"`

	// Optional path geometry stored as WKB (LINESTRING, SRID 4326).
	// The API edge speaks GeoJSON.
	Path []byte `gorm:"type:bytea" json:"-"`

	Stops []Stop `gorm:"foreignKey:RouteID" json:"stops,omitempty"`
}
