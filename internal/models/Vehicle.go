// internal/models/vehicle.go
package models

import (
	"gorm.io/gorm"
)

// Vehicle operational statuses. Only active vehicles are schedulable.
const (
	VehicleStatusActive      = "active"
	VehicleStatusMaintenance = "maintenance"
	VehicleStatusInactive    = "inactive"
)

type Vehicle struct {
	gorm.Model
	OrgID    uint   `json:"org_id" gorm:"index;not null"`
	Name     string `json:"name"`
	PlateNo  string `json:"plate_no"`
	Capacity int    `json:"capacity" gorm:"not null"`
	Status   string `json:"status" gorm:"default:active;index"`
}

// Schedulable reports whether the vehicle's operational status permits
// new route assignments.
func (v *Vehicle) Schedulable() bool {
	return v.Status == VehicleStatusActive
}
