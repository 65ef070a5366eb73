package models

import (
	"gorm.io/gorm"
)

// Organization is the tenant that owns a fleet. Every scheduling row
// (vehicle, shift, route, stop, availability) is stamped with its ID.
type Organization struct {
	gorm.Model

	Name    string `json:"name" binding:"required" gorm:"not null"`
	Email   string `gorm:"unique" json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	Vehicles []Vehicle `gorm:"foreignKey:OrgID" json:"vehicles,omitempty"`
	Shifts   []Shift   `gorm:"foreignKey:OrgID" json:"shifts,omitempty"`
}
