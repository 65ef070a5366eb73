package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VehicleAvailability is the materialized occupancy index for one
// (vehicle, shift, date) triple. It is only ever written inside the same
// transaction as the route mutation that changes it, and the composite
// unique index makes a lost check-then-act race surface as a duplicate-key
// conflict instead of a double booking.
type VehicleAvailability struct {
	gorm.Model

	OrgID     uint      `json:"org_id" gorm:"index;not null"`
	VehicleID uint      `json:"vehicle_id" gorm:"not null;uniqueIndex:idx_vehicle_shift_date"`
	ShiftID   uint      `json:"shift_id" gorm:"not null;uniqueIndex:idx_vehicle_shift_date"`
	Date      time.Time `json:"date" gorm:"type:date;uniqueIndex:idx_vehicle_shift_date"`

	RouteCount    int `json:"route_count"`
	OccupiedSeats int `json:"occupied_seats"`

	// Per time-slot rider counts keyed by "HH:MM-HH:MM".
	SlotLoads datatypes.JSON `json:"slot_loads"`
}

// Slots decodes SlotLoads; a nil/empty column decodes to an empty map.
func (a *VehicleAvailability) Slots() (map[string]int, error) {
	slots := map[string]int{}
	if len(a.SlotLoads) == 0 {
		return slots, nil
	}
	if err := json.Unmarshal(a.SlotLoads, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// SetSlots encodes the given slot map back into SlotLoads.
func (a *VehicleAvailability) SetSlots(slots map[string]int) error {
	raw, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	a.SlotLoads = datatypes.JSON(raw)
	return nil
}
