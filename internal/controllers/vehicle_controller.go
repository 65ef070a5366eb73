package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidusm001/multi-fleet-managment-sub007/internal/config"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/middleware"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/models"
)

// CreateVehicle registers a fleet vehicle; defaults status to active.
func CreateVehicle(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		PlateNo  string `json:"plate_no" binding:"required"`
		Capacity int    `json:"capacity" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle input: " + err.Error()})
		return
	}
	if input.Capacity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Capacity must be positive"})
		return
	}

	vehicle := models.Vehicle{
		OrgID:    middleware.OrgID(c),
		Name:     input.Name,
		PlateNo:  input.PlateNo,
		Capacity: input.Capacity,
		Status:   models.VehicleStatusActive,
	}

	if err := config.DB.Create(&vehicle).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vehicle: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"vehicle": vehicle})
}

// ListVehicles returns the org's fleet.
func ListVehicles(c *gin.Context) {
	var vehicles []models.Vehicle
	if err := config.DB.Where("org_id = ?", middleware.OrgID(c)).Find(&vehicles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching vehicles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

// UpdateVehicle changes name/capacity/status. Taking a vehicle out of
// service while it still has upcoming routes needs force=true.
func UpdateVehicle(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id := c.Param("id")

	var vehicle models.Vehicle
	if err := config.DB.Where("id = ? AND org_id = ?", id, orgID).First(&vehicle).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}

	var input struct {
		Name     *string `json:"name"`
		PlateNo  *string `json:"plate_no"`
		Capacity *int    `json:"capacity"`
		Status   *string `json:"status"`
		Force    bool    `json:"force"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
		return
	}

	if input.Status != nil && *input.Status != models.VehicleStatusActive && !input.Force {
		if n := upcomingRouteCount(vehicle.ID); n > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Vehicle has upcoming routes; pass force to override"})
			return
		}
	}

	if input.Name != nil {
		vehicle.Name = *input.Name
	}
	if input.PlateNo != nil {
		vehicle.PlateNo = *input.PlateNo
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Capacity must be positive"})
			return
		}
		vehicle.Capacity = *input.Capacity
	}
	if input.Status != nil {
		switch *input.Status {
		case models.VehicleStatusActive, models.VehicleStatusMaintenance, models.VehicleStatusInactive:
			vehicle.Status = *input.Status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown vehicle status"})
			return
		}
	}

	config.DB.Save(&vehicle)
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

// DeleteVehicle soft-deletes a vehicle. Vehicles referenced by historical
// routes are never hard-deleted.
func DeleteVehicle(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id := c.Param("id")

	var vehicle models.Vehicle
	if err := config.DB.Where("id = ? AND org_id = ?", id, orgID).First(&vehicle).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}

	if n := upcomingRouteCount(vehicle.ID); n > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Vehicle has upcoming routes"})
		return
	}

	config.DB.Delete(&vehicle)
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted"})
}

func upcomingRouteCount(vehicleID uint) int64 {
	var n int64
	config.DB.Model(&models.Route{}).
		Where("vehicle_id = ? AND status <> ? AND date >= ?",
			vehicleID, models.RouteStatusCanceled, time.Now().UTC().Truncate(24*time.Hour)).
		Count(&n)
	return n
}
