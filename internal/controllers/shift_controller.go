package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidusm001/multi-fleet-managment-sub007/internal/config"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/middleware"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/models"
)

// CreateShift registers a work window routes are scheduled against. Window
// bounds are treated as read-only once routes reference the shift.
func CreateShift(c *gin.Context) {
	var input struct {
		Name      string `json:"name" binding:"required"`
		StartTime string `json:"start_time" binding:"required"`
		EndTime   string `json:"end_time" binding:"required"`
		TimeZone  string `json:"time_zone"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift input: " + err.Error()})
		return
	}

	start, err := parseClock(input.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_time"})
		return
	}
	end, err := parseClock(input.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_time"})
		return
	}
	if !end.After(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shift end must be after start"})
		return
	}

	tz := input.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	shift := models.Shift{
		OrgID:     middleware.OrgID(c),
		Name:      input.Name,
		StartTime: start,
		EndTime:   end,
		TimeZone:  tz,
	}
	if err := config.DB.Create(&shift).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create shift: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"shift": shift})
}

// ListShifts returns the org's shifts.
func ListShifts(c *gin.Context) {
	var shifts []models.Shift
	if err := config.DB.Where("org_id = ?", middleware.OrgID(c)).Find(&shifts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching shifts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shifts": shifts})
}
