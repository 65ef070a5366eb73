package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kidusm001/multi-fleet-managment-sub007/internal/middleware"
)

// CheckAvailability answers whether a vehicle is free for a proposed window.
// Read-only; the authoritative check re-runs inside the create transaction.
func CheckAvailability(c *gin.Context) {
	vehicleID, err := strconv.ParseUint(c.Query("vehicle_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle_id"})
		return
	}
	shiftID, err := strconv.ParseUint(c.Query("shift_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift_id"})
		return
	}
	window, err := parseWindow(c.Query("date"), c.Query("start"), c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid window: " + err.Error()})
		return
	}

	result, err := scheduler.CheckAvailability(middleware.OrgID(c), uint(vehicleID), uint(shiftID), window)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RankedVehicles lists vehicles free for the window that can take one more
// rider, best load-balancing candidate first.
func RankedVehicles(c *gin.Context) {
	shiftID, err := strconv.ParseUint(c.Query("shift_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift_id"})
		return
	}
	window, err := parseWindow(c.Query("date"), c.Query("start"), c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid window: " + err.Error()})
		return
	}

	ranked, err := scheduler.RankVehicles(middleware.OrgID(c), uint(shiftID), window)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": ranked})
}
