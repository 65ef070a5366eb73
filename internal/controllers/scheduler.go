package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	appcfg "github.com/kidusm001/multi-fleet-managment-sub007/internal/config"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/notify"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/scheduling"
)

var scheduler *scheduling.RouteService

// InitScheduler wires the route service the handlers delegate to.
func InitScheduler(db *gorm.DB, settings appcfg.Settings, notifier notify.Notifier) {
	checker := scheduling.Checker{
		BufferEnabled: settings.BufferEnabled,
		Buffer:        settings.Buffer,
	}
	scheduler = scheduling.NewRouteService(db, checker, notifier)
}

// respondSchedulingError maps the typed taxonomy onto HTTP statuses. The
// distinctions matter to callers: 409 means "try another vehicle or window",
// 400 means "fix your input", 404 means "stale reference".
func respondSchedulingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, scheduling.ErrOrgMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, scheduling.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, scheduling.ErrConflict),
		errors.Is(err, scheduling.ErrDoubleBooking),
		errors.Is(err, scheduling.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// parseDate reads a "2006-01-02" date; parseClock a "15:04" time of day.
func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

func parseClock(raw string) (time.Time, error) {
	return time.Parse("15:04", raw)
}

// parseWindow builds the half-open scheduling window from wire fields.
func parseWindow(date, start, end string) (scheduling.TimeWindow, error) {
	d, err := parseDate(date)
	if err != nil {
		return scheduling.TimeWindow{}, err
	}
	s, err := parseClock(start)
	if err != nil {
		return scheduling.TimeWindow{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return scheduling.TimeWindow{}, err
	}
	w := scheduling.NewTimeWindow(d, s, e)
	return w, w.Validate()
}
