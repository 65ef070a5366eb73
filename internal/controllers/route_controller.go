package controllers

import (
	"encoding/binary"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kidusm001/multi-fleet-managment-sub007/internal/middleware"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/models"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/scheduling"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// RouteResponse mirrors models.Route with the path as a GeoJSON string and
// the window in wire format.
type RouteResponse struct {
	ID            uint           `json:"ID"`
	CreatedAt     time.Time      `json:"CreatedAt"`
	UpdatedAt     time.Time      `json:"UpdatedAt"`
	DeletedAt     gorm.DeletedAt `json:"DeletedAt,omitempty"`
	Name          string         `json:"name"`
	OrgID         uint           `json:"org_id"`
	VehicleID     uint           `json:"vehicle_id"`
	ShiftID       uint           `json:"shift_id"`
	Date          string         `json:"date"`
	StartTime     string         `json:"start_time"`
	EndTime       string         `json:"end_time"`
	Status        string         `json:"status"`
	TotalDistance float64        `json:"total_distance"`
	TotalTime     float64        `json:"total_time"`
	Path          string         `json:"path,omitempty"`
	Stops         []models.Stop  `json:"stops"`
}

func toRouteResponse(route *models.Route) RouteResponse {
	jsonPath, _ := convertWKBToGeoJSON(route.Path)
	return RouteResponse{
		ID:            route.ID,
		CreatedAt:     route.CreatedAt,
		UpdatedAt:     route.UpdatedAt,
		DeletedAt:     route.DeletedAt,
		Name:          route.Name,
		OrgID:         route.OrgID,
		VehicleID:     route.VehicleID,
		ShiftID:       route.ShiftID,
		Date:          route.Date.Format("2006-01-02"),
		StartTime:     route.StartTime.Format("15:04"),
		EndTime:       route.EndTime.Format("15:04"),
		Status:        route.Status,
		TotalDistance: route.TotalDistance,
		TotalTime:     route.TotalTime,
		Path:          jsonPath,
		Stops:         route.Stops,
	}
}

// parseAndConvertGeometry parses a GeoJSON string into a geom.T and returns WKB bytes
func parseAndConvertGeometry(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	var g geom.T
	err := gjson.Unmarshal([]byte(raw), &g)
	if err != nil {
		return nil, err
	}
	return wkb.Marshal(g, binary.LittleEndian)
}

// convertWKBToGeoJSON converts WKB bytes into a GeoJSON string
func convertWKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateRoute books a vehicle for a shift window and creates the route with
// its ordered stops atomically.
func CreateRoute(c *gin.Context) {
	var input struct {
		Name          string                 `json:"name" binding:"required"`
		VehicleID     uint                   `json:"vehicle_id" binding:"required"`
		ShiftID       uint                   `json:"shift_id" binding:"required"`
		Date          string                 `json:"date" binding:"required"`
		StartTime     string                 `json:"start_time" binding:"required"`
		EndTime       string                 `json:"end_time" binding:"required"`
		TotalDistance float64                `json:"total_distance"`
		TotalTime     float64                `json:"total_time"`
		Path          string                 `json:"path"`
		Stops         []scheduling.StopInput `json:"stops"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	window, err := parseWindow(input.Date, input.StartTime, input.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid window: " + err.Error()})
		return
	}

	wkbPath, err := parseAndConvertGeometry(input.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid path geometry: " + err.Error()})
		return
	}

	orgID := middleware.OrgID(c)
	route, err := scheduler.Create(orgID, scheduling.CreateRouteInput{
		Name:          input.Name,
		VehicleID:     input.VehicleID,
		ShiftID:       input.ShiftID,
		Window:        window,
		Stops:         input.Stops,
		TotalDistance: input.TotalDistance,
		TotalTime:     input.TotalTime,
		Path:          wkbPath,
	})
	if err != nil {
		logrus.WithError(err).WithField("org_id", orgID).Warn("CreateRoute rejected")
		respondSchedulingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"route": toRouteResponse(route)})
}

// UpdateRouteStops replaces a route's stop set and re-sequences it.
func UpdateRouteStops(c *gin.Context) {
	rID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	var input struct {
		Stops []scheduling.StopInput `json:"stops" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orgID := middleware.OrgID(c)
	route, err := scheduler.UpdateStops(orgID, uint(rID), input.Stops)
	if err != nil {
		logrus.WithError(err).WithField("route_id", rID).Warn("UpdateRouteStops rejected")
		respondSchedulingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

// ListRoutes returns the org's routes; ?include_deleted=true opens the
// audit view.
func ListRoutes(c *gin.Context) {
	orgID := middleware.OrgID(c)
	includeDeleted := c.Query("include_deleted") == "true"

	routes, err := scheduler.List(orgID, includeDeleted)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	routeResponses := make([]RouteResponse, 0, len(routes))
	for i := range routes {
		routeResponses = append(routeResponses, toRouteResponse(&routes[i]))
	}
	c.JSON(http.StatusOK, gin.H{"routes": routeResponses})
}

// GetRoute returns a single route with ordered stops.
func GetRoute(c *gin.Context) {
	rID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}
	includeDeleted := c.Query("include_deleted") == "true"

	route, err := scheduler.Get(middleware.OrgID(c), uint(rID), includeDeleted)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

// DeleteRoute soft-deletes one route and cascades the unassignment.
func DeleteRoute(c *gin.Context) {
	rID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	if err := scheduler.Delete(middleware.OrgID(c), uint(rID)); err != nil {
		logrus.WithError(err).WithField("route_id", rID).Warn("DeleteRoute rejected")
		respondSchedulingError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// BulkDeleteRoutes soft-deletes several routes; validation is all-or-nothing.
func BulkDeleteRoutes(c *gin.Context) {
	var input struct {
		RouteIDs []uint `json:"route_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := scheduler.Delete(middleware.OrgID(c), input.RouteIDs...); err != nil {
		respondSchedulingError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
