package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kidusm001/multi-fleet-managment-sub007/internal/controllers"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/middleware"
)

// SchedulerRoutes wires the route lifecycle and availability endpoints.
// Mutations are restricted to fleet admins; reads need any authenticated
// principal with a resolved organization.
func SchedulerRoutes(r *gin.Engine) {
	scheduler := r.Group("/scheduler")
	scheduler.Use(middleware.RequireAuth())
	{
		scheduler.GET("/routes", controllers.ListRoutes)
		scheduler.GET("/routes/:id", controllers.GetRoute)
		scheduler.GET("/availability", controllers.CheckAvailability)
		scheduler.GET("/vehicles/ranked", controllers.RankedVehicles)
	}

	admin := r.Group("/scheduler")
	admin.Use(middleware.RequireAuthWithRole("fleet_admin"))
	{
		admin.POST("/routes", controllers.CreateRoute)
		admin.PATCH("/routes/:id/stops", controllers.UpdateRouteStops)
		admin.DELETE("/routes/:id", controllers.DeleteRoute)
		admin.POST("/routes/delete", controllers.BulkDeleteRoutes)
	}
}
