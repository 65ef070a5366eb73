package routes

import (
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/controllers"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/middleware"

	"github.com/gin-gonic/gin"
)

func FleetRoutes(r *gin.Engine) {
	fleet := r.Group("/fleet")
	fleet.Use(middleware.RequireAuth())
	{
		fleet.GET("/vehicles", controllers.ListVehicles)
		fleet.GET("/shifts", controllers.ListShifts)
		fleet.GET("/employees", controllers.ListEmployees)
		fleet.GET("/departments", controllers.ListDepartments)
	}

	admin := r.Group("/fleet")
	admin.Use(middleware.RequireAuthWithRole("fleet_admin"))
	{
		admin.POST("/vehicles", controllers.CreateVehicle)
		admin.PUT("/vehicles/:id", controllers.UpdateVehicle)
		admin.DELETE("/vehicles/:id", controllers.DeleteVehicle)
		admin.POST("/shifts", controllers.CreateShift)
		admin.POST("/employees", controllers.CreateEmployee)
		admin.POST("/departments", controllers.CreateDepartment)
	}
}
