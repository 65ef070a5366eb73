package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidusm001/multi-fleet-managment-sub007/internal/config"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/middleware"
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/models"
)

// CreateEmployee registers a rider. Stop bindings are managed exclusively by
// the route scheduler, never set here.
func CreateEmployee(c *gin.Context) {
	var input struct {
		Name         string `json:"name" binding:"required"`
		Phone        string `json:"phone"`
		DepartmentID uint   `json:"department_id"`
		ShiftID      uint   `json:"shift_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee input: " + err.Error()})
		return
	}

	employee := models.Employee{
		OrgID:        middleware.OrgID(c),
		Name:         input.Name,
		Phone:        input.Phone,
		DepartmentID: input.DepartmentID,
		ShiftID:      input.ShiftID,
	}
	if err := config.DB.Create(&employee).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create employee: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"employee": employee})
}

// ListEmployees returns the org's riders.
func ListEmployees(c *gin.Context) {
	var employees []models.Employee
	if err := config.DB.Where("org_id = ?", middleware.OrgID(c)).Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching employees"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

// CreateDepartment registers reference data for employee grouping.
func CreateDepartment(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid department input: " + err.Error()})
		return
	}

	department := models.Department{OrgID: middleware.OrgID(c), Name: input.Name}
	if err := config.DB.Create(&department).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create department: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"department": department})
}

// ListDepartments returns the org's departments.
func ListDepartments(c *gin.Context) {
	var departments []models.Department
	if err := config.DB.Where("org_id = ?", middleware.OrgID(c)).Find(&departments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching departments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"departments": departments})
}
