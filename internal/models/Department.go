package models

import "gorm.io/gorm"

// Department is plain reference data; it carries no scheduling logic.
type Department struct {
	gorm.Model
	OrgID uint   `json:"org_id" gorm:"index;not null"`
	Name  string `json:"name" binding:"required"`
}
