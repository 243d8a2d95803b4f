package models

import "gorm.io/gorm"

// Company is the organization a project is proposed for
type Company struct {
	gorm.Model
	Name   string `gorm:"uniqueIndex;not null" json:"name"`
	TaxID  string `gorm:"index" json:"tax_id"`
	Sector string `json:"sector"`

	Projects []Project `gorm:"foreignKey:CompanyID" json:"projects,omitempty"`
}
