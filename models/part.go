package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Part is an inventory item that can be billed on an invoice line.
type Part struct {
	Id          string  `json:"id" gorm:"primaryKey"`
	CompanyID   string  `json:"-" gorm:"index;not null"`
	Name        string  `json:"name" gorm:"not null"`
	Reference   string  `json:"reference" gorm:"index"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price" gorm:"type:numeric(12,2)"`
	UnitCost    float64 `json:"unit_cost" gorm:"type:numeric(12,2)"`
	Stock       int     `json:"stock" gorm:"default:0"`
	MinStock    int     `json:"min_stock" gorm:"default:0"`
	SupplierID  *uint   `json:"supplier_id" gorm:"index"`
	Active      bool    `json:"-" gorm:"default:true"`
}

func (part *Part) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if part.Id == "" {
		part.Id = uuid.NewString()
	}
	return
}
