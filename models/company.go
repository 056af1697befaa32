package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the tenant. Every domain row carries its id and every query
// filters by it. The invoice numbering counter lives here: the remote store
// increments it atomically when allocating a new display id.
type Company struct {
	Id          string `json:"id" gorm:"primaryKey"`
	CompanyName string `json:"company_name" gorm:"not null;unique"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Zip         string `json:"zip"`
	Phone       string `json:"phone"`
	TaxID       string `json:"tax_id"`

	// Invoice numbering settings (prefix + next counter value).
	InvoicePrefix     string `json:"invoice_prefix" gorm:"type:VARCHAR(10);default:'INV-'"`
	InvoiceNextNumber int    `json:"invoice_next_number" gorm:"default:1"`

	// Invoice defaults applied to new invoices.
	Currency          string  `json:"currency" gorm:"type:VARCHAR(3);default:'USD'"`
	DefaultTaxRate    float64 `json:"default_tax_rate" gorm:"default:16"`
	DefaultTaxEnabled bool    `json:"default_tax_enabled" gorm:"default:true"`
}

func (company *Company) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if company.Id == "" {
		company.Id = uuid.NewString()
	}
	return
}
