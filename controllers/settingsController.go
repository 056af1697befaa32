package controllers

import (
	"garage-backend/database"
	"garage-backend/middlewares"
	"garage-backend/models"
	"garage-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type settingsUpdateDTO struct {
	CompanyName *string `json:"company_name"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Country     *string `json:"country"`
	Zip         *string `json:"zip"`
	Phone       *string `json:"phone"`
	TaxID       *string `json:"tax_id"`

	InvoicePrefix     *string `json:"invoice_prefix" validate:"omitempty,max=10"`
	InvoiceNextNumber *int    `json:"invoice_next_number" validate:"omitempty,gte=1"`

	Currency          *string  `json:"currency" validate:"omitempty,len=3"`
	DefaultTaxRate    *float64 `json:"default_tax_rate" validate:"omitempty,gte=0,lte=100"`
	DefaultTaxEnabled *bool    `json:"default_tax_enabled"`
}

func GetSettings(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var company models.Company
	if err := db.Where("id = ?", companyID).First(&company).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "company not found")
	}
	return c.JSON(company)
}

// UpdateSettings patches company profile, numbering, and invoice defaults.
// Lowering invoice_next_number below the current counter is rejected so
// already-issued display ids are never reused.
func UpdateSettings(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto settingsUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if dto.InvoiceNextNumber != nil {
		var company models.Company
		if err := db.Where("id = ?", companyID).First(&company).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "company not found")
		}
		if *dto.InvoiceNextNumber < company.InvoiceNextNumber {
			return fiber.NewError(fiber.StatusConflict, "invoice_next_number cannot move backwards")
		}
	}

	res := db.Model(&models.Company{}).
		Where("id = ?", companyID).
		Updates(updates)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update settings")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "company not found")
	}

	var company models.Company
	if err := db.Where("id = ?", companyID).First(&company).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not load settings")
	}
	return c.JSON(company)
}
