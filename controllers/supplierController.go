package controllers

import (
	"garage-backend/database"
	"garage-backend/middlewares"
	"garage-backend/models"
	"garage-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type supplierCreateDTO struct {
	Name        string `json:"name" validate:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Notes       string `json:"notes"`
}

type supplierUpdateDTO struct {
	Name        *string `json:"name"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Notes       *string `json:"notes"`
}

func CreateSupplier(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto supplierCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	supplier := models.Supplier{
		CompanyID:   companyID,
		Name:        dto.Name,
		ContactName: dto.ContactName,
		Email:       dto.Email,
		PhoneNumber: dto.PhoneNumber,
		Address:     dto.Address,
		City:        dto.City,
		Notes:       dto.Notes,
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if err := db.Create(&supplier).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create supplier")
	}
	return c.Status(fiber.StatusCreated).JSON(supplier)
}

func GetSuppliers(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var suppliers []models.Supplier
	q := db.Scopes(database.CompanyScope(companyID))
	if term := c.Query("q"); term != "" {
		q = q.Where("name ILIKE ?", "%"+term+"%")
	}
	if err := q.Order("name").Find(&suppliers).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list suppliers")
	}
	return c.JSON(suppliers)
}

func GetSupplier(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var supplier models.Supplier
	if err := db.Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		First(&supplier).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "supplier not found")
	}
	return c.JSON(supplier)
}

func UpdateSupplier(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto supplierUpdateDTO
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
	res := db.Model(&models.Supplier{}).
		Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		Updates(updates)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update supplier")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "supplier not found")
	}
	return c.JSON(fiber.Map{"message": "supplier updated"})
}

func DeleteSupplier(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	// Parts keep their supplier reference cleared.
	if err := db.Model(&models.Part{}).
		Scopes(database.CompanyScope(companyID)).
		Where("supplier_id = ?", c.Params("id")).
		Update("supplier_id", nil).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not detach parts")
	}

	res := db.Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		Delete(&models.Supplier{})
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not delete supplier")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "supplier not found")
	}
	return c.JSON(fiber.Map{"message": "supplier deleted"})
}
