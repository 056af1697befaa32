package controllers

import (
	"garage-backend/database"
	"garage-backend/middlewares"
	"garage-backend/models"
	"garage-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type clientCreateDTO struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Notes       string `json:"notes"`
}

type clientUpdateDTO struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Notes       *string `json:"notes"`
}

func CreateClient(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto clientCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	client := models.Client{
		CompanyID:   companyID,
		FirstName:   dto.FirstName,
		LastName:    dto.LastName,
		Email:       dto.Email,
		PhoneNumber: dto.PhoneNumber,
		Address:     dto.Address,
		City:        dto.City,
		Notes:       dto.Notes,
		Active:      true,
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if err := db.Create(&client).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create client")
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

func GetClients(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var clients []models.Client
	q := db.Scopes(database.CompanyScope(companyID)).Where("active = ?", true)
	if term := c.Query("q"); term != "" {
		like := "%" + term + "%"
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR phone_number ILIKE ?", like, like, like)
	}
	if err := q.Preload("Vehicles").Order("last_name, first_name").Find(&clients).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list clients")
	}
	return c.JSON(clients)
}

func GetClient(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var client models.Client
	if err := db.Scopes(database.CompanyScope(companyID)).
		Preload("Vehicles").
		Where("id = ?", c.Params("id")).
		First(&client).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "client not found")
	}
	return c.JSON(client)
}

func UpdateClient(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto clientUpdateDTO
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
	res := db.Model(&models.Client{}).
		Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		Updates(updates)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update client")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "client not found")
	}
	return c.JSON(fiber.Map{"message": "client updated"})
}

// DeleteClient deactivates rather than removes; invoices keep referencing it.
func DeleteClient(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	res := db.Model(&models.Client{}).
		Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		Update("active", false)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not delete client")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "client not found")
	}
	return c.JSON(fiber.Map{"message": "client deleted"})
}
