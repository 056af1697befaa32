package controllers

import (
	"garage-backend/database"
	"garage-backend/middlewares"
	"garage-backend/models"
	"garage-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type vehicleCreateDTO struct {
	ClientID uint   `json:"client_id" validate:"required"`
	Make     string `json:"make" validate:"required"`
	Model    string `json:"model" validate:"required"`
	Year     int    `json:"year" validate:"omitempty,gte=1900"`
	Plate    string `json:"plate"`
	VIN      string `json:"vin"`
	Color    string `json:"color"`
	Mileage  int    `json:"mileage" validate:"omitempty,gte=0"`
	Notes    string `json:"notes"`
}

type vehicleUpdateDTO struct {
	Make    *string `json:"make"`
	Model   *string `json:"model"`
	Year    *int    `json:"year" validate:"omitempty,gte=1900"`
	Plate   *string `json:"plate"`
	VIN     *string `json:"vin"`
	Color   *string `json:"color"`
	Mileage *int    `json:"mileage" validate:"omitempty,gte=0"`
	Notes   *string `json:"notes"`
}

func CreateVehicle(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto vehicleCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	// Owner must belong to the same company.
	var owner models.Client
	if err := db.Scopes(database.CompanyScope(companyID)).
		Where("id = ?", dto.ClientID).
		First(&owner).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "client not found")
	}

	vehicle := models.Vehicle{
		CompanyID: companyID,
		ClientID:  dto.ClientID,
		Make:      dto.Make,
		Model:     dto.Model,
		Year:      dto.Year,
		Plate:     dto.Plate,
		VIN:       dto.VIN,
		Color:     dto.Color,
		Mileage:   dto.Mileage,
		Notes:     dto.Notes,
	}
	if err := db.Create(&vehicle).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create vehicle")
	}
	return c.Status(fiber.StatusCreated).JSON(vehicle)
}

func GetVehicles(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var vehicles []models.Vehicle
	q := db.Scopes(database.CompanyScope(companyID))
	if clientID := c.Query("client_id"); clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}
	if plate := c.Query("plate"); plate != "" {
		q = q.Where("plate ILIKE ?", "%"+plate+"%")
	}
	if err := q.Order("id DESC").Find(&vehicles).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list vehicles")
	}
	return c.JSON(vehicles)
}

func GetVehicle(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var vehicle models.Vehicle
	if err := db.Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		First(&vehicle).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "vehicle not found")
	}
	return c.JSON(vehicle)
}

func UpdateVehicle(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto vehicleUpdateDTO
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
	res := db.Model(&models.Vehicle{}).
		Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		Updates(updates)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update vehicle")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "vehicle not found")
	}
	return c.JSON(fiber.Map{"message": "vehicle updated"})
}

func DeleteVehicle(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	res := db.Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		Delete(&models.Vehicle{})
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not delete vehicle")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "vehicle not found")
	}
	return c.JSON(fiber.Map{"message": "vehicle deleted"})
}
