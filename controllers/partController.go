package controllers

import (
	"garage-backend/database"
	"garage-backend/middlewares"
	"garage-backend/models"
	"garage-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type partCreateDTO struct {
	Name        string  `json:"name" validate:"required"`
	Reference   string  `json:"reference"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	UnitCost    float64 `json:"unit_cost" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	MinStock    int     `json:"min_stock" validate:"gte=0"`
	SupplierID  *uint   `json:"supplier_id"`
}

type partUpdateDTO struct {
	Name        *string  `json:"name"`
	Reference   *string  `json:"reference"`
	Description *string  `json:"description"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	UnitCost    *float64 `json:"unit_cost" validate:"omitempty,gte=0"`
	MinStock    *int     `json:"min_stock" validate:"omitempty,gte=0"`
	SupplierID  *uint    `json:"supplier_id"`
}

type stockAdjustDTO struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason"`
}

func CreatePart(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto partCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	part := models.Part{
		CompanyID:   companyID,
		Name:        dto.Name,
		Reference:   dto.Reference,
		Description: dto.Description,
		UnitPrice:   utils.Round2(dto.UnitPrice),
		UnitCost:    utils.Round2(dto.UnitCost),
		Stock:       dto.Stock,
		MinStock:    dto.MinStock,
		SupplierID:  dto.SupplierID,
		Active:      true,
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if err := db.Create(&part).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create part")
	}
	return c.Status(fiber.StatusCreated).JSON(part)
}

func GetParts(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var parts []models.Part
	q := db.Scopes(database.CompanyScope(companyID)).Where("active = ?", true)
	if term := c.Query("q"); term != "" {
		like := "%" + term + "%"
		q = q.Where("name ILIKE ? OR reference ILIKE ?", like, like)
	}
	if c.QueryBool("low_stock") {
		q = q.Where("stock < min_stock")
	}
	if err := q.Order("name").Find(&parts).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list parts")
	}
	return c.JSON(parts)
}

func GetPart(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var part models.Part
	if err := db.Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		First(&part).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "part not found")
	}
	return c.JSON(part)
}

func UpdatePart(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto partUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	for _, col := range []string{"unit_price", "unit_cost"} {
		if v, ok := updates[col].(float64); ok {
			updates[col] = utils.Round2(v)
		}
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	res := db.Model(&models.Part{}).
		Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		Updates(updates)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update part")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "part not found")
	}
	return c.JSON(fiber.Map{"message": "part updated"})
}

// AdjustStock applies a signed delta; stock never goes below zero.
func AdjustStock(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto stockAdjustDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	res := db.Model(&models.Part{}).
		Scopes(database.CompanyScope(companyID)).
		Where("id = ? AND stock + ? >= 0", c.Params("id"), dto.Delta).
		Update("stock", gorm.Expr("stock + ?", dto.Delta))
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not adjust stock")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict, "part not found or insufficient stock")
	}

	var part models.Part
	if err := db.Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		First(&part).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not load part")
	}
	return c.JSON(part)
}

func DeletePart(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	res := db.Model(&models.Part{}).
		Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		Update("active", false)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not delete part")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "part not found")
	}
	return c.JSON(fiber.Map{"message": "part deleted"})
}
