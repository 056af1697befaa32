package controllers

import (
	"time"

	"garage-backend/database"
	"garage-backend/middlewares"
	"garage-backend/models"
	"garage-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type employeeCreateDTO struct {
	FirstName   string     `json:"first_name" validate:"required"`
	LastName    string     `json:"last_name" validate:"required"`
	Role        string     `json:"role"`
	PhoneNumber string     `json:"phone_number"`
	BaseSalary  float64    `json:"base_salary" validate:"gte=0"`
	HiredAt     *time.Time `json:"hired_at"`
}

type employeeUpdateDTO struct {
	FirstName   *string  `json:"first_name"`
	LastName    *string  `json:"last_name"`
	Role        *string  `json:"role"`
	PhoneNumber *string  `json:"phone_number"`
	BaseSalary  *float64 `json:"base_salary" validate:"omitempty,gte=0"`
}

type salaryPaymentDTO struct {
	Amount float64    `json:"amount" validate:"required,gt=0"`
	Period string     `json:"period" validate:"required,len=7"`
	Note   string     `json:"note"`
	PaidAt *time.Time `json:"paid_at"`
}

func CreateEmployee(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto employeeCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	employee := models.Employee{
		CompanyID:   companyID,
		FirstName:   dto.FirstName,
		LastName:    dto.LastName,
		Role:        dto.Role,
		PhoneNumber: dto.PhoneNumber,
		BaseSalary:  utils.Round2(dto.BaseSalary),
		HiredAt:     dto.HiredAt,
		Active:      true,
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if err := db.Create(&employee).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create employee")
	}
	return c.Status(fiber.StatusCreated).JSON(employee)
}

func GetEmployees(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var employees []models.Employee
	if err := db.Scopes(database.CompanyScope(companyID)).
		Where("active = ?", true).
		Order("last_name, first_name").
		Find(&employees).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list employees")
	}
	return c.JSON(employees)
}

func GetEmployee(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var employee models.Employee
	if err := db.Scopes(database.CompanyScope(companyID)).
		Preload("Payments", func(tx *gorm.DB) *gorm.DB { return tx.Order("paid_at DESC") }).
		Where("id = ?", c.Params("id")).
		First(&employee).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "employee not found")
	}
	return c.JSON(employee)
}

func UpdateEmployee(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto employeeUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if v, ok := updates["base_salary"].(float64); ok {
		updates["base_salary"] = utils.Round2(v)
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	res := db.Model(&models.Employee{}).
		Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		Updates(updates)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update employee")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "employee not found")
	}
	return c.JSON(fiber.Map{"message": "employee updated"})
}

func DeleteEmployee(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	res := db.Model(&models.Employee{}).
		Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		Update("active", false)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not delete employee")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "employee not found")
	}
	return c.JSON(fiber.Map{"message": "employee deleted"})
}

// CreateSalaryPayment records a payout for one employee and period.
func CreateSalaryPayment(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto salaryPaymentDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var employee models.Employee
	if err := db.Scopes(database.CompanyScope(companyID)).
		Where("id = ?", c.Params("id")).
		First(&employee).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "employee not found")
	}

	paidAt := time.Now().UTC()
	if dto.PaidAt != nil {
		paidAt = *dto.PaidAt
	}
	payment := models.SalaryPayment{
		CompanyID:  companyID,
		EmployeeID: employee.Id,
		Amount:     utils.Round2(dto.Amount),
		Period:     dto.Period,
		Note:       dto.Note,
		PaidAt:     paidAt,
	}
	if err := db.Create(&payment).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not record salary payment")
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}

func ListSalaryPayments(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var payments []models.SalaryPayment
	q := db.Scopes(database.CompanyScope(companyID)).
		Where("employee_id = ?", c.Params("id"))
	if period := c.Query("period"); period != "" {
		q = q.Where("period = ?", period)
	}
	if err := q.Order("paid_at DESC").Find(&payments).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list salary payments")
	}
	return c.JSON(payments)
}
