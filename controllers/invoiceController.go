package controllers

import (
	"time"

	"garage-backend/database"
	"garage-backend/middlewares"
	"garage-backend/models"
	"garage-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type invoiceItemDTO struct {
	Kind        string  `json:"kind" validate:"required,oneof=service part custom"`
	Description string  `json:"description" validate:"required"`
	PartID      *string `json:"part_id"`
	SupplierID  *uint   `json:"supplier_id"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	UnitCost    float64 `json:"unit_cost" validate:"gte=0"`
}

type invoiceDTO struct {
	ClientID      uint             `json:"client_id" validate:"required"`
	VehicleID     *uint            `json:"vehicle_id"`
	Items         []invoiceItemDTO `json:"items" validate:"required,min=1"`
	DiscountType  string           `json:"discount_type" validate:"omitempty,oneof=fixed percent"`
	DiscountValue float64          `json:"discount_value" validate:"gte=0"`
	TaxEnabled    *bool            `json:"tax_enabled"`
	TaxRate       *float64         `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
	Currency      string           `json:"currency" validate:"omitempty,len=3"`
	Notes         string           `json:"notes"`
	IssueDate     *time.Time       `json:"issue_date"`
}

// invoiceView augments the stored invoice with its derived state.
func invoiceView(inv *models.Invoice) fiber.Map {
	return fiber.Map{
		"invoice": inv,
		"status":  inv.Status(time.Now()),
		"balance": utils.Round2(inv.Balance()),
	}
}

// buildInvoice materializes a DTO into a domain invoice, applying company
// defaults for tax and currency and recomputing totals.
func buildInvoice(dto *invoiceDTO, company *models.Company, companyID string) *models.Invoice {
	inv := models.Invoice{
		CompanyID:     companyID,
		ClientID:      dto.ClientID,
		VehicleID:     dto.VehicleID,
		DiscountType:  dto.DiscountType,
		DiscountValue: dto.DiscountValue,
		TaxEnabled:    company.DefaultTaxEnabled,
		TaxRate:       company.DefaultTaxRate,
		Currency:      company.Currency,
		Notes:         dto.Notes,
		IssueDate:     time.Now(),
	}
	if dto.TaxEnabled != nil {
		inv.TaxEnabled = *dto.TaxEnabled
	}
	if dto.TaxRate != nil {
		inv.TaxRate = *dto.TaxRate
	}
	if dto.Currency != "" {
		inv.Currency = dto.Currency
	}
	if dto.IssueDate != nil {
		inv.IssueDate = *dto.IssueDate
	}
	for _, it := range dto.Items {
		inv.Items = append(inv.Items, models.InvoiceItem{
			CompanyID:   companyID,
			Kind:        it.Kind,
			Description: it.Description,
			PartID:      it.PartID,
			SupplierID:  it.SupplierID,
			Quantity:    it.Quantity,
			UnitPrice:   utils.Round2(it.UnitPrice),
			UnitCost:    utils.Round2(it.UnitCost),
		})
	}
	inv.Recalculate()
	return &inv
}

// CreateInvoice routes a new invoice through the sync engine: applied
// remotely right away when online, queued with an optimistic local state
// when not.
func CreateInvoice(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var dto invoiceDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	for i := range dto.Items {
		if err := middlewares.ValidateStruct(&dto.Items[i]); err != nil {
			return err
		}
	}

	company, err := loadCompany(c, companyID)
	if err != nil {
		return err
	}

	inv := buildInvoice(&dto, company, companyID)
	result, queued, err := engine.Save(c.UserContext(), inv)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "could not save invoice: "+err.Error())
	}

	resp := invoiceView(result)
	resp["queued"] = queued
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdateInvoice replays the full item set; items are replaced, never diffed.
func UpdateInvoice(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	id := c.Params("id")

	var dto invoiceDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	company, err := loadCompany(c, companyID)
	if err != nil {
		return err
	}

	// Preserve identity and payments of the existing invoice.
	existing, ok := engine.Cache().Get(companyID, id)
	if !ok {
		var fetched models.Invoice
		if err := fetchInvoice(c, companyID, id, &fetched); err != nil {
			return err
		}
		existing = &fetched
	}

	inv := buildInvoice(&dto, company, companyID)
	inv.ID = existing.ID
	inv.DisplayID = existing.DisplayID
	inv.Payments = existing.Payments
	inv.CreatedAt = existing.CreatedAt

	result, queued, err := engine.Save(c.UserContext(), inv)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "could not update invoice: "+err.Error())
	}

	resp := invoiceView(result)
	resp["queued"] = queued
	return c.JSON(resp)
}

// DeleteInvoice cascades payments, then items, then the header.
func DeleteInvoice(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	id := c.Params("id")

	queued, err := engine.Delete(c.UserContext(), companyID, id)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "could not delete invoice: "+err.Error())
	}
	return c.JSON(fiber.Map{"message": "invoice deleted", "queued": queued})
}

// GetInvoices lists invoices. Online reads come from the remote database
// and refresh the in-memory collection; offline reads serve the collection.
func GetInvoices(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	if !engine.Tracker().Online() {
		return c.JSON(listView(engine.Cache().List(companyID)))
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	var invoices []models.Invoice
	if err := db.Scopes(database.CompanyScope(companyID)).
		Preload("Items").Preload("Payments").
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		engine.Tracker().SetOnline(false)
		return c.JSON(listView(engine.Cache().List(companyID)))
	}
	if err := engine.RefreshCache(c.UserContext(), companyID, invoices); err != nil {
		return c.JSON(listView(invoices))
	}
	// Serve the merged collection so still-queued offline edits stay visible.
	return c.JSON(listView(engine.Cache().List(companyID)))
}

func listView(invoices []models.Invoice) []fiber.Map {
	now := time.Now()
	out := make([]fiber.Map, 0, len(invoices))
	for i := range invoices {
		inv := invoices[i]
		out = append(out, fiber.Map{
			"invoice": inv,
			"status":  inv.Status(now),
			"balance": utils.Round2(inv.Balance()),
		})
	}
	return out
}

func GetInvoice(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	id := c.Params("id")

	if inv, ok := engine.Cache().Get(companyID, id); ok {
		return c.JSON(invoiceView(inv))
	}

	var inv models.Invoice
	if err := fetchInvoice(c, companyID, id, &inv); err != nil {
		return err
	}
	return c.JSON(invoiceView(&inv))
}

// CreatePayment records a payment against an invoice. Payments are written
// directly (they are not part of the offline mutation queue).
func CreatePayment(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	id := c.Params("id")

	var dto struct {
		Amount    float64    `json:"amount" validate:"gt=0"`
		Method    string     `json:"method" validate:"required"`
		Reference string     `json:"reference"`
		PaidAt    *time.Time `json:"paid_at"`
	}
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	var inv models.Invoice
	if err := fetchInvoice(c, companyID, id, &inv); err != nil {
		return err
	}

	payment := models.Payment{
		InvoiceID: inv.ID,
		CompanyID: companyID,
		Amount:    utils.Round2(dto.Amount),
		Method:    dto.Method,
		Reference: dto.Reference,
		PaidAt:    time.Now(),
	}
	if dto.PaidAt != nil {
		payment.PaidAt = *dto.PaidAt
	}

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if err := db.Create(&payment).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not record payment")
	}

	inv.Payments = append(inv.Payments, payment)
	engine.Cache().Upsert(&inv)
	return c.Status(fiber.StatusCreated).JSON(invoiceView(&inv))
}

func ListPayments(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	id := c.Params("id")

	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	var payments []models.Payment
	if err := db.Scopes(database.CompanyScope(companyID)).
		Where("invoice_id = ?", id).
		Order("paid_at DESC").
		Find(&payments).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list payments")
	}
	return c.JSON(payments)
}

// SyncStatus surfaces the pending-count indicator for UI badges.
func SyncStatus(c *fiber.Ctx) error {
	return c.JSON(engine.Status())
}

func fetchInvoice(c *fiber.Ctx, companyID, id string, out *models.Invoice) error {
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if err := db.Scopes(database.CompanyScope(companyID)).
		Preload("Items").Preload("Payments").
		Where("id = ?", id).
		First(out).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}
	return nil
}

func loadCompany(c *fiber.Ctx, companyID string) (*models.Company, error) {
	db, err := database.GetDB(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	var company models.Company
	if err := db.Where("id = ?", companyID).First(&company).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "company not found")
	}
	return &company, nil
}
