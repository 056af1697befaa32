package controllers

import (
	"time"

	"garage-backend/database"
	"garage-backend/models"
	"garage-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type revenueRow struct {
	Month    string  `json:"month"`
	Invoiced float64 `json:"invoiced"`
	Paid     float64 `json:"paid"`
}

type revenueReport struct {
	From          time.Time    `json:"from"`
	To            time.Time    `json:"to"`
	TotalInvoiced float64      `json:"total_invoiced"`
	TotalPaid     float64      `json:"total_paid"`
	Months        []revenueRow `json:"months"`
}

// RevenueReport aggregates invoiced and collected amounts per month.
// Defaults to the trailing 12 months when no range is given.
func RevenueReport(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	to := time.Now().UTC()
	from := to.AddDate(-1, 0, 0)
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = t
		}
	}

	var invoiced []struct {
		Month string
		Total float64
	}
	if err := db.Model(&models.Invoice{}).
		Select("to_char(issue_date, 'YYYY-MM') AS month, COALESCE(SUM(total), 0) AS total").
		Where("company_id = ? AND issue_date >= ? AND issue_date <= ?", companyID, from, to).
		Group("month").
		Scan(&invoiced).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not aggregate invoices")
	}

	var paid []struct {
		Month string
		Total float64
	}
	if err := db.Model(&models.Payment{}).
		Select("to_char(paid_at, 'YYYY-MM') AS month, COALESCE(SUM(amount), 0) AS total").
		Where("company_id = ? AND paid_at >= ? AND paid_at <= ?", companyID, from, to).
		Group("month").
		Scan(&paid).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not aggregate payments")
	}

	byMonth := make(map[string]*revenueRow)
	for _, row := range invoiced {
		byMonth[row.Month] = &revenueRow{Month: row.Month, Invoiced: utils.Round2(row.Total)}
	}
	for _, row := range paid {
		r, ok := byMonth[row.Month]
		if !ok {
			r = &revenueRow{Month: row.Month}
			byMonth[row.Month] = r
		}
		r.Paid = utils.Round2(row.Total)
	}

	report := revenueReport{From: from, To: to, Months: []revenueRow{}}
	for cursor := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !cursor.After(to); cursor = cursor.AddDate(0, 1, 0) {
		key := cursor.Format("2006-01")
		row := revenueRow{Month: key}
		if r, ok := byMonth[key]; ok {
			row = *r
		}
		report.TotalInvoiced = utils.Round2(report.TotalInvoiced + row.Invoiced)
		report.TotalPaid = utils.Round2(report.TotalPaid + row.Paid)
		report.Months = append(report.Months, row)
	}
	return c.JSON(report)
}

type outstandingRow struct {
	InvoiceID string    `json:"invoice_id"`
	DisplayID string    `json:"display_id"`
	ClientID  uint      `json:"client_id"`
	IssueDate time.Time `json:"issue_date"`
	Total     float64   `json:"total"`
	Paid      float64   `json:"paid"`
	Balance   float64   `json:"balance"`
	Status    string    `json:"status"`
}

// OutstandingReport lists invoices with an open balance, oldest first.
func OutstandingReport(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var invoices []models.Invoice
	if err := db.Scopes(database.CompanyScope(companyID)).
		Preload("Payments").
		Order("issue_date ASC").
		Find(&invoices).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not load invoices")
	}

	now := time.Now().UTC()
	rows := []outstandingRow{}
	var totalOutstanding float64
	for i := range invoices {
		inv := &invoices[i]
		balance := inv.Balance()
		if balance <= 0 {
			continue
		}
		rows = append(rows, outstandingRow{
			InvoiceID: inv.ID,
			DisplayID: inv.DisplayID,
			ClientID:  inv.ClientID,
			IssueDate: inv.IssueDate,
			Total:     inv.Total,
			Paid:      inv.PaidTotal(),
			Balance:   balance,
			Status:    inv.Status(now),
		})
		totalOutstanding = utils.Round2(totalOutstanding + balance)
	}
	return c.JSON(fiber.Map{
		"total_outstanding": totalOutstanding,
		"invoices":          rows,
	})
}

// LowStockReport lists active parts whose stock fell under their minimum.
func LowStockReport(c *fiber.Ctx) error {
	companyID, err := database.CompanyID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	db, err := database.GetDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var parts []models.Part
	if err := db.Scopes(database.CompanyScope(companyID)).
		Where("active = ? AND stock < min_stock", true).
		Order("stock ASC").
		Find(&parts).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list low stock parts")
	}
	return c.JSON(parts)
}
