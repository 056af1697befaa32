package database

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetDB returns a *gorm.DB for the current request. Prefer an existing
// per-request TX (middlewares.Tx), else fall back to the shared connection.
func GetDB(c *fiber.Ctx) (*gorm.DB, error) {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx, nil
		}
	}
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	return DB, nil
}

// CompanyID extracts the tenant id stashed by the auth middleware.
func CompanyID(c *fiber.Ctx) (string, error) {
	id, _ := c.Locals("companyID").(string)
	if strings.TrimSpace(id) == "" {
		return "", errors.New("company context missing")
	}
	return id, nil
}

// CompanyScope constrains a query to one tenant. Every domain row carries a
// company_id column; queries missing this scope are a bug.
func CompanyScope(companyID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}
