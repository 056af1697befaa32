package middlewares

import (
	"strings"

	"garage-backend/database"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Tx opens a per-request DB transaction for authenticated requests.
// Order: run AFTER IsAuthenticatedHeader() (so companyID is present),
// and AFTER Idempotency() (so idempotency records aren't tied to the handler TX).
func Tx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		companyID, _ := c.Locals("companyID").(string)
		if strings.TrimSpace(companyID) == "" {
			// Public endpoints (e.g., /login) won't have a company; just proceed.
			return c.Next()
		}

		// Begin TX on the shared DB connection.
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				log.Error().Err(e).Msg("tx commit failed")
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		// Make the TX available to handlers via GetDB(c).
		c.Locals("tx", tx)

		// Run the handler chain inside this TX.
		err = c.Next()
		return err
	}
}
