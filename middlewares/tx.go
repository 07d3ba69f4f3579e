package middlewares

import (
	"esa-billing-backend/database"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Tx opens a per-request DB transaction for authenticated routes.
// Order: run AFTER IsAuthenticatedHeader() (so userID is present), and
// AFTER Idempotency() (so idempotency records aren't tied to the handler TX).
// Handlers reach the transaction through database.FromCtx(c).
func Tx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		if userID, _ := c.Locals("userID").(string); userID == "" {
			// Public endpoints (e.g., /login) run without a request TX.
			return c.Next()
		}

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

		c.Locals("tx", tx)

		// Run the handler chain inside this TX.
		err = c.Next()
		return err
	}
}
