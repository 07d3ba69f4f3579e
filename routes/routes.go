package routes

import (
	"github.com/gofiber/fiber/v2"

	"esa-billing-backend/controllers"
	"esa-billing-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then the per-request transaction (commits/rolls back around the handler)
	protected.Use(middlewares.Tx())

	// Clients
	protected.Post("/client", controllers.CreateClient)
	protected.Get("/clients", controllers.GetClients)
	protected.Get("/client/:id", controllers.GetClient)
	protected.Put("/client/:id", controllers.UpdateClient)

	// Products
	protected.Post("/product", controllers.CreateProducts) // batch create
	protected.Get("/products", controllers.GetProducts)
	protected.Put("/product/:id", controllers.UpdateProduct)

	// Invoices (draft/publish lifecycle with payments)
	protected.Post("/invoice", controllers.CreateInvoice)
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Get("/invoice/:id", controllers.GetInvoice)
	protected.Put("/invoices/:id", controllers.UpdateInvoice)
	protected.Put("/invoices/:id/publish", controllers.PublishInvoice)
	protected.Post("/invoices/:id/payments", controllers.CreatePayment)
	protected.Get("/invoices/:id/payments", controllers.ListPayments)

	// Reports & fiscal-year lifecycle
	protected.Get("/reports/gst", controllers.GetGSTReport)
	protected.Get("/reports/tds", controllers.GetTDSReport)
	protected.Get("/fiscal/year", controllers.GetFiscalYear)
	protected.Get("/fiscal/archives", controllers.ListFiscalArchives)
	protected.Get("/fiscal/archives/:label", controllers.GetFiscalArchive)
	protected.Post("/fiscal/transition", controllers.RunFiscalTransition)
}
