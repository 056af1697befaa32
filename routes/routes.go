package routes

import (
	"github.com/gofiber/fiber/v2"

	"garage-backend/controllers"
	"garage-backend/middlewares"
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

	// Then per-request transaction (commits/rolls back)
	protected.Use(middlewares.Tx())

	// Sync engine status
	protected.Get("/sync/status", controllers.SyncStatus)

	// Clients
	protected.Post("/client", controllers.CreateClient)
	protected.Get("/clients", controllers.GetClients)
	protected.Get("/client/:id", controllers.GetClient)
	protected.Put("/client/:id", controllers.UpdateClient)
	protected.Delete("/client/:id", controllers.DeleteClient)

	// Vehicles
	protected.Post("/vehicle", controllers.CreateVehicle)
	protected.Get("/vehicles", controllers.GetVehicles)
	protected.Get("/vehicle/:id", controllers.GetVehicle)
	protected.Put("/vehicle/:id", controllers.UpdateVehicle)
	protected.Delete("/vehicle/:id", controllers.DeleteVehicle)

	// Parts inventory
	protected.Post("/part", controllers.CreatePart)
	protected.Get("/parts", controllers.GetParts)
	protected.Get("/part/:id", controllers.GetPart)
	protected.Put("/part/:id", controllers.UpdatePart)
	protected.Post("/part/:id/stock", controllers.AdjustStock)
	protected.Delete("/part/:id", controllers.DeletePart)

	// Suppliers
	protected.Post("/supplier", controllers.CreateSupplier)
	protected.Get("/suppliers", controllers.GetSuppliers)
	protected.Get("/supplier/:id", controllers.GetSupplier)
	protected.Put("/supplier/:id", controllers.UpdateSupplier)
	protected.Delete("/supplier/:id", controllers.DeleteSupplier)

	// Employees and payroll
	protected.Post("/employee", controllers.CreateEmployee)
	protected.Get("/employees", controllers.GetEmployees)
	protected.Get("/employee/:id", controllers.GetEmployee)
	protected.Put("/employee/:id", controllers.UpdateEmployee)
	protected.Delete("/employee/:id", controllers.DeleteEmployee)
	protected.Post("/employee/:id/payments", controllers.CreateSalaryPayment)
	protected.Get("/employee/:id/payments", controllers.ListSalaryPayments)

	// Invoices (offline-capable: writes go through the sync engine)
	protected.Post("/invoice", controllers.CreateInvoice)
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Get("/invoice/:id", controllers.GetInvoice)
	protected.Put("/invoice/:id", controllers.UpdateInvoice)
	protected.Delete("/invoice/:id", controllers.DeleteInvoice)
	protected.Post("/invoice/:id/payments", controllers.CreatePayment)
	protected.Get("/invoice/:id/payments", controllers.ListPayments)

	// Reports
	protected.Get("/reports/revenue", controllers.RevenueReport)
	protected.Get("/reports/outstanding", controllers.OutstandingReport)
	protected.Get("/reports/low-stock", controllers.LowStockReport)

	// Company settings (profile, numbering, invoice defaults)
	protected.Get("/settings", controllers.GetSettings)
	protected.Put("/settings", controllers.UpdateSettings)
}
