package handler

import (
	"go-inventory-procurement/internal/middleware"
	"go-inventory-procurement/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything Register needs to mount the API.
type Handlers struct {
	Auth        *AuthHandler
	Transaction *TransactionHandler
	Inventory   *InventoryHandler
	Dashboard   *DashboardHandler
	AuthService service.AuthService
}

// Register mounts every route under /api/v1.
func Register(app *fiber.App, h Handlers) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Post("/validate-token", h.Auth.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(h.AuthService))
	admin := middleware.RequireAdmin()

	protected.Post("/auth/heartbeat", h.Auth.Heartbeat)

	protected.Get("/dashboard/stats", h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", admin, h.Dashboard.GetStockMovement)

	protected.Get("/products", h.Inventory.GetProducts)
	protected.Post("/products", admin, h.Inventory.CreateProduct)
	protected.Put("/products/:id", admin, h.Inventory.UpdateProduct)
	protected.Get("/locations", h.Inventory.GetLocations)
	protected.Post("/locations", admin, h.Inventory.CreateLocation)
	protected.Get("/companies", h.Inventory.GetCompanies)
	protected.Post("/companies", admin, h.Inventory.CreateCompany)
	protected.Get("/categories", h.Inventory.GetCategories)
	protected.Post("/categories", admin, h.Inventory.CreateCategory)

	tx := protected.Group("/transactions")
	tx.Post("/", h.Transaction.CreateTransaction)
	tx.Get("/", h.Transaction.GetTransactions)
	tx.Get("/:id", h.Transaction.GetTransaction)
	tx.Put("/:id/approve", admin, h.Transaction.Approve())
	tx.Put("/:id/reject", admin, h.Transaction.Reject())
	tx.Put("/:id/cancel", admin, h.Transaction.Cancel())
	tx.Put("/:id/submit", h.Transaction.Submit())
	tx.Put("/:id/resubmit", h.Transaction.Resubmit())
	tx.Put("/:id/move-to-draft", h.Transaction.MoveToDraft())
	tx.Put("/:id/purchase", h.Transaction.UpdatePurchase())
	tx.Put("/:id/inbound", h.Transaction.UpdateInbound())
	tx.Delete("/:id/draft", h.Transaction.DeleteDraft)
}
