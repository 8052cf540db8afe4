package handler

import (
	"go-inventory-procurement/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetStockMovement handles GET /api/v1/dashboard/stock-movement?days=N.
// The window is clamped to what the service supports and echoed back.
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days := service.MovementWindow(c.QueryInt("days", service.DefaultMovementDays))
	movement, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Stock movement fetched",
		"data":    fiber.Map{"days": days, "movement": movement},
	})
}

func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Dashboard stats fetched", "data": stats})
}
