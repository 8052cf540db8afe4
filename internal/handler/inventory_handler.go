package handler

import (
	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var product model.Product
	if err := parseBody(c, &product); err != nil {
		return respondError(c, err)
	}
	if err := h.service.CreateProduct(c.UserContext(), p, &product); err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	productID, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	var req service.ProductUpdate
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), p, productID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

// GetProducts handles GET /api/v1/products?location_id=<uuid>
func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	var locationID *uuid.UUID
	if raw := c.Query("location_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid location ID"})
		}
		locationID = &id
	}
	products, err := h.service.GetAllProducts(c.UserContext(), locationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Products fetched", "data": products})
}

func (h *InventoryHandler) CreateLocation(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var location model.Location
	if err := parseBody(c, &location); err != nil {
		return respondError(c, err)
	}
	if err := h.service.CreateLocation(c.UserContext(), p, &location); err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Location created", "data": location})
}

func (h *InventoryHandler) GetLocations(c *fiber.Ctx) error {
	locations, err := h.service.GetAllLocations(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Locations fetched", "data": locations})
}

func (h *InventoryHandler) CreateCompany(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var company model.Company
	if err := parseBody(c, &company); err != nil {
		return respondError(c, err)
	}
	if err := h.service.CreateCompany(c.UserContext(), p, &company); err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Company created", "data": company})
}

func (h *InventoryHandler) GetCompanies(c *fiber.Ctx) error {
	companies, err := h.service.GetAllCompanies(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Companies fetched", "data": companies})
}

func (h *InventoryHandler) CreateCategory(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var category model.Category
	if err := parseBody(c, &category); err != nil {
		return respondError(c, err)
	}
	if err := h.service.CreateCategory(c.UserContext(), p, &category); err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Category created", "data": category})
}

func (h *InventoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Categories fetched", "data": categories})
}
