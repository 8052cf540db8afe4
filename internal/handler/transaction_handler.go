package handler

import (
	"time"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TransactionHandler struct {
	service service.TransactionService
	query   service.TransactionQueryService
}

func NewTransactionHandler(s service.TransactionService, q service.TransactionQueryService) *TransactionHandler {
	return &TransactionHandler{service: s, query: q}
}

func (h *TransactionHandler) render(c *fiber.Ctx, status int, message string, t *model.Transaction, p service.Principal) error {
	return c.Status(status).JSON(fiber.Map{"message": message, "data": t.ToResponse(p.IsAdmin())})
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.CreateTransactionRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	t, err := h.service.Create(c.UserContext(), p, req)
	if err != nil {
		return respondError(c, err)
	}
	return h.render(c, fiber.StatusCreated, "Transaction created", t, p)
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, &service.FieldError{Field: key, Reason: "must be RFC3339 or YYYY-MM-DD"}
}

// GetTransactions handles GET /api/v1/transactions
// Query params: status, type, from, to, page, limit
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return respondError(c, err)
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return respondError(c, err)
	}

	page, err := h.query.List(c.UserContext(), p, service.ListTransactionsQuery{
		Status: model.TransactionStatus(c.Query("status")),
		Type:   model.TransactionType(c.Query("type")),
		From:   from,
		To:     to,
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", service.DefaultPageLimit),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transactions fetched", "data": page})
}

// GetTransaction handles GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	t, err := h.query.Get(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transaction fetched", "data": t})
}

type transitionFunc func(c *fiber.Ctx, p service.Principal, id uuid.UUID) (*model.Transaction, error)

// transition wraps a lifecycle operation on /transactions/:id.
func (h *TransactionHandler) transition(message string, fn transitionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return respondError(c, err)
		}
		id, err := paramID(c)
		if err != nil {
			return respondError(c, err)
		}
		t, err := fn(c, p, id)
		if err != nil {
			return respondError(c, err)
		}
		return h.render(c, fiber.StatusOK, message, t, p)
	}
}

func (h *TransactionHandler) Approve() fiber.Handler {
	return h.transition("Transaction approved", func(c *fiber.Ctx, p service.Principal, id uuid.UUID) (*model.Transaction, error) {
		return h.service.Approve(c.UserContext(), p, id)
	})
}

func (h *TransactionHandler) Reject() fiber.Handler {
	return h.transition("Transaction rejected", func(c *fiber.Ctx, p service.Principal, id uuid.UUID) (*model.Transaction, error) {
		return h.service.Reject(c.UserContext(), p, id)
	})
}

func (h *TransactionHandler) Cancel() fiber.Handler {
	return h.transition("Purchase cancelled", func(c *fiber.Ctx, p service.Principal, id uuid.UUID) (*model.Transaction, error) {
		return h.service.Cancel(c.UserContext(), p, id)
	})
}

func (h *TransactionHandler) Submit() fiber.Handler {
	return h.transition("Transaction submitted", func(c *fiber.Ctx, p service.Principal, id uuid.UUID) (*model.Transaction, error) {
		return h.service.Submit(c.UserContext(), p, id)
	})
}

func (h *TransactionHandler) Resubmit() fiber.Handler {
	return h.transition("Transaction resubmitted", func(c *fiber.Ctx, p service.Principal, id uuid.UUID) (*model.Transaction, error) {
		return h.service.Resubmit(c.UserContext(), p, id)
	})
}

func (h *TransactionHandler) MoveToDraft() fiber.Handler {
	return h.transition("Transaction moved to draft", func(c *fiber.Ctx, p service.Principal, id uuid.UUID) (*model.Transaction, error) {
		return h.service.MoveToDraft(c.UserContext(), p, id)
	})
}

func (h *TransactionHandler) UpdatePurchase() fiber.Handler {
	return h.transition("Purchase updated", func(c *fiber.Ctx, p service.Principal, id uuid.UUID) (*model.Transaction, error) {
		var req service.UpdatePurchaseRequest
		if err := parseBody(c, &req); err != nil {
			return nil, err
		}
		return h.service.UpdatePurchase(c.UserContext(), p, id, req)
	})
}

func (h *TransactionHandler) UpdateInbound() fiber.Handler {
	return h.transition("Inbound updated", func(c *fiber.Ctx, p service.Principal, id uuid.UUID) (*model.Transaction, error) {
		var req service.UpdateInboundRequest
		if err := parseBody(c, &req); err != nil {
			return nil, err
		}
		return h.service.UpdateInbound(c.UserContext(), p, id, req)
	})
}

// DeleteDraft handles DELETE /api/v1/transactions/:id/draft
func (h *TransactionHandler) DeleteDraft(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteDraft(c.UserContext(), p, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Draft deleted", "data": fiber.Map{"id": id}})
}
