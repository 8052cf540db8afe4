package service

import (
	"time"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is one requested line. Prices are optional overrides of the catalog.
type LineInput struct {
	ProductID        uuid.UUID        `json:"product_id" validate:"uuid_required"`
	Quantity         int              `json:"quantity" validate:"gt=0"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	CustomPrice      *decimal.Decimal `json:"custom_price,omitempty"`
	DiscountPercent  *decimal.Decimal `json:"discount_percent,omitempty"`
	ReceivedQuantity *int             `json:"received_quantity,omitempty" validate:"omitempty,gte=0"`
}

type CreateTransactionRequest struct {
	Type                model.TransactionType   `json:"type" validate:"required"`
	CompanyID           *uuid.UUID              `json:"company_id,omitempty"`
	FromLocationID      *uuid.UUID              `json:"from_location_id,omitempty"`
	ToLocationID        *uuid.UUID              `json:"to_location_id,omitempty"`
	LinkedTransactionID *uuid.UUID              `json:"linked_transaction_id,omitempty"`
	Products            []LineInput             `json:"products" validate:"required,min=1,dive"`
	DeliverTo           string                  `json:"deliver_to"`
	DeliveryDate        *time.Time              `json:"delivery_date,omitempty"`
	Note                string                  `json:"note"`
	Status              model.TransactionStatus `json:"status,omitempty" validate:"omitempty,oneof=draft pending"`
}

// LinePatch edits one existing purchase line, matched by product id.
type LinePatch struct {
	ProductID       uuid.UUID        `json:"product_id" validate:"uuid_required"`
	Quantity        *int             `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

type UpdatePurchaseRequest struct {
	CompanyID    *uuid.UUID  `json:"company_id,omitempty"`
	ToLocationID *uuid.UUID  `json:"to_location_id,omitempty"`
	Products     []LineInput `json:"products,omitempty" validate:"omitempty,min=1,dive"`
	LinePatches  []LinePatch `json:"line_updates,omitempty" validate:"omitempty,dive"`
	DeliverTo    *string     `json:"deliver_to,omitempty"`
	DeliveryDate *time.Time  `json:"delivery_date,omitempty"`
	Note         *string     `json:"note,omitempty"`
}

type ReceivedLine struct {
	ProductID        uuid.UUID `json:"product_id" validate:"uuid_required"`
	ReceivedQuantity int       `json:"received_quantity" validate:"gte=0"`
}

type UpdateInboundRequest struct {
	Products []ReceivedLine `json:"products,omitempty" validate:"omitempty,dive"`
	Note     *string        `json:"note,omitempty"`
}

// validateRequest runs struct validation and reports the first failure.
func validateRequest(req interface{}) error {
	if violations := validator.Struct(req); len(violations) > 0 {
		v := violations[0]
		return invalidField(v.Field, "failed on '"+v.Tag+"'")
	}
	return nil
}
