package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSummary is the catalog view embedded in a line item.
// CostPrice and SellingPrice are only filled for callers allowed to see margins.
type ProductSummary struct {
	ID           uuid.UUID        `json:"id"`
	ItemCode     string           `json:"item_code"`
	ProductName  string           `json:"product_name"`
	Stock        int              `json:"stock"`
	LocationID   uuid.UUID        `json:"location_id"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
}

type TransactionItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Product          *ProductSummary `json:"product,omitempty"`
	Quantity         int             `json:"quantity"`
	ReceivedQuantity *int            `json:"received_quantity,omitempty"`
	ExpectedQuantity *int            `json:"expected_quantity,omitempty"`

	CostPriceAtTransaction  *decimal.Decimal `json:"cost_price_at_transaction,omitempty"`
	SellingPrice            *decimal.Decimal `json:"selling_price,omitempty"`
	UnitPrice               decimal.Decimal  `json:"unit_price"`
	TransactionSellingPrice decimal.Decimal  `json:"transaction_selling_price"`
	DiscountPercent         decimal.Decimal  `json:"discount_percent"`
	DiscountedPrice         decimal.Decimal  `json:"discounted_price"`
}

// LinkedTransactionSummary mirrors the minimal fields shown for a linked record.
type LinkedTransactionSummary struct {
	ID       uuid.UUID         `json:"id"`
	Type     TransactionType   `json:"type"`
	Status   TransactionStatus `json:"status"`
	PONumber *string           `json:"po_number,omitempty"`
}

type TransactionResponse struct {
	ID                uuid.UUID                 `json:"id"`
	Type              TransactionType           `json:"type"`
	PONumber          *string                   `json:"po_number,omitempty"`
	CompanyID         *uuid.UUID                `json:"company_id,omitempty"`
	CompanyName       string                    `json:"company_name,omitempty"`
	FromLocationID    *uuid.UUID                `json:"from_location_id,omitempty"`
	FromLocationName  string                    `json:"from_location_name,omitempty"`
	ToLocationID      *uuid.UUID                `json:"to_location_id,omitempty"`
	ToLocationName    string                    `json:"to_location_name,omitempty"`
	LinkedTransaction *LinkedTransactionSummary `json:"linked_transaction,omitempty"`
	Products          []TransactionItemResponse `json:"products"`
	RequestedBy       *UserSummary              `json:"requested_by,omitempty"`
	ApprovedBy        *UserSummary              `json:"approved_by,omitempty"`
	Status            TransactionStatus         `json:"status"`
	DeliverTo         string                    `json:"deliver_to"`
	DeliveryDate      *time.Time                `json:"delivery_date,omitempty"`
	Note              string                    `json:"note"`
	ApprovedAt        *time.Time                `json:"approved_at,omitempty"`
	RejectedAt        *time.Time                `json:"rejected_at,omitempty"`
	CancelledAt       *time.Time                `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// ToResponse converts a Transaction for the API. With includeMargins false the
// cost and catalog selling prices are left out of every line.
func (t *Transaction) ToResponse(includeMargins bool) TransactionResponse {
	resp := TransactionResponse{
		ID:             t.ID,
		Type:           t.Type,
		PONumber:       t.PONumber,
		CompanyID:      t.CompanyID,
		FromLocationID: t.FromLocationID,
		ToLocationID:   t.ToLocationID,
		Products:       make([]TransactionItemResponse, 0, len(t.Products)),
		RequestedBy:    t.RequestedBy.summary(),
		ApprovedBy:     t.ApprovedBy.summary(),
		Status:         t.Status,
		DeliverTo:      t.DeliverTo,
		DeliveryDate:   t.DeliveryDate,
		Note:           t.Note,
		ApprovedAt:     t.ApprovedAt,
		RejectedAt:     t.RejectedAt,
		CancelledAt:    t.CancelledAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.Company != nil {
		resp.CompanyName = t.Company.CompanyName
	}
	if t.FromLocation != nil {
		resp.FromLocationName = t.FromLocation.LocationName
	}
	if t.ToLocation != nil {
		resp.ToLocationName = t.ToLocation.LocationName
	}
	if t.LinkedTransaction != nil {
		resp.LinkedTransaction = &LinkedTransactionSummary{
			ID:       t.LinkedTransaction.ID,
			Type:     t.LinkedTransaction.Type,
			Status:   t.LinkedTransaction.Status,
			PONumber: t.LinkedTransaction.PONumber,
		}
	} else if t.LinkedTransactionID != nil {
		resp.LinkedTransaction = &LinkedTransactionSummary{ID: *t.LinkedTransactionID}
	}

	for _, item := range t.Products {
		resp.Products = append(resp.Products, item.toResponse(includeMargins))
	}
	return resp
}

func (i TransactionItem) toResponse(includeMargins bool) TransactionItemResponse {
	out := TransactionItemResponse{
		ID:                      i.ID,
		ProductID:               i.ProductID,
		Quantity:                i.Quantity,
		ReceivedQuantity:        i.ReceivedQuantity,
		ExpectedQuantity:        i.ExpectedQuantity,
		UnitPrice:               i.UnitPrice,
		TransactionSellingPrice: i.TransactionSellingPrice,
		DiscountPercent:         i.DiscountPercent,
		DiscountedPrice:         i.DiscountedPrice,
	}
	if includeMargins {
		cost, selling := i.CostPriceAtTransaction, i.SellingPrice
		out.CostPriceAtTransaction = &cost
		out.SellingPrice = &selling
	}
	if i.Product != nil {
		summary := &ProductSummary{
			ID:          i.Product.ID,
			ItemCode:    i.Product.ItemCode,
			ProductName: i.Product.ProductName,
			Stock:       i.Product.Stock,
			LocationID:  i.Product.LocationID,
		}
		if includeMargins {
			cost, selling := i.Product.CostPrice, i.Product.SellingPrice
			summary.CostPrice = &cost
			summary.SellingPrice = &selling
		}
		out.Product = summary
	}
	return out
}
