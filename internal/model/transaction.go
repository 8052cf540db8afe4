package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxPurchase TransactionType = "purchase"
	TxSale     TransactionType = "sale"
	TxInbound  TransactionType = "inbound"
	TxOutbound TransactionType = "outbound"
	TxTransfer TransactionType = "transfer"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxPurchase, TxSale, TxInbound, TxOutbound, TxTransfer:
		return true
	}
	return false
}

// RequiresCompany reports whether the type carries a supplier/customer.
func (t TransactionType) RequiresCompany() bool {
	return t == TxSale || t == TxPurchase
}

func (t TransactionType) RequiresFromLocation() bool {
	return t == TxSale || t == TxOutbound || t == TxTransfer
}

func (t TransactionType) RequiresToLocation() bool {
	return t == TxInbound || t == TxTransfer || t == TxPurchase
}

type TransactionStatus string

const (
	StatusDraft     TransactionStatus = "draft"
	StatusPending   TransactionStatus = "pending"
	StatusApproved  TransactionStatus = "approved"
	StatusRejected  TransactionStatus = "rejected"
	StatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Editable reports whether line items and metadata may still change.
func (s TransactionStatus) Editable() bool {
	return s == StatusDraft || s == StatusPending
}

// Transaction is an inventory-affecting business document.
type Transaction struct {
	BaseModel
	Type     TransactionType `gorm:"type:varchar(20);not null;index" json:"type"`
	PONumber *string         `gorm:"type:varchar(20);uniqueIndex" json:"po_number,omitempty"`

	CompanyID      *uuid.UUID `gorm:"type:uuid;index" json:"company_id,omitempty"`
	Company        *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	FromLocationID *uuid.UUID `gorm:"type:uuid;index" json:"from_location_id,omitempty"`
	FromLocation   *Location  `gorm:"foreignKey:FromLocationID" json:"from_location,omitempty"`
	ToLocationID   *uuid.UUID `gorm:"type:uuid;index" json:"to_location_id,omitempty"`
	ToLocation     *Location  `gorm:"foreignKey:ToLocationID" json:"to_location,omitempty"`

	LinkedTransactionID *uuid.UUID   `gorm:"type:uuid;index" json:"linked_transaction_id,omitempty"`
	LinkedTransaction   *Transaction `gorm:"foreignKey:LinkedTransactionID" json:"linked_transaction,omitempty"`

	Products []TransactionItem `gorm:"foreignKey:TransactionID" json:"products"`

	RequestedByID uuid.UUID  `gorm:"type:uuid;not null;index" json:"requested_by_id"`
	RequestedBy   *User      `gorm:"foreignKey:RequestedByID" json:"requested_by,omitempty"`
	ApprovedByID  *uuid.UUID `gorm:"type:uuid" json:"approved_by_id,omitempty"`
	ApprovedBy    *User      `gorm:"foreignKey:ApprovedByID" json:"approved_by,omitempty"`

	Status       TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	DeliverTo    string            `gorm:"type:varchar(255)" json:"deliver_to"`
	DeliveryDate *time.Time        `json:"delivery_date,omitempty"`
	Note         string            `gorm:"type:text" json:"note"`

	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if err := t.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Type != TxPurchase {
		t.PONumber = nil
	}
	return nil
}

// TransactionItem is one line of a transaction. All prices are snapshots taken
// when the line was built and never follow later catalog edits.
type TransactionItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Position      int       `gorm:"not null" json:"position"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product       *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Quantity         int  `gorm:"not null" json:"quantity"`
	ReceivedQuantity *int `json:"received_quantity,omitempty"`
	ExpectedQuantity *int `json:"expected_quantity,omitempty"`

	CostPriceAtTransaction  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cost_price_at_transaction"`
	SellingPrice            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"selling_price"`
	UnitPrice               decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	TransactionSellingPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"transaction_selling_price"`
	DiscountPercent         decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"discount_percent"`
	DiscountedPrice         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"discounted_price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *TransactionItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// EffectiveReceived is the quantity an inbound line moves into stock:
// the recorded received quantity when set, otherwise the ordered quantity.
func (i *TransactionItem) EffectiveReceived() int {
	if i.ReceivedQuantity != nil {
		return *i.ReceivedQuantity
	}
	return i.Quantity
}
