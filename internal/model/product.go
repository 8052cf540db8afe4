package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is one catalog row scoped to a single location. The same logical
// item at another location is a separate row sharing the ItemCode.
type Product struct {
	BaseModel
	ItemCode           string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_products_item_location" json:"item_code" validate:"required"`
	ProductName        string          `gorm:"type:varchar(255);not null" json:"product_name" validate:"required"`
	ProductDescription string          `gorm:"type:text" json:"product_description"`
	CostPrice          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cost_price"`
	SellingPrice       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"selling_price"`
	Stock              int             `gorm:"not null;default:0" json:"stock"`

	LocationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_products_item_location" json:"location_id" validate:"uuid_required"`
	Location   *Location  `gorm:"foreignKey:LocationID" json:"location,omitempty" validate:"-"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty" validate:"-"`
}

// CopyToLocation returns a zero-stock instance of p at another location.
func (p *Product) CopyToLocation(locationID uuid.UUID) *Product {
	return &Product{
		ItemCode:           p.ItemCode,
		ProductName:        p.ProductName,
		ProductDescription: p.ProductDescription,
		CostPrice:          p.CostPrice,
		SellingPrice:       p.SellingPrice,
		Stock:              0,
		LocationID:         locationID,
		CategoryID:         p.CategoryID,
	}
}
