package service

import (
	"go-inventory-procurement/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// discountedPrice computes unit × (1 − d/100), rounded to the stored scale.
func discountedPrice(unit, discountPercent decimal.Decimal) decimal.Decimal {
	return unit.Mul(hundred.Sub(discountPercent)).Div(hundred).Round(4)
}

func checkDiscount(field string, d *decimal.Decimal) (decimal.Decimal, error) {
	if d == nil {
		return decimal.Zero, nil
	}
	if d.IsNegative() || d.GreaterThan(hundred) {
		return decimal.Zero, invalidField(field, "must be between 0 and 100")
	}
	return *d, nil
}

func checkPrice(field string, p *decimal.Decimal) error {
	if p != nil && p.IsNegative() {
		return invalidField(field, "must not be negative")
	}
	return nil
}

// buildLine snapshots product pricing into a new line of the given type.
// Catalog cost and selling prices are always copied; the rest depends on type.
func buildLine(txType model.TransactionType, product *model.Product, in LineInput) (model.TransactionItem, error) {
	item := model.TransactionItem{
		ProductID:               product.ID,
		Quantity:                in.Quantity,
		CostPriceAtTransaction:  product.CostPrice,
		SellingPrice:            product.SellingPrice,
		UnitPrice:               decimal.Zero,
		TransactionSellingPrice: decimal.Zero,
		DiscountPercent:         decimal.Zero,
		DiscountedPrice:         decimal.Zero,
	}

	switch txType {
	case model.TxPurchase:
		if err := checkPrice("unit_price", in.UnitPrice); err != nil {
			return item, err
		}
		d, err := checkDiscount("discount_percent", in.DiscountPercent)
		if err != nil {
			return item, err
		}
		unit := product.CostPrice
		if in.UnitPrice != nil {
			unit = *in.UnitPrice
		}
		item.UnitPrice = unit
		item.DiscountPercent = d
		item.DiscountedPrice = discountedPrice(unit, d)

	case model.TxSale:
		if err := checkPrice("custom_price", in.CustomPrice); err != nil {
			return item, err
		}
		d, err := checkDiscount("discount_percent", in.DiscountPercent)
		if err != nil {
			return item, err
		}
		price := product.SellingPrice
		if in.CustomPrice != nil {
			price = *in.CustomPrice
		}
		item.TransactionSellingPrice = price
		item.UnitPrice = price
		item.DiscountPercent = d
		item.DiscountedPrice = discountedPrice(price, d)

	case model.TxInbound:
		item.ReceivedQuantity = in.ReceivedQuantity
	}
	return item, nil
}
