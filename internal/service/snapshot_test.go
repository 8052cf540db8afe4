package service

import (
	"testing"

	"go-inventory-procurement/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPONumber(t *testing.T) {
	tests := []struct {
		name   string
		latest string
		want   string
	}{
		{"first of the year", "", "2026-00001"},
		{"continues sequence", "2026-00041", "2026-00042"},
		{"previous year restarts", "2025-00007", "2026-00001"},
		{"unparseable suffix restarts", "2026-abc", "2026-00001"},
		{"grows past padding", "2026-99999", "2026-100000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPONumber(tt.latest, 2026))
		})
	}
}

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		unit, discount, want string
	}{
		{"100", "0", "100"},
		{"100", "10", "90"},
		{"19.99", "15", "16.9915"},
		{"3", "33.3333", "2.0000"},
		{"50", "100", "0"},
	}
	for _, tt := range tests {
		got := discountedPrice(decimal.RequireFromString(tt.unit), decimal.RequireFromString(tt.discount))
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s at %s%%: got %s", tt.unit, tt.discount, got)
	}
}

func TestBuildLine(t *testing.T) {
	product := &model.Product{
		CostPrice:    decimal.RequireFromString("40"),
		SellingPrice: decimal.RequireFromString("60"),
	}
	product.ID = uuid.New()

	t.Run("purchase defaults unit price to cost", func(t *testing.T) {
		item, err := buildLine(model.TxPurchase, product, LineInput{ProductID: product.ID, Quantity: 2, DiscountPercent: dec("25")})
		require.NoError(t, err)
		assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("40")))
		assert.True(t, item.DiscountedPrice.Equal(decimal.RequireFromString("30")))
		assert.True(t, item.CostPriceAtTransaction.Equal(product.CostPrice))
		assert.True(t, item.SellingPrice.Equal(product.SellingPrice))
		assert.True(t, item.TransactionSellingPrice.IsZero())
	})

	t.Run("sale custom price overrides catalog", func(t *testing.T) {
		item, err := buildLine(model.TxSale, product, LineInput{ProductID: product.ID, Quantity: 1, CustomPrice: dec("55")})
		require.NoError(t, err)
		assert.True(t, item.TransactionSellingPrice.Equal(decimal.RequireFromString("55")))
		assert.True(t, item.UnitPrice.Equal(item.TransactionSellingPrice))
		assert.True(t, item.DiscountedPrice.Equal(decimal.RequireFromString("55")))
	})

	t.Run("sale falls back to selling price", func(t *testing.T) {
		item, err := buildLine(model.TxSale, product, LineInput{ProductID: product.ID, Quantity: 1})
		require.NoError(t, err)
		assert.True(t, item.TransactionSellingPrice.Equal(decimal.RequireFromString("60")))
	})

	t.Run("transfer carries no pricing", func(t *testing.T) {
		item, err := buildLine(model.TxTransfer, product, LineInput{ProductID: product.ID, Quantity: 3})
		require.NoError(t, err)
		assert.True(t, item.UnitPrice.IsZero())
		assert.True(t, item.DiscountedPrice.IsZero())
		assert.Equal(t, 3, item.Quantity)
	})

	t.Run("inbound keeps received quantity", func(t *testing.T) {
		item, err := buildLine(model.TxInbound, product, LineInput{ProductID: product.ID, Quantity: 5, ReceivedQuantity: ptr(4)})
		require.NoError(t, err)
		require.NotNil(t, item.ReceivedQuantity)
		assert.Equal(t, 4, *item.ReceivedQuantity)
		assert.Equal(t, 4, item.EffectiveReceived())
	})

	t.Run("discount out of range", func(t *testing.T) {
		_, err := buildLine(model.TxPurchase, product, LineInput{ProductID: product.ID, Quantity: 1, DiscountPercent: dec("101")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative unit price", func(t *testing.T) {
		_, err := buildLine(model.TxPurchase, product, LineInput{ProductID: product.ID, Quantity: 1, UnitPrice: dec("-1")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestTransitionErrorMatching(t *testing.T) {
	approve := &TransitionError{Action: actionApprove, From: model.StatusApproved}
	assert.ErrorIs(t, approve, ErrAlreadyProcessed)
	assert.ErrorIs(t, approve, ErrInvalidTransition)

	submit := &TransitionError{Action: actionSubmit, From: model.StatusPending}
	assert.ErrorIs(t, submit, ErrInvalidTransition)
	assert.NotErrorIs(t, submit, ErrAlreadyProcessed)
}
