package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"

	"github.com/google/uuid"
)

// StockDelta is a signed stock change on one product row.
type StockDelta struct {
	ProductID uuid.UUID
	Delta     int
}

func negate(deltas []StockDelta) []StockDelta {
	out := make([]StockDelta, len(deltas))
	for i, d := range deltas {
		out[i] = StockDelta{ProductID: d.ProductID, Delta: -d.Delta}
	}
	return out
}

// stockLedger applies deltas on locked product rows of the current unit of work.
type stockLedger struct {
	products repository.ProductRepository
	actor    string
}

// apply moves stock for every delta. Rows are locked in id order so concurrent
// units touching the same products cannot deadlock. The first delta that would
// drive stock below zero aborts with InsufficientStockError.
func (l stockLedger) apply(ctx context.Context, deltas []StockDelta) ([]model.Product, error) {
	ordered := slices.Clone(deltas)
	slices.SortStableFunc(ordered, func(a, b StockDelta) int {
		return strings.Compare(a.ProductID.String(), b.ProductID.String())
	})

	touched := make([]model.Product, 0, len(ordered))
	for _, d := range ordered {
		if d.Delta == 0 {
			continue
		}
		product, err := l.products.FindByIDForUpdate(ctx, d.ProductID)
		if err != nil {
			return nil, fromRepo(err, "product", d.ProductID)
		}
		next := product.Stock + d.Delta
		if next < 0 {
			return nil, &InsufficientStockError{
				ProductID: product.ID,
				ItemCode:  product.ItemCode,
				Available: product.Stock,
				Requested: -d.Delta,
			}
		}
		if err := l.products.UpdateStock(ctx, product.ID, next, l.actor); err != nil {
			return nil, fromRepo(err, "product", product.ID)
		}
		product.Stock = next
		touched = append(touched, *product)
	}
	return touched, nil
}

// ensureAtLocation returns the row for source's item code at locationID,
// creating a zero-stock copy when the location does not carry it yet.
func (l stockLedger) ensureAtLocation(ctx context.Context, source *model.Product, locationID uuid.UUID) (*model.Product, error) {
	if source.LocationID == locationID {
		return source, nil
	}
	existing, err := l.products.FindByItemCodeAndLocation(ctx, source.ItemCode, locationID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, internalErr(err)
	}

	copied := source.CopyToLocation(locationID)
	copied.StampCreated(l.actor)
	if err := l.products.Create(ctx, copied); err != nil {
		return nil, fromRepo(err, "product", copied.ID)
	}
	return copied, nil
}
