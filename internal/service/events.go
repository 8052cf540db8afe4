package service

import (
	"go-inventory-procurement/internal/model"
)

const (
	EventTransactionCreated   = "transaction_created"
	EventTransactionUpdated   = "transaction_updated"
	EventTransactionApproved  = "transaction_approved"
	EventTransactionRejected  = "transaction_rejected"
	EventTransactionCancelled = "transaction_cancelled"
	EventTransactionDeleted   = "transaction_deleted"
	EventStockUpdated         = "stock_update"
	EventProductCreated       = "product_created"
	EventProductUpdated       = "product_updated"
)

// EventPublisher receives realtime notifications after a unit commits.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

func transactionEvent(t *model.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"id":        t.ID,
		"type":      t.Type,
		"status":    t.Status,
		"po_number": t.PONumber,
	}
}

func stockEvent(products []model.Product) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(products))
	for _, p := range products {
		out = append(out, map[string]interface{}{
			"id":          p.ID,
			"item_code":   p.ItemCode,
			"location_id": p.LocationID,
			"stock":       p.Stock,
		})
	}
	return out
}
