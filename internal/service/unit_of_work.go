package service

import (
	"context"

	"go-inventory-procurement/internal/repository"

	"gorm.io/gorm"
)

type pendingEvent struct {
	name    string
	payload interface{}
}

// unitOfWork bundles repositories bound to one database transaction. Every
// read and write of an operation goes through it so the unit commits or
// rolls back as a whole.
type unitOfWork struct {
	transactions repository.TransactionRepository
	products     repository.ProductRepository
	locations    repository.LocationRepository
	companies    repository.CompanyRepository
	ledger       stockLedger
	events       []pendingEvent
}

// emit queues an event that is published only if the unit commits.
func (w *unitOfWork) emit(name string, payload interface{}) {
	w.events = append(w.events, pendingEvent{name: name, payload: payload})
}

func (s *transactionService) inTx(ctx context.Context, p Principal, fn func(w *unitOfWork) error) error {
	var events []pendingEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		w := &unitOfWork{
			transactions: s.transactions.WithTx(tx),
			products:     products,
			locations:    s.locations.WithTx(tx),
			companies:    s.companies.WithTx(tx),
			ledger:       stockLedger{products: products, actor: p.actor()},
		}
		if err := fn(w); err != nil {
			return err
		}
		events = w.events
		return nil
	})
	if err != nil {
		return internalErr(err)
	}
	for _, e := range events {
		s.publish(e.name, e.payload)
	}
	return nil
}
