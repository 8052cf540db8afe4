package service

import (
	"context"
	"fmt"

	"go-inventory-procurement/internal/model"

	"github.com/google/uuid"
)

// lockEditable loads a transaction of the wanted type that may still be edited.
func lockEditable(ctx context.Context, w *unitOfWork, p Principal, id uuid.UUID, want model.TransactionType) (*model.Transaction, error) {
	t, err := w.transactions.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "transaction", id)
	}
	if err := checkOwner(p, t); err != nil {
		return nil, err
	}
	if t.Type != want {
		return nil, invalidField("type", fmt.Sprintf("transaction is a %s, not a %s", t.Type, want))
	}
	if !t.Status.Editable() {
		return nil, &TransitionError{Action: actionEdit, From: t.Status}
	}
	return t, nil
}

func findLine(t *model.Transaction, productID uuid.UUID) (*model.TransactionItem, error) {
	for i := range t.Products {
		if t.Products[i].ProductID == productID {
			return &t.Products[i], nil
		}
	}
	return nil, &NotFoundError{Resource: "line for product", ID: productID.String()}
}

// UpdatePurchase edits a draft or pending purchase. Products replaces every
// line; LinePatches then adjust individual lines. Discounted prices are always
// recomputed here.
func (s *transactionService) UpdatePurchase(ctx context.Context, p Principal, id uuid.UUID, req UpdatePurchaseRequest) (*model.Transaction, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, p, func(w *unitOfWork) error {
		t, err := lockEditable(ctx, w, p, id, model.TxPurchase)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{"updated_by": p.actor()}
		if req.CompanyID != nil {
			companyID, err := resolveCompany(ctx, w, model.TxPurchase, req.CompanyID)
			if err != nil {
				return err
			}
			fields["company_id"] = *companyID
		}
		if req.ToLocationID != nil {
			_, toID, err := resolveLocations(ctx, w, model.TxPurchase, nil, req.ToLocationID)
			if err != nil {
				return err
			}
			fields["to_location_id"] = *toID
		}
		if req.DeliverTo != nil {
			fields["deliver_to"] = *req.DeliverTo
		}
		if req.DeliveryDate != nil {
			fields["delivery_date"] = *req.DeliveryDate
		}
		if req.Note != nil {
			fields["note"] = *req.Note
		}

		if len(req.Products) > 0 {
			items := make([]model.TransactionItem, 0, len(req.Products))
			for i, in := range req.Products {
				product, err := w.products.FindByID(ctx, in.ProductID)
				if err != nil {
					return fromRepo(err, "product", in.ProductID)
				}
				item, err := buildLine(model.TxPurchase, product, in)
				if err != nil {
					if fe, ok := err.(*FieldError); ok {
						fe.Field = fmt.Sprintf("products[%d].%s", i, fe.Field)
					}
					return err
				}
				items = append(items, item)
			}
			if err := w.transactions.ReplaceItems(ctx, t.ID, items); err != nil {
				return fromRepo(err, "transaction item", t.ID)
			}
			t.Products = items
		}

		for _, patch := range req.LinePatches {
			line, err := findLine(t, patch.ProductID)
			if err != nil {
				return err
			}
			if patch.Quantity != nil {
				line.Quantity = *patch.Quantity
			}
			if patch.UnitPrice != nil {
				if err := checkPrice("unit_price", patch.UnitPrice); err != nil {
					return err
				}
				line.UnitPrice = *patch.UnitPrice
			}
			if patch.DiscountPercent != nil {
				d, err := checkDiscount("discount_percent", patch.DiscountPercent)
				if err != nil {
					return err
				}
				line.DiscountPercent = d
			}
			line.DiscountedPrice = discountedPrice(line.UnitPrice, line.DiscountPercent)
			if err := w.transactions.UpdateItem(ctx, line); err != nil {
				return fromRepo(err, "transaction item", line.ID)
			}
		}

		if err := w.transactions.UpdateFields(ctx, t.ID, fields); err != nil {
			return fromRepo(err, "transaction", t.ID)
		}
		w.emit(EventTransactionUpdated, transactionEvent(t))
		return nil
	})
	if err != nil {
		s.logFailure("UpdatePurchase", id, err)
		return nil, err
	}
	return s.reload(ctx, id)
}

// UpdateInbound records received quantities on a draft or pending inbound.
func (s *transactionService) UpdateInbound(ctx context.Context, p Principal, id uuid.UUID, req UpdateInboundRequest) (*model.Transaction, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, p, func(w *unitOfWork) error {
		t, err := lockEditable(ctx, w, p, id, model.TxInbound)
		if err != nil {
			return err
		}
		for _, received := range req.Products {
			line, err := findLine(t, received.ProductID)
			if err != nil {
				return err
			}
			qty := received.ReceivedQuantity
			line.ReceivedQuantity = &qty
			if err := w.transactions.UpdateItem(ctx, line); err != nil {
				return fromRepo(err, "transaction item", line.ID)
			}
		}

		fields := map[string]interface{}{"updated_by": p.actor()}
		if req.Note != nil {
			fields["note"] = *req.Note
		}
		if err := w.transactions.UpdateFields(ctx, t.ID, fields); err != nil {
			return fromRepo(err, "transaction", t.ID)
		}
		w.emit(EventTransactionUpdated, transactionEvent(t))
		return nil
	})
	if err != nil {
		s.logFailure("UpdateInbound", id, err)
		return nil, err
	}
	return s.reload(ctx, id)
}
