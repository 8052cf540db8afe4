package service

import (
	"context"
	"errors"
	"time"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"
)

// approvalRule is the per-type behaviour of Approve. stockDeltas computes the
// stock movement, which the ledger applies before afterApply runs.
type approvalRule interface {
	stockDeltas(ctx context.Context, w *unitOfWork, t *model.Transaction) ([]StockDelta, error)
	afterApply(ctx context.Context, w *unitOfWork, t *model.Transaction, p Principal, now time.Time) error
}

func defaultRules() map[model.TransactionType]approvalRule {
	return map[model.TransactionType]approvalRule{
		model.TxSale:     outgoingRule{},
		model.TxOutbound: outgoingRule{},
		model.TxPurchase: purchaseRule{},
		model.TxInbound:  inboundRule{},
		model.TxTransfer: transferRule{},
	}
}

// outgoingRule serves sale and outbound: stock leaves the line's product row.
type outgoingRule struct{}

func (outgoingRule) stockDeltas(_ context.Context, _ *unitOfWork, t *model.Transaction) ([]StockDelta, error) {
	deltas := make([]StockDelta, 0, len(t.Products))
	for _, item := range t.Products {
		deltas = append(deltas, StockDelta{ProductID: item.ProductID, Delta: -item.Quantity})
	}
	return deltas, nil
}

func (outgoingRule) afterApply(context.Context, *unitOfWork, *model.Transaction, Principal, time.Time) error {
	return nil
}

// purchaseRule moves no stock. Approving a purchase spawns the inbound that
// will receive the goods, unless one is already linked.
type purchaseRule struct{}

func (purchaseRule) stockDeltas(context.Context, *unitOfWork, *model.Transaction) ([]StockDelta, error) {
	return nil, nil
}

func (purchaseRule) afterApply(ctx context.Context, w *unitOfWork, t *model.Transaction, p Principal, _ time.Time) error {
	_, err := w.transactions.FindLinkedInbound(ctx, t.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return internalErr(err)
	}
	if t.ToLocationID == nil {
		return invalidField("to_location_id", "is required for purchase")
	}

	items := make([]model.TransactionItem, 0, len(t.Products))
	for _, line := range t.Products {
		source, err := w.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return fromRepo(err, "product", line.ProductID)
		}
		dest, err := w.ledger.ensureAtLocation(ctx, source, *t.ToLocationID)
		if err != nil {
			return err
		}
		expected, received := line.Quantity, 0
		items = append(items, model.TransactionItem{
			ProductID:               dest.ID,
			Quantity:                line.Quantity,
			ExpectedQuantity:        &expected,
			ReceivedQuantity:        &received,
			CostPriceAtTransaction:  line.CostPriceAtTransaction,
			SellingPrice:            line.SellingPrice,
			UnitPrice:               line.UnitPrice,
			TransactionSellingPrice: line.TransactionSellingPrice,
			DiscountPercent:         line.DiscountPercent,
			DiscountedPrice:         line.DiscountedPrice,
		})
	}

	purchaseID := t.ID
	toLocation := *t.ToLocationID
	inbound := &model.Transaction{
		Type:                model.TxInbound,
		Status:              model.StatusPending,
		ToLocationID:        &toLocation,
		LinkedTransactionID: &purchaseID,
		RequestedByID:       t.RequestedByID,
		DeliverTo:           t.DeliverTo,
		DeliveryDate:        t.DeliveryDate,
		Note:                t.Note,
		Products:            items,
	}
	inbound.StampCreated(p.actor())
	if err := w.transactions.Create(ctx, inbound); err != nil {
		return fromRepo(err, "inbound", inbound.ID)
	}
	w.emit(EventTransactionCreated, transactionEvent(inbound))
	return nil
}

// inboundRule adds the received quantity of every line to the destination.
type inboundRule struct{}

func (inboundRule) stockDeltas(ctx context.Context, w *unitOfWork, t *model.Transaction) ([]StockDelta, error) {
	deltas := make([]StockDelta, 0, len(t.Products))
	for _, item := range t.Products {
		received := item.EffectiveReceived()
		if received <= 0 {
			continue
		}
		product, err := w.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fromRepo(err, "product", item.ProductID)
		}
		if t.ToLocationID != nil {
			if product, err = w.ledger.ensureAtLocation(ctx, product, *t.ToLocationID); err != nil {
				return nil, err
			}
		}
		deltas = append(deltas, StockDelta{ProductID: product.ID, Delta: received})
	}
	return deltas, nil
}

// afterApply approves the originating purchase if it is still pending.
func (inboundRule) afterApply(ctx context.Context, w *unitOfWork, t *model.Transaction, p Principal, now time.Time) error {
	if t.LinkedTransactionID == nil {
		return nil
	}
	linked, err := w.transactions.FindByIDForUpdate(ctx, *t.LinkedTransactionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return internalErr(err)
	}
	if linked.Type != model.TxPurchase || linked.Status != model.StatusPending {
		return nil
	}
	if err := w.transactions.UpdateFields(ctx, linked.ID, approvedFields(p, now)); err != nil {
		return fromRepo(err, "transaction", linked.ID)
	}
	linked.Status = model.StatusApproved
	w.emit(EventTransactionApproved, transactionEvent(linked))
	return nil
}

// transferRule moves quantity from the source row to the destination row.
type transferRule struct{}

func (transferRule) stockDeltas(ctx context.Context, w *unitOfWork, t *model.Transaction) ([]StockDelta, error) {
	if t.ToLocationID == nil {
		return nil, invalidField("to_location_id", "is required for transfer")
	}
	deltas := make([]StockDelta, 0, 2*len(t.Products))
	for _, item := range t.Products {
		source, err := w.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fromRepo(err, "product", item.ProductID)
		}
		dest, err := w.ledger.ensureAtLocation(ctx, source, *t.ToLocationID)
		if err != nil {
			return nil, err
		}
		deltas = append(deltas,
			StockDelta{ProductID: source.ID, Delta: -item.Quantity},
			StockDelta{ProductID: dest.ID, Delta: item.Quantity},
		)
	}
	return deltas, nil
}

func (transferRule) afterApply(context.Context, *unitOfWork, *model.Transaction, Principal, time.Time) error {
	return nil
}
