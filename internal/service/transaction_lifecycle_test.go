package service

import (
	"testing"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"
	"go-inventory-procurement/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receivePurchase approves a purchase, records received quantities on the
// spawned inbound and approves that too.
func (f *fixture) receivePurchase(t *testing.T, purchaseID uuid.UUID, productID uuid.UUID, received int) *model.Transaction {
	t.Helper()
	_, err := f.svc.Approve(f.ctx, f.admin, purchaseID)
	require.NoError(t, err)

	inbound := f.linkedInbound(t, purchaseID)
	destID := inbound.Products[0].ProductID
	_, err = f.svc.UpdateInbound(f.ctx, f.user, inbound.ID, UpdateInboundRequest{
		Products: []ReceivedLine{{ProductID: destID, ReceivedQuantity: received}},
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, f.admin, inbound.ID)
	require.NoError(t, err)
	return inbound
}

func TestPurchaseHappyPath(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 0, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 10})

	inbound := f.receivePurchase(t, purchase.ID, widget.ID, 7)

	assert.Equal(t, 7, testutil.StockAt(t, f.db, "W-1", f.branch.ID))
	assert.Equal(t, 0, testutil.Stock(t, f.db, widget.ID))
	assert.Equal(t, model.StatusApproved, f.transaction(t, inbound.ID).Status)
	assert.Equal(t, model.StatusApproved, f.transaction(t, purchase.ID).Status)
}

func TestCancelPurchase_ReversesReceivedStockExactly(t *testing.T) {
	f := newFixture(t)
	existing := testutil.Product(t, f.db, "W-1", f.branch.ID, 3, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: existing.ID, Quantity: 10})
	inbound := f.receivePurchase(t, purchase.ID, existing.ID, 7)
	require.Equal(t, 10, testutil.Stock(t, f.db, existing.ID))

	cancelled, err := f.svc.Cancel(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, testutil.Stock(t, f.db, existing.ID))
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Nil(t, cancelled.ApprovedAt)
	assert.Nil(t, cancelled.ApprovedByID)

	_, err = repository.NewTransactionRepo(f.db).FindByID(f.ctx, inbound.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, f.events.count(EventTransactionCancelled))
}

func TestCancelPurchase_PendingInboundIsDropped(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.branch.ID, 3, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 10})
	_, err := f.svc.Approve(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)
	assert.Zero(t, f.countInbounds(t, purchase.ID))
	assert.Equal(t, 3, testutil.Stock(t, f.db, widget.ID))
}

func TestCancelPurchase_ReversalBlockedOnceGoodsAreSold(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.branch.ID, 0, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 10})
	f.receivePurchase(t, purchase.ID, widget.ID, 7)

	sale, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:           model.TxSale,
		CompanyID:      &f.supplier.ID,
		FromLocationID: &f.branch.ID,
		Products:       []LineInput{{ProductID: widget.ID, Quantity: 5}},
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(f.ctx, f.admin, sale.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, f.admin, purchase.ID)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, testutil.Stock(t, f.db, widget.ID))
	assert.Equal(t, model.StatusApproved, f.transaction(t, purchase.ID).Status)
	assert.EqualValues(t, 1, f.countInbounds(t, purchase.ID))
}

func TestCancel_Preconditions(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 5, "1", "2")

	out, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:           model.TxOutbound,
		FromLocationID: &f.hq.ID,
		Products:       []LineInput{{ProductID: widget.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(f.ctx, f.admin, out.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, f.admin, out.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "only purchases cancel")

	pending := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 1})
	_, err = f.svc.Cancel(f.ctx, f.admin, pending.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending purchase cannot cancel")
	assert.NotErrorIs(t, err, ErrAlreadyProcessed)
}

func TestCancelledPurchase_RoundTripSpawnsSingleInbound(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 0, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 4})

	_, err := f.svc.Approve(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)

	draft, err := f.svc.MoveToDraft(f.ctx, f.user, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, draft.Status)
	assert.Nil(t, draft.CancelledAt)

	pending, err := f.svc.Submit(f.ctx, f.user, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, pending.Status)

	_, err = f.svc.Approve(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.countInbounds(t, purchase.ID))
	// the PO number survives the cycle
	assert.Equal(t, *purchase.PONumber, *f.transaction(t, purchase.ID).PONumber)
}

func TestResubmitCancelledPurchase(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 0, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 4})
	_, err := f.svc.Approve(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)

	resubmitted, err := f.svc.Resubmit(f.ctx, f.user, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, resubmitted.Status)
}

func TestStateMachine_RejectsUnlistedTransitions(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 0, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 1})

	_, err := f.svc.Submit(f.ctx, f.user, purchase.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending cannot submit")
	_, err = f.svc.Resubmit(f.ctx, f.user, purchase.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending cannot resubmit")
	_, err = f.svc.MoveToDraft(f.ctx, f.user, purchase.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending cannot move to draft")

	_, err = f.svc.Reject(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)
	_, err = f.svc.MoveToDraft(f.ctx, f.user, purchase.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "rejected is terminal")
	_, err = f.svc.Resubmit(f.ctx, f.user, purchase.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "rejected is terminal")

	assert.Equal(t, model.StatusRejected, f.transaction(t, purchase.ID).Status)
}

func TestTransitions_OtherUsersCannotActOnYourTransaction(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 0, "40", "60")
	draft, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:         model.TxPurchase,
		CompanyID:    &f.supplier.ID,
		ToLocationID: &f.branch.ID,
		Products:     []LineInput{{ProductID: widget.ID, Quantity: 1}},
		Status:       model.StatusDraft,
	})
	require.NoError(t, err)

	other := testutil.User(t, f.db, "other@example.com", model.RoleUser)
	_, err = f.svc.Submit(f.ctx, Principal{UserID: other.ID, Role: other.Role}, draft.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Submit(f.ctx, f.admin, draft.ID)
	assert.NoError(t, err)
}

func TestDeleteDraft(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 0, "40", "60")
	draft, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:         model.TxPurchase,
		CompanyID:    &f.supplier.ID,
		ToLocationID: &f.branch.ID,
		Products:     []LineInput{{ProductID: widget.ID, Quantity: 1}},
		Status:       model.StatusDraft,
	})
	require.NoError(t, err)
	pending := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 1})

	require.NoError(t, f.svc.DeleteDraft(f.ctx, f.user, draft.ID))
	_, err = repository.NewTransactionRepo(f.db).FindByID(f.ctx, draft.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	var items int64
	require.NoError(t, f.db.Model(&model.TransactionItem{}).Where("transaction_id = ?", draft.ID).Count(&items).Error)
	assert.Zero(t, items)

	err = f.svc.DeleteDraft(f.ctx, f.user, pending.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = f.svc.DeleteDraft(f.ctx, f.user, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteDraft_RemovesUnapprovedLinkedInbound(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.branch.ID, 0, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 2})
	_, err := f.svc.Approve(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)
	_, err = f.svc.MoveToDraft(f.ctx, f.user, purchase.ID)
	require.NoError(t, err)

	// a manually linked inbound still pending
	_, err = f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:                model.TxInbound,
		ToLocationID:        &f.branch.ID,
		LinkedTransactionID: &purchase.ID,
		Products:            []LineInput{{ProductID: widget.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteDraft(f.ctx, f.user, purchase.ID))
	assert.Zero(t, f.countInbounds(t, purchase.ID))
}

func TestUpdatePurchase(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 0, "40", "60")
	gadget := testutil.Product(t, f.db, "G-1", f.hq.ID, 0, "10", "15")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 2})

	t.Run("patch recomputes discounted price", func(t *testing.T) {
		updated, err := f.svc.UpdatePurchase(f.ctx, f.user, purchase.ID, UpdatePurchaseRequest{
			LinePatches: []LinePatch{{ProductID: widget.ID, Quantity: ptr(3), DiscountPercent: dec("50")}},
			Note:        ptr("rush order"),
		})
		require.NoError(t, err)
		require.Len(t, updated.Products, 1)
		assert.Equal(t, 3, updated.Products[0].Quantity)
		assert.True(t, updated.Products[0].DiscountedPrice.Equal(decimal.RequireFromString("20")))
		assert.Equal(t, "rush order", updated.Note)
	})

	t.Run("full replacement re-snapshots", func(t *testing.T) {
		updated, err := f.svc.UpdatePurchase(f.ctx, f.user, purchase.ID, UpdatePurchaseRequest{
			Products: []LineInput{
				{ProductID: gadget.ID, Quantity: 5},
				{ProductID: widget.ID, Quantity: 1, UnitPrice: dec("35")},
			},
		})
		require.NoError(t, err)
		require.Len(t, updated.Products, 2)
		assert.Equal(t, gadget.ID, updated.Products[0].ProductID)
		assert.True(t, updated.Products[0].UnitPrice.Equal(decimal.RequireFromString("10")))
		assert.Equal(t, widget.ID, updated.Products[1].ProductID)
		assert.True(t, updated.Products[1].DiscountedPrice.Equal(decimal.RequireFromString("35")))
	})

	t.Run("patch for a product not on the order", func(t *testing.T) {
		_, err := f.svc.UpdatePurchase(f.ctx, f.user, purchase.ID, UpdatePurchaseRequest{
			LinePatches: []LinePatch{{ProductID: uuid.New(), Quantity: ptr(1)}},
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("approved purchase is locked", func(t *testing.T) {
		_, err := f.svc.Approve(f.ctx, f.admin, purchase.ID)
		require.NoError(t, err)
		_, err = f.svc.UpdatePurchase(f.ctx, f.user, purchase.ID, UpdatePurchaseRequest{Note: ptr("late")})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestUpdateInbound_Guards(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 0, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 2})

	_, err := f.svc.UpdateInbound(f.ctx, f.user, purchase.ID, UpdateInboundRequest{Note: ptr("x")})
	assert.ErrorIs(t, err, ErrInvalidInput, "purchase is not an inbound")

	_, err = f.svc.UpdatePurchase(f.ctx, f.user, purchase.ID, UpdatePurchaseRequest{})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)
	inbound := f.linkedInbound(t, purchase.ID)

	_, err = f.svc.UpdateInbound(f.ctx, f.user, inbound.ID, UpdateInboundRequest{
		Products: []ReceivedLine{{ProductID: inbound.Products[0].ProductID, ReceivedQuantity: -1}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.UpdatePurchase(f.ctx, f.user, inbound.ID, UpdatePurchaseRequest{Note: ptr("x")})
	assert.ErrorIs(t, err, ErrInvalidInput, "inbound is not a purchase")
}
