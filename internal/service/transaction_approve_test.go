package service

import (
	"sync"
	"testing"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveTransfer_ConservesStock(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 10, "40", "60")

	transfer, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:           model.TxTransfer,
		FromLocationID: &f.hq.ID,
		ToLocationID:   &f.branch.ID,
		Products:       []LineInput{{ProductID: widget.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	approved, err := f.svc.Approve(f.ctx, f.admin, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, f.admin.UserID, *approved.ApprovedByID)
	require.NotNil(t, approved.ApprovedAt)

	hq := testutil.Stock(t, f.db, widget.ID)
	branch := testutil.StockAt(t, f.db, "W-1", f.branch.ID)
	assert.Equal(t, 6, hq)
	assert.Equal(t, 4, branch)
	assert.Equal(t, 10, hq+branch)
	assert.Equal(t, 1, f.events.count(EventStockUpdated))
}

func TestApproveSale_InsufficientStockRollsBackEveryLine(t *testing.T) {
	f := newFixture(t)
	plenty := testutil.Product(t, f.db, "A", f.hq.ID, 5, "1", "2")
	scarce := testutil.Product(t, f.db, "B", f.hq.ID, 1, "1", "2")

	sale, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:           model.TxSale,
		CompanyID:      &f.supplier.ID,
		FromLocationID: &f.hq.ID,
		Products: []LineInput{
			{ProductID: plenty.ID, Quantity: 3},
			{ProductID: scarce.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, f.admin, sale.ID)
	require.ErrorIs(t, err, ErrInsufficientStock)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "B", stockErr.ItemCode)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Requested)

	assert.Equal(t, 5, testutil.Stock(t, f.db, plenty.ID))
	assert.Equal(t, 1, testutil.Stock(t, f.db, scarce.ID))
	assert.Equal(t, model.StatusPending, f.transaction(t, sale.ID).Status)
	assert.Zero(t, f.events.count(EventTransactionApproved))
	assert.Zero(t, f.events.count(EventStockUpdated))
}

func TestApproveOutbound_SameProductOnTwoLines(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 5, "1", "2")

	out, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:           model.TxOutbound,
		FromLocationID: &f.hq.ID,
		Products: []LineInput{
			{ProductID: widget.ID, Quantity: 3},
			{ProductID: widget.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, f.admin, out.ID)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, testutil.Stock(t, f.db, widget.ID))
}

func TestApprove_SecondAttemptIsAlreadyProcessed(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 5, "1", "2")
	out, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:           model.TxOutbound,
		FromLocationID: &f.hq.ID,
		Products:       []LineInput{{ProductID: widget.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, f.admin, out.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, f.admin, out.ID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 3, testutil.Stock(t, f.db, widget.ID))
}

func TestApprove_ConcurrentCallsApplyOnce(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 10, "1", "2")
	out, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:           model.TxOutbound,
		FromLocationID: &f.hq.ID,
		Products:       []LineInput{{ProductID: widget.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(f.ctx, f.admin, out.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 6, testutil.Stock(t, f.db, widget.ID))
}

func TestApprove_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 5, "1", "2")
	out, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:           model.TxOutbound,
		FromLocationID: &f.hq.ID,
		Products:       []LineInput{{ProductID: widget.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, f.user, out.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 5, testutil.Stock(t, f.db, widget.ID))
}

func TestApprovePurchase_SpawnsInboundAtDestination(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 0, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 10, DiscountPercent: dec("10")})

	_, err := f.svc.Approve(f.ctx, f.admin, purchase.ID)
	require.NoError(t, err)

	// purchases move no stock themselves
	assert.Equal(t, 0, testutil.Stock(t, f.db, widget.ID))
	assert.Equal(t, 0, testutil.StockAt(t, f.db, "W-1", f.branch.ID))

	inbound := f.linkedInbound(t, purchase.ID)
	assert.Equal(t, model.TxInbound, inbound.Type)
	assert.Equal(t, model.StatusPending, inbound.Status)
	assert.Nil(t, inbound.PONumber)
	assert.Nil(t, inbound.CompanyID)
	require.NotNil(t, inbound.ToLocationID)
	assert.Equal(t, f.branch.ID, *inbound.ToLocationID)

	require.Len(t, inbound.Products, 1)
	line := inbound.Products[0]
	assert.NotEqual(t, widget.ID, line.ProductID, "inbound lines point at the destination row")
	require.NotNil(t, line.ExpectedQuantity)
	require.NotNil(t, line.ReceivedQuantity)
	assert.Equal(t, 10, *line.ExpectedQuantity)
	assert.Equal(t, 0, *line.ReceivedQuantity)
	assert.True(t, line.DiscountedPrice.Equal(decimal.RequireFromString("36")))
}

func TestApproveInbound_ApprovesPendingPurchase(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.branch.ID, 2, "40", "60")
	purchase := f.purchase(t, LineInput{ProductID: widget.ID, Quantity: 5})

	inbound, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:                model.TxInbound,
		ToLocationID:        &f.branch.ID,
		LinkedTransactionID: &purchase.ID,
		Products:            []LineInput{{ProductID: widget.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, f.admin, inbound.ID)
	require.NoError(t, err)

	// no received quantity recorded, so the ordered quantity is used
	assert.Equal(t, 7, testutil.Stock(t, f.db, widget.ID))
	linked := f.transaction(t, purchase.ID)
	assert.Equal(t, model.StatusApproved, linked.Status)
	require.NotNil(t, linked.ApprovedByID)
	assert.Equal(t, f.admin.UserID, *linked.ApprovedByID)

	// approving the purchase afterwards is a no-op error, not a second inbound
	_, err = f.svc.Approve(f.ctx, f.admin, purchase.ID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.EqualValues(t, 1, f.countInbounds(t, purchase.ID))
}

func TestReject_ThenApproveFails(t *testing.T) {
	f := newFixture(t)
	widget := testutil.Product(t, f.db, "W-1", f.hq.ID, 5, "1", "2")
	out, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:           model.TxOutbound,
		FromLocationID: &f.hq.ID,
		Products:       []LineInput{{ProductID: widget.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(f.ctx, f.admin, out.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)
	assert.NotNil(t, rejected.RejectedAt)
	assert.Nil(t, rejected.ApprovedAt)

	_, err = f.svc.Approve(f.ctx, f.admin, out.ID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	_, err = f.svc.Reject(f.ctx, f.admin, out.ID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, 5, testutil.Stock(t, f.db, widget.ID))
}
