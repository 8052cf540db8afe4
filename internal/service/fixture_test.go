package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"
	"go-inventory-procurement/internal/testutil"
	"go-inventory-procurement/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

type recordedEvent struct {
	name    string
	payload interface{}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) Publish(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: event, payload: payload})
}

func (r *eventRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.name == name {
			n++
		}
	}
	return n
}

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	svc      *transactionService
	query    TransactionQueryService
	events   *eventRecorder
	admin    Principal
	user     Principal
	hq       *model.Location
	branch   *model.Location
	supplier *model.Company
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	events := &eventRecorder{}

	txRepo := repository.NewTransactionRepo(db)
	svc := NewTransactionService(
		db,
		txRepo,
		repository.NewProductRepo(db),
		repository.NewLocationRepo(db),
		repository.NewCompanyRepo(db),
		nil,
		events,
		logger.Discard(),
	).(*transactionService)
	svc.now = func() time.Time { return fixedNow }

	f := &fixture{
		ctx:      context.Background(),
		db:       db,
		svc:      svc,
		query:    NewTransactionQueryService(txRepo),
		events:   events,
		hq:       testutil.Location(t, db, "HQ", true),
		branch:   testutil.Location(t, db, "Branch", false),
		supplier: testutil.Company(t, db, "Acme Supplies"),
	}
	admin := testutil.User(t, db, "admin@example.com", model.RoleAdmin)
	user := testutil.User(t, db, "clerk@example.com", model.RoleUser)
	f.admin = Principal{UserID: admin.ID, Name: admin.Name, Email: admin.Email, Role: admin.Role}
	f.user = Principal{UserID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
	return f
}

func ptr[T any](v T) *T { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *fixture) purchase(t *testing.T, lines ...LineInput) *model.Transaction {
	t.Helper()
	tx, err := f.svc.Create(f.ctx, f.user, CreateTransactionRequest{
		Type:         model.TxPurchase,
		CompanyID:    &f.supplier.ID,
		ToLocationID: &f.branch.ID,
		Products:     lines,
	})
	require.NoError(t, err)
	return tx
}

func (f *fixture) transaction(t *testing.T, id uuid.UUID) *model.Transaction {
	t.Helper()
	tx, err := repository.NewTransactionRepo(f.db).FindByID(f.ctx, id)
	require.NoError(t, err)
	return tx
}

func (f *fixture) linkedInbound(t *testing.T, purchaseID uuid.UUID) *model.Transaction {
	t.Helper()
	inbound, err := repository.NewTransactionRepo(f.db).FindLinkedInbound(f.ctx, purchaseID)
	require.NoError(t, err)
	return inbound
}

func (f *fixture) countInbounds(t *testing.T, purchaseID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Transaction{}).
		Where("linked_transaction_id = ? AND type = ?", purchaseID, model.TxInbound).
		Count(&n).Error)
	return n
}
