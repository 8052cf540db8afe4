package repository

import (
	"context"
	"time"

	"go-inventory-procurement/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LowStockThreshold is the stock level below which a product counts as low.
const LowStockThreshold = 10

type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository
	Create(ctx context.Context, t *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindLinkedInbound(ctx context.Context, purchaseID uuid.UUID) (*model.Transaction, error)
	FindLatestPONumber(ctx context.Context, prefix string) (string, error)
	List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	ReplaceItems(ctx context.Context, transactionID uuid.UUID, items []model.TransactionItem) error
	UpdateItem(ctx context.Context, item *model.TransactionItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// TransactionFilter narrows List. Zero values mean "any".
type TransactionFilter struct {
	Type        model.TransactionType
	Status      model.TransactionStatus
	RequestedBy *uuid.UUID
	From        *time.Time
	To          *time.Time
	Offset      int
	Limit       int
}

// StockMovementData is one day of approved stock movement.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type DashboardStats struct {
	TotalProducts    int64           `json:"total_products"`
	LowStockCount    int64           `json:"low_stock_count"`
	TotalValuation   decimal.Decimal `json:"total_valuation"`
	PendingApprovals int64           `json:"pending_approvals"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepo{tx}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create inserts the header and then its lines, numbering lines by slice order.
func (r *transactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(t).Error; err != nil {
		return translate(err)
	}
	if len(t.Products) == 0 {
		return nil
	}
	for i := range t.Products {
		t.Products[i].TransactionID = t.ID
		t.Products[i].Position = i
	}
	return translate(db.Omit(clause.Associations).Create(&t.Products).Error)
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Products", orderedItems).
		Preload("Products.Product").
		Preload("Company").
		Preload("FromLocation").
		Preload("ToLocation").
		Preload("RequestedBy").
		Preload("ApprovedBy").
		Preload("LinkedTransaction").
		First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &transaction, nil
}

// FindByIDForUpdate locks the header row and loads its lines.
func (r *transactionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", id).
		Order("position ASC").
		Find(&transaction.Products).Error; err != nil {
		return nil, translate(err)
	}
	return &transaction, nil
}

// FindLinkedInbound returns the inbound spawned by (or linked to) a purchase, locked.
func (r *transactionRepo) FindLinkedInbound(ctx context.Context, purchaseID uuid.UUID) (*model.Transaction, error) {
	var inbound model.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("linked_transaction_id = ? AND type = ?", purchaseID, model.TxInbound).
		Order("created_at ASC").
		First(&inbound).Error
	if err != nil {
		return nil, translate(err)
	}
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", inbound.ID).
		Order("position ASC").
		Find(&inbound.Products).Error; err != nil {
		return nil, translate(err)
	}
	return &inbound, nil
}

// FindLatestPONumber returns the newest PO number starting with prefix, or "" when none exist.
func (r *transactionRepo) FindLatestPONumber(ctx context.Context, prefix string) (string, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).
		Unscoped().
		Select("po_number").
		Where("type = ? AND po_number LIKE ?", model.TxPurchase, prefix+"%").
		Order("created_at DESC").
		Order("po_number DESC").
		First(&transaction).Error
	if err != nil {
		if err = translate(err); err == ErrNotFound {
			return "", nil
		}
		return "", err
	}
	if transaction.PONumber == nil {
		return "", nil
	}
	return *transaction.PONumber, nil
}

func (f TransactionFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.RequestedBy != nil {
		db = db.Where("requested_by_id = ?", *f.RequestedBy)
	}
	if f.From != nil {
		db = db.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("created_at <= ?", *f.To)
	}
	return db
}

func (r *transactionRepo) List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error) {
	var (
		transactions []model.Transaction
		total        int64
	)
	if err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Scopes(filter.scope).
		Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := r.db.WithContext(ctx).
		Scopes(filter.scope).
		Preload("Products", orderedItems).
		Preload("Products.Product").
		Preload("Company").
		Preload("FromLocation").
		Preload("ToLocation").
		Preload("RequestedBy").
		Preload("ApprovedBy").
		Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Find(&transactions).Error; err != nil {
		return nil, 0, translate(err)
	}
	return transactions, total, nil
}

func (r *transactionRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceItems drops every line of the transaction and inserts items in order.
func (r *transactionRepo) ReplaceItems(ctx context.Context, transactionID uuid.UUID, items []model.TransactionItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("transaction_id = ?", transactionID).Delete(&model.TransactionItem{}).Error; err != nil {
		return translate(err)
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = uuid.Nil
		items[i].TransactionID = transactionID
		items[i].Position = i
	}
	return translate(db.Omit(clause.Associations).Create(&items).Error)
}

func (r *transactionRepo) UpdateItem(ctx context.Context, item *model.TransactionItem) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error)
}

// Delete removes the transaction and its lines permanently.
func (r *transactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("transaction_id = ?", id).Delete(&model.TransactionItem{}).Error; err != nil {
		return translate(err)
	}
	res := db.Unscoped().Where("id = ?", id).Delete(&model.Transaction{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStockMovement aggregates approved quantities per approval day.
// Transfers count on both sides.
func (r *transactionRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.WithContext(ctx).
		Table("transactions AS t").
		Joins("JOIN transaction_items AS i ON i.transaction_id = t.id").
		Select(`
			DATE(t.approved_at) AS date,
			COALESCE(SUM(CASE WHEN t.type = 'inbound' THEN COALESCE(i.received_quantity, i.quantity)
				WHEN t.type = 'transfer' THEN i.quantity ELSE 0 END), 0) AS inbound,
			COALESCE(SUM(CASE WHEN t.type IN ('sale', 'outbound', 'transfer') THEN i.quantity ELSE 0 END), 0) AS outbound
		`).
		Where("t.status = ? AND t.deleted_at IS NULL", model.StatusApproved).
		Where("t.approved_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(t.approved_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		if len(data.Date) > 10 {
			data.Date = data.Date[:10]
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *transactionRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Product{}).Where("stock < ?", LowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	var valuation decimal.NullDecimal
	if err := db.Model(&model.Product{}).
		Select("SUM(stock * cost_price)").
		Where("deleted_at IS NULL").
		Row().Scan(&valuation); err != nil {
		return nil, err
	}
	if valuation.Valid {
		stats.TotalValuation = valuation.Decimal
	}

	if err := db.Model(&model.Transaction{}).Where("status = ?", model.StatusPending).Count(&stats.PendingApprovals).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
