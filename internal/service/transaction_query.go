package service

import (
	"context"
	"time"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type ListTransactionsQuery struct {
	Status model.TransactionStatus
	Type   model.TransactionType
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

type TransactionPage struct {
	Items []model.TransactionResponse `json:"items"`
	Total int64                       `json:"total"`
	Page  int                         `json:"page"`
	Limit int                         `json:"limit"`
}

// TransactionQueryService reads transactions with per-caller redaction:
// only admins see cost and catalog selling prices.
type TransactionQueryService interface {
	List(ctx context.Context, p Principal, q ListTransactionsQuery) (*TransactionPage, error)
	Get(ctx context.Context, p Principal, id uuid.UUID) (*model.TransactionResponse, error)
}

type transactionQueryService struct {
	transactions repository.TransactionRepository
}

func NewTransactionQueryService(tRepo repository.TransactionRepository) TransactionQueryService {
	return &transactionQueryService{transactions: tRepo}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// List returns newest first. Non-admins only see transactions they requested.
func (s *transactionQueryService) List(ctx context.Context, p Principal, q ListTransactionsQuery) (*TransactionPage, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, invalidField("status", "is not a known status")
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, invalidField("type", "is not a known transaction type")
	}
	page, limit := normalizePage(q.Page, q.Limit)

	filter := repository.TransactionFilter{
		Type:   q.Type,
		Status: q.Status,
		From:   q.From,
		To:     q.To,
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if !p.IsAdmin() {
		requester := p.UserID
		filter.RequestedBy = &requester
	}

	transactions, total, err := s.transactions.List(ctx, filter)
	if err != nil {
		return nil, internalErr(err)
	}

	items := make([]model.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		items = append(items, transactions[i].ToResponse(p.IsAdmin()))
	}
	return &TransactionPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *transactionQueryService) Get(ctx context.Context, p Principal, id uuid.UUID) (*model.TransactionResponse, error) {
	t, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "transaction", id)
	}
	resp := t.ToResponse(p.IsAdmin())
	return &resp, nil
}
