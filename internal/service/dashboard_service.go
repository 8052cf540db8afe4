package service

import (
	"context"
	"time"

	"go-inventory-procurement/internal/repository"
)

const (
	DefaultMovementDays = 7
	maxMovementDays     = 365
)

// MovementWindow clamps a requested window to [1, 365] days, defaulting to a week.
func MovementWindow(days int) int {
	switch {
	case days < 1:
		return DefaultMovementDays
	case days > maxMovementDays:
		return maxMovementDays
	}
	return days
}

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	txRepo repository.TransactionRepository
}

func NewDashboardService(txRepo repository.TransactionRepository) DashboardService {
	return &dashboardService{txRepo: txRepo}
}

// GetStockMovement covers the last days days, clamped by MovementWindow.
func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	days = MovementWindow(days)
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.txRepo.GetStockMovement(ctx, startDate, endDate)
	if err != nil {
		return nil, internalErr(err)
	}
	if data == nil {
		data = []repository.StockMovementData{}
	}
	return data, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.txRepo.GetDashboardStats(ctx)
	return stats, internalErr(err)
}
