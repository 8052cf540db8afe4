package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-inventory-procurement/internal/repository"
	"go-inventory-procurement/pkg/logger"
)

const (
	maxPOAttempts = 3
	poLockTTL     = 10 * time.Second
)

func poPrefix(year int) string {
	return fmt.Sprintf("%04d-", year)
}

func formatPONumber(year, seq int) string {
	return fmt.Sprintf("%04d-%05d", year, seq)
}

// nextPONumber continues the sequence after latest. A latest value from
// another year or with an unparseable suffix restarts at 1.
func nextPONumber(latest string, year int) string {
	seq := 1
	prefix := poPrefix(year)
	if strings.HasPrefix(latest, prefix) {
		if n, err := strconv.Atoi(strings.TrimPrefix(latest, prefix)); err == nil && n >= 0 {
			seq = n + 1
		}
	}
	return formatPONumber(year, seq)
}

func generatePONumber(ctx context.Context, transactions repository.TransactionRepository, now time.Time) (string, error) {
	year := now.Year()
	latest, err := transactions.FindLatestPONumber(ctx, poPrefix(year))
	if err != nil {
		return "", internalErr(err)
	}
	return nextPONumber(latest, year), nil
}

// lockPONumbers serializes purchase creation for the year across replicas.
// The unique index stays authoritative, so failing to lock only logs.
func (s *transactionService) lockPONumbers(ctx context.Context, year int) func() {
	key := fmt.Sprintf("lock:po-number:%d", year)
	lease, err := s.locker.Obtain(ctx, key, poLockTTL)
	if err != nil {
		logger.LogError(s.log, "transaction", "lockPONumbers", "could not obtain po number lock", key, err)
		return func() {}
	}
	return func() {
		_ = lease.Release(context.Background())
	}
}
