package cache

import (
	"context"
	"time"
)

// BalanceCache holds derived customer balances so repeated dashboard reads
// skip a full transaction scan. Entries are invalidated whenever a ledger
// write touches the customer; a stale entry is never authoritative.
type BalanceCache interface {
	Get(ctx context.Context, customerID string) (float64, bool, error)
	Set(ctx context.Context, customerID string, balance float64, ttl time.Duration) error
	Invalidate(ctx context.Context, customerID string) error
}

type NoopBalanceCache struct{}

func (NoopBalanceCache) Get(_ context.Context, _ string) (float64, bool, error) {
	return 0, false, nil
}

func (NoopBalanceCache) Set(_ context.Context, _ string, _ float64, _ time.Duration) error {
	return nil
}

func (NoopBalanceCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
