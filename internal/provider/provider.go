package provider

import (
	"context"
	"fmt"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

// Error wraps a failed provider call. Fetch failures leave engine state
// unchanged; the scheduler retries them with backoff.
type Error struct {
	Op      string
	Address string
	Err     error
}

func (e *Error) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("provider %s %s: %v", e.Op, e.Address, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Subscription is a handle to a push-notification stream for one pool.
type Subscription interface {
	// Close cancels the subscription and releases its connection.
	Close() error
}

// PoolChangeHandler receives push notifications that a pool's state changed.
// It must not block; the engine coalesces re-checks internally.
type PoolChangeHandler func(address string)

// Provider supplies pool state and historical series. Implementations are
// fallible and rate-limited; callers own retries.
type Provider interface {
	FetchPoolSnapshot(ctx context.Context, address string) (*model.PoolSnapshot, error)
	FetchPriceHistory(ctx context.Context, address string, interval string, limit int) ([]model.PricePoint, error)
	FetchVolumeHistory(ctx context.Context, address string, interval string, limit int) ([]model.VolumePoint, error)
	Name() string
}

// ChangeNotifier is the optional push path. Providers that cannot push
// simply do not implement it; the engine falls back to polling alone.
type ChangeNotifier interface {
	SubscribePoolChange(ctx context.Context, address string, handler PoolChangeHandler) (Subscription, error)
}

// PeerLister resolves the token-sharing peers of a pool, used by the
// correlation analyzer to pick comparison sets.
type PeerLister interface {
	FetchTokenPools(ctx context.Context, token string) ([]string, error)
}
