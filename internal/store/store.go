// Package store holds the engine's only shared mutable state: the latest
// snapshot and the derived rolling series for each watched pool. Access is
// partitioned by pool address; no cross-pool locking exists.
package store

import (
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

// Store keeps per-pool surveillance state. A Store is owned by exactly one
// engine instance and has an explicit lifecycle so tests can run several
// engines side by side.
type Store struct {
	historyLimit int

	snapshots *xsync.Map[string, *model.PoolSnapshot]
	prices    *xsync.Map[string, []model.PricePoint]
	volumes   *xsync.Map[string, []model.VolumePoint]
	liquidity *xsync.Map[string, []model.LiquidityPoint]
}

// New creates an empty store. historyLimit bounds every rolling series.
func New(historyLimit int) *Store {
	return &Store{
		historyLimit: historyLimit,
		snapshots:    xsync.NewMap[string, *model.PoolSnapshot](),
		prices:       xsync.NewMap[string, []model.PricePoint](),
		volumes:      xsync.NewMap[string, []model.VolumePoint](),
		liquidity:    xsync.NewMap[string, []model.LiquidityPoint](),
	}
}

// Close discards all state.
func (s *Store) Close() {
	s.snapshots.Clear()
	s.prices.Clear()
	s.volumes.Clear()
	s.liquidity.Clear()
}

// ApplySnapshot installs a new snapshot for its pool and returns the
// superseded one. Replacement is timestamp-guarded: a fetch that completed
// late never overwrites a newer snapshot, in which case applied is false
// and prev is nil.
func (s *Store) ApplySnapshot(snap *model.PoolSnapshot) (prev *model.PoolSnapshot, applied bool) {
	s.snapshots.Compute(snap.Address, func(old *model.PoolSnapshot, loaded bool) (*model.PoolSnapshot, xsync.ComputeOp) {
		if loaded && !snap.CapturedAt.After(old.CapturedAt) {
			return old, xsync.CancelOp
		}
		prev = old
		applied = true
		return snap, xsync.UpdateOp
	})
	return prev, applied
}

// Snapshot returns the current snapshot for a pool, if any.
func (s *Store) Snapshot(address string) (*model.PoolSnapshot, bool) {
	return s.snapshots.Load(address)
}

// AppendPrice adds a price sample, trimming the series to the history limit.
func (s *Store) AppendPrice(address string, pt model.PricePoint) {
	s.prices.Compute(address, func(series []model.PricePoint, _ bool) ([]model.PricePoint, xsync.ComputeOp) {
		return trimSeries(append(series, pt), s.historyLimit), xsync.UpdateOp
	})
}

// PriceSeries returns a copy of the pool's rolling price history.
func (s *Store) PriceSeries(address string) []model.PricePoint {
	series, _ := s.prices.Load(address)
	return append([]model.PricePoint(nil), series...)
}

// AppendVolume adds a volume sample, trimming the series to the history limit.
func (s *Store) AppendVolume(address string, pt model.VolumePoint) {
	s.volumes.Compute(address, func(series []model.VolumePoint, _ bool) ([]model.VolumePoint, xsync.ComputeOp) {
		return trimSeries(append(series, pt), s.historyLimit), xsync.UpdateOp
	})
}

// VolumeSeries returns a copy of the pool's rolling volume history.
func (s *Store) VolumeSeries(address string) []model.VolumePoint {
	series, _ := s.volumes.Load(address)
	return append([]model.VolumePoint(nil), series...)
}

// AppendLiquidity adds a total-liquidity sample for stability analysis.
func (s *Store) AppendLiquidity(address string, pt model.LiquidityPoint) {
	s.liquidity.Compute(address, func(series []model.LiquidityPoint, _ bool) ([]model.LiquidityPoint, xsync.ComputeOp) {
		return trimSeries(append(series, pt), s.historyLimit), xsync.UpdateOp
	})
}

// LiquiditySeries returns a copy of the pool's total-liquidity history.
func (s *Store) LiquiditySeries(address string) []model.LiquidityPoint {
	series, _ := s.liquidity.Load(address)
	return append([]model.LiquidityPoint(nil), series...)
}

// Remove discards all state for a pool.
func (s *Store) Remove(address string) {
	s.snapshots.Delete(address)
	s.prices.Delete(address)
	s.volumes.Delete(address)
	s.liquidity.Delete(address)
}

func trimSeries[T any](series []T, limit int) []T {
	if limit > 0 && len(series) > limit {
		// Reallocate so the trimmed prefix can be collected.
		trimmed := make([]T, limit)
		copy(trimmed, series[len(series)-limit:])
		return trimmed
	}
	return series
}
