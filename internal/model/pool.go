package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bin is a discrete price interval within a pool holding part of its liquidity.
type Bin struct {
	ID        int32
	Price     float64
	Liquidity decimal.Decimal
}

// PoolSnapshot is a point-in-time view of a pool's state. Bins reflect the
// full liquidity distribution at capture time; TotalLiquidity is reported by
// the provider and may diverge slightly from the bin sum.
type PoolSnapshot struct {
	Address        string
	TokenX         string
	TokenY         string
	TotalLiquidity decimal.Decimal
	CurrentPrice   float64
	Bins           []Bin
	CapturedAt     time.Time
}

// BinSum adds up the per-bin liquidity. Exposed separately from
// TotalLiquidity because external data is not trusted to reconcile.
func (s *PoolSnapshot) BinSum() decimal.Decimal {
	sum := decimal.Zero
	for _, b := range s.Bins {
		sum = sum.Add(b.Liquidity)
	}
	return sum
}

// PricePoint is one sample in a pool's rolling price history.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
}

// VolumePoint is one sample in a pool's rolling volume history.
type VolumePoint struct {
	Timestamp time.Time
	Volume    float64
}

// LiquidityPoint is one sample in a pool's rolling total-liquidity history.
type LiquidityPoint struct {
	Timestamp time.Time
	Total     float64
}
