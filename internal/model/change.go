package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel grades how significant a detected change is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// BinChangeType indicates the direction of a per-bin liquidity move.
type BinChangeType string

const (
	BinChangeAdd    BinChangeType = "add"
	BinChangeRemove BinChangeType = "remove"
)

// BinChange records the liquidity moved in a single bin between two snapshots.
// Percent is relative to the old snapshot's total liquidity.
type BinChange struct {
	BinID      int32
	PriceRange string
	Amount     decimal.Decimal
	Percent    float64
	Type       BinChangeType
}

// ChangeRecord quantifies the liquidity delta between two consecutive
// snapshots of the same pool. When the old total is zero the percent is
// undefined: Undefined is set and ChangePercent holds zero.
type ChangeRecord struct {
	TotalBefore   decimal.Decimal
	TotalAfter    decimal.Decimal
	ChangeAmount  decimal.Decimal
	ChangePercent float64
	Undefined     bool
	TopBinChanges []BinChange
}

// WhaleActivityEvent is emitted when a liquidity change crosses the
// configured whale threshold. Immutable once emitted.
type WhaleActivityEvent struct {
	ID                  string
	PoolAddress         string
	Timestamp           time.Time
	Change              ChangeRecord
	ConcentrationBefore float64
	ConcentrationAfter  float64
	CurrentPrice        float64
	RiskLevel           RiskLevel
	DetectionMethod     string
}
