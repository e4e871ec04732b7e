package model

import "time"

// TrendDirection classifies price momentum.
type TrendDirection string

const (
	TrendUpward   TrendDirection = "UPWARD"
	TrendDownward TrendDirection = "DOWNWARD"
	TrendNeutral  TrendDirection = "NEUTRAL"
)

// LevelTier is a generic three-way grading used by volatility, gap severity
// and activity classifications.
type LevelTier string

const (
	LevelHigh   LevelTier = "HIGH"
	LevelMedium LevelTier = "MEDIUM"
	LevelLow    LevelTier = "LOW"
)

// ChangeTrend classifies how a windowed metric is evolving.
type ChangeTrend string

const (
	ChangeIncreasing ChangeTrend = "INCREASING"
	ChangeDecreasing ChangeTrend = "DECREASING"
	ChangeStable     ChangeTrend = "STABLE"
)

// TrendAnalysis is the output of the trend/volatility analyzer for one pool.
type TrendAnalysis struct {
	PoolAddress string
	Timestamp   time.Time

	MeanChange   float64
	MedianChange float64
	StdDevChange float64

	ShortEMA  float64
	LongEMA   float64
	MACDProxy float64
	RSI       float64

	Direction TrendDirection
	Strength  float64 // 0..100

	VolatilityTrend ChangeTrend
	VolatilityRisk  LevelTier
}

// ConcentrationClass grades how unevenly liquidity is spread across bins.
type ConcentrationClass string

const (
	HighlyConcentrated     ConcentrationClass = "HIGHLY_CONCENTRATED"
	ModeratelyConcentrated ConcentrationClass = "MODERATELY_CONCENTRATED"
	Balanced               ConcentrationClass = "BALANCED"
	Dispersed              ConcentrationClass = "DISPERSED"
)

// LiquidityGap is a hole in the bin price coverage.
type LiquidityGap struct {
	LowerBinID    int32
	UpperBinID    int32
	PriceFrom     float64
	PriceTo       float64
	Size          float64 // price units
	DistanceFrom  float64 // absolute distance of gap midpoint from current price
	Severity      LevelTier
	SeverityScore float64
}

// StabilityLevel grades a pool's liquidity stability over time.
type StabilityLevel string

const (
	StabilityHigh     StabilityLevel = "HIGH"
	StabilityModerate StabilityLevel = "MODERATE"
	StabilityLow      StabilityLevel = "LOW"
)

// DistributionAnalysis is the output of the liquidity distribution analyzer.
type DistributionAnalysis struct {
	PoolAddress string
	Timestamp   time.Time

	TopShare float64 // share of liquidity in the top 20% of bins
	Class    ConcentrationClass
	Gini     float64
	Entropy  float64 // Shannon entropy normalized by log(n)

	Gaps          []LiquidityGap
	TotalGapRatio float64
	GapRisk       LevelTier

	Volatility  float64
	Persistence float64
	Resilience  float64
	Stability   StabilityLevel
	RiskTier    LevelTier
}

// VolumeAnomalyType classifies a volume anomaly.
type VolumeAnomalyType string

const (
	AnomalySpike         VolumeAnomalyType = "SPIKE"
	AnomalySustainedHigh VolumeAnomalyType = "SUSTAINED_HIGH"
	AnomalySustainedLow  VolumeAnomalyType = "SUSTAINED_LOW"
)

// VolumeAnomaly is one detected deviation from the series baseline.
type VolumeAnomaly struct {
	Type      VolumeAnomalyType
	Timestamp time.Time
	Value     float64
	Deviation float64 // absolute distance from the series mean, in sigmas
	Severity  LevelTier
}

// ActivityLevel grades overall trading activity.
type ActivityLevel string

const (
	ActivityHigh     ActivityLevel = "HIGH"
	ActivityModerate ActivityLevel = "MODERATE"
	ActivityLow      ActivityLevel = "LOW"
)

// VolumeAnalysis is the output of the volume pattern analyzer.
type VolumeAnalysis struct {
	PoolAddress string
	Timestamp   time.Time

	ShortMA  float64
	MediumMA float64
	LongMA   float64

	Trend      TrendDirection
	Strength   float64
	Confidence float64

	Anomalies []VolumeAnomaly

	ActivityLevel ActivityLevel
	ActivityScore float64
}

// CorrelationClass buckets a Pearson coefficient.
type CorrelationClass string

const (
	StrongPositive   CorrelationClass = "STRONG_POSITIVE"
	WeakPositive     CorrelationClass = "WEAK_POSITIVE"
	NeutralCorr      CorrelationClass = "NEUTRAL"
	WeakNegative     CorrelationClass = "WEAK_NEGATIVE"
	StrongNegative   CorrelationClass = "STRONG_NEGATIVE"
)

// DeviationTrend classifies how two pools' prices are moving relative to
// each other.
type DeviationTrend string

const (
	Converging      DeviationTrend = "CONVERGING"
	Diverging       DeviationTrend = "DIVERGING"
	DeviationStable DeviationTrend = "STABLE"
)

// PoolPairAnalysis covers one pair of token-sharing pools.
type PoolPairAnalysis struct {
	PoolA string
	PoolB string

	Correlation  float64
	Class        CorrelationClass
	Significance float64
	SampleSize   int

	MeanDeviation float64
	LastDeviation float64
	Trend         DeviationTrend
}

// ArbitrageCandidate is an advisory signal only; its expected return is a
// simplified estimate, not an executable quote.
type ArbitrageCandidate struct {
	BuyPool           string
	SellPool          string
	PriceDeviation    float64
	ExpectedNetReturn float64
	Confidence        float64
}

// CorrelationAnalysis is the output of the correlation/arbitrage analyzer
// for a pool and its token-sharing peers.
type CorrelationAnalysis struct {
	PoolAddress string
	Timestamp   time.Time

	Pairs      []PoolPairAnalysis
	Candidates []ArbitrageCandidate
}

// MarketAnalysisEvent bundles the per-pool analysis outputs emitted on each
// market-structure sweep. Any of the pointers may be nil when the underlying
// history was insufficient or the sub-analysis failed.
type MarketAnalysisEvent struct {
	ID          string
	PoolAddress string
	Timestamp   time.Time

	Trend        *TrendAnalysis
	Distribution *DistributionAnalysis
	Volume       *VolumeAnalysis
	Correlation  *CorrelationAnalysis
}
