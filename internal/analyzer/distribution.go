package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

const (
	topBinFraction      = 0.20
	gapHighScore        = 0.10
	gapMediumScore      = 0.05
	gapTotalRatioHigh   = 0.20
	gapTotalRatioMedium = 0.10
	stabilityStepBand   = 0.05
)

// AnalyzeDistribution measures how a pool's liquidity is spread across its
// bins and how stable the total has been over the rolling history.
func AnalyzeDistribution(snap *model.PoolSnapshot, history []model.LiquidityPoint, now time.Time) *model.DistributionAnalysis {
	out := &model.DistributionAnalysis{
		PoolAddress: snap.Address,
		Timestamp:   now,
		Class:       model.Balanced,
		GapRisk:     model.LevelLow,
		Stability:   model.StabilityModerate,
		RiskTier:    model.LevelMedium,
	}

	shares := binShares(snap)
	out.TopShare = topFractionShare(shares, topBinFraction)
	out.Class = classifyConcentration(out.TopShare)
	out.Gini = gini(shares)
	out.Entropy = entropy(shares)

	out.Gaps, out.TotalGapRatio, out.GapRisk = detectGaps(snap)

	out.Volatility, out.Persistence, out.Resilience = stabilityMetrics(history)
	out.Stability, out.RiskTier = classifyStability(out.Volatility, out.Persistence, out.Resilience)
	return out
}

// binShares converts bin liquidity into fractions of the bin sum. The bin
// sum rather than the reported total is used so shares always add to 1.
func binShares(snap *model.PoolSnapshot) []float64 {
	total := snap.BinSum()
	if total.IsZero() {
		return nil
	}
	shares := make([]float64, 0, len(snap.Bins))
	for _, b := range snap.Bins {
		shares = append(shares, b.Liquidity.Div(total).InexactFloat64())
	}
	return shares
}

// topFractionShare sums the largest shares covering the given fraction of
// bins (at least one bin).
func topFractionShare(shares []float64, fraction float64) float64 {
	if len(shares) == 0 {
		return 0
	}
	sorted := append([]float64(nil), shares...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	n := int(math.Ceil(float64(len(sorted)) * fraction))
	if n < 1 {
		n = 1
	}
	sum := 0.0
	for _, s := range sorted[:n] {
		sum += s
	}
	return clamp(sum, 0, 1)
}

func classifyConcentration(topShare float64) model.ConcentrationClass {
	switch {
	case topShare > 0.80:
		return model.HighlyConcentrated
	case topShare > 0.60:
		return model.ModeratelyConcentrated
	case topShare < 0.30:
		return model.Dispersed
	default:
		return model.Balanced
	}
}

// gini computes the Gini coefficient over bin shares using the sorted-rank
// formula G = (2*sum(i*x_i))/(n*sum(x)) - (n+1)/n with 1-based ranks over
// the ascending-sorted shares. 0 for fewer than two bins.
func gini(shares []float64) float64 {
	n := len(shares)
	if n < 2 {
		return 0
	}
	sorted := append([]float64(nil), shares...)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, s := range sorted {
		sum += s
		weighted += float64(i+1) * s
	}
	if sum == 0 {
		return 0
	}
	fn := float64(n)
	return clamp(2*weighted/(fn*sum)-(fn+1)/fn, 0, 1)
}

// entropy computes the Shannon entropy of the share distribution normalized
// by log(n), so 1 means perfectly even. Zero shares are skipped; fewer than
// two bins yields 0.
func entropy(shares []float64) float64 {
	n := len(shares)
	if n < 2 {
		return 0
	}
	h := 0.0
	for _, s := range shares {
		if s > 0 {
			h -= s * math.Log(s)
		}
	}
	return clamp(h/math.Log(float64(n)), 0, 1)
}

// detectGaps finds uncovered price spans between bins adjacent by price.
// Bins are a contiguous ID ladder; a jump in IDs between price-adjacent
// bins means the span between them holds no liquidity.
func detectGaps(snap *model.PoolSnapshot) ([]model.LiquidityGap, float64, model.LevelTier) {
	if len(snap.Bins) < 2 {
		return nil, 0, model.LevelLow
	}

	bins := append([]model.Bin(nil), snap.Bins...)
	sort.Slice(bins, func(i, j int) bool { return bins[i].Price < bins[j].Price })

	fullRange := bins[len(bins)-1].Price - bins[0].Price
	if fullRange <= 0 {
		return nil, 0, model.LevelLow
	}

	var gaps []model.LiquidityGap
	totalGap := 0.0
	for i := 1; i < len(bins); i++ {
		lower, upper := bins[i-1], bins[i]
		if upper.ID-lower.ID <= 1 {
			continue
		}
		size := upper.Price - lower.Price
		if size <= 0 {
			continue
		}
		mid := lower.Price + size/2
		distance := math.Abs(mid - snap.CurrentPrice)
		relSize := size / fullRange
		proximity := 1 / (1 + distance/fullRange)
		score := relSize * proximity

		severity := model.LevelLow
		if score >= gapHighScore {
			severity = model.LevelHigh
		} else if score >= gapMediumScore {
			severity = model.LevelMedium
		}

		gaps = append(gaps, model.LiquidityGap{
			LowerBinID:    lower.ID,
			UpperBinID:    upper.ID,
			PriceFrom:     lower.Price,
			PriceTo:       upper.Price,
			Size:          size,
			DistanceFrom:  distance,
			Severity:      severity,
			SeverityScore: score,
		})
		totalGap += size
	}

	ratio := totalGap / fullRange
	risk := model.LevelLow
	anyHigh, anyMedium := false, false
	for _, g := range gaps {
		switch g.Severity {
		case model.LevelHigh:
			anyHigh = true
		case model.LevelMedium:
			anyMedium = true
		}
	}
	switch {
	case ratio > gapTotalRatioHigh || anyHigh:
		risk = model.LevelHigh
	case ratio > gapTotalRatioMedium || anyMedium:
		risk = model.LevelMedium
	}
	return gaps, ratio, risk
}

// stabilityMetrics derives volatility (stdev of step changes), persistence
// (fraction of steps under the 5% band) and resilience (fraction of >5%
// drops followed by a recovering step) from the liquidity-total history.
func stabilityMetrics(history []model.LiquidityPoint) (volatility, persistence, resilience float64) {
	if len(history) < 2 {
		return 0, 1, 1
	}
	totals := make([]float64, len(history))
	for i, pt := range history {
		totals[i] = pt.Total
	}
	changes := percentChanges(totals)

	volatility = stdDev(changes)

	calm := 0
	for _, c := range changes {
		if math.Abs(c) < stabilityStepBand {
			calm++
		}
	}
	persistence = float64(calm) / float64(len(changes))

	drops, recovered := 0, 0
	for i, c := range changes {
		if c < -stabilityStepBand {
			drops++
			if i+1 < len(changes) && changes[i+1] > 0 {
				recovered++
			}
		}
	}
	if drops == 0 {
		resilience = 1
	} else {
		resilience = float64(recovered) / float64(drops)
	}
	return volatility, persistence, resilience
}

func classifyStability(volatility, persistence, resilience float64) (model.StabilityLevel, model.LevelTier) {
	switch {
	case persistence > 0.8 && volatility < 0.05 && resilience >= 0.5:
		return model.StabilityHigh, model.LevelLow
	case persistence < 0.5 || volatility > 0.15:
		return model.StabilityLow, model.LevelHigh
	default:
		return model.StabilityModerate, model.LevelMedium
	}
}
