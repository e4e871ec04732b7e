package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

const (
	strongCorr = 0.7
	weakCorr   = 0.3

	deviationSlopeBand = 0.01

	// Assumed round-trip cost (two swaps) subtracted from the raw
	// deviation when estimating arbitrage returns. Advisory only.
	arbRoundTripFee = 0.004
)

// AnalyzeCorrelation compares a pool's aligned price series against its
// token-sharing peers. The numeric outputs of the arbitrage ranking are
// advisory estimates, not executable quotes.
func AnalyzeCorrelation(address string, series map[string][]model.PricePoint, now time.Time) *model.CorrelationAnalysis {
	out := &model.CorrelationAnalysis{
		PoolAddress: address,
		Timestamp:   now,
	}

	base, ok := series[address]
	if !ok || len(base) < 2 {
		return out
	}

	peers := make([]string, 0, len(series)-1)
	for addr := range series {
		if addr != address {
			peers = append(peers, addr)
		}
	}
	sort.Strings(peers)

	for _, peer := range peers {
		pair := analyzePair(address, base, peer, series[peer])
		if pair == nil {
			continue
		}
		out.Pairs = append(out.Pairs, *pair)

		if cand := arbitrageCandidate(address, peer, base, series[peer], pair); cand != nil {
			out.Candidates = append(out.Candidates, *cand)
		}
	}

	sort.SliceStable(out.Candidates, func(i, j int) bool {
		return out.Candidates[i].ExpectedNetReturn > out.Candidates[j].ExpectedNetReturn
	})
	return out
}

// analyzePair aligns two series to their common tail and computes the
// correlation and deviation trend between them.
func analyzePair(addrA string, seriesA []model.PricePoint, addrB string, seriesB []model.PricePoint) *model.PoolPairAnalysis {
	n := len(seriesA)
	if len(seriesB) < n {
		n = len(seriesB)
	}
	if n < 2 {
		return nil
	}

	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = seriesA[len(seriesA)-n+i].Price
		b[i] = seriesB[len(seriesB)-n+i].Price
	}

	r := pearson(a, b)
	deviations := deviationSeries(a, b)

	pair := &model.PoolPairAnalysis{
		PoolA:         addrA,
		PoolB:         addrB,
		Correlation:   r,
		Class:         classifyCorrelation(r),
		Significance:  significance(r, n),
		SampleSize:    n,
		MeanDeviation: mean(absAll(deviations)),
		LastDeviation: deviations[len(deviations)-1],
		Trend:         deviationTrend(deviations),
	}
	return pair
}

func classifyCorrelation(r float64) model.CorrelationClass {
	switch {
	case r >= strongCorr:
		return model.StrongPositive
	case r >= weakCorr:
		return model.WeakPositive
	case r <= -strongCorr:
		return model.StrongNegative
	case r <= -weakCorr:
		return model.WeakNegative
	default:
		return model.NeutralCorr
	}
}

// significance maps the t-statistic of r onto [0,1]; 1 from |t| >= 3.
// A perfect correlation has an unbounded t-statistic, so it saturates at 1.
func significance(r float64, n int) float64 {
	if n < 3 {
		return 0
	}
	if math.Abs(r) >= 1 {
		return 1
	}
	t := math.Abs(r) * math.Sqrt(float64(n-2)) / math.Sqrt(1-r*r)
	return clamp(t/3, 0, 1)
}

// deviationSeries is (a-b)/avg(a,b) per aligned point; a zero average
// contributes 0.
func deviationSeries(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		avg := (a[i] + b[i]) / 2
		if avg == 0 {
			out[i] = 0
			continue
		}
		out[i] = (a[i] - b[i]) / avg
	}
	return out
}

// deviationTrend grades the regression slope of the absolute deviation:
// shrinking means the prices are converging.
func deviationTrend(deviations []float64) model.DeviationTrend {
	s := slope(absAll(deviations))
	if s > deviationSlopeBand {
		return model.Diverging
	}
	if s < -deviationSlopeBand {
		return model.Converging
	}
	return model.DeviationStable
}

// arbitrageCandidate derives an advisory candidate when the current price
// deviation exceeds the assumed round-trip cost.
func arbitrageCandidate(addrA, addrB string, a, b []model.PricePoint, pair *model.PoolPairAnalysis) *model.ArbitrageCandidate {
	dev := pair.LastDeviation
	if math.Abs(dev) <= arbRoundTripFee {
		return nil
	}

	buy, sell := addrA, addrB
	if dev > 0 { // pool A is priced above pool B
		buy, sell = addrB, addrA
	}

	confidence := pair.Significance * math.Abs(pair.Correlation)
	if pair.Trend == model.Converging {
		// A converging pair is already closing the gap.
		confidence *= 1.25
	}

	return &model.ArbitrageCandidate{
		BuyPool:           buy,
		SellPool:          sell,
		PriceDeviation:    dev,
		ExpectedNetReturn: math.Abs(dev) - arbRoundTripFee,
		Confidence:        clamp(confidence, 0, 1),
	}
}

func absAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Abs(v)
	}
	return out
}
