package analyzer

import (
	"math"
	"time"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

const (
	shortEMAPeriod   = 12
	longEMAPeriod    = 24
	rsiPeriod        = 14
	volatilityWindow = 24
	volTrendBand     = 0.20
)

// AnalyzeTrend classifies price momentum and volatility for one pool's
// rolling price history. Fewer than two points yields a neutral result.
func AnalyzeTrend(address string, series []model.PricePoint, now time.Time) *model.TrendAnalysis {
	out := &model.TrendAnalysis{
		PoolAddress:     address,
		Timestamp:       now,
		RSI:             50,
		Direction:       model.TrendNeutral,
		VolatilityTrend: model.ChangeStable,
		VolatilityRisk:  model.LevelLow,
	}
	if len(series) < 2 {
		return out
	}

	prices := make([]float64, len(series))
	for i, pt := range series {
		prices[i] = pt.Price
	}

	changes := percentChanges(prices)
	out.MeanChange = mean(changes)
	out.MedianChange = median(changes)
	out.StdDevChange = stdDev(changes)

	out.ShortEMA = ema(prices, shortEMAPeriod)
	out.LongEMA = ema(prices, longEMAPeriod)
	out.MACDProxy = out.ShortEMA - out.LongEMA
	out.RSI = wilderRSI(prices, rsiPeriod)

	switch {
	case out.MACDProxy > 0 && out.RSI > 50:
		out.Direction = model.TrendUpward
	case out.MACDProxy < 0 && out.RSI < 50:
		out.Direction = model.TrendDownward
	}
	out.Strength = math.Min(100, math.Abs(out.MACDProxy)*10+math.Abs(out.RSI-50))

	out.VolatilityTrend, out.VolatilityRisk = classifyVolatility(changes)
	return out
}

// classifyVolatility compares the RMS of the most recent window of absolute
// percent changes against the preceding window, and grades the recent level
// against the whole series' standard deviation.
func classifyVolatility(changes []float64) (model.ChangeTrend, model.LevelTier) {
	absChanges := make([]float64, len(changes))
	for i, c := range changes {
		absChanges[i] = math.Abs(c)
	}

	recent := lastN(absChanges, volatilityWindow)
	recentRMS := rms(recent)

	trend := model.ChangeStable
	if len(absChanges) > volatilityWindow {
		prevStart := len(absChanges) - volatilityWindow - volatilityWindow
		if prevStart < 0 {
			prevStart = 0
		}
		prev := absChanges[prevStart : len(absChanges)-volatilityWindow]
		prevRMS := rms(prev)
		if prevRMS > 0 {
			shift := (recentRMS - prevRMS) / prevRMS
			if shift > volTrendBand {
				trend = model.ChangeIncreasing
			} else if shift < -volTrendBand {
				trend = model.ChangeDecreasing
			}
		} else if recentRMS > 0 {
			trend = model.ChangeIncreasing
		}
	}

	risk := model.LevelLow
	overall := stdDev(changes)
	switch {
	case overall > 0 && recentRMS >= 2*overall:
		risk = model.LevelHigh
	case overall > 0 && recentRMS >= 1.5*overall:
		risk = model.LevelMedium
	}
	return trend, risk
}
