package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

const (
	shortWindow  = 4
	mediumWindow = 12
	longWindow   = 24

	slopeBand = 0.05

	spikeSigma     = 3.0
	sustainedSigma = 2.0
	sustainedHighN = 6
	sustainedLowN  = 24
)

// window trend weights, short to long.
var windowWeights = [3]float64{0.5, 0.3, 0.2}

// AnalyzeVolume classifies trading-volume patterns for one pool's rolling
// volume history. An empty series yields a neutral low-activity result.
func AnalyzeVolume(address string, series []model.VolumePoint, now time.Time) *model.VolumeAnalysis {
	out := &model.VolumeAnalysis{
		PoolAddress:   address,
		Timestamp:     now,
		Trend:         model.TrendNeutral,
		ActivityLevel: model.ActivityLow,
	}
	if len(series) == 0 {
		return out
	}

	volumes := make([]float64, len(series))
	for i, pt := range series {
		volumes[i] = pt.Volume
	}

	out.ShortMA = mean(lastN(volumes, shortWindow))
	out.MediumMA = mean(lastN(volumes, mediumWindow))
	out.LongMA = mean(lastN(volumes, longWindow))

	out.Trend, out.Strength, out.Confidence = combineWindowTrends(volumes)
	out.Anomalies = detectAnomalies(series, volumes)
	out.ActivityScore, out.ActivityLevel = activityLevel(series, volumes)
	return out
}

// windowTrend grades one window by its regression slope over mean-normalized
// values, so the 0.05 band is scale-free: +1 increasing, -1 decreasing.
func windowTrend(window []float64) float64 {
	m := mean(window)
	if m == 0 || len(window) < 2 {
		return 0
	}
	normalized := make([]float64, len(window))
	for i, v := range window {
		normalized[i] = v / m
	}
	s := slope(normalized)
	if s > slopeBand {
		return 1
	}
	if s < -slopeBand {
		return -1
	}
	return 0
}

// combineWindowTrends blends the 4/12/24 window trends at 0.5/0.3/0.2 into
// an overall direction, strength (0..100) and confidence (0..1).
func combineWindowTrends(volumes []float64) (model.TrendDirection, float64, float64) {
	dirs := [3]float64{
		windowTrend(lastN(volumes, shortWindow)),
		windowTrend(lastN(volumes, mediumWindow)),
		windowTrend(lastN(volumes, longWindow)),
	}

	score := 0.0
	for i, d := range dirs {
		score += d * windowWeights[i]
	}

	trend := model.TrendNeutral
	if score > 0.2 {
		trend = model.TrendUpward
	} else if score < -0.2 {
		trend = model.TrendDownward
	}

	// Confidence grows with history depth and with window agreement.
	agreement := 0.0
	for i, d := range dirs {
		if (score > 0 && d > 0) || (score < 0 && d < 0) || (score == 0 && d == 0) {
			agreement += windowWeights[i]
		}
	}
	depth := clamp(float64(len(volumes))/float64(longWindow), 0, 1)
	return trend, math.Abs(score) * 100, agreement * depth
}

// detectAnomalies flags single-point spikes above mean+3σ and rolling
// averages beyond ±2σ, ranked by absolute deviation.
func detectAnomalies(series []model.VolumePoint, volumes []float64) []model.VolumeAnomaly {
	m := mean(volumes)
	sd := stdDev(volumes)
	if sd == 0 {
		return nil
	}

	var anomalies []model.VolumeAnomaly
	for i, v := range volumes {
		if v >= m+spikeSigma*sd {
			anomalies = append(anomalies, model.VolumeAnomaly{
				Type:      model.AnomalySpike,
				Timestamp: series[i].Timestamp,
				Value:     v,
				Deviation: (v - m) / sd,
				Severity:  model.LevelHigh,
			})
		}
	}

	if len(volumes) >= sustainedHighN {
		avg := mean(lastN(volumes, sustainedHighN))
		if avg >= m+sustainedSigma*sd {
			anomalies = append(anomalies, model.VolumeAnomaly{
				Type:      model.AnomalySustainedHigh,
				Timestamp: series[len(series)-1].Timestamp,
				Value:     avg,
				Deviation: (avg - m) / sd,
				Severity:  model.LevelMedium,
			})
		}
	}
	if len(volumes) >= sustainedLowN {
		avg := mean(lastN(volumes, sustainedLowN))
		if avg <= m-sustainedSigma*sd {
			anomalies = append(anomalies, model.VolumeAnomaly{
				Type:      model.AnomalySustainedLow,
				Timestamp: series[len(series)-1].Timestamp,
				Value:     avg,
				Deviation: (m - avg) / sd,
				Severity:  model.LevelMedium,
			})
		}
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Deviation > anomalies[j].Deviation
	})
	return anomalies
}

// activityLevel composes normalized average volume, volume stability,
// trading frequency and interval regularity at 0.3/0.2/0.3/0.2.
func activityLevel(series []model.VolumePoint, volumes []float64) (float64, model.ActivityLevel) {
	m := mean(volumes)
	peak := 0.0
	for _, v := range volumes {
		if v > peak {
			peak = v
		}
	}

	avgNorm := 0.0
	if peak > 0 {
		avgNorm = m / peak
	}

	stability := 0.0
	if m > 0 {
		stability = clamp(1-stdDev(volumes)/m, 0, 1)
	}

	active := 0
	for _, v := range volumes {
		if v > 0 {
			active++
		}
	}
	frequency := float64(active) / float64(len(volumes))

	regularity := intervalRegularity(series)

	score := 0.3*avgNorm + 0.2*stability + 0.3*frequency + 0.2*regularity
	switch {
	case score > 0.7:
		return score, model.ActivityHigh
	case score > 0.4:
		return score, model.ActivityModerate
	default:
		return score, model.ActivityLow
	}
}

// intervalRegularity is 1 minus the coefficient of variation of the
// inter-sample gaps, clamped to [0,1]. A single sample counts as regular.
func intervalRegularity(series []model.VolumePoint) float64 {
	if len(series) < 3 {
		return 1
	}
	gaps := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		gaps = append(gaps, series[i].Timestamp.Sub(series[i-1].Timestamp).Seconds())
	}
	m := mean(gaps)
	if m <= 0 {
		return 0
	}
	return clamp(1-stdDev(gaps)/m, 0, 1)
}
