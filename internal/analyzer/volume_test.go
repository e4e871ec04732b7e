package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

func volumeSeries(volumes ...float64) []model.VolumePoint {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.VolumePoint, len(volumes))
	for i, v := range volumes {
		out[i] = model.VolumePoint{Timestamp: base.Add(time.Duration(i) * time.Hour), Volume: v}
	}
	return out
}

func TestAnalyzeVolume_EmptySeries(t *testing.T) {
	got := AnalyzeVolume("pool1", nil, time.Now())
	if got.Trend != model.TrendNeutral {
		t.Errorf("expected NEUTRAL trend, got %s", got.Trend)
	}
	if got.ActivityLevel != model.ActivityLow {
		t.Errorf("expected LOW activity, got %s", got.ActivityLevel)
	}
}

func TestAnalyzeVolume_GrowingVolume(t *testing.T) {
	volumes := make([]float64, 30)
	v := 100.0
	for i := range volumes {
		volumes[i] = v
		v *= 1.1
	}
	got := AnalyzeVolume("pool1", volumeSeries(volumes...), time.Now())

	if got.Trend != model.TrendUpward {
		t.Errorf("expected UPWARD, got %s", got.Trend)
	}
	if got.Strength <= 0 {
		t.Errorf("expected positive strength, got %.2f", got.Strength)
	}
	if got.Confidence <= 0.5 {
		t.Errorf("expected confident agreement across windows, got %.4f", got.Confidence)
	}
	if got.ShortMA <= got.LongMA {
		t.Errorf("expected short MA above long MA, short %.2f long %.2f", got.ShortMA, got.LongMA)
	}
}

func TestAnalyzeVolume_ShrinkingVolume(t *testing.T) {
	volumes := make([]float64, 30)
	v := 100.0
	for i := range volumes {
		volumes[i] = v
		v *= 0.9
	}
	got := AnalyzeVolume("pool1", volumeSeries(volumes...), time.Now())
	if got.Trend != model.TrendDownward {
		t.Errorf("expected DOWNWARD, got %s", got.Trend)
	}
}

func TestDetectAnomalies_SingleSpike(t *testing.T) {
	volumes := make([]float64, 30)
	for i := range volumes {
		volumes[i] = 100
	}
	volumes[15] = 1000
	series := volumeSeries(volumes...)

	anomalies := detectAnomalies(series, volumes)
	if len(anomalies) != 1 {
		t.Fatalf("expected exactly 1 anomaly, got %d", len(anomalies))
	}
	a := anomalies[0]
	if a.Type != model.AnomalySpike {
		t.Errorf("expected SPIKE, got %s", a.Type)
	}
	if a.Severity != model.LevelHigh {
		t.Errorf("expected HIGH severity, got %s", a.Severity)
	}
	if !a.Timestamp.Equal(series[15].Timestamp) {
		t.Errorf("anomaly timestamp should match the spike sample")
	}
	if a.Deviation < 3 {
		t.Errorf("spike deviation must be at least 3 sigma, got %.2f", a.Deviation)
	}
}

func TestDetectAnomalies_FlatSeries(t *testing.T) {
	volumes := []float64{100, 100, 100, 100, 100}
	if got := detectAnomalies(volumeSeries(volumes...), volumes); got != nil {
		t.Errorf("expected no anomalies for flat series, got %d", len(got))
	}
}

func TestDetectAnomalies_RankedByDeviation(t *testing.T) {
	volumes := make([]float64, 40)
	for i := range volumes {
		volumes[i] = 100
	}
	volumes[5] = 2000
	volumes[20] = 3000
	series := volumeSeries(volumes...)

	anomalies := detectAnomalies(series, volumes)
	if len(anomalies) < 2 {
		t.Fatalf("expected at least 2 anomalies, got %d", len(anomalies))
	}
	for i := 1; i < len(anomalies); i++ {
		if anomalies[i].Deviation > anomalies[i-1].Deviation {
			t.Fatalf("anomalies not ranked by descending deviation at index %d", i)
		}
	}
	if anomalies[0].Value != 3000 {
		t.Errorf("expected the largest spike first, got value %.0f", anomalies[0].Value)
	}
}

func TestActivityLevel_SteadyTrading(t *testing.T) {
	volumes := make([]float64, 24)
	for i := range volumes {
		volumes[i] = 100
	}
	score, level := activityLevel(volumeSeries(volumes...), volumes)
	if level != model.ActivityHigh {
		t.Errorf("expected HIGH activity, got %s (score %.4f)", level, score)
	}
	if math.Abs(score-1) > 1e-9 {
		t.Errorf("expected score 1 for perfectly steady trading, got %.4f", score)
	}
}

func TestActivityLevel_SparseTrading(t *testing.T) {
	volumes := make([]float64, 20)
	volumes[3] = 100
	score, level := activityLevel(volumeSeries(volumes...), volumes)
	if level != model.ActivityLow {
		t.Errorf("expected LOW activity, got %s (score %.4f)", level, score)
	}
}

func TestIntervalRegularity(t *testing.T) {
	regular := volumeSeries(10, 20, 30, 40)
	if got := intervalRegularity(regular); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected regularity 1 for evenly spaced samples, got %.4f", got)
	}

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	irregular := []model.VolumePoint{
		{Timestamp: base, Volume: 10},
		{Timestamp: base.Add(1 * time.Minute), Volume: 10},
		{Timestamp: base.Add(10 * time.Hour), Volume: 10},
		{Timestamp: base.Add(10*time.Hour + 2*time.Minute), Volume: 10},
	}
	if got := intervalRegularity(irregular); got > 0.5 {
		t.Errorf("expected low regularity for clustered samples, got %.4f", got)
	}
}
