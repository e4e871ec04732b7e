package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

func priceSeries(prices ...float64) []model.PricePoint {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = model.PricePoint{Timestamp: base.Add(time.Duration(i) * time.Hour), Price: p}
	}
	return out
}

func repeatPrice(p float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func TestAnalyzeTrend_InsufficientData(t *testing.T) {
	now := time.Now()
	got := AnalyzeTrend("pool1", priceSeries(100), now)
	if got.Direction != model.TrendNeutral {
		t.Errorf("expected NEUTRAL for single point, got %s", got.Direction)
	}
	if got.RSI != 50 {
		t.Errorf("expected RSI 50 for single point, got %.2f", got.RSI)
	}
	if got.Strength != 0 {
		t.Errorf("expected strength 0 for single point, got %.2f", got.Strength)
	}
}

func TestAnalyzeTrend_ShortFlatSeriesIsNeutral(t *testing.T) {
	got := AnalyzeTrend("pool1", priceSeries(100, 100, 100), time.Now())
	if got.Direction != model.TrendNeutral {
		t.Errorf("expected NEUTRAL, got %s", got.Direction)
	}
	if got.Strength != 0 {
		t.Errorf("expected strength 0, got %.2f", got.Strength)
	}
}

func TestAnalyzeTrend_FlatSeriesIsNeutral(t *testing.T) {
	got := AnalyzeTrend("pool1", priceSeries(repeatPrice(100, 30)...), time.Now())
	if got.Direction != model.TrendNeutral {
		t.Errorf("expected NEUTRAL for flat series, got %s", got.Direction)
	}
	if got.RSI != 50 {
		t.Errorf("expected RSI 50 for flat series, got %.2f", got.RSI)
	}
	if got.Strength != 0 {
		t.Errorf("expected strength 0 for flat series, got %.2f", got.Strength)
	}
	if got.MACDProxy != 0 {
		t.Errorf("expected zero MACD proxy for flat series, got %.6f", got.MACDProxy)
	}
}

func TestAnalyzeTrend_MonotonicRise(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)*2
	}
	got := AnalyzeTrend("pool1", priceSeries(prices...), time.Now())
	if got.Direction != model.TrendUpward {
		t.Errorf("expected UPWARD, got %s", got.Direction)
	}
	if got.RSI != 100 {
		t.Errorf("expected RSI 100 with no losing steps, got %.2f", got.RSI)
	}
	if got.MACDProxy <= 0 {
		t.Errorf("expected positive MACD proxy, got %.6f", got.MACDProxy)
	}
	if got.Strength <= 0 || got.Strength > 100 {
		t.Errorf("expected strength in (0,100], got %.2f", got.Strength)
	}
}

func TestAnalyzeTrend_MonotonicFall(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 200 - float64(i)*2
	}
	got := AnalyzeTrend("pool1", priceSeries(prices...), time.Now())
	if got.Direction != model.TrendDownward {
		t.Errorf("expected DOWNWARD, got %s", got.Direction)
	}
	if got.RSI != 0 {
		t.Errorf("expected RSI 0 with no gaining steps, got %.2f", got.RSI)
	}
}

func TestWilderRSI_Bounds(t *testing.T) {
	series := [][]float64{
		{100, 105, 95, 110, 90, 120, 80, 130, 70, 140, 60, 150, 50, 160, 40, 170},
		repeatPrice(100, 20),
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
	}
	for i, s := range series {
		got := wilderRSI(s, 14)
		if got < 0 || got > 100 {
			t.Errorf("series %d: RSI %.4f outside [0,100]", i, got)
		}
	}
}

func TestWilderRSI_InsufficientReturnsMidpoint(t *testing.T) {
	if got := wilderRSI([]float64{100, 100, 100}, 14); got != 50 {
		t.Errorf("expected 50 for insufficient data, got %.2f", got)
	}
}

func TestClassifyVolatility_RecentSpike(t *testing.T) {
	changes := make([]float64, 200)
	for i := 176; i < 200; i++ {
		if i%2 == 0 {
			changes[i] = 0.05
		} else {
			changes[i] = -0.05
		}
	}
	trend, risk := classifyVolatility(changes)
	if trend != model.ChangeIncreasing {
		t.Errorf("expected INCREASING volatility trend, got %s", trend)
	}
	if risk != model.LevelHigh {
		t.Errorf("expected HIGH volatility risk, got %s", risk)
	}
}

func TestClassifyVolatility_CalmingDown(t *testing.T) {
	changes := make([]float64, 48)
	for i := 0; i < 24; i++ {
		if i%2 == 0 {
			changes[i] = 0.05
		} else {
			changes[i] = -0.05
		}
	}
	trend, risk := classifyVolatility(changes)
	if trend != model.ChangeDecreasing {
		t.Errorf("expected DECREASING volatility trend, got %s", trend)
	}
	if risk != model.LevelLow {
		t.Errorf("expected LOW volatility risk, got %s", risk)
	}
}

func TestEMA_SeededWithFirstValue(t *testing.T) {
	if got := ema([]float64{42}, 12); got != 42 {
		t.Errorf("expected 42, got %.4f", got)
	}
	got := ema([]float64{100, 110}, 12)
	want := 100 + (110-100)*(2.0/13.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %.6f, got %.6f", want, got)
	}
}

func TestSlope_KnownLine(t *testing.T) {
	if got := slope([]float64{1, 3, 5, 7}); math.Abs(got-2) > 1e-9 {
		t.Errorf("expected slope 2, got %.6f", got)
	}
	if got := slope([]float64{5, 5, 5}); got != 0 {
		t.Errorf("expected slope 0 for flat values, got %.6f", got)
	}
}

func TestPearson_DegenerateSeries(t *testing.T) {
	if got := pearson([]float64{1, 1, 1}, []float64{1, 2, 3}); got != 0 {
		t.Errorf("expected 0 for no-variance series, got %.4f", got)
	}
	if got := pearson([]float64{1, 2, 3}, []float64{2, 4, 6}); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected 1 for proportional series, got %.4f", got)
	}
}
