package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

func snapAt(address string, total int64, at time.Time) *model.PoolSnapshot {
	return &model.PoolSnapshot{
		Address:        address,
		TotalLiquidity: decimal.NewFromInt(total),
		CapturedAt:     at,
	}
}

func TestApplySnapshot_FirstAndReplace(t *testing.T) {
	s := New(10)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	prev, applied := s.ApplySnapshot(snapAt("pool1", 100, t0))
	require.True(t, applied)
	assert.Nil(t, prev)

	prev, applied = s.ApplySnapshot(snapAt("pool1", 200, t0.Add(time.Minute)))
	require.True(t, applied)
	require.NotNil(t, prev)
	assert.True(t, prev.TotalLiquidity.Equal(decimal.NewFromInt(100)))

	cur, ok := s.Snapshot("pool1")
	require.True(t, ok)
	assert.True(t, cur.TotalLiquidity.Equal(decimal.NewFromInt(200)))
}

func TestApplySnapshot_StaleRejected(t *testing.T) {
	s := New(10)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	_, applied := s.ApplySnapshot(snapAt("pool1", 100, t0))
	require.True(t, applied)

	// Older capture must not replace the current snapshot.
	prev, applied := s.ApplySnapshot(snapAt("pool1", 999, t0.Add(-time.Minute)))
	assert.False(t, applied)
	assert.Nil(t, prev)

	// Equal timestamps are not newer either.
	_, applied = s.ApplySnapshot(snapAt("pool1", 999, t0))
	assert.False(t, applied)

	cur, ok := s.Snapshot("pool1")
	require.True(t, ok)
	assert.True(t, cur.TotalLiquidity.Equal(decimal.NewFromInt(100)))
}

func TestAppendPrice_TrimsToLimit(t *testing.T) {
	s := New(3)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.AppendPrice("pool1", model.PricePoint{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Price:     float64(100 + i),
		})
	}

	series := s.PriceSeries("pool1")
	require.Len(t, series, 3)
	assert.Equal(t, 102.0, series[0].Price)
	assert.Equal(t, 104.0, series[2].Price)
}

func TestSeriesReturnsCopy(t *testing.T) {
	s := New(10)
	s.AppendVolume("pool1", model.VolumePoint{Volume: 10})

	series := s.VolumeSeries("pool1")
	require.Len(t, series, 1)
	series[0].Volume = 999

	again := s.VolumeSeries("pool1")
	assert.Equal(t, 10.0, again[0].Volume)
}

func TestRemove_ClearsAllState(t *testing.T) {
	s := New(10)
	now := time.Now()
	s.ApplySnapshot(snapAt("pool1", 100, now))
	s.AppendPrice("pool1", model.PricePoint{Timestamp: now, Price: 1})
	s.AppendVolume("pool1", model.VolumePoint{Timestamp: now, Volume: 1})
	s.AppendLiquidity("pool1", model.LiquidityPoint{Timestamp: now, Total: 1})

	s.Remove("pool1")

	_, ok := s.Snapshot("pool1")
	assert.False(t, ok)
	assert.Empty(t, s.PriceSeries("pool1"))
	assert.Empty(t, s.VolumeSeries("pool1"))
	assert.Empty(t, s.LiquiditySeries("pool1"))
}

func TestRemove_DoesNotAffectOtherPools(t *testing.T) {
	s := New(10)
	now := time.Now()
	s.ApplySnapshot(snapAt("pool1", 100, now))
	s.ApplySnapshot(snapAt("pool2", 200, now))

	s.Remove("pool1")

	_, ok := s.Snapshot("pool2")
	assert.True(t, ok)
}
