package detector

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

func snap(address string, total int64, bins ...model.Bin) *model.PoolSnapshot {
	return &model.PoolSnapshot{
		Address:        address,
		TokenX:         "SOL",
		TokenY:         "USDC",
		TotalLiquidity: decimal.NewFromInt(total),
		CurrentPrice:   150,
		Bins:           bins,
		CapturedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func bin(id int32, liquidity int64) model.Bin {
	return model.Bin{ID: id, Price: 150 + float64(id)*0.1, Liquidity: decimal.NewFromInt(liquidity)}
}

func TestDiff_TenPercentIncrease(t *testing.T) {
	old := snap("pool1", 1_000_000, bin(1, 1_000_000))
	new := snap("pool1", 1_100_000, bin(1, 1_100_000))

	rec := Diff(old, new, 3)
	if rec.Undefined {
		t.Fatal("change percent should be defined for non-zero old total")
	}
	if math.Abs(rec.ChangePercent-0.10) > 1e-9 {
		t.Errorf("expected change percent 0.10, got %.6f", rec.ChangePercent)
	}
	if !rec.ChangeAmount.Equal(decimal.NewFromInt(100_000)) {
		t.Errorf("expected change amount 100000, got %s", rec.ChangeAmount)
	}
}

func TestDiff_DecreaseUsesAbsolute(t *testing.T) {
	old := snap("pool1", 1_000_000, bin(1, 1_000_000))
	new := snap("pool1", 900_000, bin(1, 900_000))

	rec := Diff(old, new, 3)
	if math.Abs(rec.ChangePercent-0.10) > 1e-9 {
		t.Errorf("expected change percent 0.10 for a decrease, got %.6f", rec.ChangePercent)
	}
}

func TestDiff_ZeroOldTotalIsUndefined(t *testing.T) {
	old := snap("pool1", 0)
	new := snap("pool1", 500_000, bin(1, 500_000))

	rec := Diff(old, new, 3)
	if !rec.Undefined {
		t.Fatal("expected undefined change for zero old total")
	}
	if rec.ChangePercent != 0 {
		t.Errorf("undefined record must carry zero percent, got %.6f", rec.ChangePercent)
	}
	for _, bc := range rec.TopBinChanges {
		if bc.Percent != 0 {
			t.Errorf("bin %d: undefined record must carry zero bin percents, got %.6f", bc.BinID, bc.Percent)
		}
	}
}

func TestDiff_RemovedBin(t *testing.T) {
	old := snap("pool1", 1_500, bin(1, 1_000), bin(2, 500))
	new := snap("pool1", 1_000, bin(1, 1_000))

	rec := Diff(old, new, 3)
	if len(rec.TopBinChanges) != 1 {
		t.Fatalf("expected 1 bin change, got %d", len(rec.TopBinChanges))
	}
	bc := rec.TopBinChanges[0]
	if bc.BinID != 2 {
		t.Errorf("expected bin 2, got %d", bc.BinID)
	}
	if bc.Type != model.BinChangeRemove {
		t.Errorf("expected remove, got %s", bc.Type)
	}
	if !bc.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected amount 500, got %s", bc.Amount)
	}
}

func TestDiff_AddedBin(t *testing.T) {
	old := snap("pool1", 1_000, bin(1, 1_000))
	new := snap("pool1", 1_400, bin(1, 1_000), bin(3, 400))

	rec := Diff(old, new, 3)
	if len(rec.TopBinChanges) != 1 {
		t.Fatalf("expected 1 bin change, got %d", len(rec.TopBinChanges))
	}
	bc := rec.TopBinChanges[0]
	if bc.BinID != 3 || bc.Type != model.BinChangeAdd {
		t.Errorf("expected add on bin 3, got %s on bin %d", bc.Type, bc.BinID)
	}
	if math.Abs(bc.Percent-0.4) > 1e-9 {
		t.Errorf("expected bin percent 0.4, got %.6f", bc.Percent)
	}
}

func TestDiff_RankingDescendingWithStableTieBreak(t *testing.T) {
	old := snap("pool1", 3_000, bin(1, 1_000), bin(2, 1_000), bin(3, 1_000))
	// bin 3 moves most; bins 1 and 2 move the same amount
	new := snap("pool1", 4_200, bin(1, 1_200), bin(2, 1_200), bin(3, 1_800))

	first := Diff(old, new, 3)
	if len(first.TopBinChanges) != 3 {
		t.Fatalf("expected 3 bin changes, got %d", len(first.TopBinChanges))
	}
	gotIDs := []int32{first.TopBinChanges[0].BinID, first.TopBinChanges[1].BinID, first.TopBinChanges[2].BinID}
	wantIDs := []int32{3, 1, 2}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("expected order %v, got %v", wantIDs, gotIDs)
		}
	}

	// Same inputs must produce the same ranking.
	second := Diff(old, new, 3)
	for i := range first.TopBinChanges {
		if first.TopBinChanges[i].BinID != second.TopBinChanges[i].BinID {
			t.Fatal("ranking is not idempotent across repeated diffs")
		}
	}
}

func TestDiff_TruncatesToTopCount(t *testing.T) {
	old := snap("pool1", 4_000, bin(1, 1_000), bin(2, 1_000), bin(3, 1_000), bin(4, 1_000))
	new := snap("pool1", 8_000, bin(1, 1_100), bin(2, 1_300), bin(3, 2_600), bin(4, 3_000))

	rec := Diff(old, new, 2)
	if len(rec.TopBinChanges) != 2 {
		t.Fatalf("expected 2 bin changes, got %d", len(rec.TopBinChanges))
	}
	if rec.TopBinChanges[0].BinID != 4 || rec.TopBinChanges[1].BinID != 3 {
		t.Errorf("expected bins 4,3 at top, got %d,%d",
			rec.TopBinChanges[0].BinID, rec.TopBinChanges[1].BinID)
	}
}

func TestDiff_UnchangedBinsSkipped(t *testing.T) {
	old := snap("pool1", 2_000, bin(1, 1_000), bin(2, 1_000))
	new := snap("pool1", 2_500, bin(1, 1_000), bin(2, 1_500))

	rec := Diff(old, new, 3)
	if len(rec.TopBinChanges) != 1 {
		t.Fatalf("expected only the moved bin, got %d changes", len(rec.TopBinChanges))
	}
	if rec.TopBinChanges[0].BinID != 2 {
		t.Errorf("expected bin 2, got %d", rec.TopBinChanges[0].BinID)
	}
}

func TestClassifyRisk_Tiers(t *testing.T) {
	th := DefaultRiskThresholds()
	cases := []struct {
		name     string
		totalPct float64
		binPct   float64
		want     model.RiskLevel
	}{
		{"below all thresholds", 0.02, 0.01, model.RiskLow},
		{"medium by total", 0.09, 0.01, model.RiskMedium},
		{"medium by bin", 0.02, 0.06, model.RiskMedium},
		{"high by total", 0.16, 0.01, model.RiskHigh},
		{"high by bin", 0.02, 0.11, model.RiskHigh},
		{"high wins over medium", 0.09, 0.12, model.RiskHigh},
		{"exactly medium total", 0.08, 0, model.RiskMedium},
		{"exactly high total", 0.15, 0, model.RiskHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &model.ChangeRecord{
				ChangePercent: tc.totalPct,
				TopBinChanges: []model.BinChange{{BinID: 1, Percent: tc.binPct}},
			}
			if got := ClassifyRisk(rec, th); got != tc.want {
				t.Errorf("total=%.2f bin=%.2f: expected %s, got %s", tc.totalPct, tc.binPct, tc.want, got)
			}
		})
	}
}

func TestClassifyRisk_UndefinedNeverEscalates(t *testing.T) {
	rec := &model.ChangeRecord{
		Undefined:     true,
		ChangePercent: 0,
		TopBinChanges: []model.BinChange{{BinID: 1, Percent: 0}},
	}
	if got := ClassifyRisk(rec, DefaultRiskThresholds()); got != model.RiskLow {
		t.Errorf("undefined record must classify low, got %s", got)
	}
}

func TestConcentration_TopTenShare(t *testing.T) {
	bins := make([]model.Bin, 0, 20)
	// 10 large bins of 90 each, 10 small bins of 10 each
	for i := int32(0); i < 10; i++ {
		bins = append(bins, bin(i, 90))
	}
	for i := int32(10); i < 20; i++ {
		bins = append(bins, bin(i, 10))
	}
	s := snap("pool1", 1_000, bins...)

	got := Concentration(s)
	if math.Abs(got-0.9) > 1e-9 {
		t.Errorf("expected concentration 0.9, got %.6f", got)
	}
}

func TestConcentration_Bounds(t *testing.T) {
	empty := snap("pool1", 0)
	if got := Concentration(empty); got != 0 {
		t.Errorf("expected 0 concentration for empty pool, got %.6f", got)
	}

	// Reported total smaller than the bin sum must still clamp to 1.
	skewed := snap("pool1", 100, bin(1, 500))
	if got := Concentration(skewed); got != 1 {
		t.Errorf("expected clamp to 1, got %.6f", got)
	}

	few := snap("pool1", 100, bin(1, 60), bin(2, 40))
	if got := Concentration(few); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected full share with fewer than 10 bins, got %.6f", got)
	}
}
