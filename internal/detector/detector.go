// Package detector diffs consecutive pool snapshots and grades the result.
package detector

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

// Diff computes the liquidity delta between two consecutive snapshots of
// the same pool. When the old total is zero the change percent is
// undefined: the record carries Undefined=true and zero percents instead
// of dividing by zero. topCount bounds how many ranked bin changes are kept.
func Diff(old, new *model.PoolSnapshot, topCount int) *model.ChangeRecord {
	rec := &model.ChangeRecord{
		TotalBefore:  old.TotalLiquidity,
		TotalAfter:   new.TotalLiquidity,
		ChangeAmount: new.TotalLiquidity.Sub(old.TotalLiquidity).Abs(),
	}

	undefined := old.TotalLiquidity.IsZero()
	rec.Undefined = undefined
	if !undefined {
		rec.ChangePercent = rec.ChangeAmount.Div(old.TotalLiquidity).InexactFloat64()
	}

	rec.TopBinChanges = rankBinChanges(old, new, topCount, undefined)
	return rec
}

// rankBinChanges unions bins by ID across both snapshots. A bin present
// only in new is a full add, only in old a full remove, in both the
// absolute delta with direction by sign. The result is sorted descending
// by absolute amount; ties keep ascending bin-ID order, which makes the
// ranking stable and idempotent.
func rankBinChanges(old, new *model.PoolSnapshot, topCount int, undefined bool) []model.BinChange {
	oldBins := make(map[int32]model.Bin, len(old.Bins))
	for _, b := range old.Bins {
		oldBins[b.ID] = b
	}
	newBins := make(map[int32]model.Bin, len(new.Bins))
	for _, b := range new.Bins {
		newBins[b.ID] = b
	}

	ids := make([]int32, 0, len(oldBins)+len(newBins))
	for _, b := range old.Bins {
		ids = append(ids, b.ID)
	}
	for _, b := range new.Bins {
		if _, seen := oldBins[b.ID]; !seen {
			ids = append(ids, b.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	changes := make([]model.BinChange, 0, len(ids))
	for _, id := range ids {
		ob, inOld := oldBins[id]
		nb, inNew := newBins[id]

		var amount decimal.Decimal
		var typ model.BinChangeType
		var price float64
		switch {
		case inOld && inNew:
			delta := nb.Liquidity.Sub(ob.Liquidity)
			if delta.IsZero() {
				continue
			}
			amount = delta.Abs()
			typ = model.BinChangeAdd
			if delta.IsNegative() {
				typ = model.BinChangeRemove
			}
			price = nb.Price
		case inNew:
			if nb.Liquidity.IsZero() {
				continue
			}
			amount = nb.Liquidity
			typ = model.BinChangeAdd
			price = nb.Price
		default:
			if ob.Liquidity.IsZero() {
				continue
			}
			amount = ob.Liquidity
			typ = model.BinChangeRemove
			price = ob.Price
		}

		bc := model.BinChange{
			BinID:      id,
			PriceRange: fmt.Sprintf("%.8g", price),
			Amount:     amount,
			Type:       typ,
		}
		// Bin percent shares the old-total denominator, and the same
		// zero-total guard.
		if !undefined {
			bc.Percent = amount.Div(old.TotalLiquidity).InexactFloat64()
		}
		changes = append(changes, bc)
	}

	// Stable sort keeps the ascending bin-ID order as the documented
	// tie-break for equal amounts.
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Amount.GreaterThan(changes[j].Amount)
	})

	if len(changes) > topCount {
		changes = changes[:topCount]
	}
	return changes
}

// Concentration returns the fraction of total liquidity held by the top 10
// bins. Defined as 0 for a pool with zero total liquidity.
func Concentration(snap *model.PoolSnapshot) float64 {
	return TopBinShare(snap, 10)
}

// TopBinShare returns the fraction of total liquidity held by the n most
// liquid bins.
func TopBinShare(snap *model.PoolSnapshot, n int) float64 {
	if snap.TotalLiquidity.IsZero() || len(snap.Bins) == 0 || n <= 0 {
		return 0
	}

	sorted := append([]model.Bin(nil), snap.Bins...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Liquidity.GreaterThan(sorted[j].Liquidity)
	})
	if n > len(sorted) {
		n = len(sorted)
	}

	top := decimal.Zero
	for _, b := range sorted[:n] {
		top = top.Add(b.Liquidity)
	}
	share := top.Div(snap.TotalLiquidity).InexactFloat64()
	// External totals may diverge from the bin sum; keep the result in [0,1].
	if share > 1 {
		share = 1
	}
	if share < 0 {
		share = 0
	}
	return share
}
