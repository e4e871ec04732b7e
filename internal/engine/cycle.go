package engine

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rextempo/LiqPro-AI-sub004/internal/detector"
	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
	"github.com/rextempo/LiqPro-AI-sub004/internal/retry"
)

// Detection method tags carried on emitted events.
const (
	detectBaseline = "baseline"
	detectPoll     = "poll"
	detectPush     = "push"
)

// runCycle is one snapshot-fetch-and-diff cycle for a pool. At most one
// cycle runs per pool at a time; the caller has already marked the entry
// in-flight.
func (e *Engine) runCycle(address, method string) {
	defer e.clearInFlight(address)

	if method == detectBaseline {
		e.seedHistory(address)
	}

	var snap *model.PoolSnapshot
	err := retry.WithBackoff(e.ctx, retry.DefaultConfig(), e.logger, "fetch snapshot "+address, func() error {
		var ferr error
		snap, ferr = e.provider.FetchPoolSnapshot(e.ctx, address)
		return ferr
	})
	if err != nil {
		// Pool state stays unchanged and the pool stays watched.
		e.countError()
		e.registry.EmitError(address, err)
		e.logger.Error("snapshot fetch failed", zap.String("pool", address), zap.Error(err))
		return
	}

	// A fetch completing after removal must not resurrect state.
	if !e.Watched(address) {
		return
	}

	prev, applied := e.store.ApplySnapshot(snap)
	if !applied {
		e.logger.Debug("stale snapshot discarded", zap.String("pool", address))
		return
	}
	if !e.Watched(address) {
		e.store.Remove(address)
		return
	}

	e.store.AppendPrice(address, model.PricePoint{Timestamp: snap.CapturedAt, Price: snap.CurrentPrice})
	e.store.AppendLiquidity(address, model.LiquidityPoint{
		Timestamp: snap.CapturedAt,
		Total:     snap.TotalLiquidity.InexactFloat64(),
	})

	// First observation is a baseline, never an event.
	if prev == nil {
		e.logger.Info("baseline snapshot stored", zap.String("pool", address))
		return
	}

	e.detectWhale(prev, snap, method)
}

// seedHistory backfills the rolling price and volume series when a pool
// joins the watch-list. Failures are logged and skipped; the series fill
// up from polling either way.
func (e *Engine) seedHistory(address string) {
	prices, err := e.provider.FetchPriceHistory(e.ctx, address, e.opts.HistoryInterval, e.opts.HistoryLimit)
	if err != nil {
		e.logger.Warn("price history seed failed", zap.String("pool", address), zap.Error(err))
	} else {
		for _, pt := range prices {
			e.store.AppendPrice(address, pt)
		}
	}

	volumes, err := e.provider.FetchVolumeHistory(e.ctx, address, e.opts.HistoryInterval, e.opts.HistoryLimit)
	if err != nil {
		e.logger.Warn("volume history seed failed", zap.String("pool", address), zap.Error(err))
		return
	}
	for _, pt := range volumes {
		e.store.AppendVolume(address, pt)
	}
}

// detectWhale diffs two consecutive snapshots and emits an event when the
// change crosses the configured threshold.
func (e *Engine) detectWhale(prev, snap *model.PoolSnapshot, method string) {
	rec := detector.Diff(prev, snap, e.opts.TopBinChangeCount)

	if rec.Undefined {
		e.logger.Info("change percent undefined, old total is zero",
			zap.String("pool", snap.Address))
		return
	}
	if rec.ChangePercent < e.opts.WhaleChangeThreshold {
		return
	}

	evt := &model.WhaleActivityEvent{
		ID:                  uuid.NewString(),
		PoolAddress:         snap.Address,
		Timestamp:           snap.CapturedAt,
		Change:              *rec,
		ConcentrationBefore: detector.Concentration(prev),
		ConcentrationAfter:  detector.Concentration(snap),
		CurrentPrice:        snap.CurrentPrice,
		RiskLevel:           detector.ClassifyRisk(rec, e.opts.Risk),
		DetectionMethod:     method,
	}

	e.countWhale(evt.RiskLevel)
	e.logger.Info("whale activity detected",
		zap.String("pool", snap.Address),
		zap.Float64("change_percent", rec.ChangePercent),
		zap.String("risk", string(evt.RiskLevel)),
		zap.String("method", method))

	e.registry.EmitWhale(evt)
	if err := e.rec.RecordWhaleEvent(evt); err != nil {
		e.logger.Error("record whale event", zap.String("pool", snap.Address), zap.Error(err))
	}
}

func (e *Engine) countWhale(level model.RiskLevel) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.stats.whaleEvents++
	switch level {
	case model.RiskHigh:
		e.stats.highRisk++
	case model.RiskMedium:
		e.stats.mediumRisk++
	default:
		e.stats.lowRisk++
	}
}

func (e *Engine) countError() {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.stats.errors++
}

func (e *Engine) countAnalysis() {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.stats.analyses++
}
