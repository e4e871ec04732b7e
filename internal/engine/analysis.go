package engine

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rextempo/LiqPro-AI-sub004/internal/analyzer"
	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
	"github.com/rextempo/LiqPro-AI-sub004/internal/recorder"
)

// maxPeerPools bounds how many token-sharing peers feed the correlation
// analysis per pool.
const maxPeerPools = 4

// runAnalysisSweep fans the market-structure analyses out over the worker
// pool, one task per watched pool. One pool's failure never aborts the
// others; each task aggregates its own partial results.
func (e *Engine) runAnalysisSweep() {
	pools := e.WatchedPools()
	if len(pools) == 0 {
		return
	}
	e.logger.Info("analysis sweep started", zap.Int("pools", len(pools)))

	group := e.workers.NewGroupContext(e.ctx)
	for _, address := range pools {
		addr := address
		group.Submit(func() {
			e.analyzePool(addr)
		})
	}
	if err := group.Wait(); err != nil {
		e.logger.Warn("analysis sweep interrupted", zap.Error(err))
	}
}

// analyzePool runs the four analyses for one pool over its stored series
// and freshly fetched histories. Sub-analyses degrade independently: a
// failed fetch leaves that part nil and surfaces via the error callback.
func (e *Engine) analyzePool(address string) {
	snap, ok := e.store.Snapshot(address)
	if !ok {
		// No baseline yet; the next sweep will see one.
		return
	}
	now := e.clock.Now()

	evt := &model.MarketAnalysisEvent{
		ID:          uuid.NewString(),
		PoolAddress: address,
		Timestamp:   now,
	}

	evt.Trend = analyzer.AnalyzeTrend(address, e.store.PriceSeries(address), now)
	evt.Distribution = analyzer.AnalyzeDistribution(snap, e.store.LiquiditySeries(address), now)
	evt.Volume = e.analyzeVolume(address, now)
	evt.Correlation = e.analyzeCorrelation(snap, now)

	if !e.Watched(address) {
		return
	}

	e.countAnalysis()
	e.registry.EmitAnalysis(evt)
	if err := e.rec.RecordAnalysis(evt); err != nil {
		e.logger.Error("record analysis", zap.String("pool", address), zap.Error(err))
	}
}

// analyzeVolume refreshes the rolling volume series from the provider and
// classifies it. On fetch failure the stored series still serves.
func (e *Engine) analyzeVolume(address string, now time.Time) *model.VolumeAnalysis {
	volumes, err := e.provider.FetchVolumeHistory(e.ctx, address, e.opts.HistoryInterval, e.opts.HistoryLimit)
	if err != nil {
		e.countError()
		e.registry.EmitError(address, err)
		e.logger.Warn("volume history fetch failed, using stored series",
			zap.String("pool", address), zap.Error(err))
		volumes = e.store.VolumeSeries(address)
	} else {
		for _, pt := range volumes {
			e.store.AppendVolume(address, pt)
		}
		volumes = e.store.VolumeSeries(address)
	}
	return analyzer.AnalyzeVolume(address, volumes, now)
}

// analyzeCorrelation fetches aligned price histories for the pool and its
// token-sharing peers. Peers that fail to resolve or fetch are skipped
// rather than failing the set.
func (e *Engine) analyzeCorrelation(snap *model.PoolSnapshot, now time.Time) *model.CorrelationAnalysis {
	if e.peers == nil {
		return nil
	}

	peers, err := e.peers.FetchTokenPools(e.ctx, snap.TokenX)
	if err != nil {
		e.countError()
		e.registry.EmitError(snap.Address, err)
		return nil
	}

	series := map[string][]model.PricePoint{
		snap.Address: e.store.PriceSeries(snap.Address),
	}
	for _, peer := range peers {
		if peer == snap.Address || len(series) > maxPeerPools {
			continue
		}
		history, err := e.provider.FetchPriceHistory(e.ctx, peer, e.opts.HistoryInterval, e.opts.HistoryLimit)
		if err != nil {
			e.logger.Warn("peer price history fetch failed, peer skipped",
				zap.String("pool", snap.Address), zap.String("peer", peer), zap.Error(err))
			continue
		}
		series[peer] = history
	}
	if len(series) < 2 {
		return nil
	}
	return analyzer.AnalyzeCorrelation(snap.Address, series, now)
}

// runSummary flushes the rolling counters into a recorded summary line.
func (e *Engine) runSummary() {
	now := e.clock.Now()

	e.statsMu.Lock()
	stats := e.stats
	e.stats = counters{since: now}
	e.statsMu.Unlock()

	s := &recorder.Summary{
		From:        stats.since,
		To:          now,
		PoolsActive: len(e.WatchedPools()),
		WhaleEvents: stats.whaleEvents,
		HighRisk:    stats.highRisk,
		MediumRisk:  stats.mediumRisk,
		LowRisk:     stats.lowRisk,
		Analyses:    stats.analyses,
		Errors:      stats.errors,
	}

	e.logger.Info("surveillance summary",
		zap.Int("pools", s.PoolsActive),
		zap.Int("whale_events", s.WhaleEvents),
		zap.Int("high_risk", s.HighRisk),
		zap.Int("analyses", s.Analyses),
		zap.Int("errors", s.Errors))

	if err := e.rec.RecordSummary(s); err != nil {
		e.logger.Error("record summary", zap.Error(err))
	}
}
