package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

// SQLiteRecorder persists surveillance history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the watcher writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS whale_events (
			id                   TEXT PRIMARY KEY,
			timestamp            INTEGER NOT NULL,
			pool_address         TEXT NOT NULL,
			total_before         TEXT,
			total_after          TEXT,
			change_amount        TEXT,
			change_percent       REAL,
			undefined_change     INTEGER,
			top_bin_id           INTEGER,
			top_bin_amount       TEXT,
			top_bin_percent      REAL,
			top_bin_type         TEXT,
			concentration_before REAL,
			concentration_after  REAL,
			current_price        REAL,
			risk_level           TEXT,
			detection_method     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_whale_ts ON whale_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_whale_pool ON whale_events(pool_address)`,

		`CREATE TABLE IF NOT EXISTS market_analyses (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			pool_address    TEXT NOT NULL,
			trend_direction TEXT,
			trend_strength  REAL,
			rsi             REAL,
			macd_proxy      REAL,
			volatility_risk TEXT,
			concentration   REAL,
			conc_class      TEXT,
			gini            REAL,
			entropy         REAL,
			gap_risk        TEXT,
			stability       TEXT,
			volume_trend    TEXT,
			activity_level  TEXT,
			anomaly_count   INTEGER,
			arb_candidates  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_ts ON market_analyses(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_pool ON market_analyses(pool_address)`,

		`CREATE TABLE IF NOT EXISTS summaries (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			from_ts      INTEGER NOT NULL,
			to_ts        INTEGER NOT NULL,
			pools_active INTEGER,
			whale_events INTEGER,
			high_risk    INTEGER,
			medium_risk  INTEGER,
			low_risk     INTEGER,
			analyses     INTEGER,
			errors       INTEGER
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordWhaleEvent(evt *model.WhaleActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var topID int32
	var topAmount, topType string
	var topPercent float64
	if len(evt.Change.TopBinChanges) > 0 {
		top := evt.Change.TopBinChanges[0]
		topID = top.BinID
		topAmount = top.Amount.String()
		topPercent = top.Percent
		topType = string(top.Type)
	}

	undefined := 0
	if evt.Change.Undefined {
		undefined = 1
	}

	_, err := r.db.Exec(`INSERT INTO whale_events
		(id, timestamp, pool_address, total_before, total_after, change_amount,
		 change_percent, undefined_change,
		 top_bin_id, top_bin_amount, top_bin_percent, top_bin_type,
		 concentration_before, concentration_after, current_price,
		 risk_level, detection_method)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, evt.Timestamp.Unix(), evt.PoolAddress,
		evt.Change.TotalBefore.String(), evt.Change.TotalAfter.String(),
		evt.Change.ChangeAmount.String(), evt.Change.ChangePercent, undefined,
		topID, topAmount, topPercent, topType,
		evt.ConcentrationBefore, evt.ConcentrationAfter, evt.CurrentPrice,
		string(evt.RiskLevel), evt.DetectionMethod,
	)
	return err
}

func (r *SQLiteRecorder) RecordAnalysis(evt *model.MarketAnalysisEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var trendDir, volRisk string
	var strength, rsi, macd float64
	if evt.Trend != nil {
		trendDir = string(evt.Trend.Direction)
		strength = evt.Trend.Strength
		rsi = evt.Trend.RSI
		macd = evt.Trend.MACDProxy
		volRisk = string(evt.Trend.VolatilityRisk)
	}

	var conc, gini, entropy float64
	var concClass, gapRisk, stability string
	if evt.Distribution != nil {
		conc = evt.Distribution.TopShare
		concClass = string(evt.Distribution.Class)
		gini = evt.Distribution.Gini
		entropy = evt.Distribution.Entropy
		gapRisk = string(evt.Distribution.GapRisk)
		stability = string(evt.Distribution.Stability)
	}

	var volumeTrend, activity string
	anomalies := 0
	if evt.Volume != nil {
		volumeTrend = string(evt.Volume.Trend)
		activity = string(evt.Volume.ActivityLevel)
		anomalies = len(evt.Volume.Anomalies)
	}

	candidates := 0
	if evt.Correlation != nil {
		candidates = len(evt.Correlation.Candidates)
	}

	_, err := r.db.Exec(`INSERT INTO market_analyses
		(id, timestamp, pool_address,
		 trend_direction, trend_strength, rsi, macd_proxy, volatility_risk,
		 concentration, conc_class, gini, entropy, gap_risk, stability,
		 volume_trend, activity_level, anomaly_count, arb_candidates)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, evt.Timestamp.Unix(), evt.PoolAddress,
		trendDir, strength, rsi, macd, volRisk,
		conc, concClass, gini, entropy, gapRisk, stability,
		volumeTrend, activity, anomalies, candidates,
	)
	return err
}

func (r *SQLiteRecorder) RecordSummary(s *Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO summaries
		(from_ts, to_ts, pools_active, whale_events, high_risk, medium_risk, low_risk, analyses, errors)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		s.From.Unix(), s.To.Unix(), s.PoolsActive, s.WhaleEvents,
		s.HighRisk, s.MediumRisk, s.LowRisk, s.Analyses, s.Errors,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}
