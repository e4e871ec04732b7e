package recorder

import (
	"time"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

// Summary aggregates surveillance activity over one reporting period.
type Summary struct {
	From        time.Time
	To          time.Time
	PoolsActive int
	WhaleEvents int
	HighRisk    int
	MediumRisk  int
	LowRisk     int
	Analyses    int
	Errors      int
}

// Recorder persists surveillance history for offline analysis.
type Recorder interface {
	RecordWhaleEvent(evt *model.WhaleActivityEvent) error
	RecordAnalysis(evt *model.MarketAnalysisEvent) error
	RecordSummary(s *Summary) error
	Close() error
}
