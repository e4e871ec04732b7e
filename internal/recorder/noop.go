package recorder

import "github.com/rextempo/LiqPro-AI-sub004/internal/model"

// NoopRecorder discards all records. Used when no database is configured.
type NoopRecorder struct{}

// NewNoopRecorder creates a recorder that does nothing.
func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordWhaleEvent(*model.WhaleActivityEvent) error { return nil }
func (n *NoopRecorder) RecordAnalysis(*model.MarketAnalysisEvent) error  { return nil }
func (n *NoopRecorder) RecordSummary(*Summary) error                     { return nil }
func (n *NoopRecorder) Close() error                                     { return nil }
