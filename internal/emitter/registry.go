// Package emitter delivers finished event records to registered handlers.
package emitter

import (
	"sync"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

// WhaleHandler receives whale activity events.
type WhaleHandler func(evt *model.WhaleActivityEvent)

// AnalysisHandler receives market analysis events.
type AnalysisHandler func(evt *model.MarketAnalysisEvent)

// ErrorHandler receives asynchronous per-pool failures.
type ErrorHandler func(address string, err error)

// Registry is an explicit subscription registry: an ordered list of
// handlers per event category with synchronous dispatch. Every handler
// registered at dispatch time sees the event; handlers must not block for
// long since they run on the emitting goroutine.
type Registry struct {
	mu       sync.RWMutex
	whale    []WhaleHandler
	analysis []AnalysisHandler
	errs     []ErrorHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnWhaleActivity appends a whale event handler.
func (r *Registry) OnWhaleActivity(h WhaleHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.whale = append(r.whale, h)
}

// OnMarketAnalysis appends a market analysis handler.
func (r *Registry) OnMarketAnalysis(h AnalysisHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analysis = append(r.analysis, h)
}

// OnError appends an asynchronous-failure handler.
func (r *Registry) OnError(h ErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, h)
}

// EmitWhale dispatches a whale event to all handlers in registration order.
func (r *Registry) EmitWhale(evt *model.WhaleActivityEvent) {
	r.mu.RLock()
	handlers := append([]WhaleHandler(nil), r.whale...)
	r.mu.RUnlock()
	for _, h := range handlers {
		h(evt)
	}
}

// EmitAnalysis dispatches a market analysis event in registration order.
func (r *Registry) EmitAnalysis(evt *model.MarketAnalysisEvent) {
	r.mu.RLock()
	handlers := append([]AnalysisHandler(nil), r.analysis...)
	r.mu.RUnlock()
	for _, h := range handlers {
		h(evt)
	}
}

// EmitError dispatches an asynchronous failure in registration order.
func (r *Registry) EmitError(address string, err error) {
	r.mu.RLock()
	handlers := append([]ErrorHandler(nil), r.errs...)
	r.mu.RUnlock()
	for _, h := range handlers {
		h(address, err)
	}
}
