package emitter

import (
	"errors"
	"testing"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

func TestRegistry_DispatchOrder(t *testing.T) {
	r := NewRegistry()
	var order []int
	r.OnWhaleActivity(func(*model.WhaleActivityEvent) { order = append(order, 1) })
	r.OnWhaleActivity(func(*model.WhaleActivityEvent) { order = append(order, 2) })
	r.OnWhaleActivity(func(*model.WhaleActivityEvent) { order = append(order, 3) })

	r.EmitWhale(&model.WhaleActivityEvent{PoolAddress: "pool1"})

	if len(order) != 3 {
		t.Fatalf("expected 3 handler calls, got %d", len(order))
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("expected registration order, got %v", order)
		}
	}
}

func TestRegistry_AllCategoriesIndependent(t *testing.T) {
	r := NewRegistry()
	var whales, analyses, errs int
	r.OnWhaleActivity(func(*model.WhaleActivityEvent) { whales++ })
	r.OnMarketAnalysis(func(*model.MarketAnalysisEvent) { analyses++ })
	r.OnError(func(string, error) { errs++ })

	r.EmitWhale(&model.WhaleActivityEvent{})
	r.EmitAnalysis(&model.MarketAnalysisEvent{})
	r.EmitError("pool1", errors.New("fetch failed"))

	if whales != 1 || analyses != 1 || errs != 1 {
		t.Errorf("expected 1/1/1, got %d/%d/%d", whales, analyses, errs)
	}
}

func TestRegistry_EmitWithoutHandlers(t *testing.T) {
	r := NewRegistry()
	// Must not panic.
	r.EmitWhale(&model.WhaleActivityEvent{})
	r.EmitAnalysis(&model.MarketAnalysisEvent{})
	r.EmitError("pool1", errors.New("x"))
}

func TestRegistry_ErrorHandlerReceivesContext(t *testing.T) {
	r := NewRegistry()
	var gotAddr string
	var gotErr error
	r.OnError(func(address string, err error) {
		gotAddr = address
		gotErr = err
	})

	want := errors.New("provider timeout")
	r.EmitError("pool9", want)

	if gotAddr != "pool9" {
		t.Errorf("expected pool9, got %s", gotAddr)
	}
	if !errors.Is(gotErr, want) {
		t.Errorf("expected wrapped error to match")
	}
}
