package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
type MockProvider struct {
	mu        sync.Mutex
	Snapshots map[string]*model.PoolSnapshot
	Prices    map[string][]model.PricePoint
	Volumes   map[string][]model.VolumePoint
	TokenMap  map[string][]string
	Err       error

	SnapshotCalls int
	handlers      map[string]PoolChangeHandler
}

// NewMockProvider creates an empty mock.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Snapshots: make(map[string]*model.PoolSnapshot),
		Prices:    make(map[string][]model.PricePoint),
		Volumes:   make(map[string][]model.VolumePoint),
		TokenMap:  make(map[string][]string),
		handlers:  make(map[string]PoolChangeHandler),
	}
}

func (m *MockProvider) Name() string { return "mock" }

// SetSnapshot installs the snapshot returned for a pool.
func (m *MockProvider) SetSnapshot(snap *model.PoolSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshots[snap.Address] = snap
}

func (m *MockProvider) FetchPoolSnapshot(_ context.Context, address string) (*model.PoolSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SnapshotCalls++
	if m.Err != nil {
		return nil, &Error{Op: "snapshot", Address: address, Err: m.Err}
	}
	snap, ok := m.Snapshots[address]
	if !ok {
		return nil, &Error{Op: "snapshot", Address: address, Err: fmt.Errorf("unknown pool")}
	}
	cp := *snap
	return &cp, nil
}

func (m *MockProvider) FetchPriceHistory(_ context.Context, address, _ string, limit int) ([]model.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, &Error{Op: "price-history", Address: address, Err: m.Err}
	}
	pts := m.Prices[address]
	if len(pts) > limit {
		pts = pts[len(pts)-limit:]
	}
	return append([]model.PricePoint(nil), pts...), nil
}

func (m *MockProvider) FetchVolumeHistory(_ context.Context, address, _ string, limit int) ([]model.VolumePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, &Error{Op: "volume-history", Address: address, Err: m.Err}
	}
	pts := m.Volumes[address]
	if len(pts) > limit {
		pts = pts[len(pts)-limit:]
	}
	return append([]model.VolumePoint(nil), pts...), nil
}

func (m *MockProvider) FetchTokenPools(_ context.Context, token string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.TokenMap[token]...), nil
}

type mockSubscription struct {
	release func()
}

func (s *mockSubscription) Close() error {
	s.release()
	return nil
}

// SubscribePoolChange registers the handler so tests can push notifications
// via NotifyChange.
func (m *MockProvider) SubscribePoolChange(_ context.Context, address string, handler PoolChangeHandler) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[address] = handler
	return &mockSubscription{release: func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, address)
	}}, nil
}

// NotifyChange simulates a push notification for a pool.
func (m *MockProvider) NotifyChange(address string) {
	m.mu.Lock()
	handler := m.handlers[address]
	m.mu.Unlock()
	if handler != nil {
		handler(address)
	}
}

// SnapshotCallCount reports how many snapshot fetches have been served.
func (m *MockProvider) SnapshotCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SnapshotCalls
}

// ActiveSubscriptions reports how many push subscriptions are open.
func (m *MockProvider) ActiveSubscriptions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}

// MakeSnapshot builds a snapshot with evenly spread liquidity, for tests.
func MakeSnapshot(address string, total int64, binCount int, basePrice float64, at time.Time) *model.PoolSnapshot {
	snap := &model.PoolSnapshot{
		Address:        address,
		TokenX:         "TOKEN_X",
		TokenY:         "TOKEN_Y",
		TotalLiquidity: decimal.NewFromInt(total),
		CurrentPrice:   basePrice,
		CapturedAt:     at,
	}
	if binCount <= 0 {
		return snap
	}
	per := total / int64(binCount)
	for i := 0; i < binCount; i++ {
		snap.Bins = append(snap.Bins, model.Bin{
			ID:        int32(i),
			Price:     basePrice * (1 + float64(i-binCount/2)*0.001),
			Liquidity: decimal.NewFromInt(per),
		})
	}
	return snap
}
