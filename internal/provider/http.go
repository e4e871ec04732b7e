package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
)

// HTTPProvider implements Provider against a DLMM-style REST API.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPProvider creates a provider for the given API base URL.
func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *HTTPProvider) Name() string { return "dlmm-http" }

// wire shapes returned by the pool API.
type poolResponse struct {
	Address        string        `json:"address"`
	TokenX         string        `json:"mint_x"`
	TokenY         string        `json:"mint_y"`
	TotalLiquidity string        `json:"liquidity"`
	CurrentPrice   float64       `json:"current_price"`
	Bins           []binResponse `json:"bins"`
}

type binResponse struct {
	BinID     int32   `json:"bin_id"`
	Price     float64 `json:"price"`
	Liquidity string  `json:"liquidity"`
}

type historyPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

func (p *HTTPProvider) FetchPoolSnapshot(ctx context.Context, address string) (*model.PoolSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/pools/%s", p.BaseURL, address)
	var pr poolResponse
	if err := p.getJSON(ctx, endpoint, &pr); err != nil {
		return nil, &Error{Op: "snapshot", Address: address, Err: err}
	}

	total, err := decimal.NewFromString(pr.TotalLiquidity)
	if err != nil {
		return nil, &Error{Op: "snapshot", Address: address, Err: fmt.Errorf("parse liquidity %q: %w", pr.TotalLiquidity, err)}
	}

	snap := &model.PoolSnapshot{
		Address:        address,
		TokenX:         pr.TokenX,
		TokenY:         pr.TokenY,
		TotalLiquidity: total,
		CurrentPrice:   pr.CurrentPrice,
		Bins:           make([]model.Bin, 0, len(pr.Bins)),
		CapturedAt:     time.Now(),
	}
	for _, b := range pr.Bins {
		liq, err := decimal.NewFromString(b.Liquidity)
		if err != nil {
			return nil, &Error{Op: "snapshot", Address: address, Err: fmt.Errorf("parse bin %d liquidity: %w", b.BinID, err)}
		}
		snap.Bins = append(snap.Bins, model.Bin{ID: b.BinID, Price: b.Price, Liquidity: liq})
	}
	// Bin order from the API is not guaranteed.
	sort.Slice(snap.Bins, func(i, j int) bool { return snap.Bins[i].ID < snap.Bins[j].ID })
	return snap, nil
}

func (p *HTTPProvider) FetchPriceHistory(ctx context.Context, address, interval string, limit int) ([]model.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/api/v1/pools/%s/price?interval=%s&limit=%d", p.BaseURL, address, interval, limit)
	pts, err := p.fetchHistory(ctx, endpoint)
	if err != nil {
		return nil, &Error{Op: "price-history", Address: address, Err: err}
	}
	out := make([]model.PricePoint, len(pts))
	for i, pt := range pts {
		out[i] = model.PricePoint{Timestamp: time.UnixMilli(pt.Timestamp), Price: pt.Value}
	}
	return out, nil
}

func (p *HTTPProvider) FetchVolumeHistory(ctx context.Context, address, interval string, limit int) ([]model.VolumePoint, error) {
	endpoint := fmt.Sprintf("%s/api/v1/pools/%s/volume?interval=%s&limit=%d", p.BaseURL, address, interval, limit)
	pts, err := p.fetchHistory(ctx, endpoint)
	if err != nil {
		return nil, &Error{Op: "volume-history", Address: address, Err: err}
	}
	out := make([]model.VolumePoint, len(pts))
	for i, pt := range pts {
		out[i] = model.VolumePoint{Timestamp: time.UnixMilli(pt.Timestamp), Volume: pt.Value}
	}
	return out, nil
}

// FetchTokenPools lists pools whose pair includes the given token mint.
func (p *HTTPProvider) FetchTokenPools(ctx context.Context, token string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/tokens/%s/pools", p.BaseURL, token)
	var addrs []string
	if err := p.getJSON(ctx, endpoint, &addrs); err != nil {
		return nil, &Error{Op: "token-pools", Err: err}
	}
	return addrs, nil
}

func (p *HTTPProvider) fetchHistory(ctx context.Context, endpoint string) ([]historyPoint, error) {
	var pts []historyPoint
	if err := p.getJSON(ctx, endpoint, &pts); err != nil {
		return nil, err
	}
	// Analyzers require ascending timestamps.
	sort.Slice(pts, func(i, j int) bool { return pts[i].Timestamp < pts[j].Timestamp })
	return pts, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
