package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rextempo/LiqPro-AI-sub004/internal/retry"
)

// WebhookSink POSTs event records as JSON to a configured endpoint.
type WebhookSink struct {
	URL    string
	Client *http.Client
	Logger *zap.Logger
	Retry  retry.Config
}

// NewWebhookSink creates a sink for the given webhook URL.
func NewWebhookSink(url string, logger *zap.Logger) *WebhookSink {
	return &WebhookSink{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
		Logger: logger,
		Retry:  retry.DefaultConfig(),
	}
}

// Send delivers one event record, retrying transient failures with backoff.
func (s *WebhookSink) Send(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(map[string]any{
		"kind":  kind,
		"event": payload,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}

	return retry.WithBackoff(ctx, s.Retry, s.Logger, "webhook "+kind, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("webhook status %d: %s", resp.StatusCode, string(respBody))
		}
		return nil
	})
}
