package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"quiz-session-backend/internal/config"
	"quiz-session-backend/internal/model"
	"quiz-session-backend/utilities"
)

// TelemetryService forwards completed session snapshots to an external endpoint.
// It is best effort: nothing it does is reported back to the participant.
type TelemetryService struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	timeout  time.Duration
}

func NewTelemetryService(cfg config.TelemetryConfig, client *http.Client) *TelemetryService {
	if client == nil {
		client = &http.Client{}
	}
	return &TelemetryService{
		endpoint: cfg.Endpoint,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		timeout:  time.Duration(cfg.Timeout) * time.Second,
	}
}

// Enabled reports whether an endpoint is configured.
func (t *TelemetryService) Enabled() bool {
	return t.endpoint != ""
}

// Subscribe hooks the sender to session completion events.
func (t *TelemetryService) Subscribe(bus *utilities.EventBus) {
	if !t.Enabled() {
		utilities.Info("telemetry endpoint not configured, results are not forwarded")
		return
	}
	bus.Subscribe(utilities.EventSessionCompleted, func(data interface{}) {
		snapshot, ok := data.(model.ResultSnapshot)
		if !ok {
			utilities.Warn("telemetry received unexpected payload %T", data)
			return
		}
		t.forward(snapshot)
	})
}

func (t *TelemetryService) forward(snapshot model.ResultSnapshot) {
	if !t.limiter.Allow() {
		utilities.Warn("telemetry rate exceeded, dropping session %s", snapshot.SessionID)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if err := t.Send(ctx, snapshot); err != nil {
		utilities.Warn("telemetry for session %s not delivered: %v", snapshot.SessionID, err)
	}
}

// Send posts one snapshot as JSON. It does not retry.
func (t *TelemetryService) Send(ctx context.Context, snapshot model.ResultSnapshot) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return nil
}
