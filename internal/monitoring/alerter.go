// Package monitoring sends fire-and-forget webhook alerts for completed
// investigations and deadline outcomes. Delivery failures are logged, never
// propagated: losing an alert must not lose a fix.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertInvestigationFixed   AlertType = "investigation_fixed"
	AlertInvestigationPartial AlertType = "investigation_partial_fix"
	AlertDeadlineOutcome      AlertType = "deadline_outcome"
)

// Alert is one webhook payload.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter posts alerts to a configured webhook.
type Alerter struct {
	webhookURL string
	client     *http.Client
}

// NewAlerter creates an Alerter. An empty webhook URL disables delivery.
func NewAlerter(webhookURL string) *Alerter {
	return &Alerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// InvestigationCompleted alerts on a finished investigation.
func (a *Alerter) InvestigationCompleted(ctx context.Context, report *model.InvestigationReport) {
	alertType := AlertInvestigationFixed
	if report.Status == model.ReportStatusPartialFix {
		alertType = AlertInvestigationPartial
	}
	a.send(ctx, Alert{
		Type:     alertType,
		Severity: string(report.Anomaly.Severity),
		Message: fmt.Sprintf("%s: %s confirmed (%d%% confidence), fix %s",
			report.Ticker, report.Diagnosis.RootCause, report.Diagnosis.Confidence, report.Status),
		Details: map[string]any{
			"report_id": report.ID,
			"anomaly":   report.Anomaly.Type,
		},
		Timestamp: time.Now().UTC(),
	})
}

// DeadlineOutcome alerts on a deadline-extension scan result other than
// none_found.
func (a *Alerter) DeadlineOutcome(ctx context.Context, result *model.DeadlineResult) {
	if result.Outcome == model.DeadlineNothingFound {
		return
	}
	a.send(ctx, Alert{
		Type:     AlertDeadlineOutcome,
		Severity: "HIGH",
		Message:  fmt.Sprintf("%s: deadline scan found %s", result.Ticker, result.Outcome),
		Details: map[string]any{
			"outcome": string(result.Outcome),
			"detail":  result.Detail,
		},
		Timestamp: time.Now().UTC(),
	})
}

func (a *Alerter) send(ctx context.Context, alert Alert) {
	if a.webhookURL == "" {
		return
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		zap.L().Warn("monitoring: marshal alert", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(payload))
	if err != nil {
		zap.L().Warn("monitoring: build alert request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		zap.L().Warn("monitoring: alert delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		zap.L().Warn("monitoring: alert rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("type", string(alert.Type)),
		)
		return
	}
	zap.L().Debug("monitoring: alert sent", zap.String("type", string(alert.Type)))
}
