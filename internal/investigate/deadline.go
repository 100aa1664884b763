package investigate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/learning"
	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/internal/monitoring"
	"github.com/sells-group/spac-sync/internal/store"
)

// Filing types scanned for deadline news, most likely first. Proxy
// statements announce extension votes, 8-Ks report the results, Form 25 and
// Form 15 mark delisting and deregistration after a liquidation.
var deadlineScanOrder = []string{
	model.FormDEF14A,
	model.Form8K,
	model.Form425,
	model.Form25NSE,
	model.Form15,
}

// DeadlineScanner handles the specialized case of a SPAC whose completion
// deadline has passed with no recorded outcome. It scans recent filings for
// evidence of an extension, a completed deal, or a liquidation.
type DeadlineScanner struct {
	reg     Registry
	db      store.Store
	lessons *learning.Store
	alerter *monitoring.Alerter
}

// NewDeadlineScanner creates a DeadlineScanner.
func NewDeadlineScanner(reg Registry, db store.Store, lessons *learning.Store, alerter *monitoring.Alerter) *DeadlineScanner {
	return &DeadlineScanner{reg: reg, db: db, lessons: lessons, alerter: alerter}
}

// Scan inspects filings since an adaptive cutoff for deadline news and
// updates the record for whichever outcome it finds. Every branch,
// including finding nothing, is written to the learning store.
func (s *DeadlineScanner) Scan(ctx context.Context, rec *model.Record) (*model.DeadlineResult, error) {
	cutoff := s.lookbackStart(rec)
	result := &model.DeadlineResult{Ticker: rec.Ticker, Outcome: model.DeadlineNothingFound}

	for _, formType := range deadlineScanOrder {
		filings, err := s.reg.SearchFilings(ctx, rec.CIK, formType, 10)
		if err != nil {
			zap.L().Warn("investigate: deadline filing search failed",
				zap.String("ticker", rec.Ticker),
				zap.String("form", formType),
				zap.Error(err),
			)
			continue
		}
		for i := range filings {
			f := filings[i]
			if f.Date.Before(cutoff) {
				continue
			}
			if s.classify(ctx, &f, result) {
				result.Filing = &f
				break
			}
		}
		if result.Outcome != model.DeadlineNothingFound {
			break
		}
	}

	if err := s.applyOutcome(ctx, rec, result); err != nil {
		return nil, err
	}
	s.record(ctx, rec.Ticker, result)
	if s.alerter != nil {
		s.alerter.DeadlineOutcome(ctx, result)
	}
	return result, nil
}

// lookbackStart picks how far back to scan. A long-overdue deadline means
// the news could have landed any time since the deadline itself; a fresh
// one only needs the recent window.
func (s *DeadlineScanner) lookbackStart(rec *model.Record) time.Time {
	now := time.Now().UTC()
	if rec.Deadline == nil {
		return now.AddDate(0, 0, -30)
	}
	if now.Sub(*rec.Deadline) > 90*24*time.Hour {
		return *rec.Deadline
	}
	return now.AddDate(0, 0, -60)
}

// classify inspects one filing's text for deadline news. Returns true when
// an outcome was identified and written into result.
func (s *DeadlineScanner) classify(ctx context.Context, f *model.Filing, result *model.DeadlineResult) bool {
	text := strings.ToLower(f.Summary)
	if f.URL != "" {
		doc, err := s.reg.FetchDocument(ctx, f.URL)
		if err != nil {
			zap.L().Warn("investigate: deadline document fetch failed",
				zap.String("url", f.URL),
				zap.Error(err),
			)
		} else {
			text += " " + strings.ToLower(doc)
		}
	}

	switch {
	case f.Type == model.Form25NSE || f.Type == model.Form15 ||
		strings.Contains(text, "liquidat") || strings.Contains(text, "dissolution") || strings.Contains(text, "redeem all"):
		result.Outcome = model.DeadlineTerminationFound
		result.Detail = fmt.Sprintf("%s filed %s indicates wind-down", f.Type, f.Date.Format("2006-01-02"))
		return true
	// Extension checks go before completion: extension proxies talk about
	// consummating a business combination by the new date.
	case strings.Contains(text, "extend") || strings.Contains(text, "extension"):
		result.Outcome = model.DeadlineExtensionFound
		result.NewDeadline = extractDeadline(text, f.Date)
		result.Detail = fmt.Sprintf("%s filed %s reports a deadline extension", f.Type, f.Date.Format("2006-01-02"))
		return true
	case strings.Contains(text, "business combination") && (strings.Contains(text, "closing") || strings.Contains(text, "completed") || strings.Contains(text, "consummat")):
		result.Outcome = model.DeadlineCompletionFound
		result.Detail = fmt.Sprintf("%s filed %s reports a completed combination", f.Type, f.Date.Format("2006-01-02"))
		return true
	}
	return false
}

var deadlineDateRE = regexp.MustCompile(`(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2}),\s+(\d{4})`)

// extractDeadline pulls the first long-form date after the filing date out
// of extension text. Nil when none is found; the record keeps its old
// deadline and a human follows up.
func extractDeadline(text string, after time.Time) *time.Time {
	for _, m := range deadlineDateRE.FindAllString(text, 8) {
		t, err := time.Parse("January 2, 2006", titleCaseMonth(m))
		if err != nil {
			continue
		}
		if t.After(after) {
			return &t
		}
	}
	return nil
}

func titleCaseMonth(s string) string {
	return strings.ToUpper(s[:1]) + s[1:]
}

// applyOutcome updates the record for a found outcome and persists it.
// none_found leaves the record untouched.
func (s *DeadlineScanner) applyOutcome(ctx context.Context, rec *model.Record, result *model.DeadlineResult) error {
	switch result.Outcome {
	case model.DeadlineExtensionFound:
		if result.NewDeadline != nil {
			rec.Deadline = result.NewDeadline
			rec.SetProvenance("deadline", result.Filing.Type, &result.Filing.Date)
		}
	case model.DeadlineCompletionFound:
		rec.Status = model.StatusCompleted
		rec.CompletedDate = &result.Filing.Date
		rec.SetProvenance("completed_date", result.Filing.Type, &result.Filing.Date)
	case model.DeadlineTerminationFound:
		rec.Status = model.StatusLiquidated
	default:
		return nil
	}
	if err := s.db.UpsertRecord(ctx, rec); err != nil {
		return eris.Wrap(err, "investigate: persist deadline outcome")
	}
	zap.L().Info("investigate: deadline outcome applied",
		zap.String("ticker", rec.Ticker),
		zap.String("outcome", string(result.Outcome)),
	)
	return nil
}

// record writes the scan outcome to the learning store, negative results
// included, so future scans know this window was already covered.
func (s *DeadlineScanner) record(ctx context.Context, ticker string, result *model.DeadlineResult) {
	if s.lessons == nil {
		return
	}
	notes := result.Detail
	if notes == "" {
		notes = "no deadline news found in scanned filings"
	}
	if err := s.lessons.RecordInvestigationOutcome(ctx, model.IssueDeadlinePassed, ticker, string(result.Outcome), notes); err != nil {
		zap.L().Warn("investigate: deadline learning write failed",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
	}
}
