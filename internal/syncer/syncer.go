// Package syncer pulls candidate field values out of recent EDGAR filings
// and commits them through the precedence manager. Extraction is pluggable;
// the built-in fallback is a small keyword matcher good enough for smoke
// runs and tests.
package syncer

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/learning"
	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/internal/numeric"
	"github.com/sells-group/spac-sync/internal/precedence"
	"github.com/sells-group/spac-sync/internal/store"
)

// Registry is the slice of the EDGAR client the syncer consumes.
type Registry interface {
	SearchFilings(ctx context.Context, cik, filingType string, count int) ([]model.Filing, error)
	FetchDocument(ctx context.Context, url string) (string, error)
}

// Extractor pulls one field's raw value out of a filing document. ok=false
// means the document has nothing usable for the field.
type Extractor func(ctx context.Context, field string, filing model.Filing, doc string) (value any, ok bool)

// Summary reports what one ticker's sync changed.
type Summary struct {
	Ticker        string            `json:"ticker"`
	FieldsUpdated []string          `json:"fields_updated"`
	Skipped       map[string]string `json:"skipped,omitempty"`
}

// Engine runs the extract-decide-apply loop for one ticker at a time.
type Engine struct {
	reg      Registry
	db       store.Store
	prec     *precedence.Manager
	lessons  *learning.Store
	extract  Extractor
	perField int
}

// New creates an Engine. A nil extractor selects the keyword fallback.
func New(reg Registry, db store.Store, prec *precedence.Manager, lessons *learning.Store, extract Extractor) *Engine {
	if extract == nil {
		extract = KeywordExtractor
	}
	return &Engine{
		reg:      reg,
		db:       db,
		prec:     prec,
		lessons:  lessons,
		extract:  extract,
		perField: 3,
	}
}

// SyncTicker refreshes every tracked field of one record from recent
// filings. Fields are visited in name order so runs are reproducible.
func (e *Engine) SyncTicker(ctx context.Context, ticker string) (*Summary, error) {
	rec, err := e.db.GetRecord(ctx, ticker)
	if err != nil {
		return nil, eris.Wrapf(err, "syncer: load record %s", ticker)
	}
	if rec == nil {
		return nil, eris.Errorf("syncer: unknown ticker %s", ticker)
	}

	fields := precedence.TrackedFields()
	sort.Strings(fields)

	summary := &Summary{Ticker: ticker, Skipped: make(map[string]string)}
	for _, field := range fields {
		if field == "status" {
			// Status transitions are investigation and deadline-scan
			// territory, not extraction territory.
			continue
		}
		updated, reason := e.syncField(ctx, rec, field)
		if updated {
			summary.FieldsUpdated = append(summary.FieldsUpdated, field)
		} else if reason != "" {
			summary.Skipped[field] = reason
		}
	}

	if len(summary.FieldsUpdated) > 0 {
		if err := e.db.UpsertRecord(ctx, rec); err != nil {
			return nil, eris.Wrapf(err, "syncer: persist record %s", ticker)
		}
	}
	zap.L().Info("syncer: ticker synced",
		zap.String("ticker", ticker),
		zap.Strings("updated", summary.FieldsUpdated),
	)
	return summary, nil
}

// syncField tries each strategy source in order and commits the first
// extracted value that wins its precedence decision.
func (e *Engine) syncField(ctx context.Context, rec *model.Record, field string) (bool, string) {
	spec, ok := precedence.SpecFor(field)
	if !ok {
		return false, "untracked field"
	}

	for _, formType := range e.sources(ctx, field, rec.Ticker) {
		filings, err := e.reg.SearchFilings(ctx, rec.CIK, formType, e.perField)
		if err != nil {
			zap.L().Warn("syncer: filing search failed",
				zap.String("ticker", rec.Ticker),
				zap.String("form", formType),
				zap.Error(err),
			)
			continue
		}
		for i := range filings {
			f := filings[i]
			doc, err := e.reg.FetchDocument(ctx, f.URL)
			if err != nil {
				zap.L().Warn("syncer: document fetch failed",
					zap.String("url", f.URL),
					zap.Error(err),
				)
				continue
			}

			value, found := e.extract(ctx, field, f, doc)
			if !found {
				continue
			}
			if spec.Kind == precedence.KindFloat {
				norm := numeric.Parse(value)
				if norm == nil {
					continue
				}
				value = *norm
			}

			p := precedence.Proposed{Value: value, Source: f.Type, FilingDate: &f.Date}
			d := e.prec.Decide(rec, field, p)
			if !d.ShouldUpdate {
				zap.L().Debug("syncer: precedence kept current value",
					zap.String("ticker", rec.Ticker),
					zap.String("field", field),
					zap.String("reason", d.Reason),
				)
				continue
			}
			if err := e.prec.Apply(rec, field, p, d); err != nil {
				zap.L().Warn("syncer: apply failed",
					zap.String("field", field),
					zap.Error(err),
				)
				continue
			}
			e.recordSuccess(ctx, rec.Ticker, field, value, f.Type)
			return true, ""
		}
	}
	return false, "no winning value extracted"
}

// sources returns the filing types to scan for a field, best first. The
// learning store biases the order; without history the static category
// defaults apply.
func (e *Engine) sources(ctx context.Context, field, ticker string) []string {
	if e.lessons == nil {
		return precedence.RulesFor(precedence.CategoryOf(field)).Order
	}
	strat, err := e.lessons.SearchStrategyFor(ctx, field, ticker)
	if err != nil || strat == nil {
		return precedence.RulesFor(precedence.CategoryOf(field)).Order
	}
	out := append([]string{strat.PrimarySource}, strat.FallbackSources...)
	return out
}

func (e *Engine) recordSuccess(ctx context.Context, ticker, field string, value any, filingType string) {
	if e.lessons == nil {
		return
	}
	if err := e.lessons.RecordSuccess(ctx, "syncer", field, stringify(value), ticker, filingType, ""); err != nil {
		zap.L().Warn("syncer: learning write failed",
			zap.String("field", field),
			zap.Error(err),
		)
	}
}
