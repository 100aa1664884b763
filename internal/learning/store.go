// Package learning persists extraction and investigation outcomes and mines
// them into lessons and search strategies that bias future runs.
package learning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/internal/store"
)

// Config holds the recency windows for lesson and strategy mining.
type Config struct {
	LessonWindowDays   int `yaml:"lesson_window_days" mapstructure:"lesson_window_days"`
	StrategyWindowDays int `yaml:"strategy_window_days" mapstructure:"strategy_window_days"`
}

// Store appends outcomes and answers aggregate queries. All writes are
// upserts keyed by a content-derived id, so retries are idempotent.
type Store struct {
	db  store.Store
	cfg Config
}

// New creates a learning store over the given persistence layer.
func New(db store.Store, cfg Config) *Store {
	if cfg.LessonWindowDays <= 0 {
		cfg.LessonWindowDays = 90
	}
	if cfg.StrategyWindowDays <= 0 {
		cfg.StrategyWindowDays = 180
	}
	return &Store{db: db, cfg: cfg}
}

// successDetail is the structured payload stored in original_data for
// extraction successes.
type successDetail struct {
	Agent      string `json:"agent"`
	Value      string `json:"value"`
	FilingType string `json:"filing_type"`
	Section    string `json:"section,omitempty"`
}

// caseID derives a deterministic id so the same logical event re-logged on a
// retry lands on the same row. Day-granular: one event per field/ticker/
// filing-type/day.
func caseID(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// RecordSuccess appends an extraction_success case.
func (s *Store) RecordSuccess(ctx context.Context, agentID, field, value, ticker, filingType, section string) error {
	now := time.Now().UTC()
	detail, err := json.Marshal(successDetail{
		Agent:      agentID,
		Value:      value,
		FilingType: filingType,
		Section:    section,
	})
	if err != nil {
		return eris.Wrap(err, "learning: marshal success detail")
	}

	notes := fmt.Sprintf("%s for %s found in %s", field, ticker, filingType)
	if section != "" {
		notes += fmt.Sprintf(" (%s)", section)
	}

	return s.upsert(ctx, model.LearningCase{
		IssueID:       caseID("success", field, ticker, filingType, now.Format("2006-01-02")),
		IssueType:     model.IssueExtractionSuccess,
		Ticker:        ticker,
		Field:         field,
		OriginalData:  string(detail),
		LearningNotes: notes,
		Status:        model.CaseStatusCompleted,
		CompletedAt:   &now,
	})
}

// RecordFormatPrevention appends a format_error case describing a formatting
// trap that was caught before persistence.
func (s *Store) RecordFormatPrevention(ctx context.Context, agentID, field, ticker, rawValue, warning string) error {
	now := time.Now().UTC()
	detail, err := json.Marshal(map[string]string{"agent": agentID, "raw_value": rawValue})
	if err != nil {
		return eris.Wrap(err, "learning: marshal format detail")
	}

	return s.upsert(ctx, model.LearningCase{
		IssueID:       caseID("format", field, ticker, rawValue, now.Format("2006-01-02")),
		IssueType:     model.IssueFormatError,
		Ticker:        ticker,
		Field:         field,
		OriginalData:  string(detail),
		LearningNotes: warning,
		Status:        model.CaseStatusCompleted,
		CompletedAt:   &now,
	})
}

// RecordInvestigationOutcome appends the result of an investigation or a
// deadline scan, including negative results.
func (s *Store) RecordInvestigationOutcome(ctx context.Context, issueType, ticker, outcome, notes string) error {
	now := time.Now().UTC()
	return s.upsert(ctx, model.LearningCase{
		IssueID:       caseID("investigation", issueType, ticker, outcome, now.Format("2006-01-02")),
		IssueType:     issueType,
		Ticker:        ticker,
		FinalFix:      outcome,
		LearningNotes: notes,
		Status:        model.CaseStatusCompleted,
		CompletedAt:   &now,
	})
}

func (s *Store) upsert(ctx context.Context, c model.LearningCase) error {
	if err := s.db.UpsertLearningCase(ctx, c); err != nil {
		return eris.Wrap(err, "learning: upsert case")
	}
	zap.L().Debug("learning: case recorded",
		zap.String("issue_id", c.IssueID),
		zap.String("issue_type", c.IssueType),
		zap.String("ticker", c.Ticker),
		zap.String("field", c.Field),
	)
	return nil
}

// PastCasesFor returns past cases of one issue type, exact ticker matches
// first, then newest first. Used to bias hypothesis generation.
func (s *Store) PastCasesFor(ctx context.Context, issueType, ticker string, limit int) ([]model.LearningCase, error) {
	if limit <= 0 {
		limit = 10
	}
	cases, err := s.db.ListLearningCases(ctx, store.CaseFilter{
		IssueTypes:   []string{issueType},
		PreferTicker: ticker,
		Limit:        limit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "learning: past cases")
	}
	return cases, nil
}
