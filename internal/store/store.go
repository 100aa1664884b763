package store

import (
	"context"
	"time"

	"github.com/sells-group/spac-sync/internal/model"
)

// CaseFilter selects learning cases. PreferTicker does not restrict results;
// it sorts exact ticker matches first.
type CaseFilter struct {
	IssueTypes   []string
	Field        string
	PreferTicker string
	Since        time.Time
	Limit        int
}

// Store is the persistence interface shared by the precedence sync, the
// learning store, and the investigation agent.
type Store interface {
	// SPAC records
	GetRecord(ctx context.Context, ticker string) (*model.Record, error)
	UpsertRecord(ctx context.Context, rec *model.Record) error
	ListTickers(ctx context.Context) ([]string, error)

	// Learning cases (idempotent on issue_id)
	UpsertLearningCase(ctx context.Context, c model.LearningCase) error
	ListLearningCases(ctx context.Context, filter CaseFilter) ([]model.LearningCase, error)

	// Investigation reports (append-only)
	InsertReport(ctx context.Context, report model.InvestigationReport) error
	ListReports(ctx context.Context, ticker string, limit int) ([]model.InvestigationReport, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
