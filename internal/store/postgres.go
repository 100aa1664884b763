package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/spac-sync/internal/db"
	"github.com/sells-group/spac-sync/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS spacs (
	ticker     TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS learning_cases (
	issue_id       TEXT PRIMARY KEY,
	issue_type     TEXT NOT NULL,
	ticker         TEXT NOT NULL,
	field          TEXT NOT NULL DEFAULT '',
	original_data  JSONB,
	final_fix      JSONB,
	learning_notes TEXT,
	status         TEXT NOT NULL DEFAULT 'completed',
	completed_at   TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS investigation_reports (
	id         TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	status     TEXT NOT NULL,
	report     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_learning_cases_type_field ON learning_cases(issue_type, field);
CREATE INDEX IF NOT EXISTS idx_learning_cases_ticker ON learning_cases(ticker);
CREATE INDEX IF NOT EXISTS idx_learning_cases_created_at ON learning_cases(created_at);
CREATE INDEX IF NOT EXISTS idx_reports_ticker ON investigation_reports(ticker);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, ticker string) (*model.Record, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM spacs WHERE ticker = $1`, ticker,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", ticker)
	}

	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal record %s", ticker)
	}
	return &rec, nil
}

func (s *PostgresStore) UpsertRecord(ctx context.Context, rec *model.Record) error {
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal record %s", rec.Ticker)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO spacs (ticker, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (ticker) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		rec.Ticker, data, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert record %s", rec.Ticker)
}

func (s *PostgresStore) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT ticker FROM spacs ORDER BY ticker`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tickers")
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ticker")
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

func (s *PostgresStore) UpsertLearningCase(ctx context.Context, c model.LearningCase) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO learning_cases
			(issue_id, issue_type, ticker, field, original_data, final_fix, learning_notes, status, completed_at, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, '')::jsonb, NULLIF($6, '')::jsonb, $7, $8, $9, $10)
		 ON CONFLICT (issue_id) DO UPDATE SET
			final_fix = excluded.final_fix,
			learning_notes = excluded.learning_notes,
			status = excluded.status,
			completed_at = excluded.completed_at`,
		c.IssueID, c.IssueType, c.Ticker, c.Field, c.OriginalData, c.FinalFix,
		c.LearningNotes, c.Status, c.CompletedAt, c.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert learning case %s", c.IssueID)
}

func (s *PostgresStore) ListLearningCases(ctx context.Context, filter CaseFilter) ([]model.LearningCase, error) {
	query := `SELECT issue_id, issue_type, ticker, field, COALESCE(original_data::text, ''),
		COALESCE(final_fix::text, ''), COALESCE(learning_notes, ''), status, completed_at, created_at
		FROM learning_cases WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.IssueTypes) > 0 {
		ph := make([]string, len(filter.IssueTypes))
		for i, t := range filter.IssueTypes {
			ph[i] = arg(t)
		}
		query += fmt.Sprintf(` AND issue_type IN (%s)`, strings.Join(ph, ", "))
	}
	if filter.Field != "" {
		query += ` AND field = ` + arg(filter.Field)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ` + arg(filter.Since)
	}

	if filter.PreferTicker != "" {
		query += ` ORDER BY CASE WHEN ticker = ` + arg(filter.PreferTicker) + ` THEN 0 ELSE 1 END, created_at DESC`
	} else {
		query += ` ORDER BY created_at DESC`
	}
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list learning cases")
	}
	defer rows.Close()

	var cases []model.LearningCase
	for rows.Next() {
		var c model.LearningCase
		if err := rows.Scan(&c.IssueID, &c.IssueType, &c.Ticker, &c.Field,
			&c.OriginalData, &c.FinalFix, &c.LearningNotes, &c.Status, &c.CompletedAt, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan learning case")
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (s *PostgresStore) InsertReport(ctx context.Context, report model.InvestigationReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal report %s", report.ID)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO investigation_reports (id, ticker, status, report, created_at) VALUES ($1, $2, $3, $4, $5)`,
		report.ID, report.Ticker, report.Status, data, report.Timestamp,
	)
	return eris.Wrapf(err, "postgres: insert report %s", report.ID)
}

func (s *PostgresStore) ListReports(ctx context.Context, ticker string, limit int) ([]model.InvestigationReport, error) {
	query := `SELECT report FROM investigation_reports`
	var args []any
	if ticker != "" {
		query += ` WHERE ticker = $1`
		args = append(args, ticker)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var reports []model.InvestigationReport
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		var r model.InvestigationReport
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal report")
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
