package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/spac-sync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS spacs (
	ticker     TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS learning_cases (
	issue_id       TEXT PRIMARY KEY,
	issue_type     TEXT NOT NULL,
	ticker         TEXT NOT NULL,
	field          TEXT NOT NULL DEFAULT '',
	original_data  TEXT,
	final_fix      TEXT,
	learning_notes TEXT,
	status         TEXT NOT NULL DEFAULT 'completed',
	completed_at   DATETIME,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS investigation_reports (
	id         TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	status     TEXT NOT NULL,
	report     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_learning_cases_type_field ON learning_cases(issue_type, field);
CREATE INDEX IF NOT EXISTS idx_learning_cases_ticker ON learning_cases(ticker);
CREATE INDEX IF NOT EXISTS idx_learning_cases_created_at ON learning_cases(created_at);
CREATE INDEX IF NOT EXISTS idx_reports_ticker ON investigation_reports(ticker);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetRecord(ctx context.Context, ticker string) (*model.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM spacs WHERE ticker = ?`, ticker,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", ticker)
	}

	var rec model.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal record %s", ticker)
	}
	return &rec, nil
}

func (s *SQLiteStore) UpsertRecord(ctx context.Context, rec *model.Record) error {
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal record %s", rec.Ticker)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO spacs (ticker, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(ticker) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		rec.Ticker, string(data), rec.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert record %s", rec.Ticker)
}

func (s *SQLiteStore) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker FROM spacs ORDER BY ticker`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tickers")
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ticker")
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

func (s *SQLiteStore) UpsertLearningCase(ctx context.Context, c model.LearningCase) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO learning_cases
			(issue_id, issue_type, ticker, field, original_data, final_fix, learning_notes, status, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(issue_id) DO UPDATE SET
			final_fix = excluded.final_fix,
			learning_notes = excluded.learning_notes,
			status = excluded.status,
			completed_at = excluded.completed_at`,
		c.IssueID, c.IssueType, c.Ticker, c.Field, c.OriginalData, c.FinalFix,
		c.LearningNotes, c.Status, c.CompletedAt, c.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert learning case %s", c.IssueID)
}

func (s *SQLiteStore) ListLearningCases(ctx context.Context, filter CaseFilter) ([]model.LearningCase, error) {
	query := `SELECT issue_id, issue_type, ticker, field, original_data, final_fix,
		learning_notes, status, completed_at, created_at FROM learning_cases WHERE 1=1`
	var args []any

	if len(filter.IssueTypes) > 0 {
		query += fmt.Sprintf(` AND issue_type IN (%s)`, placeholders(len(filter.IssueTypes)))
		for _, t := range filter.IssueTypes {
			args = append(args, t)
		}
	}
	if filter.Field != "" {
		query += ` AND field = ?`
		args = append(args, filter.Field)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since)
	}

	if filter.PreferTicker != "" {
		query += ` ORDER BY CASE WHEN ticker = ? THEN 0 ELSE 1 END, created_at DESC`
		args = append(args, filter.PreferTicker)
	} else {
		query += ` ORDER BY created_at DESC`
	}
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list learning cases")
	}
	defer rows.Close()

	var cases []model.LearningCase
	for rows.Next() {
		var c model.LearningCase
		var originalData, finalFix, notes sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&c.IssueID, &c.IssueType, &c.Ticker, &c.Field,
			&originalData, &finalFix, &notes, &c.Status, &completedAt, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan learning case")
		}
		c.OriginalData = originalData.String
		c.FinalFix = finalFix.String
		c.LearningNotes = notes.String
		if completedAt.Valid {
			t := completedAt.Time
			c.CompletedAt = &t
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (s *SQLiteStore) InsertReport(ctx context.Context, report model.InvestigationReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal report %s", report.ID)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO investigation_reports (id, ticker, status, report, created_at) VALUES (?, ?, ?, ?, ?)`,
		report.ID, report.Ticker, report.Status, string(data), report.Timestamp,
	)
	return eris.Wrapf(err, "sqlite: insert report %s", report.ID)
}

func (s *SQLiteStore) ListReports(ctx context.Context, ticker string, limit int) ([]model.InvestigationReport, error) {
	query := `SELECT report FROM investigation_reports`
	var args []any
	if ticker != "" {
		query += ` WHERE ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var reports []model.InvestigationReport
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		var r model.InvestigationReport
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal report")
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
