package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/spac-sync/internal/learning"
	"github.com/sells-group/spac-sync/internal/store"
	"github.com/sells-group/spac-sync/pkg/edgar"
)

// openStore opens the configured database backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newEDGARClient() *edgar.Client {
	return edgar.New(edgar.Options{
		UserAgent:      cfg.EDGAR.UserAgent,
		RequestsPerSec: cfg.EDGAR.RequestsPerSec,
		Timeout:        time.Duration(cfg.EDGAR.TimeoutSecs) * time.Second,
		MaxRetries:     cfg.EDGAR.MaxRetries,
	})
}

func newLearningStore(db store.Store) *learning.Store {
	return learning.New(db, learning.Config{
		LessonWindowDays:   cfg.Learning.LessonWindowDays,
		StrategyWindowDays: cfg.Learning.StrategyWindowDays,
	})
}
