package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/precedence"
	"github.com/sells-group/spac-sync/internal/syncer"
)

var syncTickers []string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync tracked fields from recent EDGAR filings",
	Long:  "Pulls recent filings for each ticker, extracts candidate field values, and commits the ones that win their precedence decision. Each applied update is recorded in the learning store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		tickers := syncTickers
		if len(tickers) == 0 {
			tickers, err = db.ListTickers(ctx)
			if err != nil {
				return eris.Wrap(err, "sync: list tickers")
			}
		}
		if len(tickers) == 0 {
			zap.L().Warn("sync: no tickers to process")
			return nil
		}

		engine := syncer.New(
			newEDGARClient(),
			db,
			precedence.NewManager(precedence.Config{OverrideRankGap: cfg.Precedence.RankGap}),
			newLearningStore(db),
			nil,
		)

		var failures int
		for _, ticker := range tickers {
			summary, err := engine.SyncTicker(ctx, ticker)
			if err != nil {
				failures++
				zap.L().Error("sync: ticker failed",
					zap.String("ticker", ticker),
					zap.Error(err),
				)
				continue
			}
			zap.L().Info("sync: ticker done",
				zap.String("ticker", ticker),
				zap.Int("fields_updated", len(summary.FieldsUpdated)),
			)
		}
		if failures > 0 {
			return eris.Errorf("sync: %d of %d tickers failed", failures, len(tickers))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringSliceVar(&syncTickers, "tickers", nil, "tickers to sync (default: all tracked)")
	rootCmd.AddCommand(syncCmd)
}
