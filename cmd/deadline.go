package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/investigate"
	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/internal/monitoring"
)

var deadlineTickers []string

var deadlineCmd = &cobra.Command{
	Use:   "deadline",
	Short: "Scan overdue SPACs for deadline news",
	Long:  "For each ticker whose completion deadline has passed, scans recent filings for an extension, a completed combination, or a liquidation, and updates the record accordingly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		tickers := deadlineTickers
		if len(tickers) == 0 {
			tickers, err = db.ListTickers(ctx)
			if err != nil {
				return eris.Wrap(err, "deadline: list tickers")
			}
		}

		scanner := investigate.NewDeadlineScanner(
			newEDGARClient(),
			db,
			newLearningStore(db),
			monitoring.NewAlerter(cfg.Alert.WebhookURL),
		)

		var scanned, failures int
		for _, ticker := range tickers {
			rec, err := db.GetRecord(ctx, ticker)
			if err != nil {
				return eris.Wrapf(err, "deadline: load record %s", ticker)
			}
			if rec == nil || rec.Status != model.StatusSearching {
				continue
			}

			scanned++
			result, err := scanner.Scan(ctx, rec)
			if err != nil {
				failures++
				zap.L().Error("deadline: scan failed",
					zap.String("ticker", ticker),
					zap.Error(err),
				)
				continue
			}
			zap.L().Info("deadline: scan done",
				zap.String("ticker", ticker),
				zap.String("outcome", string(result.Outcome)),
			)
		}

		zap.L().Info("deadline: run complete",
			zap.Int("scanned", scanned),
			zap.Int("failures", failures),
		)
		if failures > 0 {
			return eris.Errorf("deadline: %d of %d scans failed", failures, scanned)
		}
		return nil
	},
}

func init() {
	deadlineCmd.Flags().StringSliceVar(&deadlineTickers, "tickers", nil, "tickers to scan (default: all searching)")
	rootCmd.AddCommand(deadlineCmd)
}
