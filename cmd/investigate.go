package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/investigate"
	"github.com/sells-group/spac-sync/internal/monitoring"
	"github.com/sells-group/spac-sync/pkg/anthropic"
)

var (
	investigateTicker    string
	investigateIssueType string
	investigateTarget    string
	investigateAnnounced string
	investigateExtName   string
	investigateNoLLM     bool
)

var investigateCmd = &cobra.Command{
	Use:   "investigate",
	Short: "Investigate an anomaly on one tracked SPAC",
	Long:  "Runs the detect-hypothesize-verify-diagnose-fix pipeline for one ticker against a research claim, writes the investigation report, and records the outcome in the learning store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		rec, err := db.GetRecord(ctx, investigateTicker)
		if err != nil {
			return eris.Wrap(err, "investigate: load record")
		}
		if rec == nil {
			return eris.Errorf("investigate: unknown ticker %s", investigateTicker)
		}

		res := investigate.ResearchResult{
			Target:      investigateTarget,
			DealFound:   investigateTarget != "",
			CompanyName: investigateExtName,
		}
		if investigateAnnounced != "" {
			t, err := time.Parse("2006-01-02", investigateAnnounced)
			if err != nil {
				return eris.Wrap(err, "investigate: parse announced date")
			}
			res.AnnouncedDate = &t
			res.DealFound = true
		}

		var backend anthropic.Client
		if !investigateNoLLM && cfg.Anthropic.Key != "" {
			backend = anthropic.NewClient(cfg.Anthropic.Key)
		}

		agent := investigate.NewAgent(
			investigate.Config{TemporalGapYears: cfg.Investigate.TemporalGapYears},
			newEDGARClient(),
			investigate.NewGenerator(backend, cfg.Anthropic.Model),
			db,
			newLearningStore(db),
			monitoring.NewAlerter(cfg.Alert.WebhookURL),
		)

		ictx := investigate.Context{
			Ticker:      rec.Ticker,
			CIK:         rec.CIK,
			CompanyName: rec.Name,
			IPODate:     rec.IPODate,
			Record:      rec,
		}
		report, err := agent.Run(ctx, investigate.Issue{Type: investigateIssueType}, res, ictx)
		if err != nil {
			return eris.Wrap(err, "investigate")
		}
		if report == nil {
			zap.L().Info("investigate: no anomalies detected", zap.String("ticker", investigateTicker))
			return nil
		}

		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return eris.Wrap(err, "investigate: marshal report")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	investigateCmd.Flags().StringVar(&investigateTicker, "ticker", "", "ticker to investigate (required)")
	investigateCmd.Flags().StringVar(&investigateIssueType, "issue", "manual_review", "issue type that prompted the investigation")
	investigateCmd.Flags().StringVar(&investigateTarget, "target", "", "target name claimed by research")
	investigateCmd.Flags().StringVar(&investigateAnnounced, "announced", "", "announced date claimed by research (YYYY-MM-DD)")
	investigateCmd.Flags().StringVar(&investigateExtName, "external-name", "", "company name from the external source")
	investigateCmd.Flags().BoolVar(&investigateNoLLM, "no-llm", false, "skip the model and use rule-based hypotheses")
	_ = investigateCmd.MarkFlagRequired("ticker")
	rootCmd.AddCommand(investigateCmd)
}
