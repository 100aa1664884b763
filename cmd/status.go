package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	statusTicker string
	statusLimit  int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List recent investigation reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		reports, err := db.ListReports(ctx, statusTicker, statusLimit)
		if err != nil {
			return eris.Wrap(err, "status: list reports")
		}
		if len(reports) == 0 {
			fmt.Println("no investigation reports")
			return nil
		}

		for _, r := range reports {
			line := fmt.Sprintf("%s  %-6s  %-22s  %s",
				r.Timestamp.Format("2006-01-02 15:04"), r.Ticker, r.Anomaly.Type, r.Status)
			if r.FixApplied != nil && r.FixApplied.Warning != "" {
				line += "  (warning: " + r.FixApplied.Warning + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusTicker, "ticker", "", "restrict to one ticker")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "maximum reports to list")
	rootCmd.AddCommand(statusCmd)
}
