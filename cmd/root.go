package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "spac-sync",
	Short: "SPAC filing sync and data-quality pipeline",
	Long:  "Tracks SPAC records against SEC EDGAR filings: precedence-aware field sync, anomaly investigation with automated fixes, and a cross-run learning store.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
