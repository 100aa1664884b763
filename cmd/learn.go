package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	learnField  string
	learnTicker string
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Inspect mined lessons and search strategies",
	Long:  "Prints the lesson bundle and the derived search strategy for one tracked field, as the sync and investigation prompts would consume them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		lessons := newLearningStore(db)

		bundle, err := lessons.LessonsFor(ctx, learnField)
		if err != nil {
			return eris.Wrap(err, "learn: lessons")
		}
		strategy, err := lessons.SearchStrategyFor(ctx, learnField, learnTicker)
		if err != nil {
			return eris.Wrap(err, "learn: strategy")
		}

		out, err := json.MarshalIndent(map[string]any{
			"lessons":  bundle,
			"strategy": strategy,
		}, "", "  ")
		if err != nil {
			return eris.Wrap(err, "learn: marshal")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	learnCmd.Flags().StringVar(&learnField, "field", "", "tracked field name (required)")
	learnCmd.Flags().StringVar(&learnTicker, "ticker", "", "bias strategy toward this ticker's history")
	_ = learnCmd.MarkFlagRequired("field")
	rootCmd.AddCommand(learnCmd)
}
