package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpatel/patminer/internal/store"
)

var (
	resultsRepository  string
	resultsPatternType string
	resultsLimit       int
	resultsStats       bool
	resultsDelete      string
)

var resultsCmd = &cobra.Command{
	Use:   "results [analysis-id]",
	Short: "Inspect stored analysis results",
	Long: `Results lists stored analyses newest first, fetches a single analysis
by id, prints storage statistics, or deletes an analysis.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().StringVar(&resultsRepository, "repository", "", "filter by repository")
	resultsCmd.Flags().StringVar(&resultsPatternType, "pattern-type", "", "filter by pattern type")
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 10, "maximum number of results")
	resultsCmd.Flags().BoolVar(&resultsStats, "stats", false, "print storage statistics")
	resultsCmd.Flags().StringVar(&resultsDelete, "delete", "", "delete the analysis with the given id")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st := store.Open(cfg.Store.Backend, cfg.Store.DSN, cfg.Store.Path, logger)
	defer st.Close()

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch {
	case resultsDelete != "":
		ok, err := st.Delete(ctx, resultsDelete)
		if err != nil {
			return fmt.Errorf("deleting analysis: %w", err)
		}
		if !ok {
			return fmt.Errorf("analysis not found: %s", resultsDelete)
		}
		fmt.Fprintf(os.Stderr, "Deleted analysis %s\n", resultsDelete)
		return nil

	case resultsStats:
		stats, err := st.Stats(ctx)
		if err != nil {
			return fmt.Errorf("reading statistics: %w", err)
		}
		return enc.Encode(stats)

	case len(args) == 1:
		rec, err := st.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("fetching analysis: %w", err)
		}
		if rec == nil {
			return fmt.Errorf("analysis not found: %s", args[0])
		}
		return enc.Encode(rec)

	default:
		records, err := st.List(ctx, store.ListFilter{
			Repository:  resultsRepository,
			PatternType: resultsPatternType,
			Limit:       resultsLimit,
		})
		if err != nil {
			return fmt.Errorf("listing analyses: %w", err)
		}
		return enc.Encode(records)
	}
}
