package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpatel/patminer/internal/skill"
)

var (
	minePatternType  string
	mineCreateIssues bool
)

var mineCmd = &cobra.Command{
	Use:   "mine [owner/repo ...]",
	Short: "One-shot pattern mining across repositories",
	Long: `Mine fetches candidate files from the given repositories (or the
configured repos when none are given), judges cross-repository similarity,
stores the analysis, and prints the findings as JSON.`,
	RunE: runMine,
}

func init() {
	mineCmd.Flags().StringVar(&minePatternType, "pattern-type", "", "mine a single pattern type: deployment or api_client")
	mineCmd.Flags().BoolVar(&mineCreateIssues, "create-issues", false, "create extraction recommendation issues for high-similarity findings")
	rootCmd.AddCommand(mineCmd)
}

func runMine(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c, err := initComponents(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	defer c.Store.Close()

	repos := args
	if len(repos) == 0 {
		repos = cfg.Repos
	}
	if len(repos) == 0 {
		return fmt.Errorf("no repositories given and none configured")
	}

	analysisID, findings := c.Analyze.Mine(context.Background(), skill.MiningRequest{
		Repos:        repos,
		PatternType:  minePatternType,
		CreateIssues: mineCreateIssues,
	})

	fmt.Fprintf(os.Stderr, "Analysis %s: %d finding(s) across %d repositories\n",
		analysisID, len(findings), len(repos))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}
