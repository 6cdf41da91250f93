package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mpatel/patminer/internal/config"
	"github.com/mpatel/patminer/internal/github"
	"github.com/mpatel/patminer/internal/judge"
	"github.com/mpatel/patminer/internal/miner"
	"github.com/mpatel/patminer/internal/notify"
	"github.com/mpatel/patminer/internal/provider"
	"github.com/mpatel/patminer/internal/pubsub"
	"github.com/mpatel/patminer/internal/skill"
	"github.com/mpatel/patminer/internal/store"

	gogithub "github.com/google/go-github/v60/github"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "patminer",
	Short: "Discover duplicated implementation patterns across repositories",
	Long: `Patminer fetches candidate files from a set of GitHub repositories,
asks an LLM to judge cross-repository similarity, and turns qualifying
findings into extraction recommendations and optional tracking issues.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default %s)", defaultConfigPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".patminer/config.yaml"
	}
	return home + "/.patminer/config.yaml"
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
	}
	return config.Load(path)
}

// components holds initialized components for use by subcommands.
type components struct {
	Config   *config.Config
	Store    *store.Manager
	GHClient *gogithub.Client
	Registry *skill.Registry
	Analyze  *skill.AnalyzeSkill
	Broker   *pubsub.Broker[skill.MiningRequest]
	Logger   *slog.Logger
}

// initComponents creates all components from config.
func initComponents(cfg *config.Config, logger *slog.Logger) (*components, error) {
	c := &components{
		Config: cfg,
		Logger: logger,
	}

	c.Store = store.Open(cfg.Store.Backend, cfg.Store.DSN, cfg.Store.Path, logger)

	ghClient, err := newGitHubClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}
	c.GHClient = ghClient

	completer, err := provider.New(cfg.Provider.Type, cfg.Provider.APIKey, provider.Options{
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Provider.MaxTokens,
		Temperature: cfg.Provider.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("creating completer: %w", err)
	}

	timeout, err := cfg.Defaults.RequestTimeout()
	if err != nil {
		return nil, fmt.Errorf("parsing request timeout: %w", err)
	}

	collector := github.NewCollector(github.NewAPISearcher(ghClient), cfg.Defaults.MaxFilesPerPattern, logger)
	j := judge.New(completer,
		judge.WithTimeout(timeout),
		judge.WithContentLimits(cfg.Defaults.FileContentLimit, cfg.Defaults.PromptSnippetLimit),
		judge.WithLogger(logger),
	)
	minerDeps := miner.Deps{
		Collector: collector,
		Judge:     j,
		Logger:    logger,
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL)
	}

	c.Analyze = &skill.AnalyzeSkill{
		Miners:         minerDeps,
		Store:          c.Store,
		Issues:         github.NewIssueCreator(ghClient),
		Notifier:       notifier,
		IssueThreshold: cfg.Defaults.IssueThreshold,
		DefaultRepos:   cfg.Repos,
		Logger:         logger,
	}

	c.Registry = skill.NewRegistry()
	c.Registry.Register(c.Analyze)
	c.Registry.Register(&skill.CompareSkill{Judge: j})
	c.Registry.Register(&skill.RecommendSkill{})
	c.Registry.Register(&skill.ResultsSkill{Store: c.Store})

	c.Broker = pubsub.NewBroker[skill.MiningRequest]()

	return c, nil
}

func newGitHubClient(cfg *config.Config) (*gogithub.Client, error) {
	if cfg.GitHub.Auth == "app" {
		appID, err := strconv.ParseInt(cfg.GitHub.AppID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing app_id: %w", err)
		}
		installID, err := strconv.ParseInt(cfg.GitHub.InstallationID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing installation_id: %w", err)
		}
		return github.NewAppClient(appID, installID, []byte(cfg.GitHub.PrivateKey), cfg.GitHub.PrivateKeyPath)
	}
	return github.NewTokenClient(cfg.GitHub.Token)
}
