package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	GitHub   GitHubConfig   `yaml:"github"`
	Provider ProviderConfig `yaml:"provider"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Notify   NotifyConfig   `yaml:"notify"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Repos    []string       `yaml:"repos"`
}

// GitHubConfig holds GitHub authentication settings.
// Auth is "token" (personal access token) or "app" (GitHub App installation).
type GitHubConfig struct {
	Auth           string `yaml:"auth"`
	Token          string `yaml:"token"`
	AppID          string `yaml:"app_id"`
	InstallationID string `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	PrivateKey     string `yaml:"private_key"`
}

// ProviderConfig holds settings for the reasoning-service provider.
type ProviderConfig struct {
	Type        string  `yaml:"type"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// StoreConfig holds storage settings. Backend is "postgres", "sqlite",
// or "memory". DSN applies to postgres, Path to sqlite.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
	Path    string `yaml:"path"`
}

// ServerConfig holds the A2A server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	AgentURL string `yaml:"agent_url"`
}

// NotifyConfig holds the knowledge-base webhook settings.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// DefaultsConfig holds default operational parameters.
type DefaultsConfig struct {
	RequestTimeoutRaw  string  `yaml:"request_timeout"`
	MaxFilesPerPattern int     `yaml:"max_files_per_pattern"`
	FileContentLimit   int     `yaml:"file_content_limit"`
	PromptSnippetLimit int     `yaml:"prompt_snippet_limit"`
	IssueThreshold     float64 `yaml:"issue_threshold"`
}

// RequestTimeout returns the parsed per-request timeout.
func (d DefaultsConfig) RequestTimeout() (time.Duration, error) {
	if d.RequestTimeoutRaw == "" {
		return 60 * time.Second, nil
	}
	return time.ParseDuration(d.RequestTimeoutRaw)
}

// envVarPattern matches ${VAR} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} placeholders with environment variable values.
// Returns an error if any referenced variable is not set.
func expandEnvVars(data []byte) ([]byte, error) {
	var missing []string

	result := envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		val, ok := os.LookupEnv(string(varName))
		if !ok {
			missing = append(missing, string(varName))
			return match
		}
		return []byte(val)
	})

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// Load reads and parses a config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses config from raw YAML bytes, expanding env vars and validating.
func Parse(data []byte) (*Config, error) {
	expanded, err := expandEnvVars(data)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.GitHub.Auth == "" {
		cfg.GitHub.Auth = "token"
	}
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = "anthropic"
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = 4000
	}
	if cfg.Provider.Temperature == 0 {
		cfg.Provider.Temperature = 0.3
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "~/.patminer/patminer.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AgentURL == "" {
		cfg.Server.AgentURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Defaults.RequestTimeoutRaw == "" {
		cfg.Defaults.RequestTimeoutRaw = "60s"
	}
	if cfg.Defaults.MaxFilesPerPattern == 0 {
		cfg.Defaults.MaxFilesPerPattern = 10
	}
	if cfg.Defaults.FileContentLimit == 0 {
		cfg.Defaults.FileContentLimit = 3000
	}
	if cfg.Defaults.PromptSnippetLimit == 0 {
		cfg.Defaults.PromptSnippetLimit = 1000
	}
	if cfg.Defaults.IssueThreshold == 0 {
		cfg.Defaults.IssueThreshold = 0.75
	}
}

func validate(cfg *Config) error {
	switch cfg.GitHub.Auth {
	case "token":
		if cfg.GitHub.Token == "" {
			return fmt.Errorf("github.token is required when github.auth is %q", cfg.GitHub.Auth)
		}
	case "app":
		if cfg.GitHub.AppID == "" || cfg.GitHub.InstallationID == "" {
			return fmt.Errorf("github.app_id and github.installation_id are required when github.auth is %q", cfg.GitHub.Auth)
		}
	default:
		return fmt.Errorf("github.auth must be \"token\" or \"app\", got %q", cfg.GitHub.Auth)
	}

	switch cfg.Provider.Type {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("provider.type must be \"anthropic\" or \"openai\", got %q", cfg.Provider.Type)
	}
	if cfg.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	if cfg.Provider.Temperature < 0 || cfg.Provider.Temperature > 1 {
		return fmt.Errorf("provider.temperature must be between 0 and 1, got %f", cfg.Provider.Temperature)
	}

	switch cfg.Store.Backend {
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when store.backend is \"postgres\"")
		}
	case "sqlite", "memory":
	default:
		return fmt.Errorf("store.backend must be \"postgres\", \"sqlite\", or \"memory\", got %q", cfg.Store.Backend)
	}

	if cfg.Defaults.IssueThreshold < 0 || cfg.Defaults.IssueThreshold > 1 {
		return fmt.Errorf("issue_threshold must be between 0 and 1, got %f", cfg.Defaults.IssueThreshold)
	}
	if _, err := cfg.Defaults.RequestTimeout(); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}

	for _, repo := range cfg.Repos {
		if !strings.Contains(repo, "/") {
			return fmt.Errorf("invalid repo %q: expected owner/name", repo)
		}
	}

	return nil
}
