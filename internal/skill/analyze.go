package skill

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mpatel/patminer/internal/github"
	"github.com/mpatel/patminer/internal/miner"
	"github.com/mpatel/patminer/internal/notify"
	"github.com/mpatel/patminer/internal/store"
)

// MiningRequest describes one mining run. It is also the payload published
// on the broker for fire-and-forget runs.
type MiningRequest struct {
	Repos        []string
	PatternType  string
	CreateIssues bool
	AnalysisID   string
}

// AnalyzeSkill mines patterns across repositories, stores the analysis, and
// optionally opens extraction recommendation issues.
type AnalyzeSkill struct {
	Miners         miner.Deps
	Store          store.Store
	Issues         *github.IssueCreator
	Notifier       notify.Notifier
	IssueThreshold float64
	DefaultRepos   []string
	Logger         *slog.Logger
}

// miningResults is the results blob persisted per analysis.
type miningResults struct {
	Patterns     []github.Finding `json:"patterns"`
	Repositories []string         `json:"repositories"`
	PatternType  string           `json:"pattern_type,omitempty"`
	Timestamp    string           `json:"timestamp"`
}

func (s *AnalyzeSkill) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Describe implements Skill.
func (s *AnalyzeSkill) Describe() Descriptor {
	return Descriptor{
		ID:          "analyze_patterns",
		Name:        "Analyze Repository Patterns",
		Description: "Mine duplicated implementation patterns across GitHub repositories and recommend extraction opportunities",
		Tags:        []string{"analysis", "patterns", "deep-dive"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"repositories": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Repositories in owner/name format (defaults to configured repos)",
				},
				"pattern_type": map[string]any{
					"type":        "string",
					"description": "Pattern type to mine: deployment or api_client (all when omitted)",
				},
				"create_github_issue": map[string]any{
					"type":        "boolean",
					"description": "Create GitHub issues with findings (default: false)",
				},
			},
		},
		Examples: []map[string]any{
			{
				"input": map[string]any{
					"repositories": []string{"acme/web-scraper", "acme/log-attacker"},
					"pattern_type": "deployment",
				},
				"description": "Mine deployment patterns across two repositories",
			},
		},
	}
}

type analyzeInput struct {
	Repositories      []string `json:"repositories"`
	PatternType       string   `json:"pattern_type"`
	CreateGithubIssue bool     `json:"create_github_issue"`
}

// Execute implements Skill.
func (s *AnalyzeSkill) Execute(ctx context.Context, input json.RawMessage) Result {
	var in analyzeInput
	if err := decodeInput(input, &in); err != nil {
		return Fail("%s", err)
	}

	repos := in.Repositories
	if len(repos) == 0 {
		repos = s.DefaultRepos
	}
	if len(repos) == 0 {
		return Fail("missing required field: repositories (and no repositories configured)")
	}
	if in.PatternType != "" && len(miner.All(s.Miners, in.PatternType)) == 0 {
		return Fail("unknown pattern_type: %q", in.PatternType)
	}

	req := MiningRequest{
		Repos:        repos,
		PatternType:  in.PatternType,
		CreateIssues: in.CreateGithubIssue,
	}
	analysisID, findings := s.Mine(ctx, req)

	return OK(map[string]any{
		"analysis_id":   analysisID,
		"repositories":  repos,
		"patterns":      findingsOrEmpty(findings),
		"pattern_count": len(findings),
	})
}

// Mine runs the requested miners sequentially, persists the analysis, and
// processes high-similarity findings. Sub-component failures degrade to
// empty results or are logged; mining itself never fails.
func (s *AnalyzeSkill) Mine(ctx context.Context, req MiningRequest) (string, []github.Finding) {
	logger := s.logger()

	analysisID := req.AnalysisID
	if analysisID == "" {
		analysisID = uuid.NewString()
	}

	var findings []github.Finding
	for _, m := range miner.All(s.Miners, req.PatternType) {
		findings = append(findings, m.Mine(ctx, req.Repos)...)
	}
	logger.Info("pattern mining complete", "analysis_id", analysisID, "findings", len(findings))

	s.persist(ctx, analysisID, req, findings)
	s.processFindings(ctx, req, findings)

	return analysisID, findings
}

func (s *AnalyzeSkill) persist(ctx context.Context, analysisID string, req MiningRequest, findings []github.Finding) {
	results, err := json.Marshal(miningResults{
		Patterns:     findingsOrEmpty(findings),
		Repositories: req.Repos,
		PatternType:  req.PatternType,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger().Error("marshaling analysis results", "error", err)
		return
	}

	// Repository column records the first analyzed repo, matching the
	// list/filter contract.
	if err := s.Store.Store(ctx, analysisID, req.Repos[0], results); err != nil {
		s.logger().Error("storing analysis", "analysis_id", analysisID, "error", err)
	}
}

// processFindings opens extraction issues and publishes to the knowledge
// base for findings at or above the issue threshold. Both are best-effort.
func (s *AnalyzeSkill) processFindings(ctx context.Context, req MiningRequest, findings []github.Finding) {
	logger := s.logger()

	for _, f := range findings {
		if f.SimilarityScore < s.IssueThreshold {
			continue
		}
		logger.Info("high similarity pattern found",
			"pattern_type", f.PatternType,
			"score", f.SimilarityScore,
			"repos", len(f.Repos),
		)

		if req.CreateIssues && s.Issues != nil {
			url, err := s.Issues.CreateExtractionIssue(ctx, f)
			if err != nil {
				logger.Error("creating extraction issue", "pattern_type", f.PatternType, "error", err)
			} else {
				logger.Info("created extraction issue", "url", url)
			}
		}

		if s.Notifier != nil {
			if err := s.Notifier.Notify(ctx, f); err != nil {
				logger.Warn("knowledge-base notification failed", "pattern_type", f.PatternType, "error", err)
			}
		}
	}
}

// findingsOrEmpty keeps the JSON shape an array, never null.
func findingsOrEmpty(findings []github.Finding) []github.Finding {
	if findings == nil {
		return []github.Finding{}
	}
	return findings
}
