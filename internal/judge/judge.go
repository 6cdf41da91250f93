package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mpatel/patminer/internal/github"
	"github.com/mpatel/patminer/internal/provider"
)

const (
	// MinSimilarity is the threshold below which the reasoning service is
	// instructed not to report a pattern.
	MinSimilarity = 0.70

	// DefaultContentLimit bounds each file's content before prompt assembly.
	DefaultContentLimit = 3000

	// DefaultSnippetLimit bounds each file's snippet in the prompt body.
	DefaultSnippetLimit = 1000
)

// Judge formats collected files into a bounded prompt, invokes the reasoning
// service, and parses its response into validated findings. The service is
// treated as an untrusted, best-effort collaborator: any transport or parse
// failure degrades to an empty finding list, never a pipeline error.
type Judge struct {
	completer    provider.Completer
	timeout      time.Duration
	contentLimit int
	snippetLimit int
	logger       *slog.Logger
}

// Option configures a Judge.
type Option func(*Judge)

// WithTimeout sets the per-call timeout for the reasoning service.
func WithTimeout(d time.Duration) Option {
	return func(j *Judge) { j.timeout = d }
}

// WithContentLimits sets the per-file content and prompt snippet budgets.
func WithContentLimits(contentLimit, snippetLimit int) Option {
	return func(j *Judge) {
		j.contentLimit = contentLimit
		j.snippetLimit = snippetLimit
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Judge) { j.logger = logger }
}

// New creates a Judge with the given completer.
func New(completer provider.Completer, opts ...Option) *Judge {
	j := &Judge{
		completer:    completer,
		timeout:      60 * time.Second,
		contentLimit: DefaultContentLimit,
		snippetLimit: DefaultSnippetLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// rawResponse is the expected JSON structure from the reasoning service.
type rawResponse struct {
	PatternsFound []rawFinding `json:"patterns_found"`
}

type rawFinding struct {
	Repos             []string `json:"repos"`
	SimilarityScore   float64  `json:"similarity_score"`
	Description       string   `json:"description"`
	Recommendation    string   `json:"recommendation"`
	Components        string   `json:"components"`
	SharedLibraryName string   `json:"shared_library_name"`
}

// codeFenceRe matches markdown code fences around JSON.
var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\\s*```")

const retryPromptSuffix = `

IMPORTANT: You MUST respond with ONLY valid JSON. No markdown, no code fences, no extra text.
Example: {"patterns_found": [{"repos": ["a/x", "b/y"], "similarity_score": 0.8, "description": "...", "recommendation": "...", "components": "...", "shared_library_name": "..."}]}`

// Judge analyzes similarity across the collected files for one pattern type.
// Fewer than two repositories is a designed short-circuit: similarity is
// undefined for fewer than two participants, so the result is empty without
// any service call. Every returned finding is tagged with patternType.
func (j *Judge) Judge(ctx context.Context, files github.RepoFileSet, patternType string) []github.Finding {
	if len(files) < 2 {
		j.logger.Info("need at least 2 repos for comparison", "got", len(files), "pattern_type", patternType)
		return nil
	}

	prompt, err := BuildPrompt(files, patternType, j.contentLimit, j.snippetLimit)
	if err != nil {
		j.logger.Warn("building mining prompt failed", "pattern_type", patternType, "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	raw, err := j.completer.Complete(ctx, prompt)
	if err != nil {
		j.logger.Warn("reasoning service call failed", "pattern_type", patternType, "error", err)
		return nil
	}

	known := knownRepos(files)
	findings, err := parseFindings(raw, known, patternType)
	if err != nil {
		// Retry once with a stricter prompt before degrading to zero findings.
		raw, retryErr := j.completer.Complete(ctx, prompt+retryPromptSuffix)
		if retryErr != nil {
			j.logger.Warn("reasoning service retry failed", "pattern_type", patternType, "error", retryErr)
			return nil
		}
		findings, err = parseFindings(raw, known, patternType)
		if err != nil {
			j.logger.Warn("unparseable reasoning response, treating as zero findings", "pattern_type", patternType, "error", err)
			return nil
		}
	}

	j.logger.Info("reasoning service identified patterns", "pattern_type", patternType, "count", len(findings))
	return findings
}

func knownRepos(files github.RepoFileSet) map[string]bool {
	known := make(map[string]bool, len(files))
	for repo := range files {
		known[repo] = true
	}
	return known
}

// parseFindings parses the service's textual response, stripping code fences
// before structural parsing, and validates each finding: at least two
// participant repos, every repo present in the supplied file set (the service
// can hallucinate repositories it was never shown), and a score in [0, 1].
// Findings failing validation are dropped individually; a structurally
// unparseable response is an error so the caller can retry.
func parseFindings(raw string, known map[string]bool, patternType string) ([]github.Finding, error) {
	cleaned := strings.TrimSpace(raw)
	if matches := codeFenceRe.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = strings.TrimSpace(matches[1])
	}

	var resp rawResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("%w: %s", provider.ErrInvalidResponse, err)
	}

	var findings []github.Finding
	for _, rf := range resp.PatternsFound {
		if err := validateFinding(rf, known); err != nil {
			slog.Warn("dropping invalid finding", "pattern_type", patternType, "error", err)
			continue
		}
		findings = append(findings, github.Finding{
			PatternType:       patternType,
			Repos:             rf.Repos,
			SimilarityScore:   rf.SimilarityScore,
			Description:       rf.Description,
			Recommendation:    rf.Recommendation,
			Components:        rf.Components,
			SharedLibraryName: rf.SharedLibraryName,
		})
	}
	return findings, nil
}

func validateFinding(rf rawFinding, known map[string]bool) error {
	if len(rf.Repos) < 2 {
		return fmt.Errorf("finding names %d repos, need at least 2", len(rf.Repos))
	}
	for _, repo := range rf.Repos {
		if !known[repo] {
			return fmt.Errorf("finding names repo %q that was not analyzed", repo)
		}
	}
	if rf.SimilarityScore < 0 || rf.SimilarityScore > 1 {
		return fmt.Errorf("similarity score %f out of range [0, 1]", rf.SimilarityScore)
	}
	if rf.Description == "" {
		return fmt.Errorf("finding has no description")
	}
	return nil
}
