package skill

import (
	"context"
	"encoding/json"

	"github.com/mpatel/patminer/internal/github"
	"github.com/mpatel/patminer/internal/judge"
)

// CompareSkill judges similarity across caller-supplied implementations
// without touching the GitHub API.
type CompareSkill struct {
	Judge *judge.Judge
}

// Describe implements Skill.
func (s *CompareSkill) Describe() Descriptor {
	return Descriptor{
		ID:          "compare_implementations",
		Name:        "Compare Pattern Implementations",
		Description: "Compare how multiple repositories implement the same pattern to identify duplication and extraction candidates",
		Tags:        []string{"comparison", "patterns", "best-practices"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"implementations": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"repository": map[string]any{"type": "string"},
							"path":       map[string]any{"type": "string"},
							"content":    map[string]any{"type": "string"},
						},
						"required": []string{"repository", "content"},
					},
					"description": "Implementations from at least two different repositories",
				},
				"pattern_type": map[string]any{
					"type":        "string",
					"description": "Pattern type being compared",
				},
			},
			"required": []string{"implementations", "pattern_type"},
		},
	}
}

type compareInput struct {
	Implementations []struct {
		Repository string `json:"repository"`
		Path       string `json:"path"`
		Content    string `json:"content"`
	} `json:"implementations"`
	PatternType string `json:"pattern_type"`
}

// Execute implements Skill.
func (s *CompareSkill) Execute(ctx context.Context, input json.RawMessage) Result {
	var in compareInput
	if err := decodeInput(input, &in); err != nil {
		return Fail("%s", err)
	}
	if in.PatternType == "" {
		return Fail("missing required field: pattern_type")
	}
	if len(in.Implementations) == 0 {
		return Fail("missing required field: implementations")
	}

	files := make(github.RepoFileSet)
	for i, impl := range in.Implementations {
		if impl.Repository == "" {
			return Fail("implementation %d is missing required field: repository", i)
		}
		path := impl.Path
		if path == "" {
			path = "implementation"
		}
		if files[impl.Repository] == nil {
			files[impl.Repository] = make(map[string]string)
		}
		files[impl.Repository][path] = impl.Content
	}

	if len(files) < 2 {
		return Fail("at least 2 distinct repositories are required for comparison, got %d", len(files))
	}

	findings := s.Judge.Judge(ctx, files, in.PatternType)

	return OK(map[string]any{
		"pattern_type":  in.PatternType,
		"patterns":      findingsOrEmpty(findings),
		"pattern_count": len(findings),
	})
}
