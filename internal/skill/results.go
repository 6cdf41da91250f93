package skill

import (
	"context"
	"encoding/json"

	"github.com/mpatel/patminer/internal/store"
)

// ResultsSkill retrieves previously stored pattern analysis results.
type ResultsSkill struct {
	Store store.Store
}

// Describe implements Skill.
func (s *ResultsSkill) Describe() Descriptor {
	return Descriptor{
		ID:          "get_analysis_results",
		Name:        "Get Analysis Results",
		Description: "Retrieve previously stored pattern analysis results",
		Tags:        []string{"results", "history"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"analysis_id": map[string]any{
					"type":        "string",
					"description": "Fetch a single analysis by id",
				},
				"repository": map[string]any{
					"type":        "string",
					"description": "Filter by repository (optional)",
				},
				"pattern_type": map[string]any{
					"type":        "string",
					"description": "Filter by pattern type (optional)",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     10,
				},
			},
		},
	}
}

type resultsInput struct {
	AnalysisID  string `json:"analysis_id"`
	Repository  string `json:"repository"`
	PatternType string `json:"pattern_type"`
	Limit       int    `json:"limit"`
}

// Execute implements Skill.
func (s *ResultsSkill) Execute(ctx context.Context, input json.RawMessage) Result {
	var in resultsInput
	if err := decodeInput(input, &in); err != nil {
		return Fail("%s", err)
	}

	if in.AnalysisID != "" {
		rec, err := s.Store.Get(ctx, in.AnalysisID)
		if err != nil {
			return Fail("failed to retrieve analysis: %s", err)
		}
		if rec == nil {
			return Fail("analysis not found: %s", in.AnalysisID)
		}
		return OK(map[string]any{"result": rec})
	}

	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}

	records, err := s.Store.List(ctx, store.ListFilter{
		Repository:  in.Repository,
		PatternType: in.PatternType,
		Limit:       limit,
	})
	if err != nil {
		return Fail("failed to retrieve results: %s", err)
	}
	if records == nil {
		records = []store.AnalysisRecord{}
	}

	return OK(map[string]any{
		"results": records,
		"count":   len(records),
	})
}
