package skill

import (
	"context"
	"encoding/json"
)

// RecommendSkill returns static, context-driven pattern recommendations for
// a repository. No external calls are involved.
type RecommendSkill struct{}

// recommendation is one context-driven suggestion.
type recommendation struct {
	Pattern        string `json:"pattern"`
	Recommendation string `json:"recommendation"`
	Priority       string `json:"priority"`
}

// Describe implements Skill.
func (s *RecommendSkill) Describe() Descriptor {
	return Descriptor{
		ID:          "get_pattern_recommendations",
		Name:        "Get Pattern Recommendations",
		Description: "Recommend proven patterns for a repository based on its deployment target and frameworks",
		Tags:        []string{"recommendations", "patterns"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"repository": map[string]any{
					"type":        "string",
					"description": "Repository in owner/name format",
				},
				"context": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"deployment_target": map[string]any{"type": "string"},
						"frameworks": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
				},
			},
			"required": []string{"repository"},
		},
	}
}

type recommendInput struct {
	Repository string `json:"repository"`
	Context    struct {
		DeploymentTarget string   `json:"deployment_target"`
		Frameworks       []string `json:"frameworks"`
	} `json:"context"`
}

// Execute implements Skill.
func (s *RecommendSkill) Execute(_ context.Context, input json.RawMessage) Result {
	var in recommendInput
	if err := decodeInput(input, &in); err != nil {
		return Fail("%s", err)
	}
	if in.Repository == "" {
		return Fail("missing required field: repository")
	}

	recommendations := []recommendation{}

	if in.Context.DeploymentTarget == "cloud_run" {
		recommendations = append(recommendations, recommendation{
			Pattern:        "deployment",
			Recommendation: "Use standardized GCP Cloud Run deployment script",
			Priority:       "high",
		})
	}
	for _, fw := range in.Context.Frameworks {
		if fw == "fastapi" {
			recommendations = append(recommendations, recommendation{
				Pattern:        "api_client",
				Recommendation: "Implement retry logic with exponential backoff",
				Priority:       "medium",
			})
			break
		}
	}

	return OK(map[string]any{
		"repository":      in.Repository,
		"recommendations": recommendations,
		"count":           len(recommendations),
	})
}
