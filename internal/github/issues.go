package github

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"text/template"

	gogithub "github.com/google/go-github/v60/github"
)

// issueLabels is the fixed label set applied to extraction recommendation issues.
var issueLabels = []string{"code-reuse", "pattern-discovery", "enhancement"}

const issueBodyTemplate = `## Pattern Discovery

We've detected similar {{.PatternType}} patterns across **{{.RepoCount}} repositories** that could be extracted into a shared library.

### Similarity Score
**{{.SimilarityPct}}%** - {{.Confidence}} confidence for extraction

### Repositories with Similar Patterns
{{range .Repos}}- {{.}}
{{end}}
### Pattern Description
{{.Description}}

### Recommended Action
{{.Recommendation}}

### Reusable Components Identified
{{.Components}}

### Next Steps
1. Review the pattern across all affected repositories
2. Design shared library API
3. Extract and package common code
4. Update repositories to use shared library
5. Document usage and examples
`

type issueBodyData struct {
	PatternType    string
	RepoCount      int
	SimilarityPct  int
	Confidence     string
	Repos          []string
	Description    string
	Recommendation string
	Components     string
}

var issueBodyTmpl = template.Must(template.New("issue").Parse(issueBodyTemplate))

// IssueCreator posts extraction recommendation issues.
type IssueCreator struct {
	client *gogithub.Client
}

// NewIssueCreator creates an IssueCreator backed by the given client.
func NewIssueCreator(client *gogithub.Client) *IssueCreator {
	return &IssueCreator{client: client}
}

// CreateExtractionIssue creates a recommendation issue in the first
// repository named by the finding and returns the issue's HTML URL.
func (ic *IssueCreator) CreateExtractionIssue(ctx context.Context, f Finding) (string, error) {
	if len(f.Repos) == 0 {
		return "", fmt.Errorf("finding has no repositories")
	}

	owner, name, err := SplitRepo(f.Repos[0])
	if err != nil {
		return "", err
	}

	title := fmt.Sprintf("Code Reuse Opportunity: %s", titleCase(f.PatternType))
	body, err := renderIssueBody(f)
	if err != nil {
		return "", fmt.Errorf("rendering issue body: %w", err)
	}

	labels := append([]string(nil), issueLabels...)
	issue, _, err := ic.client.Issues.Create(ctx, owner, name, &gogithub.IssueRequest{
		Title:  &title,
		Body:   &body,
		Labels: &labels,
	})
	if err != nil {
		return "", fmt.Errorf("creating issue: %w", err)
	}

	return issue.GetHTMLURL(), nil
}

func renderIssueBody(f Finding) (string, error) {
	pct := int(math.Round(f.SimilarityScore * 100))
	confidence := "Medium"
	if pct >= 85 {
		confidence = "High"
	}

	data := issueBodyData{
		PatternType:    strings.ReplaceAll(f.PatternType, "_", " "),
		RepoCount:      len(f.Repos),
		SimilarityPct:  pct,
		Confidence:     confidence,
		Repos:          f.Repos,
		Description:    f.Description,
		Recommendation: f.Recommendation,
		Components:     f.Components,
	}

	var buf bytes.Buffer
	if err := issueBodyTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// titleCase converts "api_client" to "Api Client".
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
