package judge

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/mpatel/patminer/internal/github"
)

const miningPromptTemplate = `You are analyzing {{.PatternType}} patterns across multiple repositories to identify code reuse opportunities.

**Repositories and Files**:
{{range .Repos}}
**{{.Name}}**:
{{range .Files}}  File: {{.Path}}
  Content (truncated):
{{.Snippet}}

{{end}}{{end}}
**Your Task**:
Analyze these files to identify:
1. **Common patterns**: What functionality or approaches are duplicated?
2. **Similarity score**: How similar are these implementations (0.0-1.0)?
3. **Reusable components**: What specific code could be extracted?
4. **Extraction recommendation**: How should this be packaged/shared?

**Consider**:
- Are the implementations solving the same problem?
- Is the duplication significant enough to warrant extraction?
- What would a shared library API look like?
- What are the benefits of extraction vs. cost of maintaining shared code?

Respond with JSON in this format:
{
  "patterns_found": [
    {
      "repos": ["repo1", "repo2", "repo3"],
      "similarity_score": 0.0-1.0,
      "description": "Brief description of the common pattern",
      "recommendation": "Suggested extraction approach",
      "components": "List of reusable components identified",
      "shared_library_name": "suggested-package-name"
    }
  ]
}

Only include patterns with similarity >= {{.MinSimilarity}}.`

type promptFile struct {
	Path    string
	Snippet string
}

type promptRepo struct {
	Name  string
	Files []promptFile
}

type promptData struct {
	PatternType   string
	Repos         []promptRepo
	MinSimilarity string
}

var miningTmpl = template.Must(template.New("mining").Parse(miningPromptTemplate))

// BuildPrompt renders the similarity prompt for the given file set. Each
// file's content is truncated to contentLimit before inclusion, then further
// reduced to snippetLimit when formatting the prompt body, so request size
// stays bounded regardless of repository count.
func BuildPrompt(files github.RepoFileSet, patternType string, contentLimit, snippetLimit int) (string, error) {
	if patternType == "" {
		return "", fmt.Errorf("pattern type is required")
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no files to analyze")
	}

	data := promptData{
		PatternType:   patternType,
		MinSimilarity: fmt.Sprintf("%.2f", MinSimilarity),
	}

	for _, repo := range files.Repos() {
		pr := promptRepo{Name: repo}

		paths := make([]string, 0, len(files[repo]))
		for path := range files[repo] {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			content := truncate(files[repo][path], contentLimit)
			pr.Files = append(pr.Files, promptFile{
				Path:    path,
				Snippet: truncate(content, snippetLimit),
			})
		}
		data.Repos = append(data.Repos, pr)
	}

	var buf bytes.Buffer
	if err := miningTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering mining prompt: %w", err)
	}
	return buf.String(), nil
}

// truncate is lossy: content past limit is dropped, not summarized.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
