package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeSearcher serves canned search results and file contents.
type fakeSearcher struct {
	// paths maps "repo|pattern" to matched file paths.
	paths map[string][]string
	// contents maps "repo|path" to file content.
	contents map[string]string
	// searchErr maps "repo|pattern" to a search failure.
	searchErr map[string]error
	// contentErr maps "repo|path" to a fetch failure.
	contentErr map[string]error
}

func (f *fakeSearcher) SearchCode(ctx context.Context, repo, pattern string, limit int) ([]string, error) {
	key := repo + "|" + pattern
	if err := f.searchErr[key]; err != nil {
		return nil, err
	}
	paths := f.paths[key]
	if len(paths) > limit {
		paths = paths[:limit]
	}
	return paths, nil
}

func (f *fakeSearcher) FileContent(ctx context.Context, repo, path string) (string, error) {
	key := repo + "|" + path
	if err := f.contentErr[key]; err != nil {
		return "", err
	}
	content, ok := f.contents[key]
	if !ok {
		return "", errors.New("not found")
	}
	return content, nil
}

func TestCollectorFetch(t *testing.T) {
	fs := &fakeSearcher{
		paths: map[string][]string{
			"acme/web|deploy*.sh": {"deploy.sh", "scripts/deploy-prod.sh"},
			"acme/api|deploy*.sh": {"deploy.sh"},
		},
		contents: map[string]string{
			"acme/web|deploy.sh":             "gcloud run deploy web",
			"acme/web|scripts/deploy-prod.sh": "gcloud run deploy web --prod",
			"acme/api|deploy.sh":             "gcloud run deploy api",
		},
	}

	c := NewCollector(fs, 0, nil)
	files := c.Fetch(context.Background(), []string{"acme/web", "acme/api"}, []string{"deploy*.sh"})

	if len(files) != 2 {
		t.Fatalf("expected 2 repos, got %d", len(files))
	}
	if len(files["acme/web"]) != 2 {
		t.Errorf("expected 2 files for acme/web, got %d", len(files["acme/web"]))
	}
	if got := files["acme/api"]["deploy.sh"]; got != "gcloud run deploy api" {
		t.Errorf("unexpected content for acme/api deploy.sh: %q", got)
	}
	if files.TotalFiles() != 3 {
		t.Errorf("expected 3 total files, got %d", files.TotalFiles())
	}
}

func TestCollectorOmitsEmptyRepos(t *testing.T) {
	fs := &fakeSearcher{
		paths: map[string][]string{
			"acme/web|Dockerfile": {"Dockerfile"},
		},
		contents: map[string]string{
			"acme/web|Dockerfile": "FROM golang:1.25",
		},
	}

	c := NewCollector(fs, 0, nil)
	files := c.Fetch(context.Background(), []string{"acme/web", "acme/empty"}, []string{"Dockerfile"})

	if _, ok := files["acme/empty"]; ok {
		t.Error("expected zero-match repository to be omitted")
	}
	if len(files) != 1 {
		t.Errorf("expected 1 repo, got %d", len(files))
	}
}

func TestCollectorToleratesPartialFailure(t *testing.T) {
	fs := &fakeSearcher{
		paths: map[string][]string{
			"acme/web|Dockerfile": {"Dockerfile", "bad/Dockerfile"},
			"acme/api|Dockerfile": {"Dockerfile"},
		},
		contents: map[string]string{
			"acme/web|Dockerfile": "FROM golang:1.25",
			"acme/api|Dockerfile": "FROM golang:1.25",
		},
		searchErr: map[string]error{
			"acme/web|*.tf": errors.New("rate limited"),
		},
		contentErr: map[string]error{
			"acme/web|bad/Dockerfile": errors.New("403"),
		},
	}

	c := NewCollector(fs, 0, nil)
	files := c.Fetch(context.Background(), []string{"acme/web", "acme/api"}, []string{"*.tf", "Dockerfile"})

	if len(files) != 2 {
		t.Fatalf("expected both repos despite failures, got %d", len(files))
	}
	if len(files["acme/web"]) != 1 {
		t.Errorf("expected failed file fetch to be skipped, got %d files", len(files["acme/web"]))
	}
}

func TestCollectorSkipsNonTextFiles(t *testing.T) {
	fs := &fakeSearcher{
		paths: map[string][]string{
			"acme/web|Dockerfile": {"Dockerfile", "blob.bin"},
		},
		contents: map[string]string{
			"acme/web|Dockerfile": "FROM golang:1.25",
			"acme/web|blob.bin":   string([]byte{0xff, 0xfe, 0xfd}),
		},
	}

	c := NewCollector(fs, 0, nil)
	files := c.Fetch(context.Background(), []string{"acme/web"}, []string{"Dockerfile"})

	if _, ok := files["acme/web"]["blob.bin"]; ok {
		t.Error("expected invalid UTF-8 file to be skipped")
	}
	if _, ok := files["acme/web"]["Dockerfile"]; !ok {
		t.Error("expected text file to be kept")
	}
}

func TestCollectorCapsFilesPerPattern(t *testing.T) {
	var paths []string
	contents := map[string]string{}
	for i := 0; i < 20; i++ {
		p := fmt.Sprintf("deploy-%02d.sh", i)
		paths = append(paths, p)
		contents["acme/web|"+p] = "echo deploy"
	}
	fs := &fakeSearcher{
		paths:    map[string][]string{"acme/web|deploy*.sh": paths},
		contents: contents,
	}

	c := NewCollector(fs, 5, nil)
	files := c.Fetch(context.Background(), []string{"acme/web"}, []string{"deploy*.sh"})

	if len(files["acme/web"]) != 5 {
		t.Errorf("expected file count capped at 5, got %d", len(files["acme/web"]))
	}
}

func TestSplitRepo(t *testing.T) {
	owner, name, err := SplitRepo("acme/web")
	if err != nil {
		t.Fatalf("SplitRepo failed: %v", err)
	}
	if owner != "acme" || name != "web" {
		t.Errorf("expected acme/web, got %s/%s", owner, name)
	}

	for _, bad := range []string{"", "acme", "/web", "acme/"} {
		if _, _, err := SplitRepo(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestRenderIssueBody(t *testing.T) {
	f := Finding{
		PatternType:     "api_client",
		Repos:           []string{"acme/web", "acme/api", "acme/cli"},
		SimilarityScore: 0.92,
		Description:     "Shared HTTP client with retry logic",
		Recommendation:  "Extract into a shared client package",
		Components:      "- Authentication\n- Retry",
	}

	body, err := renderIssueBody(f)
	if err != nil {
		t.Fatalf("renderIssueBody failed: %v", err)
	}

	for _, want := range []string{
		"**3 repositories**",
		"**92%** - High confidence",
		"- acme/cli",
		"Shared HTTP client with retry logic",
		"### Next Steps",
		"api client patterns",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("issue body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderIssueBodyMediumConfidence(t *testing.T) {
	f := Finding{
		PatternType:     "deployment",
		Repos:           []string{"a/x", "b/y"},
		SimilarityScore: 0.75,
		Description:     "d",
	}
	body, err := renderIssueBody(f)
	if err != nil {
		t.Fatalf("renderIssueBody failed: %v", err)
	}
	if !strings.Contains(body, "Medium confidence") {
		t.Errorf("expected medium confidence for 75%%:\n%s", body)
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"api_client": "Api Client",
		"deployment": "Deployment",
		"foo-bar":    "Foo Bar",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
