package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	gogithub "github.com/google/go-github/v60/github"
)

// DefaultMaxFilesPerPattern caps matched files per (repository, pattern)
// pair to bound the size of the prompt built downstream.
const DefaultMaxFilesPerPattern = 10

// CodeSearcher abstracts the GitHub code search and content APIs.
// It is satisfied by *APISearcher and can be replaced with a fake for testing.
type CodeSearcher interface {
	// SearchCode returns file paths in repo whose basename matches pattern,
	// up to limit results.
	SearchCode(ctx context.Context, repo, pattern string, limit int) ([]string, error)

	// FileContent returns the decoded content of the file at path in repo.
	FileContent(ctx context.Context, repo, path string) (string, error)
}

// APISearcher implements CodeSearcher against the GitHub API.
type APISearcher struct {
	client *gogithub.Client
}

// NewAPISearcher creates an APISearcher backed by the given client.
func NewAPISearcher(client *gogithub.Client) *APISearcher {
	return &APISearcher{client: client}
}

// SearchCode issues a code-search query using the filename:<pattern>
// repo:<owner/name> query grammar.
func (s *APISearcher) SearchCode(ctx context.Context, repo, pattern string, limit int) ([]string, error) {
	query := fmt.Sprintf("filename:%s repo:%s", pattern, repo)
	result, _, err := s.client.Search.Code(ctx, query, &gogithub.SearchOptions{
		ListOptions: gogithub.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("searching code: %w", err)
	}

	paths := make([]string, 0, len(result.CodeResults))
	for _, r := range result.CodeResults {
		if len(paths) >= limit {
			break
		}
		if p := r.GetPath(); p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// FileContent fetches and decodes the file at path in repo.
func (s *APISearcher) FileContent(ctx context.Context, repo, path string) (string, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return "", err
	}

	fc, _, _, err := s.client.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		return "", fmt.Errorf("fetching contents: %w", err)
	}
	if fc == nil {
		return "", fmt.Errorf("path %s is not a file", path)
	}

	content, err := fc.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding contents: %w", err)
	}
	return content, nil
}

// SplitRepo splits an "owner/name" identifier into its parts.
func SplitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format: expected owner/name, got %q", repo)
	}
	return parts[0], parts[1], nil
}

// Collector fetches candidate files from repositories by filename pattern.
type Collector struct {
	searcher CodeSearcher
	maxFiles int
	logger   *slog.Logger
}

// NewCollector creates a Collector. If maxFilesPerPattern is zero or
// negative it defaults to DefaultMaxFilesPerPattern.
func NewCollector(searcher CodeSearcher, maxFilesPerPattern int, logger *slog.Logger) *Collector {
	if maxFilesPerPattern <= 0 {
		maxFilesPerPattern = DefaultMaxFilesPerPattern
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		searcher: searcher,
		maxFiles: maxFilesPerPattern,
		logger:   logger,
	}
}

// Fetch collects matching files from all repositories. A failed search for
// one pattern or one repository never aborts collection for the others;
// failures are logged and skipped. Repositories with no matched files are
// omitted from the result.
func (c *Collector) Fetch(ctx context.Context, repos, patterns []string) RepoFileSet {
	all := make(RepoFileSet)

	for _, repo := range repos {
		files := c.fetchRepo(ctx, repo, patterns)
		if len(files) > 0 {
			all[repo] = files
			c.logger.Info("fetched files", "repo", repo, "count", len(files))
		}
	}

	return all
}

func (c *Collector) fetchRepo(ctx context.Context, repo string, patterns []string) map[string]string {
	files := make(map[string]string)

	for _, pattern := range patterns {
		paths, err := c.searcher.SearchCode(ctx, repo, pattern, c.maxFiles)
		if err != nil {
			c.logger.Warn("code search failed", "repo", repo, "pattern", pattern, "error", err)
			continue
		}

		for _, path := range paths {
			content, err := c.searcher.FileContent(ctx, repo, path)
			if err != nil {
				c.logger.Warn("could not fetch file", "repo", repo, "path", path, "error", err)
				continue
			}
			// Skip files that are not valid text.
			if !utf8.ValidString(content) {
				c.logger.Warn("skipping non-text file", "repo", repo, "path", path)
				continue
			}
			files[path] = content
		}
	}

	return files
}
