package github

import "sort"

// RepoFileSet maps a repository ("owner/name") to a mapping from file path
// to file content. A repository that contributed no files is absent from the
// map entirely; downstream code treats absence as "no data", not an error.
type RepoFileSet map[string]map[string]string

// Repos returns the repositories present in the set, sorted for stable
// iteration order.
func (s RepoFileSet) Repos() []string {
	repos := make([]string, 0, len(s))
	for repo := range s {
		repos = append(repos, repo)
	}
	sort.Strings(repos)
	return repos
}

// TotalFiles returns the number of files across all repositories.
func (s RepoFileSet) TotalFiles() int {
	n := 0
	for _, files := range s {
		n += len(files)
	}
	return n
}

// Finding is a single cross-repository similarity result. The judge supplies
// Repos, SimilarityScore, Description, and SharedLibraryName; Recommendation
// and Components are filled in by miner-specific enrichment.
type Finding struct {
	PatternType       string   `json:"pattern_type"`
	Repos             []string `json:"repos"`
	SimilarityScore   float64  `json:"similarity_score"`
	Description       string   `json:"description"`
	Recommendation    string   `json:"recommendation"`
	Components        string   `json:"components"`
	SharedLibraryName string   `json:"shared_library_name,omitempty"`
}
