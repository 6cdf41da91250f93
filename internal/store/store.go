// Package store persists pattern analysis records keyed by analysis id.
//
// A Manager fronts two backends: a durable one (postgres or sqlite) and an
// in-process fallback. Durable failures degrade the manager to the fallback
// backend; see Manager for the exact state machine.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// AnalysisRecord is one stored analysis. AnalysisID is unique within the
// store regardless of backend.
type AnalysisRecord struct {
	AnalysisID string          `json:"analysis_id"`
	Repository string          `json:"repository"`
	Results    json.RawMessage `json:"results"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ListFilter narrows a List call. Zero values mean "no filter".
// PatternType matches a record if any pattern in its results carries that
// pattern type.
type ListFilter struct {
	Repository  string
	PatternType string
	Limit       int
}

// DefaultListLimit applies when ListFilter.Limit is zero or negative.
const DefaultListLimit = 100

// Stats holds aggregate storage statistics.
type Stats struct {
	TotalAnalyses      int      `json:"total_analyses"`
	UniqueRepositories int      `json:"unique_repositories"`
	PatternTypes       []string `json:"pattern_types"`
	Backend            string   `json:"backend"`
}

// Store defines the storage operations for analysis records. It is satisfied
// by *MemoryStore and *SQLStore and can be replaced with a mock for testing.
type Store interface {
	// Store upserts a record by analysis id: repeated stores with the same
	// id overwrite Results and bump UpdatedAt, never duplicate rows.
	Store(ctx context.Context, analysisID, repository string, results json.RawMessage) error

	// Get returns the record for analysisID, or nil if absent.
	Get(ctx context.Context, analysisID string) (*AnalysisRecord, error)

	// List returns matching records, newest first by creation time.
	List(ctx context.Context, filter ListFilter) ([]AnalysisRecord, error)

	// Delete removes the record for analysisID, reporting whether a record
	// existed and was removed.
	Delete(ctx context.Context, analysisID string) (bool, error)

	// Stats returns aggregate statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases backend resources.
	Close() error
}

// Compile-time checks that both backends satisfy the Store interface.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)

// resultsPayload is the subset of the results blob the store inspects for
// pattern-type filtering and statistics.
type resultsPayload struct {
	Patterns []struct {
		PatternType string `json:"pattern_type"`
	} `json:"patterns"`
}

// patternTypes extracts the pattern-type names present in a results blob.
// A blob that does not match the expected shape yields nil, not an error:
// results are opaque to the store.
func patternTypes(results json.RawMessage) []string {
	var payload resultsPayload
	if err := json.Unmarshal(results, &payload); err != nil {
		return nil
	}
	var types []string
	for _, p := range payload.Patterns {
		if p.PatternType != "" {
			types = append(types, p.PatternType)
		}
	}
	return types
}

// hasPatternType reports whether any pattern in the results blob carries the
// given pattern type.
func hasPatternType(results json.RawMessage, patternType string) bool {
	for _, t := range patternTypes(results) {
		if t == patternType {
			return true
		}
	}
	return false
}
