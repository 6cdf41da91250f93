package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-process backend. It serves as the fallback when the
// durable backend is unavailable and as the primary store when no durable
// backend is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]AnalysisRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]AnalysisRecord)}
}

// Store implements Store.
func (m *MemoryStore) Store(_ context.Context, analysisID, repository string, results json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	rec, ok := m.records[analysisID]
	if !ok {
		rec = AnalysisRecord{
			AnalysisID: analysisID,
			CreatedAt:  now,
		}
	}
	rec.Repository = repository
	rec.Results = append(json.RawMessage(nil), results...)
	rec.UpdatedAt = now

	m.records[analysisID] = rec
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, analysisID string) (*AnalysisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[analysisID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, filter ListFilter) ([]AnalysisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var results []AnalysisRecord
	for _, rec := range m.records {
		if filter.Repository != "" && rec.Repository != filter.Repository {
			continue
		}
		if filter.PatternType != "" && !hasPatternType(rec.Results, filter.PatternType) {
			continue
		}
		results = append(results, rec)
	}

	// Newest first by creation time.
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, analysisID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[analysisID]; !ok {
		return false, nil
	}
	delete(m.records, analysisID)
	return true, nil
}

// Stats implements Store.
func (m *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	repos := make(map[string]bool)
	types := make(map[string]bool)
	for _, rec := range m.records {
		repos[rec.Repository] = true
		for _, t := range patternTypes(rec.Results) {
			types[t] = true
		}
	}

	typeList := make([]string, 0, len(types))
	for t := range types {
		typeList = append(typeList, t)
	}
	sort.Strings(typeList)

	return &Stats{
		TotalAnalyses:      len(m.records),
		UniqueRepositories: len(repos),
		PatternTypes:       typeList,
		Backend:            "memory",
	}, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
