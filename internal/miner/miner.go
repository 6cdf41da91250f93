// Package miner composes the file collector and similarity judge into
// per-pattern-type mining runs, enriching each finding with a
// priority-tiered recommendation and a component checklist.
package miner

import (
	"context"
	"log/slog"

	"github.com/mpatel/patminer/internal/github"
	"github.com/mpatel/patminer/internal/judge"
)

const (
	// HighPriorityThreshold separates "extract into a shared library"
	// findings from "consider a shared base" findings.
	HighPriorityThreshold = 0.85

	// MediumPriorityThreshold is the extraction floor; findings below it
	// get an explicit below-threshold marker.
	MediumPriorityThreshold = 0.70
)

// Miner mines one pattern type across repositories.
type Miner interface {
	// PatternType returns the pattern-type name this miner specializes in.
	PatternType() string

	// FilePatterns returns the static filename globs this miner searches for.
	FilePatterns() []string

	// Mine fetches candidate files, judges their similarity, and returns
	// enriched findings. Mining is best-effort: sub-component failures
	// degrade to an empty result, never an error.
	Mine(ctx context.Context, repos []string) []github.Finding
}

// Deps holds the collaborators shared by all miners.
type Deps struct {
	Collector *github.Collector
	Judge     *judge.Judge
	Logger    *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// run drives the collector then the judge for one pattern type, applying the
// miner-specific enrichment to each finding. An empty file set short-circuits
// before any judge call.
func (d *Deps) run(ctx context.Context, repos []string, m Miner, enrich func(github.Finding) (recommendation, components string)) []github.Finding {
	logger := d.logger()
	logger.Info("mining patterns", "pattern_type", m.PatternType(), "repos", len(repos))

	files := d.Collector.Fetch(ctx, repos, m.FilePatterns())
	if len(files) == 0 {
		logger.Warn("no matching files found in any repository", "pattern_type", m.PatternType())
		return nil
	}

	findings := d.Judge.Judge(ctx, files, m.PatternType())
	for i, f := range findings {
		rec, components := enrich(f)
		findings[i].Recommendation = rec
		findings[i].Components = components
	}
	return findings
}

// All returns every miner specialization, or only the one matching
// patternType when it is non-empty. An unknown patternType yields nil.
func All(deps Deps, patternType string) []Miner {
	available := []Miner{
		NewDeploymentMiner(deps),
		NewAPIClientMiner(deps),
	}
	if patternType == "" {
		return available
	}
	for _, m := range available {
		if m.PatternType() == patternType {
			return []Miner{m}
		}
	}
	return nil
}

// PatternTypes lists the pattern-type names of all known miners.
func PatternTypes() []string {
	return []string{PatternTypeDeployment, PatternTypeAPIClient}
}
