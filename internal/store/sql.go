package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// dialect captures the differences between the sqlite and postgres backends.
type dialect struct {
	name string
	// resultsType is the column type for the results blob.
	resultsType string
	// rebind converts ?-style placeholders to the driver's style.
	rebind func(query string) string
}

var (
	sqliteDialect = dialect{
		name:        "sqlite",
		resultsType: "TEXT",
		rebind:      func(q string) string { return q },
	}
	postgresDialect = dialect{
		name:        "postgres",
		resultsType: "JSONB",
		rebind:      rebindDollar,
	}
)

// rebindDollar converts ?-style placeholders to $1, $2, ... for pgx.
func rebindDollar(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore is the durable backend, shared by the sqlite and postgres
// drivers. Timestamps are stored as RFC 3339 UTC text in both dialects so
// lexicographic ordering matches chronological ordering.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) ensureSchema() error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS pattern_analyses (
			analysis_id TEXT PRIMARY KEY,
			repository TEXT NOT NULL,
			results %s NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`, s.dialect.resultsType),
		`CREATE INDEX IF NOT EXISTS idx_analyses_repository ON pattern_analyses(repository)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON pattern_analyses(created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Store implements Store.
func (s *SQLStore) Store(ctx context.Context, analysisID, repository string, results json.RawMessage) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := s.dialect.rebind(`
		INSERT INTO pattern_analyses (analysis_id, repository, results, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (analysis_id)
		DO UPDATE SET
			repository = excluded.repository,
			results = excluded.results,
			updated_at = excluded.updated_at`)

	_, err := s.db.ExecContext(ctx, query, analysisID, repository, string(results), now, now)
	if err != nil {
		return fmt.Errorf("upserting analysis: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, analysisID string) (*AnalysisRecord, error) {
	query := s.dialect.rebind(`
		SELECT analysis_id, repository, results, created_at, updated_at
		FROM pattern_analyses WHERE analysis_id = ?`)

	row := s.db.QueryRowContext(ctx, query, analysisID)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying analysis: %w", err)
	}
	return rec, nil
}

// List implements Store.
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]AnalysisRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT analysis_id, repository, results, created_at, updated_at
		FROM pattern_analyses`
	var args []any
	if filter.Repository != "" {
		query += ` WHERE repository = ?`
		args = append(args, filter.Repository)
	}
	query += ` ORDER BY created_at DESC`

	// The pattern-type filter inspects the results blob in Go, so the SQL
	// limit can only be pushed down when that filter is absent.
	if filter.PatternType == "" {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	var results []AnalysisRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		if filter.PatternType != "" && !hasPatternType(rec.Results, filter.PatternType) {
			continue
		}
		results = append(results, *rec)
		if len(results) >= limit {
			break
		}
	}
	return results, rows.Err()
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, analysisID string) (bool, error) {
	query := s.dialect.rebind(`DELETE FROM pattern_analyses WHERE analysis_id = ?`)
	res, err := s.db.ExecContext(ctx, query, analysisID)
	if err != nil {
		return false, fmt.Errorf("deleting analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

// Stats implements Store.
func (s *SQLStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Backend: s.dialect.name}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT repository) FROM pattern_analyses`,
	).Scan(&stats.TotalAnalyses, &stats.UniqueRepositories)
	if err != nil {
		return nil, fmt.Errorf("counting analyses: %w", err)
	}

	// Pattern types come from the results blobs; scanning them in Go keeps
	// the two SQL dialects identical.
	rows, err := s.db.QueryContext(ctx, `SELECT results FROM pattern_analyses`)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	types := make(map[string]bool)
	for rows.Next() {
		var results string
		if err := rows.Scan(&results); err != nil {
			return nil, fmt.Errorf("scanning results: %w", err)
		}
		for _, t := range patternTypes(json.RawMessage(results)) {
			types[t] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for t := range types {
		stats.PatternTypes = append(stats.PatternTypes, t)
	}
	sort.Strings(stats.PatternTypes)
	return stats, nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// scanRecord scans one analysis row using the given scan function.
func scanRecord(scan func(dest ...any) error) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	var results, createdAt, updatedAt string

	if err := scan(&rec.AnalysisID, &rec.Repository, &results, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	rec.Results = json.RawMessage(results)
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &rec, nil
}
