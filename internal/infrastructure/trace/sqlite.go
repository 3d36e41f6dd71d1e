// Package trace records per-observation anomaly scores to SQLite for
// offline analysis. Engine state itself is never persisted.
package trace

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const scoreTraceSchema = `
CREATE TABLE IF NOT EXISTS score_trace (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    input                TEXT NOT NULL,
    score                REAL NOT NULL,
    accuracy             REAL NOT NULL,
    semantic_similarity  REAL,
    domain_count         INTEGER NOT NULL,
    transition_count     INTEGER NOT NULL,
    created_at           TEXT NOT NULL
);
`

const scoreTraceIndex = `
CREATE INDEX IF NOT EXISTS idx_score_trace_created
ON score_trace(created_at);
`

// Entry is one recorded observation.
type Entry struct {
	Input              string
	Score              float64
	Accuracy           float64
	SemanticSimilarity *float64
	DomainCount        int
	TransitionCount    int
	CreatedAt          time.Time
}

// Recorder appends score entries to a SQLite database.
type Recorder struct {
	db *sql.DB
}

// Open opens (or creates) the trace database at path and ensures the
// schema. Use ":memory:" for an ephemeral recorder.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}
	if _, err := db.Exec(scoreTraceSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create trace schema: %w", err)
	}
	if _, err := db.Exec(scoreTraceIndex); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create trace index: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Record appends a single entry.
func (r *Recorder) Record(entry Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var semantic interface{}
	if entry.SemanticSimilarity != nil {
		semantic = *entry.SemanticSimilarity
	}

	_, err := r.db.Exec(`
		INSERT INTO score_trace
		(input, score, accuracy, semantic_similarity, domain_count, transition_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Input,
		entry.Score,
		entry.Accuracy,
		semantic,
		entry.DomainCount,
		entry.TransitionCount,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *Recorder) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT input, score, accuracy, semantic_similarity, domain_count, transition_count, created_at
		FROM score_trace
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var semantic sql.NullFloat64
		var createdAt string
		if err := rows.Scan(&e.Input, &e.Score, &e.Accuracy, &semantic,
			&e.DomainCount, &e.TransitionCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan trace row: %w", err)
		}
		if semantic.Valid {
			v := semantic.Float64
			e.SemanticSimilarity = &v
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
