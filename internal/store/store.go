package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a sqlite-backed run archive.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the run database at dbPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	// WAL mode allows a reader while a run is being written.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers well.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id              TEXT PRIMARY KEY,
		subject             TEXT NOT NULL,
		status              TEXT NOT NULL,
		attempts_used       INTEGER NOT NULL,
		quality_score       REAL NOT NULL,
		reached_sufficiency INTEGER NOT NULL,
		output              TEXT NOT NULL DEFAULT '',
		reason              TEXT NOT NULL DEFAULT '',
		created_at          INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS artifacts (
		run_id   TEXT NOT NULL,
		attempt  INTEGER NOT NULL,
		payload  TEXT NOT NULL,
		degraded INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, attempt),
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save persists a run and its artifacts in one transaction.
func (s *Store) Save(ctx context.Context, run *RunRecord) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(run_id, subject, status, attempts_used, quality_score, reached_sufficiency, output, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Subject, run.Status, run.AttemptsUsed, run.QualityScore,
		boolToInt(run.ReachedSufficiency), run.Output, run.Reason, run.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear artifacts: %w", err)
	}
	for _, a := range run.Artifacts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO artifacts (run_id, attempt, payload, degraded)
			VALUES (?, ?, ?, ?)`,
			run.ID, a.Attempt, a.Payload, boolToInt(a.Degraded))
		if err != nil {
			return fmt.Errorf("failed to insert artifact %d: %w", a.Attempt, err)
		}
	}

	return tx.Commit()
}

// Get loads one run with its artifacts, attempt-ordered.
func (s *Store) Get(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, subject, status, attempts_used, quality_score, reached_sufficiency, output, reason, created_at
		FROM runs WHERE run_id = ?`, runID)

	var run RunRecord
	var sufficient int
	var createdAt int64
	err := row.Scan(&run.ID, &run.Subject, &run.Status, &run.AttemptsUsed,
		&run.QualityScore, &sufficient, &run.Output, &run.Reason, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	run.ReachedSufficiency = sufficient != 0
	run.CreatedAt = time.Unix(createdAt, 0)

	rows, err := s.db.QueryContext(ctx, `
		SELECT attempt, payload, degraded FROM artifacts
		WHERE run_id = ? ORDER BY attempt`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifacts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a ArtifactRecord
		var degraded int
		if err := rows.Scan(&a.Attempt, &a.Payload, &degraded); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.Degraded = degraded != 0
		run.Artifacts = append(run.Artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &run, nil
}

// List returns run metadata, newest first, up to limit entries.
func (s *Store) List(ctx context.Context, limit int) ([]RunMeta, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, subject, status, attempts_used, quality_score, reached_sufficiency, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var metas []RunMeta
	for rows.Next() {
		var m RunMeta
		var sufficient int
		var createdAt int64
		err := rows.Scan(&m.ID, &m.Subject, &m.Status, &m.AttemptsUsed,
			&m.QualityScore, &sufficient, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		m.ReachedSufficiency = sufficient != 0
		m.CreatedAt = time.Unix(createdAt, 0)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
