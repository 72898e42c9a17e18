package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// sqlite driver registration
	_ "modernc.org/sqlite"

	"github.com/tangentlab/nabla/internal/domain/diff"
	"github.com/tangentlab/nabla/internal/domain/model"
	"github.com/tangentlab/nabla/pkg/metrics"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists results in a SQLite database so they survive
// restarts. Primal and Jacobian are stored as JSON text columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore ensures the parent directory exists, opens the database
// at path, and applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	s := &SQLiteStore{db: db}
	metrics.UpdateStoreResults(s.Count(context.Background()))
	return s, nil
}

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Put stores a result, replacing any previous result for the same task.
func (s *SQLiteStore) Put(ctx context.Context, r model.Result) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	primal, err := json.Marshal(r.Primal)
	if err != nil {
		return fmt.Errorf("encode primal: %w", err)
	}
	jacobian, err := json.Marshal(r.Jacobian)
	if err != nil {
		return fmt.Errorf("encode jacobian: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (task_id, mode, primal, jacobian, err, done_at, eval_micros)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			mode = excluded.mode,
			primal = excluded.primal,
			jacobian = excluded.jacobian,
			err = excluded.err,
			done_at = excluded.done_at,
			eval_micros = excluded.eval_micros`,
		r.TaskID, string(r.Mode), string(primal), string(jacobian),
		r.Err, r.Done.UnixNano(), r.EvalMicros,
	)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("insert result: %w", err)
	}

	metrics.UpdateStoreResults(s.Count(ctx))
	return nil
}

// Get returns the result for a task id.
func (s *SQLiteStore) Get(ctx context.Context, taskID string) (model.Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	row := s.db.QueryRowContext(ctx, `
		SELECT task_id, mode, primal, jacobian, err, done_at, eval_micros
		FROM results WHERE task_id = ?`, taskID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Result{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.Result{}, fmt.Errorf("read result: %w", err)
	}
	return r, nil
}

// Recent returns up to n results ordered by completion time desc.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]model.Result, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, mode, primal, jacobian, err, done_at, eval_micros
		FROM results ORDER BY done_at DESC LIMIT ?`, n)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

// Count returns the number of stored results.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (model.Result, error) {
	var (
		r         model.Result
		mode      string
		primal    string
		jacobian  string
		doneNanos int64
	)
	if err := row.Scan(&r.TaskID, &mode, &primal, &jacobian, &r.Err, &doneNanos, &r.EvalMicros); err != nil {
		return model.Result{}, err
	}
	r.Mode = diff.Mode(mode)
	r.Done = time.Unix(0, doneNanos)
	if primal != "" && primal != "null" {
		if err := json.Unmarshal([]byte(primal), &r.Primal); err != nil {
			return model.Result{}, fmt.Errorf("decode primal: %w", err)
		}
	}
	if jacobian != "" && jacobian != "null" {
		if err := json.Unmarshal([]byte(jacobian), &r.Jacobian); err != nil {
			return model.Result{}, fmt.Errorf("decode jacobian: %w", err)
		}
	}
	return r, nil
}
