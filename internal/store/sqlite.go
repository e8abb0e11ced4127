package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/uialign/uialign/internal/models"
)

// SQLiteStore implements RunStore on a local SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id             TEXT PRIMARY KEY,
			image_path         TEXT NOT NULL,
			image_width        INTEGER NOT NULL,
			image_height       INTEGER NOT NULL,
			termination_reason TEXT NOT NULL,
			vision_calls       INTEGER NOT NULL,
			buttons_json       TEXT NOT NULL,
			centered_json      TEXT NOT NULL,
			started_at         TEXT NOT NULL,
			finished_at        TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
		`CREATE TABLE IF NOT EXISTS cycles (
			run_id              TEXT NOT NULL,
			cycle               INTEGER NOT NULL,
			response_type       TEXT NOT NULL,
			parsing_successful  INTEGER NOT NULL,
			confidence          INTEGER NOT NULL,
			overall_accuracy    INTEGER NOT NULL,
			corrections_applied INTEGER NOT NULL,
			attempts            INTEGER NOT NULL,
			termination_reason  TEXT NOT NULL,
			buttons_json        TEXT NOT NULL,
			PRIMARY KEY (run_id, cycle)
		);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// SaveRun writes the run and its cycles in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *models.RunResult) error {
	if run == nil || run.RunID == "" {
		return fmt.Errorf("save run: missing run id")
	}

	buttonsJSON, err := json.Marshal(run.Buttons)
	if err != nil {
		return fmt.Errorf("encode buttons: %w", err)
	}
	centeredJSON, err := json.Marshal(run.Centered)
	if err != nil {
		return fmt.Errorf("encode centered boxes: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
		 (run_id, image_path, image_width, image_height, termination_reason,
		  vision_calls, buttons_json, centered_json, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.ImagePath, run.ImageWidth, run.ImageHeight,
		run.TerminationReason, run.VisionCalls,
		string(buttonsJSON), string(centeredJSON),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cycles WHERE run_id = ?`, run.RunID); err != nil {
		return fmt.Errorf("clear cycles: %w", err)
	}

	for _, record := range run.History {
		snapshot, err := json.Marshal(record.Buttons)
		if err != nil {
			return fmt.Errorf("encode cycle %d snapshot: %w", record.Cycle, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cycles
			 (run_id, cycle, response_type, parsing_successful, confidence,
			  overall_accuracy, corrections_applied, attempts, termination_reason, buttons_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, record.Cycle, record.ResponseType, boolToInt(record.ParsingSuccessful),
			record.Confidence, record.OverallAccuracy, record.CorrectionsApplied,
			record.Attempts, record.TerminationReason, string(snapshot))
		if err != nil {
			return fmt.Errorf("insert cycle %d: %w", record.Cycle, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// GetRun loads one run with its full history.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.RunResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, image_path, image_width, image_height, termination_reason,
		        vision_calls, buttons_json, centered_json, started_at, finished_at
		 FROM runs WHERE run_id = ?`, id)

	var run models.RunResult
	var buttonsJSON, centeredJSON, startedAt, finishedAt string
	err := row.Scan(&run.RunID, &run.ImagePath, &run.ImageWidth, &run.ImageHeight,
		&run.TerminationReason, &run.VisionCalls, &buttonsJSON, &centeredJSON,
		&startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}

	if err := json.Unmarshal([]byte(buttonsJSON), &run.Buttons); err != nil {
		return nil, fmt.Errorf("decode buttons: %w", err)
	}
	if err := json.Unmarshal([]byte(centeredJSON), &run.Centered); err != nil {
		return nil, fmt.Errorf("decode centered boxes: %w", err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("decode started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return nil, fmt.Errorf("decode finished_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cycle, response_type, parsing_successful, confidence, overall_accuracy,
		        corrections_applied, attempts, termination_reason, buttons_json
		 FROM cycles WHERE run_id = ? ORDER BY cycle`, id)
	if err != nil {
		return nil, fmt.Errorf("load cycles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record models.CycleRecord
		var parsed int
		var snapshot string
		err := rows.Scan(&record.Cycle, &record.ResponseType, &parsed, &record.Confidence,
			&record.OverallAccuracy, &record.CorrectionsApplied, &record.Attempts,
			&record.TerminationReason, &snapshot)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		record.ParsingSuccessful = parsed != 0
		if err := json.Unmarshal([]byte(snapshot), &record.Buttons); err != nil {
			return nil, fmt.Errorf("decode cycle %d snapshot: %w", record.Cycle, err)
		}
		run.History = append(run.History, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}

	return &run, nil
}

// ListRuns returns summaries, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT r.run_id, r.image_path, r.termination_reason, r.vision_calls,
	                 r.buttons_json, r.started_at,
	                 (SELECT COUNT(*) FROM cycles c WHERE c.run_id = r.run_id)
	          FROM runs r ORDER BY r.started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var summary RunSummary
		var buttonsJSON, startedAt string
		err := rows.Scan(&summary.RunID, &summary.ImagePath, &summary.TerminationReason,
			&summary.VisionCalls, &buttonsJSON, &startedAt, &summary.Cycles)
		if err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		var buttons []models.Button
		if err := json.Unmarshal([]byte(buttonsJSON), &buttons); err != nil {
			return nil, fmt.Errorf("decode buttons for %s: %w", summary.RunID, err)
		}
		summary.Buttons = len(buttons)
		if summary.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("decode started_at for %s: %w", summary.RunID, err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// ExportJSONL streams every run, oldest first, as JSON lines.
func (s *SQLiteStore) ExportJSONL(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM runs ORDER BY started_at`)
	if err != nil {
		return 0, fmt.Errorf("list runs for export: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	written := 0
	for _, id := range ids {
		run, err := s.GetRun(ctx, id)
		if err != nil {
			return written, err
		}
		if err := enc.Encode(run); err != nil {
			return written, fmt.Errorf("write run %s: %w", id, err)
		}
		written++
	}
	return written, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
