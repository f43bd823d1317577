// Package ledger records every produced video in SQLite so the history
// command can answer what was made, for which sign, and whether it reached
// the platform.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on schema changes; mismatched databases must be
// deleted rather than migrated, the ledger is bookkeeping, not a source of
// truth for artifacts.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different build.
var ErrSchemaMismatch = errors.New("ledger schema version mismatch")

// Upload states a production moves through.
const (
	UploadPending   = "pending"
	UploadScheduled = "scheduled"
	UploadDone      = "done"
	UploadFailed    = "failed"
	UploadSkipped   = "skipped"
)

// Production is one finished video.
type Production struct {
	ID              int64
	RunID           string
	Sign            string
	Task            string
	Title           string
	OutputPath      string
	DurationSeconds float64
	UploadState     string
	VideoID         string
	PublishAt       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Store is the SQLite-backed ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to (or creates) the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ledger: ensure directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ledger: apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("ledger: check schema table: %w", err)
	}
	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("ledger: begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("ledger: create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("ledger: record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("ledger: read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Record inserts a new production and returns it with its assigned ID.
func (s *Store) Record(ctx context.Context, p Production) (*Production, error) {
	if p.UploadState == "" {
		p.UploadState = UploadPending
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO productions (
            run_id, sign, task, title, output_path, duration_seconds,
            upload_state, video_id, publish_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RunID, p.Sign, p.Task, p.Title, p.OutputPath, p.DurationSeconds,
		p.UploadState, nullable(p.VideoID), nullable(p.PublishAt), timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: insert production: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("ledger: last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// MarkUpload updates a production's upload outcome.
func (s *Store) MarkUpload(ctx context.Context, id int64, state, videoID, publishAt string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE productions SET upload_state = ?, video_id = ?, publish_at = ?, updated_at = ? WHERE id = ?`,
		state, nullable(videoID), nullable(publishAt), timestamp, id,
	)
	if err != nil {
		return fmt.Errorf("ledger: update upload state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("ledger: production %d not found", id)
	}
	return nil
}

// GetByID fetches one production.
func (s *Store) GetByID(ctx context.Context, id int64) (*Production, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM productions WHERE id = ?", id)
	return scanProduction(row)
}

// Recent returns up to limit productions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Production, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" FROM productions ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: query recent: %w", err)
	}
	defer rows.Close()

	var out []Production
	for rows.Next() {
		p, err := scanProduction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// BySign returns a sign's productions, newest first.
func (s *Store) BySign(ctx context.Context, sign string, limit int) ([]Production, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" FROM productions WHERE sign = ? ORDER BY created_at DESC, id DESC LIMIT ?", sign, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: query by sign: %w", err)
	}
	defer rows.Close()

	var out []Production
	for rows.Next() {
		p, err := scanProduction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

const selectColumns = `SELECT id, run_id, sign, task, title, output_path, duration_seconds,
    upload_state, video_id, publish_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduction(row scanner) (*Production, error) {
	var (
		p         Production
		videoID   sql.NullString
		publishAt sql.NullString
		created   string
		updated   string
	)
	err := row.Scan(&p.ID, &p.RunID, &p.Sign, &p.Task, &p.Title, &p.OutputPath,
		&p.DurationSeconds, &p.UploadState, &videoID, &publishAt, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger: production not found")
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: scan production: %w", err)
	}
	p.VideoID = videoID.String
	p.PublishAt = publishAt.String
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		p.UpdatedAt = t
	}
	return &p, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
