// Package runs persists a record of every pipeline invocation.
package runs

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"gridsync/pkg/models"
)

var ErrNotFound = errors.New("run not found")

type Repo struct {
	DB  *sql.DB
	now func() time.Time
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// Digest identifies an uploaded image without storing it.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Start inserts a running record and returns it with its id and start time set.
func (r *Repo) Start(ctx context.Context, kind models.RunKind, sheetID, imageDigest string) (*models.Run, error) {
	run := &models.Run{
		ID:          uuid.NewString(),
		Kind:        kind,
		SheetID:     sheetID,
		Status:      models.RunRunning,
		ImageDigest: imageDigest,
		StartedAt:   r.now(),
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sync_runs (id, kind, sheet_id, status, image_digest, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Kind, run.SheetID, run.Status, run.ImageDigest, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish stores the outcome of run. A non-nil cause marks it failed.
func (r *Repo) Finish(ctx context.Context, run *models.Run, cause error) error {
	at := r.now()
	run.FinishedAt = &at
	run.Status = models.RunSucceeded
	if cause != nil {
		run.Status = models.RunFailed
		run.Error = cause.Error()
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE sync_runs
		SET status = ?, columns = ?, rows_written = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, run.Status, run.Columns, run.RowsWritten, run.Error, at, run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectRun = `
	SELECT id, kind, sheet_id, status, columns, rows_written, error, image_digest, started_at, finished_at
	FROM sync_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (models.Run, error) {
	var run models.Run
	var finished sql.NullTime
	err := s.Scan(&run.ID, &run.Kind, &run.SheetID, &run.Status, &run.Columns,
		&run.RowsWritten, &run.Error, &run.ImageDigest, &run.StartedAt, &finished)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, err
}

func (r *Repo) Get(ctx context.Context, id string) (*models.Run, error) {
	run, err := scanRun(r.DB.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// List returns runs newest first, optionally restricted to one sheet, and the
// total matching count.
func (r *Repo) List(ctx context.Context, sheetID string, limit, offset int) ([]models.Run, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where, args := "", []any{}
	if sheetID != "" {
		where = ` WHERE sheet_id = ?`
		args = append(args, sheetID)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_runs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, selectRun+where+` ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows runs: %w", err)
	}
	return out, total, nil
}
