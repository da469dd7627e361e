// Package sheetsync reconciles a sheet's columns with an inferred schema and
// replaces its rows with extracted records.
package sheetsync

import (
	"context"
	"log/slog"
	"strings"

	"gridsync/internal/apperr"
	"gridsync/pkg/models"
)

// BatchSize is the maximum number of rows sent in one append call.
const BatchSize = 100

// Store is the subset of the tabular store the synchronizers use.
type Store interface {
	GetSheet(ctx context.Context, sheetID string) (*models.Sheet, error)
	DeleteColumn(ctx context.Context, sheetID string, columnID int64) error
	AddColumns(ctx context.Context, sheetID string, specs []models.ColumnSpec) ([]models.Column, error)
	DeleteRows(ctx context.Context, sheetID string, rowIDs []int64) error
	AddRows(ctx context.Context, sheetID string, rows []models.RowSpec) ([]models.Row, error)
}

// Event is a progress notification emitted while a sync runs.
type Event struct {
	Type    string `json:"type"`
	SheetID string `json:"sheet_id"`
	Count   int    `json:"count,omitempty"`
	Batch   int    `json:"batch,omitempty"`
}

// Publisher receives progress events. A nil Publisher is allowed.
type Publisher interface {
	Publish(Event)
}

type Syncer struct {
	store  Store
	pub    Publisher
	logger *slog.Logger
}

func New(store Store, pub Publisher, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, pub: pub, logger: logger}
}

func (s *Syncer) publish(ev Event) {
	if s.pub != nil {
		s.pub.Publish(ev)
	}
}

func requireSheetID(sheetID string) error {
	if strings.TrimSpace(sheetID) == "" {
		return apperr.ErrInput("sheet_id is required")
	}
	return nil
}

// VerifySheet reports the sheet's name when the sheet can be loaded.
func (s *Syncer) VerifySheet(ctx context.Context, sheetID string) (string, error) {
	if err := requireSheetID(sheetID); err != nil {
		return "", err
	}
	sheet, err := s.store.GetSheet(ctx, sheetID)
	if err != nil {
		return "", err
	}
	return sheet.Name, nil
}
