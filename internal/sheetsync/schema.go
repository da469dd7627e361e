package sheetsync

import (
	"context"

	"gridsync/internal/apperr"
	"gridsync/pkg/models"
)

// insertIndex places new columns directly after the primary column.
const insertIndex = 1

// SyncSchema deletes every non-primary column and then creates one column per
// header, in header order, after the primary column. A failed delete aborts
// before anything is created; columns already deleted stay deleted.
func (s *Syncer) SyncSchema(ctx context.Context, sheetID string, schema models.Schema) ([]models.Column, error) {
	if err := requireSheetID(sheetID); err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, apperr.ErrInput("headers must not be empty")
	}
	specs := make([]models.ColumnSpec, 0, len(schema))
	for _, h := range schema {
		if h.Name == "" {
			return nil, apperr.ErrInput("header name must not be empty")
		}
		if !h.Type.Valid() {
			return nil, apperr.ErrInput("header %q has unknown type %q", h.Name, h.Type)
		}
		specs = append(specs, models.ColumnSpec{Title: h.Name, Type: h.Type, Index: insertIndex})
	}

	sheet, err := s.store.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	primary, hasPrimary := sheet.PrimaryColumn()

	deleted := 0
	for _, col := range sheet.Columns {
		if hasPrimary && col.ID == primary.ID {
			continue
		}
		if err := s.store.DeleteColumn(ctx, sheetID, col.ID); err != nil {
			s.logger.Error("column delete failed", "sheet_id", sheetID, "column_id", col.ID, "deleted", deleted, "err", err)
			return nil, err
		}
		deleted++
	}
	s.logger.Info("columns cleared", "sheet_id", sheetID, "deleted", deleted)
	s.publish(Event{Type: "columns_deleted", SheetID: sheetID, Count: deleted})

	// One call keeps the schema order: the store shifts each column sharing an
	// index to the right of the previous one.
	created, err := s.store.AddColumns(ctx, sheetID, specs)
	if err != nil {
		s.logger.Error("column insert failed", "sheet_id", sheetID, "err", err)
		return nil, err
	}
	s.logger.Info("columns created", "sheet_id", sheetID, "created", len(created))
	s.publish(Event{Type: "columns_created", SheetID: sheetID, Count: len(created)})
	return created, nil
}
