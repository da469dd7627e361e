package sheetsync

import (
	"context"
	"encoding/json"
	"fmt"

	"gridsync/internal/apperr"
	"gridsync/pkg/models"
)

// DataResult reports how far a data sync got. It is returned alongside the
// error when a batch fails.
type DataResult struct {
	RowsDeleted    int `json:"rows_deleted"`
	RowsWritten    int `json:"rows_written"`
	BatchesWritten int `json:"batches_written"`
}

// SyncData replaces every row of the sheet with records. Each record becomes
// one row with a cell for every mapped column, missing values sent as ""; a
// record whose cells are all empty is dropped. Rows are appended in batches
// of BatchSize.
func (s *Syncer) SyncData(ctx context.Context, sheetID string, records models.RowSet) (DataResult, error) {
	var res DataResult
	if err := requireSheetID(sheetID); err != nil {
		return res, err
	}
	if len(records) == 0 {
		return res, apperr.ErrInput("data must not be empty")
	}

	sheet, err := s.store.GetSheet(ctx, sheetID)
	if err != nil {
		return res, err
	}
	columns := models.NewColumnMap(sheet.Columns)

	if ids := sheet.RowIDs(); len(ids) > 0 {
		if err := s.store.DeleteRows(ctx, sheetID, ids); err != nil {
			s.logger.Error("row delete failed", "sheet_id", sheetID, "rows", len(ids), "err", err)
			return res, err
		}
		res.RowsDeleted = len(ids)
		s.publish(Event{Type: "rows_deleted", SheetID: sheetID, Count: len(ids)})
	}

	rows := BuildRows(columns, records)
	for start := 0; start < len(rows); start += BatchSize {
		batch := rows[start:min(start+BatchSize, len(rows))]
		if _, err := s.store.AddRows(ctx, sheetID, batch); err != nil {
			s.logger.Error("row batch failed", "sheet_id", sheetID, "batch", res.BatchesWritten+1, "written", res.RowsWritten, "err", err)
			return res, err
		}
		res.BatchesWritten++
		res.RowsWritten += len(batch)
		s.publish(Event{Type: "rows_written", SheetID: sheetID, Count: len(batch), Batch: res.BatchesWritten})
	}

	s.logger.Info("rows synced", "sheet_id", sheetID, "records", len(records), "written", res.RowsWritten, "batches", res.BatchesWritten)
	return res, nil
}

// BuildRows converts records to row specs with one cell per column-map entry,
// in map order. Missing and null values become the empty string. A record whose
// cells are all empty is dropped; false and 0 are not empty.
func BuildRows(columns models.ColumnMap, records models.RowSet) []models.RowSpec {
	rows := make([]models.RowSpec, 0, len(records))
	for _, rec := range records {
		cells := make([]models.Cell, 0, len(columns))
		hasContent := false
		for _, col := range columns {
			v := cellValue(rec[col.Title])
			if v != "" {
				hasContent = true
			}
			cells = append(cells, models.Cell{ColumnID: col.ID, Value: v})
		}
		if !hasContent {
			continue
		}
		rows = append(rows, models.RowSpec{ToBottom: true, Cells: cells})
	}
	return rows
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, bool, float64, int, int64, json.Number:
		return t
	default:
		// Nested values are written as their JSON text.
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
