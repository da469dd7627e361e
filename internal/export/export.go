// Package export writes an extracted table to an xlsx workbook for review
// before it is pushed to a sheet.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gridsync/pkg/models"
)

const (
	dataSheet   = "Data"
	schemaSheet = "Schema"
)

// Workbook builds a workbook with the rows on "Data", one column per header
// in schema order, and the header types on "Schema".
func Workbook(schema models.Schema, rows models.RowSet) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(schemaSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("add schema sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("new style: %w", err)
	}

	header := make([]any, len(schema))
	for i, h := range schema {
		header[i] = h.Name
	}
	if err := writeRow(f, dataSheet, 1, header); err != nil {
		_ = f.Close()
		return nil, err
	}
	for r, rec := range rows {
		values := make([]any, len(schema))
		for i, h := range schema {
			values[i] = cellValue(rec[h.Name])
		}
		if err := writeRow(f, dataSheet, r+2, values); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if err := writeRow(f, schemaSheet, 1, []any{"name", "type"}); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, h := range schema {
		if err := writeRow(f, schemaSheet, i+2, []any{h.Name, string(h.Type)}); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if len(schema) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(schema), 1)
		if err := f.SetCellStyle(dataSheet, "A1", end, bold); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("style header: %w", err)
		}
	}
	_ = f.SetCellStyle(schemaSheet, "A1", "B1", bold)
	return f, nil
}

// Write encodes the workbook to w.
func Write(w io.Writer, schema models.Schema, rows models.RowSet) error {
	f, err := Workbook(schema, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func WriteFile(path string, schema models.Schema, rows models.RowSet) error {
	f, err := Workbook(schema, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValue keeps numbers numeric and leaves null cells blank.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case string, bool, float64, int, int64:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
