package models

// Column is a column as owned by the external store.
type Column struct {
	ID      int64   `json:"id"`
	Index   int     `json:"index"`
	Title   string  `json:"title"`
	Type    TypeTag `json:"type"`
	Primary bool    `json:"primary,omitempty"`
}

// ColumnSpec describes a column to create.
type ColumnSpec struct {
	Title   string  `json:"title"`
	Type    TypeTag `json:"type"`
	Index   int     `json:"index"`
	Primary bool    `json:"primary"`
}

type Cell struct {
	ColumnID int64 `json:"columnId"`
	Value    any   `json:"value"`
}

type Row struct {
	ID        int64  `json:"id"`
	RowNumber int    `json:"rowNumber,omitempty"`
	Cells     []Cell `json:"cells,omitempty"`
}

// RowSpec is a row to append; ToBottom places it after every existing row.
type RowSpec struct {
	ToBottom bool   `json:"toBottom"`
	Cells    []Cell `json:"cells"`
}

type Sheet struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Columns       []Column `json:"columns"`
	Rows          []Row    `json:"rows"`
	TotalRowCount int      `json:"totalRowCount"`
}

// PrimaryColumn returns the store's primary column. Sheets that do not flag
// one treat their first column as primary.
func (s *Sheet) PrimaryColumn() (Column, bool) {
	for _, c := range s.Columns {
		if c.Primary {
			return c, true
		}
	}
	if len(s.Columns) > 0 {
		return s.Columns[0], true
	}
	return Column{}, false
}

// RowIDs returns the identifiers of every row currently loaded on the sheet.
func (s *Sheet) RowIDs() []int64 {
	ids := make([]int64, 0, len(s.Rows))
	for _, r := range s.Rows {
		ids = append(ids, r.ID)
	}
	return ids
}
