package models

// Record maps a header name to a scalar cell value (string, json.Number,
// float64, bool or nil).
type Record map[string]any

// RowSet is one Record per visually detected row, in display order.
type RowSet []Record
