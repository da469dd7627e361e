package sheetsync

import (
	"context"
	"sync"

	"gridsync/internal/apperr"
	"gridsync/pkg/models"
)

// fakeStore keeps one sheet in memory and records every call.
type fakeStore struct {
	mu     sync.Mutex
	sheet  models.Sheet
	nextID int64

	getErr          error
	deleteColumnErr map[int64]error
	addColumnsErr   error
	deleteRowsErr   error
	// failBatch makes the n-th AddRows call (1-based) fail.
	failBatch int

	calls      []string
	addedSpecs [][]models.ColumnSpec
	batches    [][]models.RowSpec
}

func newFakeStore(name string, cols ...models.Column) *fakeStore {
	f := &fakeStore{sheet: models.Sheet{ID: 1, Name: name}, nextID: 1000}
	for i, c := range cols {
		c.Index = i
		f.sheet.Columns = append(f.sheet.Columns, c)
	}
	return f
}

func (f *fakeStore) withRows(ids ...int64) *fakeStore {
	for i, id := range ids {
		f.sheet.Rows = append(f.sheet.Rows, models.Row{ID: id, RowNumber: i + 1})
	}
	f.sheet.TotalRowCount = len(f.sheet.Rows)
	return f
}

func (f *fakeStore) GetSheet(_ context.Context, _ string) (*models.Sheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "get")
	if f.getErr != nil {
		return nil, f.getErr
	}
	s := f.sheet
	s.Columns = append([]models.Column(nil), f.sheet.Columns...)
	s.Rows = append([]models.Row(nil), f.sheet.Rows...)
	return &s, nil
}

func (f *fakeStore) DeleteColumn(_ context.Context, _ string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete_column")
	if err := f.deleteColumnErr[id]; err != nil {
		return err
	}
	for i, c := range f.sheet.Columns {
		if c.ID == id {
			f.sheet.Columns = append(f.sheet.Columns[:i], f.sheet.Columns[i+1:]...)
			f.reindex()
			return nil
		}
	}
	return &apperr.ExternalStoreError{Op: "delete column", StatusCode: 404, Message: "Not Found"}
}

// AddColumns inserts specs contiguously starting at the first spec's index,
// the way the store treats a multi-column insert.
func (f *fakeStore) AddColumns(_ context.Context, _ string, specs []models.ColumnSpec) ([]models.Column, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "add_columns")
	f.addedSpecs = append(f.addedSpecs, specs)
	if f.addColumnsErr != nil {
		return nil, f.addColumnsErr
	}
	at := min(specs[0].Index, len(f.sheet.Columns))
	created := make([]models.Column, 0, len(specs))
	for _, s := range specs {
		f.nextID++
		created = append(created, models.Column{ID: f.nextID, Title: s.Title, Type: s.Type})
	}
	cols := append([]models.Column(nil), f.sheet.Columns[:at]...)
	cols = append(cols, created...)
	cols = append(cols, f.sheet.Columns[at:]...)
	f.sheet.Columns = cols
	f.reindex()
	for i := range created {
		created[i].Index = at + i
	}
	return created, nil
}

func (f *fakeStore) DeleteRows(_ context.Context, _ string, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete_rows")
	if f.deleteRowsErr != nil {
		return f.deleteRowsErr
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.sheet.Rows[:0]
	for _, r := range f.sheet.Rows {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	f.sheet.Rows = kept
	f.sheet.TotalRowCount = len(kept)
	return nil
}

func (f *fakeStore) AddRows(_ context.Context, _ string, rows []models.RowSpec) ([]models.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "add_rows")
	if f.failBatch != 0 && len(f.batches)+1 == f.failBatch {
		return nil, &apperr.ExternalStoreError{Op: "add rows", StatusCode: 500, Message: "boom"}
	}
	f.batches = append(f.batches, rows)
	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		f.nextID++
		row := models.Row{ID: f.nextID, RowNumber: len(f.sheet.Rows) + 1, Cells: r.Cells}
		f.sheet.Rows = append(f.sheet.Rows, row)
		out = append(out, row)
	}
	f.sheet.TotalRowCount = len(f.sheet.Rows)
	return out, nil
}

func (f *fakeStore) reindex() {
	for i := range f.sheet.Columns {
		f.sheet.Columns[i].Index = i
	}
}

func (f *fakeStore) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sheet.Columns))
	for _, c := range f.sheet.Columns {
		out = append(out, c.Title)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
