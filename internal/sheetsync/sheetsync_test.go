package sheetsync

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsync/internal/apperr"
	"gridsync/pkg/models"
)

func primaryCol() models.Column {
	return models.Column{ID: 1, Title: "Primary", Type: models.TypeTextNumber, Primary: true}
}

func TestVerifySheet(t *testing.T) {
	store := newFakeStore("Sprint Board", primaryCol())
	name, err := New(store, nil, nil).VerifySheet(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Sprint Board", name)

	store.getErr = &apperr.ExternalStoreError{Op: "get sheet", StatusCode: 404, Message: "Not Found"}
	_, err = New(store, nil, nil).VerifySheet(context.Background(), "42")
	var se *apperr.ExternalStoreError
	assert.True(t, errors.As(err, &se))

	_, err = New(store, nil, nil).VerifySheet(context.Background(), " ")
	var ie *apperr.InputError
	assert.True(t, errors.As(err, &ie))
}

func TestSyncSchema_ReplacesColumnsInOrder(t *testing.T) {
	store := newFakeStore("s",
		models.Column{ID: 10, Title: "Old 1"},
		primaryCol(),
		models.Column{ID: 11, Title: "Old 2"},
	)
	pub := &recordingPublisher{}
	schema := models.Schema{
		{Name: "A", Type: models.TypeTextNumber},
		{Name: "B", Type: models.TypeDate},
		{Name: "C", Type: models.TypeCheckbox},
	}

	created, err := New(store, pub, nil).SyncSchema(context.Background(), "42", schema)
	require.NoError(t, err)

	require.Len(t, created, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{created[0].Title, created[1].Title, created[2].Title})
	assert.Equal(t, []string{"Primary", "A", "B", "C"}, store.titles())

	require.Len(t, store.addedSpecs, 1)
	for _, s := range store.addedSpecs[0] {
		assert.Equal(t, 1, s.Index)
		assert.False(t, s.Primary)
	}
	assert.Equal(t, []string{"columns_deleted", "columns_created"}, pub.types())
}

func TestSyncSchema_FirstColumnIsPrimaryWhenUnflagged(t *testing.T) {
	store := newFakeStore("s",
		models.Column{ID: 5, Title: "Name"},
		models.Column{ID: 6, Title: "Extra"},
	)
	_, err := New(store, nil, nil).SyncSchema(context.Background(), "42", models.Schema{{Name: "X", Type: models.TypeTextNumber}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "X"}, store.titles())
}

func TestSyncSchema_DeleteFailureAbortsInsert(t *testing.T) {
	store := newFakeStore("s",
		primaryCol(),
		models.Column{ID: 10, Title: "Old 1"},
		models.Column{ID: 11, Title: "Old 2"},
		models.Column{ID: 12, Title: "Old 3"},
	)
	store.deleteColumnErr = map[int64]error{
		11: &apperr.ExternalStoreError{Op: "delete column", StatusCode: 403, Message: "locked"},
	}

	_, err := New(store, nil, nil).SyncSchema(context.Background(), "42", models.Schema{{Name: "A", Type: models.TypeTextNumber}})
	var se *apperr.ExternalStoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 403, se.StatusCode)

	assert.Empty(t, store.addedSpecs)
	assert.NotContains(t, store.calls, "add_columns")
	// The first delete is not rolled back.
	assert.Equal(t, []string{"Primary", "Old 2", "Old 3"}, store.titles())
}

func TestSyncSchema_RejectsInvalidInput(t *testing.T) {
	store := newFakeStore("s", primaryCol())
	s := New(store, nil, nil)
	ctx := context.Background()

	for name, schema := range map[string]models.Schema{
		"empty":        {},
		"blank name":   {{Name: "", Type: models.TypeDate}},
		"unknown type": {{Name: "A", Type: "CONTACT"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.SyncSchema(ctx, "42", schema)
			var ie *apperr.InputError
			assert.True(t, errors.As(err, &ie))
		})
	}
	assert.Empty(t, store.calls)
}

func TestSyncData_EndToEndExample(t *testing.T) {
	store := newFakeStore("s", primaryCol()).withRows(900, 901)
	s := New(store, nil, nil)
	ctx := context.Background()

	cols, err := s.SyncSchema(ctx, "42", models.Schema{
		{Name: "Task", Type: models.TypeTextNumber},
		{Name: "Due", Type: models.TypeDate},
	})
	require.NoError(t, err)
	taskID, dueID := cols[0].ID, cols[1].ID

	res, err := s.SyncData(ctx, "42", models.RowSet{
		{"Task": "Review", "Due": "2024-03-01"},
		{"Task": "", "Due": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, DataResult{RowsDeleted: 2, RowsWritten: 1, BatchesWritten: 1}, res)

	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0], 1)
	row := store.batches[0][0]
	assert.True(t, row.ToBottom)
	assert.Equal(t, []models.Cell{
		{ColumnID: 1, Value: ""},
		{ColumnID: taskID, Value: "Review"},
		{ColumnID: dueID, Value: "2024-03-01"},
	}, row.Cells)
}

func TestSyncData_SkipsDeleteOnEmptySheet(t *testing.T) {
	store := newFakeStore("s", primaryCol())
	_, err := New(store, nil, nil).SyncData(context.Background(), "42", models.RowSet{{"Primary": "x"}})
	require.NoError(t, err)
	assert.NotContains(t, store.calls, "delete_rows")
}

func TestSyncData_DeleteFailureWritesNothing(t *testing.T) {
	store := newFakeStore("s", primaryCol()).withRows(1)
	store.deleteRowsErr = &apperr.ExternalStoreError{Op: "delete rows", StatusCode: 500}
	res, err := New(store, nil, nil).SyncData(context.Background(), "42", models.RowSet{{"Primary": "x"}})
	require.Error(t, err)
	assert.Zero(t, res)
	assert.Empty(t, store.batches)
}

func TestBuildRows_Filter(t *testing.T) {
	columns := models.ColumnMap{{Title: "A", ID: 1}, {Title: "B", ID: 2}}
	records := models.RowSet{
		{},
		{"A": nil, "B": ""},
		{"Unmapped": "ignored"},
		{"A": false},
		{"B": 0},
		{"A": "x", "B": nil},
	}
	rows := BuildRows(columns, records)
	require.Len(t, rows, 3)
	assert.Equal(t, []models.Cell{{ColumnID: 1, Value: false}, {ColumnID: 2, Value: ""}}, rows[0].Cells)
	assert.Equal(t, []models.Cell{{ColumnID: 1, Value: ""}, {ColumnID: 2, Value: 0}}, rows[1].Cells)
	assert.Equal(t, []models.Cell{{ColumnID: 1, Value: "x"}, {ColumnID: 2, Value: ""}}, rows[2].Cells)
}

func TestBuildRows_FilterProperty(t *testing.T) {
	columns := models.ColumnMap{{Title: "Name", ID: 1}, {Title: "Word", ID: 2}}
	var records models.RowSet
	want := 0
	for i := 0; i < 200; i++ {
		rec := models.Record{}
		if gofakeit.Number(0, 1) == 1 {
			rec["Name"] = gofakeit.Name()
			want++
		} else if gofakeit.Number(0, 1) == 1 {
			rec["Name"] = nil
			rec["Word"] = ""
		}
		records = append(records, rec)
	}
	assert.Len(t, BuildRows(columns, records), want)
}

func TestSyncData_Batching(t *testing.T) {
	for _, n := range []int{1, 99, 100, 101, 250} {
		store := newFakeStore("s", primaryCol(), models.Column{ID: 2, Title: "Word"})
		records := make(models.RowSet, n)
		for i := range records {
			records[i] = models.Record{"Primary": gofakeit.Name(), "Word": gofakeit.Word()}
		}

		res, err := New(store, nil, nil).SyncData(context.Background(), "42", records)
		require.NoError(t, err)

		wantBatches := (n + BatchSize - 1) / BatchSize
		assert.Equal(t, wantBatches, res.BatchesWritten, "n=%d", n)
		assert.Equal(t, n, res.RowsWritten, "n=%d", n)
		require.Len(t, store.batches, wantBatches)

		var joined []models.RowSpec
		for _, b := range store.batches {
			assert.LessOrEqual(t, len(b), BatchSize)
			joined = append(joined, b...)
		}
		assert.Equal(t, BuildRows(models.NewColumnMap(store.sheet.Columns), records), joined)
	}
}

func TestSyncData_BatchFailureReportsProgress(t *testing.T) {
	store := newFakeStore("s", primaryCol()).withRows(7)
	store.failBatch = 2
	pub := &recordingPublisher{}
	records := make(models.RowSet, 250)
	for i := range records {
		records[i] = models.Record{"Primary": gofakeit.Word()}
	}

	res, err := New(store, pub, nil).SyncData(context.Background(), "42", records)
	var se *apperr.ExternalStoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, DataResult{RowsDeleted: 1, RowsWritten: 100, BatchesWritten: 1}, res)
	// No batch after the failed one is attempted.
	assert.Equal(t, 2, countCalls(store.calls, "add_rows"))
	assert.Equal(t, []string{"rows_deleted", "rows_written"}, pub.types())
}

func TestSyncData_RejectsEmptyData(t *testing.T) {
	store := newFakeStore("s", primaryCol())
	_, err := New(store, nil, nil).SyncData(context.Background(), "42", nil)
	var ie *apperr.InputError
	assert.True(t, errors.As(err, &ie))
	assert.Empty(t, store.calls)
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}
