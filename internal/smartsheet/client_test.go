package smartsheet

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsync/internal/apperr"
	"gridsync/pkg/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{Token: "tok", BaseURL: srv.URL, RateLimit: 1000}, nil)
}

func TestGetSheet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sheets/4583173393803140", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{
			"id": 4583173393803140,
			"name": "Sprint",
			"totalRowCount": 1,
			"columns": [
				{"id": 1001, "index": 0, "title": "Primary", "type": "TEXT_NUMBER", "primary": true},
				{"id": 1002, "index": 1, "title": "Due", "type": "DATE"}
			],
			"rows": [{"id": 9001, "rowNumber": 1, "cells": [{"columnId": 1001, "value": "x"}]}]
		}`)
	})

	sheet, err := c.GetSheet(context.Background(), "4583173393803140")
	require.NoError(t, err)
	assert.Equal(t, "Sprint", sheet.Name)
	require.Len(t, sheet.Columns, 2)
	assert.True(t, sheet.Columns[0].Primary)
	assert.Equal(t, models.TypeDate, sheet.Columns[1].Type)
	assert.Equal(t, []int64{9001}, sheet.RowIDs())
}

func TestAddColumns(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sheets/42/columns", r.URL.Path)

		var specs []models.ColumnSpec
		require.NoError(t, json.NewDecoder(r.Body).Decode(&specs))
		assert.Equal(t, []models.ColumnSpec{
			{Title: "Task", Type: models.TypeTextNumber, Index: 1},
			{Title: "Due", Type: models.TypeDate, Index: 1},
		}, specs)

		_, _ = io.WriteString(w, `{"message":"SUCCESS","resultCode":0,"result":[
			{"id": 11, "index": 1, "title": "Task", "type": "TEXT_NUMBER"},
			{"id": 12, "index": 2, "title": "Due", "type": "DATE"}
		]}`)
	})

	cols, err := c.AddColumns(context.Background(), "42", []models.ColumnSpec{
		{Title: "Task", Type: models.TypeTextNumber, Index: 1},
		{Title: "Due", Type: models.TypeDate, Index: 1},
	})
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, int64(12), cols[1].ID)
}

func TestAddColumns_SingleObjectResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"message":"SUCCESS","result":{"id": 7, "title": "Only", "type": "TEXT_NUMBER"}}`)
	})
	cols, err := c.AddColumns(context.Background(), "42", []models.ColumnSpec{{Title: "Only", Type: models.TypeTextNumber, Index: 1}})
	require.NoError(t, err)
	assert.Equal(t, []models.Column{{ID: 7, Title: "Only", Type: models.TypeTextNumber}}, cols)
}

func TestDeleteRows_Chunks(t *testing.T) {
	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/sheets/42/rows", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("ignoreRowsNotFound"))
		queries = append(queries, r.URL.Query().Get("ids"))
		_, _ = io.WriteString(w, `{"message":"SUCCESS","result":[]}`)
	})

	ids := make([]int64, deleteChunk+2)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	require.NoError(t, c.DeleteRows(context.Background(), "42", ids))
	require.Len(t, queries, 2)
	assert.Equal(t, "401,402", queries[1])
}

func TestAddRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var rows []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		require.Len(t, rows, 1)
		assert.Equal(t, true, rows[0]["toBottom"])
		cells := rows[0]["cells"].([]any)
		assert.Equal(t, map[string]any{"columnId": float64(11), "value": "Review"}, cells[0])
		_, _ = io.WriteString(w, `{"message":"SUCCESS","resultCode":0,"result":[{"id": 501, "rowNumber": 1}]}`)
	})

	created, err := c.AddRows(context.Background(), "42", []models.RowSpec{{
		ToBottom: true,
		Cells:    []models.Cell{{ColumnID: 11, Value: "Review"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []models.Row{{ID: 501, RowNumber: 1}}, created)
}

func TestStoreErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errorCode":1006,"message":"Not Found","refId":"abc"}`)
	})

	_, err := c.GetSheet(context.Background(), "0")
	var se *apperr.ExternalStoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "get sheet", se.Op)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, 1006, se.Code)
	assert.Equal(t, "Not Found", se.Message)
}

func TestStoreErrors_Unreachable(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", RateLimit: 1000}, nil)
	err := c.DeleteColumn(context.Background(), "42", 7)
	var se *apperr.ExternalStoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "delete column", se.Op)
	assert.Zero(t, se.StatusCode)
}
