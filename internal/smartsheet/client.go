// Package smartsheet is a client for the Smartsheet REST API 2.0, covering
// the sheet, column and row calls the synchronizers need.
package smartsheet

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gridsync/internal/apperr"
	"gridsync/internal/httpclient"
	"gridsync/pkg/models"
)

const DefaultBaseURL = "https://api.smartsheet.com/2.0"

// deleteChunk bounds the ids sent in one DELETE so the query string stays
// within URL length limits.
const deleteChunk = 400

type Config struct {
	Token     string
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
}

type Client struct {
	http   *httpclient.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http: httpclient.New(httpclient.Config{
			BaseURL:   cfg.BaseURL,
			Auth:      httpclient.BearerToken{Token: cfg.Token},
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
		}),
		logger: logger,
	}
}

type apiError struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
	RefID     string `json:"refId"`
}

type result[T any] struct {
	Message    string `json:"message"`
	ResultCode int    `json:"resultCode"`
	Result     T      `json:"result"`
}

func sheetPath(sheetID string, parts ...string) string {
	p := "sheets/" + url.PathEscape(sheetID)
	for _, s := range parts {
		p += "/" + s
	}
	return p
}

// GetSheet loads a sheet with its columns and rows.
func (c *Client) GetSheet(ctx context.Context, sheetID string) (*models.Sheet, error) {
	resp, err := c.http.Get(ctx, sheetPath(sheetID), nil)
	if err != nil {
		return nil, storeError("get sheet", err)
	}
	var sheet models.Sheet
	if err := resp.JSON(&sheet); err != nil {
		return nil, storeError("get sheet", err)
	}
	return &sheet, nil
}

func (c *Client) DeleteColumn(ctx context.Context, sheetID string, columnID int64) error {
	_, err := c.http.Delete(ctx, sheetPath(sheetID, "columns", strconv.FormatInt(columnID, 10)), nil)
	if err != nil {
		return storeError("delete column", err)
	}
	return nil
}

// AddColumns creates specs in a single call and returns the created columns.
func (c *Client) AddColumns(ctx context.Context, sheetID string, specs []models.ColumnSpec) ([]models.Column, error) {
	resp, err := c.http.Post(ctx, sheetPath(sheetID, "columns"), nil, specs)
	if err != nil {
		return nil, storeError("add columns", err)
	}
	cols, err := decodeList[models.Column](resp)
	if err != nil {
		return nil, storeError("add columns", err)
	}
	return cols, nil
}

func (c *Client) DeleteRows(ctx context.Context, sheetID string, rowIDs []int64) error {
	for start := 0; start < len(rowIDs); start += deleteChunk {
		end := min(start+deleteChunk, len(rowIDs))
		ids := make([]string, 0, end-start)
		for _, id := range rowIDs[start:end] {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		q := url.Values{}
		q.Set("ids", strings.Join(ids, ","))
		q.Set("ignoreRowsNotFound", "true")
		if _, err := c.http.Delete(ctx, sheetPath(sheetID, "rows"), q); err != nil {
			return storeError("delete rows", err)
		}
	}
	return nil
}

// AddRows appends rows and returns them as created by the store.
func (c *Client) AddRows(ctx context.Context, sheetID string, rows []models.RowSpec) ([]models.Row, error) {
	resp, err := c.http.Post(ctx, sheetPath(sheetID, "rows"), nil, rows)
	if err != nil {
		return nil, storeError("add rows", err)
	}
	created, err := decodeList[models.Row](resp)
	if err != nil {
		return nil, storeError("add rows", err)
	}
	c.logger.Debug("rows added", "sheet_id", sheetID, "rows", len(created))
	return created, nil
}

// decodeList reads result as a list; single-item writes may answer with a
// bare object.
func decodeList[T any](resp *httpclient.Response) ([]T, error) {
	var env result[json.RawMessage]
	if err := resp.JSON(&env); err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(string(env.Result))
	if raw == "" || raw == "null" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "{") {
		var one T
		if err := json.Unmarshal(env.Result, &one); err != nil {
			return nil, err
		}
		return []T{one}, nil
	}
	var many []T
	if err := json.Unmarshal(env.Result, &many); err != nil {
		return nil, err
	}
	return many, nil
}

func storeError(op string, err error) error {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return &apperr.ExternalStoreError{Op: op, Err: err}
	}
	out := &apperr.ExternalStoreError{Op: op, StatusCode: httpErr.StatusCode, Err: err}
	var body apiError
	if json.Unmarshal(httpErr.Body, &body) == nil && body.Message != "" {
		out.Code = body.ErrorCode
		out.Message = body.Message
	} else {
		out.Message = strings.TrimSpace(string(httpErr.Body))
	}
	return out
}
