package pipeline

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gridsync/internal/apperr"
	"gridsync/internal/extract"
	"gridsync/internal/sheetsync"
	"gridsync/pkg/models"
)

type verifyReq struct {
	SheetID string `json:"sheet_id"`
}

func (h *Handler) verifySheet(c *gin.Context) {
	var req verifyReq
	if err := bindJSON(c, &req); err != nil || strings.TrimSpace(req.SheetID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "message": "Sheet ID is required"})
		return
	}

	var name string
	err := h.track(c.Request.Context(), models.RunVerify, req.SheetID, "", func(*models.Run) error {
		var err error
		name, err = h.Sync.VerifySheet(c.Request.Context(), req.SheetID)
		return err
	})
	if err != nil {
		h.Logger.Warn("sheet verification failed", "sheet_id", req.SheetID, "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "message": "Error verifying sheet: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"sheet_name": name,
		"message":    fmt.Sprintf("Sheet '%s' is valid and accessible", name),
	})
}

func (h *Handler) extractHeaders(c *gin.Context) {
	img, digest, err := readImage(c)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	var schema models.Schema
	err = h.track(c.Request.Context(), models.RunInferSchema, "", digest, func(run *models.Run) error {
		var err error
		schema, err = h.Extract.InferSchema(c.Request.Context(), img)
		run.Columns = len(schema)
		return err
	})
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"headers": schema})
}

func (h *Handler) processImage(c *gin.Context) {
	img, digest, err := readImage(c)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	var headers []headerJSON
	if raw := c.DefaultPostForm("headers", "[]"); json.Unmarshal([]byte(raw), &headers) != nil {
		h.writeError(c, apperr.ErrInput("headers must be a JSON list of {name, type}"), nil)
		return
	}
	schema, err := toSchema(headers)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	var res *extract.RowResult
	err = h.track(c.Request.Context(), models.RunExtractRows, "", digest, func(run *models.Run) error {
		var err error
		res, err = h.Extract.ExtractRows(c.Request.Context(), img, schema, c.PostForm("context"))
		run.Columns = len(schema)
		return err
	})
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res.Rows, "debug": res.Raw})
}

type columnHeadersReq struct {
	SheetID string       `json:"sheet_id"`
	Headers []headerJSON `json:"headers"`
}

type columnJSON struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func (h *Handler) updateColumnHeaders(c *gin.Context) {
	var req columnHeadersReq
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err, nil)
		return
	}
	if strings.TrimSpace(req.SheetID) == "" || len(req.Headers) == 0 {
		h.writeError(c, apperr.ErrInput("Sheet ID and headers are required"), nil)
		return
	}
	schema, err := toSchema(req.Headers)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	var created []models.Column
	err = h.track(c.Request.Context(), models.RunSyncSchema, req.SheetID, "", func(run *models.Run) error {
		var err error
		created, err = h.Sync.SyncSchema(c.Request.Context(), req.SheetID, schema)
		run.Columns = len(created)
		return err
	})
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	cols := make([]columnJSON, 0, len(created))
	for _, col := range created {
		cols = append(cols, columnJSON{ID: col.ID, Title: col.Title})
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Successfully updated %d column headers", len(schema)),
		"columns": cols,
	})
}

type updateSheetReq struct {
	SheetID string          `json:"sheet_id"`
	Data    []models.Record `json:"data"`
}

func (h *Handler) updateSheet(c *gin.Context) {
	var req updateSheetReq
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err, nil)
		return
	}
	if strings.TrimSpace(req.SheetID) == "" || len(req.Data) == 0 {
		h.writeError(c, apperr.ErrInput("Sheet ID and data are required"), nil)
		return
	}

	var res sheetsync.DataResult
	err := h.track(c.Request.Context(), models.RunSyncData, req.SheetID, "", func(run *models.Run) error {
		var err error
		res, err = h.Sync.SyncData(c.Request.Context(), req.SheetID, req.Data)
		run.RowsWritten = res.RowsWritten
		return err
	})
	if err != nil {
		h.writeError(c, err, gin.H{
			"rows_deleted":    res.RowsDeleted,
			"rows_written":    res.RowsWritten,
			"batches_written": res.BatchesWritten,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Successfully added %d rows", res.RowsWritten),
		"row_count": res.RowsWritten,
	})
}
