// Package pipeline exposes extraction and synchronization over HTTP.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"gridsync/internal/auth"
	"gridsync/internal/extract"
	"gridsync/internal/inference"
	"gridsync/internal/sheetsync"
	"gridsync/pkg/models"
)

type Extractor interface {
	InferSchema(ctx context.Context, img inference.Image) (models.Schema, error)
	ExtractRows(ctx context.Context, img inference.Image, schema models.Schema, hints string) (*extract.RowResult, error)
}

type Syncer interface {
	VerifySheet(ctx context.Context, sheetID string) (string, error)
	SyncSchema(ctx context.Context, sheetID string, schema models.Schema) ([]models.Column, error)
	SyncData(ctx context.Context, sheetID string, records models.RowSet) (sheetsync.DataResult, error)
}

// RunRecorder persists one record per request. runs.Repo implements it.
type RunRecorder interface {
	Start(ctx context.Context, kind models.RunKind, sheetID, imageDigest string) (*models.Run, error)
	Finish(ctx context.Context, run *models.Run, cause error) error
}

type Handler struct {
	Extract Extractor
	Sync    Syncer
	Runs    RunRecorder
	Logger  *slog.Logger
}

func NewHandler(ex Extractor, sync Syncer, runs RunRecorder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Extract: ex, Sync: sync, Runs: runs, Logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/verify-sheet", h.verifySheet)
	rg.POST("/extract-headers", h.extractHeaders)
	rg.POST("/process-image", h.processImage)
	rg.POST("/update-column-headers", auth.RequireSync(), h.updateColumnHeaders)
	rg.POST("/update-sheet", auth.RequireSync(), h.updateSheet)
}

// track records a run around fn. Recording failures are logged and never
// fail the request.
func (h *Handler) track(ctx context.Context, kind models.RunKind, sheetID, digest string, fn func(run *models.Run) error) error {
	if h.Runs == nil {
		return fn(&models.Run{Kind: kind, SheetID: sheetID})
	}
	run, err := h.Runs.Start(ctx, kind, sheetID, digest)
	if err != nil {
		h.Logger.Warn("run record start failed", "kind", kind, "err", err)
		return fn(&models.Run{Kind: kind, SheetID: sheetID})
	}
	cause := fn(run)
	if err := h.Runs.Finish(context.WithoutCancel(ctx), run, cause); err != nil {
		h.Logger.Warn("run record finish failed", "run_id", run.ID, "err", err)
	}
	return cause
}
