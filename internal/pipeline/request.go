package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gridsync/internal/apperr"
	"gridsync/internal/extract"
	"gridsync/internal/inference"
	"gridsync/internal/runs"
	"gridsync/pkg/models"
)

const maxImageBytes = 20 << 20

type headerJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// toSchema validates caller-supplied headers. Type tags are matched without
// regard to case.
func toSchema(in []headerJSON) (models.Schema, error) {
	out := make(models.Schema, 0, len(in))
	for i, h := range in {
		name := strings.TrimSpace(h.Name)
		if name == "" {
			return nil, apperr.ErrInput("header %d: name is required", i)
		}
		tag, ok := models.ParseTypeTag(h.Type)
		if !ok {
			return nil, apperr.ErrInput("header %q: unknown type %q", name, h.Type)
		}
		out = append(out, models.Header{Name: name, Type: tag})
	}
	return out, nil
}

// readImage loads the multipart "image" field.
func readImage(c *gin.Context) (inference.Image, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return inference.Image{}, "", apperr.ErrInput("No image uploaded")
	}
	if fh.Size > maxImageBytes {
		return inference.Image{}, "", apperr.ErrInput("image exceeds %d bytes", maxImageBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return inference.Image{}, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return inference.Image{}, "", fmt.Errorf("read upload: %w", err)
	}
	img, err := extract.LoadImage(data)
	if err != nil {
		return inference.Image{}, "", err
	}
	return img, runs.Digest(data), nil
}

// bindJSON decodes the body keeping numbers as json.Number.
func bindJSON(c *gin.Context, dst any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return apperr.ErrInput("invalid json")
	}
	return nil
}

// writeError replies with the status matching err's kind. Extraction errors
// carry the raw model response.
func (h *Handler) writeError(c *gin.Context, err error, extra gin.H) {
	status := apperr.HTTPStatus(err)
	body := gin.H{"error": err.Error()}

	var input *apperr.InputError
	var schemaErr *apperr.SchemaExtractionError
	var rowsErr *apperr.RowExtractionError
	switch {
	case errors.As(err, &input):
		body["error"] = input.Message
	case errors.As(err, &schemaErr):
		body["raw_response"] = schemaErr.Raw
	case errors.As(err, &rowsErr):
		body["raw_response"] = rowsErr.Raw
		body["kind"] = rowsErr.Kind
	}
	for k, v := range extra {
		body[k] = v
	}

	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed", "path", c.FullPath(), "status", status, "err", err)
	} else {
		h.Logger.Warn("request rejected", "path", c.FullPath(), "status", status, "err", err)
	}
	c.JSON(status, body)
}
