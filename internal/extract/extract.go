// Package extract turns table screenshots into a column schema and row data
// using the inference service.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"gridsync/internal/apperr"
	"gridsync/internal/inference"
	"gridsync/internal/sanitize"
	"gridsync/pkg/models"
)

// Extractor runs schema inference and row extraction against a Generator.
// It holds no per-request state and is safe for concurrent use.
type Extractor struct {
	gen    inference.Generator
	logger *slog.Logger
}

func NewExtractor(gen inference.Generator, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{gen: gen, logger: logger}
}

// RowResult is a validated RowSet plus the parsed response it came from.
type RowResult struct {
	Rows models.RowSet
	Raw  any
}

// InferSchema asks the model for the table headers in img.
func (e *Extractor) InferSchema(ctx context.Context, img inference.Image) (models.Schema, error) {
	if len(img.Data) == 0 {
		return nil, apperr.ErrInput("no image uploaded")
	}
	text, err := e.generate(ctx, headerPrompt(), img)
	if err != nil {
		return nil, err
	}
	schema, err := ParseSchema(text)
	if err != nil {
		return nil, err
	}
	e.logger.Info("schema inferred", "columns", len(schema))
	return schema, nil
}

// ExtractRows asks the model for every row of img, shaped by schema.
func (e *Extractor) ExtractRows(ctx context.Context, img inference.Image, schema models.Schema, hints string) (*RowResult, error) {
	if len(img.Data) == 0 {
		return nil, apperr.ErrInput("no image uploaded")
	}
	if len(schema) == 0 {
		return nil, apperr.ErrInput("headers are required")
	}
	text, err := e.generate(ctx, rowPrompt(schema, hints), img)
	if err != nil {
		return nil, err
	}
	res, err := ParseRows(text)
	if err != nil {
		return nil, err
	}
	e.logger.Info("rows extracted", "rows", len(res.Rows))
	return res, nil
}

func (e *Extractor) generate(ctx context.Context, prompt string, img inference.Image) (string, error) {
	return e.gen.Generate(ctx, inference.Request{
		Prompt:   prompt,
		Image:    img,
		Sampling: inference.Sampling{Temperature: samplingTemperature, TopP: samplingTopP},
	})
}

// ParseSchema sanitizes and validates a header-extraction response.
func ParseSchema(raw string) (models.Schema, error) {
	text := sanitize.Sanitize(raw)
	fail := func(format string, args ...any) error {
		return &apperr.SchemaExtractionError{Message: fmt.Sprintf(format, args...), Raw: text}
	}

	v, err := decode(text)
	if err != nil {
		return nil, &apperr.SchemaExtractionError{Message: "failed to parse response as JSON", Raw: text, Err: err}
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fail("expected a list of headers")
	}
	if len(items) == 0 {
		return nil, fail("no table headers detected")
	}

	schema := make(models.Schema, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fail("header %d is not an object", i)
		}
		name, _ := obj["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fail("header %d is missing name", i)
		}
		rawType, ok := obj["type"].(string)
		if !ok {
			return nil, fail("header %q is missing type", name)
		}
		tag, ok := models.ParseTypeTag(rawType)
		if !ok {
			return nil, fail("header %q has invalid type %q", name, rawType)
		}
		schema = append(schema, models.Header{Name: name, Type: tag})
	}
	return schema, nil
}

// ParseRows sanitizes and validates a row-extraction response.
func ParseRows(raw string) (*RowResult, error) {
	text := sanitize.Sanitize(raw)

	v, err := decode(text)
	if err != nil {
		return nil, &apperr.RowExtractionError{Kind: apperr.RowsMalformed, Message: "failed to parse response as JSON", Raw: text, Err: err}
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &apperr.RowExtractionError{Kind: apperr.RowsMalformed, Message: "model did not return a list of rows", Raw: text}
	}
	if len(items) == 0 {
		return nil, &apperr.RowExtractionError{Kind: apperr.RowsEmpty, Message: "no rows found in the image", Raw: text}
	}

	rows := make(models.RowSet, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &apperr.RowExtractionError{Kind: apperr.RowsMalformed, Message: fmt.Sprintf("row %d is not an object", i), Raw: text}
		}
		rows = append(rows, models.Record(obj))
	}
	return &RowResult{Rows: rows, Raw: v}, nil
}

// decode parses exactly one JSON value, keeping numbers as json.Number.
func decode(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}
