package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gridsync/internal/auth"
	"gridsync/internal/export"
	"gridsync/internal/inference"
	"gridsync/pkg/models"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <sheet-id>",
		Short: "Check that a sheet exists and is accessible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.syncer().VerifySheet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out, "Sheet '%s' is valid and accessible\n", name)
			return nil
		},
	}
}

func newInferCmd(a *app) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "infer <image>...",
		Short: "Infer column headers and types from one or more screenshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images := make([]inference.Image, 0, len(args))
			for _, p := range args {
				img, err := loadImage(p)
				if err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
				images = append(images, img)
			}

			type result struct {
				Image   string        `json:"image"`
				Headers models.Schema `json:"headers,omitempty"`
				Error   string        `json:"error,omitempty"`
			}
			out := make([]result, 0, len(args))
			failed := 0
			for i, r := range a.extractor().InferAll(cmd.Context(), images, workers) {
				res := result{Image: args[i], Headers: r.Schema}
				if r.Err != nil {
					res.Error = r.Err.Error()
					failed++
				}
				out = append(out, res)
			}
			if len(args) == 1 && failed == 0 {
				return a.printJSON(out[0].Headers)
			}
			if err := a.printJSON(out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent inference calls")
	return cmd
}

// extractFlags are shared by the commands that read rows from an image.
type extractFlags struct {
	headersPath string
	hints       string
}

func (f *extractFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.headersPath, "headers", "", "JSON header list (inferred from the image when empty)")
	cmd.Flags().StringVar(&f.hints, "context", "", "free-text hints for row extraction")
}

// extract returns the schema and rows for imagePath.
func (f *extractFlags) extract(cmd *cobra.Command, a *app, imagePath string) (models.Schema, models.RowSet, error) {
	img, err := loadImage(imagePath)
	if err != nil {
		return nil, nil, err
	}
	ex := a.extractor()

	var schema models.Schema
	if f.headersPath != "" {
		schema, err = loadHeaders(f.headersPath)
	} else {
		schema, err = ex.InferSchema(cmd.Context(), img)
	}
	if err != nil {
		return nil, nil, err
	}

	res, err := ex.ExtractRows(cmd.Context(), img, schema, f.hints)
	if err != nil {
		return nil, nil, err
	}
	return schema, res.Rows, nil
}

func newExtractCmd(a *app) *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract table rows from a screenshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, rows, err := f.extract(cmd, a, args[0])
			if err != nil {
				return err
			}
			return a.printJSON(rows)
		},
	}
	f.bind(cmd)
	return cmd
}

func newPushSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push-schema <sheet-id> <headers.json>",
		Short: "Replace a sheet's non-primary columns with the given headers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := loadHeaders(args[1])
			if err != nil {
				return err
			}
			cols, err := a.syncer().SyncSchema(cmd.Context(), args[0], schema)
			if err != nil {
				return err
			}
			return a.printJSON(cols)
		},
	}
}

func newPushRowsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push-rows <sheet-id> <rows.json>",
		Short: "Replace every row of a sheet with the given records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := loadRows(args[1])
			if err != nil {
				return err
			}
			res, err := a.syncer().SyncData(cmd.Context(), args[0], rows)
			if perr := a.printJSON(res); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "run <sheet-id> <image>",
		Short: "Extract a screenshot and push both columns and rows to a sheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheetID := args[0]
			syncer := a.syncer()
			if _, err := syncer.VerifySheet(cmd.Context(), sheetID); err != nil {
				return err
			}
			schema, rows, err := f.extract(cmd, a, args[1])
			if err != nil {
				return err
			}
			cols, err := syncer.SyncSchema(cmd.Context(), sheetID, schema)
			if err != nil {
				return err
			}
			res, err := syncer.SyncData(cmd.Context(), sheetID, rows)
			_, _ = fmt.Fprintf(a.out, "columns created: %d, rows written: %d in %d batches\n",
				len(cols), res.RowsWritten, res.BatchesWritten)
			return err
		},
	}
	f.bind(cmd)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var f extractFlags
	var output string
	cmd := &cobra.Command{
		Use:   "export <image>",
		Short: "Extract a screenshot into an xlsx workbook for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, rows, err := f.extract(cmd, a, args[0])
			if err != nil {
				return err
			}
			if err := export.WriteFile(output, schema, rows); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out, "wrote %d rows to %s\n", len(rows), output)
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "table.xlsx", "workbook path")
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	var sync bool
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <client>",
		Short: "Sign an API bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ts := auth.TokenService{
				Secret:   []byte(a.cfg.Auth.JWTSecret),
				Issuer:   a.cfg.Auth.JWTIssuer,
				Duration: a.cfg.Auth.JWTDuration,
			}
			if ttl > 0 {
				ts.Duration = ttl
			}
			tok, exp, err := ts.Sign(args[0], sync)
			if err != nil {
				return err
			}
			return a.printJSON(map[string]any{"token": tok, "expires_at": exp.UTC()})
		},
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "allow the token to modify sheets")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from config)")
	return cmd
}
