package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"gridsync/internal/extract"
	"gridsync/internal/inference"
	"gridsync/internal/sheetsync"
	"gridsync/internal/smartsheet"
	"gridsync/pkg/models"
	"gridsync/pkg/utils"
)

// app holds the collaborators built from configuration for one invocation.
type app struct {
	cfg    *utils.Config
	logger *slog.Logger
	out    io.Writer
}

func (a *app) extractor() *extract.Extractor {
	gen := inference.NewGemini(inference.GeminiConfig{
		APIKey:  a.cfg.Gemini.APIKey,
		Model:   a.cfg.Gemini.Model,
		BaseURL: a.cfg.Gemini.BaseURL,
		Timeout: a.cfg.HTTPTimeout,
	}, a.logger)
	return extract.NewExtractor(gen, a.logger)
}

func (a *app) syncer() *sheetsync.Syncer {
	store := smartsheet.New(smartsheet.Config{
		Token:     a.cfg.Smartsheet.Token,
		BaseURL:   a.cfg.Smartsheet.BaseURL,
		Timeout:   a.cfg.HTTPTimeout,
		RateLimit: a.cfg.Smartsheet.RateLimit,
	}, a.logger)
	return sheetsync.New(store, nil, a.logger)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:           "gridsync",
		Short:         "Extract tables from screenshots and sync them to Smartsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := utils.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := utils.LoadConfig(configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.out = cmd.OutOrStdout()
			a.logger = utils.NewLogger(cfg, cmd.ErrOrStderr())
			for _, w := range cfg.Warnings {
				a.logger.Debug(w)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file (default $GRIDSYNC_CONFIG)")

	root.AddCommand(
		newVerifyCmd(a),
		newInferCmd(a),
		newExtractCmd(a),
		newPushSchemaCmd(a),
		newPushRowsCmd(a),
		newRunCmd(a),
		newExportCmd(a),
		newTokenCmd(a),
	)
	return root
}

func loadImage(path string) (inference.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return inference.Image{}, fmt.Errorf("read image: %w", err)
	}
	return extract.LoadImage(data)
}

// loadHeaders reads a JSON header list, accepting fenced model output as-is.
func loadHeaders(path string) (models.Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	return extract.ParseSchema(string(b))
}

func loadRows(path string) (models.RowSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	res, err := extract.ParseRows(string(b))
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}
