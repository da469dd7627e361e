package inference

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gridsync/internal/apperr"
	"gridsync/internal/httpclient"
)

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// RateLimit in requests per second; zero uses the client default.
	RateLimit float64
}

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	client *httpclient.Client
	model  string
	logger *slog.Logger
}

func NewGemini(cfg GeminiConfig, logger *slog.Logger) *Gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		client: httpclient.New(httpclient.Config{
			BaseURL:   cfg.BaseURL,
			Auth:      httpclient.APIKey{Key: cfg.APIKey, Header: "x-goog-api-key"},
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
		}),
		model:  cfg.Model,
		logger: logger,
	}
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends the prompt followed by the inline image.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	body := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: req.Prompt},
				{InlineData: &inlineData{
					MIMEType: req.Image.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
				}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature: req.Sampling.Temperature,
			TopP:        req.Sampling.TopP,
		},
	}

	path := "models/" + url.PathEscape(g.model) + ":generateContent"
	resp, err := g.client.Post(ctx, path, nil, body)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			return "", &apperr.TransportError{StatusCode: httpErr.StatusCode, Err: err}
		}
		return "", &apperr.TransportError{Err: err}
	}

	var out generateContentResponse
	if err := resp.JSON(&out); err != nil {
		return "", &apperr.TransportError{Err: err}
	}

	text := extractText(out)
	if text == "" && out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", &apperr.TransportError{Err: fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)}
	}
	g.logger.Debug("gemini response", "model", g.model, "preview", preview(text, 200))
	return text, nil
}

func extractText(resp generateContentResponse) string {
	for _, c := range resp.Candidates {
		var b strings.Builder
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		if strings.TrimSpace(b.String()) != "" {
			return b.String()
		}
	}
	return ""
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
