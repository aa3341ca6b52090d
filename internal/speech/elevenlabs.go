// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package speech renders finished explanations to audio with the ElevenLabs
// text-to-speech API. The pipeline never calls it; callers do so after they
// hold a Result event.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/explainor/internal/httputil"
	"github.com/pdiddy/explainor/internal/logging"
	"github.com/pdiddy/explainor/internal/metrics"
	"github.com/pdiddy/explainor/internal/secrets"
	"github.com/pdiddy/explainor/pkg/types"
)

const (
	// ElevenLabsAPIBase is the ElevenLabs API root.
	ElevenLabsAPIBase = "https://api.elevenlabs.io"

	DefaultModelID      = "eleven_multilingual_v2"
	DefaultOutputFormat = "mp3_44100_128"

	// maxErrorBody bounds how much of an error response is kept in messages.
	maxErrorBody = 512
)

// RenderError reports a failed speech render. It is distinct from a
// generation failure: a usable explanation already exists when it occurs.
type RenderError struct {
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("speech render failed: %v", e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// Client calls the ElevenLabs text-to-speech endpoint.
type Client struct {
	HTTP         *http.Client
	BaseURL      string
	APIKey       string
	ModelID      string
	OutputFormat string
	Logger       *zap.Logger
}

// NewClient builds a client from cfg. The API key may be empty here; Render
// reports it as missing before any request is made.
func NewClient(cfg types.SpeechConfig, logger *zap.Logger) *Client {
	c := &Client{
		HTTP:         httputil.NewClient(cfg.HTTPConfig),
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		ModelID:      cfg.ModelID,
		OutputFormat: cfg.OutputFormat,
		Logger:       logging.OrNop(logger),
	}
	if c.BaseURL == "" {
		c.BaseURL = ElevenLabsAPIBase
	}
	if c.ModelID == "" {
		c.ModelID = DefaultModelID
	}
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	return c
}

type ttsRequest struct {
	Text          string               `json:"text"`
	ModelID       string               `json:"model_id"`
	VoiceSettings *types.VoiceSettings `json:"voice_settings,omitempty"`
}

// Render converts text to encoded audio in the given voice. A missing
// credential is returned as *secrets.MissingError; every other failure is
// wrapped in *RenderError.
func (c *Client) Render(ctx context.Context, text, voiceID string, settings *types.VoiceSettings) ([]byte, error) {
	if c.APIKey == "" {
		return nil, &secrets.MissingError{Setting: secrets.ElevenLabsAPIKey}
	}

	audio, err := c.render(ctx, text, voiceID, settings)
	if err != nil {
		metrics.SpeechRenders.WithLabelValues(metrics.OutcomeFailed).Inc()
		logging.OrNop(c.Logger).Warn("speech render failed", zap.String("voice_id", voiceID), zap.Error(err))
		return nil, &RenderError{Cause: err}
	}
	metrics.SpeechRenders.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return audio, nil
}

func (c *Client) render(ctx context.Context, text, voiceID string, settings *types.VoiceSettings) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("no text to render")
	}
	if strings.TrimSpace(voiceID) == "" {
		return nil, errors.New("no voice id")
	}

	body, err := json.Marshal(ttsRequest{Text: text, ModelID: c.ModelID, VoiceSettings: settings})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/text-to-speech/%s?%s",
		strings.TrimSuffix(c.BaseURL, "/"),
		url.PathEscape(voiceID),
		url.Values{"output_format": {c.OutputFormat}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.APIKey)

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ElevenLabs API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("ElevenLabs API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("ElevenLabs API returned no audio")
	}
	return audio, nil
}
