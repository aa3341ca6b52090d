// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/explainor/internal/secrets"
	"github.com/pdiddy/explainor/pkg/types"
)

var fakeMP3 = []byte{0xFF, 0xFB, 0x90, 0x64, 0x00}

func testSpeechCfg(base, key string) types.SpeechConfig {
	return types.SpeechConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second},
		BaseURL:    base,
		APIKey:     key,
	}
}

func TestRenderRequest(t *testing.T) {
	var (
		path   string
		query  string
		apiKey string
		body   ttsRequest
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		query = r.URL.Query().Get("output_format")
		apiKey = r.Header.Get("xi-api-key")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(fakeMP3)
	}))
	defer ts.Close()

	vs := &types.VoiceSettings{Stability: 0.35, SimilarityBoost: 0.6, Style: 0.85, Speed: 0.95}
	c := NewClient(testSpeechCfg(ts.URL, "el-test"), zaptest.NewLogger(t))

	audio, err := c.Render(context.Background(), "Arrr!", "TX3LPaxmHKxFdv7VOQHJ", vs)
	require.NoError(t, err)
	assert.Equal(t, fakeMP3, audio)

	assert.Equal(t, "/v1/text-to-speech/TX3LPaxmHKxFdv7VOQHJ", path)
	assert.Equal(t, DefaultOutputFormat, query)
	assert.Equal(t, "el-test", apiKey)
	assert.Equal(t, "Arrr!", body.Text)
	assert.Equal(t, DefaultModelID, body.ModelID)
	require.NotNil(t, body.VoiceSettings)
	assert.Equal(t, *vs, *body.VoiceSettings)
}

func TestRenderWithoutSettings(t *testing.T) {
	var raw map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &raw)
		w.Write(fakeMP3)
	}))
	defer ts.Close()

	_, err := NewClient(testSpeechCfg(ts.URL+"/", "el-test"), nil).Render(context.Background(), "hi", "v1", nil)
	require.NoError(t, err)
	_, has := raw["voice_settings"]
	assert.False(t, has)
}

func TestRenderMissingKey(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	_, err := NewClient(testSpeechCfg(ts.URL, ""), nil).Render(context.Background(), "hi", "v1", nil)

	var missing *secrets.MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, secrets.ElevenLabsAPIKey, missing.Setting)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRenderFailures(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		voice   string
		status  int
		payload []byte
		errMsg  string
	}{
		{"blank text", "  ", "v1", http.StatusOK, fakeMP3, "no text"},
		{"blank voice", "hi", "", http.StatusOK, fakeMP3, "no voice"},
		{"quota exceeded", "hi", "v1", http.StatusUnauthorized, []byte(`{"detail":{"status":"quota_exceeded"}}`), "returned 401"},
		{"empty audio", "hi", "v1", http.StatusOK, nil, "no audio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write(tt.payload)
			}))
			defer ts.Close()

			_, err := NewClient(testSpeechCfg(ts.URL, "el-test"), nil).Render(context.Background(), tt.text, tt.voice, nil)
			require.Error(t, err)

			var renderErr *RenderError
			assert.True(t, errors.As(err, &renderErr))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(types.SpeechConfig{}, nil)
	assert.Equal(t, ElevenLabsAPIBase, c.BaseURL)
	assert.Equal(t, DefaultModelID, c.ModelID)
	assert.Equal(t, DefaultOutputFormat, c.OutputFormat)
}
