// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/explainor/internal/secrets"
	"github.com/pdiddy/explainor/pkg/types"
)

const sampleCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1733000000,
  "model": "meta-llama/Llama-3.3-70B-Instruct",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Ahoy! Gravity be the captain here."}}
  ],
  "usage": {"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18}
}`

func testGenCfg(base, key string) types.GenerationConfig {
	return types.GenerationConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "explainor-test/1.0"},
		BaseURL:    base,
		APIKey:     key,
	}
}

func TestChatCompleterRequest(t *testing.T) {
	var (
		path string
		auth string
		body map[string]any
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleCompletion)
	}))
	defer ts.Close()

	c := NewChatCompleter(testGenCfg(ts.URL+"/v1/", "nb-test"))
	got, err := c.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "be a pirate"},
			{Role: RoleUser, Content: "explain gravity"},
		},
		MaxTokens:   1500,
		Temperature: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ahoy! Gravity be the captain here.", got)

	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "Bearer nb-test", auth)
	assert.Equal(t, DefaultModel, body["model"])
	assert.EqualValues(t, 1500, body["max_tokens"])
	assert.InDelta(t, 0.8, body["temperature"], 1e-9)

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestChatCompleterMissingKey(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	c := NewChatCompleter(testGenCfg(ts.URL+"/", ""))
	_, err := c.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})

	var missing *secrets.MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, secrets.NebiusAPIKey, missing.Setting)
	assert.Zero(t, atomic.LoadInt32(&calls), "no request without a credential")
}

func TestChatCompleterFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		errMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, "Nebius API error: 401"},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`, "Nebius API error: 500"},
		{"no choices", http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, "no choices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			c := NewChatCompleter(testGenCfg(ts.URL+"/", "nb-test"))
			_, err := c.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no automatic retry")
		})
	}
}

func TestChatCompleterUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := ts.URL + "/"
	ts.Close()

	_, err := NewChatCompleter(testGenCfg(base, "nb-test")).Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM call failed")
}

func TestNewChatCompleterDefaults(t *testing.T) {
	c := NewChatCompleter(types.GenerationConfig{HTTPConfig: types.HTTPConfig{Timeout: 60 * time.Second}})
	assert.Equal(t, NebiusAPIBase, c.BaseURL)
	assert.Equal(t, DefaultModel, c.Model)
	assert.Equal(t, 60*time.Second, c.HTTPClient.Timeout)
}
