// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/explainor/internal/httputil"
	"github.com/pdiddy/explainor/internal/secrets"
	"github.com/pdiddy/explainor/pkg/types"
)

const (
	// NebiusAPIBase is the OpenAI-compatible Nebius AI Studio endpoint.
	NebiusAPIBase = "https://api.studio.nebius.com/v1/"

	// DefaultModel is the chat model used for explanations.
	DefaultModel = "meta-llama/Llama-3.3-70B-Instruct"
)

// ChatCompleter calls an OpenAI-compatible chat completions endpoint through
// the openai-go SDK. SDK retries are disabled; a failure surfaces at once.
type ChatCompleter struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewChatCompleter builds a completer from cfg. The API key may be empty
// here; Complete reports it as missing before any request is made.
func NewChatCompleter(cfg types.GenerationConfig) *ChatCompleter {
	base := cfg.BaseURL
	if base == "" {
		base = NebiusAPIBase
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &ChatCompleter{
		APIKey:     cfg.APIKey,
		BaseURL:    base,
		Model:      model,
		HTTPClient: httputil.NewClient(cfg.HTTPConfig),
	}
}

// Complete sends req and returns the first choice's content.
func (c *ChatCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.APIKey == "" {
		return "", &secrets.MissingError{Setting: secrets.NebiusAPIKey}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(c.APIKey),
		option.WithBaseURL(c.BaseURL),
		option.WithMaxRetries(0),
	}
	if c.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(c.HTTPClient))
	}
	client := openai.NewClient(opts...)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.Model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("Nebius API error: %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("malformed completion response: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
