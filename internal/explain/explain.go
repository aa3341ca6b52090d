// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package explain turns research text into a short spoken-style explanation
// in a persona's voice by calling a chat completion service.
package explain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/explainor/internal/logging"
	"github.com/pdiddy/explainor/internal/secrets"
	"github.com/pdiddy/explainor/pkg/types"
)

const (
	// DefaultMaxTokens is the completion budget per explanation.
	DefaultMaxTokens = 1500

	// DefaultTemperature favors varied phrasing (0-2 scale).
	DefaultTemperature = 0.8
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat block.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is what the explainer asks of a Completer.
type CompletionRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Completer abstracts the text generation service so tests can supply a fake.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// GenerationError reports that the generation service could not produce an
// explanation: unreachable, non-success response, or malformed body.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

var systemPromptTmpl = template.Must(template.New("system").Parse(`{{.Prompt}}

You are explaining a topic to someone. Your explanation should be:
1. Entertaining and fully in character
2. Educational - actually explain the concept clearly
3. MAXIMUM 100 words - be concise!
4. Natural spoken language (will be read aloud)
5. Engaging and memorable{{if .Audience}}
You are explaining this to: {{.Audience}}. Tailor your explanation appropriately for them.{{end}}

Do NOT break character. Do NOT use markdown, bullet points, or special formatting.
Just speak naturally as your character would.`))

var userPromptTmpl = template.Must(template.New("user").Parse(`Research on the topic:

{{.Research}}

Now explain "{{.Topic}}" in your unique {{.Persona}} voice and style. Make it fun, memorable, and educational!`))

// Explainer builds persona-conditioned prompts and calls a Completer.
type Explainer struct {
	Completer   Completer
	MaxTokens   int
	Temperature float64
	Logger      *zap.Logger
}

// New returns an Explainer with the default token budget and temperature.
func New(c Completer, logger *zap.Logger) *Explainer {
	return &Explainer{
		Completer:   c,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		Logger:      logging.OrNop(logger),
	}
}

// Explain generates the explanation of topic in persona p's voice, optionally
// tailored to audience. The generated text is returned verbatim.
//
// A missing credential is returned as *secrets.MissingError; every other
// failure is wrapped in *GenerationError.
func (e *Explainer) Explain(ctx context.Context, topic string, p types.Persona, research, audience string) (string, error) {
	if e.Completer == nil {
		return "", &GenerationError{Cause: errors.New("no completion service configured")}
	}

	msgs, err := BuildMessages(topic, p, research, audience)
	if err != nil {
		return "", &GenerationError{Cause: err}
	}

	req := CompletionRequest{
		Messages:    msgs,
		MaxTokens:   e.MaxTokens,
		Temperature: e.Temperature,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	logging.OrNop(e.Logger).Debug("requesting explanation",
		zap.String("topic", topic),
		zap.String("persona", p.Name),
		zap.Int("research_bytes", len(research)))

	text, err := e.Completer.Complete(ctx, req)
	if err != nil {
		var missing *secrets.MissingError
		if errors.As(err, &missing) {
			return "", missing
		}
		return "", &GenerationError{Cause: err}
	}
	return text, nil
}

// BuildMessages renders the system and user blocks, in that order.
func BuildMessages(topic string, p types.Persona, research, audience string) ([]Message, error) {
	var sys bytes.Buffer
	err := systemPromptTmpl.Execute(&sys, struct {
		Prompt   string
		Audience string
	}{Prompt: p.SystemPrompt, Audience: strings.TrimSpace(audience)})
	if err != nil {
		return nil, fmt.Errorf("rendering system prompt: %w", err)
	}

	var user bytes.Buffer
	err = userPromptTmpl.Execute(&user, struct {
		Research string
		Topic    string
		Persona  string
	}{Research: research, Topic: topic, Persona: p.Name})
	if err != nil {
		return nil, fmt.Errorf("rendering user prompt: %w", err)
	}

	return []Message{
		{Role: RoleSystem, Content: sys.String()},
		{Role: RoleUser, Content: user.String()},
	}, nil
}
