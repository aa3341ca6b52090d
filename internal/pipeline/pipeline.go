// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences research and explanation into a stream of
// progress events. A run moves linearly through
// Idle → Searching → Researched → Generating → Done and ends in exactly one
// Result event, or in an error when generation fails.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/explainor/internal/logging"
	"github.com/pdiddy/explainor/internal/metrics"
	"github.com/pdiddy/explainor/pkg/types"
)

// ErrConsumed is yielded when an event stream is ranged a second time.
var ErrConsumed = errors.New("pipeline: event stream already consumed")

// Stage is a state of a single run.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageSearching  Stage = "searching"
	StageResearched Stage = "researched"
	StageGenerating Stage = "generating"
	StageDone       Stage = "done"
)

// Tool names in the trace.
const (
	ToolWebSearch        = "web_search"
	ToolExtractFacts     = "extract_facts"
	ToolPersonaTransform = "persona_transform"
)

const (
	searchMaxResults = 5
	maxFacts         = 5
	stylePreview     = 50
)

// Researcher looks a topic up. It never fails.
type Researcher interface {
	Research(ctx context.Context, topic string) types.ResearchBundle
}

// Explainer generates the persona-voiced explanation.
type Explainer interface {
	Explain(ctx context.Context, topic string, p types.Persona, research, audience string) (string, error)
}

// Personas resolves a persona name, falling back for unknown names.
type Personas interface {
	Get(name string) types.Persona
}

// Orchestrator runs the research → explanation pipeline. It holds no
// per-run state and may serve concurrent runs.
type Orchestrator struct {
	Researcher Researcher
	Explainer  Explainer
	Personas   Personas
	Logger     *zap.Logger
}

// New returns an Orchestrator. A nil logger discards output.
func New(r Researcher, e Explainer, p Personas, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		Researcher: r,
		Explainer:  e,
		Personas:   p,
		Logger:     logging.OrNop(logger),
	}
}

// ToolTrace returns the fixed list of logical stages reported with every
// result, in pipeline order.
func ToolTrace() []types.ToolInvocation {
	return []types.ToolInvocation{
		{Name: ToolWebSearch, Icon: "🔍", Description: "Web research via DuckDuckGo API"},
		{Name: ToolExtractFacts, Icon: "📋", Description: "Key fact extraction from sources"},
		{Name: ToolPersonaTransform, Icon: "🎭", Description: "Persona explanation via Nebius LLM"},
	}
}

// Run returns a lazy, single-use stream of progress events for topic. Nothing
// happens until the stream is ranged. Step events arrive in the order
// searching, research_complete, extracting, generating, followed by one
// Result event. If generation fails or ctx is done before generation starts,
// the stream yields the error once and ends without a Result. Breaking out
// of the range loop stops the pipeline before its next stage.
func (o *Orchestrator) Run(ctx context.Context, topic, personaName, audience string) iter.Seq2[types.ProgressEvent, error] {
	var consumed atomic.Bool
	return func(yield func(types.ProgressEvent, error) bool) {
		if consumed.Swap(true) {
			yield(types.ProgressEvent{}, ErrConsumed)
			return
		}
		r := &run{
			o:           o,
			topic:       topic,
			personaName: personaName,
			audience:    audience,
			stage:       StageIdle,
			log: logging.OrNop(o.Logger).With(
				zap.String("run_id", uuid.NewString()),
				zap.String("topic", topic)),
		}
		r.exec(ctx, yield)
	}
}

// run is the state of one pipeline invocation.
type run struct {
	o           *Orchestrator
	topic       string
	personaName string
	audience    string
	stage       Stage
	log         *zap.Logger
}

func (r *run) enter(next Stage) {
	r.log.Debug("stage transition", zap.String("from", string(r.stage)), zap.String("to", string(next)))
	r.stage = next
}

func (r *run) exec(ctx context.Context, yield func(types.ProgressEvent, error) bool) {
	outcome := metrics.OutcomeCancelled
	defer func() { metrics.PipelineRuns.WithLabelValues(outcome).Inc() }()

	step := func(s types.StepEvent) bool { return yield(types.NewStep(s), nil) }
	// A run whose context is done counts as cancelled, not failed.
	fail := func(err error) {
		if ctx.Err() != nil {
			r.log.Info("pipeline cancelled", zap.String("stage", string(r.stage)), zap.Error(err))
		} else {
			outcome = metrics.OutcomeFailed
			r.log.Error("pipeline failed", zap.String("stage", string(r.stage)), zap.Error(err))
		}
		yield(types.ProgressEvent{}, err)
	}

	r.enter(StageSearching)
	if !step(types.StepEvent{
		ID:    types.StepSearching,
		Title: "🔧 Tool: `web_search`",
		Body:  toolCall(ToolWebSearch, map[string]any{"query": r.topic, "max_results": searchMaxResults}, "Searching..."),
	}) {
		return
	}

	start := time.Now()
	bundle := r.o.Researcher.Research(ctx, r.topic)
	metrics.StageDuration.WithLabelValues(string(StageSearching)).Observe(time.Since(start).Seconds())

	r.enter(StageResearched)
	if !step(types.StepEvent{
		ID:      types.StepResearchComplete,
		Title:   "✅ Response: `web_search`",
		Body:    toolCall(ToolWebSearch, map[string]any{"query": r.topic}, fmt.Sprintf("Found %d sources", len(bundle.Sources))),
		Sources: slices.Clone(bundle.Sources),
	}) {
		return
	}

	// Trace only: the research text goes to generation unchanged.
	if !step(types.StepEvent{
		ID:    types.StepExtracting,
		Title: "🔧 Tool: `extract_facts`",
		Body: toolCall(ToolExtractFacts, map[string]any{
			"text":      fmt.Sprintf("[%d source documents]", len(bundle.Sources)),
			"max_facts": maxFacts,
		}, "Extracting key facts..."),
	}) {
		return
	}

	p := r.o.Personas.Get(r.personaName)
	audience := strings.TrimSpace(r.audience)
	displayAudience := audience
	if displayAudience == "" {
		displayAudience = "general"
	}

	r.enter(StageGenerating)
	if !step(types.StepEvent{
		ID:    types.StepGenerating,
		Title: "🔧 Tool: `persona_transform`",
		Body: toolCall(ToolPersonaTransform, map[string]any{
			"persona":  p.Name,
			"audience": displayAudience,
			"style":    preview(p.SystemPrompt, stylePreview),
		}, "Generating explanation..."),
	}) {
		return
	}

	if err := ctx.Err(); err != nil {
		fail(err)
		return
	}

	start = time.Now()
	text, err := r.o.Explainer.Explain(ctx, r.topic, p, bundle.Text, audience)
	metrics.StageDuration.WithLabelValues(string(StageGenerating)).Observe(time.Since(start).Seconds())
	if err != nil {
		fail(err)
		return
	}

	r.enter(StageDone)
	outcome = metrics.OutcomeSuccess
	r.log.Info("explanation ready",
		zap.String("persona", p.Name),
		zap.Int("sources", len(bundle.Sources)),
		zap.Bool("search_degraded", bundle.Degraded))

	yield(types.NewResult(types.ResultEvent{
		Explanation:   text,
		Sources:       slices.Clone(bundle.Sources),
		Persona:       p.Name,
		PersonaEmoji:  p.Emoji,
		VoiceID:       p.VoiceID,
		VoiceSettings: p.VoiceSettings,
		Tools:         ToolTrace(),
	}), nil)
}

// toolCall renders a step body as an indented JSON tool-call document.
func toolCall(tool string, input map[string]any, output string) string {
	doc := struct {
		Tool   string         `json:"tool"`
		Input  map[string]any `json:"input"`
		Status string         `json:"status"`
		Output string         `json:"output"`
	}{Tool: tool, Input: input, Status: "success", Output: output}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Sprintf(`{"tool": %q, "status": "success", "output": %q}`, tool, output)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + "..."
}
