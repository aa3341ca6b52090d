// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EventKind tags a ProgressEvent as an intermediate step or the final result.
type EventKind string

const (
	EventStep   EventKind = "step"
	EventResult EventKind = "result"
)

// StepID identifies a pipeline stage in the progress stream.
type StepID string

const (
	StepSearching        StepID = "searching"
	StepResearchComplete StepID = "research_complete"
	StepExtracting       StepID = "extracting"
	StepGenerating       StepID = "generating"
)

// ToolInvocation is a display-only record naming a logical pipeline stage.
// It plays no part in control flow.
type ToolInvocation struct {
	Name        string `json:"name" yaml:"name"`
	Icon        string `json:"icon" yaml:"icon"`
	Description string `json:"desc" yaml:"desc"`
}

// StepEvent describes a stage that is about to run or has just completed.
type StepEvent struct {
	ID      StepID   `json:"step" yaml:"step"`
	Title   string   `json:"title" yaml:"title"`
	Body    string   `json:"content" yaml:"content"`
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// ResultEvent terminates a successful pipeline run.
type ResultEvent struct {
	Explanation   string           `json:"explanation" yaml:"explanation"`
	Sources       []Source         `json:"sources" yaml:"sources"`
	Persona       string           `json:"persona" yaml:"persona"`
	PersonaEmoji  string           `json:"persona_emoji" yaml:"persona_emoji"`
	VoiceID       string           `json:"voice_id" yaml:"voice_id"`
	VoiceSettings *VoiceSettings   `json:"voice_settings,omitempty" yaml:"voice_settings,omitempty"`
	Tools         []ToolInvocation `json:"mcp_tools" yaml:"mcp_tools"`
}

// ProgressEvent is one unit of the orchestrator's output stream. Exactly one
// of Step or Result is set, matching Kind.
type ProgressEvent struct {
	Kind   EventKind    `json:"type" yaml:"type"`
	Step   *StepEvent   `json:"step,omitempty" yaml:"step,omitempty"`
	Result *ResultEvent `json:"result,omitempty" yaml:"result,omitempty"`
}

// NewStep wraps s in a step event.
func NewStep(s StepEvent) ProgressEvent {
	return ProgressEvent{Kind: EventStep, Step: &s}
}

// NewResult wraps r in a result event.
func NewResult(r ResultEvent) ProgressEvent {
	return ProgressEvent{Kind: EventResult, Result: &r}
}
