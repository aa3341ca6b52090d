// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/pdiddy/explainor/pkg/types"
)

// NoTopicMessage is shown to users who submit an empty topic.
const NoTopicMessage = "Please enter a topic to explain!"

var (
	// ErrNoTopic rejects a blank topic before any network call.
	ErrNoTopic = errors.New("no topic: " + NoTopicMessage)

	// ErrNoResult reports a stream that ended without a Result or an error.
	ErrNoResult = errors.New("pipeline: stream ended without a result")
)

// Runner produces event streams. *Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, topic, personaName, audience string) iter.Seq2[types.ProgressEvent, error]
}

// Outcome is a drained event stream.
type Outcome struct {
	Steps  []types.StepEvent  `json:"steps" yaml:"steps"`
	Result *types.ResultEvent `json:"result,omitempty" yaml:"result,omitempty"`
}

// Explain is the caller-facing contract over a Runner. It rejects a blank
// topic with ErrNoTopic, then drains the stream, passing each step to onStep
// (which may be nil) as it arrives. On failure the steps collected so far are
// returned alongside the error.
func Explain(ctx context.Context, runner Runner, topic, personaName, audience string, onStep func(types.StepEvent)) (Outcome, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Outcome{}, ErrNoTopic
	}

	var out Outcome
	for ev, err := range runner.Run(ctx, topic, personaName, audience) {
		if err != nil {
			return out, err
		}
		switch ev.Kind {
		case types.EventStep:
			out.Steps = append(out.Steps, *ev.Step)
			if onStep != nil {
				onStep(*ev.Step)
			}
		case types.EventResult:
			out.Result = ev.Result
		}
	}
	if out.Result == nil {
		return out, ErrNoResult
	}
	return out, nil
}
