// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders pipeline output for people: Markdown for the API
// and web views, HTML via goldmark, and terminal tables via go-pretty.
package report

import (
	"fmt"
	"strings"

	"github.com/pdiddy/explainor/pkg/types"
)

// Placeholders shown before anything is available.
const (
	NoSourcesMarkdown = "*No external sources used*"
	NoToolsMarkdown   = "*Waiting for explanation...*"
)

const stepSeparator = "\n\n---\n\n"

// Sources renders a numbered Markdown list, linking entries that carry a URL.
func Sources(sources []types.Source) string {
	if len(sources) == 0 {
		return NoSourcesMarkdown
	}
	var b strings.Builder
	for i, s := range sources {
		if s.URL != "" {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, s.Title, s.URL)
			continue
		}
		label := s.Source
		if label == "" {
			label = "General"
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, s.Title, label)
	}
	return b.String()
}

// Tools renders the tool trace as a Markdown table.
func Tools(tools []types.ToolInvocation) string {
	if len(tools) == 0 {
		return NoToolsMarkdown
	}
	var b strings.Builder
	b.WriteString("| Tool | Description |\n|------|-------------|\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "| %s `%s` | %s |\n", t.Icon, t.Name, t.Description)
	}
	return b.String()
}

// Step renders one step as a bold title over its body in a JSON fence.
func Step(s types.StepEvent) string {
	return fmt.Sprintf("**%s**\n```json\n%s\n```", s.Title, s.Body)
}

// Steps renders the step trace, separated by horizontal rules.
func Steps(steps []types.StepEvent) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		parts = append(parts, Step(s))
	}
	return strings.Join(parts, stepSeparator)
}

// Document renders a complete Markdown page for a finished run.
func Document(topic string, steps []types.StepEvent, res types.ResultEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s explains: %s\n\n", res.PersonaEmoji, res.Persona, topic)
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(res.Explanation))
	fmt.Fprintf(&b, "## Sources\n\n%s\n\n", strings.TrimSpace(Sources(res.Sources)))
	fmt.Fprintf(&b, "## Tools\n\n%s\n", Tools(res.Tools))
	if len(steps) > 0 {
		fmt.Fprintf(&b, "\n## Trace\n\n%s\n", Steps(steps))
	}
	return b.String()
}
