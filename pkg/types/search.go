// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the explainor pipeline:
// personas, research results, progress events, and configuration.
package types

// SearchResult is one normalized entry produced by the research stage.
// Results are transient; only those carrying a URL become Sources.
type SearchResult struct {
	// Title is a short heading for the result (abstract heading or a
	// truncated preview of a related entry).
	Title string `json:"title" yaml:"title"`

	// Snippet is the summary text fed to the generation stage.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source names the provider or publisher (e.g. "Wikipedia", "DuckDuckGo").
	Source string `json:"source" yaml:"source"`

	// URL links to the original page. Empty for the synthetic fallback.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Source is an attributable reference surfaced to the caller.
type Source struct {
	Title  string `json:"title" yaml:"title"`
	URL    string `json:"url" yaml:"url"`
	Source string `json:"source" yaml:"source"`
}

// ResearchBundle is the output of a topic lookup: the composed research text
// handed to the generator and the sources it was built from.
type ResearchBundle struct {
	// Query is the topic that was looked up.
	Query string `json:"query" yaml:"query"`

	// Text concatenates every result under a per-result header.
	Text string `json:"text" yaml:"text"`

	// Sources holds the URL-bearing results in provider order.
	Sources []Source `json:"sources" yaml:"sources"`

	// Results holds every normalized result, including the synthetic
	// fallback when the provider produced nothing usable.
	Results []SearchResult `json:"results" yaml:"results"`

	// Degraded reports whether the fallback result was substituted.
	Degraded bool `json:"degraded" yaml:"degraded"`

	// Err records the provider failure that caused degradation, if any.
	// It is informational only and never propagated as an error.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}
