// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research looks a topic up with a web search provider and normalizes
// the answer into a ResearchBundle. Provider failures never escape: Research
// has no error return and degrades to a general-knowledge fallback instead.
package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/explainor/internal/logging"
	"github.com/pdiddy/explainor/internal/metrics"
	"github.com/pdiddy/explainor/pkg/types"
)

const (
	defaultMaxRelated = 3
	titlePreviewRunes = 50

	providerName    = "DuckDuckGo"
	fallbackSource  = "General Knowledge"
	defaultHeading  = "Overview"
	defaultSourceID = "Web"
)

// SearchClient performs one lookup against a search provider.
type SearchClient interface {
	Lookup(ctx context.Context, query string) (InstantAnswer, error)
}

// Researcher turns a topic into research text plus attributable sources.
type Researcher struct {
	Client SearchClient

	// MaxRelated caps the related entries considered (default 3).
	MaxRelated int

	Logger *zap.Logger
}

// New returns a Researcher over client. A nil logger discards output.
func New(client SearchClient, logger *zap.Logger) *Researcher {
	return &Researcher{
		Client:     client,
		MaxRelated: defaultMaxRelated,
		Logger:     logging.OrNop(logger),
	}
}

// Research looks topic up and composes the bundle. Any provider failure is
// logged, counted, and treated as "no results".
func (r *Researcher) Research(ctx context.Context, topic string) types.ResearchBundle {
	log := logging.OrNop(r.Logger)

	var (
		ia     InstantAnswer
		errMsg string
	)
	if r.Client == nil {
		errMsg = "no search client configured"
	} else {
		var err error
		ia, err = r.Client.Lookup(ctx, topic)
		if err != nil {
			errMsg = err.Error()
			ia = InstantAnswer{}
		}
	}
	if errMsg != "" {
		log.Warn("search degraded to general knowledge", zap.String("topic", topic), zap.String("error", errMsg))
	}

	results := normalize(ia, r.maxRelated())
	degraded := false
	if len(results) == 0 {
		results = []types.SearchResult{fallbackResult(topic)}
		degraded = true
		metrics.SearchDegraded.Inc()
	}

	bundle := Compose(topic, results)
	bundle.Degraded = degraded
	bundle.Err = errMsg
	log.Debug("research complete",
		zap.String("topic", topic),
		zap.Int("results", len(bundle.Results)),
		zap.Int("sources", len(bundle.Sources)),
		zap.Bool("degraded", degraded))
	return bundle
}

func (r *Researcher) maxRelated() int {
	if r.MaxRelated <= 0 {
		return defaultMaxRelated
	}
	return r.MaxRelated
}

// normalize maps an Instant Answer to results: the abstract first, then up to
// maxRelated related entries taken from the head of the list.
func normalize(ia InstantAnswer, maxRelated int) []types.SearchResult {
	var results []types.SearchResult

	if strings.TrimSpace(ia.Abstract) != "" {
		results = append(results, types.SearchResult{
			Title:   orDefault(ia.Heading, defaultHeading),
			Snippet: ia.Abstract,
			Source:  orDefault(ia.AbstractSource, providerName),
			URL:     ia.AbstractURL,
		})
	}

	related := ia.RelatedTopics
	if len(related) > maxRelated {
		related = related[:maxRelated]
	}
	for _, rt := range related {
		if strings.TrimSpace(rt.Text) == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:   preview(rt.Text),
			Snippet: rt.Text,
			Source:  providerName,
			URL:     rt.FirstURL,
		})
	}
	return results
}

// fallbackResult keeps generation unblocked when research produced nothing.
func fallbackResult(topic string) types.SearchResult {
	return types.SearchResult{
		Title:   "Search: " + topic,
		Snippet: fmt.Sprintf("Topic: %s. Please explain this concept based on general knowledge.", topic),
		Source:  fallbackSource,
	}
}

// Compose builds the research text and source list from results. Sources keep
// only URL-bearing results, in order.
func Compose(topic string, results []types.SearchResult) types.ResearchBundle {
	var b strings.Builder
	fmt.Fprintf(&b, "## Research on: %s\n\n", topic)

	sources := []types.Source{}
	for i, res := range results {
		fmt.Fprintf(&b, "### Source %d: %s\n", i+1, res.Title)
		fmt.Fprintf(&b, "%s\n\n", res.Snippet)
		if res.URL != "" {
			sources = append(sources, types.Source{
				Title:  res.Title,
				URL:    res.URL,
				Source: orDefault(res.Source, defaultSourceID),
			})
		}
	}

	return types.ResearchBundle{
		Query:   topic,
		Text:    b.String(),
		Sources: sources,
		Results: results,
	}
}

// preview truncates text to a short title.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) > titlePreviewRunes {
		runes = runes[:titlePreviewRunes]
	}
	return string(runes) + "..."
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
