// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/explainor/pkg/types"
)

// fakeClient returns a fixed answer or error and counts calls.
type fakeClient struct {
	answer InstantAnswer
	err    error
	calls  int
	query  string
}

func (f *fakeClient) Lookup(_ context.Context, query string) (InstantAnswer, error) {
	f.calls++
	f.query = query
	return f.answer, f.err
}

func TestResearchAbstractAndRelated(t *testing.T) {
	fc := &fakeClient{answer: InstantAnswer{
		Heading:        "Black hole",
		Abstract:       "A region of spacetime.",
		AbstractSource: "Wikipedia",
		AbstractURL:    "https://en.wikipedia.org/wiki/Black_hole",
		RelatedTopics: []RelatedTopic{
			{Text: "Event horizon - the boundary of no return around a black hole in space.", FirstURL: "https://duckduckgo.com/Event_horizon"},
			{Text: "Hawking radiation", FirstURL: ""},
			{Name: "Category", Topics: []RelatedTopic{{Text: "ignored"}}},
			{Text: "Fourth entry is beyond the cap", FirstURL: "https://duckduckgo.com/Fourth"},
		},
	}}
	r := New(fc, zaptest.NewLogger(t))

	b := r.Research(context.Background(), "Black Holes")

	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, "Black Holes", fc.query)
	assert.False(t, b.Degraded)
	assert.Empty(t, b.Err)
	assert.Equal(t, "Black Holes", b.Query)

	require.Len(t, b.Results, 3)
	assert.Equal(t, "Black hole", b.Results[0].Title)
	assert.Equal(t, "Wikipedia", b.Results[0].Source)
	assert.Equal(t, "Event horizon - the boundary of no return around a...", b.Results[1].Title)
	assert.Equal(t, "DuckDuckGo", b.Results[1].Source)
	assert.Equal(t, "Hawking radiation...", b.Results[2].Title)

	assert.Equal(t, []types.Source{
		{Title: "Black hole", URL: "https://en.wikipedia.org/wiki/Black_hole", Source: "Wikipedia"},
		{Title: "Event horizon - the boundary of no return around a...", URL: "https://duckduckgo.com/Event_horizon", Source: "DuckDuckGo"},
	}, b.Sources)

	assert.True(t, strings.HasPrefix(b.Text, "## Research on: Black Holes\n\n"))
	assert.Contains(t, b.Text, "### Source 1: Black hole\nA region of spacetime.\n\n")
	assert.Contains(t, b.Text, "### Source 3: Hawking radiation...\nHawking radiation\n\n")
	assert.NotContains(t, b.Text, "Fourth entry")
}

func TestResearchSourcesAreURLSubsequence(t *testing.T) {
	fc := &fakeClient{answer: InstantAnswer{
		RelatedTopics: []RelatedTopic{
			{Text: "a", FirstURL: ""},
			{Text: "b", FirstURL: "https://b"},
			{Text: "c", FirstURL: "https://c"},
		},
	}}
	b := New(fc, nil).Research(context.Background(), "letters")

	var urls []string
	for _, s := range b.Sources {
		urls = append(urls, s.URL)
	}
	assert.Equal(t, []string{"https://b", "https://c"}, urls)

	// Every source appears in results, in the same relative order.
	j := 0
	for _, res := range b.Results {
		if j < len(b.Sources) && res.URL == b.Sources[j].URL {
			j++
		}
	}
	assert.Equal(t, len(b.Sources), j)
}

func TestResearchDegrades(t *testing.T) {
	tests := []struct {
		name    string
		client  SearchClient
		wantErr bool
	}{
		{"provider error", &fakeClient{err: errors.New("connection refused")}, true},
		{"empty answer", &fakeClient{}, false},
		{"blank abstract and related", &fakeClient{answer: InstantAnswer{Abstract: "  ", RelatedTopics: []RelatedTopic{{Name: "group"}}}}, false},
		{"no client", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.client, zaptest.NewLogger(t))
			b := r.Research(context.Background(), "Quantum Computing")

			assert.True(t, b.Degraded)
			assert.Empty(t, b.Sources)
			assert.NotNil(t, b.Sources)
			require.Len(t, b.Results, 1)
			assert.Equal(t, "General Knowledge", b.Results[0].Source)
			assert.Contains(t, b.Text, "Quantum Computing")
			assert.Contains(t, b.Text, "Topic: Quantum Computing. Please explain this concept based on general knowledge.")
			if tt.wantErr {
				assert.NotEmpty(t, b.Err)
			} else {
				assert.Empty(t, b.Err)
			}
		})
	}
}

func TestResearchOverHTTPFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream down")
	}))
	defer ts.Close()

	r := New(NewDuckDuckGoClient(testSearchCfg(ts.URL+"/")), zaptest.NewLogger(t))
	b := r.Research(context.Background(), "Climate Change")

	assert.True(t, b.Degraded)
	assert.Contains(t, b.Err, "HTTP 502")
	assert.Contains(t, b.Text, "Climate Change")
	assert.Empty(t, b.Sources)
}

func TestResearchCancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, sampleBlackHoles)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := New(NewDuckDuckGoClient(testSearchCfg(ts.URL+"/")), nil).Research(ctx, "Black Holes")
	assert.True(t, b.Degraded)
	assert.Contains(t, b.Text, "Black Holes")
}

func TestPreviewRunes(t *testing.T) {
	long := strings.Repeat("é", 60)
	assert.Equal(t, strings.Repeat("é", 50)+"...", preview(long))
	assert.Equal(t, "short...", preview("short"))
}

func TestComposeDefaultsSourceLabel(t *testing.T) {
	b := Compose("x", []types.SearchResult{{Title: "t", Snippet: "s", URL: "https://u"}})
	require.Len(t, b.Sources, 1)
	assert.Equal(t, "Web", b.Sources[0].Source)
}
