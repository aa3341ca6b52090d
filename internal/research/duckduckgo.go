// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/explainor/internal/httputil"
	"github.com/pdiddy/explainor/pkg/types"
)

// DuckDuckGoAPIBase is the Instant Answer endpoint. No API key is needed.
const DuckDuckGoAPIBase = "https://api.duckduckgo.com/"

// InstantAnswer is the subset of a DuckDuckGo Instant Answer response the
// researcher consumes.
type InstantAnswer struct {
	Heading        string         `json:"Heading"`
	Abstract       string         `json:"Abstract"`
	AbstractSource string         `json:"AbstractSource"`
	AbstractURL    string         `json:"AbstractURL"`
	RelatedTopics  []RelatedTopic `json:"RelatedTopics"`
}

// RelatedTopic is one related entry. Category groups carry Name and Topics
// instead of Text and are ignored by the researcher.
type RelatedTopic struct {
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Name     string         `json:"Name,omitempty"`
	Topics   []RelatedTopic `json:"Topics,omitempty"`
}

// DuckDuckGoClient queries the DuckDuckGo Instant Answer API.
type DuckDuckGoClient struct {
	Client  *http.Client
	BaseURL string
}

// NewDuckDuckGoClient builds a client from cfg. An empty BaseURL selects
// DuckDuckGoAPIBase.
func NewDuckDuckGoClient(cfg types.SearchConfig) *DuckDuckGoClient {
	base := cfg.BaseURL
	if base == "" {
		base = DuckDuckGoAPIBase
	}
	return &DuckDuckGoClient{
		Client:  httputil.NewClient(cfg.HTTPConfig),
		BaseURL: base,
	}
}

// Lookup issues one Instant Answer request for query.
func (c *DuckDuckGoClient) Lookup(ctx context.Context, query string) (InstantAnswer, error) {
	if strings.TrimSpace(query) == "" {
		return InstantAnswer{}, fmt.Errorf("empty DuckDuckGo query")
	}

	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}
	reqURL := c.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return InstantAnswer{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return InstantAnswer{}, fmt.Errorf("DuckDuckGo API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return InstantAnswer{}, fmt.Errorf("DuckDuckGo API returned HTTP %d", resp.StatusCode)
	}

	var ia InstantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&ia); err != nil {
		return InstantAnswer{}, fmt.Errorf("parsing DuckDuckGo response: %w", err)
	}
	return ia, nil
}
