// Package research finds workout reference material on the web via the
// Tavily search API.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the Tavily search API endpoint.
const DefaultEndpoint = "https://api.tavily.com/search"

const defaultMaxResults = 5

// Client searches Tavily for workout ideas.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// New creates a search client. endpoint may be empty to use the default.
func New(apiKey, endpoint string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing Tavily API key")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Idea is one workout reference found on the web.
type Idea struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Results []Idea `json:"results"`
}

// SearchWorkouts queries for workout ideas matching the sport and goal, e.g.
// SearchWorkouts(ctx, "run", "improve 10k time").
func (c *Client) SearchWorkouts(ctx context.Context, sportType, goal string) ([]Idea, error) {
	parts := []string{sportType, "workout"}
	if goal != "" {
		parts = append(parts, goal)
	}

	reqBody, err := json.Marshal(searchRequest{
		APIKey:      c.apiKey,
		Query:       strings.Join(parts, " "),
		SearchDepth: "advanced",
		MaxResults:  defaultMaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily search: %s - %s", resp.Status, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return sr.Results, nil
}

// FormatIdeas renders search results as plain text for the planning prompt.
func FormatIdeas(ideas []Idea) string {
	if len(ideas) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Workout ideas from recent coaching articles:\n")
	for _, idea := range ideas {
		fmt.Fprintf(&b, "- %s: %s\n", idea.Title, idea.Content)
	}
	return b.String()
}
