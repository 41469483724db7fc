package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New("", ""); err == nil {
		t.Error("New() accepted an empty API key")
	}
}

func TestSearchWorkouts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.APIKey != "test-key" {
			t.Errorf("api_key = %q", req.APIKey)
		}
		if !strings.Contains(req.Query, "run workout") {
			t.Errorf("query = %q, want sport and goal in it", req.Query)
		}
		if !strings.Contains(req.Query, "improve 10k time") {
			t.Errorf("query = %q, goal missing", req.Query)
		}

		json.NewEncoder(w).Encode(searchResponse{Results: []Idea{
			{Title: "Tempo Tuesdays", URL: "https://example.com/tempo", Content: "20 min at threshold."},
			{Title: "800m Repeats", URL: "https://example.com/800s", Content: "Classic 10k sharpener."},
		}})
	}))
	defer srv.Close()

	c, err := New("test-key", srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	ideas, err := c.SearchWorkouts(context.Background(), "run", "improve 10k time")
	if err != nil {
		t.Fatalf("SearchWorkouts() error = %v", err)
	}
	if len(ideas) != 2 {
		t.Fatalf("got %d ideas, want 2", len(ideas))
	}
	if ideas[0].Title != "Tempo Tuesdays" {
		t.Errorf("first idea = %+v", ideas[0])
	}
}

func TestSearchWorkoutsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New("bad-key", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SearchWorkouts(context.Background(), "run", ""); err == nil {
		t.Error("SearchWorkouts() succeeded on server error")
	}
}

func TestFormatIdeas(t *testing.T) {
	if got := FormatIdeas(nil); got != "" {
		t.Errorf("FormatIdeas(nil) = %q, want empty", got)
	}

	out := FormatIdeas([]Idea{{Title: "Tempo Tuesdays", Content: "20 min at threshold."}})
	if !strings.Contains(out, "Tempo Tuesdays") || !strings.Contains(out, "threshold") {
		t.Errorf("FormatIdeas() = %q", out)
	}
}
