package strava

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func testConfig(baseURL, tokenURL string) Config {
	return Config{
		ClientID:     "12345",
		ClientSecret: "secret",
		AccessToken:  "stale-token",
		RefreshToken: "refresh-token",
		BaseURL:      baseURL,
		TokenURL:     tokenURL,
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	cfgs := []Config{
		{},
		{ClientID: "1", ClientSecret: "s", AccessToken: "a"},
		{ClientID: "1", ClientSecret: "s", RefreshToken: "r"},
	}
	for _, cfg := range cfgs {
		if _, err := New(cfg); err == nil {
			t.Errorf("New(%+v) accepted incomplete credentials", cfg)
		}
	}
}

func TestAthleteAndStats(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer stale-token" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/athlete":
			json.NewEncoder(w).Encode(map[string]any{
				"id": 42, "firstname": "Jane", "lastname": "Doe", "weight": 61.5,
			})
		case "/athletes/42/stats":
			json.NewEncoder(w).Encode(map[string]any{
				"recent_run_totals": map[string]any{
					"count": 8, "distance": 64230.0, "moving_time": 21600, "elevation_gain": 410.0,
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer api.Close()

	c, err := New(testConfig(api.URL, api.URL+"/oauth/token"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	athlete, err := c.Athlete(context.Background())
	if err != nil {
		t.Fatalf("Athlete() error = %v", err)
	}
	if athlete.ID != 42 || athlete.FirstName != "Jane" {
		t.Errorf("athlete = %+v", athlete)
	}

	stats, err := c.Stats(context.Background(), athlete.ID)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.RecentRunTotals.Count != 8 {
		t.Errorf("recent run count = %d, want 8", stats.RecentRunTotals.Count)
	}
}

func TestRefreshOnUnauthorized(t *testing.T) {
	var refreshes atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("refresh_token") != "refresh-token" {
			t.Errorf("refresh_token = %q", r.Form.Get("refresh_token"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "fresh-token",
			"refresh_token": "next-refresh-token",
		})
	})
	mux.HandleFunc("/athlete", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer fresh-token" {
			json.NewEncoder(w).Encode(map[string]any{"id": 42, "firstname": "Jane"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(testConfig(srv.URL, srv.URL+"/oauth/token"))
	if err != nil {
		t.Fatal(err)
	}

	athlete, err := c.Athlete(context.Background())
	if err != nil {
		t.Fatalf("Athlete() after refresh error = %v", err)
	}
	if athlete.ID != 42 {
		t.Errorf("athlete.ID = %d", athlete.ID)
	}
	if refreshes.Load() != 1 {
		t.Errorf("token refreshed %d times, want 1", refreshes.Load())
	}

	// The rotated refresh token must be kept for the next refresh.
	c.mu.Lock()
	got := c.refreshToken
	c.mu.Unlock()
	if got != "next-refresh-token" {
		t.Errorf("refresh token = %q, want rotated value", got)
	}
}

func TestRefreshFailureSurfaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
	})
	mux.HandleFunc("/athlete", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(testConfig(srv.URL, srv.URL+"/oauth/token"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Athlete(context.Background()); err == nil {
		t.Error("Athlete() succeeded despite failed token refresh")
	}
}

func TestSummarize(t *testing.T) {
	ftp := 230.0
	athlete := Athlete{FirstName: "Jane", LastName: "Doe", City: "Graz", Country: "Austria", Weight: 61.5, FTP: &ftp}
	stats := Stats{
		RecentRunTotals: Totals{Count: 8, Distance: 64230, MovingTime: 21600, ElevationGain: 410},
	}

	s := Summarize(athlete, stats)

	for _, want := range []string{
		"Jane Doe",
		"Graz, Austria",
		"61.5 kg",
		"FTP: 230 W",
		"Recent runs (last 4 weeks): 8 activities, 64.23 km, 6.00 hours moving, 410 m elevation gain",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "Recent rides") {
		t.Error("summary includes a window with zero activities")
	}
}

func TestSummarizePartialLocation(t *testing.T) {
	tests := []struct {
		athlete Athlete
		want    string
	}{
		{Athlete{FirstName: "Jane", LastName: "Doe", City: "Graz"}, "Athlete: Jane Doe (Graz)\n"},
		{Athlete{FirstName: "Jane", LastName: "Doe", Country: "Austria"}, "Athlete: Jane Doe (Austria)\n"},
		{Athlete{FirstName: "Jane", LastName: "Doe"}, "Athlete: Jane Doe\n"},
	}
	for _, tt := range tests {
		s := Summarize(tt.athlete, Stats{})
		if !strings.HasPrefix(s, tt.want) {
			t.Errorf("Summarize(%+v) header = %q, want prefix %q", tt.athlete, s, tt.want)
		}
	}
}
