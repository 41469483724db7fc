// Package strava is a minimal Strava API client covering what the planner
// needs: the authenticated athlete's profile and activity totals.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the Strava v3 API root.
	DefaultBaseURL = "https://www.strava.com/api/v3"

	// DefaultTokenURL is the OAuth token refresh endpoint.
	DefaultTokenURL = "https://www.strava.com/oauth/token"
)

// Config carries the OAuth credentials for one athlete connection.
type Config struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string

	// BaseURL and TokenURL override the Strava endpoints (tests).
	BaseURL  string
	TokenURL string
}

// Client calls the Strava API, refreshing the access token once on 401.
type Client struct {
	baseURL  string
	tokenURL string
	http     *http.Client

	clientID     string
	clientSecret string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// New creates a client. It fails fast when any credential is missing so a
// misconfigured deployment surfaces at startup, not on the first job.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.AccessToken == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("missing Strava API credentials")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	return &Client{
		baseURL:      baseURL,
		tokenURL:     tokenURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		accessToken:  cfg.AccessToken,
		refreshToken: cfg.RefreshToken,
	}, nil
}

// Athlete is the authenticated athlete's profile.
type Athlete struct {
	ID        int64    `json:"id"`
	FirstName string   `json:"firstname"`
	LastName  string   `json:"lastname"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Sex       string   `json:"sex"`
	Weight    float64  `json:"weight"` // kg
	FTP       *float64 `json:"ftp"`
}

// Totals aggregates one activity type over a window.
type Totals struct {
	Count         int     `json:"count"`
	Distance      float64 `json:"distance"`    // meters
	MovingTime    int64   `json:"moving_time"` // seconds
	ElevationGain float64 `json:"elevation_gain"`
}

// Stats holds the athlete's activity totals. Recent windows cover the last
// four weeks.
type Stats struct {
	RecentRideTotals Totals `json:"recent_ride_totals"`
	RecentRunTotals  Totals `json:"recent_run_totals"`
	RecentSwimTotals Totals `json:"recent_swim_totals"`
	YTDRideTotals    Totals `json:"ytd_ride_totals"`
	YTDRunTotals     Totals `json:"ytd_run_totals"`
	YTDSwimTotals    Totals `json:"ytd_swim_totals"`
	AllRideTotals    Totals `json:"all_ride_totals"`
	AllRunTotals     Totals `json:"all_run_totals"`
	AllSwimTotals    Totals `json:"all_swim_totals"`
}

// Athlete fetches the authenticated athlete's profile.
func (c *Client) Athlete(ctx context.Context) (Athlete, error) {
	var athlete Athlete
	if err := c.get(ctx, "/athlete", &athlete); err != nil {
		return Athlete{}, fmt.Errorf("fetch athlete: %w", err)
	}
	return athlete, nil
}

// Stats fetches activity totals for the athlete.
func (c *Client) Stats(ctx context.Context, athleteID int64) (Stats, error) {
	var stats Stats
	if err := c.get(ctx, fmt.Sprintf("/athletes/%d/stats", athleteID), &stats); err != nil {
		return Stats{}, fmt.Errorf("fetch athlete stats: %w", err)
	}
	return stats, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	resp, err := c.do(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("strava API %s: %s - %s", path, resp.Status, truncateBody(body))
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do performs an authenticated GET, refreshing the access token and retrying
// once when Strava answers 401.
func (c *Client) do(ctx context.Context, path string) (*http.Response, error) {
	resp, err := c.send(ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	if err := c.refreshAccessToken(ctx); err != nil {
		return nil, err
	}
	return c.send(ctx, path)
}

func (c *Client) send(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (c *Client) refreshAccessToken(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refresh token: %s - %s", resp.Status, truncateBody(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("token response missing access_token")
	}

	c.mu.Lock()
	c.accessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		c.refreshToken = tok.RefreshToken
	}
	c.mu.Unlock()
	return nil
}

func truncateBody(b []byte) string {
	const max = 200
	s := string(b)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
