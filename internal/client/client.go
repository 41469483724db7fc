// Package client provides an HTTP client for the planforge server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client talks to the planforge server's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses PLANFORGE_SERVER_URL env var or defaults to localhost:8000.
// Timeout can be configured via PLANFORGE_CLIENT_TIMEOUT env var (default 2m).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("PLANFORGE_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := 2 * time.Minute
	if t := os.Getenv("PLANFORGE_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Submission is the server's acknowledgement of a generation request.
type Submission struct {
	Accepted    bool   `json:"accepted"`
	JobID       string `json:"job_id"`
	AthleteName string `json:"athlete_name"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

// Status describes the current state of an athlete's job.
type Status struct {
	AthleteName       string `json:"athlete_name"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	ArtifactAvailable bool   `json:"artifact_available"`
}

// Job is one entry in the server's job listing.
type Job struct {
	JobID       string `json:"job_id"`
	AthleteName string `json:"athlete_name"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// apiError covers the server's failure body shapes: rejected submissions
// carry "reason", download failures carry the status body's "message", and
// internal errors carry "error".
type apiError struct {
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (e apiError) text() string {
	switch {
	case e.Error != "":
		return e.Error
	case e.Reason != "":
		return e.Reason
	default:
		return e.Message
	}
}

// StatusError is returned for non-2xx responses, preserving the HTTP
// status code so callers can distinguish 404 from 409.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Submit requests training-plan generation for an athlete.
func (c *Client) Submit(ctx context.Context, athleteName, goals string) (*Submission, error) {
	body, err := json.Marshal(map[string]string{
		"athlete_name": athleteName,
		"goals":        goals,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/training-plan", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var sub Submission
	if err := c.do(req, http.StatusAccepted, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Status fetches the current job state for an athlete. A 404 is not an
// error: the returned Status carries the server's not_found payload.
func (c *Client) Status(ctx context.Context, athleteName string) (*Status, error) {
	u := c.baseURL + "/training-plan/" + url.PathEscape(athleteName) + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return nil, readStatusError(resp)
	}

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &st, nil
}

// Download fetches the generated spreadsheet into dir and returns the
// written file path. The filename comes from the server's
// Content-Disposition header.
func (c *Client) Download(ctx context.Context, athleteName, dir string) (string, error) {
	u := c.baseURL + "/training-plan/" + url.PathEscape(athleteName) + "/download"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readStatusError(resp)
	}

	name := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = "training_plan.xlsx"
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// Jobs returns all jobs known to the server, most recent first.
func (c *Client) Jobs(ctx context.Context) ([]Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var jobs []Job
	if err := c.do(req, http.StatusOK, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// WatchEvents subscribes to the server's status stream for an athlete.
// The onStatus callback is invoked for each pushed update; return an
// error from it to abort. Returns nil when the server closes the stream
// after a terminal status.
func (c *Client) WatchEvents(ctx context.Context, athleteName string, onStatus func(Status) error) error {
	wsURL := c.baseURL
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL += "/training-plan/" + url.PathEscape(athleteName) + "/events"

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var st Status
		if err := conn.ReadJSON(&st); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read status: %w", err)
		}
		if err := onStatus(st); err != nil {
			return err
		}
	}
}

// do executes a request expecting wantCode and decodes the JSON body into out.
func (c *Client) do(req *http.Request, wantCode int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantCode {
		return readStatusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return &StatusError{Code: resp.StatusCode, Message: resp.Status}
	}
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.text() != "" {
		return &StatusError{Code: resp.StatusCode, Message: apiErr.text()}
	}
	return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

// filenameFromDisposition extracts the filename from a
// Content-Disposition attachment header.
func filenameFromDisposition(header string) string {
	const marker = "filename="
	idx := strings.Index(header, marker)
	if idx < 0 {
		return ""
	}
	name := header[idx+len(marker):]
	name = strings.Trim(name, `"`)
	// Reject anything that could escape the target directory.
	if strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}
