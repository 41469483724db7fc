package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planforge/planforge/internal/generate"
	"github.com/planforge/planforge/internal/job"
	"github.com/planforge/planforge/internal/service"
)

type fakeGenerator struct {
	mu      sync.Mutex
	release chan struct{}
	result  generate.Result
	err     error
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{release: make(chan struct{})}
}

func (g *fakeGenerator) Generate(ctx context.Context, req generate.Request) (generate.Result, error) {
	g.mu.Lock()
	release := g.release
	g.mu.Unlock()
	<-release
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result, g.err
}

func (g *fakeGenerator) finish(result generate.Result, err error) {
	g.mu.Lock()
	g.result = result
	g.err = err
	close(g.release)
	g.mu.Unlock()
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeGenerator, *service.PlanService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := newFakeGenerator()
	svc := service.NewPlanService(job.NewStore(nil), gen, logger)
	srv := httptest.NewServer(New(svc, logger).Handler())
	t.Cleanup(srv.Close)
	return srv, gen, svc
}

func submitJSON(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(srv.URL+"/training-plan", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestSubmitAccepted(t *testing.T) {
	srv, gen, svc := newTestServer(t)
	defer svc.Wait()
	defer gen.finish(generate.Result{}, nil)

	resp := submitJSON(t, srv, `{"athlete_name": "Jane Doe", "goals": "run a marathon"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	body := decodeBody[submitResponse](t, resp)
	assert.True(t, body.Accepted)
	assert.NotEmpty(t, body.JobID)
	assert.Equal(t, "Jane Doe", body.AthleteName)
	assert.Equal(t, string(job.StatusProcessing), body.Status)
	assert.Empty(t, body.Reason)
}

func TestSubmitEmptyName(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, body := range []string{`{"athlete_name": ""}`, `{"athlete_name": "   "}`, `{}`} {
		resp := submitJSON(t, srv, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)
		rej := decodeBody[submitResponse](t, resp)
		assert.False(t, rej.Accepted, "body: %s", body)
		assert.NotEmpty(t, rej.Reason, "body: %s", body)
	}
}

func TestSubmitInvalidJSON(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := submitJSON(t, srv, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	rej := decodeBody[submitResponse](t, resp)
	assert.False(t, rej.Accepted)
	assert.Equal(t, "invalid request body", rej.Reason)
}

func TestSubmitConflictWhileProcessing(t *testing.T) {
	srv, gen, svc := newTestServer(t)
	defer svc.Wait()

	resp := submitJSON(t, srv, `{"athlete_name": "Jane Doe"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Same athlete with different casing and spacing maps to the same job.
	resp = submitJSON(t, srv, `{"athlete_name": "JANE   doe"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	rej := decodeBody[submitResponse](t, resp)
	assert.False(t, rej.Accepted)
	assert.Contains(t, rej.Reason, "already in progress")

	gen.finish(generate.Result{}, nil)
}

func TestStatusLifecycle(t *testing.T) {
	srv, gen, svc := newTestServer(t)

	resp := submitJSON(t, srv, `{"athlete_name": "Jane Doe"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/training-plan/Jane%20Doe/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[statusResponse](t, resp)
	assert.Equal(t, string(job.StatusProcessing), body.Status)
	assert.False(t, body.ArtifactAvailable)

	gen.finish(generate.Result{Summary: "4 workouts", ArtifactPath: "/tmp/nope.xlsx"}, nil)
	svc.Wait()

	resp, err = http.Get(srv.URL + "/training-plan/jane%20doe/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody[statusResponse](t, resp)
	assert.Equal(t, string(job.StatusCompleted), body.Status)
	assert.True(t, body.ArtifactAvailable)
}

func TestStatusUnknownAthlete(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/training-plan/Nobody/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody[statusResponse](t, resp)
	assert.Equal(t, string(job.StatusNotFound), body.Status)
	assert.Contains(t, body.Message, "no training plan found")
}

func TestDownload(t *testing.T) {
	srv, gen, svc := newTestServer(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "jane_doe_training_plan.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("workbook-bytes"), 0o644))

	resp := submitJSON(t, srv, `{"athlete_name": "Jane Doe"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Not ready while still processing; the error body carries the job state.
	resp, err := http.Get(srv.URL + "/training-plan/Jane%20Doe/download")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	notReady := decodeBody[statusResponse](t, resp)
	assert.Equal(t, string(job.StatusProcessing), notReady.Status)
	assert.False(t, notReady.ArtifactAvailable)

	gen.finish(generate.Result{Summary: "done", ArtifactPath: path}, nil)
	svc.Wait()

	resp, err = http.Get(srv.URL + "/training-plan/Jane%20Doe/download")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "jane_doe_training_plan.xlsx")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "workbook-bytes", string(data))
}

func TestDownloadUnknownAthlete(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/training-plan/Nobody/download")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody[statusResponse](t, resp)
	assert.Equal(t, string(job.StatusNotFound), body.Status)
	assert.False(t, body.ArtifactAvailable)
}

func TestDownloadFailedJob(t *testing.T) {
	srv, gen, svc := newTestServer(t)

	resp := submitJSON(t, srv, `{"athlete_name": "Jane Doe"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	gen.finish(generate.Result{}, fmt.Errorf("strava unreachable"))
	svc.Wait()

	resp, err := http.Get(srv.URL + "/training-plan/Jane%20Doe/download")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody[statusResponse](t, resp)
	assert.Equal(t, string(job.StatusFailed), body.Status)
	assert.NotEmpty(t, body.Message)
	assert.False(t, body.ArtifactAvailable)
}

func TestDownloadArtifactGone(t *testing.T) {
	srv, gen, svc := newTestServer(t)

	resp := submitJSON(t, srv, `{"athlete_name": "Jane Doe"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	gen.finish(generate.Result{Summary: "done", ArtifactPath: filepath.Join(t.TempDir(), "gone.xlsx")}, nil)
	svc.Wait()

	resp, err := http.Get(srv.URL + "/training-plan/Jane%20Doe/download")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody[statusResponse](t, resp)
	assert.Equal(t, string(job.StatusCompleted), body.Status)
	assert.False(t, body.ArtifactAvailable)
	assert.Contains(t, body.Message, "no longer available")
}

func TestJobsListing(t *testing.T) {
	srv, gen, svc := newTestServer(t)

	resp := submitJSON(t, srv, `{"athlete_name": "Jane Doe"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	gen.finish(generate.Result{Summary: "done"}, nil)
	svc.Wait()

	resp, err := http.Get(srv.URL + "/jobs")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	jobs := decodeBody[[]jobResponse](t, resp)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Jane Doe", jobs[0].AthleteName)
	assert.Equal(t, string(job.StatusCompleted), jobs[0].Status)
}

func TestRequestLoggerTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("a", 250)
	got := truncate(long, maxPathLogLen)
	assert.Len(t, got, maxPathLogLen)
	assert.True(t, strings.HasSuffix(got, "..."))
}
