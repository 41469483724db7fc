// Package server exposes the training-plan lifecycle over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/planforge/planforge/internal/job"
	"github.com/planforge/planforge/internal/service"
)

// Server routes training-plan requests to the plan service.
type Server struct {
	plans  *service.PlanService
	logger *slog.Logger
	router chi.Router
}

func New(plans *service.PlanService, logger *slog.Logger) *Server {
	s := &Server{
		plans:  plans,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(requestLogger(logger))

	r.Get("/health", s.handleHealth)
	r.Get("/jobs", s.handleJobs)
	r.Post("/training-plan", s.handleSubmit)
	r.Get("/training-plan/{athleteName}/status", s.handleStatus)
	r.Get("/training-plan/{athleteName}/download", s.handleDownload)
	r.Get("/training-plan/{athleteName}/events", s.handleEvents)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type submitRequest struct {
	AthleteName string `json:"athlete_name"`
	Goals       string `json:"goals,omitempty"`
}

type submitResponse struct {
	Accepted    bool   `json:"accepted"`
	JobID       string `json:"job_id,omitempty"`
	AthleteName string `json:"athlete_name,omitempty"`
	Status      string `json:"status,omitempty"`
	Message     string `json:"message,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type statusResponse struct {
	AthleteName       string `json:"athlete_name"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	ArtifactAvailable bool   `json:"artifact_available"`
}

type jobResponse struct {
	JobID       string `json:"job_id"`
	AthleteName string `json:"athlete_name"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRejected(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.plans.Submit(r.Context(), req.AthleteName, req.Goals)
	switch {
	case errors.Is(err, service.ErrEmptyAthleteName):
		writeRejected(w, http.StatusBadRequest, "athlete_name must not be empty")
		return
	case errors.Is(err, service.ErrAlreadyInProgress):
		writeRejected(w, http.StatusConflict, fmt.Sprintf("training plan generation for %q is already in progress", req.AthleteName))
		return
	case err != nil:
		s.logger.Error("submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{
		Accepted:    true,
		JobID:       rec.ID,
		AthleteName: rec.AthleteName,
		Status:      string(rec.Status),
		Message:     rec.Message,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "athleteName")
	info := s.plans.Status(name)

	code := http.StatusOK
	if info.Status == job.StatusNotFound {
		code = http.StatusNotFound
	}
	writeJSON(w, code, statusResponse{
		AthleteName:       name,
		Status:            string(info.Status),
		Message:           info.Message,
		ArtifactAvailable: info.ArtifactAvailable,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "athleteName")
	path, err := s.plans.Artifact(name)
	switch {
	// Download failures reuse the status body shape so a client learns the
	// job state from the error response alone.
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, statusResponse{
			AthleteName: name,
			Status:      string(job.StatusNotFound),
			Message:     fmt.Sprintf("no training plan found for athlete: %s", name),
		})
		return
	case errors.Is(err, service.ErrNotReady):
		info := s.plans.Status(name)
		writeJSON(w, http.StatusConflict, statusResponse{
			AthleteName:       name,
			Status:            string(info.Status),
			Message:           info.Message,
			ArtifactAvailable: false,
		})
		return
	case errors.Is(err, service.ErrArtifactMissing):
		writeJSON(w, http.StatusNotFound, statusResponse{
			AthleteName: name,
			Status:      string(job.StatusCompleted),
			Message:     "training plan file is no longer available",
		})
		return
	case err != nil:
		s.logger.Error("download failed", "athlete", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	records := s.plans.Jobs()
	out := make([]jobResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, jobResponse{
			JobID:       rec.ID,
			AthleteName: rec.AthleteName,
			Status:      string(rec.Status),
			CreatedAt:   rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt:   rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeRejected(w http.ResponseWriter, code int, reason string) {
	writeJSON(w, code, submitResponse{Reason: reason})
}
