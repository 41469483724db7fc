package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/planforge/planforge/internal/job"
)

// eventPollInterval is how often the events stream re-checks job status.
const eventPollInterval = time.Second

// eventWriteTimeout bounds each push so a stalled client cannot pin the
// handler goroutine.
const eventWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The CLI connects from arbitrary origins; the endpoint only exposes
	// status information that is already readable over plain GET.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents streams status updates for an athlete's job over a
// WebSocket until the job reaches a terminal state. The current status
// is pushed immediately on connect, then on every poll tick.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "athleteName")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "athlete", name, "error", err)
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventPollInterval)
	defer ticker.Stop()

	for {
		info := s.plans.Status(name)
		msg := statusResponse{
			AthleteName:       name,
			Status:            string(info.Status),
			Message:           info.Message,
			ArtifactAvailable: info.ArtifactAvailable,
		}
		_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}

		if info.Status.Terminal() || info.Status == job.StatusNotFound {
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}

		select {
		case <-ticker.C:
		case <-r.Context().Done():
			return
		}
	}
}
