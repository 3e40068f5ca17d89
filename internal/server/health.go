package server

import (
	"net/http"
	"time"

	"github.com/oskhen/revue/internal/breaker"
)

// handleHealth reports liveness plus the state of every circuit
// breaker. The endpoint stays 200 even with open circuits; degradation
// is visible in the body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	statuses := map[string]breaker.Status{}
	if s.breakers != nil {
		statuses = s.breakers.Statuses()
	}

	status := "ok"
	for _, st := range statuses {
		if st.State != breaker.StateClosed {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"uptime":   time.Since(s.startedAt).Round(time.Second).String(),
		"circuits": statuses,
	})
}
