package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oskhen/revue/internal/engine"
)

// runRequest is the body of POST /agent/run.
type runRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// handleRun starts an orchestration run and streams its deltas as
// newline-delimited JSON. The response stays open until the run emits
// its done marker or the client disconnects.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Session-ID", req.SessionID)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	var final *engine.RunState
	for delta := range s.engine.Run(r.Context(), req.Message, req.SessionID) {
		if delta.Kind == engine.DeltaDone {
			final = delta.Final
		}
		if err := enc.Encode(delta); err != nil {
			log.Printf("client disconnected mid-run: %v", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if final != nil {
		s.persistRun(req.SessionID, req.Message, final)
	}
}

// persistRun appends the run's conversation to the session after the
// stream completes. Persistence failures are logged, not surfaced; the
// client already has the full run.
func (s *Server) persistRun(sessionID, userMessage string, final *engine.RunState) {
	if s.sessions == nil {
		return
	}

	messages := []engine.Message{{Role: engine.RoleUser, Content: userMessage}}
	for _, m := range final.Messages {
		if m.Role == engine.RoleAssistant {
			messages = append(messages, m)
		}
	}

	metadata := map[string]any{
		"last_run_id":     final.Metadata["run_id"],
		"iteration_count": final.IterationCount,
	}
	if files := final.WrittenFiles(); len(files) > 0 {
		metadata["written_files"] = files
	}

	// The request context is gone by the time the stream completes, so
	// persistence runs on its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.sessions.AppendHistory(ctx, sessionID, messages, metadata); err != nil {
		log.Printf("failed to persist session %s: %v", sessionID, err)
		return
	}
	s.summarize(ctx, sessionID)
}

// summarize refreshes the session's generated title and carry-over
// summary. Failures are logged; the derived title remains.
func (s *Server) summarize(ctx context.Context, sessionID string) {
	if s.summarizer == nil {
		return
	}
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		log.Printf("failed to reload session %s for summarization: %v", sessionID, err)
		return
	}

	if title, err := s.summarizer.GenerateTitle(ctx, sess.History); err != nil {
		log.Printf("title generation failed for %s: %v", sessionID, err)
	} else if title != "" {
		sess.Title = title
	}
	if summary, err := s.summarizer.GenerateSummary(ctx, sess.History); err != nil {
		log.Printf("summary generation failed for %s: %v", sessionID, err)
	} else {
		sess.Summary = summary
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		log.Printf("failed to save summarized session %s: %v", sessionID, err)
	}
}
