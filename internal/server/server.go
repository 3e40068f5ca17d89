// Package server exposes the orchestration engine over HTTP: a
// streaming run endpoint, session management and a health probe.
package server

import (
	"net/http"
	"time"

	"github.com/oskhen/revue/internal/breaker"
	"github.com/oskhen/revue/internal/engine"
	"github.com/oskhen/revue/internal/ratelimit"
	"github.com/oskhen/revue/internal/session"
)

// Server wires the engine and its collaborators to HTTP handlers.
type Server struct {
	engine     *engine.Engine
	sessions   *session.Store
	breakers   *breaker.Registry
	limiter    *ratelimit.Limiter
	summarizer *session.Summarizer
	startedAt  time.Time
}

// New creates a server. The limiter may be nil to disable rate
// limiting (tests, mostly).
func New(eng *engine.Engine, sessions *session.Store, breakers *breaker.Registry, limiter *ratelimit.Limiter) *Server {
	return &Server{
		engine:    eng,
		sessions:  sessions,
		breakers:  breakers,
		limiter:   limiter,
		startedAt: time.Now(),
	}
}

// SetSummarizer enables model-generated session titles and summaries
// after each run.
func (s *Server) SetSummarizer(sum *session.Summarizer) {
	s.summarizer = sum
}

// Handler returns the routed handler with rate limiting applied.
// Health probes are never rate limited.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /agent/run", s.handleRun)
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.limiter == nil {
		return mux
	}
	return ratelimit.Middleware(s.limiter, []string{"/health"}, mux)
}
