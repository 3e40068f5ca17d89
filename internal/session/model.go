// Package session persists run conversations so clients can resume or
// inspect them after the run completes. Storage is sqlite with a TTL:
// expired sessions are purged lazily on access.
package session

import (
	"time"

	"github.com/oskhen/revue/internal/engine"
)

// Session is a persisted conversation.
type Session struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	History   []engine.Message `json:"history"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	Summary   string           `json:"summary,omitempty"`
}

// Meta is the lightweight listing view of a session.
type Meta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Summary   string    `json:"summary,omitempty"`
}
