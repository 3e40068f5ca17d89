package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/oskhen/revue/internal/engine"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "sessions.db"), ttl)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	sess := &Session{
		ID:    "abc",
		Title: "Fix login",
		History: []engine.Message{
			{Role: engine.RoleUser, Content: "fix the login bug"},
			{Role: engine.RoleAssistant, Content: "coder", Agent: "supervisor"},
		},
		Metadata: map[string]any{"run_id": "r-1"},
	}
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Title != "Fix login" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.History) != 2 || got.History[1].Agent != "supervisor" {
		t.Errorf("History = %+v", got.History)
	}
	if got.Metadata["run_id"] != "r-1" {
		t.Errorf("Metadata = %+v", got.Metadata)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestLoadMissing(t *testing.T) {
	s := newTestStore(t, 0)
	if _, err := s.Load(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	if err := s.Save(ctx, &Session{ID: "abc", Title: "v1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, &Session{ID: "abc", Title: "v2"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "v2" {
		t.Errorf("Title = %q, want v2", got.Title)
	}

	metas, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 {
		t.Errorf("List has %d entries, want 1", len(metas))
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	if err := s.Save(ctx, &Session{ID: "abc"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
	// Idempotent.
	if err := s.Delete(ctx, "abc"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	for _, id := range []string{"old", "mid", "new"} {
		if err := s.Save(ctx, &Session{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	// Backdate the older entries; timestamps have second precision.
	now := time.Now().Unix()
	s.db.Exec(`UPDATE sessions SET updated_at = ? WHERE id = 'old'`, now-20)
	s.db.Exec(`UPDATE sessions SET updated_at = ? WHERE id = 'mid'`, now-10)

	metas, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"new", "mid", "old"}
	if len(metas) != 3 {
		t.Fatalf("List has %d entries", len(metas))
	}
	for i, m := range metas {
		if m.ID != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, m.ID, want[i])
		}
	}
}

func TestTTLExpiry(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	if err := s.Save(ctx, &Session{ID: "stale"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, &Session{ID: "fresh"}); err != nil {
		t.Fatal(err)
	}
	s.db.Exec(`UPDATE sessions SET updated_at = ? WHERE id = 'stale'`, time.Now().Add(-2*time.Minute).Unix())

	if _, err := s.Load(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session survived: %v", err)
	}
	if _, err := s.Load(ctx, "fresh"); err != nil {
		t.Errorf("fresh session purged: %v", err)
	}
}

func TestAppendHistory(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	err := s.AppendHistory(ctx, "abc", []engine.Message{
		{Role: engine.RoleUser, Content: "review my diff please"},
	}, map[string]any{"run_id": "r-1"})
	if err != nil {
		t.Fatalf("AppendHistory (create): %v", err)
	}

	err = s.AppendHistory(ctx, "abc", []engine.Message{
		{Role: engine.RoleAssistant, Content: "done"},
	}, map[string]any{"run_id": "r-2"})
	if err != nil {
		t.Fatalf("AppendHistory (append): %v", err)
	}

	got, err := s.Load(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.History) != 2 {
		t.Errorf("History has %d messages, want 2", len(got.History))
	}
	if got.Metadata["run_id"] != "r-2" {
		t.Errorf("metadata not merged: %+v", got.Metadata)
	}
	if got.Title != "review my diff please" {
		t.Errorf("Title = %q, want derived from first message", got.Title)
	}
}
