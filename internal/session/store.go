package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oskhen/revue/internal/engine"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Store persists sessions in sqlite.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// NewStore opens (creating if needed) the session database at dbPath.
// A non-positive ttl disables expiry.
func NewStore(ctx context.Context, dbPath string, ttl time.Duration) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create session db directory: %w", err)
		}
	}

	// WAL mode allows readers alongside the single writer.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}

	s := &Store{db: db, ttl: ttl}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		history    TEXT NOT NULL,
		metadata   TEXT NOT NULL DEFAULT '{}',
		summary    TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save inserts or replaces a session, stamping UpdatedAt.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	history, err := json.Marshal(sess.History)
	if err != nil {
		return fmt.Errorf("failed to marshal session history: %w", err)
	}
	metadata := []byte("{}")
	if sess.Metadata != nil {
		metadata, err = json.Marshal(sess.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal session metadata: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, history, metadata, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			history    = excluded.history,
			metadata   = excluded.metadata,
			summary    = excluded.summary,
			updated_at = excluded.updated_at`,
		sess.ID, sess.Title, string(history), string(metadata), sess.Summary,
		sess.CreatedAt.Unix(), sess.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	return nil
}

// Load retrieves a session by ID. Expired sessions are purged first.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	s.purgeExpired(ctx)

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, history, metadata, summary, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	var sess Session
	var history, metadata string
	var createdAt, updatedAt int64
	err := row.Scan(&sess.ID, &sess.Title, &history, &metadata, &sess.Summary, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(history), &sess.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session history: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &sess.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session metadata: %w", err)
	}
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.UpdatedAt = time.Unix(updatedAt, 0)
	return &sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// List returns session metadata, newest first.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	s.purgeExpired(ctx)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, summary, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	metas := []Meta{}
	for rows.Next() {
		var m Meta
		var createdAt, updatedAt int64
		if err := rows.Scan(&m.ID, &m.Title, &m.Summary, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		m.CreatedAt = time.Unix(createdAt, 0)
		m.UpdatedAt = time.Unix(updatedAt, 0)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// AppendHistory merges new messages onto a session, creating it when
// absent.
func (s *Store) AppendHistory(ctx context.Context, id string, messages []engine.Message, metadata map[string]any) error {
	sess, err := s.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		sess = &Session{ID: id}
	} else if err != nil {
		return err
	}

	sess.History = append(sess.History, messages...)
	if metadata != nil {
		if sess.Metadata == nil {
			sess.Metadata = map[string]any{}
		}
		for k, v := range metadata {
			sess.Metadata[k] = v
		}
	}
	if sess.Title == "" && len(sess.History) > 0 {
		sess.Title = defaultTitle(sess.History[0].Content)
	}
	return s.Save(ctx, sess)
}

func (s *Store) purgeExpired(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.ttl).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		log.Printf("session expiry purge failed: %v", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("purged %d expired sessions", n)
	}
}

// defaultTitle derives a listing title from the first user message.
func defaultTitle(content string) string {
	const max = 60
	if len(content) > max {
		return content[:max]
	}
	if content == "" {
		return "New Session"
	}
	return content
}
