package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cadence/internal/snapshot"
)

// ErrNoSession is returned by Recover when nothing was journaled for the
// requested dataset and identity.
var ErrNoSession = errors.New("journal: no recorded session for that dataset and identity")

// Store manages autosave persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Event is one journaled state change.
type Event struct {
	Kind   string // "submit" or "clear"
	Key    string
	Left   string
	Right  string
	Video  string
	Winner string
	Level  int
	Score  int
	Cursor int
	At     time.Time
}

// SessionMeta describes one journaled session.
type SessionMeta struct {
	ID        string
	Dataset   string
	Identity  snapshot.Identity
	Mode      snapshot.Mode
	StartedAt time.Time
	UpdatedAt time.Time
	Events    int
}

// Open initializes or connects to the journal database and applies
// migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginSession records a new live session and returns its identifier.
func (s *Store) BeginSession(ctx context.Context, dataset string, identity snapshot.Identity, mode snapshot.Mode) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, dataset, identity_id, identity_name, role, slot, mode, started_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, dataset, identity.ID, identity.Name, identity.Role, identity.Slot, string(mode), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// Append journals one event for a session.
func (s *Store) Append(ctx context.Context, sessionID string, event Event) error {
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}
	timestamp := at.UTC().Format(time.RFC3339Nano)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (session_id, kind, comparison_key, left_id, right_id, video_id, winner, level, score, cursor, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, event.Kind, event.Key, event.Left, event.Right, event.Video, event.Winner,
		event.Level, event.Score, event.Cursor, timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", timestamp, sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// Sessions lists journaled sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]SessionMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.dataset, s.identity_id, s.identity_name, s.role, s.slot, s.mode,
                s.started_at, s.updated_at, COUNT(e.id)
         FROM sessions s LEFT JOIN events e ON e.session_id = s.id
         GROUP BY s.id ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionMeta
	for rows.Next() {
		var meta SessionMeta
		var mode, started, updated string
		if err := rows.Scan(&meta.ID, &meta.Dataset, &meta.Identity.ID, &meta.Identity.Name,
			&meta.Identity.Role, &meta.Identity.Slot, &mode, &started, &updated, &meta.Events); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		meta.Mode = snapshot.Mode(mode)
		meta.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		meta.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		sessions = append(sessions, meta)
	}
	return sessions, rows.Err()
}

// Recover replays the most recent session for a dataset and identity into a
// snapshot an annotator can import to pick up where the crash left off.
func (s *Store) Recover(ctx context.Context, dataset, identityID string) (*snapshot.Snapshot, error) {
	var meta SessionMeta
	var mode, started, updated string
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset, identity_id, identity_name, role, slot, mode, started_at, updated_at
         FROM sessions WHERE dataset = ? AND identity_id = ?
         ORDER BY started_at DESC LIMIT 1`, dataset, identityID)
	err := row.Scan(&meta.ID, &meta.Dataset, &meta.Identity.ID, &meta.Identity.Name,
		&meta.Identity.Role, &meta.Identity.Slot, &mode, &started, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	meta.Mode = snapshot.Mode(mode)
	meta.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	meta.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)

	events, err := s.events(ctx, meta.ID)
	if err != nil {
		return nil, err
	}
	return replay(meta, events), nil
}

func (s *Store) events(ctx context.Context, sessionID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, comparison_key, left_id, right_id, video_id, winner, level, score, cursor, recorded_at
         FROM events WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var at string
		if err := rows.Scan(&event.Kind, &event.Key, &event.Left, &event.Right, &event.Video,
			&event.Winner, &event.Level, &event.Score, &event.Cursor, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.At, _ = time.Parse(time.RFC3339Nano, at)
		events = append(events, event)
	}
	return events, rows.Err()
}
