package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cadence/internal/journal"
	"cadence/internal/logging"
	"cadence/internal/session"
	"cadence/internal/snapshot"
)

// Journal abstracts the autosave sink so the service works without one.
type Journal interface {
	Append(ctx context.Context, sessionID string, event journal.Event) error
}

// SubmitRequest is one judgment from the UI.
type SubmitRequest struct {
	Level        *int    `json:"level,omitempty"`
	Winner       string  `json:"winner,omitempty"`
	WatchedLeft  float64 `json:"watchedLeft,omitempty"`
	WatchedRight float64 `json:"watchedRight,omitempty"`
}

// SessionService serializes access to one annotator's progress store. All
// mutations funnel through its mutex, preserving the single-actor model the
// store assumes even under a concurrent HTTP server.
type SessionService struct {
	mu        sync.Mutex
	store     *session.Store
	journal   Journal
	journalID string
	mediaBase string
	logger    *slog.Logger
}

// NewSessionService wraps a store. journal and logger may be nil.
func NewSessionService(store *session.Store, jnl Journal, journalID, mediaBase string, logger *slog.Logger) *SessionService {
	if store == nil {
		return nil
	}
	return &SessionService{
		store:     store,
		journal:   jnl,
		journalID: journalID,
		mediaBase: mediaBase,
		logger:    logging.WithComponent(logger, "session"),
	}
}

// View snapshots the current state for rendering.
func (s *SessionService) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *SessionService) viewLocked() SessionView {
	identity := s.store.Identity()
	cov := s.store.Coverage()
	view := SessionView{
		Annotator: identity.Name,
		Role:      identity.Role,
		Dataset:   s.store.Salt(),
		Mode:      string(s.store.Mode()),
		Cursor:    s.store.Cursor(),
		History:   s.store.Len(),
		Dirty:     s.store.Dirty(),
		Coverage:  CoverageView(cov),
	}
	if entry, ok := s.store.Current(); ok {
		view.Current = entryView(entry, s.store.Cursor(), s.mediaBase)
	}
	return view
}

// Submit records a judgment at the current cursor and journals it.
func (s *SessionService) Submit(ctx context.Context, req SubmitRequest) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := session.Submission{
		Winner:       req.Winner,
		WatchedLeft:  req.WatchedLeft,
		WatchedRight: req.WatchedRight,
		At:           time.Now(),
	}
	if req.Level != nil {
		sub.Level = session.Level(*req.Level)
	} else if req.Winner == "" {
		return SessionView{}, fmt.Errorf("submission needs a preference level or a winner")
	}
	if err := s.store.Submit(sub); err != nil {
		return SessionView{}, err
	}
	if entry, ok := s.store.Current(); ok {
		if entry.Battle != nil {
			s.logger.Debug("judgment recorded",
				slog.String(logging.FieldBattle, entry.Battle.Video),
				slog.Int(logging.FieldCursor, s.store.Cursor()))
		} else {
			s.logger.Debug("judgment recorded",
				slog.String("pair", entry.Key()),
				slog.Int(logging.FieldCursor, s.store.Cursor()))
		}
	}
	s.journalCurrent(ctx, "submit")
	return s.viewLocked(), nil
}

// Clear wipes the judgment at the current cursor, keeping the slot.
func (s *SessionService) Clear(ctx context.Context) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ClearAt(s.store.Cursor()); err != nil {
		return SessionView{}, err
	}
	s.journalCurrent(ctx, "clear")
	return s.viewLocked(), nil
}

// Advance moves forward, drawing fresh work at the end of history.
// session.ErrNoWork passes through untouched; it is a terminal condition the
// transport maps to "all assigned work complete", not a failure.
func (s *SessionService) Advance(context.Context) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Advance(); err != nil {
		return SessionView{}, err
	}
	return s.viewLocked(), nil
}

// Seek moves the cursor by delta, clamped to history bounds.
func (s *SessionService) Seek(_ context.Context, delta int) SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Seek(delta)
	return s.viewLocked()
}

// Export serializes the session to snapshot bytes and clears the dirty flag.
func (s *SessionService) Export(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Export().Encode()
}

// Import validates raw snapshot bytes and atomically replaces history and
// cursor. On failure the prior state is untouched.
func (s *SessionService) Import(_ context.Context, data []byte, strict bool) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := snapshot.Decode(data)
	if err != nil {
		return SessionView{}, err
	}
	if err := s.store.Import(snap, strict); err != nil {
		return SessionView{}, err
	}
	s.logger.Info("snapshot imported",
		slog.String(logging.FieldDataset, snap.Dataset),
		slog.Int("entries", s.store.Len()))
	return s.viewLocked(), nil
}

// Snapshot returns the store's current snapshot without marking it saved for
// the annotator (used by reconciliation over the live ground-truth session).
func (s *SessionService) Snapshot() *snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasDirty := s.store.Dirty()
	snap := s.store.Export()
	if wasDirty {
		// Export clears the flag; reading for reconciliation must not count
		// as the annotator having saved their work.
		s.store.MarkDirty()
	}
	return snap
}

func (s *SessionService) journalCurrent(ctx context.Context, kind string) {
	if s.journal == nil {
		return
	}
	entry, ok := s.store.Current()
	if !ok {
		return
	}
	event := journal.Event{
		Kind:   kind,
		Key:    entry.Key(),
		Cursor: s.store.Cursor(),
		At:     time.Now(),
	}
	if entry.Battle != nil {
		event.Video = entry.Battle.Video
	} else {
		event.Left = entry.Left.ID
		event.Right = entry.Right.ID
	}
	if kind == "submit" && entry.Submission != nil {
		event.Winner = entry.Submission.Winner
		event.Level = int(entry.Submission.Level)
		event.Score = entry.Submission.Score
	}
	if err := s.journal.Append(ctx, s.journalID, event); err != nil {
		// Autosave failing must never block labeling; the exported snapshot
		// remains the durable artifact.
		s.logger.Warn("journal append failed", logging.Error(err))
	}
}
