package daemon

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"cadence/internal/api"
	"cadence/internal/assign"
	"cadence/internal/config"
	"cadence/internal/dataset"
	"cadence/internal/journal"
	"cadence/internal/logging"
	"cadence/internal/session"
	"cadence/internal/snapshot"
)

// ErrUnauthorized is returned for unknown annotators and bad passcodes. Both
// cases collapse into one error so sign-in does not leak roster membership.
var ErrUnauthorized = errors.New("daemon: unknown annotator or wrong passcode")

// ErrNoDataset is returned when sign-in is attempted while the candidate
// collection failed to load.
var ErrNoDataset = errors.New("daemon: candidate collection is unavailable")

// liveSession ties a signed-in annotator to their progress service. token is
// the currently valid bearer token; re-signing in replaces it.
type liveSession struct {
	annotator config.Annotator
	svc       *api.SessionService
	noWork    bool
	token     string
}

// registry owns the token table. One annotator gets at most one live session
// and at most one valid token; signing in again (a page reload, a second tab)
// hands out a fresh token for the same session, invalidating the old one, so
// progress is never forked and the token table stays bounded by the roster.
type registry struct {
	cfg     *config.Config
	col     *dataset.Collection
	journal *journal.Store
	logger  *slog.Logger

	mu       sync.Mutex
	byToken  map[string]*liveSession
	byRoster map[string]*liveSession
}

func newRegistry(cfg *config.Config, col *dataset.Collection, jnl *journal.Store, logger *slog.Logger) *registry {
	return &registry{
		cfg:      cfg,
		col:      col,
		journal:  jnl,
		logger:   logging.WithComponent(logger, "sessions"),
		byToken:  make(map[string]*liveSession),
		byRoster: make(map[string]*liveSession),
	}
}

// SignIn authenticates a roster entry and returns a bearer token for its live
// session, creating the session on first sign-in.
func (r *registry) SignIn(ctx context.Context, name, passcode string) (string, *liveSession, error) {
	annotator, ok := r.cfg.FindAnnotator(name)
	if !ok || subtle.ConstantTimeCompare([]byte(annotator.Passcode), []byte(passcode)) != 1 {
		return "", nil, ErrUnauthorized
	}
	if r.col == nil {
		return "", nil, ErrNoDataset
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	live := r.byRoster[annotator.ID]
	if live == nil {
		created, err := r.openSession(ctx, annotator)
		if err != nil {
			return "", nil, err
		}
		live = created
		r.byRoster[annotator.ID] = live
	}

	token := uuid.NewString()
	if live.token != "" {
		// One live token per roster entry. A reload or second tab replaces
		// the old token instead of accumulating stale entries.
		delete(r.byToken, live.token)
	}
	live.token = token
	r.byToken[token] = live
	r.logger.Info("annotator signed in",
		slog.String(logging.FieldAnnotator, annotator.Name),
		slog.String("role", annotator.Role),
		slog.String(logging.FieldSession, token[:8]))
	return token, live, nil
}

// openSession builds the progress store for one annotator, replaying the
// newest journaled session when one exists for this dataset and identity.
func (r *registry) openSession(ctx context.Context, annotator config.Annotator) (*liveSession, error) {
	identity := annotator.Identity()
	oracle := assign.New(assign.Params{
		PoolSize:    r.cfg.Assignment.PoolSize,
		OverlapRate: r.cfg.Assignment.OverlapRate,
	})
	if annotator.Role == config.RoleGroundTruth {
		// Ground truth judges the entire comparison space, so it labels
		// against a single-slot pool rather than its roster slot.
		oracle = assign.New(assign.Params{PoolSize: 1})
		identity.Slot = 0
	}

	store, err := session.New(session.Config{
		Mode:       r.cfg.Mode(),
		Identity:   identity,
		Collection: r.col,
		Oracle:     oracle,
	})
	if err != nil {
		return nil, err
	}

	restored := r.restoreFromJournal(ctx, store, identity)
	noWork := false
	if !restored {
		if err := store.Bootstrap(); err != nil {
			if !errors.Is(err, session.ErrNoWork) {
				return nil, err
			}
			noWork = true
		}
	}

	var jnl api.Journal
	journalID := ""
	if r.journal != nil {
		id, err := r.journal.BeginSession(ctx, r.col.SourceID, identity, r.cfg.Mode())
		if err != nil {
			r.logger.Warn("journal session not started, autosave disabled for this session", logging.Error(err))
		} else {
			jnl = r.journal
			journalID = id
			if restored {
				// Recovery always replays the newest journal session, so the
				// fresh session must carry the restored judgments itself.
				r.reseedJournal(ctx, id, store)
			}
		}
	}

	svc := api.NewSessionService(store, jnl, journalID, r.cfg.Dataset.MediaBaseDir, r.logger)
	return &liveSession{annotator: annotator, svc: svc, noWork: noWork}, nil
}

func (r *registry) restoreFromJournal(ctx context.Context, store *session.Store, identity snapshot.Identity) bool {
	if r.journal == nil {
		return false
	}
	snap, err := r.journal.Recover(ctx, r.col.SourceID, identity.ID)
	if errors.Is(err, journal.ErrNoSession) {
		return false
	}
	if err != nil {
		r.logger.Warn("journal recovery failed, starting fresh", logging.Error(err))
		return false
	}
	if err := store.Import(snap, true); err != nil {
		r.logger.Warn("journaled session did not validate, starting fresh", logging.Error(err))
		return false
	}
	r.logger.Info("session restored from journal",
		slog.String(logging.FieldAnnotator, identity.Name),
		slog.Int("entries", store.Len()))
	return true
}

func (r *registry) reseedJournal(ctx context.Context, sessionID string, store *session.Store) {
	for i := 0; i < store.Len(); i++ {
		entry, ok := store.EntryAt(i)
		if !ok || entry.Submission == nil {
			continue
		}
		event := journal.Event{
			Kind:   "submit",
			Key:    entry.Key(),
			Cursor: store.Cursor(),
			Winner: entry.Submission.Winner,
			Level:  int(entry.Submission.Level),
			Score:  entry.Submission.Score,
			At:     entry.Submission.At,
		}
		if entry.Battle != nil {
			event.Video = entry.Battle.Video
		} else {
			event.Left = entry.Left.ID
			event.Right = entry.Right.ID
		}
		if err := r.journal.Append(ctx, sessionID, event); err != nil {
			r.logger.Warn("journal reseed failed", logging.Error(err))
			return
		}
	}
}

// Resolve maps a bearer token back to its live session.
func (r *registry) Resolve(token string) (*liveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	live, ok := r.byToken[token]
	if !ok {
		return nil, fmt.Errorf("daemon: unknown session token")
	}
	return live, nil
}

// Count returns the number of distinct live sessions.
func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byRoster)
}
