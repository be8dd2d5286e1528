package session

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"cadence/internal/assign"
	"cadence/internal/dataset"
	"cadence/internal/snapshot"
)

// ErrNoWork signals the normal terminal condition: every comparison owned by
// this identity has been submitted (or nothing was ever assigned). It is not
// a failure.
var ErrNoWork = errors.New("session: all assigned work is complete")

const defaultAttemptBudget = 500

// Config assembles a store. Rand is injectable so tests can drive the picker
// deterministically; nil falls back to a time-seeded source.
type Config struct {
	Mode          snapshot.Mode
	Identity      snapshot.Identity
	Collection    *dataset.Collection
	Oracle        assign.Oracle
	Rand          *rand.Rand
	AttemptBudget int
	Now           func() time.Time
}

// Store is the single-actor progress state machine for one identity.
type Store struct {
	mode     snapshot.Mode
	identity snapshot.Identity
	col      *dataset.Collection
	oracle   assign.Oracle
	salt     string

	history []*Entry
	cursor  int
	dirty   bool

	rng           *rand.Rand
	attemptBudget int
	now           func() time.Time

	ownedTotal int // memoized owned-comparison count, -1 until computed
	onChange   func()

	createdAt time.Time
	updatedAt time.Time
}

// New builds an empty store. Call Bootstrap or Import before presenting work.
func New(cfg Config) (*Store, error) {
	if cfg.Collection == nil || cfg.Collection.Len() == 0 {
		return nil, errors.New("session: candidate collection is empty or missing")
	}
	switch cfg.Mode {
	case snapshot.ModePairwise, snapshot.ModeBattle:
	default:
		return nil, fmt.Errorf("session: unknown mode %q", cfg.Mode)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	budget := cfg.AttemptBudget
	if budget <= 0 {
		budget = defaultAttemptBudget
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	created := now()
	return &Store{
		mode:          cfg.Mode,
		identity:      cfg.Identity,
		col:           cfg.Collection,
		oracle:        cfg.Oracle,
		salt:          cfg.Collection.SourceID,
		cursor:        -1,
		rng:           rng,
		attemptBudget: budget,
		now:           now,
		ownedTotal:    -1,
		createdAt:     created,
		updatedAt:     created,
	}, nil
}

// OnChange registers the observer invoked after every state transition. The
// rendering layer is a pure consumer; it must not mutate the store from the
// callback.
func (s *Store) OnChange(fn func()) {
	s.onChange = fn
}

func (s *Store) notify() {
	s.updatedAt = s.now()
	if s.onChange != nil {
		s.onChange()
	}
}

// Identity returns the identity the store was opened for.
func (s *Store) Identity() snapshot.Identity { return s.identity }

// Mode returns the labeling variant.
func (s *Store) Mode() snapshot.Mode { return s.mode }

// Salt returns the assignment salt (the dataset source identifier).
func (s *Store) Salt() string { return s.salt }

// Len returns the history length.
func (s *Store) Len() int { return len(s.history) }

// Cursor returns the current position, or -1 when no work has been drawn.
func (s *Store) Cursor() int { return s.cursor }

// Dirty reports whether there are judgments not yet captured by an export.
func (s *Store) Dirty() bool { return s.dirty }

// MarkDirty re-flags unsaved changes. Callers that read a snapshot for
// internal purposes use this to keep the annotator's unsaved-changes
// indicator truthful.
func (s *Store) MarkDirty() { s.dirty = true }

// Current returns the entry at the cursor.
func (s *Store) Current() (*Entry, bool) {
	return s.EntryAt(s.cursor)
}

// EntryAt returns the entry at index i.
func (s *Store) EntryAt(i int) (*Entry, bool) {
	if i < 0 || i >= len(s.history) {
		return nil, false
	}
	return s.history[i], true
}

// Bootstrap draws the first work item for a fresh session. Battle mode
// materializes every owned battle up front; pairwise mode draws one owned,
// unsubmitted pair. Returns ErrNoWork when nothing is assigned.
func (s *Store) Bootstrap() error {
	if len(s.history) > 0 {
		return nil
	}
	switch s.mode {
	case snapshot.ModeBattle:
		entries := s.ownedBattleEntries()
		if len(entries) == 0 {
			return ErrNoWork
		}
		s.history = entries
		s.cursor = 0
	default:
		entry, err := s.pickPair(s.excludedKeys())
		if err != nil {
			return err
		}
		s.history = append(s.history, entry)
		s.cursor = 0
	}
	s.notify()
	return nil
}

// SubmitAt records a judgment into the entry at cursor. The cursor itself
// does not move; resubmitting at an earlier position overwrites, which is
// how relabeling works.
func (s *Store) SubmitAt(cursor int, sub Submission) error {
	entry, ok := s.EntryAt(cursor)
	if !ok {
		return fmt.Errorf("session: no entry at position %d", cursor)
	}
	if err := s.normalize(&sub, entry); err != nil {
		return err
	}
	if sub.At.IsZero() {
		sub.At = s.now()
	}
	entry.Submission = &sub
	s.dirty = true
	s.notify()
	return nil
}

// Submit records a judgment at the current cursor.
func (s *Store) Submit(sub Submission) error {
	return s.SubmitAt(s.cursor, sub)
}

// ClearAt clears the judgment at cursor back to unlabeled. The history slot
// persists; individual entries are never deleted.
func (s *Store) ClearAt(cursor int) error {
	entry, ok := s.EntryAt(cursor)
	if !ok {
		return fmt.Errorf("session: no entry at position %d", cursor)
	}
	if entry.Submission == nil {
		return nil
	}
	entry.Submission = nil
	s.dirty = true
	s.notify()
	return nil
}

func (s *Store) normalize(sub *Submission, entry *Entry) error {
	if entry.Battle != nil {
		if _, ok := entry.Battle.SideFor(sub.Winner); !ok {
			return fmt.Errorf("session: winner %q is not a side of battle %s", sub.Winner, entry.Battle.Video)
		}
		sub.Level = 0
		sub.Score = MaxScore
		return nil
	}
	if !sub.Level.Valid() {
		return fmt.Errorf("session: invalid preference level %d", int(sub.Level))
	}
	sub.Winner = ""
	sub.Score = sub.Level.Score()
	return nil
}

// Advance moves forward through history, appending fresh work only from the
// last position. Moving back and resubmitting therefore never duplicates
// entries: forward motion walks the existing history first.
func (s *Store) Advance() error {
	if s.cursor < len(s.history)-1 {
		s.cursor++
		s.notify()
		return nil
	}
	if s.mode == snapshot.ModeBattle {
		// Every owned battle already has a slot; there is nothing to append.
		return ErrNoWork
	}
	entry, err := s.pickPair(s.excludedKeys())
	if err != nil {
		return err
	}
	s.history = append(s.history, entry)
	s.cursor = len(s.history) - 1
	s.notify()
	return nil
}

// Seek moves the cursor by delta, clamped into [0, len-1].
func (s *Store) Seek(delta int) int {
	if len(s.history) == 0 {
		return s.cursor
	}
	next := s.cursor + delta
	if next < 0 {
		next = 0
	}
	if next > len(s.history)-1 {
		next = len(s.history) - 1
	}
	if next != s.cursor {
		s.cursor = next
		s.notify()
	}
	return s.cursor
}

// excludedKeys collects comparison keys that must not be offered again:
// everything already submitted, plus keys currently occupying history slots.
func (s *Store) excludedKeys() map[string]bool {
	exclude := make(map[string]bool, len(s.history))
	for _, entry := range s.history {
		exclude[entry.Key()] = true
	}
	return exclude
}

func (s *Store) ownedBattleEntries() []*Entry {
	battles := s.col.Battles()
	entries := make([]*Entry, 0, len(battles))
	for i := range battles {
		battle := battles[i]
		if s.oracle.OwnsOverlap(s.identity.Slot, battle.Video, s.salt) {
			entries = append(entries, &Entry{Battle: &battle})
		}
	}
	return entries
}
