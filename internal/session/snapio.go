package session

import (
	"fmt"

	"cadence/internal/snapshot"
)

// Export serializes the store into a portable snapshot and marks the session
// saved. History entries are recorded by candidate identifier, not by full
// record; import resolves them back against the loaded collection.
func (s *Store) Export() *snapshot.Snapshot {
	snap := &snapshot.Snapshot{
		Format:    snapshot.FormatTag,
		Dataset:   s.col.SourceID,
		Identity:  s.identity,
		Salt:      s.salt,
		Mode:      s.mode,
		Cursor:    s.cursor,
		CreatedAt: snapshot.Millis(s.createdAt),
		UpdatedAt: snapshot.Millis(s.updatedAt),
	}
	switch s.mode {
	case snapshot.ModeBattle:
		snap.Decisions = make(map[string]snapshot.Submission)
		for _, entry := range s.history {
			if entry.Battle != nil && entry.Submitted() {
				snap.Decisions[entry.Battle.Video] = *entry.Submission.toWire()
			}
		}
	default:
		for _, entry := range s.history {
			snap.Pairs = append(snap.Pairs, snapshot.PairEntry{
				Left:       entry.Left.ID,
				Right:      entry.Right.ID,
				Submission: entry.Submission.toWire(),
			})
		}
	}
	s.dirty = false
	return snap
}

// Import validates snap against the active session and atomically replaces
// history and cursor. On any validation failure the store is left exactly as
// it was; there is no partial merge. Entries whose candidate identifiers no
// longer resolve against the loaded collection are dropped, and an import
// whose surviving history is empty fails.
func (s *Store) Import(snap *snapshot.Snapshot, strict bool) error {
	if err := snap.Validate(s.col.SourceID, s.identity, strict); err != nil {
		return err
	}
	if snap.Salt != s.salt {
		return &snapshot.ValidationError{
			Reason: snapshot.ReasonDataset,
			Detail: fmt.Sprintf("snapshot salt %q does not match the active dataset salt %q; assignments would not line up", snap.Salt, s.salt),
		}
	}
	if snap.Mode != s.mode {
		return &snapshot.ValidationError{
			Reason: snapshot.ReasonFormat,
			Detail: fmt.Sprintf("snapshot was recorded in %s mode but this session runs in %s mode", snap.Mode, s.mode),
		}
	}

	var history []*Entry
	var cursor int
	switch s.mode {
	case snapshot.ModeBattle:
		restored, err := s.restoreBattles(snap)
		if err != nil {
			return err
		}
		history = restored
		cursor = snapshot.ClampCursor(snap.Cursor, len(history))
	default:
		restored, dropped := s.restorePairs(snap)
		if len(restored) == 0 {
			return &snapshot.ValidationError{
				Reason: snapshot.ReasonEmptyHistory,
				Detail: fmt.Sprintf("no history entries survived import (%d referenced clips are not in dataset %q)", dropped, s.col.SourceID),
			}
		}
		history = restored
		cursor = snapshot.ClampCursor(snap.Cursor, len(history))
	}

	s.history = history
	s.cursor = cursor
	s.dirty = false
	s.notify()
	return nil
}

func (s *Store) restorePairs(snap *snapshot.Snapshot) (entries []*Entry, dropped int) {
	for _, pair := range snap.Pairs {
		left, okL := s.col.Resolve(pair.Left)
		right, okR := s.col.Resolve(pair.Right)
		if !okL || !okR {
			dropped++
			continue
		}
		entries = append(entries, &Entry{
			Left:       left,
			Right:      right,
			Submission: submissionFromWire(pair.Submission),
		})
	}
	return entries, dropped
}

// restoreBattles rebuilds the full owned-battle history, then lays the
// snapshot's decisions over it. Decisions for videos that no longer resolve,
// or whose winner is not a side of the battle, are dropped.
func (s *Store) restoreBattles(snap *snapshot.Snapshot) ([]*Entry, error) {
	entries := s.ownedBattleEntries()
	if len(entries) == 0 {
		return nil, &snapshot.ValidationError{
			Reason: snapshot.ReasonEmptyHistory,
			Detail: fmt.Sprintf("no battles in dataset %q are assigned to slot %d", s.col.SourceID, s.identity.Slot),
		}
	}
	byVideo := make(map[string]*Entry, len(entries))
	for _, entry := range entries {
		byVideo[entry.Battle.Video] = entry
	}
	applied := 0
	for video, wire := range snap.Decisions {
		entry, ok := byVideo[video]
		if !ok {
			continue
		}
		sub := submissionFromWire(&wire)
		if _, ok := entry.Battle.SideFor(sub.Winner); !ok {
			continue
		}
		entry.Submission = sub
		applied++
	}
	if len(snap.Decisions) > 0 && applied == 0 {
		return nil, &snapshot.ValidationError{
			Reason: snapshot.ReasonUnresolvable,
			Detail: fmt.Sprintf("none of the %d recorded decisions resolve against dataset %q", len(snap.Decisions), s.col.SourceID),
		}
	}
	return entries, nil
}
