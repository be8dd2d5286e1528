package session

import (
	"cadence/internal/assign"
	"cadence/internal/dataset"
)

// pickPair finds an owned, not-yet-offered pair of distinct units.
//
// Phase one samples random pairs up to the attempt budget: cheap and
// effectively uniform on large candidate sets. When sampling misses (sparse
// assignment, or plain bad luck), phase two scans every pair in lexicographic
// key order and returns the first match, which guarantees discovery whenever
// any owned pair remains.
func (s *Store) pickPair(exclude map[string]bool) (*Entry, error) {
	units := s.col.Units
	if len(units) >= 2 {
		for attempt := 0; attempt < s.attemptBudget; attempt++ {
			i := s.rng.Intn(len(units))
			j := s.rng.Intn(len(units))
			if i == j {
				continue
			}
			if entry := s.tryPair(units[i], units[j], exclude); entry != nil {
				return entry, nil
			}
		}
	}

	ids := s.col.SortedIDs()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			left, _ := s.col.Resolve(ids[i])
			right, _ := s.col.Resolve(ids[j])
			if entry := s.tryPair(left, right, exclude); entry != nil {
				return entry, nil
			}
		}
	}
	return nil, ErrNoWork
}

// tryPair returns an entry when the pair is owned by this identity and not
// excluded. The left/right orientation of the returned entry is whatever the
// caller drew; it is frozen from here on.
func (s *Store) tryPair(left, right dataset.Unit, exclude map[string]bool) *Entry {
	key := assign.Key(left.ID, right.ID)
	if exclude[key] {
		return nil
	}
	if !s.oracle.OwnsExclusive(s.identity.Slot, key, s.salt) {
		return nil
	}
	return &Entry{Left: left, Right: right}
}
