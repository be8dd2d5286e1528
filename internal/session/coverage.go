package session

import (
	"cadence/internal/assign"
	"cadence/internal/snapshot"
)

// Coverage summarizes progress against the identity's full assignment.
type Coverage struct {
	Submitted int
	Owned     int
	Fraction  float64
}

// Coverage returns unique submitted comparison keys over the total owned by
// this identity. The owned total requires enumerating every unordered pair
// (or battle) and testing ownership — O(n²) over candidates — so it is
// memoized for the lifetime of the store; the candidate set and identity are
// both immutable.
func (s *Store) Coverage() Coverage {
	if s.ownedTotal < 0 {
		s.ownedTotal = s.countOwned()
	}

	submitted := make(map[string]bool)
	for _, entry := range s.history {
		if entry.Submitted() {
			submitted[entry.Key()] = true
		}
	}

	cov := Coverage{Submitted: len(submitted), Owned: s.ownedTotal}
	if cov.Owned > 0 {
		cov.Fraction = float64(cov.Submitted) / float64(cov.Owned)
	}
	return cov
}

func (s *Store) countOwned() int {
	if s.mode == snapshot.ModeBattle {
		owned := 0
		for _, battle := range s.col.Battles() {
			if s.oracle.OwnsOverlap(s.identity.Slot, battle.Video, s.salt) {
				owned++
			}
		}
		return owned
	}

	ids := s.col.SortedIDs()
	owned := 0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if s.oracle.OwnsExclusive(s.identity.Slot, assign.Key(ids[i], ids[j]), s.salt) {
				owned++
			}
		}
	}
	return owned
}
