package reconcile

import (
	"fmt"
	"sort"

	"cadence/internal/snapshot"
)

// DecisionSet is one source's battle-level decisions: video identifier to
// winning dancer key.
type DecisionSet struct {
	Source    string
	Decisions map[string]string
}

// FromSnapshot extracts a decision set from a battle-mode snapshot. The
// source is the snapshot's identity name (falling back to its ID).
func FromSnapshot(snap *snapshot.Snapshot) (DecisionSet, error) {
	if snap.Mode != snapshot.ModeBattle {
		return DecisionSet{}, fmt.Errorf("reconcile: snapshot from %q is %s mode, need battle mode", snap.Identity.Name, snap.Mode)
	}
	source := snap.Identity.Name
	if source == "" {
		source = snap.Identity.ID
	}
	set := DecisionSet{Source: source, Decisions: make(map[string]string, len(snap.Decisions))}
	for video, sub := range snap.Decisions {
		if sub.Winner != "" {
			set.Decisions[video] = sub.Winner
		}
	}
	return set, nil
}

// Accuracy is one source's agreement with the ground-truth set.
type Accuracy struct {
	Source     string
	Comparable int
	Correct    int
	Rate       float64
}

// AccuracyAgainst scores src against truth. Only battles decided by both
// count toward the denominator.
func AccuracyAgainst(truth, src DecisionSet) Accuracy {
	acc := Accuracy{Source: src.Source}
	for video, winner := range src.Decisions {
		authoritative, ok := truth.Decisions[video]
		if !ok {
			continue
		}
		acc.Comparable++
		if winner == authoritative {
			acc.Correct++
		}
	}
	if acc.Comparable > 0 {
		acc.Rate = float64(acc.Correct) / float64(acc.Comparable)
	}
	return acc
}

// AccuracyReport scores every source against truth, ordered by source name.
func AccuracyReport(truth DecisionSet, sources []DecisionSet) []Accuracy {
	report := make([]Accuracy, 0, len(sources))
	for _, src := range sources {
		report = append(report, AccuracyAgainst(truth, src))
	}
	sort.Slice(report, func(i, j int) bool { return report[i].Source < report[j].Source })
	return report
}

// Agreement is the pairwise decision overlap between two sources,
// independent of the ground-truth set.
type Agreement struct {
	SourceA    string
	SourceB    string
	Comparable int
	Matched    int
	Rate       float64
}

// PairwiseAgreement computes agreement for every unordered pair of sources.
func PairwiseAgreement(sources []DecisionSet) []Agreement {
	ordered := make([]DecisionSet, len(sources))
	copy(ordered, sources)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Source < ordered[j].Source })

	var rows []Agreement
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			row := Agreement{SourceA: ordered[i].Source, SourceB: ordered[j].Source}
			for video, winner := range ordered[i].Decisions {
				other, ok := ordered[j].Decisions[video]
				if !ok {
					continue
				}
				row.Comparable++
				if winner == other {
					row.Matched++
				}
			}
			if row.Comparable > 0 {
				row.Rate = float64(row.Matched) / float64(row.Comparable)
			}
			rows = append(rows, row)
		}
	}
	return rows
}
