package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"cadence/internal/dataset"
	"cadence/internal/session"
)

// DerivedLabel is one unit-level preference record expanded from a battle
// decision: a winning-side clip preferred over a losing-side clip.
type DerivedLabel struct {
	Video      string
	WinnerKey  string
	LoserKey   string
	WinnerUnit string
	LoserUnit  string
	Score      int
	Source     string
}

// BattleSummary is the battle-level form of an authoritative decision.
type BattleSummary struct {
	Video     string
	WinnerKey string
	LoserKey  string
	Source    string
}

// IncompleteError reports that derived-label expansion was attempted before
// every valid battle had an authoritative decision.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	preview := e.Missing
	if len(preview) > 5 {
		preview = preview[:5]
	}
	return fmt.Sprintf("derived labels cannot be exported: %d battles still have no authoritative decision (e.g. %s)",
		len(e.Missing), strings.Join(preview, ", "))
}

// ExpandDerived expands a complete authoritative decision set into one
// derived label per (winning clip × losing clip) combination, each carrying
// the maximal preference score. It refuses, with the missing battles named,
// while any valid battle lacks a decision.
func ExpandDerived(col *dataset.Collection, truth DecisionSet) ([]DerivedLabel, []BattleSummary, error) {
	battles := col.Battles()

	var missing []string
	for _, battle := range battles {
		if _, ok := truth.Decisions[battle.Video]; !ok {
			missing = append(missing, battle.Video)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, nil, &IncompleteError{Missing: missing}
	}

	var labels []DerivedLabel
	var summaries []BattleSummary
	for _, battle := range battles {
		winnerKey := truth.Decisions[battle.Video]
		winner, ok := battle.SideFor(winnerKey)
		if !ok {
			return nil, nil, fmt.Errorf("battle %s: decided winner %q is not one of its sides (%s, %s)",
				battle.Video, winnerKey, battle.Left.Dancer, battle.Right.Dancer)
		}
		loser, _ := battle.Opponent(winnerKey)

		summaries = append(summaries, BattleSummary{
			Video:     battle.Video,
			WinnerKey: winner.Dancer,
			LoserKey:  loser.Dancer,
			Source:    truth.Source,
		})
		for _, wu := range winner.Units {
			for _, lu := range loser.Units {
				labels = append(labels, DerivedLabel{
					Video:      battle.Video,
					WinnerKey:  winner.Dancer,
					LoserKey:   loser.Dancer,
					WinnerUnit: wu.ID,
					LoserUnit:  lu.ID,
					Score:      session.MaxScore,
					Source:     truth.Source,
				})
			}
		}
	}
	return labels, summaries, nil
}
