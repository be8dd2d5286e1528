package reconcile

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteDerivedCSV emits the flat per-comparison label records.
func WriteDerivedCSV(w io.Writer, labels []DerivedLabel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"video", "winner_dancer", "loser_dancer", "winner_clip", "loser_clip", "score", "source"}); err != nil {
		return fmt.Errorf("write derived header: %w", err)
	}
	for _, label := range labels {
		row := []string{
			label.Video,
			label.WinnerKey,
			label.LoserKey,
			label.WinnerUnit,
			label.LoserUnit,
			strconv.Itoa(label.Score),
			label.Source,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write derived row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV emits the battle-level summary records.
func WriteSummaryCSV(w io.Writer, summaries []BattleSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"video", "winner_dancer", "loser_dancer", "source"}); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, s := range summaries {
		if err := cw.Write([]string{s.Video, s.WinnerKey, s.LoserKey, s.Source}); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type derivedJSON struct {
	Video      string `json:"video"`
	WinnerKey  string `json:"winnerDancer"`
	LoserKey   string `json:"loserDancer"`
	WinnerUnit string `json:"winnerClip"`
	LoserUnit  string `json:"loserClip"`
	Score      int    `json:"score"`
	Source     string `json:"source"`
}

type summaryJSON struct {
	Video     string `json:"video"`
	WinnerKey string `json:"winnerDancer"`
	LoserKey  string `json:"loserDancer"`
	Source    string `json:"source"`
}

// WriteDerivedJSON emits the structured form of the per-comparison records.
func WriteDerivedJSON(w io.Writer, labels []DerivedLabel) error {
	out := make([]derivedJSON, 0, len(labels))
	for _, label := range labels {
		out = append(out, derivedJSON(label))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteSummaryJSON emits the structured form of the battle summaries.
func WriteSummaryJSON(w io.Writer, summaries []BattleSummary) error {
	out := make([]summaryJSON, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryJSON(s))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
