package api

import (
	"cadence/internal/dataset"
	"cadence/internal/reconcile"
	"cadence/internal/session"
)

// ClipView is one displayable clip.
type ClipView struct {
	ID     string `json:"id"`
	Dancer string `json:"dancer,omitempty"`
	Video  string `json:"video,omitempty"`
	Media  string `json:"media"`
}

// SideView is one side of a battle.
type SideView struct {
	Dancer string     `json:"dancer"`
	Clips  []ClipView `json:"clips"`
}

// BattleView is a two-sided comparison unit.
type BattleView struct {
	Video string   `json:"video"`
	Left  SideView `json:"left"`
	Right SideView `json:"right"`
}

// SubmissionView is one recorded judgment.
type SubmissionView struct {
	Level        *int    `json:"level,omitempty"`
	Winner       string  `json:"winner,omitempty"`
	Score        int     `json:"score"`
	At           int64   `json:"at"`
	WatchedLeft  float64 `json:"watchedLeft,omitempty"`
	WatchedRight float64 `json:"watchedRight,omitempty"`
}

// EntryView is one history slot.
type EntryView struct {
	Index      int             `json:"index"`
	Left       *ClipView       `json:"left,omitempty"`
	Right      *ClipView       `json:"right,omitempty"`
	Battle     *BattleView     `json:"battle,omitempty"`
	Submission *SubmissionView `json:"submission,omitempty"`
}

// CoverageView is progress against the identity's full assignment.
type CoverageView struct {
	Submitted int     `json:"submitted"`
	Owned     int     `json:"owned"`
	Fraction  float64 `json:"fraction"`
}

// SessionView is the full state the UI renders from.
type SessionView struct {
	Annotator string       `json:"annotator"`
	Role      string       `json:"role"`
	Dataset   string       `json:"dataset"`
	Mode      string       `json:"mode"`
	Cursor    int          `json:"cursor"`
	History   int          `json:"history"`
	Dirty     bool         `json:"dirty"`
	Coverage  CoverageView `json:"coverage"`
	Current   *EntryView   `json:"current,omitempty"`
}

// AccuracyView is one source's score against ground truth.
type AccuracyView struct {
	Source     string  `json:"source"`
	Comparable int     `json:"comparable"`
	Correct    int     `json:"correct"`
	Rate       float64 `json:"rate"`
}

// AgreementView is one pair of sources' decision overlap.
type AgreementView struct {
	SourceA    string  `json:"sourceA"`
	SourceB    string  `json:"sourceB"`
	Comparable int     `json:"comparable"`
	Matched    int     `json:"matched"`
	Rate       float64 `json:"rate"`
}

// ReconcileView is the full reconciliation report.
type ReconcileView struct {
	Accuracy  []AccuracyView  `json:"accuracy"`
	Agreement []AgreementView `json:"agreement"`
}

func clipView(unit dataset.Unit, mediaBase string) *ClipView {
	return &ClipView{
		ID:     unit.ID,
		Dancer: unit.Dancer,
		Video:  unit.Video,
		Media:  dataset.ResolveMedia(mediaBase, unit.MediaRef),
	}
}

func sideView(side dataset.Side, mediaBase string) SideView {
	view := SideView{Dancer: side.Dancer, Clips: make([]ClipView, 0, len(side.Units))}
	for _, unit := range side.Units {
		view.Clips = append(view.Clips, *clipView(unit, mediaBase))
	}
	return view
}

func entryView(entry *session.Entry, index int, mediaBase string) *EntryView {
	if entry == nil {
		return nil
	}
	view := &EntryView{Index: index}
	if entry.Battle != nil {
		view.Battle = &BattleView{
			Video: entry.Battle.Video,
			Left:  sideView(entry.Battle.Left, mediaBase),
			Right: sideView(entry.Battle.Right, mediaBase),
		}
	} else {
		view.Left = clipView(entry.Left, mediaBase)
		view.Right = clipView(entry.Right, mediaBase)
	}
	if sub := entry.Submission; sub != nil {
		sv := &SubmissionView{
			Winner:       sub.Winner,
			Score:        sub.Score,
			At:           sub.At.UnixMilli(),
			WatchedLeft:  sub.WatchedLeft,
			WatchedRight: sub.WatchedRight,
		}
		if sub.Winner == "" {
			level := int(sub.Level)
			sv.Level = &level
		}
		view.Submission = sv
	}
	return view
}

// FromAccuracy converts reconciliation rows into their view form.
func FromAccuracy(rows []reconcile.Accuracy) []AccuracyView {
	out := make([]AccuracyView, 0, len(rows))
	for _, row := range rows {
		out = append(out, AccuracyView(row))
	}
	return out
}

// FromAgreement converts agreement rows into their view form.
func FromAgreement(rows []reconcile.Agreement) []AgreementView {
	out := make([]AgreementView, 0, len(rows))
	for _, row := range rows {
		out = append(out, AgreementView(row))
	}
	return out
}
