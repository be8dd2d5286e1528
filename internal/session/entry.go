package session

import (
	"time"

	"cadence/internal/assign"
	"cadence/internal/dataset"
	"cadence/internal/snapshot"
)

// Submission is one recorded judgment. Level is meaningful in pairwise mode,
// Winner (a dancer key) in battle mode. Watched fractions are optional
// engagement metadata reported by the player.
type Submission struct {
	Level        Level
	Winner       string
	Score        int
	At           time.Time
	WatchedLeft  float64
	WatchedRight float64
}

// Entry is one presented comparison. In pairwise mode Left and Right hold
// the two clips in their orientation-frozen roles; in battle mode Battle
// holds the two-sided grouping. Orientation is fixed when the entry is
// created and never re-randomized on revisit.
type Entry struct {
	Left       dataset.Unit
	Right      dataset.Unit
	Battle     *dataset.Battle
	Submission *Submission
}

// Key returns the comparison key the entry hashes under: the canonical unit
// pair in pairwise mode, the video identifier in battle mode.
func (e *Entry) Key() string {
	if e.Battle != nil {
		return e.Battle.Video
	}
	return assign.Key(e.Left.ID, e.Right.ID)
}

// Submitted reports whether the entry carries a judgment.
func (e *Entry) Submitted() bool {
	return e.Submission != nil
}

func (sub *Submission) toWire() *snapshot.Submission {
	if sub == nil {
		return nil
	}
	wire := &snapshot.Submission{
		Winner:       sub.Winner,
		Score:        sub.Score,
		At:           snapshot.Millis(sub.At),
		WatchedLeft:  sub.WatchedLeft,
		WatchedRight: sub.WatchedRight,
	}
	if sub.Winner == "" {
		level := int(sub.Level)
		wire.Level = &level
	}
	return wire
}

func submissionFromWire(wire *snapshot.Submission) *Submission {
	if wire == nil {
		return nil
	}
	sub := &Submission{
		Winner:       wire.Winner,
		Score:        wire.Score,
		At:           time.UnixMilli(wire.At),
		WatchedLeft:  wire.WatchedLeft,
		WatchedRight: wire.WatchedRight,
	}
	if wire.Level != nil {
		sub.Level = Level(*wire.Level)
	}
	return sub
}
