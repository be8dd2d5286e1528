package snapshot

import (
	"encoding/json"
	"fmt"
	"time"
)

// FormatTag identifies the current snapshot wire format.
const FormatTag = "cadence.progress.v1"

// Mode selects which labeling variant a snapshot belongs to.
type Mode string

const (
	ModePairwise Mode = "pairwise"
	ModeBattle   Mode = "battle"
)

// Identity describes the annotator a snapshot belongs to.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	Slot int    `json:"slot"`
}

// Submission is one recorded judgment. Level is set in pairwise mode, Winner
// in battle mode; Score is the derived numeric preference either way.
type Submission struct {
	Level        *int    `json:"level,omitempty"`
	Winner       string  `json:"winner,omitempty"`
	Score        int     `json:"score"`
	At           int64   `json:"at"`
	WatchedLeft  float64 `json:"watchedLeft,omitempty"`
	WatchedRight float64 `json:"watchedRight,omitempty"`
}

// PairEntry is one presented pairwise comparison. Left/right orientation is
// frozen at creation time and preserved across export/import so repeated
// views of a pair never re-randomize position.
type PairEntry struct {
	Left       string      `json:"left"`
	Right      string      `json:"right"`
	Submission *Submission `json:"submission,omitempty"`
}

// Snapshot is the full exportable state for one identity. Timestamps are
// epoch milliseconds.
type Snapshot struct {
	Format    string                `json:"format"`
	Dataset   string                `json:"dataset"`
	Identity  Identity              `json:"identity"`
	Salt      string                `json:"salt"`
	Mode      Mode                  `json:"mode"`
	Cursor    int                   `json:"cursor"`
	Pairs     []PairEntry           `json:"pairs,omitempty"`
	Decisions map[string]Submission `json:"decisions,omitempty"`
	CreatedAt int64                 `json:"createdAt"`
	UpdatedAt int64                 `json:"updatedAt"`
}

// Millis converts a time to the snapshot timestamp representation.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Encode renders the snapshot as indented JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses raw bytes into a Snapshot. Structural failures (not JSON, or
// JSON of the wrong shape) are reported as format errors; field-level
// validation happens separately via Validate.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &ValidationError{
			Reason: ReasonFormat,
			Detail: fmt.Sprintf("not a progress snapshot: %v", err),
		}
	}
	return &snap, nil
}
