package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEmpty is returned when the source yields no usable rows.
var ErrEmpty = errors.New("dataset: no usable rows after parsing")

// Unit is one comparable clip. Immutable once loaded.
type Unit struct {
	ID       string
	Dancer   string
	Video    string
	MediaRef string
}

// Collection holds every unit loaded from one source, plus derived battle
// groupings. The SourceID doubles as the assignment salt, so re-running
// against the same dataset reproduces the same partition and a different
// dataset automatically invalidates any reuse.
type Collection struct {
	SourceID string
	Units    []Unit

	byID           map[string]int
	battles        []Battle
	byVideo        map[string]int
	invalidBattles int
}

// Recognized header names, matched case-insensitively.
var (
	idColumns     = []string{"id", "unit_id", "clip_id", "clip"}
	dancerColumns = []string{"dancer", "dancer_id", "performer"}
	videoColumns  = []string{"video", "video_id", "battle", "battle_id"}
	mediaColumns  = []string{"media", "media_path", "path", "url", "video_path"}
)

// LoadFile opens path and loads a collection from it. The source ID defaults
// to the file's base name without extension when sourceID is empty.
func LoadFile(path, sourceID string) (*Collection, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	if sourceID == "" {
		base := filepath.Base(path)
		sourceID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return Load(file, sourceID)
}

// Load parses CSV rows from r into a Collection. The first row is a header;
// known column names are matched case-insensitively. Rows missing an
// identifier or media reference are dropped.
func Load(r io.Reader, sourceID string) (*Collection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	idIdx := columnIndex(header, idColumns)
	dancerIdx := columnIndex(header, dancerColumns)
	videoIdx := columnIndex(header, videoColumns)
	mediaIdx := columnIndex(header, mediaColumns)
	if idIdx < 0 {
		return nil, fmt.Errorf("dataset header has no identifier column (looked for %s)", strings.Join(idColumns, ", "))
	}
	if mediaIdx < 0 {
		return nil, fmt.Errorf("dataset header has no media column (looked for %s)", strings.Join(mediaColumns, ", "))
	}

	col := &Collection{SourceID: sourceID, byID: make(map[string]int)}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row: %w", err)
		}
		unit := Unit{
			ID:       field(row, idIdx),
			Dancer:   field(row, dancerIdx),
			Video:    field(row, videoIdx),
			MediaRef: field(row, mediaIdx),
		}
		if unit.ID == "" || unit.MediaRef == "" {
			continue
		}
		if _, dup := col.byID[unit.ID]; dup {
			continue
		}
		col.byID[unit.ID] = len(col.Units)
		col.Units = append(col.Units, unit)
	}
	if len(col.Units) == 0 {
		return nil, ErrEmpty
	}

	col.groupBattles()
	return col, nil
}

func columnIndex(header []string, names []string) int {
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, name := range names {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Len returns the number of units in the collection.
func (c *Collection) Len() int {
	return len(c.Units)
}

// Resolve looks a unit up by identifier.
func (c *Collection) Resolve(id string) (Unit, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Unit{}, false
	}
	return c.Units[idx], true
}

// SortedIDs returns every unit identifier in lexicographic order. Exhaustive
// pair scans iterate this so their fallback order is deterministic.
func (c *Collection) SortedIDs() []string {
	ids := make([]string, 0, len(c.Units))
	for _, unit := range c.Units {
		ids = append(ids, unit.ID)
	}
	sort.Strings(ids)
	return ids
}
