package dataset

import (
	"strings"
	"testing"
)

const sampleCSV = `ID,Dancer,Video,Media_Path
c1,alice,v1,clips/c1.mp4
c2,alice,v1,clips/c2.mp4
c3,bob,v1,clips/c3.mp4
c4,carol,v2,clips/c4.mp4
c5,dave,v2,clips/c5.mp4
c6,erin,v3,clips/c6.mp4
,ghost,v9,clips/missing-id.mp4
c7,ghost,v9,
`

func loadSample(t *testing.T) *Collection {
	t.Helper()
	col, err := Load(strings.NewReader(sampleCSV), "sample")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return col
}

func TestLoadDropsRowsMissingIDOrMedia(t *testing.T) {
	col := loadSample(t)
	if col.Len() != 6 {
		t.Fatalf("expected 6 usable units, got %d", col.Len())
	}
	if _, ok := col.Resolve("c7"); ok {
		t.Fatal("row without media should have been dropped")
	}
}

func TestLoadHeaderCaseInsensitive(t *testing.T) {
	csv := "id,DANCER,video,URL\nc1,a,v1,a.mp4\n"
	col, err := Load(strings.NewReader(csv), "s")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	unit, ok := col.Resolve("c1")
	if !ok || unit.Dancer != "a" || unit.MediaRef != "a.mp4" {
		t.Fatalf("unexpected unit %+v", unit)
	}
}

func TestLoadRejectsMissingColumns(t *testing.T) {
	if _, err := Load(strings.NewReader("dancer,video\na,v1\n"), "s"); err == nil {
		t.Fatal("expected error for header without identifier column")
	}
	if _, err := Load(strings.NewReader("id,dancer\nc1,a\n"), "s"); err == nil {
		t.Fatal("expected error for header without media column")
	}
}

func TestLoadEmpty(t *testing.T) {
	if _, err := Load(strings.NewReader(""), "s"); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := Load(strings.NewReader("id,media\n"), "s"); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty for header-only input, got %v", err)
	}
}

func TestBattleGrouping(t *testing.T) {
	col := loadSample(t)
	battles := col.Battles()
	if len(battles) != 2 {
		t.Fatalf("expected 2 valid battles, got %d", len(battles))
	}
	// v3 has one dancer only.
	if col.InvalidBattles() != 1 {
		t.Fatalf("expected 1 invalid battle, got %d", col.InvalidBattles())
	}

	b, ok := col.BattleFor("v1")
	if !ok {
		t.Fatal("v1 should be a valid battle")
	}
	if b.Left.Dancer != "alice" || b.Right.Dancer != "bob" {
		t.Fatalf("sides not ordered by dancer key: %q vs %q", b.Left.Dancer, b.Right.Dancer)
	}
	if len(b.Left.Units) != 2 || len(b.Right.Units) != 1 {
		t.Fatalf("side sizes wrong: %d and %d", len(b.Left.Units), len(b.Right.Units))
	}

	opp, ok := b.Opponent("alice")
	if !ok || opp.Dancer != "bob" {
		t.Fatalf("Opponent(alice) = %+v, %v", opp, ok)
	}
	if _, ok := b.SideFor("nobody"); ok {
		t.Fatal("SideFor on unknown dancer should fail")
	}
}

func TestSortedIDsDeterministic(t *testing.T) {
	col := loadSample(t)
	ids := col.SortedIDs()
	if len(ids) != col.Len() {
		t.Fatalf("SortedIDs length %d, want %d", len(ids), col.Len())
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not strictly ascending at %d: %q, %q", i, ids[i-1], ids[i])
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"b_boy_junior": "B Boy Junior",
		"lil-kev":      "Lil Kev",
		"":             "",
	}
	for in, want := range cases {
		if got := DisplayName(in); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
