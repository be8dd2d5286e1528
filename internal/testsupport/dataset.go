package testsupport

import (
	"fmt"
	"strings"
	"testing"

	"cadence/internal/dataset"
)

// Collection parses CSV text into a dataset collection, failing the test on
// any load error.
func Collection(t testing.TB, sourceID, csv string) *dataset.Collection {
	t.Helper()
	col, err := dataset.Load(strings.NewReader(csv), sourceID)
	if err != nil {
		t.Fatalf("load test collection: %v", err)
	}
	return col
}

// Units builds a flat collection of n standalone clips named u000..u(n-1),
// with no dancer or video grouping.
func Units(t testing.TB, sourceID string, n int) *dataset.Collection {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,dancer,video,media\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "u%03d,,,clips/u%03d.mp4\n", i, i)
	}
	return Collection(t, sourceID, b.String())
}

// Battles builds a collection of n two-sided battles v000..v(n-1), each side
// holding clipsPerSide variants.
func Battles(t testing.TB, sourceID string, n, clipsPerSide int) *dataset.Collection {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,dancer,video,media\n")
	for i := 0; i < n; i++ {
		for side := 0; side < 2; side++ {
			dancer := fmt.Sprintf("d%03d_%d", i, side)
			for c := 0; c < clipsPerSide; c++ {
				id := fmt.Sprintf("v%03d_s%d_c%d", i, side, c)
				fmt.Fprintf(&b, "%s,%s,v%03d,clips/%s.mp4\n", id, dancer, i, id)
			}
		}
	}
	return Collection(t, sourceID, b.String())
}
