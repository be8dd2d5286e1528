package reconcile_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cadence/internal/reconcile"
	"cadence/internal/session"
	"cadence/internal/snapshot"
	"cadence/internal/testsupport"
)

func TestAccuracyExcludesUnscoredBattles(t *testing.T) {
	truth := reconcile.DecisionSet{
		Source:    "ground truth",
		Decisions: map[string]string{"v1": "X", "v2": "Y"},
	}
	annotator := reconcile.DecisionSet{
		Source:    "ana",
		Decisions: map[string]string{"v1": "X", "v2": "Z", "v3": "X"},
	}
	acc := reconcile.AccuracyAgainst(truth, annotator)
	if acc.Comparable != 2 || acc.Correct != 1 || acc.Rate != 0.5 {
		t.Fatalf("accuracy = %+v, want comparable 2, correct 1, rate 0.5", acc)
	}
}

func TestAccuracyEmptyOverlap(t *testing.T) {
	truth := reconcile.DecisionSet{Source: "gt", Decisions: map[string]string{"v1": "X"}}
	src := reconcile.DecisionSet{Source: "ana", Decisions: map[string]string{"v9": "X"}}
	acc := reconcile.AccuracyAgainst(truth, src)
	if acc.Comparable != 0 || acc.Rate != 0 {
		t.Fatalf("accuracy = %+v, want zero comparable", acc)
	}
}

func TestPairwiseAgreement(t *testing.T) {
	sets := []reconcile.DecisionSet{
		{Source: "carla", Decisions: map[string]string{"v1": "X", "v2": "Y"}},
		{Source: "ana", Decisions: map[string]string{"v1": "X", "v2": "Z", "v3": "Q"}},
		{Source: "ben", Decisions: map[string]string{"v3": "Q"}},
	}
	rows := reconcile.PairwiseAgreement(sets)
	if len(rows) != 3 {
		t.Fatalf("got %d agreement rows, want 3", len(rows))
	}
	want := []reconcile.Agreement{
		{SourceA: "ana", SourceB: "ben", Comparable: 1, Matched: 1, Rate: 1},
		{SourceA: "ana", SourceB: "carla", Comparable: 2, Matched: 1, Rate: 0.5},
		{SourceA: "ben", SourceB: "carla", Comparable: 0, Matched: 0, Rate: 0},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("agreement mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSnapshot(t *testing.T) {
	snap := &snapshot.Snapshot{
		Format:   snapshot.FormatTag,
		Mode:     snapshot.ModeBattle,
		Identity: snapshot.Identity{ID: "a1", Name: "ana"},
		Decisions: map[string]snapshot.Submission{
			"v1": {Winner: "X", Score: 2},
			"v2": {Score: 2}, // cleared decision, no winner
		},
	}
	set, err := reconcile.FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if set.Source != "ana" {
		t.Fatalf("source = %q", set.Source)
	}
	if len(set.Decisions) != 1 || set.Decisions["v1"] != "X" {
		t.Fatalf("decisions = %v, want only v1", set.Decisions)
	}

	snap.Mode = snapshot.ModePairwise
	if _, err := reconcile.FromSnapshot(snap); err == nil {
		t.Fatal("pairwise snapshot must be rejected")
	}
}

func TestExpandDerivedCrossProduct(t *testing.T) {
	// One battle: side 0 has 2 clips, side 1 has 3.
	csv := "id,dancer,video,media\n" +
		"w1,alpha,v1,w1.mp4\n" +
		"w2,alpha,v1,w2.mp4\n" +
		"l1,beta,v1,l1.mp4\n" +
		"l2,beta,v1,l2.mp4\n" +
		"l3,beta,v1,l3.mp4\n"
	col := testsupport.Collection(t, "set", csv)

	truth := reconcile.DecisionSet{Source: "gt", Decisions: map[string]string{"v1": "alpha"}}
	labels, summaries, err := reconcile.ExpandDerived(col, truth)
	if err != nil {
		t.Fatalf("ExpandDerived: %v", err)
	}
	if len(labels) != 6 {
		t.Fatalf("expanded %d labels, want 2×3=6", len(labels))
	}
	for _, label := range labels {
		if label.Score != session.MaxScore {
			t.Fatalf("label %+v does not carry the maximal score", label)
		}
		if label.WinnerKey != "alpha" || label.LoserKey != "beta" {
			t.Fatalf("label sides wrong: %+v", label)
		}
	}
	if len(summaries) != 1 || summaries[0].WinnerKey != "alpha" || summaries[0].LoserKey != "beta" {
		t.Fatalf("summaries = %+v", summaries)
	}
}

func TestExpandRefusesWhileIncomplete(t *testing.T) {
	col := testsupport.Battles(t, "set", 3, 1)
	truth := reconcile.DecisionSet{Source: "gt", Decisions: map[string]string{"v000": "d000_0"}}

	_, _, err := reconcile.ExpandDerived(col, truth)
	var incomplete *reconcile.IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteError, got %v", err)
	}
	if len(incomplete.Missing) != 2 {
		t.Fatalf("missing = %v, want 2 battles", incomplete.Missing)
	}
	if !strings.Contains(incomplete.Error(), "2 battles") {
		t.Fatalf("error message should name the missing count: %s", incomplete.Error())
	}
}

func TestExpandRejectsUnknownWinner(t *testing.T) {
	col := testsupport.Battles(t, "set", 1, 1)
	truth := reconcile.DecisionSet{Source: "gt", Decisions: map[string]string{"v000": "stranger"}}
	if _, _, err := reconcile.ExpandDerived(col, truth); err == nil {
		t.Fatal("winner outside the battle must be rejected")
	}
}

func TestEmitters(t *testing.T) {
	labels := []reconcile.DerivedLabel{
		{Video: "v1", WinnerKey: "a", LoserKey: "b", WinnerUnit: "w1", LoserUnit: "l1", Score: 2, Source: "gt"},
	}
	summaries := []reconcile.BattleSummary{
		{Video: "v1", WinnerKey: "a", LoserKey: "b", Source: "gt"},
	}

	var buf bytes.Buffer
	if err := reconcile.WriteDerivedCSV(&buf, labels); err != nil {
		t.Fatalf("WriteDerivedCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "v1,a,b,w1,l1,2,gt") {
		t.Fatalf("unexpected CSV:\n%s", buf.String())
	}

	buf.Reset()
	if err := reconcile.WriteSummaryCSV(&buf, summaries); err != nil {
		t.Fatalf("WriteSummaryCSV: %v", err)
	}
	if !strings.Contains(buf.String(), "v1,a,b,gt") {
		t.Fatalf("unexpected summary CSV:\n%s", buf.String())
	}

	buf.Reset()
	if err := reconcile.WriteDerivedJSON(&buf, labels); err != nil {
		t.Fatalf("WriteDerivedJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"winnerClip": "w1"`) {
		t.Fatalf("unexpected JSON:\n%s", buf.String())
	}

	buf.Reset()
	if err := reconcile.WriteSummaryJSON(&buf, summaries); err != nil {
		t.Fatalf("WriteSummaryJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"winnerDancer": "a"`) {
		t.Fatalf("unexpected summary JSON:\n%s", buf.String())
	}
}
