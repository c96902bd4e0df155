package attractor

import (
	"errors"
	"testing"

	"ternion/internal/model"
)

func TestCanonicalizeRotationInvariant(t *testing.T) {
	a := model.State{-1, 1, 0}
	b := model.State{0, 0, 1}
	c := model.State{1, -1, -1}
	rotations := [][]model.State{
		{a, b, c},
		{b, c, a},
		{c, a, b},
	}

	want, err := Canonicalize(rotations[0])
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	wantKey := Key(want)
	for i, rotation := range rotations {
		got, err := Canonicalize(rotation)
		if err != nil {
			t.Fatalf("canonicalize rotation %d: %v", i, err)
		}
		if Key(got) != wantKey {
			t.Fatalf("rotation %d canonicalized differently: got=%s want=%s", i, Key(got), wantKey)
		}
	}
	if !want.States[0].Equal(a) {
		t.Fatalf("expected smallest state first, got %v", want.States[0])
	}
}

func TestCanonicalizeEmptyCycle(t *testing.T) {
	if _, err := Canonicalize(nil); !errors.Is(err, ErrEmptyCycle) {
		t.Fatalf("expected empty cycle error, got %v", err)
	}
}

func TestRecordDeduplicatesRotatedCycles(t *testing.T) {
	catalog := NewCatalog()
	a := model.State{-1, 1}
	b := model.State{1, -1}

	if err := catalog.Record([]model.State{a, b}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := catalog.Record([]model.State{b, a}); err != nil {
		t.Fatalf("record rotated: %v", err)
	}

	summary := catalog.Summary()
	if len(summary) != 1 {
		t.Fatalf("expected single entry, got %d", len(summary))
	}
	if summary[0].Count != 2 {
		t.Fatalf("unexpected count: got=%d want=2", summary[0].Count)
	}
	if summary[0].Length != 2 {
		t.Fatalf("unexpected length: got=%d want=2", summary[0].Length)
	}
}

func TestSummaryOrderByCountThenFirstSeen(t *testing.T) {
	catalog := NewCatalog()
	first := []model.State{{1, 1}}
	second := []model.State{{-1, -1}}
	third := []model.State{{0, 1}}

	for i := 0; i < 3; i++ {
		if err := catalog.Record(second); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := catalog.Record(first); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := catalog.Record(third); err != nil {
		t.Fatalf("record: %v", err)
	}

	summary := catalog.Summary()
	if len(summary) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(summary))
	}
	if summary[0].Count != 3 {
		t.Fatalf("most frequent entry first: got count=%d", summary[0].Count)
	}
	// first and third tie on count=1; first was seen earlier.
	if summary[1].FirstSeen > summary[2].FirstSeen {
		t.Fatalf("tie not broken by first-seen order: %+v", summary[1:])
	}
}

func TestMergeSumsCountsDeterministically(t *testing.T) {
	cycleA := []model.State{{1, 0}}
	cycleB := []model.State{{0, -1}}

	left := NewCatalog()
	right := NewCatalog()
	if err := left.RecordAt(cycleA, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := left.RecordAt(cycleB, 1); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := right.RecordAt(cycleA, 2); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := right.RecordAt(cycleA, 3); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Merge in both orders; summaries must agree.
	forward := NewCatalog()
	forward.Merge(left)
	forward.Merge(right)
	backward := NewCatalog()
	backward.Merge(right)
	backward.Merge(left)

	fs, bs := forward.Summary(), backward.Summary()
	if len(fs) != 2 || len(bs) != 2 {
		t.Fatalf("unexpected entry counts: %d, %d", len(fs), len(bs))
	}
	for i := range fs {
		if fs[i].Key != bs[i].Key || fs[i].Count != bs[i].Count || fs[i].FirstSeen != bs[i].FirstSeen {
			t.Fatalf("merge order changed summary at %d: %+v vs %+v", i, fs[i], bs[i])
		}
	}
	if fs[0].Count != 3 {
		t.Fatalf("counts not summed: got=%d want=3", fs[0].Count)
	}
}

func TestDistinct(t *testing.T) {
	catalog := NewCatalog()
	if err := catalog.Record([]model.State{{1}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := catalog.Record([]model.State{{-1}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := catalog.Record([]model.State{{1}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := catalog.Distinct(); got != 2 {
		t.Fatalf("unexpected distinct count: got=%d want=2", got)
	}
}
