package exercise

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustExercise(t *testing.T, sets, reps int, bindings []Binding) *Exercise {
	t.Helper()
	e, err := New(testLogger(), &stubSpeaker{}, "Push Ups", sets, reps, bindings)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func collectEvents(e *Exercise) []Event {
	var events []Event
	seq := newSequence(e, NewContext(0))
	for ev, ok := seq.next(); ok; ev, ok = seq.next() {
		events = append(events, ev)
	}
	return events
}

// TestSequenceEventCount verifies the event count formula
// 2 + 2*sets + 3*sets*reps across a range of set and repetition counts.
func TestSequenceEventCount(t *testing.T) {
	cases := []struct {
		sets, reps int
	}{
		{0, 0}, {0, 5}, {1, 0}, {1, 1}, {1, 2}, {2, 3}, {3, 10}, {5, 1},
	}
	for _, tc := range cases {
		e := mustExercise(t, tc.sets, tc.reps, nil)
		got := len(collectEvents(e))
		want := 2 + 2*tc.sets + 3*tc.sets*tc.reps
		if got != want {
			t.Errorf("sets=%d reps=%d: %d events, want %d", tc.sets, tc.reps, got, want)
		}
	}
}

// TestSequenceOrderOneSetTwoReps verifies the exact event order for the
// one-set, two-repetition exercise: ten events from BeforeExercise through
// AfterExercise.
func TestSequenceOrderOneSetTwoReps(t *testing.T) {
	e := mustExercise(t, 1, 2, nil)
	events := collectEvents(e)

	want := []Event{
		{Kind: BeforeExercise},
		{Kind: BeforeSet, Set: 1},
		{Kind: BeforeRepetition, Set: 1, Repetition: 1},
		{Kind: DuringRepetition, Set: 1, Repetition: 1},
		{Kind: AfterRepetition, Set: 1, Repetition: 1},
		{Kind: BeforeRepetition, Set: 1, Repetition: 2},
		{Kind: DuringRepetition, Set: 1, Repetition: 2},
		{Kind: AfterRepetition, Set: 1, Repetition: 2},
		{Kind: AfterSet, Set: 1},
		{Kind: AfterExercise},
	}
	if len(events) != len(want) {
		t.Fatalf("%d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.Kind != want[i].Kind || ev.Set != want[i].Set || ev.Repetition != want[i].Repetition {
			t.Errorf("event %d = %s, want %s", i, ev, want[i])
		}
		if ev.Exercise != e {
			t.Errorf("event %d: exercise reference not set", i)
		}
	}
}

// TestSequenceZeroSets verifies that an exercise with no sets still produces
// the BeforeExercise/AfterExercise pair and nothing else.
func TestSequenceZeroSets(t *testing.T) {
	e := mustExercise(t, 0, 5, nil)
	events := collectEvents(e)

	if len(events) != 2 {
		t.Fatalf("%d events, want 2", len(events))
	}
	if events[0].Kind != BeforeExercise {
		t.Errorf("first event = %s, want before_exercise", events[0])
	}
	if events[1].Kind != AfterExercise {
		t.Errorf("last event = %s, want after_exercise", events[1])
	}
}

// TestSequenceZeroReps verifies that sets with no repetitions still produce
// their BeforeSet/AfterSet pair.
func TestSequenceZeroReps(t *testing.T) {
	e := mustExercise(t, 2, 0, nil)
	events := collectEvents(e)

	wantKinds := []EventKind{BeforeExercise, BeforeSet, AfterSet, BeforeSet, AfterSet, AfterExercise}
	if len(events) != len(wantKinds) {
		t.Fatalf("%d events, want %d", len(events), len(wantKinds))
	}
	for i, ev := range events {
		if ev.Kind != wantKinds[i] {
			t.Errorf("event %d = %s, want %s", i, ev.Kind, wantKinds[i])
		}
	}
}

// TestSequenceDeterministic verifies that re-running the generator against a
// fresh context yields an identical sequence.
func TestSequenceDeterministic(t *testing.T) {
	e := mustExercise(t, 3, 4, nil)
	first := collectEvents(e)
	second := collectEvents(e)

	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Kind != second[i].Kind || first[i].Set != second[i].Set || first[i].Repetition != second[i].Repetition {
			t.Errorf("event %d differs: %s vs %s", i, first[i], second[i])
		}
	}
}

// TestSequenceUpdatesPositionBeforeYield verifies that the context's position
// fields already reflect an event when it is produced, so actions bound to it
// observe the correct set and repetition.
func TestSequenceUpdatesPositionBeforeYield(t *testing.T) {
	e := mustExercise(t, 2, 2, nil)
	ec := NewContext(0)
	seq := newSequence(e, ec)

	for ev, ok := seq.next(); ok; ev, ok = seq.next() {
		if ec.Exercise() != e {
			t.Fatalf("event %s: context exercise not set", ev)
		}
		switch ev.Kind {
		case BeforeSet, AfterSet:
			if ec.Set() != ev.Set {
				t.Errorf("event %s: context set = %d, want %d", ev, ec.Set(), ev.Set)
			}
		case BeforeRepetition, DuringRepetition, AfterRepetition:
			if ec.Set() != ev.Set || ec.Repetition() != ev.Repetition {
				t.Errorf("event %s: context position = set %d rep %d, want set %d rep %d",
					ev, ec.Set(), ec.Repetition(), ev.Set, ev.Repetition)
			}
		}
	}
}
