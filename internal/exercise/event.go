package exercise

import "fmt"

// EventKind identifies a discrete lifecycle moment within an exercise.
type EventKind int

const (
	BeforeExercise EventKind = iota
	BeforeSet
	BeforeRepetition
	DuringRepetition
	AfterRepetition
	AfterSet
	AfterExercise
)

func (k EventKind) String() string {
	switch k {
	case BeforeExercise:
		return "before_exercise"
	case BeforeSet:
		return "before_set"
	case BeforeRepetition:
		return "before_repetition"
	case DuringRepetition:
		return "during_repetition"
	case AfterRepetition:
		return "after_repetition"
	case AfterSet:
		return "after_set"
	case AfterExercise:
		return "after_exercise"
	default:
		return "unknown"
	}
}

// ParseEventKind maps a kind name (as produced by EventKind.String) back to
// its EventKind. Used by declarative workout definitions.
func ParseEventKind(s string) (EventKind, error) {
	for k := BeforeExercise; k <= AfterExercise; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Event is one lifecycle moment, produced by the sequence generator and
// consumed immediately by the resolver. Set and Repetition are 1-based and
// zero for the kinds that don't carry them; Exercise is the owning exercise.
// Events are transient and never persisted.
type Event struct {
	Kind       EventKind
	Set        int
	Repetition int
	Exercise   *Exercise
}

func (e Event) String() string {
	switch e.Kind {
	case BeforeSet, AfterSet:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Set)
	case BeforeRepetition, DuringRepetition, AfterRepetition:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Repetition)
	default:
		return e.Kind.String()
	}
}
