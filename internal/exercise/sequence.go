package exercise

// sequencePhase tracks where the iterator is inside the event order.
type sequencePhase int

const (
	phaseBeforeExercise sequencePhase = iota
	phaseBeforeSet
	phaseBeforeRepetition
	phaseDuringRepetition
	phaseAfterRepetition
	phaseAfterSet
	phaseAfterExercise
	phaseDone
)

// sequence generates the canonical event order for one exercise:
// BeforeExercise; for each set: BeforeSet, then for each repetition:
// BeforeRepetition, DuringRepetition, AfterRepetition, then AfterSet; and
// finally AfterExercise. That is 2 + 2*sets + 3*sets*reps events.
//
// A sequence is single-pass and bound to one context. Position fields on the
// context are updated before an event is returned, so actions always observe
// the position of the event they run under.
type sequence struct {
	ex    *Exercise
	ec    *Context
	phase sequencePhase
	set   int
	rep   int
}

func newSequence(ex *Exercise, ec *Context) *sequence {
	return &sequence{ex: ex, ec: ec}
}

// next advances the iterator one step. It returns ok=false once the sequence
// is exhausted.
func (s *sequence) next() (Event, bool) {
	switch s.phase {
	case phaseBeforeExercise:
		s.ec.setExercise(s.ex)
		if s.ex.sets > 0 {
			s.set = 1
			s.phase = phaseBeforeSet
		} else {
			s.phase = phaseAfterExercise
		}
		return Event{Kind: BeforeExercise, Exercise: s.ex}, true

	case phaseBeforeSet:
		s.ec.setSet(s.set)
		if s.ex.reps > 0 {
			s.rep = 1
			s.phase = phaseBeforeRepetition
		} else {
			s.phase = phaseAfterSet
		}
		return Event{Kind: BeforeSet, Set: s.set, Exercise: s.ex}, true

	case phaseBeforeRepetition:
		s.ec.setRepetition(s.rep)
		s.phase = phaseDuringRepetition
		return Event{Kind: BeforeRepetition, Set: s.set, Repetition: s.rep, Exercise: s.ex}, true

	case phaseDuringRepetition:
		s.phase = phaseAfterRepetition
		return Event{Kind: DuringRepetition, Set: s.set, Repetition: s.rep, Exercise: s.ex}, true

	case phaseAfterRepetition:
		ev := Event{Kind: AfterRepetition, Set: s.set, Repetition: s.rep, Exercise: s.ex}
		if s.rep < s.ex.reps {
			s.rep++
			s.phase = phaseBeforeRepetition
		} else {
			s.phase = phaseAfterSet
		}
		return ev, true

	case phaseAfterSet:
		ev := Event{Kind: AfterSet, Set: s.set, Exercise: s.ex}
		if s.set < s.ex.sets {
			s.set++
			s.phase = phaseBeforeSet
		} else {
			s.phase = phaseAfterExercise
		}
		return ev, true

	case phaseAfterExercise:
		s.phase = phaseDone
		return Event{Kind: AfterExercise, Exercise: s.ex}, true
	}
	return Event{}, false
}
