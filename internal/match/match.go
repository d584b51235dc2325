// Package match provides the concrete matchers that ship with the engine.
// Matchers are plain predicates over events; anything implementing
// exercise.Matcher can be bound alongside them.
package match

import "github.com/claude/repcall/internal/exercise"

// On matches one event kind, optionally narrowed to a specific set or
// repetition. A zero Set or Rep matches any index.
type On struct {
	Kind exercise.EventKind
	Set  int
	Rep  int
}

func (m On) Matches(ev exercise.Event) bool {
	if ev.Kind != m.Kind {
		return false
	}
	if m.Set != 0 && ev.Set != m.Set {
		return false
	}
	if m.Rep != 0 && ev.Repetition != m.Rep {
		return false
	}
	return true
}

type anyOf []exercise.Matcher

func (m anyOf) Matches(ev exercise.Event) bool {
	for _, sub := range m {
		if sub.Matches(ev) {
			return true
		}
	}
	return false
}

// Any matches when at least one of the given matchers does. With no matchers
// it never matches.
func Any(ms ...exercise.Matcher) exercise.Matcher {
	return anyOf(ms)
}

type allOf []exercise.Matcher

func (m allOf) Matches(ev exercise.Event) bool {
	for _, sub := range m {
		if !sub.Matches(ev) {
			return false
		}
	}
	return true
}

// All matches when every given matcher does. With no matchers it always
// matches.
func All(ms ...exercise.Matcher) exercise.Matcher {
	return allOf(ms)
}
