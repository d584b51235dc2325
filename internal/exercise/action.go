package exercise

import (
	"context"
	"fmt"
	"time"
)

// Action is a timed, side-effecting unit of work bound to lifecycle events.
// Duration is a pure property: it must be computable without executing the
// action, because the dry run that prices an exercise reads it and nothing
// else.
type Action interface {
	Duration() time.Duration
	Execute(ctx context.Context, ec *Context) error
}

// Matcher decides whether a bound action applies to an event. Implementations
// are stateless with respect to the execution context.
type Matcher interface {
	Matches(Event) bool
}

// Binding pairs one matcher with one action. Declaration order is significant:
// every binding whose matcher accepts an event contributes its action, in
// order.
type Binding struct {
	Matcher Matcher
	Action  Action
}

// Speaker produces speech actions. Implementations estimate the utterance
// duration up front and perform the utterance when the action executes.
type Speaker interface {
	Say(text string) Action
}

// DescribeAction returns a short human-readable label for an action. Concrete
// actions implement fmt.Stringer; anything else falls back to a generic label.
func DescribeAction(a Action) string {
	if s, ok := a.(fmt.Stringer); ok {
		return s.String()
	}
	return "action"
}
