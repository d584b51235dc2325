package exercise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Exercise is a named unit of a workout: a number of sets of a number of
// repetitions, with actions bound to lifecycle events. Construction validates
// every input and prices the whole exercise with a silent dry run, so the
// total duration is known before anything executes.
type Exercise struct {
	name     string
	sets     int
	reps     int
	bindings []Binding
	announce Action
	duration time.Duration
	log      *slog.Logger
}

// New builds an Exercise. The speaker supplies the implicit action that
// announces the exercise name at BeforeExercise. Validation fails fast with an
// error naming the offending argument; no events are generated for invalid
// input.
func New(log *slog.Logger, speaker Speaker, name string, sets, reps int, bindings []Binding) (*Exercise, error) {
	if log == nil {
		return nil, errors.New("exercise: logger is nil")
	}
	if speaker == nil {
		return nil, errors.New("exercise: speaker is nil")
	}
	if name == "" {
		return nil, errors.New("exercise: name is empty")
	}
	if sets < 0 {
		return nil, fmt.Errorf("exercise %q: negative set count %d", name, sets)
	}
	if reps < 0 {
		return nil, fmt.Errorf("exercise %q: negative repetition count %d", name, reps)
	}
	for i, b := range bindings {
		if b.Matcher == nil {
			return nil, fmt.Errorf("exercise %q: binding %d has a nil matcher", name, i)
		}
		if b.Action == nil {
			return nil, fmt.Errorf("exercise %q: binding %d has a nil action", name, i)
		}
	}

	e := &Exercise{
		name:     name,
		sets:     sets,
		reps:     reps,
		bindings: append([]Binding(nil), bindings...),
		announce: speaker.Say(name),
		log:      log,
	}

	// Dry run: one full traversal against a throwaway context, summing
	// action durations. Only the Duration property is read; Execute never
	// runs on this path.
	seq := newSequence(e, NewContext(0))
	for ev, ok := seq.next(); ok; ev, ok = seq.next() {
		for _, a := range e.actionsFor(ev) {
			e.duration += a.Duration()
		}
	}
	return e, nil
}

// Name returns the exercise name.
func (e *Exercise) Name() string { return e.name }

// Sets returns the set count.
func (e *Exercise) Sets() int { return e.sets }

// Repetitions returns the per-set repetition count.
func (e *Exercise) Repetitions() int { return e.reps }

// Duration returns the total expected duration, precomputed at construction.
// It never changes afterwards.
func (e *Exercise) Duration() time.Duration { return e.duration }

// actionsFor returns the ordered actions bound to one event: the implicit
// name announcement first on BeforeExercise, then the action of every binding
// whose matcher accepts the event, in declaration order. All matching
// bindings apply, not just the first.
func (e *Exercise) actionsFor(ev Event) []Action {
	var out []Action
	if ev.Kind == BeforeExercise {
		out = append(out, e.announce)
	}
	for _, b := range e.bindings {
		if b.Matcher.Matches(ev) {
			out = append(out, b.Action)
		}
	}
	return out
}

// Execute runs the exercise against ec, one action at a time in event order,
// never concurrently. An action whose full duration fits in the remaining
// skip-ahead budget is not executed: its duration is consumed from the budget
// and recorded as progress, fast-forwarding a resumed exercise past
// already-heard announcements and already-elapsed pauses. An action longer
// than the remaining budget runs in full and spends what is left of the
// budget, so every action after it runs as an ordinary action; fast-forward
// ends at the first action the budget cannot cover.
//
// Cancellation via ctx is checked before every action. Once signalled, the
// driver stops issuing actions and returns nil, leaving position and progress
// at their last committed values so the caller can see how far the run got
// and resume later with a new context. An action failure aborts the run and
// is returned unwrapped.
func (e *Exercise) Execute(ctx context.Context, ec *Context) error {
	if ec == nil {
		return errors.New("exercise: nil execution context")
	}
	seq := newSequence(e, ec)
	for ev, ok := seq.next(); ok; ev, ok = seq.next() {
		for _, a := range e.actionsFor(ev) {
			if ctx.Err() != nil {
				e.log.Info("execution cancelled",
					"exercise", e.name,
					"set", ec.Set(),
					"repetition", ec.Repetition(),
					"progress", ec.Progress().String())
				return nil
			}
			d := a.Duration()
			if skip := ec.SkipAhead(); skip > 0 && skip >= d {
				ec.consumeSkip(d)
				ec.addProgress(d)
				e.log.Debug("action skipped",
					"exercise", e.name,
					"event", ev.String(),
					"duration", d.String())
				continue
			}
			if err := a.Execute(ctx, ec); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					// The action was interrupted by the same cooperative
					// stop signal the driver watches; not an error.
					e.log.Info("execution cancelled",
						"exercise", e.name,
						"set", ec.Set(),
						"repetition", ec.Repetition(),
						"progress", ec.Progress().String())
					return nil
				}
				return err
			}
			ec.consumeSkip(d)
			ec.addProgress(d)
		}
	}
	return nil
}

// TimelineEntry is one priced step of a dry traversal.
type TimelineEntry struct {
	Event    Event
	Action   Action
	Duration time.Duration
	// Offset is the cumulative duration of every step before this one.
	Offset time.Duration
}

// Timeline performs a dry traversal and returns every action the exercise
// will issue, in order, with cumulative offsets. Like the construction-time
// dry run it reads only action durations and triggers no side effects.
func (e *Exercise) Timeline() []TimelineEntry {
	var (
		entries []TimelineEntry
		offset  time.Duration
	)
	seq := newSequence(e, NewContext(0))
	for ev, ok := seq.next(); ok; ev, ok = seq.next() {
		for _, a := range e.actionsFor(ev) {
			d := a.Duration()
			entries = append(entries, TimelineEntry{Event: ev, Action: a, Duration: d, Offset: offset})
			offset += d
		}
	}
	return entries
}
