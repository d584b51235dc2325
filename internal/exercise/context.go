package exercise

import "time"

// Context is the mutable shared state for one execution attempt. The sequence
// generator writes the position fields, the driver writes the skip and
// progress accounting, and nothing else writes at all, so no locking is
// needed. Create a fresh Context per attempt and discard it afterwards; the
// dry-run context used to price an exercise is a separate, disposable
// instance.
type Context struct {
	exercise   *Exercise
	set        int
	repetition int
	skip       time.Duration
	progress   time.Duration
}

// NewContext creates a fresh context. skipAhead is time already elapsed in a
// prior, interrupted run; the driver fast-forwards through it without
// re-executing actions. Negative values are treated as zero.
func NewContext(skipAhead time.Duration) *Context {
	if skipAhead < 0 {
		skipAhead = 0
	}
	return &Context{skip: skipAhead}
}

// Exercise returns the exercise currently executing, nil before the first
// event.
func (c *Context) Exercise() *Exercise { return c.exercise }

// Set returns the current 1-based set number, 0 before the first set.
func (c *Context) Set() int { return c.set }

// Repetition returns the current 1-based repetition number, 0 before the
// first repetition.
func (c *Context) Repetition() int { return c.repetition }

// SkipAhead returns the remaining fast-forward budget.
func (c *Context) SkipAhead() time.Duration { return c.skip }

// Progress returns the accumulated elapsed duration, counting both executed
// and skipped actions. It never decreases.
func (c *Context) Progress() time.Duration { return c.progress }

func (c *Context) setExercise(e *Exercise) { c.exercise = e }
func (c *Context) setSet(n int)            { c.set = n }
func (c *Context) setRepetition(n int)     { c.repetition = n }

func (c *Context) consumeSkip(d time.Duration) {
	c.skip -= d
	if c.skip < 0 {
		c.skip = 0
	}
}

func (c *Context) addProgress(d time.Duration) { c.progress += d }
