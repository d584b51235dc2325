package speech

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/claude/repcall/internal/action"
	"github.com/claude/repcall/internal/exercise"
)

// Console is a speaker for local runs: it prints each utterance and holds for
// its estimated duration so the pacing matches a real voice.
type Console struct {
	out io.Writer
	wpm int
}

// NewConsole creates a console speaker writing to out at the given speech
// rate in words per minute (0 for the default).
func NewConsole(out io.Writer, wordsPerMinute int) *Console {
	return &Console{out: out, wpm: wordsPerMinute}
}

// Say returns an action that prints text and waits out its estimated length.
func (c *Console) Say(text string) exercise.Action {
	d := Estimate(text, c.wpm)
	return action.NewSay(text, d, func(ctx context.Context, text string) error {
		fmt.Fprintln(c.out, text)
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
