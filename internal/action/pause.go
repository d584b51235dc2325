package action

import (
	"context"
	"time"

	"github.com/claude/repcall/internal/exercise"
)

// Pause waits for a fixed duration. It wakes early when the run is cancelled.
type Pause struct {
	d time.Duration
}

// NewPause builds a Pause action. A negative duration is treated as zero.
func NewPause(d time.Duration) *Pause {
	if d < 0 {
		d = 0
	}
	return &Pause{d: d}
}

func (p *Pause) Duration() time.Duration { return p.d }

func (p *Pause) Execute(ctx context.Context, _ *exercise.Context) error {
	if p.d == 0 {
		return nil
	}
	t := time.NewTimer(p.d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pause) String() string { return "pause " + p.d.String() }
