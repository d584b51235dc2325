package action

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/repcall/internal/exercise"
)

// Composite executes a fixed list of actions in order. Its duration is the
// sum of its parts, so it prices and skips as one unit.
type Composite struct {
	parts []exercise.Action
}

// NewComposite builds a Composite from the given actions in order.
func NewComposite(parts ...exercise.Action) *Composite {
	return &Composite{parts: append([]exercise.Action(nil), parts...)}
}

func (c *Composite) Duration() time.Duration {
	var total time.Duration
	for _, p := range c.parts {
		total += p.Duration()
	}
	return total
}

func (c *Composite) Execute(ctx context.Context, ec *exercise.Context) error {
	for _, p := range c.parts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.Execute(ctx, ec); err != nil {
			return err
		}
	}
	return nil
}

func (c *Composite) String() string { return fmt.Sprintf("composite of %d actions", len(c.parts)) }
