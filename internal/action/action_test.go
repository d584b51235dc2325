package action

import (
	"context"
	"testing"
	"time"

	"github.com/claude/repcall/internal/exercise"
)

// TestSayDurationAndSpeak verifies that a Say action reports its estimated
// duration without speaking, and speaks its text when executed.
func TestSayDurationAndSpeak(t *testing.T) {
	var spoken []string
	s := NewSay("three more", 800*time.Millisecond, func(_ context.Context, text string) error {
		spoken = append(spoken, text)
		return nil
	})

	if s.Duration() != 800*time.Millisecond {
		t.Errorf("Duration = %s, want 800ms", s.Duration())
	}
	if len(spoken) != 0 {
		t.Fatal("reading Duration spoke the text")
	}

	if err := s.Execute(context.Background(), nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(spoken) != 1 || spoken[0] != "three more" {
		t.Errorf("spoke %v, want [three more]", spoken)
	}
}

// TestSayNegativeDuration verifies negative estimates are clamped to zero.
func TestSayNegativeDuration(t *testing.T) {
	s := NewSay("x", -time.Second, nil)
	if s.Duration() != 0 {
		t.Errorf("Duration = %s, want 0", s.Duration())
	}
}

// TestPauseCancellation verifies that a pause wakes promptly when the run is
// cancelled instead of sleeping out its full duration.
func TestPauseCancellation(t *testing.T) {
	p := NewPause(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- p.Execute(ctx, nil) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Execute = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pause did not observe cancellation")
	}
}

// TestPauseZero verifies a zero pause completes immediately.
func TestPauseZero(t *testing.T) {
	if err := NewPause(0).Execute(context.Background(), nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

// orderedAction records its execution into a shared slice.
type orderedAction struct {
	name string
	d    time.Duration
	log  *[]string
}

func (a *orderedAction) Duration() time.Duration { return a.d }

func (a *orderedAction) Execute(_ context.Context, _ *exercise.Context) error {
	*a.log = append(*a.log, a.name)
	return nil
}

// TestCompositeOrderAndDuration verifies that a composite's duration is the
// sum of its parts and that parts execute strictly in order.
func TestCompositeOrderAndDuration(t *testing.T) {
	var order []string
	c := NewComposite(
		&orderedAction{name: "a", d: time.Second, log: &order},
		&orderedAction{name: "b", d: 2 * time.Second, log: &order},
		&orderedAction{name: "c", d: 3 * time.Second, log: &order},
	)

	if c.Duration() != 6*time.Second {
		t.Errorf("Duration = %s, want 6s", c.Duration())
	}
	if err := c.Execute(context.Background(), nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("executed %v, want [a b c]", order)
	}
}

// TestCompositeCancellation verifies that a cancelled composite stops between
// parts.
func TestCompositeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var order []string
	c := NewComposite(&orderedAction{name: "a", d: time.Second, log: &order})
	if err := c.Execute(ctx, nil); err != context.Canceled {
		t.Errorf("Execute = %v, want context.Canceled", err)
	}
	if len(order) != 0 {
		t.Errorf("executed %v, want none", order)
	}
}
