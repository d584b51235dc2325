// Package action provides the concrete actions that ship with the engine:
// spoken announcements, timed pauses, and ordered composites. Anything
// implementing exercise.Action can be bound alongside them.
package action

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/repcall/internal/exercise"
)

// SpeakFunc performs one utterance. The speech capability supplies it when it
// builds a Say action.
type SpeakFunc func(ctx context.Context, text string) error

// Say speaks a fixed text when executed. Its duration is the utterance length
// estimated by the speech capability at construction, so pricing an exercise
// never touches the synthesizer.
type Say struct {
	text  string
	d     time.Duration
	speak SpeakFunc
}

// NewSay builds a Say action. A negative duration is treated as zero.
func NewSay(text string, d time.Duration, speak SpeakFunc) *Say {
	if d < 0 {
		d = 0
	}
	return &Say{text: text, d: d, speak: speak}
}

// Text returns the utterance text.
func (s *Say) Text() string { return s.text }

func (s *Say) Duration() time.Duration { return s.d }

func (s *Say) Execute(ctx context.Context, _ *exercise.Context) error {
	if s.speak == nil {
		return nil
	}
	return s.speak(ctx, s.text)
}

func (s *Say) String() string { return fmt.Sprintf("say %q", s.text) }
