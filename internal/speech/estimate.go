// Package speech implements the speech capability consumed by the exercise
// engine. A speaker turns text into a Say action whose duration is estimated
// up front, so exercises can be priced without touching a synthesizer.
package speech

import (
	"strings"
	"time"
)

const (
	// defaultWordsPerMinute approximates a calm coaching voice.
	defaultWordsPerMinute = 150

	// minUtterance is the floor for any non-empty utterance; even a single
	// short word takes this long to speak.
	minUtterance = 500 * time.Millisecond
)

// Estimate returns the expected utterance length of text at the given speech
// rate. A non-positive rate falls back to the default. Empty text is free.
func Estimate(text string, wordsPerMinute int) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	if wordsPerMinute <= 0 {
		wordsPerMinute = defaultWordsPerMinute
	}
	d := time.Duration(words) * time.Minute / time.Duration(wordsPerMinute)
	if d < minUtterance {
		d = minUtterance
	}
	return d
}
