package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/repcall/internal/action"
	"github.com/claude/repcall/internal/exercise"
)

// HTTPSpeaker sends utterances to a TTS sidecar over HTTP. The sidecar plays
// the audio and responds once playback finished, reporting the measured
// duration, which is cached for future estimates.
type HTTPSpeaker struct {
	baseURL    string
	httpClient *http.Client
	wpm        int
	cache      *Cache
	log        *slog.Logger
}

// NewHTTPSpeaker creates a speaker for the TTS sidecar at baseURL. cache may
// be nil, in which case every estimate is rate-based.
func NewHTTPSpeaker(baseURL string, wordsPerMinute int, cache *Cache, log *slog.Logger) *HTTPSpeaker {
	return &HTTPSpeaker{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		wpm:   wordsPerMinute,
		cache: cache,
		log:   log,
	}
}

// Say returns an action priced from the cache when the utterance has been
// measured before, or from the word-rate estimate otherwise.
func (s *HTTPSpeaker) Say(text string) exercise.Action {
	return action.NewSay(text, s.estimate(text), s.speak)
}

func (s *HTTPSpeaker) estimate(text string) time.Duration {
	if s.cache != nil {
		d, ok, err := s.cache.Lookup(text)
		if err != nil {
			s.log.Warn("speech cache lookup failed", "error", err)
		} else if ok {
			return d
		}
	}
	return Estimate(text, s.wpm)
}

type speakRequest struct {
	Text string `json:"text"`
}

type speakResponse struct {
	DurationMs int64 `json:"duration_ms"`
}

func (s *HTTPSpeaker) speak(ctx context.Context, text string) error {
	data, err := json.Marshal(speakRequest{Text: text})
	if err != nil {
		return fmt.Errorf("marshaling utterance: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/api/v1/speak", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building speak request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speaking %q: %w", text, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("speak request failed (status %d): %s", resp.StatusCode, body)
	}

	var sr speakResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		// Playback succeeded; a malformed measurement only loses the cache
		// update.
		s.log.Warn("decoding speak response", "error", err)
		return nil
	}
	if sr.DurationMs > 0 && s.cache != nil {
		if err := s.cache.Store(text, time.Duration(sr.DurationMs)*time.Millisecond); err != nil {
			s.log.Warn("speech cache store failed", "error", err)
		}
	}
	return nil
}
