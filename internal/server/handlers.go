package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/claude/repcall/internal/exercise"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type exerciseSummary struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Repetitions int    `json:"repetitions"`
	DurationMs  int64  `json:"duration_ms"`
}

type timelineEntry struct {
	Event      string `json:"event"`
	Set        int    `json:"set,omitempty"`
	Repetition int    `json:"repetition,omitempty"`
	Action     string `json:"action"`
	DurationMs int64  `json:"duration_ms"`
	OffsetMs   int64  `json:"offset_ms"`
}

type exerciseDetail struct {
	exerciseSummary
	Timeline []timelineEntry `json:"timeline"`
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	out := make([]exerciseSummary, 0, len(s.exercises))
	for _, ex := range s.exercises {
		out = append(out, summarize(ex))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.lookupExercise(chi.URLParam(r, "name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown exercise"})
		return
	}

	detail := exerciseDetail{exerciseSummary: summarize(ex)}
	for _, en := range ex.Timeline() {
		detail.Timeline = append(detail.Timeline, timelineEntry{
			Event:      en.Event.Kind.String(),
			Set:        en.Event.Set,
			Repetition: en.Event.Repetition,
			Action:     exercise.DescribeAction(en.Action),
			DurationMs: en.Duration.Milliseconds(),
			OffsetMs:   en.Offset.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, detail)
}

type startRunRequest struct {
	Exercise    string `json:"exercise"`
	SkipAheadMs int64  `json:"skip_ahead_ms"`
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.SkipAheadMs < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "skip_ahead_ms must not be negative"})
		return
	}

	ex, ok := s.lookupExercise(req.Exercise)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown exercise"})
		return
	}

	id := s.runs.start(ex, time.Duration(req.SkipAheadMs)*time.Millisecond)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id.String()})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}
	run, ok := s.runs.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown run"})
		return
	}
	writeJSON(w, http.StatusOK, run.status())
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}
	if err := s.runs.cancelRun(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

type runSummary struct {
	ID          string     `json:"id"`
	Exercise    string     `json:"exercise"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	SkipAheadMs int64      `json:"skip_ahead_ms"`
	ProgressMs  int64      `json:"progress_ms"`
	Completed   bool       `json:"completed"`
	Cancelled   bool       `json:"cancelled"`
}

func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	rows, err := s.runs.store.RecentRuns(r.Context(), 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]runSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, runSummary{
			ID:          row.ID.String(),
			Exercise:    row.Exercise,
			StartedAt:   row.StartedAt,
			FinishedAt:  row.FinishedAt,
			SkipAheadMs: row.SkipAhead.Milliseconds(),
			ProgressMs:  row.Progress.Milliseconds(),
			Completed:   row.Completed,
			Cancelled:   row.Cancelled,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// lookupExercise resolves a URL- or body-supplied exercise name. Names may
// contain spaces, so path segments arrive percent-encoded.
func (s *Server) lookupExercise(name string) (*exercise.Exercise, bool) {
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	ex, ok := s.byName[name]
	return ex, ok
}

func summarize(ex *exercise.Exercise) exerciseSummary {
	return exerciseSummary{
		Name:        ex.Name(),
		Sets:        ex.Sets(),
		Repetitions: ex.Repetitions(),
		DurationMs:  ex.Duration().Milliseconds(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
