package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/claude/repcall/internal/action"
	"github.com/claude/repcall/internal/exercise"
	"github.com/claude/repcall/internal/match"
	"github.com/claude/repcall/internal/storage"
	"github.com/google/uuid"
)

const testAPIKey = "test-key"

// noopSpeaker prices announcements at a fixed cost and speaks instantly.
type noopSpeaker struct{}

type noopAction struct{ d time.Duration }

func (a noopAction) Duration() time.Duration                          { return a.d }
func (a noopAction) Execute(context.Context, *exercise.Context) error { return nil }

func (noopSpeaker) Say(string) exercise.Action {
	return noopAction{d: 500 * time.Millisecond}
}

// fakeStore records run summaries in memory.
type fakeStore struct {
	mu       sync.Mutex
	inserted []storage.RunRow
	finished map[uuid.UUID]storage.RunRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{finished: make(map[uuid.UUID]storage.RunRow)}
}

func (f *fakeStore) InsertRun(_ context.Context, row storage.RunRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, row)
	return nil
}

func (f *fakeStore) FinishRun(_ context.Context, id uuid.UUID, progress time.Duration, completed, cancelled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished[id] = storage.RunRow{ID: id, Progress: progress, Completed: completed, Cancelled: cancelled}
	return nil
}

func (f *fakeStore) RecentRuns(context.Context, int) ([]storage.RunRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.RunRow(nil), f.inserted...), nil
}

func testServer(t *testing.T, store RunStore) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	pushups, err := exercise.New(log, noopSpeaker{}, "Push Ups", 1, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	plank, err := exercise.New(log, noopSpeaker{}, "Plank", 1, 1, []exercise.Binding{{
		Matcher: match.On{Kind: exercise.DuringRepetition},
		Action:  action.NewPause(time.Minute),
	}})
	if err != nil {
		t.Fatal(err)
	}

	return New([]*exercise.Exercise{pushups, plank}, store, testAPIKey, log)
}

func doJSON(t *testing.T, s *Server, method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func waitForState(t *testing.T, s *Server, id, want string) RunStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, s, http.MethodGet, "/api/v1/runs/"+id, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status endpoint = %d", rec.Code)
		}
		var st RunStatus
		if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
			t.Fatal(err)
		}
		if st.State == want {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s never reached state %q", id, want)
	return RunStatus{}
}

// TestListExercises verifies the catalog endpoint returns every loaded
// exercise with its precomputed duration.
func TestListExercises(t *testing.T) {
	s := testServer(t, newFakeStore())

	rec := doJSON(t, s, http.MethodGet, "/api/v1/exercises", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []exerciseSummary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("%d exercises, want 2", len(got))
	}
	if got[0].Name != "Push Ups" || got[0].Sets != 1 || got[0].Repetitions != 2 {
		t.Errorf("first = %+v", got[0])
	}
	if got[0].DurationMs != 500 {
		t.Errorf("Push Ups duration_ms = %d, want 500 (announcement only)", got[0].DurationMs)
	}
	if got[1].DurationMs != 60500 {
		t.Errorf("Plank duration_ms = %d, want 60500", got[1].DurationMs)
	}
}

// TestGetExerciseTimeline verifies the detail endpoint, including
// percent-encoded names in the path.
func TestGetExerciseTimeline(t *testing.T) {
	s := testServer(t, newFakeStore())

	rec := doJSON(t, s, http.MethodGet, "/api/v1/exercises/Push%20Ups", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got exerciseDetail
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Timeline) != 1 {
		t.Fatalf("%d timeline entries, want 1 (announcement)", len(got.Timeline))
	}
	if got.Timeline[0].Event != "before_exercise" {
		t.Errorf("timeline[0].event = %q", got.Timeline[0].Event)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/exercises/Nope", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown exercise status = %d, want 404", rec.Code)
	}
}

// TestStartRunCompletes verifies the full run lifecycle: start with an API
// key, poll to completion, and find progress recorded in the store.
func TestStartRunCompletes(t *testing.T) {
	store := newFakeStore()
	s := testServer(t, store)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/runs",
		startRunRequest{Exercise: "Push Ups"}, testAPIKey)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	st := waitForState(t, s, resp["id"], "completed")
	if st.ProgressMs != 500 {
		t.Errorf("progress_ms = %d, want 500", st.ProgressMs)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.inserted) != 1 {
		t.Fatalf("%d runs recorded, want 1", len(store.inserted))
	}
	fin := store.finished[store.inserted[0].ID]
	if !fin.Completed || fin.Cancelled {
		t.Errorf("recorded outcome = %+v, want completed", fin)
	}
}

// TestStartRunValidation verifies auth and input checks on the start
// endpoint.
func TestStartRunValidation(t *testing.T) {
	s := testServer(t, newFakeStore())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/runs",
		startRunRequest{Exercise: "Push Ups"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/runs",
		startRunRequest{Exercise: "Nope"}, testAPIKey)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown exercise status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/runs",
		startRunRequest{Exercise: "Push Ups", SkipAheadMs: -1}, testAPIKey)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative skip status = %d, want 400", rec.Code)
	}
}

// TestCancelRun verifies that cancelling a long-running exercise settles it
// in the cancelled state and records the outcome.
func TestCancelRun(t *testing.T) {
	store := newFakeStore()
	s := testServer(t, store)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/runs",
		startRunRequest{Exercise: "Plank"}, testAPIKey)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/runs/"+resp["id"]+"/cancel", nil, testAPIKey)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("cancel status = %d, want 202", rec.Code)
	}

	st := waitForState(t, s, resp["id"], "cancelled")
	if st.Error != "" {
		t.Errorf("cancelled run reported error %q", st.Error)
	}

	id := uuid.MustParse(resp["id"])
	deadline := time.Now().Add(5 * time.Second)
	for {
		store.mu.Lock()
		fin, ok := store.finished[id]
		store.mu.Unlock()
		if ok {
			if fin.Completed || !fin.Cancelled {
				t.Errorf("recorded outcome = %+v, want cancelled", fin)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run outcome never recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestSettledRunEvicted verifies that a settled run leaves the in-memory map
// after the retention window, so a long-lived server does not accumulate
// finished runs; its history stays in the store.
func TestSettledRunEvicted(t *testing.T) {
	store := newFakeStore()
	s := testServer(t, store)
	s.runs.retention = 10 * time.Millisecond

	rec := doJSON(t, s, http.MethodPost, "/api/v1/runs",
		startRunRequest{Exercise: "Push Ups"}, testAPIKey)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	// Eviction is scheduled after the outcome is recorded, so a 404 here
	// implies the run settled and its summary reached the store.
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = doJSON(t, s, http.MethodGet, "/api/v1/runs/"+resp["id"], nil, "")
		if rec.Code == http.StatusNotFound {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("settled run still queryable after retention, status = %d", rec.Code)
		}
		time.Sleep(10 * time.Millisecond)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	fin, ok := store.finished[uuid.MustParse(resp["id"])]
	if !ok || !fin.Completed {
		t.Errorf("recorded outcome = %+v ok=%v, want completed row surviving eviction", fin, ok)
	}
}

// TestRunStatusUnknown verifies id validation on the status endpoint.
func TestRunStatusUnknown(t *testing.T) {
	s := testServer(t, newFakeStore())

	rec := doJSON(t, s, http.MethodGet, "/api/v1/runs/not-a-uuid", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}
