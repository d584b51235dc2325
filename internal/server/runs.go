package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/repcall/internal/exercise"
	"github.com/claude/repcall/internal/storage"
	"github.com/google/uuid"
)

// RunStore records run summaries. *storage.DB satisfies it; tests use a fake.
type RunStore interface {
	InsertRun(ctx context.Context, row storage.RunRow) error
	FinishRun(ctx context.Context, id uuid.UUID, progress time.Duration, completed, cancelled bool) error
	RecentRuns(ctx context.Context, limit int) ([]storage.RunRow, error)
}

// Compile-time check: *storage.DB satisfies RunStore.
var _ RunStore = (*storage.DB)(nil)

type runState string

const (
	runStateRunning   runState = "running"
	runStateCompleted runState = "completed"
	runStateCancelled runState = "cancelled"
	runStateFailed    runState = "failed"
)

// activeRun is one execution attempt owned by the run manager. The execution
// context belongs exclusively to the driver goroutine until it returns;
// position and progress are only read once the run has left the running
// state.
type activeRun struct {
	id        uuid.UUID
	exercise  *exercise.Exercise
	ec        *exercise.Context
	cancel    context.CancelFunc
	startedAt time.Time

	mu    sync.Mutex
	state runState
	err   error
}

// RunStatus is the JSON shape of one run's state. Position and progress are
// zero while the run is still executing.
type RunStatus struct {
	ID         string    `json:"id"`
	Exercise   string    `json:"exercise"`
	State      string    `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	Set        int       `json:"set,omitempty"`
	Repetition int       `json:"repetition,omitempty"`
	ProgressMs int64     `json:"progress_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func (r *activeRun) status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := RunStatus{
		ID:        r.id.String(),
		Exercise:  r.exercise.Name(),
		State:     string(r.state),
		StartedAt: r.startedAt,
	}
	if r.state != runStateRunning {
		// The driver goroutine has returned; the context is safe to read.
		st.Set = r.ec.Set()
		st.Repetition = r.ec.Repetition()
		st.ProgressMs = r.ec.Progress().Milliseconds()
	}
	if r.err != nil {
		st.Error = r.err.Error()
	}
	return st
}

// runManager starts, tracks, and cancels executions. Each run gets its own
// goroutine, cancellable context, and fresh execution context; summaries are
// recorded to the store when the run settles. Settled runs stay in the map
// for the retention window so clients can finish polling their status, then
// get evicted; the store keeps the history.
type runManager struct {
	store     RunStore
	log       *slog.Logger
	retention time.Duration

	mu   sync.Mutex
	runs map[uuid.UUID]*activeRun
}

// settledRunRetention is how long a completed, cancelled, or failed run
// remains queryable in memory after it settles.
const settledRunRetention = time.Hour

func newRunManager(store RunStore, log *slog.Logger) *runManager {
	return &runManager{
		store:     store,
		log:       log,
		retention: settledRunRetention,
		runs:      make(map[uuid.UUID]*activeRun),
	}
}

// start launches one execution attempt and returns its id immediately.
func (m *runManager) start(ex *exercise.Exercise, skipAhead time.Duration) uuid.UUID {
	ctx, cancel := context.WithCancel(context.Background())
	run := &activeRun{
		id:        uuid.New(),
		exercise:  ex,
		ec:        exercise.NewContext(skipAhead),
		cancel:    cancel,
		startedAt: time.Now(),
		state:     runStateRunning,
	}

	m.mu.Lock()
	m.runs[run.id] = run
	m.mu.Unlock()

	// Recording is observational; a store failure never blocks the run.
	if err := m.store.InsertRun(context.Background(), storage.RunRow{
		ID:        run.id,
		Exercise:  ex.Name(),
		StartedAt: run.startedAt,
		SkipAhead: skipAhead,
	}); err != nil {
		m.log.Warn("recording run start failed", "run", run.id, "error", err)
	}

	go m.drive(ctx, run)
	return run.id
}

func (m *runManager) drive(ctx context.Context, run *activeRun) {
	defer run.cancel()

	err := run.exercise.Execute(ctx, run.ec)

	run.mu.Lock()
	switch {
	case err != nil:
		run.state = runStateFailed
		run.err = err
	case ctx.Err() != nil:
		run.state = runStateCancelled
	default:
		run.state = runStateCompleted
	}
	state := run.state
	run.mu.Unlock()

	m.log.Info("run settled",
		"run", run.id,
		"exercise", run.exercise.Name(),
		"state", string(state),
		"progress", run.ec.Progress().String())

	storeCtx, cancelStore := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStore()
	if err := m.store.FinishRun(storeCtx, run.id, run.ec.Progress(),
		state == runStateCompleted, state == runStateCancelled); err != nil {
		m.log.Warn("recording run outcome failed", "run", run.id, "error", err)
	}

	time.AfterFunc(m.retention, func() { m.remove(run.id) })
}

// remove evicts one settled run from the in-memory map.
func (m *runManager) remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, id)
}

// get returns the run with the given id, if known.
func (m *runManager) get(id uuid.UUID) (*activeRun, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	return run, ok
}

// cancelRun signals one run to stop at its next action boundary.
func (m *runManager) cancelRun(id uuid.UUID) error {
	run, ok := m.get(id)
	if !ok {
		return fmt.Errorf("unknown run %s", id)
	}
	run.cancel()
	return nil
}
