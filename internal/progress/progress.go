package progress

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot is an immutable view of run progress at one instant.
type Snapshot struct {
	Total     int
	Queued    int
	Running   int
	Completed int
	Failed    int
	Cancelled bool
	StartedAt time.Time
}

// Done reports whether every admitted task reached a terminal state.
func (s Snapshot) Done() bool {
	return s.Queued == 0 && s.Running == 0
}

// Percent returns completion as a value between 0 and 100. Terminal states
// (success and failure alike) count as progress.
func (s Snapshot) Percent() float64 {
	if s.Total == 0 {
		return 100
	}
	return float64(s.Completed+s.Failed) / float64(s.Total) * 100
}

// String renders a compact one-line summary suitable for log output.
func (s Snapshot) String() string {
	return fmt.Sprintf("%d/%d done (%d running, %d queued, %d failed)",
		s.Completed+s.Failed, s.Total, s.Running, s.Queued, s.Failed)
}

// Tracker counts task state transitions for one run.
//
// The counter invariant Queued+Running+Completed+Failed == Total holds at
// every instant a Snapshot is taken.
type Tracker struct {
	mu        sync.Mutex
	total     int
	queued    int
	running   int
	completed int
	failed    int
	cancelled bool
	startedAt time.Time
}

// NewTracker creates a tracker for a run of total tasks, all initially queued.
func NewTracker(total int) *Tracker {
	return &Tracker{
		total:     total,
		queued:    total,
		startedAt: time.Now(),
	}
}

// Start moves one task from queued to running.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.queued == 0 {
		panic("progress: Start with no queued tasks")
	}
	t.queued--
	t.running++
}

// Complete moves one running task to completed.
func (t *Tracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running == 0 {
		panic("progress: Complete with no running tasks")
	}
	t.running--
	t.completed++
}

// Fail moves one running task to failed.
func (t *Tracker) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running == 0 {
		panic("progress: Fail with no running tasks")
	}
	t.running--
	t.failed++
}

// Cancel marks the run cancelled and drains still-queued tasks into failed,
// so the counter invariant survives an aborted run.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
	t.failed += t.queued
	t.queued = 0
}

// Snapshot returns a consistent copy of the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Total:     t.total,
		Queued:    t.queued,
		Running:   t.running,
		Completed: t.completed,
		Failed:    t.failed,
		Cancelled: t.cancelled,
		StartedAt: t.startedAt,
	}
}
