package history

import "time"

// RunStatus captures how a run ended.
type RunStatus string

const (
	// RunRunning marks a run that has started and not yet finished.
	RunRunning RunStatus = "running"
	// RunCompleted means every task succeeded.
	RunCompleted RunStatus = "completed"
	// RunCompletedWithFailures means the run finished but at least one task failed.
	RunCompletedWithFailures RunStatus = "completed_with_failures"
	// RunCancelled means the run was aborted before all tasks finished.
	RunCancelled RunStatus = "cancelled"
)

// TaskState is the terminal state recorded for one video.
type TaskState string

const (
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// Run is one scheduler invocation over a library root.
type Run struct {
	ID         string
	Root       string
	Languages  []string
	Status     RunStatus
	Total      int
	Completed  int
	Failed     int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// TaskRecord is the stored outcome of one download task.
type TaskRecord struct {
	ID         int64
	RunID      string
	Path       string
	Languages  []string
	State      TaskState
	Detail     string
	Attempts   int
	FinishedAt time.Time
}
