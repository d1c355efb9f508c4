package fetch

import (
	"github.com/google/uuid"

	"subrover/internal/scan"
)

// State is the lifecycle position of one download task.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Task is one video queued for subtitle download. Fields other than State,
// Detail, and Attempts are immutable after construction.
type Task struct {
	ID        string
	Video     scan.VideoFile
	Languages []string
	State     State
	Detail    string
	Attempts  int
}

func newTasks(videos []scan.VideoFile) []*Task {
	tasks := make([]*Task, 0, len(videos))
	for _, video := range videos {
		if len(video.Missing) == 0 {
			continue
		}
		tasks = append(tasks, &Task{
			ID:        uuid.NewString(),
			Video:     video,
			Languages: append([]string(nil), video.Missing...),
			State:     StateQueued,
		})
	}
	return tasks
}
