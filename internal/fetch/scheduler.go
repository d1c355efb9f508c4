package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"

	"subrover/internal/classify"
	"subrover/internal/history"
	"subrover/internal/logging"
	"subrover/internal/progress"
	"subrover/internal/scan"
	"subrover/internal/subliminal"
)

// ErrRunActive indicates another process already holds the run lock.
var ErrRunActive = errors.New("another fetch run is already active")

// Options configures a Scheduler.
type Options struct {
	Concurrency   int
	RetryAttempts int
	RetryInterval time.Duration
	TaskTimeout   time.Duration
	LockPath      string
	History       *history.Store
	Logger        *slog.Logger

	// OnUpdate is invoked after every task state change with a consistent
	// progress snapshot. Must be safe for concurrent calls.
	OnUpdate func(*Task, progress.Snapshot)
}

// Summary is the outcome of one scheduler run.
type Summary struct {
	RunID    string
	Status   history.RunStatus
	Snapshot progress.Snapshot
	Tasks    []*Task
}

// Scheduler drives subtitle downloads through a fixed-size worker pool.
type Scheduler struct {
	client        subliminal.Client
	concurrency   int
	retryAttempts int
	retryInterval time.Duration
	taskTimeout   time.Duration
	lockPath      string
	store         *history.Store
	logger        *slog.Logger
	onUpdate      func(*Task, progress.Snapshot)
}

// New constructs a Scheduler around a download client.
func New(client subliminal.Client, opts Options) *Scheduler {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Scheduler{
		client:        client,
		concurrency:   concurrency,
		retryAttempts: opts.RetryAttempts,
		retryInterval: interval,
		taskTimeout:   opts.TaskTimeout,
		lockPath:      opts.LockPath,
		store:         opts.History,
		logger:        logging.NewComponentLogger(opts.Logger, "scheduler"),
		onUpdate:      opts.OnUpdate,
	}
}

// Run downloads subtitles for every video a scan flagged as missing them.
// Cancellation of ctx stops admissions and interrupts running downloads; the
// returned Summary then carries the cancelled status instead of an error.
func (s *Scheduler) Run(ctx context.Context, result *scan.Result) (*Summary, error) {
	tasks := newTasks(result.Missing)
	summary := &Summary{Tasks: tasks}

	if s.lockPath != "" {
		lock := flock.New(s.lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire run lock %s: %w", s.lockPath, err)
		}
		if !locked {
			return nil, ErrRunActive
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	var runID string
	if s.store != nil {
		run, err := s.store.BeginRun(ctx, result.Root, runLanguages(tasks), len(tasks))
		if err != nil {
			return nil, fmt.Errorf("begin run: %w", err)
		}
		runID = run.ID
	}
	summary.RunID = runID

	tracker := progress.NewTracker(len(tasks))
	s.logger.Info("run started",
		logging.String("run_id", runID),
		logging.Int("tasks", len(tasks)),
		logging.Int("workers", s.concurrency),
	)

	taskCh := make(chan *Task)
	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				s.execute(ctx, runID, tracker, task)
			}
		}()
	}
	wg.Wait()

	cancelled := ctx.Err() != nil
	if cancelled {
		tracker.Cancel()
		for _, task := range tasks {
			if task.State == StateQueued {
				task.State = StateFailed
				task.Detail = "run cancelled"
				s.record(runID, task)
			}
		}
	}

	snapshot := tracker.Snapshot()
	summary.Snapshot = snapshot
	summary.Status = runStatus(snapshot)

	if s.store != nil {
		// Run records survive cancellation, so finish with a fresh context.
		finishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.FinishRun(finishCtx, runID, summary.Status, snapshot.Completed, snapshot.Failed); err != nil {
			s.logger.Warn("record run outcome", logging.Error(err))
		}
	}

	s.logger.Info("run finished",
		logging.String("run_id", runID),
		logging.String("status", string(summary.Status)),
		logging.Int("completed", snapshot.Completed),
		logging.Int("failed", snapshot.Failed),
	)
	return summary, nil
}

func (s *Scheduler) execute(ctx context.Context, runID string, tracker *progress.Tracker, task *Task) {
	tracker.Start()
	task.State = StateRunning
	s.notify(task, tracker)

	err := s.runTask(ctx, task)
	if err != nil {
		task.State = StateFailed
		task.Detail = err.Error()
		tracker.Fail()
		s.logger.Warn("task failed",
			logging.String("path", task.Video.Path),
			logging.Int("attempts", task.Attempts),
			logging.Error(err),
		)
	} else {
		task.State = StateSucceeded
		tracker.Complete()
		s.logger.Info("task succeeded",
			logging.String("path", task.Video.Path),
			logging.Any("languages", task.Languages),
		)
	}
	s.record(runID, task)
	s.notify(task, tracker)
}

func (s *Scheduler) runTask(ctx context.Context, task *Task) error {
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		task.Attempts++

		attemptCtx := ctx
		if s.taskTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, s.taskTimeout)
			defer cancel()
		}

		if err := s.client.Fetch(attemptCtx, task.Video.Path, task.Languages); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		if err := verifySidecars(task.Video.Path, task.Languages); err != nil {
			// Providers can come up empty for videos whose container already
			// carries matching subtitle tracks.
			if embeddedSatisfies(task) {
				task.Detail = "embedded subtitles already present"
				return nil
			}
			return err
		}
		return nil
	}

	if s.retryAttempts <= 0 {
		return operation()
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryInterval), uint64(s.retryAttempts)),
		ctx,
	)
	return backoff.Retry(operation, policy)
}

// verifySidecars confirms the download actually produced subtitle files. A
// provider can report success while returning nothing for a language.
func verifySidecars(videoPath string, languages []string) error {
	if classify.GenericSidecarPath(videoPath) != "" {
		return nil
	}
	for _, lang := range languages {
		if classify.SidecarPath(videoPath, lang) == "" {
			return fmt.Errorf("no subtitle file written for language %q", lang)
		}
	}
	return nil
}

func embeddedSatisfies(task *Task) bool {
	if len(task.Video.Present) == 0 {
		return false
	}
	for _, lang := range task.Languages {
		if task.Video.Present[lang] != classify.PresenceEmbedded {
			return false
		}
	}
	return true
}

func (s *Scheduler) record(runID string, task *Task) {
	if s.store == nil || runID == "" {
		return
	}
	if task.State != StateSucceeded && task.State != StateFailed {
		return
	}
	state := history.TaskSucceeded
	if task.State == StateFailed {
		state = history.TaskFailed
	}
	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.store.RecordTask(recordCtx, history.TaskRecord{
		RunID:     runID,
		Path:      task.Video.Path,
		Languages: task.Languages,
		State:     state,
		Detail:    task.Detail,
		Attempts:  task.Attempts,
	})
	if err != nil {
		s.logger.Warn("record task outcome", logging.String("path", task.Video.Path), logging.Error(err))
	}
}

func (s *Scheduler) notify(task *Task, tracker *progress.Tracker) {
	if s.onUpdate == nil {
		return
	}
	s.onUpdate(task, tracker.Snapshot())
}

func runStatus(snapshot progress.Snapshot) history.RunStatus {
	switch {
	case snapshot.Cancelled:
		return history.RunCancelled
	case snapshot.Failed > 0:
		return history.RunCompletedWithFailures
	default:
		return history.RunCompleted
	}
}

func runLanguages(tasks []*Task) []string {
	seen := make(map[string]struct{})
	var languages []string
	for _, task := range tasks {
		for _, lang := range task.Languages {
			if _, ok := seen[lang]; ok {
				continue
			}
			seen[lang] = struct{}{}
			languages = append(languages, lang)
		}
	}
	return languages
}
