package fetch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"subrover/internal/classify"
	"subrover/internal/fetch"
	"subrover/internal/history"
	"subrover/internal/progress"
	"subrover/internal/scan"
	"subrover/internal/testsupport"
)

// stubClient mimics a download tool by writing sidecar files. It tracks call
// concurrency so pool bounds can be asserted.
type stubClient struct {
	mu         sync.Mutex
	running    int
	maxRunning int
	calls      map[string]int

	failPaths   map[string]string
	failUntil   map[string]int
	skipSidecar bool
	delay       time.Duration
	started     chan string
}

func newStubClient() *stubClient {
	return &stubClient{
		calls:     make(map[string]int),
		failPaths: make(map[string]string),
		failUntil: make(map[string]int),
	}
}

func (c *stubClient) Fetch(ctx context.Context, path string, languages []string) error {
	c.mu.Lock()
	c.running++
	if c.running > c.maxRunning {
		c.maxRunning = c.running
	}
	c.calls[path]++
	attempt := c.calls[path]
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running--
		c.mu.Unlock()
	}()

	if c.started != nil {
		select {
		case c.started <- path:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if reason, ok := c.failPaths[path]; ok {
		return errors.New(reason)
	}
	if until, ok := c.failUntil[path]; ok && attempt <= until {
		return errors.New("transient provider error")
	}
	if c.skipSidecar {
		return nil
	}
	for _, lang := range languages {
		if err := os.WriteFile(sidecarFor(path, lang), []byte("sub"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func sidecarFor(videoPath, lang string) string {
	ext := filepath.Ext(videoPath)
	return videoPath[:len(videoPath)-len(ext)] + "." + lang + ".srt"
}

func makeScanResult(t *testing.T, names ...string) *scan.Result {
	t.Helper()
	root := t.TempDir()
	result := &scan.Result{Root: root}
	for _, name := range names {
		path := testsupport.WriteVideo(t, root, name)
		result.Missing = append(result.Missing, scan.VideoFile{Path: path, Missing: []string{"en"}})
	}
	return result
}

func TestRunDownloadsAllMissingVideos(t *testing.T) {
	client := newStubClient()
	scheduler := fetch.New(client, fetch.Options{Concurrency: 2})

	result := makeScanResult(t, "a.mkv", "b.mkv", "c.mkv")
	summary, err := scheduler.Run(context.Background(), result)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Status != history.RunCompleted {
		t.Fatalf("expected completed run, got %s", summary.Status)
	}
	if summary.Snapshot.Completed != 3 || summary.Snapshot.Failed != 0 {
		t.Fatalf("unexpected snapshot: %+v", summary.Snapshot)
	}
	for _, task := range summary.Tasks {
		if task.State != fetch.StateSucceeded {
			t.Fatalf("task %s not succeeded: %s (%s)", task.Video.Path, task.State, task.Detail)
		}
		sidecar := classify.SidecarPath(task.Video.Path, "en")
		if _, err := os.Stat(sidecar); err != nil {
			t.Fatalf("expected sidecar %s: %v", sidecar, err)
		}
	}
}

func TestRunRespectsConcurrencyBound(t *testing.T) {
	client := newStubClient()
	client.delay = 20 * time.Millisecond
	scheduler := fetch.New(client, fetch.Options{Concurrency: 2})

	result := makeScanResult(t, "a.mkv", "b.mkv", "c.mkv", "d.mkv", "e.mkv", "f.mkv")
	if _, err := scheduler.Run(context.Background(), result); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if client.maxRunning > 2 {
		t.Fatalf("pool bound violated: %d concurrent downloads", client.maxRunning)
	}
}

func TestRunIsolatesTaskFailures(t *testing.T) {
	result := makeScanResult(t, "a.mkv", "b.mkv", "c.mkv")
	client := newStubClient()
	client.failPaths[result.Missing[1].Path] = "no providers available"
	scheduler := fetch.New(client, fetch.Options{Concurrency: 1})

	summary, err := scheduler.Run(context.Background(), result)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Status != history.RunCompletedWithFailures {
		t.Fatalf("expected completed_with_failures, got %s", summary.Status)
	}
	if summary.Snapshot.Completed != 2 || summary.Snapshot.Failed != 1 {
		t.Fatalf("unexpected snapshot: %+v", summary.Snapshot)
	}
	failed := summary.Tasks[1]
	if failed.State != fetch.StateFailed || failed.Detail != "no providers available" {
		t.Fatalf("unexpected failed task: %+v", failed)
	}
}

func TestRunVerifiesSidecarPresence(t *testing.T) {
	client := newStubClient()
	client.skipSidecar = true
	scheduler := fetch.New(client, fetch.Options{Concurrency: 1})

	summary, err := scheduler.Run(context.Background(), makeScanResult(t, "a.mkv"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	task := summary.Tasks[0]
	if task.State != fetch.StateFailed {
		t.Fatalf("expected verification failure, got %s", task.State)
	}
	if task.Detail == "" {
		t.Fatal("expected failure detail")
	}
}

func TestRunAcceptsEmbeddedCoverageWhenProviderEmpty(t *testing.T) {
	client := newStubClient()
	client.skipSidecar = true
	scheduler := fetch.New(client, fetch.Options{Concurrency: 1})

	result := makeScanResult(t, "a.mkv")
	result.Missing[0].Present = map[string]classify.Presence{"en": classify.PresenceEmbedded}

	summary, err := scheduler.Run(context.Background(), result)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	task := summary.Tasks[0]
	if task.State != fetch.StateSucceeded {
		t.Fatalf("expected embedded coverage to count as success, got %s (%s)", task.State, task.Detail)
	}
	if task.Detail != "embedded subtitles already present" {
		t.Fatalf("expected embedded note, got %q", task.Detail)
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	result := makeScanResult(t, "a.mkv")
	client := newStubClient()
	client.failUntil[result.Missing[0].Path] = 2
	scheduler := fetch.New(client, fetch.Options{
		Concurrency:   1,
		RetryAttempts: 2,
		RetryInterval: time.Millisecond,
	})

	summary, err := scheduler.Run(context.Background(), result)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	task := summary.Tasks[0]
	if task.State != fetch.StateSucceeded {
		t.Fatalf("expected success after retries, got %s (%s)", task.State, task.Detail)
	}
	if task.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", task.Attempts)
	}
}

func TestRunCancellationStopsAdmissions(t *testing.T) {
	client := newStubClient()
	client.started = make(chan string)
	scheduler := fetch.New(client, fetch.Options{Concurrency: 1})

	result := makeScanResult(t, "a.mkv", "b.mkv", "c.mkv")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan *fetch.Summary, 1)
	go func() {
		summary, err := scheduler.Run(ctx, result)
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
		done <- summary
	}()

	// Wait for the first download to start, then abort the run.
	<-client.started
	cancel()

	summary := <-done
	if summary == nil {
		t.Fatal("missing summary")
	}
	if summary.Status != history.RunCancelled {
		t.Fatalf("expected cancelled run, got %s", summary.Status)
	}
	if !summary.Snapshot.Cancelled || !summary.Snapshot.Done() {
		t.Fatalf("unexpected snapshot: %+v", summary.Snapshot)
	}
	var untouched int
	for _, task := range summary.Tasks {
		if task.Detail == "run cancelled" {
			untouched++
		}
	}
	if untouched == 0 {
		t.Fatal("expected queued tasks to be marked cancelled")
	}
}

func TestRunRecordsHistory(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	result := makeScanResult(t, "a.mkv", "b.mkv")
	client := newStubClient()
	client.failPaths[result.Missing[0].Path] = "no providers available"
	scheduler := fetch.New(client, fetch.Options{Concurrency: 1, History: store})

	summary, err := scheduler.Run(context.Background(), result)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}

	run, err := store.RunByID(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("run by id: %v", err)
	}
	if run.Status != history.RunCompletedWithFailures {
		t.Fatalf("unexpected stored status: %s", run.Status)
	}
	if run.Completed != 1 || run.Failed != 1 || run.Total != 2 {
		t.Fatalf("unexpected stored counters: %+v", run)
	}

	tasks, err := store.TasksForRun(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("tasks for run: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 task records, got %d", len(tasks))
	}
}

func TestRunLockPreventsConcurrentRuns(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "run.lock")
	holder := flock.New(lockPath)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer holder.Unlock()

	scheduler := fetch.New(newStubClient(), fetch.Options{Concurrency: 1, LockPath: lockPath})
	_, err = scheduler.Run(context.Background(), makeScanResult(t, "a.mkv"))
	if !errors.Is(err, fetch.ErrRunActive) {
		t.Fatalf("expected ErrRunActive, got %v", err)
	}
}

func TestRunProgressCallback(t *testing.T) {
	var mu sync.Mutex
	var snapshots int
	scheduler := fetch.New(newStubClient(), fetch.Options{
		Concurrency: 2,
		OnUpdate: func(task *fetch.Task, snapshot progress.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			snapshots++
			if snapshot.Queued+snapshot.Running+snapshot.Completed+snapshot.Failed != snapshot.Total {
				t.Errorf("inconsistent snapshot: %+v", snapshot)
			}
		},
	})

	if _, err := scheduler.Run(context.Background(), makeScanResult(t, "a.mkv", "b.mkv")); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if snapshots < 4 {
		t.Fatalf("expected a state-change notification per transition, got %d", snapshots)
	}
}
