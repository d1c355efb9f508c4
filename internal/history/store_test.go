package history_test

import (
	"context"
	"testing"
	"time"

	"subrover/internal/history"
	"subrover/internal/testsupport"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "/media/library", []string{"en", "fr"}, 3)
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected generated run id")
	}
	if run.Status != history.RunRunning {
		t.Fatalf("expected running status, got %s", run.Status)
	}

	if err := store.FinishRun(ctx, run.ID, history.RunCompletedWithFailures, 2, 1); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	stored, err := store.RunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("run by id: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored run")
	}
	if stored.Status != history.RunCompletedWithFailures {
		t.Fatalf("unexpected status %s", stored.Status)
	}
	if stored.Completed != 2 || stored.Failed != 1 || stored.Total != 3 {
		t.Fatalf("unexpected counters: %+v", stored)
	}
	if stored.FinishedAt == nil {
		t.Fatal("expected finished timestamp")
	}
	if len(stored.Languages) != 2 || stored.Languages[0] != "en" {
		t.Fatalf("unexpected languages: %v", stored.Languages)
	}
}

func TestFinishRunRejectsUnknownID(t *testing.T) {
	store := openStore(t)
	if err := store.FinishRun(context.Background(), "no-such-run", history.RunCompleted, 0, 0); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestTaskRecordsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "/media", []string{"en"}, 2)
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}

	records := []history.TaskRecord{
		{RunID: run.ID, Path: "/media/a.mkv", Languages: []string{"en"}, State: history.TaskSucceeded, Attempts: 1},
		{RunID: run.ID, Path: "/media/b.mkv", Languages: []string{"en"}, State: history.TaskFailed, Detail: "no providers available", Attempts: 2},
	}
	for _, record := range records {
		if err := store.RecordTask(ctx, record); err != nil {
			t.Fatalf("record task: %v", err)
		}
	}

	stored, err := store.TasksForRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("tasks for run: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 records, got %d", len(stored))
	}
	if stored[0].Path != "/media/a.mkv" || stored[0].State != history.TaskSucceeded {
		t.Fatalf("unexpected first record: %+v", stored[0])
	}
	if stored[1].Detail != "no providers available" || stored[1].Attempts != 2 {
		t.Fatalf("unexpected second record: %+v", stored[1])
	}

	failed, err := store.FailedTasks(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed tasks: %v", err)
	}
	if len(failed) != 1 || failed[0].Path != "/media/b.mkv" {
		t.Fatalf("unexpected failed set: %+v", failed)
	}
}

func TestRecentRunsOrdering(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.BeginRun(ctx, "/media", []string{"en"}, 1)
	if err != nil {
		t.Fatalf("begin first: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := store.BeginRun(ctx, "/media", []string{"en"}, 1)
	if err != nil {
		t.Fatalf("begin second: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatal("expected newest-first ordering")
	}

	last, err := store.LastRun(ctx)
	if err != nil {
		t.Fatalf("last run: %v", err)
	}
	if last == nil || last.ID != second.ID {
		t.Fatal("expected most recent run from LastRun")
	}
}

func TestLastRunEmptyHistory(t *testing.T) {
	store := openStore(t)
	run, err := store.LastRun(context.Background())
	if err != nil {
		t.Fatalf("last run: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil run for empty history, got %+v", run)
	}
}

func TestPruneRemovesOldRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "/media", []string{"en"}, 1)
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if err := store.RecordTask(ctx, history.TaskRecord{RunID: run.ID, Path: "/media/a.mkv", Languages: []string{"en"}, State: history.TaskSucceeded}); err != nil {
		t.Fatalf("record task: %v", err)
	}

	removed, err := store.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned run, got %d", removed)
	}

	tasks, err := store.TasksForRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("tasks for run: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected cascade delete of tasks, got %d", len(tasks))
	}
}
