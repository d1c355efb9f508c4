package progress_test

import (
	"sync"
	"testing"

	"subrover/internal/progress"
)

func checkInvariant(t *testing.T, s progress.Snapshot) {
	t.Helper()
	if s.Queued+s.Running+s.Completed+s.Failed != s.Total {
		t.Fatalf("counter invariant broken: %+v", s)
	}
}

func TestTrackerLifecycle(t *testing.T) {
	tracker := progress.NewTracker(3)
	checkInvariant(t, tracker.Snapshot())

	tracker.Start()
	tracker.Start()
	s := tracker.Snapshot()
	checkInvariant(t, s)
	if s.Running != 2 || s.Queued != 1 {
		t.Fatalf("unexpected state after starts: %+v", s)
	}

	tracker.Complete()
	tracker.Fail()
	tracker.Start()
	tracker.Complete()

	s = tracker.Snapshot()
	checkInvariant(t, s)
	if !s.Done() {
		t.Fatalf("expected done, got %+v", s)
	}
	if s.Completed != 2 || s.Failed != 1 {
		t.Fatalf("unexpected terminal counts: %+v", s)
	}
}

func TestTrackerCancelDrainsQueue(t *testing.T) {
	tracker := progress.NewTracker(5)
	tracker.Start()
	tracker.Complete()
	tracker.Cancel()

	s := tracker.Snapshot()
	checkInvariant(t, s)
	if !s.Cancelled {
		t.Fatal("expected cancelled flag")
	}
	if s.Queued != 0 {
		t.Fatalf("expected drained queue, got %+v", s)
	}
	if s.Failed != 4 {
		t.Fatalf("expected queued tasks folded into failed, got %+v", s)
	}
}

func TestTrackerConcurrentTransitions(t *testing.T) {
	const total = 200
	tracker := progress.NewTracker(total)

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(fail bool) {
			defer wg.Done()
			tracker.Start()
			if fail {
				tracker.Fail()
			} else {
				tracker.Complete()
			}
		}(i%4 == 0)
	}
	wg.Wait()

	s := tracker.Snapshot()
	checkInvariant(t, s)
	if !s.Done() {
		t.Fatalf("expected done, got %+v", s)
	}
	if s.Failed != total/4 {
		t.Fatalf("expected %d failures, got %+v", total/4, s)
	}
}

func TestSnapshotPercent(t *testing.T) {
	tracker := progress.NewTracker(4)
	tracker.Start()
	tracker.Complete()
	tracker.Start()
	tracker.Fail()

	if got := tracker.Snapshot().Percent(); got != 50 {
		t.Fatalf("expected 50%%, got %v", got)
	}
	if got := progress.NewTracker(0).Snapshot().Percent(); got != 100 {
		t.Fatalf("empty run should read 100%%, got %v", got)
	}
}

func TestTrackerPanicsOnImpossibleTransition(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on Complete without Start")
		}
	}()
	progress.NewTracker(1).Complete()
}
