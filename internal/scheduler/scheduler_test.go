package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunNowRunsJob(t *testing.T) {
	done := make(chan struct{})
	s := New(func(ctx context.Context) { close(done) })

	if !s.RunNow() {
		t.Fatal("Expected RunNow to start a run")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	s.Stop()
	if s.Running() {
		t.Error("Expected no run in progress after Stop")
	}
}

func TestOverlappingTriggersAreDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var runs atomic.Int32
	s := New(func(ctx context.Context) {
		runs.Add(1)
		started <- struct{}{}
		<-release
	})

	s.RunNow()
	<-started
	if s.RunNow() {
		t.Error("Expected second trigger to be rejected while running")
	}
	s.run("cron")
	close(release)
	s.Stop()

	if got := runs.Load(); got != 1 {
		t.Errorf("Expected exactly one run, got %d", got)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(func(ctx context.Context) {})
	if err := s.Start("every day"); err == nil {
		t.Error("Expected error for invalid schedule")
	}
	if err := s.Start(""); err != nil {
		t.Errorf("Expected default schedule to parse, got %v", err)
	}
	s.Stop()
}
