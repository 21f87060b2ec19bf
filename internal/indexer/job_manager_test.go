package indexer

import (
	"context"
	"testing"
	"time"

	"github.com/agentmemory/memoryd/internal/model"
)

// newBareJobManager builds a JobManager with no worker goroutines and no
// backing Indexer, for exercising the in-process job registry in isolation.
func newBareJobManager() *JobManager {
	return &JobManager{
		jobs:    make(map[string]*Job),
		running: make(map[string]context.CancelFunc),
	}
}

func TestListActiveJobsExcludesTerminalStatuses(t *testing.T) {
	jm := newBareJobManager()
	jm.jobs["a"] = &Job{ID: "a", Status: model.IndexingStatusPending}
	jm.jobs["b"] = &Job{ID: "b", Status: model.IndexingStatusInProgress}
	jm.jobs["c"] = &Job{ID: "c", Status: model.IndexingStatusCompleted}

	active := jm.ListActiveJobs()
	if len(active) != 2 {
		t.Fatalf("len(active) = %d, want 2", len(active))
	}
	for _, j := range active {
		if j.Status == model.IndexingStatusCompleted {
			t.Errorf("completed job %s leaked into ListActiveJobs", j.ID)
		}
	}
}

func TestListAllJobsReturnsCopiesNotAliases(t *testing.T) {
	jm := newBareJobManager()
	jm.jobs["a"] = &Job{ID: "a", Status: model.IndexingStatusPending}

	all := jm.ListAllJobs()
	if len(all) != 1 {
		t.Fatalf("len(all) = %d, want 1", len(all))
	}
	all[0].Status = model.IndexingStatusFailed
	if jm.jobs["a"].Status != model.IndexingStatusPending {
		t.Error("mutating a returned job mutated the registry; ListAllJobs must return copies")
	}
}

func TestGetJobReturnsCopyNotAlias(t *testing.T) {
	jm := newBareJobManager()
	jm.jobs["a"] = &Job{ID: "a", Status: model.IndexingStatusPending}

	got := jm.GetJob("a")
	if got == nil {
		t.Fatal("GetJob(a) = nil")
	}
	got.Status = model.IndexingStatusFailed
	if jm.jobs["a"].Status != model.IndexingStatusPending {
		t.Error("mutating a returned job mutated the registry; GetJob must return a copy")
	}
}

func TestGetJobUnknownIDReturnsNil(t *testing.T) {
	jm := newBareJobManager()
	if jm.GetJob("nonexistent") != nil {
		t.Error("GetJob(unknown) should return nil")
	}
}

func TestCancelJobUnknownReturnsError(t *testing.T) {
	jm := newBareJobManager()
	if err := jm.CancelJob("nonexistent"); err == nil {
		t.Error("CancelJob(unknown) should return an error")
	}
}

func TestCancelJobMarksCancelledAndInvokesCancelFunc(t *testing.T) {
	jm := newBareJobManager()
	called := false
	jm.running["a"] = func() { called = true }
	jm.jobs["a"] = &Job{ID: "a", Status: model.IndexingStatusInProgress}

	if err := jm.CancelJob("a"); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	if !called {
		t.Error("expected the running job's cancel func to be invoked")
	}
	if jm.jobs["a"].Status != model.IndexingStatusCancelled {
		t.Errorf("status = %v, want cancelled", jm.jobs["a"].Status)
	}
	if jm.jobs["a"].CompletedAt == nil {
		t.Error("expected CompletedAt to be set on cancellation")
	}
}

func TestCleanupOldJobsRemovesOnlyStaleTerminalJobs(t *testing.T) {
	jm := newBareJobManager()
	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()

	jm.jobs["stale-done"] = &Job{ID: "stale-done", Status: model.IndexingStatusCompleted, CompletedAt: &old}
	jm.jobs["recent-done"] = &Job{ID: "recent-done", Status: model.IndexingStatusCompleted, CompletedAt: &recent}
	jm.jobs["stale-running"] = &Job{ID: "stale-running", Status: model.IndexingStatusInProgress}

	removed := jm.CleanupOldJobs(24 * time.Hour)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := jm.jobs["stale-done"]; ok {
		t.Error("stale completed job should have been removed")
	}
	if _, ok := jm.jobs["recent-done"]; !ok {
		t.Error("recent completed job should survive cleanup")
	}
	if _, ok := jm.jobs["stale-running"]; !ok {
		t.Error("in-progress job should never be cleaned up regardless of age")
	}
}
