package indexer

import (
	"context"
	"testing"
	"time"

	"github.com/agentmemory/memoryd/internal/model"
)

func TestPersistIndexingJobThenGetRoundTrips(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()

	job := &model.IndexingJob{
		ID: "job-1", ProjectID: "p1", ProjectPath: "/src/demo",
		Status: model.IndexingStatusInProgress, Progress: 42.5,
		FilesTotal: 10, FilesIndexed: 4, StartedAt: time.Now().UTC(),
	}
	if err := idx.persistIndexingJob(ctx, job); err != nil {
		t.Fatalf("persistIndexingJob: %v", err)
	}

	got, err := idx.getIndexingJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("getIndexingJob: %v", err)
	}
	if got.ProjectID != "p1" || got.FilesTotal != 10 || got.FilesIndexed != 4 {
		t.Errorf("got = %+v, want matching persisted fields", got)
	}
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil for an in-progress job", got.CompletedAt)
	}
	if got.Error != nil {
		t.Errorf("Error = %v, want nil", got.Error)
	}
}

func TestPersistIndexingJobUpsertUpdatesExistingRow(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()

	job := &model.IndexingJob{ID: "job-1", ProjectID: "p1", ProjectPath: "/src", Status: model.IndexingStatusInProgress, StartedAt: time.Now().UTC()}
	if err := idx.persistIndexingJob(ctx, job); err != nil {
		t.Fatalf("first persist: %v", err)
	}

	now := time.Now().UTC()
	errStr := "parse failure"
	job.Status = model.IndexingStatusFailed
	job.CompletedAt = &now
	job.Error = &errStr
	if err := idx.persistIndexingJob(ctx, job); err != nil {
		t.Fatalf("second persist: %v", err)
	}

	got, err := idx.getIndexingJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("getIndexingJob: %v", err)
	}
	if got.Status != model.IndexingStatusFailed {
		t.Errorf("Status = %v, want failed after upsert", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt = nil, want set after upsert")
	}
	if got.Error == nil || *got.Error != "parse failure" {
		t.Errorf("Error = %v, want \"parse failure\"", got.Error)
	}
}

func TestGetIndexingJobUnknownIDReturnsError(t *testing.T) {
	idx, _ := newTestIndexer(t)
	if _, err := idx.getIndexingJob(context.Background(), "nonexistent"); err == nil {
		t.Error("getIndexingJob(unknown) should return an error (no matching row)")
	}
}
