package indexer

import (
	"errors"
	"testing"

	"github.com/agentmemory/memoryd/internal/model"
)

func TestInitProgressThenUpdateProgress(t *testing.T) {
	idx, _ := newTestIndexer(t)
	idx.initProgress("p")

	idx.updateProgress("p", func(p *IndexingProgress) {
		p.FilesTotal = 10
		p.FilesIndexed = 3
	})

	got := idx.GetProgress("p")
	if got == nil {
		t.Fatal("GetProgress(p) = nil")
	}
	if got.FilesTotal != 10 || got.FilesIndexed != 3 {
		t.Errorf("progress = %+v, want FilesTotal=10 FilesIndexed=3", got)
	}
	if got.Status != model.IndexingStatusInProgress {
		t.Errorf("status = %v, want in_progress", got.Status)
	}
}

func TestUpdateProgressOnUnknownProjectIsNoop(t *testing.T) {
	idx, _ := newTestIndexer(t)
	idx.updateProgress("never-started", func(p *IndexingProgress) { p.FilesTotal = 99 })
	if idx.GetProgress("never-started") != nil {
		t.Error("updateProgress should not create an entry for an unknown project")
	}
}

func TestSetErrorMarksFailed(t *testing.T) {
	idx, _ := newTestIndexer(t)
	idx.initProgress("p")
	idx.setError("p", errors.New("boom"))

	got := idx.GetProgress("p")
	if got.Status != model.IndexingStatusFailed {
		t.Errorf("status = %v, want failed", got.Status)
	}
	if got.Error == nil || *got.Error != "boom" {
		t.Errorf("error = %v, want \"boom\"", got.Error)
	}
}

func TestGetProgressReturnsCopyNotAlias(t *testing.T) {
	idx, _ := newTestIndexer(t)
	idx.initProgress("p")

	got := idx.GetProgress("p")
	got.FilesTotal = 1000

	fresh := idx.GetProgress("p")
	if fresh.FilesTotal == 1000 {
		t.Error("mutating a returned progress snapshot mutated internal state; GetProgress must return a copy")
	}
}

func TestClearProgressRemovesEntry(t *testing.T) {
	idx, _ := newTestIndexer(t)
	idx.initProgress("p")
	idx.ClearProgress("p")
	if idx.GetProgress("p") != nil {
		t.Error("expected progress to be cleared")
	}
}

func TestGetAllProgressIncludesEveryTrackedProject(t *testing.T) {
	idx, _ := newTestIndexer(t)
	idx.initProgress("p1")
	idx.initProgress("p2")

	all := idx.GetAllProgress()
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
	if _, ok := all["p1"]; !ok {
		t.Error("missing p1")
	}
	if _, ok := all["p2"]; !ok {
		t.Error("missing p2")
	}
}
