package indexer

import (
	"context"
	"testing"

	"github.com/agentmemory/memoryd/internal/model"
)

func TestCreateProjectThenGetProjectRoundTrips(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()

	p := &model.CodeProject{ProjectID: "p1", Name: "demo", RootPath: "/src/demo"}
	if err := idx.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	got, err := idx.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got == nil || got.Name != "demo" || got.RootPath != "/src/demo" {
		t.Fatalf("GetProject = %+v, want demo project", got)
	}
	if got.IndexingStatus != model.IndexingStatusPending {
		t.Errorf("IndexingStatus = %v, want pending default", got.IndexingStatus)
	}
}

func TestGetProjectUnknownReturnsNilNoError(t *testing.T) {
	idx, _ := newTestIndexer(t)
	got, err := idx.GetProject(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unregistered project, got %+v", got)
	}
}

// A bare re-register (CreateProject called again with zero LanguageStats)
// must not clobber stats already recorded by an earlier indexing run.
func TestCreateProjectReregisterPreservesLanguageStats(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()

	p := &model.CodeProject{ProjectID: "p1", Name: "demo", RootPath: "/src/demo", LanguageStats: map[string]int{"go": 10}}
	if err := idx.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	reregister := &model.CodeProject{ProjectID: "p1", Name: "demo-renamed", RootPath: "/src/demo"}
	if err := idx.CreateProject(ctx, reregister); err != nil {
		t.Fatalf("re-register CreateProject: %v", err)
	}

	got, err := idx.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Name != "demo-renamed" {
		t.Errorf("Name = %q, want updated name demo-renamed", got.Name)
	}
	if got.LanguageStats["go"] != 10 {
		t.Errorf("LanguageStats = %+v, want go:10 preserved across bare re-register", got.LanguageStats)
	}
}

func TestListProjectsReturnsAllRegistered(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()
	for _, id := range []string{"p1", "p2"} {
		if err := idx.CreateProject(ctx, &model.CodeProject{ProjectID: id, Name: id, RootPath: "/" + id}); err != nil {
			t.Fatalf("CreateProject(%s): %v", id, err)
		}
	}

	got, err := idx.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(projects) = %d, want 2", len(got))
	}
}

func TestUpdateProjectStatusPersists(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()
	if err := idx.CreateProject(ctx, &model.CodeProject{ProjectID: "p1", Name: "demo", RootPath: "/src"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := idx.UpdateProjectStatus(ctx, "p1", model.IndexingStatusCompleted); err != nil {
		t.Fatalf("UpdateProjectStatus: %v", err)
	}
	got, err := idx.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.IndexingStatus != model.IndexingStatusCompleted {
		t.Errorf("IndexingStatus = %v, want completed", got.IndexingStatus)
	}
}

func TestDeleteProjectRemovesRegistryRow(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()
	if err := idx.CreateProject(ctx, &model.CodeProject{ProjectID: "p1", Name: "demo", RootPath: "/src"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := idx.DeleteProject(ctx, "p1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	got, err := idx.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got != nil {
		t.Errorf("expected project to be gone after DeleteProject, got %+v", got)
	}
}
