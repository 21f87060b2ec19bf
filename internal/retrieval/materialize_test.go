package retrieval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentmemory/memoryd/internal/store"
)

func openTestStoreForRetrieval(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "retrieval.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.InitializeSchema(context.Background()); err != nil {
		t.Fatalf("InitializeSchema: %v", err)
	}
	return st
}

func insertMemory(t *testing.T, st *store.Store, id, typ, content, projectID string, deprecated bool) {
	t.Helper()
	dep := 0
	if deprecated {
		dep = 1
	}
	_, err := st.Execute(context.Background(),
		`INSERT INTO memories (id, type, content, confidence, created_at, last_accessed_at, project_id, deprecated)
		 VALUES (?, ?, ?, 0.8, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z', ?, ?)`,
		id, typ, content, projectID, dep)
	if err != nil {
		t.Fatalf("insert memory %s: %v", id, err)
	}
}

func TestMaterializeEmptyIDsReturnsNil(t *testing.T) {
	st := openTestStoreForRetrieval(t)
	got, err := materialize(context.Background(), st, nil, 10)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if got != nil {
		t.Errorf("materialize(nil) = %+v, want nil", got)
	}
}

func TestMaterializePreservesRequestedOrder(t *testing.T) {
	st := openTestStoreForRetrieval(t)
	ctx := context.Background()
	insertMemory(t, st, "m1", "gotcha", "first", "p", false)
	insertMemory(t, st, "m2", "gotcha", "second", "p", false)
	insertMemory(t, st, "m3", "gotcha", "third", "p", false)

	got, err := materialize(ctx, st, []string{"m3", "m1", "m2"}, 10)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if got[0].ID != "m3" || got[1].ID != "m1" || got[2].ID != "m2" {
		t.Errorf("order = [%s %s %s], want [m3 m1 m2]", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestMaterializeExcludesDeprecatedRows(t *testing.T) {
	st := openTestStoreForRetrieval(t)
	ctx := context.Background()
	insertMemory(t, st, "m1", "gotcha", "alive", "p", false)
	insertMemory(t, st, "m2", "gotcha", "dead", "p", true)

	got, err := materialize(ctx, st, []string{"m1", "m2"}, 10)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("got = %+v, want only m1 (m2 is deprecated)", got)
	}
}

func TestMaterializeRespectsMaxResults(t *testing.T) {
	st := openTestStoreForRetrieval(t)
	ctx := context.Background()
	insertMemory(t, st, "m1", "gotcha", "one", "p", false)
	insertMemory(t, st, "m2", "gotcha", "two", "p", false)
	insertMemory(t, st, "m3", "gotcha", "three", "p", false)

	got, err := materialize(ctx, st, []string{"m1", "m2", "m3"}, 2)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2 (capped by maxResults)", len(got))
	}
}

func TestMaterializeMissingIDsAreSkipped(t *testing.T) {
	st := openTestStoreForRetrieval(t)
	ctx := context.Background()
	insertMemory(t, st, "m1", "gotcha", "present", "p", false)

	got, err := materialize(ctx, st, []string{"m1", "m2-missing"}, 10)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("got = %+v, want only m1", got)
	}
}
