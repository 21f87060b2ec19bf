package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentmemory/memoryd/internal/embedding"
	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/store"
)

func openTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "mem.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.InitializeSchema(context.Background()); err != nil {
		t.Fatalf("InitializeSchema: %v", err)
	}
	emb := embedding.NewService(embedding.Config{}, embedding.NewCache(st))
	return New(st, emb, nil)
}

// P1 / scenario 2: project scoping. A memory stored under one project is
// never returned for a search scoped to a different project.
func TestSearchIsScopedToProject(t *testing.T) {
	s := openTestService(t)
	ctx := context.Background()

	idA, err := s.Store(ctx, &model.Memory{Type: model.MemoryTypeGotcha, Content: "gotcha A", ProjectID: "proj-a"})
	if err != nil {
		t.Fatalf("store A: %v", err)
	}
	_, err = s.Store(ctx, &model.Memory{Type: model.MemoryTypeGotcha, Content: "gotcha B", ProjectID: "proj-b"})
	if err != nil {
		t.Fatalf("store B: %v", err)
	}

	res, err := s.Search(ctx, model.SearchFilters{ProjectID: "proj-a"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Memories) != 1 || res.Memories[0].ID != idA {
		t.Fatalf("Search(proj-a) = %+v, want only memory %s", res.Memories, idA)
	}
}

// P1 / I5: a deprecated memory never appears in a structural search that
// leaves IncludeDeprecated unset — exclusion is the default, not an opt-in.
func TestSearchExcludesDeprecatedByDefault(t *testing.T) {
	s := openTestService(t)
	ctx := context.Background()

	id, err := s.Store(ctx, &model.Memory{Type: model.MemoryTypeDecision, Content: "old decision", ProjectID: "p"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	s.DeprecateMemory(ctx, id)

	res, err := s.Search(ctx, model.SearchFilters{ProjectID: "p"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, m := range res.Memories {
		if m.ID == id {
			t.Fatalf("deprecated memory %s returned despite default exclusion", id)
		}
	}
}

// I5 explicit opt-in: IncludeDeprecated: true surfaces deprecated rows.
func TestSearchIncludesDeprecatedWhenRequested(t *testing.T) {
	s := openTestService(t)
	ctx := context.Background()

	id, err := s.Store(ctx, &model.Memory{Type: model.MemoryTypeDecision, Content: "old decision", ProjectID: "p"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	s.DeprecateMemory(ctx, id)

	res, err := s.Search(ctx, model.SearchFilters{ProjectID: "p", IncludeDeprecated: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	found := false
	for _, m := range res.Memories {
		if m.ID == id {
			found = true
		}
	}
	if !found {
		t.Fatalf("deprecated memory %s not returned despite IncludeDeprecated: true", id)
	}
}

func TestSearchByPatternReturnsNilWhenNoMatch(t *testing.T) {
	s := openTestService(t)
	ctx := context.Background()
	if _, err := s.Store(ctx, &model.Memory{Type: model.MemoryTypeGotcha, Content: "unrelated content", ProjectID: "p"}); err != nil {
		t.Fatalf("store: %v", err)
	}

	// P8: searchByPattern returns null iff no matching non-deprecated row exists.
	m, err := s.SearchByPattern(ctx, "p", "nonexistentToken12345")
	if err != nil {
		t.Fatalf("SearchByPattern: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil for non-matching pattern, got %+v", m)
	}
}

func TestSearchByPatternFindsMatchingMemory(t *testing.T) {
	s := openTestService(t)
	ctx := context.Background()
	id, err := s.Store(ctx, &model.Memory{Type: model.MemoryTypeGotcha, Content: "useCallback must be memoized", ProjectID: "p"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	m, err := s.SearchByPattern(ctx, "p", "useCallback")
	if err != nil {
		t.Fatalf("SearchByPattern: %v", err)
	}
	if m == nil || m.ID != id {
		t.Fatalf("SearchByPattern = %+v, want memory %s", m, id)
	}
}

func TestSearchByPatternExcludesDeprecated(t *testing.T) {
	s := openTestService(t)
	ctx := context.Background()
	id, err := s.Store(ctx, &model.Memory{Type: model.MemoryTypeGotcha, Content: "flakyTestHelper retries", ProjectID: "p"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	s.DeprecateMemory(ctx, id)

	m, err := s.SearchByPattern(ctx, "p", "flakyTestHelper")
	if err != nil {
		t.Fatalf("SearchByPattern: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil for deprecated match, got %+v", m)
	}
}

func TestDeleteMemoryCascadesAllThreeTables(t *testing.T) {
	s := openTestService(t)
	ctx := context.Background()
	id, err := s.Store(ctx, &model.Memory{Type: model.MemoryTypeGotcha, Content: "to be deleted", ProjectID: "p"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.DeleteMemory(ctx, id); err != nil {
		t.Fatalf("DeleteMemory: %v", err)
	}

	var count int
	if err := s.st.QueryRow(ctx, `SELECT COUNT(*) FROM memories WHERE id = ?`, id).Scan(&count); err != nil {
		t.Fatalf("query memories: %v", err)
	}
	if count != 0 {
		t.Errorf("memories row survived delete")
	}
	if err := s.st.QueryRow(ctx, `SELECT COUNT(*) FROM memories_fts WHERE memory_id = ?`, id).Scan(&count); err != nil {
		t.Fatalf("query fts: %v", err)
	}
	if count != 0 {
		t.Errorf("fts row survived delete")
	}
	if err := s.st.QueryRow(ctx, `SELECT COUNT(*) FROM memory_embeddings WHERE memory_id = ?`, id).Scan(&count); err != nil {
		t.Fatalf("query embeddings: %v", err)
	}
	if count != 0 {
		t.Errorf("embedding row survived delete")
	}
}

func TestInsertUserTaughtDefaultsMatchContract(t *testing.T) {
	s := openTestService(t)
	ctx := context.Background()
	id, err := s.InsertUserTaught(ctx, "always use tabs", "p", []string{"style"})
	if err != nil {
		t.Fatalf("InsertUserTaught: %v", err)
	}
	res, err := s.Search(ctx, model.SearchFilters{ProjectID: "p"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var found *model.Memory
	for i := range res.Memories {
		if res.Memories[i].ID == id {
			found = &res.Memories[i]
		}
	}
	if found == nil {
		t.Fatal("inserted memory not found")
	}
	if found.Type != model.MemoryTypePreference || found.Confidence != 1.0 || found.Scope != model.ScopeGlobal {
		t.Errorf("InsertUserTaught memory = %+v, want preference/1.0/global", found)
	}
}
