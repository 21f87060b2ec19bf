package embedding

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentmemory/memoryd/internal/store"
	"github.com/agentmemory/memoryd/internal/store/migrations"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.InitializeSchema(context.Background()); err != nil {
		t.Fatalf("InitializeSchema: %v", err)
	}
	_ = migrations.All()
	return NewCache(st)
}

func TestCacheMissThenHit(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	key := Key("hello", "model-d256", 256)

	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("expected miss before Put")
	}

	v := []float32{0.1, 0.2, 0.3}
	c.Put(ctx, key, "model-d256", 256, v)

	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if len(got) != len(v) {
		t.Fatalf("len = %d, want %d", len(got), len(v))
	}
	for i := range v {
		if diff := got[i] - v[i]; diff > 1e-5 || diff < -1e-5 {
			t.Errorf("index %d: got %v, want %v", i, got[i], v[i])
		}
	}
}

func TestCacheKeyDependsOnModelAndDims(t *testing.T) {
	a := Key("text", "model-a", 256)
	b := Key("text", "model-b", 256)
	c := Key("text", "model-a", 1024)
	if a == b {
		t.Error("different model ids produced the same cache key")
	}
	if a == c {
		t.Error("different dims produced the same cache key")
	}
}

func TestCachePutOverwritesOnConflict(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	key := Key("overwrite me", "model-d256", 256)

	c.Put(ctx, key, "model-d256", 256, []float32{1, 0})
	c.Put(ctx, key, "model-d256", 256, []float32{0, 1})

	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit")
	}
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("got %v, want [0 1] (second Put should win)", got)
	}
}
