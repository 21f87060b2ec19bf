package indexer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentmemory/memoryd/internal/astindex"
	"github.com/agentmemory/memoryd/internal/graph"
	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/store"
)

func newTestIndexer(t *testing.T) (*Indexer, *graph.Graph) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "idx.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.InitializeSchema(context.Background()); err != nil {
		t.Fatalf("InitializeSchema: %v", err)
	}
	g := graph.New(st)
	idx := New(st, g, nil, DefaultIndexerConfig())
	return idx, g
}

func TestResolveEdgeUsesLocalMapFirst(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()
	local := map[string]string{"helper": "node-123"}

	id, err := idx.resolveEdge(ctx, "p", "a.go", astindex.RawEdge{ToLabel: "helper", Type: model.EdgeCalls}, local)
	if err != nil {
		t.Fatalf("resolveEdge: %v", err)
	}
	if id != "node-123" {
		t.Errorf("id = %q, want the locally-mapped id", id)
	}
}

func TestResolveEdgeRelativeImportCreatesStubFileNode(t *testing.T) {
	idx, g := newTestIndexer(t)
	ctx := context.Background()

	id, err := idx.resolveEdge(ctx, "p", "src/a.go", astindex.RawEdge{ToLabel: "./b", Type: model.EdgeImports}, map[string]string{})
	if err != nil {
		t.Fatalf("resolveEdge: %v", err)
	}
	if id == "" {
		t.Fatal("expected a stub node id")
	}
	n, err := g.NodeByFilePath(ctx, "p", "src/b")
	if err != nil {
		t.Fatalf("NodeByFilePath: %v", err)
	}
	if n.ID != id || n.Confidence != model.ConfidenceInferred {
		t.Errorf("stub node = %+v, want inferred confidence at id %q", n, id)
	}
}

func TestResolveEdgeExternalImportCreatesStubModuleNode(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()

	id, err := idx.resolveEdge(ctx, "p", "src/a.go", astindex.RawEdge{ToLabel: "react", Type: model.EdgeImports, External: true}, map[string]string{})
	if err != nil {
		t.Fatalf("resolveEdge: %v", err)
	}
	if id == "" {
		t.Fatal("expected a stub module node id")
	}
}

func TestResolveEdgeCallTargetFallsBackToStubModule(t *testing.T) {
	idx, g := newTestIndexer(t)
	ctx := context.Background()

	id, err := idx.resolveEdge(ctx, "p", "a.go", astindex.RawEdge{ToLabel: "someExternalFunc", Type: model.EdgeCalls}, map[string]string{})
	if err != nil {
		t.Fatalf("resolveEdge: %v", err)
	}
	n, err := g.NodeByLabel(ctx, "p", "someExternalFunc")
	if err != nil {
		t.Fatalf("NodeByLabel: %v", err)
	}
	if n.ID != id || n.Type != model.NodeModule {
		t.Errorf("expected external module stub, got %+v", n)
	}
}

func TestResolveEdgeCallTargetResolvesExistingSymbol(t *testing.T) {
	idx, g := newTestIndexer(t)
	ctx := context.Background()

	fn := &model.GraphNode{
		ProjectID:  "p",
		Type:       model.NodeFunction,
		Label:      "myFunc",
		FilePath:   "a.go",
		Layer:      1,
		Confidence: model.ConfidenceVerified,
	}
	if err := g.UpsertNode(ctx, fn); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	id, err := idx.resolveEdge(ctx, "p", "b.go", astindex.RawEdge{ToLabel: "myFunc", Type: model.EdgeCalls}, map[string]string{})
	if err != nil {
		t.Fatalf("resolveEdge: %v", err)
	}
	if id != fn.ID {
		t.Errorf("id = %q, want resolved symbol id %q", id, fn.ID)
	}
}
