package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/store"
)

func openTestGraph(t *testing.T) *Graph {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "graph.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.InitializeSchema(context.Background()); err != nil {
		t.Fatalf("InitializeSchema: %v", err)
	}
	return New(st)
}

func fileNode(projectID, path string) *model.GraphNode {
	return &model.GraphNode{
		ProjectID:  projectID,
		Type:       model.NodeFile,
		Label:      path,
		FilePath:   path,
		Layer:      1,
		Source:     "ast",
		Confidence: model.ConfidenceVerified,
	}
}

// Scenario 6: analyzeImpact returns directDependents and transitiveDependents.
func TestAnalyzeImpactDirectAndTransitiveDependents(t *testing.T) {
	g := openTestGraph(t)
	ctx := context.Background()
	const proj = "p"

	a := fileNode(proj, "a.ts")
	b := fileNode(proj, "b.ts")
	if err := g.UpsertNode(ctx, a); err != nil {
		t.Fatalf("upsert a: %v", err)
	}
	if err := g.UpsertNode(ctx, b); err != nil {
		t.Fatalf("upsert b: %v", err)
	}
	edge := &model.GraphEdge{ProjectID: proj, FromID: b.ID, ToID: a.ID, Type: model.EdgeImports, Weight: 1, Confidence: model.ConfidenceVerified}
	if err := g.UpsertEdge(ctx, edge); err != nil {
		t.Fatalf("upsert edge: %v", err)
	}
	if err := g.UpdateClosureForNode(ctx, proj, b.ID); err != nil {
		t.Fatalf("UpdateClosureForNode: %v", err)
	}

	result, err := g.AnalyzeImpact(ctx, proj, "a.ts")
	if err != nil {
		t.Fatalf("AnalyzeImpact: %v", err)
	}
	if len(result.DirectDependents) != 1 || result.DirectDependents[0].ID != b.ID {
		t.Errorf("directDependents = %+v, want [B]", result.DirectDependents)
	}
	foundTransitive := false
	for _, hop := range result.TransitiveDependents {
		if hop.Node.ID == b.ID && hop.Depth == 1 {
			foundTransitive = true
		}
	}
	if !foundTransitive {
		t.Errorf("transitiveDependents = %+v, want B at depth 1", result.TransitiveDependents)
	}
}

// P6: after indexFile(F) succeeds (mark-stale -> upsert -> delete-stale),
// no node or edge row for F has staleAt set.
func TestStalenessMarkUpsertSweepLeavesNoStaleRows(t *testing.T) {
	g := openTestGraph(t)
	ctx := context.Background()
	const proj = "p"
	const path = "f.go"

	n := fileNode(proj, path)
	if err := g.UpsertNode(ctx, n); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Simulate a re-index: mark stale, re-upsert (clears staleAt), sweep.
	if err := g.MarkFileStale(ctx, proj, path); err != nil {
		t.Fatalf("MarkFileStale: %v", err)
	}
	if err := g.UpsertNode(ctx, n); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if err := g.DeleteStaleForFile(ctx, proj, path); err != nil {
		t.Fatalf("DeleteStaleForFile: %v", err)
	}

	got, err := g.NodeByFilePath(ctx, proj, path)
	if err != nil {
		t.Fatalf("NodeByFilePath: %v", err)
	}
	if got == nil || got.ID != n.ID {
		t.Fatalf("expected node %s to survive re-index, got %+v", n.ID, got)
	}
}

// Staleness: a node not re-upserted after MarkFileStale is swept by
// DeleteStaleForFile and becomes invisible to readers.
func TestStalenessSweepRemovesDeletedSymbol(t *testing.T) {
	g := openTestGraph(t)
	ctx := context.Background()
	const proj = "p"
	const path = "f.go"

	n := fileNode(proj, path)
	if err := g.UpsertNode(ctx, n); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := g.MarkFileStale(ctx, proj, path); err != nil {
		t.Fatalf("MarkFileStale: %v", err)
	}
	// No re-upsert this time: the symbol was deleted from the file.
	if err := g.DeleteStaleForFile(ctx, proj, path); err != nil {
		t.Fatalf("DeleteStaleForFile: %v", err)
	}

	got, err := g.NodeByFilePath(ctx, proj, path)
	if err == nil && got != nil {
		t.Fatalf("expected node to be swept, still found %+v", got)
	}
}

func TestUpsertNodeIsDeterministicByIdentity(t *testing.T) {
	id1 := MakeNodeID("p", "a.go", "a.go:Foo", model.NodeFunction)
	id2 := MakeNodeID("p", "a.go", "a.go:Foo", model.NodeFunction)
	if id1 != id2 {
		t.Errorf("MakeNodeID not deterministic: %q vs %q", id1, id2)
	}
	id3 := MakeNodeID("p", "a.go", "a.go:Bar", model.NodeFunction)
	if id1 == id3 {
		t.Error("MakeNodeID collided across distinct labels")
	}
}

func TestRebuildClosureIdempotent(t *testing.T) {
	g := openTestGraph(t)
	ctx := context.Background()
	const proj = "p"

	a := fileNode(proj, "a.ts")
	b := fileNode(proj, "b.ts")
	c := fileNode(proj, "c.ts")
	for _, n := range []*model.GraphNode{a, b, c} {
		if err := g.UpsertNode(ctx, n); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	edges := []*model.GraphEdge{
		{ProjectID: proj, FromID: c.ID, ToID: b.ID, Type: model.EdgeImports, Weight: 1, Confidence: model.ConfidenceVerified},
		{ProjectID: proj, FromID: b.ID, ToID: a.ID, Type: model.EdgeImports, Weight: 1, Confidence: model.ConfidenceVerified},
	}
	for _, e := range edges {
		if err := g.UpsertEdge(ctx, e); err != nil {
			t.Fatalf("upsert edge: %v", err)
		}
	}

	if err := g.RebuildClosure(ctx, proj); err != nil {
		t.Fatalf("RebuildClosure: %v", err)
	}
	first, err := g.ancestorsOf(ctx, proj, a.ID, MaxClosureDepth)
	if err != nil {
		t.Fatalf("ancestorsOf: %v", err)
	}
	if err := g.RebuildClosure(ctx, proj); err != nil {
		t.Fatalf("second RebuildClosure: %v", err)
	}
	second, err := g.ancestorsOf(ctx, proj, a.ID, MaxClosureDepth)
	if err != nil {
		t.Fatalf("ancestorsOf: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("rebuild not idempotent: %d vs %d ancestors", len(first), len(second))
	}
	// C (depth 2) and B (depth 1) should both transitively reach A.
	depths := map[string]int{}
	for _, hop := range second {
		depths[hop.Node.ID] = hop.Depth
	}
	if depths[b.ID] != 1 {
		t.Errorf("B depth = %d, want 1", depths[b.ID])
	}
	if depths[c.ID] != 2 {
		t.Errorf("C depth = %d, want 2", depths[c.ID])
	}
}
