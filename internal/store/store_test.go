package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.InitializeSchema(context.Background()); err != nil {
		t.Fatalf("InitializeSchema: %v", err)
	}
	return st
}

func TestInitializeSchemaIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	if err := st.InitializeSchema(context.Background()); err != nil {
		t.Fatalf("second InitializeSchema call failed: %v", err)
	}
}

func TestBatchRollsBackWholeUnitOnError(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	stmts := []Stmt{
		{SQL: `INSERT INTO memories (id, type, content, confidence, created_at, last_accessed_at, project_id) VALUES (?, 'gotcha', 'x', 0.5, '2026-01-01', '2026-01-01', 'p1')`, Args: nil},
		{SQL: `INSERT INTO nonexistent_table (id) VALUES (?)`, Args: []any{"x"}},
	}
	stmts[0].Args = []any{"m1"}

	if err := st.Batch(ctx, stmts); err == nil {
		t.Fatal("expected Batch to fail on bad statement")
	}

	var count int
	if err := st.QueryRow(ctx, `SELECT COUNT(*) FROM memories WHERE id = ?`, "m1").Scan(&count); err != nil {
		t.Fatalf("query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback to discard the first insert, found %d rows", count)
	}
}

func TestBatchCommitsAtomically(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	stmts := []Stmt{
		{SQL: `INSERT INTO memories (id, type, content, confidence, created_at, last_accessed_at, project_id) VALUES (?, 'gotcha', 'x', 0.5, '2026-01-01', '2026-01-01', 'p1')`, Args: []any{"m1"}},
		{SQL: `INSERT INTO memories_fts (memory_id, content, tags, related_files) VALUES (?, ?, '[]', '[]')`, Args: []any{"m1", "x"}},
	}
	if err := st.Batch(ctx, stmts); err != nil {
		t.Fatalf("Batch: %v", err)
	}
	var count int
	if err := st.QueryRow(ctx, `SELECT COUNT(*) FROM memories WHERE id = ?`, "m1").Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after commit, got %d", count)
	}
}

func TestVectorRoundTripBitIdentical(t *testing.T) {
	v := make([]float32, 1024)
	for i := range v {
		v[i] = float32(i) * 0.0001234
	}
	blob := EncodeVector(v)
	if len(blob) != len(v)*4 {
		t.Fatalf("blob length = %d, want %d", len(blob), len(v)*4)
	}
	got := DecodeVector(blob)
	if len(got) != len(v) {
		t.Fatalf("decoded length = %d, want %d", len(got), len(v))
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("index %d: got %v, want %v (bit-identical round trip)", i, got[i], v[i])
		}
	}
}

func TestCosineDistanceIdenticalVectorsAreZero(t *testing.T) {
	v := []float32{1, 2, 3}
	if d := CosineDistance(v, v); d > 1e-9 || d < -1e-9 {
		t.Errorf("CosineDistance(v, v) = %v, want ~0", d)
	}
}

func TestCosineDistanceOppositeVectorsAreTwo(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{-1, 0}
	if d := CosineDistance(a, b); d > 2+1e-9 || d < 2-1e-9 {
		t.Errorf("CosineDistance(opposite) = %v, want ~2", d)
	}
}

func TestCosineDistanceZeroNormIsOne(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}
	if d := CosineDistance(a, b); d != 1 {
		t.Errorf("CosineDistance(zero, b) = %v, want 1", d)
	}
}

// Boundary: cosine distance between vectors of different lengths uses
// the min length.
func TestCosineDistanceDifferentLengthsUsesMinLength(t *testing.T) {
	a := []float32{1, 0, 0, 0}
	b := []float32{1, 0}
	if d := CosineDistance(a, b); d > 1e-9 || d < -1e-9 {
		t.Errorf("CosineDistance with mismatched lengths = %v, want ~0 (shared prefix identical)", d)
	}
}
