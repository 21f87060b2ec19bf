package retrieval

import "testing"

// P4: weightedRRF with one path and weight w produces scores strictly
// decreasing with rank for distinct items.
func TestFuseSinglePathStrictlyDecreasing(t *testing.T) {
	bm25 := rankedList{"a", "b", "c", "d"}
	ranked := fuse(bm25, nil, nil, Weights{FTS: 1, Dense: 0, Graph: 0})
	if len(ranked) != 4 {
		t.Fatalf("len(ranked) = %d, want 4", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].score >= ranked[i-1].score {
			t.Errorf("rank %d score %v not strictly less than rank %d score %v", i, ranked[i].score, i-1, ranked[i-1].score)
		}
	}
	if ranked[0].id != "a" {
		t.Errorf("top id = %q, want %q", ranked[0].id, "a")
	}
}

// P5: weightedRRF is symmetric in its paths up to weight assignment:
// permuting the path array preserves the score of each memory id.
func TestFusePermutationInvariant(t *testing.T) {
	bm25 := rankedList{"a", "b"}
	dense := rankedList{"b", "c"}
	graphIDs := rankedList{"c", "a"}
	w := Weights{FTS: 0.5, Dense: 0.3, Graph: 0.2}

	orig := fuse(bm25, dense, graphIDs, w)
	origScores := map[string]float64{}
	for _, s := range orig {
		origScores[s.id] = s.score
	}

	// Permute which list plays which role, keeping weight assignment
	// attached to the same underlying path identity (fts/dense/graph),
	// by re-deriving weights per the original w assigned to the same
	// physical lists regardless of argument order.
	perm := fuse(dense, graphIDs, bm25, Weights{FTS: w.Dense, Dense: w.Graph, Graph: w.FTS})
	permScores := map[string]float64{}
	for _, s := range perm {
		permScores[s.id] = s.score
	}

	for id, score := range origScores {
		got, ok := permScores[id]
		if !ok {
			t.Fatalf("id %q missing after permutation", id)
		}
		if diff := score - got; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("id %q score changed under permutation: %v vs %v", id, score, got)
		}
	}
}

func TestFuseEmptyPaths(t *testing.T) {
	ranked := fuse(nil, nil, nil, WeightsFor(QuerySemantic))
	if len(ranked) != 0 {
		t.Errorf("fuse(nil,nil,nil) = %v, want empty", ranked)
	}
}

func TestApplyGraphBoostPromotesOverlappingCandidate(t *testing.T) {
	ranked := make([]scoredID, 0, 12)
	for i := 0; i < 11; i++ {
		ranked = append(ranked, scoredID{id: rankString(i), score: 100 - float64(i)})
	}
	// candidate at index 10 (below top-10) shares a neighbor file.
	related := map[string][]string{
		rankString(0):  {"anchor.go"},
		rankString(10): {"neighbor.go"},
	}
	boosted := applyGraphBoost(ranked, related, func(anchors []string) []string {
		return []string{"neighbor.go"}
	})
	var found bool
	for _, s := range boosted {
		if s.id == rankString(10) {
			found = true
			if s.score <= 100-10 {
				t.Errorf("expected boosted score > base, got %v", s.score)
			}
		}
	}
	if !found {
		t.Fatal("boosted candidate not found in result")
	}
}

func TestApplyGraphBoostNoAnchorsIsNoop(t *testing.T) {
	ranked := []scoredID{{id: "x", score: 1}}
	out := applyGraphBoost(ranked, map[string][]string{}, func(anchors []string) []string { return nil })
	if len(out) != 1 || out[0].score != 1 {
		t.Errorf("expected unchanged single result, got %v", out)
	}
}

func rankString(i int) string {
	return string(rune('a' + i))
}
