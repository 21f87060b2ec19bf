package retrieval

import "testing"

func TestClassifyQueryIdentifierSignals(t *testing.T) {
	cases := []string{
		"myVariableName",
		"some_snake_case",
		"path/to/thing",
		"handler.go",
	}
	for _, q := range cases {
		if got := ClassifyQuery(q, nil); got != QueryIdentifier {
			t.Errorf("ClassifyQuery(%q) = %v, want identifier", q, got)
		}
	}
}

func TestClassifyQueryStructuralRequiresToolSignalAndNoIdentifier(t *testing.T) {
	got := ClassifyQuery("what depends on this", []string{"analyze_impact"})
	if got != QueryStructural {
		t.Errorf("ClassifyQuery = %v, want structural", got)
	}
	// identifier signal present takes priority over structural tool signal.
	got = ClassifyQuery("myVariableName", []string{"analyze_impact"})
	if got != QueryIdentifier {
		t.Errorf("ClassifyQuery = %v, want identifier (priority over structural)", got)
	}
}

// Boundary: query classifier on the empty string falls back to semantic.
func TestClassifyQueryEmptyStringFallsBackToSemantic(t *testing.T) {
	if got := ClassifyQuery("", nil); got != QuerySemantic {
		t.Errorf("ClassifyQuery(\"\") = %v, want semantic", got)
	}
}

func TestClassifyQueryPlainProseIsSemantic(t *testing.T) {
	if got := ClassifyQuery("how does authentication work", nil); got != QuerySemantic {
		t.Errorf("ClassifyQuery = %v, want semantic", got)
	}
}

func TestWeightsForSumToOne(t *testing.T) {
	for _, qt := range []QueryType{QueryIdentifier, QuerySemantic, QueryStructural} {
		w := WeightsFor(qt)
		sum := w.FTS + w.Dense + w.Graph
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("WeightsFor(%v) sums to %v, want 1.0", qt, sum)
		}
	}
}

func TestRedistributeGraphWeight(t *testing.T) {
	w := WeightsFor(QueryStructural) // fts .20 dense .20 graph .60
	r := redistributeGraphWeight(w)
	if r.Graph != 0 {
		t.Errorf("redistributed graph weight = %v, want 0", r.Graph)
	}
	sum := r.FTS + r.Dense
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("redistributed fts+dense = %v, want ~1.0", sum)
	}
	// proportionality preserved: fts/dense ratio unchanged
	if diff := r.FTS/r.Dense - w.FTS/w.Dense; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("ratio not preserved: %v vs %v", r.FTS/r.Dense, w.FTS/w.Dense)
	}
}

func TestRedistributeGraphWeightZeroOthers(t *testing.T) {
	r := redistributeGraphWeight(Weights{FTS: 0, Dense: 0, Graph: 1})
	if r.FTS != 0.5 || r.Dense != 0.5 || r.Graph != 0 {
		t.Errorf("degenerate redistribution = %+v, want 0.5/0.5/0", r)
	}
}
