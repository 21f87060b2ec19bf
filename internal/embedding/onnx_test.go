package embedding

import (
	"context"
	"math"
	"testing"
)

// P2: embed(text, d) is L2-normalized to within 1e-5 of unit length.
func TestOnnxProviderProducesUnitVectors(t *testing.T) {
	p := NewOnnxProvider()
	out, err := p.EmbedBatch(context.Background(), []string{"hello world", ""})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	for i, v := range out {
		var sumSq float64
		for _, f := range v {
			sumSq += float64(f) * float64(f)
		}
		norm := math.Sqrt(sumSq)
		if norm == 0 {
			continue // zero-hash edge case, not expected but not a crash
		}
		if diff := math.Abs(norm - 1.0); diff > 1e-5 {
			t.Errorf("vector %d norm = %v, want ~1.0", i, norm)
		}
	}
}

// P3: two consecutive embed calls on the same text yield equal vectors.
func TestOnnxProviderIsDeterministic(t *testing.T) {
	p := NewOnnxProvider()
	a, err := p.EmbedBatch(context.Background(), []string{"repeatable text"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	b, err := p.EmbedBatch(context.Background(), []string{"repeatable text"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("index %d differs between calls: %v vs %v", i, a[0][i], b[0][i])
		}
	}
}

func TestOnnxProviderDifferentTextsDifferentVectors(t *testing.T) {
	p := NewOnnxProvider()
	out, err := p.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	equal := true
	for i := range out[0] {
		if out[0][i] != out[1][i] {
			equal = false
			break
		}
	}
	if equal {
		t.Error("expected distinct inputs to produce distinct vectors")
	}
}

func TestOnnxModelIDDistinctFromOtherTiers(t *testing.T) {
	if OnnxModelID == OpenAIModelSmall {
		t.Error("onnx model id collides with openai model name, violates I4 separation")
	}
}

func TestMRLTruncateAndNormalizeShrinksAndRenormalizes(t *testing.T) {
	v := make([]float32, 1024)
	for i := range v {
		v[i] = 1
	}
	v = normalize(v)
	truncated := mrlTruncateAndNormalize(v, 256)
	if len(truncated) != 256 {
		t.Fatalf("len = %d, want 256", len(truncated))
	}
	var sumSq float64
	for _, f := range truncated {
		sumSq += float64(f) * float64(f)
	}
	if diff := math.Abs(math.Sqrt(sumSq) - 1.0); diff > 1e-5 {
		t.Errorf("truncated norm = %v, want ~1.0", math.Sqrt(sumSq))
	}
}

func TestMRLTruncateAndNormalizeLeavesShorterVectorsAlone(t *testing.T) {
	v := []float32{1, 0, 0}
	out := mrlTruncateAndNormalize(v, 256)
	if len(out) != 3 {
		t.Errorf("len = %d, want 3 (no padding)", len(out))
	}
}
