package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// OnnxModelID is persisted on memory rows embedded by this tier. It must
// be distinct from every real model's id so invariant I4 (cross-model
// vectors are never compared) holds even for this deterministic stand-in.
const OnnxModelID = "bge-small-en-v1.5-d384"

const onnxNativeDims = 384

// OnnxProvider is the deterministic pseudo-embedding fallback described
// in : not semantically meaningful, but stable per input, so it
// is usable for cache and test scaffolding when no real provider is
// reachable. A production build swaps this for a bundled 384-dim ONNX
// model without touching any caller — only OnnxModelID would change,
// which is exactly what invariant I4 requires to keep old and new
// vectors from ever being compared.
type OnnxProvider struct{}

// NewOnnxProvider constructs the fallback tier. It never fails to
// initialize since it has no external dependency.
func NewOnnxProvider() *OnnxProvider { return &OnnxProvider{} }

func (OnnxProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashEmbed(t)
	}
	return out, nil
}

func (OnnxProvider) NativeDims() int   { return onnxNativeDims }
func (OnnxProvider) ModelName() string { return OnnxModelID }
func (OnnxProvider) Tier() string      { return "onnx" }

// hashEmbed repeats sha256(text) across onnxNativeDims dimensions and
// L2-normalizes the result, satisfying property P2 (unit-length vectors)
// and P3 (determinism across calls) by construction.
func hashEmbed(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	v := make([]float32, onnxNativeDims)
	for i := 0; i < onnxNativeDims; i++ {
		b := sum[i%len(sum):]
		if len(b) < 4 {
			b = append(append([]byte{}, b...), sum[:4-len(b)]...)
		}
		u := binary.LittleEndian.Uint32(b[:4])
		// Map to a small signed float so the vector has sign variety,
		// then normalize below.
		v[i] = float32(int32(u)) / float32(1<<31)
	}
	return normalize(v)
}

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}
