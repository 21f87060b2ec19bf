// Package embedding implements the tiered embedding provider and
// content-addressed cache described in : text in, a fixed-
// dimension L2-normalized vector out, with MRL truncation and a
// deterministic offline fallback tier.
package embedding

import "context"

// Provider is the narrow interface every embedding tier implements. It
// mirrors pkg/embedder.Embedder from the teacher but returns the raw,
// possibly-over-sized vector — MRL truncation and renormalization happen
// one layer up in Service, since only Service knows the requested dims.
type Provider interface {
	// EmbedBatch embeds a batch of raw (already contextualized) texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// NativeDims is the provider's untruncated output width.
	NativeDims() int
	// ModelName is the bare model identifier, without the -d{dims} suffix.
	ModelName() string
	// Tier is the provider tier name used in getProvider()/logs.
	Tier() string
}

// Config carries every provider's connection parameters; Initialize uses
// whichever subset is relevant to the tier it selects.
type Config struct {
	OllamaBaseURL string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	// ProbeTimeout is carried here in seconds but is not read: the
	// /api/tags probe (ProbeOllama) always uses a fixed 2s timeout.
	ProbeTimeout   int
	SystemRAMBytes uint64
}
