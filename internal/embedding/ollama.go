package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaProvider wraps a local Ollama inference server, the same way the
// teacher's pkg/embedder/ollama.go does, but exposes the untruncated
// native vector so Service can apply MRL truncation uniformly.
type OllamaProvider struct {
	httpClient *http.Client
	baseURL    string
	model      string
	nativeDims int
	embedder   embeddings.Embedder
}

// OllamaTagsResponse mirrors GET /api/tags.
type OllamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ProbeOllama calls GET /api/tags with a 2s timeout and returns the raw
// model names available on the server. A non-nil error means the probe
// failed (server unreachable, non-200, bad JSON) and callers should treat
// Ollama as unavailable for tier selection.
func ProbeOllama(baseURL string) ([]string, error) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(strings.TrimRight(baseURL, "/") + "/api/tags")
	if err != nil {
		return nil, fmt.Errorf("probe ollama: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("probe ollama: unexpected status %d", resp.StatusCode)
	}
	var tags OllamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("probe ollama: decode /api/tags: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// NewOllamaProvider builds a provider bound to a specific model name,
// already selected by the tiering logic in Service.Initialize.
func NewOllamaProvider(baseURL, model string, nativeDims int) (*OllamaProvider, error) {
	client, err := ollama.New(ollama.WithServerURL(baseURL), ollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("wrap ollama embedder: %w", err)
	}
	return &OllamaProvider{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
		nativeDims: nativeDims,
		embedder:   emb,
	}, nil
}

func (o *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := o.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed batch: %w", err)
	}
	return vectors, nil
}

func (o *OllamaProvider) NativeDims() int   { return o.nativeDims }
func (o *OllamaProvider) ModelName() string { return o.model }
func (o *OllamaProvider) Tier() string      { return tierForOllamaModel(o.model) }

// tierForOllamaModel classifies a concrete Ollama model name into one of
// the priority tiers from . Unknown embedding-capable models map
// to "ollama-generic".
func tierForOllamaModel(model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "8b"):
		return "ollama-8b"
	case strings.Contains(lower, "4b"):
		return "ollama-4b"
	case strings.Contains(lower, "0.6b"), strings.Contains(lower, "0_6b"):
		return "ollama-0.6b"
	default:
		return "ollama-generic"
	}
}

// HasModelContaining reports whether any catalog entry contains needle
// (case-insensitive), used by the tiering probe in Service.Initialize.
func HasModelContaining(catalog []string, needle string) (string, bool) {
	needle = strings.ToLower(needle)
	for _, m := range catalog {
		if strings.Contains(strings.ToLower(m), needle) {
			return m, true
		}
	}
	return "", false
}

// IsEmbeddingCapable is a best-effort heuristic: Ollama's /api/tags does
// not distinguish embedding from chat models, so we key off common
// embedding-model name fragments observed in the wild.
func IsEmbeddingCapable(model string) bool {
	lower := strings.ToLower(model)
	for _, frag := range []string{"embed", "bge", "gte", "e5", "minilm", "nomic"} {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
