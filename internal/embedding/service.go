package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agentmemory/memoryd/internal/model"
)

// AllowedDims is the closed set of dims the public contract accepts.
var AllowedDims = map[int]bool{256: true, 1024: true}

// Service implements the EmbeddingService contract:
// provider auto-detection at Initialize, MRL truncation, contextual
// prefixing, and a content-addressed cache.
type Service struct {
	cfg Config

	mu       sync.Mutex
	provider Provider
	initDone bool

	cache *Cache
}

// NewService wires a Service to its cache; call Initialize before use.
func NewService(cfg Config, cache *Cache) *Service {
	return &Service{cfg: cfg, cache: cache}
}

// Initialize probes for a local inference server and selects a provider
// tier in the strict priority order. Idempotent: subsequent
// calls are no-ops.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initDone {
		return nil
	}

	if s.cfg.OllamaBaseURL != "" {
		if catalog, err := ProbeOllama(s.cfg.OllamaBaseURL); err == nil {
			if p, ok := s.selectOllamaTier(catalog); ok {
				s.provider = p
				s.initDone = true
				slog.Info("embedding provider selected", "tier", p.Tier(), "model", p.ModelName())
				return nil
			}
		} else {
			slog.Warn("ollama probe failed, falling back", "error", err)
		}
	}

	if s.cfg.OpenAIAPIKey != "" {
		p, err := NewOpenAIProvider(s.cfg.OpenAIAPIKey, s.cfg.OpenAIBaseURL, OpenAIModelSmall, 1024)
		if err == nil {
			s.provider = p
			s.initDone = true
			slog.Info("embedding provider selected", "tier", p.Tier(), "model", p.ModelName())
			return nil
		}
		slog.Warn("openai provider init failed, falling back to onnx", "error", err)
	}

	s.provider = NewOnnxProvider()
	s.initDone = true
	slog.Info("embedding provider selected", "tier", "onnx", "model", OnnxModelID)
	return nil
}

// selectOllamaTier applies the strict 8b > 4b > 0.6b > generic priority
// over the probed model catalog. RAM gating for the
// 8b tier uses cfg.SystemRAMBytes (>32GiB), a caller-supplied fact since
// Go has no portable stdlib way to read total system memory.
func (s *Service) selectOllamaTier(catalog []string) (Provider, bool) {
	const gib32 = 32 * 1024 * 1024 * 1024
	if s.cfg.SystemRAMBytes > gib32 {
		if m, ok := HasModelContaining(catalog, "8b"); ok {
			p, err := NewOllamaProvider(s.cfg.OllamaBaseURL, m, 4096)
			if err == nil {
				return p, true
			}
		}
	}
	if m, ok := HasModelContaining(catalog, "4b"); ok {
		if p, err := NewOllamaProvider(s.cfg.OllamaBaseURL, m, 2560); err == nil {
			return p, true
		}
	}
	if m, ok := HasModelContaining(catalog, "0.6b"); ok {
		if p, err := NewOllamaProvider(s.cfg.OllamaBaseURL, m, 1024); err == nil {
			return p, true
		}
	}
	for _, m := range catalog {
		if IsEmbeddingCapable(m) {
			if p, err := NewOllamaProvider(s.cfg.OllamaBaseURL, m, 768); err == nil {
				return p, true
			}
		}
	}
	return nil, false
}

// GetProvider returns the currently selected provider (for diagnostics /
// the help tool); nil before Initialize has run.
func (s *Service) GetProvider() Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// GetModelID returns the string persisted on memory/embedding rows:
// "{provider model name}-d{dims}".
func (s *Service) GetModelID(dims int) string {
	p := s.GetProvider()
	if p == nil {
		return fmt.Sprintf("unknown-d%d", dims)
	}
	return fmt.Sprintf("%s-d%d", p.ModelName(), dims)
}

// Embed embeds a single text at the requested dims, going through the
// cache first.
func (s *Service) Embed(ctx context.Context, text string, dims int) ([]float32, error) {
	if !AllowedDims[dims] {
		return nil, fmt.Errorf("contract violation: dims must be 256 or 1024, got %d", dims)
	}
	vectors, err := s.EmbedBatch(ctx, []string{text}, dims)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch performs per-text cache lookups in parallel, then a single
// batch inference call for the misses.
func (s *Service) EmbedBatch(ctx context.Context, texts []string, dims int) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if !AllowedDims[dims] {
		return nil, fmt.Errorf("contract violation: dims must be 256 or 1024, got %d", dims)
	}
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	modelID := s.GetModelID(dims)

	results := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	missIdx := make([]int, 0, len(texts))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	_ = gctx
	for i, text := range texts {
		i, text := i, text
		keys[i] = Key(text, modelID, dims)
		g.Go(func() error {
			if v, ok := s.cache.Get(ctx, keys[i]); ok {
				mu.Lock()
				results[i] = v
				mu.Unlock()
				return nil
			}
			mu.Lock()
			missIdx = append(missIdx, i)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(missIdx) == 0 {
		return results, nil
	}

	missTexts := make([]string, len(missIdx))
	for j, i := range missIdx {
		missTexts[j] = texts[i]
	}

	s.mu.Lock()
	provider := s.provider
	s.mu.Unlock()

	raw, err := provider.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	for j, i := range missIdx {
		v := mrlTruncateAndNormalize(raw[j], dims)
		results[i] = v
		s.cache.Put(ctx, keys[i], modelID, dims, v)
	}
	return results, nil
}

// EmbedMemory formats and embeds a Memory's contextual text at 1024 dims.
func (s *Service) EmbedMemory(ctx context.Context, m *model.Memory) ([]float32, error) {
	return s.Embed(ctx, MemoryContextText(m), 1024)
}

// EmbedChunk formats and embeds an ASTChunk's contextual text at 1024 dims.
func (s *Service) EmbedChunk(ctx context.Context, c *model.ASTChunk) ([]float32, error) {
	return s.Embed(ctx, ChunkContextText(c), 1024)
}

// mrlTruncateAndNormalize implements the Matryoshka truncation rule:
// for models returning more than dims components, take the first dims
// and re-normalize; a provider already at or below dims is returned
// unchanged (still normalized defensively).
func mrlTruncateAndNormalize(v []float32, dims int) []float32 {
	if len(v) > dims {
		v = append([]float32{}, v[:dims]...)
	}
	return normalize(v)
}
