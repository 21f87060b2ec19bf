package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIModelSmall is the only model names for the MRL
// "dimensions" provider option; other models are assumed not to support
// it, per the Open Question in — MRL is gated at this boundary.
const OpenAIModelSmall = "text-embedding-3-small"

// OpenAIProvider wraps an OpenAI-compatible embeddings endpoint.
type OpenAIProvider struct {
	embedder    embeddings.Embedder
	model       string
	nativeDims  int
	supportsMRL bool
}

// NewOpenAIProvider builds a provider. The "dimensions" parameter is not
// sent to the API: the endpoint returns its full-width vector and Service
// truncates and re-normalizes it client-side like every other tier. When
// requestedDims is set and the model is the small model, NativeDims
// reports requestedDims rather than the endpoint's native width.
func NewOpenAIProvider(apiKey, baseURL, model string, requestedDims int) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = OpenAIModelSmall
	}
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	supportsMRL := model == OpenAIModelSmall
	// No "dimensions" option is passed to the client; Service truncates
	// client-side.
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("wrap openai embedder: %w", err)
	}
	nativeDims := 1536
	if supportsMRL && requestedDims > 0 {
		nativeDims = requestedDims
	}
	return &OpenAIProvider{embedder: emb, model: model, nativeDims: nativeDims, supportsMRL: supportsMRL}, nil
}

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai embed batch: %w", err)
	}
	return vectors, nil
}

func (p *OpenAIProvider) NativeDims() int   { return p.nativeDims }
func (p *OpenAIProvider) ModelName() string { return p.model }
func (p *OpenAIProvider) Tier() string      { return "openai" }

// SupportsMRL reports whether the model is the MRL-capable small model.
// Service does not consult it and truncates client-side for every model.
func (p *OpenAIProvider) SupportsMRL() bool { return p.supportsMRL }
