package index

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/ricardonunez-io/lograg/internal/fuzzy"
	"github.com/ricardonunez-io/lograg/internal/retry"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const DefaultHashDimension = 512

// HashEmbedder is an offline embedder using signed feature hashing over
// normalized unigrams and bigrams. Variable tokens such as ids, addresses and
// numbers are collapsed to placeholders first, so lines that differ only in
// those values land close together.
type HashEmbedder struct {
	Dimension int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashEmbedder{Dimension: dim}
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.Dimension)
	tokens := fuzzy.Tokens(fuzzy.Normalize(text))

	for i, tok := range tokens {
		e.add(vec, tok, 1)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

func (e *HashEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(len(vec)))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// GeminiConfig configures the Gemini embedding client.
type GeminiConfig struct {
	APIKey    string
	Model     string
	Dimension int
	Timeout   time.Duration
	// RequestsPerSecond bounds the call rate; 0 disables limiting.
	RequestsPerSecond float64
	Retry             retry.Config
}

func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:            apiKey,
		Model:             "gemini-embedding-001",
		Dimension:         768,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 20,
		Retry:             retry.DefaultConfig(),
	}
}

// GeminiEmbedder calls the Gemini embedding API.
type GeminiEmbedder struct {
	cfg     GeminiConfig
	client  *genai.Client
	limiter *rate.Limiter
}

func NewGeminiEmbedder(ctx context.Context, cfg GeminiConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	log.Info().
		Str("model", cfg.Model).
		Int("dimension", cfg.Dimension).
		Float64("rps", cfg.RequestsPerSecond).
		Msg("Gemini embedder initialized")

	return &GeminiEmbedder{cfg: cfg, client: client, limiter: limiter}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	// The API rejects empty content.
	if text == "" {
		return make([]float32, e.cfg.Dimension), nil
	}

	var embedding []float32
	err := retry.Do(ctx, e.cfg.Retry, retry.IsTransient, func(ctx context.Context) error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()

		dim := int32(e.cfg.Dimension)
		result, err := e.client.Models.EmbedContent(callCtx, e.cfg.Model,
			[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
			&genai.EmbedContentConfig{OutputDimensionality: &dim},
		)
		if err != nil {
			return fmt.Errorf("embedding generation failed: %w", err)
		}
		if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
			return errors.New("no embedding returned from API")
		}
		embedding = result.Embeddings[0].Values
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(embedding) != e.cfg.Dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.cfg.Dimension, len(embedding))
	}
	return embedding, nil
}
