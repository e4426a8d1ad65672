// Package embedding compares texts by the cosine similarity of their embeddings.
package embedding

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/llmassert/internal/inference"
	"github.com/at-ishikawa/llmassert/internal/similarity"
)

type Service struct {
	embedder inference.Embedder
	cache    *FileCache
}

// NewService creates a Service. cache may be nil to always call the embedder.
func NewService(embedder inference.Embedder, cache *FileCache) *Service {
	return &Service{
		embedder: embedder,
		cache:    cache,
	}
}

func (service *Service) Embed(ctx context.Context, text string) ([]float64, error) {
	if service.cache == nil {
		return service.embedder.Embed(ctx, text)
	}
	return service.cache.cache(cacheKey(service.embedder.EmbeddingModel(), text), func() ([]float64, error) {
		return service.embedder.Embed(ctx, text)
	})
}

// CompareEmbeddings returns the cosine similarity between the embeddings of both texts
func (service *Service) CompareEmbeddings(ctx context.Context, expected, actual string) (float64, error) {
	expectedVector, err := service.Embed(ctx, expected)
	if err != nil {
		return 0, fmt.Errorf("embed expected > %w", err)
	}
	actualVector, err := service.Embed(ctx, actual)
	if err != nil {
		return 0, fmt.Errorf("embed actual > %w", err)
	}

	score, err := similarity.Cosine(expectedVector, actualVector)
	if err != nil {
		return 0, fmt.Errorf("similarity.Cosine > %w", err)
	}
	return score, nil
}
