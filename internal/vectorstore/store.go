package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/docask/internal/config"
	"github.com/xxxsen/docask/internal/model"
)

const (
	MinTopK     = 1
	MaxTopK     = 10
	DefaultTopK = 5
)

// Store answers nearest-neighbor queries against an externally maintained
// vector index. Passages come back ordered by descending similarity; an
// empty slice is a valid "no matches" outcome, not an error.
type Store interface {
	Query(ctx context.Context, vector []float32, filters map[string]string, topK int) ([]model.RetrievedPassage, error)
	Ping(ctx context.Context) error
}

// ClampTopK bounds topK to the supported window, substituting the default
// for non-positive values.
func ClampTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	if topK < MinTopK {
		return MinTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

type Factory func(cfg config.VectorStoreConfig) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.VectorStoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("vector_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector store: %s", cfg.Type)
	}
	return factory(cfg)
}
