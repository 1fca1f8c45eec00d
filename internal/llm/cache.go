// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/unit-converter/pkg/types"
)

// Backend classifies text. *Client implements it.
type Backend interface {
	Classify(ctx context.Context, text string) ([]float64, error)
}

// Persister is an optional second cache tier that outlives the process.
type Persister interface {
	LookupClassification(ctx context.Context, text string) ([]float64, bool, error)
	SaveClassification(ctx context.Context, text string, amounts []float64) error
}

// Cache memoises a Backend by exact text. It is bounded, safe for
// concurrent use, and collapses concurrent lookups of the same text into
// one backend call. Failed calls are not cached.
type Cache struct {
	backend Backend
	mem     *lru.Cache[string, []float64]
	group   singleflight.Group
	store   Persister
	logger  *zap.Logger
}

// NewCache wraps backend. size <= 0 uses the default capacity; store may
// be nil.
func NewCache(backend Backend, size int, store Persister, logger *zap.Logger) (*Cache, error) {
	if size <= 0 {
		size = types.DefaultCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	mem, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("creating classifier cache: %w", err)
	}
	return &Cache{backend: backend, mem: mem, store: store, logger: logger}, nil
}

// Classify returns the cached answer for text or asks the backend.
func (c *Cache) Classify(ctx context.Context, text string) ([]float64, error) {
	if v, ok := c.mem.Get(text); ok {
		return slices.Clone(v), nil
	}

	v, err, _ := c.group.Do(text, func() (any, error) {
		if v, ok := c.mem.Get(text); ok {
			return v, nil
		}
		if c.store != nil {
			v, ok, err := c.store.LookupClassification(ctx, text)
			if err != nil {
				c.logger.Warn("classifier cache lookup failed",
					zap.String("op", "llm.Cache.Classify"),
					zap.Error(err),
				)
			} else if ok {
				c.mem.Add(text, v)
				return v, nil
			}
		}

		v, err := c.backend.Classify(ctx, text)
		if err != nil {
			return nil, err
		}
		c.mem.Add(text, v)
		if c.store != nil {
			if err := c.store.SaveClassification(ctx, text, v); err != nil {
				c.logger.Warn("classifier cache save failed",
					zap.String("op", "llm.Cache.Classify"),
					zap.Error(err),
				)
			}
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]float64)), nil
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	return c.mem.Len()
}
