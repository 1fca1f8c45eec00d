// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"go.uber.org/zap"

	"github.com/pdiddy/unit-converter/internal/convert"
	"github.com/pdiddy/unit-converter/internal/extract"
	"github.com/pdiddy/unit-converter/internal/llm"
	"github.com/pdiddy/unit-converter/internal/store"
	"github.com/pdiddy/unit-converter/pkg/types"
)

// components are the long-lived pieces a command needs.
type components struct {
	store    *store.Store
	cache    *llm.Cache
	rewriter *convert.Rewriter
}

// newComponents opens the run store (when enabled and withStore is set),
// builds the fallback classifier when a key is available, and returns a
// Rewriter for the configured unit.
func newComponents(cfg types.Config, withStore bool) (*components, error) {
	unit, err := types.ParseUnit(cfg.Conversion.Unit)
	if err != nil {
		return nil, err
	}

	c := &components{}
	if withStore && cfg.Store.Enabled {
		s, err := store.Open(cfg.Store)
		if err != nil {
			return nil, err
		}
		c.store = s
	}

	var fallback extract.Classifier
	if cfg.Classifier.Enabled && cfg.Classifier.APIKey != "" {
		var persist llm.Persister
		if c.store != nil {
			persist = c.store
		}
		cache, err := llm.NewCache(llm.NewClient(cfg.Classifier, logger), cfg.Classifier.CacheSize, persist, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.cache = cache
		fallback = cache
		logger.Debug("fallback classifier enabled",
			zap.String("op", "main.newComponents"),
			zap.String("model", cfg.Classifier.Model),
		)
	}

	c.rewriter = convert.NewRewriter(unit, cfg.Conversion.Threshold, extract.New(fallback, logger), logger)
	return c, nil
}

// Close releases the store.
func (c *components) Close() {
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}
}
