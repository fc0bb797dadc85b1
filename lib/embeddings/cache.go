// Copyright 2025 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package embeddings

import (
	"context"
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CacheTTL is the default lifetime of cached embedding batches.
const CacheTTL = 2 * time.Minute

// CachedEmbedder wraps an Embedder with a TTL cache keyed by batch content.
// Concurrent identical batches are deduplicated with singleflight so the
// backing service sees each distinct batch at most once at a time.
type CachedEmbedder struct {
	embedder Embedder
	model    string
	cache    *ttlcache.Cache[string, [][]float32]
	sfGroup  *singleflight.Group
	logger   *zap.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedEmbedder wraps embedder with caching.
func NewCachedEmbedder(embedder Embedder, model string, logger *zap.Logger) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, [][]float32](CacheTTL),
	)
	go cache.Start()

	return &CachedEmbedder{
		embedder: embedder,
		model:    model,
		cache:    cache,
		sfGroup:  &singleflight.Group{},
		logger:   logger,
	}
}

// Embed implements Embedder with batch-level caching.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	key := c.cacheKey(texts)

	if item := c.cache.Get(key); item != nil {
		c.hits.Add(1)
		c.logger.Debug("embedding cache hit",
			zap.String("model", c.model),
			zap.Int("texts", len(texts)))
		return item.Value(), nil
	}

	result, err, _ := c.sfGroup.Do(key, func() (any, error) {
		c.misses.Add(1)
		vectors, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, vectors, ttlcache.DefaultTTL)
		return vectors, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([][]float32), nil
}

// cacheKey hashes model name and batch contents.
func (c *CachedEmbedder) cacheKey(texts []string) string {
	h := xxhash.New()
	_, _ = h.WriteString(c.model)
	_, _ = h.WriteString("|")
	for _, text := range texts {
		_, _ = h.WriteString(text)
		_, _ = h.WriteString("||")
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h.Sum64())
	return string(buf[:])
}

// Stats returns hit/miss counters.
func (c *CachedEmbedder) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Close stops the cache and closes the underlying embedder.
func (c *CachedEmbedder) Close() error {
	c.cache.Stop()
	c.cache.DeleteAll()
	return c.embedder.Close()
}
