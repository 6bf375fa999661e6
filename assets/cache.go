// SPDX-License-Identifier: EPL-2.0

// Package assets loads audio files for playback and keeps recently used
// ones decoded in memory.
package assets

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/source"
)

// Cache holds decoded buffers keyed by absolute file path. Buffers are
// immutable, so one cached buffer can back any number of voices.
type Cache struct {
	buffers *lru.Cache[string, *source.Buffer]
	reg     *audio.Registry
	log     *zap.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache holding at most size decoded files. A nil logger
// discards messages.
func New(size int, reg *audio.Registry, log *zap.Logger) (*Cache, error) {
	if reg == nil {
		return nil, source.ErrNoRegistry
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Cache{reg: reg, log: log}
	buffers, err := lru.NewWithEvict(size, c.evicted)
	if err != nil {
		return nil, fmt.Errorf("asset cache: %w", err)
	}
	c.buffers = buffers
	return c, nil
}

// Load returns the decoded file, decoding it on a miss. Concurrent misses
// on one path may decode it more than once.
func (c *Cache) Load(path string) (*source.Buffer, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	if b, ok := c.buffers.Get(key); ok {
		c.hits.Add(1)
		return b, nil
	}
	c.misses.Add(1)

	b, err := source.Load(key, c.reg)
	if err != nil {
		return nil, err
	}
	c.buffers.Add(key, b)

	c.log.Debug("asset decoded",
		zap.String("path", key),
		zap.Uint64("frames", b.Frames()),
		zap.Int("sample_rate", b.SampleRate()),
		zap.Int("channels", b.Channels()))
	return b, nil
}

// Open streams the file without caching it.
func (c *Cache) Open(path string, opts ...source.StreamOption) (*source.Stream, error) {
	return source.Open(path, c.reg, append([]source.StreamOption{source.WithLogger(c.log)}, opts...)...)
}

// Remove drops path from the cache. Voices already playing it keep their
// reference.
func (c *Cache) Remove(path string) bool {
	key, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return c.buffers.Remove(key)
}

func (c *Cache) Purge()   { c.buffers.Purge() }
func (c *Cache) Len() int { return c.buffers.Len() }

// Stats returns the hit and miss counts of Load.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) evicted(key string, b *source.Buffer) {
	c.log.Debug("asset evicted", zap.String("path", key), zap.Uint64("frames", b.Frames()))
}
