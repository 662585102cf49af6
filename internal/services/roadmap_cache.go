package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/observability"
	"github.com/yungbote/careerpath-backend/internal/platform/cacheinv"
)

// RoadmapCache holds careers with their ordered milestones keyed by reference id.
// Cached values are shared and must not be mutated. A nil cache is disabled.
//
// Loads race with evictions: a reader may fetch a roadmap, an editor may
// replace and evict it, and only then the reader adds what it fetched. Every
// eviction bumps gen, and Add only stores a value loaded under the current gen.
type RoadmapCache struct {
	mu      sync.Mutex
	gen     uint64
	entries *lru.Cache[string, *types.Career]
	metrics *observability.Metrics
}

func NewRoadmapCache(size int, metrics *observability.Metrics) (*RoadmapCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[string, *types.Career](size)
	if err != nil {
		return nil, fmt.Errorf("roadmap cache: %w", err)
	}
	return &RoadmapCache{entries: entries, metrics: metrics}, nil
}

func (c *RoadmapCache) Get(referenceID string) (*types.Career, bool) {
	if c == nil {
		return nil, false
	}
	career, ok := c.entries.Get(referenceID)
	c.metrics.IncRoadmapCache(ok)
	return career, ok
}

// Generation is taken before loading a roadmap from storage and handed back to Add.
func (c *RoadmapCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Add stores career unless an eviction happened since gen was taken.
func (c *RoadmapCache) Add(career *types.Career, gen uint64) bool {
	if c == nil || career == nil || career.ReferenceID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.entries.Add(career.ReferenceID, career)
	return true
}

// EvictCareer drops every entry for careerID.
func (c *RoadmapCache) EvictCareer(careerID uuid.UUID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for _, key := range c.entries.Keys() {
		if career, ok := c.entries.Peek(key); ok && career.ID == careerID {
			c.entries.Remove(key)
		}
	}
}

func (c *RoadmapCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries.Purge()
}

func (c *RoadmapCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// HandleTag applies an invalidation tag published by another process.
func (c *RoadmapCache) HandleTag(tag string) {
	if id, ok := cacheinv.ParseRoadmapTag(tag); ok {
		c.EvictCareer(id)
	}
}
