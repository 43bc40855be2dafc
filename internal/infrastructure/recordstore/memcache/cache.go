// Package memcache provides an in-memory read cache over a RecordStore.
// The publication service refreshes it after every accepted mutation; a
// directory watcher keeps it current when another process writes the
// store directly.
package memcache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/identifiers"
	"github.com/navayuwa/nes-core/internal/domain/ports"
)

// Cache implements ports.ReadStore over an in-memory copy of the
// entity and relationship records. Version reads pass through to the
// backing store; version history is large and rarely read, so caching
// it buys nothing.
type Cache struct {
	backing ports.RecordStore
	log     *slog.Logger

	mu            sync.RWMutex
	entities      map[string]*entities.Entity
	relationships map[string]*entities.Relationship
	// tagged maps a tag to the ids of the entities carrying it, so tag
	// filters never scan the whole entity map.
	tagged map[string]map[string]struct{}
}

// NewCache creates an empty cache over the backing store. Call Warm to
// load it before serving reads.
func NewCache(backing ports.RecordStore, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		backing:       backing,
		log:           log,
		entities:      make(map[string]*entities.Entity),
		relationships: make(map[string]*entities.Relationship),
		tagged:        make(map[string]map[string]struct{}),
	}
}

// Warm replaces the cache contents with a full read of the backing
// store.
func (c *Cache) Warm(ctx context.Context) error {
	ents, err := c.backing.ListEntities(ctx, ports.EntityFilter{})
	if err != nil {
		return fmt.Errorf("warming entity cache: %w", err)
	}
	rels, err := c.backing.ListRelationships(ctx)
	if err != nil {
		return fmt.Errorf("warming relationship cache: %w", err)
	}

	entityMap := make(map[string]*entities.Entity, len(ents))
	tagged := make(map[string]map[string]struct{})
	for _, e := range ents {
		id := e.ID()
		entityMap[id] = e
		for _, tag := range e.Tags {
			set := tagged[tag]
			if set == nil {
				set = make(map[string]struct{})
				tagged[tag] = set
			}
			set[id] = struct{}{}
		}
	}
	relMap := make(map[string]*entities.Relationship, len(rels))
	for _, r := range rels {
		relMap[r.ID()] = r
	}

	c.mu.Lock()
	c.entities = entityMap
	c.relationships = relMap
	c.tagged = tagged
	c.mu.Unlock()

	c.log.Info("record cache warmed", "entities", len(entityMap), "relationships", len(relMap))
	return nil
}

// Refresh re-reads one record from the backing store, or evicts it if
// it no longer exists. Unknown identifier kinds are ignored so version
// and actor writes do not disturb the cache.
func (c *Cache) Refresh(ctx context.Context, id string) error {
	kind, err := identifiers.Kind(id)
	if err != nil {
		return err
	}

	switch kind {
	case identifiers.GrammarEntity:
		e, err := c.backing.GetEntity(ctx, id)
		if err != nil {
			return fmt.Errorf("refreshing %s: %w", id, err)
		}
		c.mu.Lock()
		c.retag(id, e)
		if e == nil {
			delete(c.entities, id)
		} else {
			c.entities[id] = e
		}
		c.mu.Unlock()
	case identifiers.GrammarRelationship:
		r, err := c.backing.GetRelationship(ctx, id)
		if err != nil {
			return fmt.Errorf("refreshing %s: %w", id, err)
		}
		c.mu.Lock()
		if r == nil {
			delete(c.relationships, id)
		} else {
			c.relationships[id] = r
		}
		c.mu.Unlock()
	}
	return nil
}

// retag moves an entity's ids between tag sets when it changes.
// Callers hold the write lock. next may be nil (eviction).
func (c *Cache) retag(id string, next *entities.Entity) {
	if old, ok := c.entities[id]; ok {
		for _, tag := range old.Tags {
			set := c.tagged[tag]
			if set == nil {
				continue
			}
			delete(set, id)
			if len(set) == 0 {
				delete(c.tagged, tag)
			}
		}
	}
	if next == nil {
		return
	}
	for _, tag := range next.Tags {
		set := c.tagged[tag]
		if set == nil {
			set = make(map[string]struct{})
			c.tagged[tag] = set
		}
		set[id] = struct{}{}
	}
}

// GetEntity reads an entity from the cache. Returns (nil, nil) when
// absent.
func (c *Cache) GetEntity(_ context.Context, id string) (*entities.Entity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[id]
	if !ok {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

// ListEntities lists cached entities matching the filter, ordered by
// id. Tag filters narrow the candidates through the tag index before
// any entity is inspected.
func (c *Cache) ListEntities(_ context.Context, filter ports.EntityFilter) ([]*entities.Entity, error) {
	c.mu.RLock()
	ids := make([]string, 0, len(c.entities))
	for id := range c.candidates(filter.Tags) {
		e := c.entities[id]
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.SubType != "" && e.SubType != filter.SubType {
			continue
		}
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	sort.Strings(ids)
	if filter.Offset > 0 {
		if filter.Offset >= len(ids) {
			ids = nil
		} else {
			ids = ids[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(ids) {
		ids = ids[:filter.Limit]
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]*entities.Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := c.entities[id]; ok {
			clone := *e
			result = append(result, &clone)
		}
	}
	return result, nil
}

// candidates returns the ids eligible under a tag filter, intersecting
// the tag sets starting from the first. Callers hold at least the read
// lock.
func (c *Cache) candidates(tags []string) map[string]struct{} {
	if len(tags) == 0 {
		all := make(map[string]struct{}, len(c.entities))
		for id := range c.entities {
			all[id] = struct{}{}
		}
		return all
	}

	out := make(map[string]struct{}, len(c.tagged[tags[0]]))
	for id := range c.tagged[tags[0]] {
		keep := true
		for _, tag := range tags[1:] {
			if _, ok := c.tagged[tag][id]; !ok {
				keep = false
				break
			}
		}
		if keep {
			out[id] = struct{}{}
		}
	}
	return out
}

// GetRelationship reads a relationship from the cache. Returns
// (nil, nil) when absent.
func (c *Cache) GetRelationship(_ context.Context, id string) (*entities.Relationship, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.relationships[id]
	if !ok {
		return nil, nil
	}
	clone := *r
	return &clone, nil
}

// ListRelationships lists every cached relationship, ordered by id.
func (c *Cache) ListRelationships(_ context.Context) ([]*entities.Relationship, error) {
	return c.listRelationships(func(*entities.Relationship) bool { return true }), nil
}

// ListRelationshipsByEntity lists cached relationships touching an
// entity, ordered by id.
func (c *Cache) ListRelationshipsByEntity(_ context.Context, entityID string) ([]*entities.Relationship, error) {
	return c.listRelationships(func(r *entities.Relationship) bool {
		return r.SourceEntityID == entityID || r.TargetEntityID == entityID
	}), nil
}

func (c *Cache) listRelationships(keep func(*entities.Relationship) bool) []*entities.Relationship {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.relationships))
	for id, r := range c.relationships {
		if keep(r) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	result := make([]*entities.Relationship, 0, len(ids))
	for _, id := range ids {
		clone := *c.relationships[id]
		result = append(result, &clone)
	}
	return result
}

// ListVersionsByOwner passes through to the backing store.
func (c *Cache) ListVersionsByOwner(ctx context.Context, ownerID string) ([]*entities.Version, error) {
	return c.backing.ListVersionsByOwner(ctx, ownerID)
}

// Len returns the number of cached entities and relationships.
func (c *Cache) Len() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities), len(c.relationships)
}
