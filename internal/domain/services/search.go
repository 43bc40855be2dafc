package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/identifiers"
	"github.com/navayuwa/nes-core/internal/domain/ports"
)

const (
	// DefaultSearchLimit bounds result sets when the caller does not
	// set a limit.
	DefaultSearchLimit = 100

	// MaxBatchSize bounds how many identifiers one batch lookup may
	// carry.
	MaxBatchSize = 25
)

// ErrBatchTooLarge is returned when a batch lookup exceeds
// MaxBatchSize identifiers.
var ErrBatchTooLarge = errors.New("too many identifiers in batch")

// EntityQuery describes an entity search. Zero values leave the
// corresponding dimension unconstrained. All set constraints must hold
// together.
type EntityQuery struct {
	// NameQuery matches any language variant of any name as a
	// case-insensitive substring.
	NameQuery string
	Type      entities.EntityType
	SubType   string
	// Attributes are exact-match constraints compared against the
	// string form of the stored value.
	Attributes map[string]string
	// Tags must all be present on the entity.
	Tags   []string
	Limit  int
	Offset int
}

// RelationshipQuery describes a relationship search.
type RelationshipQuery struct {
	// EntityID restricts results to relationships touching the entity
	// as source or target.
	EntityID string
	// SourceEntityID and TargetEntityID restrict one endpoint exactly.
	SourceEntityID string
	TargetEntityID string
	Type           entities.RelationshipType
	// ActiveOn keeps relationships active on the given date.
	ActiveOn *entities.Date
	// CurrentlyActive keeps relationships with no end date.
	CurrentlyActive bool
	Limit           int
	Offset          int
}

// BatchResult is the outcome of a batch entity lookup. The lookup is
// partial-success: found entities are returned and missing identifiers
// are reported, never an error.
type BatchResult struct {
	Entities  []*entities.Entity `json:"entities"`
	Total     int                `json:"total"`
	Requested int                `json:"requested"`
	NotFound  []string           `json:"not_found,omitempty"`
}

// SearchService answers read queries against the published graph. It
// only needs the read side of the store, so it can sit on the in-memory
// cache.
type SearchService struct {
	read ports.ReadStore
}

// NewSearchService creates a SearchService over the given read store.
func NewSearchService(read ports.ReadStore) *SearchService {
	return &SearchService{read: read}
}

// GetEntity reads one entity by id. Returns entities.ErrNotFound when
// absent.
func (s *SearchService) GetEntity(ctx context.Context, id string) (*entities.Entity, error) {
	if _, err := identifiers.ValidateEntityID(id); err != nil {
		return nil, err
	}
	e, err := s.read.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrNotFound, id)
	}
	return e, nil
}

// SearchEntities lists entities matching every constraint of the
// query, ordered by id.
func (s *SearchService) SearchEntities(ctx context.Context, q EntityQuery) ([]*entities.Entity, error) {
	// Type, sub-type and tags narrow the listing inside the store; the
	// remaining constraints are applied per entity.
	listed, err := s.read.ListEntities(ctx, ports.EntityFilter{Type: q.Type, SubType: q.SubType, Tags: q.Tags})
	if err != nil {
		return nil, err
	}

	matched := make([]*entities.Entity, 0, len(listed))
	for _, e := range listed {
		if q.NameQuery != "" && !e.MatchesName(q.NameQuery) {
			continue
		}
		if !matchesAttributes(e, q.Attributes) {
			continue
		}
		matched = append(matched, e)
	}

	return pageEntities(matched, q.Limit, q.Offset), nil
}

// matchesAttributes reports whether the entity carries every wanted
// attribute with exactly the wanted value.
func matchesAttributes(e *entities.Entity, wanted map[string]string) bool {
	for key, want := range wanted {
		value, ok := e.Attributes[key]
		if !ok {
			return false
		}
		if fmt.Sprint(value) != want {
			return false
		}
	}
	return true
}

func pageEntities(list []*entities.Entity, limit, offset int) []*entities.Entity {
	if offset > 0 {
		if offset >= len(list) {
			return []*entities.Entity{}
		}
		list = list[offset:]
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit < len(list) {
		list = list[:limit]
	}
	return list
}

// EntitiesBatch looks up as many as MaxBatchSize entities at once.
// Missing identifiers are reported in the result, not as an error;
// duplicate identifiers are looked up once.
func (s *SearchService) EntitiesBatch(ctx context.Context, ids []string) (*BatchResult, error) {
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d requested, limit %d", ErrBatchTooLarge, len(ids), MaxBatchSize)
	}

	result := &BatchResult{Requested: len(ids)}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		if _, err := identifiers.ValidateEntityID(id); err != nil {
			result.NotFound = append(result.NotFound, id)
			continue
		}
		e, err := s.read.GetEntity(ctx, id)
		if err != nil {
			return nil, err
		}
		if e == nil {
			result.NotFound = append(result.NotFound, id)
			continue
		}
		result.Entities = append(result.Entities, e)
	}
	result.Total = len(result.Entities)
	return result, nil
}

// SearchRelationships lists relationships matching every constraint of
// the query, ordered by id.
func (s *SearchService) SearchRelationships(ctx context.Context, q RelationshipQuery) ([]*entities.Relationship, error) {
	var listed []*entities.Relationship
	var err error
	if q.EntityID != "" {
		listed, err = s.read.ListRelationshipsByEntity(ctx, q.EntityID)
	} else {
		listed, err = s.read.ListRelationships(ctx)
	}
	if err != nil {
		return nil, err
	}

	matched := make([]*entities.Relationship, 0, len(listed))
	for _, r := range listed {
		if q.SourceEntityID != "" && r.SourceEntityID != q.SourceEntityID {
			continue
		}
		if q.TargetEntityID != "" && r.TargetEntityID != q.TargetEntityID {
			continue
		}
		if q.Type != "" && r.Type != q.Type {
			continue
		}
		if q.ActiveOn != nil && !r.ActiveOn(*q.ActiveOn) {
			continue
		}
		if q.CurrentlyActive && !r.CurrentlyActive() {
			continue
		}
		matched = append(matched, r)
	}

	return pageRelationships(matched, q.Limit, q.Offset), nil
}

func pageRelationships(list []*entities.Relationship, limit, offset int) []*entities.Relationship {
	if offset > 0 {
		if offset >= len(list) {
			return []*entities.Relationship{}
		}
		list = list[offset:]
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit < len(list) {
		list = list[:limit]
	}
	return list
}

// Versions lists the full history of one entity or relationship in
// ascending version order. The owner need not exist anymore; history
// survives deletion.
func (s *SearchService) Versions(ctx context.Context, ownerID string) ([]*entities.Version, error) {
	kind, err := identifiers.Kind(ownerID)
	if err != nil {
		return nil, err
	}
	if kind != identifiers.GrammarEntity && kind != identifiers.GrammarRelationship {
		return nil, fmt.Errorf("%w: %s has no version history", entities.ErrInvalidRecord, ownerID)
	}
	return s.read.ListVersionsByOwner(ctx, ownerID)
}

// SearchEntitiesByNamePrefix is a convenience wrapper for interactive
// lookups that treats the query as a bare name fragment.
func (s *SearchService) SearchEntitiesByNamePrefix(ctx context.Context, fragment string, limit int) ([]*entities.Entity, error) {
	return s.SearchEntities(ctx, EntityQuery{NameQuery: strings.TrimSpace(fragment), Limit: limit})
}
