// Package ports defines the interfaces between the domain services and
// the infrastructure adapters that back them.
package ports

import (
	"context"

	"github.com/navayuwa/nes-core/internal/domain/entities"
)

// EntityFilter narrows an entity listing. Zero values leave the
// corresponding dimension unconstrained.
type EntityFilter struct {
	Type    entities.EntityType
	SubType string
	// Tags, when non-empty, keeps only entities carrying every tag.
	Tags   []string
	Limit  int
	Offset int
}

// RecordStore is the persistence interface for the knowledge graph.
// Get operations return (nil, nil) when the record is absent; only
// operations that require an existing record return
// entities.ErrNotFound. Listings are ordered by record identifier so
// pagination is stable across calls.
type RecordStore interface {
	// Close releases the store's resources.
	Close() error

	// Entity operations

	// PutEntity writes an entity, creating or replacing it.
	PutEntity(ctx context.Context, entity *entities.Entity) error

	// GetEntity reads an entity by id. Returns (nil, nil) when absent.
	GetEntity(ctx context.Context, id string) (*entities.Entity, error)

	// DeleteEntity removes an entity by id. Returns whether a record
	// was removed.
	DeleteEntity(ctx context.Context, id string) (bool, error)

	// ListEntities lists entities matching the filter, ordered by id.
	ListEntities(ctx context.Context, filter EntityFilter) ([]*entities.Entity, error)

	// CountEntities counts entities matching the filter's type,
	// sub-type and tag constraints. Limit and Offset are ignored.
	CountEntities(ctx context.Context, filter EntityFilter) (int, error)

	// Relationship operations

	// PutRelationship writes a relationship, creating or replacing it.
	PutRelationship(ctx context.Context, rel *entities.Relationship) error

	// GetRelationship reads a relationship by id. Returns (nil, nil)
	// when absent.
	GetRelationship(ctx context.Context, id string) (*entities.Relationship, error)

	// DeleteRelationship removes a relationship by id. Returns whether
	// a record was removed.
	DeleteRelationship(ctx context.Context, id string) (bool, error)

	// ListRelationships lists every relationship, ordered by id.
	ListRelationships(ctx context.Context) ([]*entities.Relationship, error)

	// ListRelationshipsByEntity lists relationships where the entity is
	// the source or the target, ordered by id.
	ListRelationshipsByEntity(ctx context.Context, entityID string) ([]*entities.Relationship, error)

	// Version operations

	// PutVersion writes a version record. Versions are immutable once
	// written; callers assign the next free version number.
	PutVersion(ctx context.Context, version *entities.Version) error

	// GetVersion reads a version by id. Returns (nil, nil) when absent.
	GetVersion(ctx context.Context, id string) (*entities.Version, error)

	// ListVersionsByOwner lists the versions of one entity or
	// relationship in ascending version-number order.
	ListVersionsByOwner(ctx context.Context, ownerID string) ([]*entities.Version, error)

	// DeleteVersionsByOwner removes every version of one owner and
	// returns how many were removed. Record deletion never calls this;
	// it exists for explicit history maintenance.
	DeleteVersionsByOwner(ctx context.Context, ownerID string) (int, error)

	// Actor operations

	// PutActor writes an actor, creating or replacing it.
	PutActor(ctx context.Context, actor *entities.Actor) error

	// GetActor reads an actor by id. Returns (nil, nil) when absent.
	GetActor(ctx context.Context, id string) (*entities.Actor, error)

	// DeleteActor removes an actor by id. Returns whether a record was
	// removed.
	DeleteActor(ctx context.Context, id string) (bool, error)
}

// ReadStore is the read-only subset of RecordStore the search and query
// services depend on. A cache can satisfy it without taking writes.
type ReadStore interface {
	GetEntity(ctx context.Context, id string) (*entities.Entity, error)
	ListEntities(ctx context.Context, filter EntityFilter) ([]*entities.Entity, error)
	GetRelationship(ctx context.Context, id string) (*entities.Relationship, error)
	ListRelationships(ctx context.Context) ([]*entities.Relationship, error)
	ListRelationshipsByEntity(ctx context.Context, entityID string) ([]*entities.Relationship, error)
	ListVersionsByOwner(ctx context.Context, ownerID string) ([]*entities.Version, error)
}

// Refresher is implemented by read stores that cache records and need
// to be told when one changes. The publication service calls Refresh
// after every accepted mutation.
type Refresher interface {
	// Refresh re-reads one record from the backing store, or evicts it
	// if it no longer exists.
	Refresh(ctx context.Context, id string) error
}
