// Package services implements the domain operations of the knowledge
// graph: publishing records with version history, rolling back failed
// batches, and searching the published graph.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/ports"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// keyedMutex serializes work per record identifier. Two writers to the
// same record queue up; writers to different records proceed in
// parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*recordLock
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*recordLock)}
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &recordLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// PublicationService is the only writer of the record store. Every
// accepted mutation writes the record and a new version in lockstep,
// serialized per record so version numbers never collide.
type PublicationService struct {
	store ports.RecordStore
	cache ports.Refresher
	log   *slog.Logger
	locks *keyedMutex
}

// NewPublicationService creates a PublicationService. cache may be nil
// when no read cache is attached.
func NewPublicationService(store ports.RecordStore, cache ports.Refresher, log *slog.Logger) *PublicationService {
	if log == nil {
		log = slog.Default()
	}
	return &PublicationService{
		store: store,
		cache: cache,
		log:   log,
		locks: newKeyedMutex(),
	}
}

// refresh tells the read cache a record changed. A stale cache is a
// read-side concern, so refresh failures are logged and not returned.
func (s *PublicationService) refresh(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Refresh(ctx, id); err != nil {
		s.log.Warn("cache refresh failed", "id", id, "error", err)
	}
}

// ensureActor stores the actor record if it is not already present.
func (s *PublicationService) ensureActor(ctx context.Context, actor entities.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	existing, err := s.store.GetActor(ctx, actor.ID())
	if err != nil {
		return fmt.Errorf("checking actor: %w", err)
	}
	if existing != nil {
		return nil
	}
	if err := s.store.PutActor(ctx, &actor); err != nil {
		return fmt.Errorf("storing actor: %w", err)
	}
	return nil
}

// nextVersion determines the next version number and previous snapshot
// for an owner.
func (s *PublicationService) nextVersion(ctx context.Context, ownerID string) (int, json.RawMessage, error) {
	versions, err := s.store.ListVersionsByOwner(ctx, ownerID)
	if err != nil {
		return 0, nil, fmt.Errorf("listing versions: %w", err)
	}
	if len(versions) == 0 {
		return 1, nil, nil
	}
	last := versions[len(versions)-1]
	return last.VersionNumber + 1, last.Snapshot, nil
}

// writeVersion records a mutation in the owner's history.
func (s *PublicationService) writeVersion(
	ctx context.Context,
	ownerID string,
	versionType entities.VersionType,
	number int,
	previous json.RawMessage,
	record any,
	actor entities.Actor,
	description string,
	at time.Time,
) (*entities.VersionSummary, error) {
	snapshot, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	version := &entities.Version{
		VersionSummary: entities.VersionSummary{
			OwnerID:           ownerID,
			Type:              versionType,
			VersionNumber:     number,
			Actor:             actor,
			ChangeDescription: description,
			CreatedAt:         at,
		},
		Snapshot: snapshot,
		Changes:  entities.DiffSnapshots(previous, snapshot),
	}
	if err := version.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.PutVersion(ctx, version); err != nil {
		return nil, fmt.Errorf("storing version: %w", err)
	}
	summary := version.Summary()
	return &summary, nil
}

// CreateEntity publishes a new entity at version 1. It fails with
// entities.ErrAlreadyExists when an entity with the same computed
// identifier is already stored.
func (s *PublicationService) CreateEntity(ctx context.Context, entity *entities.Entity, actor entities.Actor, description string) (*entities.Entity, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureActor(ctx, actor); err != nil {
		return nil, err
	}

	id := entity.ID()
	unlock := s.locks.lock(id)
	defer unlock()

	existing, err := s.store.GetEntity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checking entity: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrAlreadyExists, id)
	}

	now := timeNow().UTC()
	entity.CreatedAt = now

	number, previous, err := s.nextVersion(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.PutEntity(ctx, entity); err != nil {
		return nil, fmt.Errorf("storing entity: %w", err)
	}
	summary, err := s.writeVersion(ctx, id, entities.VersionTypeEntity, number, previous, entity, actor, description, now)
	if err != nil {
		// The record must not exist without its version. Undo the
		// entity write before reporting the failure.
		if _, derr := s.store.DeleteEntity(ctx, id); derr != nil {
			s.log.Error("rollback of entity write failed", "id", id, "error", derr)
		}
		return nil, err
	}
	entity.VersionSummary = summary

	// Re-write with the version summary attached so readers see it.
	if err := s.store.PutEntity(ctx, entity); err != nil {
		return nil, fmt.Errorf("storing entity: %w", err)
	}

	s.refresh(ctx, id)
	s.log.Info("entity created", "id", id, "actor", actor.Slug)
	return entity, nil
}

// UpdateEntity publishes a new revision of an existing entity. The
// slug, type and sub-type are identity and cannot change through an
// update.
func (s *PublicationService) UpdateEntity(ctx context.Context, entity *entities.Entity, actor entities.Actor, description string) (*entities.Entity, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureActor(ctx, actor); err != nil {
		return nil, err
	}

	id := entity.ID()
	unlock := s.locks.lock(id)
	defer unlock()

	existing, err := s.store.GetEntity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checking entity: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrNotFound, id)
	}

	entity.CreatedAt = existing.CreatedAt

	number, previous, err := s.nextVersion(ctx, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.writeVersion(ctx, id, entities.VersionTypeEntity, number, previous, entity, actor, description, timeNow().UTC())
	if err != nil {
		return nil, err
	}
	entity.VersionSummary = summary

	if err := s.store.PutEntity(ctx, entity); err != nil {
		return nil, fmt.Errorf("storing entity: %w", err)
	}

	s.refresh(ctx, id)
	s.log.Info("entity updated", "id", id, "version", number, "actor", actor.Slug)
	return entity, nil
}

// DeleteEntity removes an entity. Its version history is left in place;
// use PurgeVersions to remove it explicitly.
func (s *PublicationService) DeleteEntity(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	removed, err := s.store.DeleteEntity(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", entities.ErrNotFound, id)
	}

	s.refresh(ctx, id)
	s.log.Info("entity deleted", "id", id)
	return nil
}

// CreateRelationship publishes a new relationship at version 1. Both
// endpoint entities must already be stored.
func (s *PublicationService) CreateRelationship(ctx context.Context, rel *entities.Relationship, actor entities.Actor, description string) (*entities.Relationship, error) {
	if err := rel.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureActor(ctx, actor); err != nil {
		return nil, err
	}

	for _, endpoint := range []string{rel.SourceEntityID, rel.TargetEntityID} {
		e, err := s.store.GetEntity(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("checking endpoint: %w", err)
		}
		if e == nil {
			return nil, fmt.Errorf("%w: endpoint %s", entities.ErrNotFound, endpoint)
		}
	}

	id := rel.ID()
	unlock := s.locks.lock(id)
	defer unlock()

	existing, err := s.store.GetRelationship(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checking relationship: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrAlreadyExists, id)
	}

	now := timeNow().UTC()
	rel.CreatedAt = now

	number, previous, err := s.nextVersion(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.PutRelationship(ctx, rel); err != nil {
		return nil, fmt.Errorf("storing relationship: %w", err)
	}
	summary, err := s.writeVersion(ctx, id, entities.VersionTypeRelationship, number, previous, rel, actor, description, now)
	if err != nil {
		if _, derr := s.store.DeleteRelationship(ctx, id); derr != nil {
			s.log.Error("rollback of relationship write failed", "id", id, "error", derr)
		}
		return nil, err
	}
	rel.VersionSummary = summary

	if err := s.store.PutRelationship(ctx, rel); err != nil {
		return nil, fmt.Errorf("storing relationship: %w", err)
	}

	s.refresh(ctx, id)
	s.log.Info("relationship created", "id", id, "actor", actor.Slug)
	return rel, nil
}

// UpdateRelationship publishes a new revision of an existing
// relationship.
func (s *PublicationService) UpdateRelationship(ctx context.Context, rel *entities.Relationship, actor entities.Actor, description string) (*entities.Relationship, error) {
	if err := rel.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureActor(ctx, actor); err != nil {
		return nil, err
	}

	id := rel.ID()
	unlock := s.locks.lock(id)
	defer unlock()

	existing, err := s.store.GetRelationship(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checking relationship: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrNotFound, id)
	}

	rel.CreatedAt = existing.CreatedAt

	number, previous, err := s.nextVersion(ctx, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.writeVersion(ctx, id, entities.VersionTypeRelationship, number, previous, rel, actor, description, timeNow().UTC())
	if err != nil {
		return nil, err
	}
	rel.VersionSummary = summary

	if err := s.store.PutRelationship(ctx, rel); err != nil {
		return nil, fmt.Errorf("storing relationship: %w", err)
	}

	s.refresh(ctx, id)
	s.log.Info("relationship updated", "id", id, "version", number, "actor", actor.Slug)
	return rel, nil
}

// DeleteRelationship removes a relationship, leaving its version
// history in place.
func (s *PublicationService) DeleteRelationship(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	removed, err := s.store.DeleteRelationship(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", entities.ErrNotFound, id)
	}

	s.refresh(ctx, id)
	s.log.Info("relationship deleted", "id", id)
	return nil
}

// PurgeVersions removes the full version history of one record. This is
// explicit maintenance; no delete operation calls it implicitly.
func (s *PublicationService) PurgeVersions(ctx context.Context, ownerID string) (int, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	removed, err := s.store.DeleteVersionsByOwner(ctx, ownerID)
	if err != nil {
		return removed, fmt.Errorf("purging versions: %w", err)
	}
	s.log.Info("versions purged", "owner", ownerID, "removed", removed)
	return removed, nil
}
