// Package mocks provides in-memory implementations of the domain ports
// for tests.
package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/ports"
)

// RecordStore is a mock implementation of ports.RecordStore. Set Err to
// make every operation fail, or ErrOn to fail only the named operation
// ("PutEntity", "PutVersion", ...).
type RecordStore struct {
	mu sync.Mutex

	Entities      map[string]*entities.Entity
	Relationships map[string]*entities.Relationship
	Versions      map[string]*entities.Version
	Actors        map[string]*entities.Actor

	Err   error
	ErrOn map[string]error
}

// NewRecordStore creates an empty mock RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		Entities:      make(map[string]*entities.Entity),
		Relationships: make(map[string]*entities.Relationship),
		Versions:      make(map[string]*entities.Version),
		Actors:        make(map[string]*entities.Actor),
	}
}

func (m *RecordStore) fail(op string) error {
	if m.Err != nil {
		return m.Err
	}
	if err, ok := m.ErrOn[op]; ok {
		return err
	}
	return nil
}

// Close releases the store's resources.
func (m *RecordStore) Close() error {
	return nil
}

// PutEntity writes an entity, creating or replacing it.
func (m *RecordStore) PutEntity(_ context.Context, entity *entities.Entity) error {
	if err := m.fail("PutEntity"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *entity
	m.Entities[entity.ID()] = &clone
	return nil
}

// GetEntity reads an entity by id.
func (m *RecordStore) GetEntity(_ context.Context, id string) (*entities.Entity, error) {
	if err := m.fail("GetEntity"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Entities[id]
	if !ok {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

// DeleteEntity removes an entity by id.
func (m *RecordStore) DeleteEntity(_ context.Context, id string) (bool, error) {
	if err := m.fail("DeleteEntity"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Entities[id]
	delete(m.Entities, id)
	return ok, nil
}

// ListEntities lists entities matching the filter, ordered by id.
func (m *RecordStore) ListEntities(_ context.Context, filter ports.EntityFilter) ([]*entities.Entity, error) {
	if err := m.fail("ListEntities"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.Entities))
	for id, e := range m.Entities {
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.SubType != "" && e.SubType != filter.SubType {
			continue
		}
		if !e.HasTags(filter.Tags) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ids = paginate(ids, filter.Limit, filter.Offset)
	result := make([]*entities.Entity, 0, len(ids))
	for _, id := range ids {
		clone := *m.Entities[id]
		result = append(result, &clone)
	}
	return result, nil
}

// CountEntities counts entities matching the filter.
func (m *RecordStore) CountEntities(_ context.Context, filter ports.EntityFilter) (int, error) {
	if err := m.fail("CountEntities"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.Entities {
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.SubType != "" && e.SubType != filter.SubType {
			continue
		}
		if !e.HasTags(filter.Tags) {
			continue
		}
		count++
	}
	return count, nil
}

// PutRelationship writes a relationship, creating or replacing it.
func (m *RecordStore) PutRelationship(_ context.Context, rel *entities.Relationship) error {
	if err := m.fail("PutRelationship"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *rel
	m.Relationships[rel.ID()] = &clone
	return nil
}

// GetRelationship reads a relationship by id.
func (m *RecordStore) GetRelationship(_ context.Context, id string) (*entities.Relationship, error) {
	if err := m.fail("GetRelationship"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Relationships[id]
	if !ok {
		return nil, nil
	}
	clone := *r
	return &clone, nil
}

// DeleteRelationship removes a relationship by id.
func (m *RecordStore) DeleteRelationship(_ context.Context, id string) (bool, error) {
	if err := m.fail("DeleteRelationship"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Relationships[id]
	delete(m.Relationships, id)
	return ok, nil
}

// ListRelationships lists every relationship, ordered by id.
func (m *RecordStore) ListRelationships(_ context.Context) ([]*entities.Relationship, error) {
	if err := m.fail("ListRelationships"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedRelationships(func(*entities.Relationship) bool { return true }), nil
}

// ListRelationshipsByEntity lists relationships touching an entity.
func (m *RecordStore) ListRelationshipsByEntity(_ context.Context, entityID string) ([]*entities.Relationship, error) {
	if err := m.fail("ListRelationshipsByEntity"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedRelationships(func(r *entities.Relationship) bool {
		return r.SourceEntityID == entityID || r.TargetEntityID == entityID
	}), nil
}

func (m *RecordStore) sortedRelationships(keep func(*entities.Relationship) bool) []*entities.Relationship {
	ids := make([]string, 0, len(m.Relationships))
	for id, r := range m.Relationships {
		if keep(r) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	result := make([]*entities.Relationship, 0, len(ids))
	for _, id := range ids {
		clone := *m.Relationships[id]
		result = append(result, &clone)
	}
	return result
}

// PutVersion writes a version record.
func (m *RecordStore) PutVersion(_ context.Context, version *entities.Version) error {
	if err := m.fail("PutVersion"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *version
	m.Versions[version.ID()] = &clone
	return nil
}

// GetVersion reads a version by id.
func (m *RecordStore) GetVersion(_ context.Context, id string) (*entities.Version, error) {
	if err := m.fail("GetVersion"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Versions[id]
	if !ok {
		return nil, nil
	}
	clone := *v
	return &clone, nil
}

// ListVersionsByOwner lists versions in ascending version-number order.
func (m *RecordStore) ListVersionsByOwner(_ context.Context, ownerID string) ([]*entities.Version, error) {
	if err := m.fail("ListVersionsByOwner"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entities.Version
	for _, v := range m.Versions {
		if v.OwnerID == ownerID {
			clone := *v
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].VersionNumber < result[j].VersionNumber
	})
	return result, nil
}

// DeleteVersionsByOwner removes every version of one owner.
func (m *RecordStore) DeleteVersionsByOwner(_ context.Context, ownerID string) (int, error) {
	if err := m.fail("DeleteVersionsByOwner"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, v := range m.Versions {
		if v.OwnerID == ownerID {
			delete(m.Versions, id)
			removed++
		}
	}
	return removed, nil
}

// PutActor writes an actor, creating or replacing it.
func (m *RecordStore) PutActor(_ context.Context, actor *entities.Actor) error {
	if err := m.fail("PutActor"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *actor
	m.Actors[actor.ID()] = &clone
	return nil
}

// GetActor reads an actor by id.
func (m *RecordStore) GetActor(_ context.Context, id string) (*entities.Actor, error) {
	if err := m.fail("GetActor"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Actors[id]
	if !ok {
		return nil, nil
	}
	clone := *a
	return &clone, nil
}

// DeleteActor removes an actor by id.
func (m *RecordStore) DeleteActor(_ context.Context, id string) (bool, error) {
	if err := m.fail("DeleteActor"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Actors[id]
	delete(m.Actors, id)
	return ok, nil
}

func paginate(ids []string, limit, offset int) []string {
	if offset > 0 {
		if offset >= len(ids) {
			return nil
		}
		ids = ids[offset:]
	}
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}

// Translator is a mock implementation of ports.Translator that returns
// canned translations keyed by source text.
type Translator struct {
	Translations map[string]string
	Err          error
	Calls        []string
}

// Translate returns the canned translation for text, or the text
// unchanged when no canned value exists.
func (m *Translator) Translate(_ context.Context, text, _, _ string) (string, error) {
	m.Calls = append(m.Calls, text)
	if m.Err != nil {
		return "", m.Err
	}
	if out, ok := m.Translations[strings.TrimSpace(text)]; ok {
		return out, nil
	}
	return text, nil
}
