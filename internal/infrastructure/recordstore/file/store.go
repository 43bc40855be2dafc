// Package file provides a file-backed implementation of the RecordStore
// interface. Every record is one JSON document whose path is derived
// deterministically from the record identifier, so the store needs no
// index and a directory listing is a record listing.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/identifiers"
	"github.com/navayuwa/nes-core/internal/domain/ports"
)

const (
	entitiesDir      = "entities"
	relationshipsDir = "relationships"
	versionsDir      = "versions"
	actorsDir        = "actors"

	fileMode = 0o644
	dirMode  = 0o755
)

// Store implements ports.RecordStore on a directory of JSON files.
// Writes go through a temp file and rename so readers never observe a
// partially written record.
type Store struct {
	root string
	mu   sync.RWMutex
}

// NewStore opens the store rooted at dir, creating the record
// directories if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("record store directory is required")
	}
	for _, sub := range []string{entitiesDir, relationshipsDir, versionsDir, actorsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), dirMode); err != nil {
			return nil, fmt.Errorf("creating record directory: %w", err)
		}
	}
	return &Store{root: dir}, nil
}

// Root returns the directory the store reads and writes.
func (s *Store) Root() string {
	return s.root
}

// Close releases the store's resources.
func (s *Store) Close() error {
	return nil
}

// encodeID maps an identifier to a filename. Slashes and colons are the
// only identifier characters that are unsafe in a path component, and
// neither "~" nor "=" can appear in an identifier, so the mapping is
// injective.
func encodeID(id string) string {
	id = strings.ReplaceAll(id, "/", "~")
	return strings.ReplaceAll(id, ":", "=")
}

// decodeID reverses encodeID.
func decodeID(name string) string {
	name = strings.ReplaceAll(name, "~", "/")
	return strings.ReplaceAll(name, "=", ":")
}

func (s *Store) recordPath(dir, id string) string {
	return filepath.Join(s.root, dir, encodeID(id)+".json")
}

func (s *Store) versionPath(ownerID string, number int) string {
	return filepath.Join(s.root, versionsDir, encodeID(ownerID), strconv.Itoa(number)+".json")
}

// writeRecord serializes v and atomically replaces the file at path.
func (s *Store) writeRecord(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("creating record directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing record: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting record mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing record: %w", err)
	}
	return nil
}

// readRecord decodes the file at path into v. Returns (false, nil) when
// the file does not exist.
func (s *Store) readRecord(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: decoding %s: %w", entities.ErrInvalidRecord, filepath.Base(path), err)
	}
	return true, nil
}

func (s *Store) deleteRecord(path string) (bool, error) {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("removing record: %w", err)
	}
	return true, nil
}

// listIDs returns the decoded identifiers of every record file in dir,
// sorted lexicographically.
func (s *Store) listIDs(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(filepath.Join(s.root, dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	ids := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, decodeID(strings.TrimSuffix(name, ".json")))
	}
	sort.Strings(ids)
	return ids, nil
}

// PutEntity writes an entity, creating or replacing it.
func (s *Store) PutEntity(ctx context.Context, entity *entities.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRecord(s.recordPath(entitiesDir, entity.ID()), entity)
}

// GetEntity reads an entity by id. Returns (nil, nil) when absent.
func (s *Store) GetEntity(ctx context.Context, id string) (*entities.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entity entities.Entity
	ok, err := s.readRecord(s.recordPath(entitiesDir, id), &entity)
	if err != nil || !ok {
		return nil, err
	}
	return &entity, nil
}

// DeleteEntity removes an entity by id.
func (s *Store) DeleteEntity(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRecord(s.recordPath(entitiesDir, id))
}

// ListEntities lists entities matching the filter, ordered by id.
func (s *Store) ListEntities(ctx context.Context, filter ports.EntityFilter) ([]*entities.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err := s.listIDs(entitiesDir)
	if err != nil {
		return nil, err
	}

	// Type and sub-type are embedded in the identifier, so that part of
	// the filter runs before any file is opened.
	matched := ids[:0]
	for _, id := range ids {
		if matchesFilter(id, filter) {
			matched = append(matched, id)
		}
	}

	// Tag filtering needs the record contents, so on that path paging
	// happens after the reads.
	if len(filter.Tags) == 0 {
		matched = page(matched, filter.Limit, filter.Offset)
	}

	result := make([]*entities.Entity, 0, len(matched))
	for _, id := range matched {
		var entity entities.Entity
		ok, err := s.readRecord(s.recordPath(entitiesDir, id), &entity)
		if err != nil {
			return nil, err
		}
		if ok && entity.HasTags(filter.Tags) {
			result = append(result, &entity)
		}
	}
	if len(filter.Tags) > 0 {
		result = page(result, filter.Limit, filter.Offset)
	}
	return result, nil
}

// CountEntities counts entities matching the filter.
func (s *Store) CountEntities(ctx context.Context, filter ports.EntityFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err := s.listIDs(entitiesDir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, id := range ids {
		if !matchesFilter(id, filter) {
			continue
		}
		if len(filter.Tags) == 0 {
			count++
			continue
		}
		var entity entities.Entity
		ok, err := s.readRecord(s.recordPath(entitiesDir, id), &entity)
		if err != nil {
			return 0, err
		}
		if ok && entity.HasTags(filter.Tags) {
			count++
		}
	}
	return count, nil
}

func matchesFilter(id string, filter ports.EntityFilter) bool {
	if filter.Type == "" && filter.SubType == "" {
		return true
	}
	c, err := identifiers.BreakEntityID(id)
	if err != nil {
		return false
	}
	if filter.Type != "" && c.Type != string(filter.Type) {
		return false
	}
	if filter.SubType != "" && c.SubType != filter.SubType {
		return false
	}
	return true
}

func page[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return nil
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// PutRelationship writes a relationship, creating or replacing it.
func (s *Store) PutRelationship(ctx context.Context, rel *entities.Relationship) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRecord(s.recordPath(relationshipsDir, rel.ID()), rel)
}

// GetRelationship reads a relationship by id. Returns (nil, nil) when
// absent.
func (s *Store) GetRelationship(ctx context.Context, id string) (*entities.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rel entities.Relationship
	ok, err := s.readRecord(s.recordPath(relationshipsDir, id), &rel)
	if err != nil || !ok {
		return nil, err
	}
	return &rel, nil
}

// DeleteRelationship removes a relationship by id.
func (s *Store) DeleteRelationship(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRecord(s.recordPath(relationshipsDir, id))
}

// ListRelationships lists every relationship, ordered by id.
func (s *Store) ListRelationships(ctx context.Context) ([]*entities.Relationship, error) {
	return s.listRelationships(ctx, func(*entities.Relationship) bool { return true })
}

// ListRelationshipsByEntity lists relationships where the entity is the
// source or the target.
func (s *Store) ListRelationshipsByEntity(ctx context.Context, entityID string) ([]*entities.Relationship, error) {
	return s.listRelationships(ctx, func(r *entities.Relationship) bool {
		return r.SourceEntityID == entityID || r.TargetEntityID == entityID
	})
}

func (s *Store) listRelationships(ctx context.Context, keep func(*entities.Relationship) bool) ([]*entities.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err := s.listIDs(relationshipsDir)
	if err != nil {
		return nil, err
	}

	var result []*entities.Relationship
	for _, id := range ids {
		var rel entities.Relationship
		ok, err := s.readRecord(s.recordPath(relationshipsDir, id), &rel)
		if err != nil {
			return nil, err
		}
		if ok && keep(&rel) {
			result = append(result, &rel)
		}
	}
	return result, nil
}

// PutVersion writes a version record under the owner's version
// directory, named by version number.
func (s *Store) PutVersion(ctx context.Context, version *entities.Version) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRecord(s.versionPath(version.OwnerID, version.VersionNumber), version)
}

// GetVersion reads a version by id. Returns (nil, nil) when absent.
func (s *Store) GetVersion(ctx context.Context, id string) (*entities.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := identifiers.BreakVersionID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var version entities.Version
	ok, err := s.readRecord(s.versionPath(c.OwnerID, c.VersionNumber), &version)
	if err != nil || !ok {
		return nil, err
	}
	return &version, nil
}

// ListVersionsByOwner lists the versions of one owner in ascending
// version-number order.
func (s *Store) ListVersionsByOwner(ctx context.Context, ownerID string) ([]*entities.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.root, versionsDir, encodeID(ownerID))
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}

	numbers := make([]int, 0, len(dirEntries))
	for _, e := range dirEntries {
		name := strings.TrimSuffix(e.Name(), ".json")
		if e.IsDir() || name == e.Name() {
			continue
		}
		n, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	result := make([]*entities.Version, 0, len(numbers))
	for _, n := range numbers {
		var version entities.Version
		ok, err := s.readRecord(s.versionPath(ownerID, n), &version)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, &version)
		}
	}
	return result, nil
}

// DeleteVersionsByOwner removes every version of one owner.
func (s *Store) DeleteVersionsByOwner(ctx context.Context, ownerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, versionsDir, encodeID(ownerID))
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("listing versions: %w", err)
	}

	removed := 0
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, fmt.Errorf("removing version: %w", err)
		}
		removed++
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return removed, fmt.Errorf("removing version directory: %w", err)
	}
	return removed, nil
}

// PutActor writes an actor, creating or replacing it.
func (s *Store) PutActor(ctx context.Context, actor *entities.Actor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRecord(s.recordPath(actorsDir, actor.ID()), actor)
}

// GetActor reads an actor by id. Returns (nil, nil) when absent.
func (s *Store) GetActor(ctx context.Context, id string) (*entities.Actor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var actor entities.Actor
	ok, err := s.readRecord(s.recordPath(actorsDir, id), &actor)
	if err != nil || !ok {
		return nil, err
	}
	return &actor, nil
}

// DeleteActor removes an actor by id.
func (s *Store) DeleteActor(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRecord(s.recordPath(actorsDir, id))
}
