// Package entities defines the domain model of the knowledge graph:
// entities, relationships, version history and actors, plus the shared
// value types they are built from. Record identifiers are computed from
// other fields and never stored, so two records can only collide on id
// by colliding on the fields the id is derived from.
package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/navayuwa/nes-core/internal/domain/identifiers"
)

// Entity is a node in the knowledge graph: a person, organization,
// location or development project.
type Entity struct {
	Slug             string               `json:"slug"`
	Type             EntityType           `json:"type"`
	SubType          string               `json:"sub_type,omitempty"`
	Names            []Name               `json:"names"`
	Attributes       map[string]any       `json:"attributes,omitempty"`
	Tags             []string             `json:"tags,omitempty"`
	Identifiers      []ExternalIdentifier `json:"identifiers,omitempty"`
	Contacts         []ContactInfo        `json:"contacts,omitempty"`
	ShortDescription string               `json:"short_description,omitempty"`
	Description      string               `json:"description,omitempty"`
	Attributions     []Attribution        `json:"attributions,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	VersionSummary   *VersionSummary      `json:"version_summary,omitempty"`
}

// ID returns the computed entity identifier.
func (e *Entity) ID() string {
	return identifiers.BuildEntityID(string(e.Type), e.SubType, e.Slug)
}

// Validate checks the domain invariants before the entity is persisted:
// a well-formed slug, a known type and sub-type, and at least one
// PRIMARY name.
func (e *Entity) Validate() error {
	if !identifiers.IsValidSlug(e.Slug) {
		return fmt.Errorf("%w: slug %q must be %d-%d lowercase hyphenated characters",
			ErrInvalidRecord, e.Slug, identifiers.MinSlugLength, identifiers.MaxSlugLength)
	}
	if !IsValidEntityType(e.Type) {
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidRecord, e.Type)
	}
	if !IsValidSubType(e.Type, e.SubType) {
		return fmt.Errorf("%w: sub_type %q is not allowed for type %q", ErrInvalidRecord, e.SubType, e.Type)
	}
	if !e.hasPrimaryName() {
		return fmt.Errorf("%w: at least one name with kind PRIMARY is required", ErrInvalidRecord)
	}
	return nil
}

func (e *Entity) hasPrimaryName() bool {
	for _, n := range e.Names {
		if n.Kind == NameKindPrimary {
			return true
		}
	}
	return false
}

// HasTags reports whether the entity carries every one of the given
// tags. An empty tag list always matches.
func (e *Entity) HasTags(tags []string) bool {
	for _, want := range tags {
		found := false
		for _, tag := range e.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MatchesName reports whether any language variant of any name on the
// entity contains the query as a case-insensitive substring.
func (e *Entity) MatchesName(query string) bool {
	for _, n := range e.Names {
		if n.Matches(query) {
			return true
		}
	}
	return false
}

// entityAlias breaks marshalling recursion.
type entityAlias Entity

// entityJSON mirrors Entity with an added computed id for the wire form.
type entityJSON struct {
	ID string `json:"id"`
	entityAlias
}

// MarshalJSON adds the computed id to the serialized entity.
func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(entityJSON{ID: (&e).ID(), entityAlias: entityAlias(e)})
}

// UnmarshalJSON reads an entity, ignoring any stored id: the id is
// always recomputed from type, sub_type and slug.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var wire entityJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*e = Entity(wire.entityAlias)
	return nil
}
