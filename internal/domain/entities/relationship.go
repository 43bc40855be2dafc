package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/navayuwa/nes-core/internal/domain/identifiers"
)

// Relationship is a typed, directed edge between two entities. At most
// one relationship of a given type may exist between an ordered
// (source, target) pair: the identifier is computed from exactly those
// three fields.
type Relationship struct {
	SourceEntityID string           `json:"source_entity_id"`
	TargetEntityID string           `json:"target_entity_id"`
	Type           RelationshipType `json:"type"`
	StartDate      *Date            `json:"start_date,omitempty"`
	EndDate        *Date            `json:"end_date,omitempty"`
	Attributes     map[string]any   `json:"attributes,omitempty"`
	Attributions   []Attribution    `json:"attributions,omitempty"`
	CreatedAt      time.Time        `json:"created_at,omitzero"`
	VersionSummary *VersionSummary  `json:"version_summary,omitempty"`
}

// ID returns the computed relationship identifier.
func (r *Relationship) ID() string {
	return identifiers.BuildRelationshipID(r.SourceEntityID, r.TargetEntityID, string(r.Type))
}

// Validate checks that both endpoints are well-formed entity
// identifiers, the type token fits the grammar, and the dates are
// ordered when both are set.
func (r *Relationship) Validate() error {
	if _, err := identifiers.ValidateEntityID(r.SourceEntityID); err != nil {
		return fmt.Errorf("%w: source: %w", ErrInvalidRecord, err)
	}
	if _, err := identifiers.ValidateEntityID(r.TargetEntityID); err != nil {
		return fmt.Errorf("%w: target: %w", ErrInvalidRecord, err)
	}
	if !identifiers.IsValidRelationshipTypeToken(string(r.Type)) {
		return fmt.Errorf("%w: relationship type %q must be uppercase with underscores", ErrInvalidRecord, r.Type)
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(r.StartDate.Time) {
		return fmt.Errorf("%w: end_date precedes start_date", ErrInvalidRecord)
	}
	return nil
}

// ActiveOn reports whether the relationship was active on the given
// date: started on or before it, and not yet ended (or never ended).
func (r *Relationship) ActiveOn(d Date) bool {
	if r.StartDate == nil || r.StartDate.After(d.Time) {
		return false
	}
	return r.EndDate == nil || !r.EndDate.Before(d.Time)
}

// CurrentlyActive reports whether the relationship has no end date.
func (r *Relationship) CurrentlyActive() bool {
	return r.EndDate == nil
}

// relationshipAlias breaks marshalling recursion.
type relationshipAlias Relationship

type relationshipJSON struct {
	ID string `json:"id"`
	relationshipAlias
}

// MarshalJSON adds the computed id to the serialized relationship.
func (r Relationship) MarshalJSON() ([]byte, error) {
	return json.Marshal(relationshipJSON{ID: (&r).ID(), relationshipAlias: relationshipAlias(r)})
}

// UnmarshalJSON reads a relationship, ignoring any stored id.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	var wire relationshipJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = Relationship(wire.relationshipAlias)
	return nil
}
