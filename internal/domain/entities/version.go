package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/navayuwa/nes-core/internal/domain/identifiers"
)

// VersionType discriminates what kind of record a version belongs to.
type VersionType string

const (
	VersionTypeEntity       VersionType = "ENTITY"
	VersionTypeRelationship VersionType = "RELATIONSHIP"
)

// VersionSummary is the header of a version: which record it belongs
// to, its sequence number, who made the change and why. Version numbers
// start at 1 and increase by exactly 1 per accepted mutation.
type VersionSummary struct {
	OwnerID           string      `json:"entity_or_relationship_id"`
	Type              VersionType `json:"type"`
	VersionNumber     int         `json:"version_number"`
	Actor             Actor       `json:"actor"`
	ChangeDescription string      `json:"change_description"`
	CreatedAt         time.Time   `json:"created_at"`
}

// ID returns the computed version identifier.
func (v *VersionSummary) ID() string {
	return identifiers.BuildVersionID(v.OwnerID, v.VersionNumber)
}

// Validate checks the version invariants before persistence.
func (v *VersionSummary) Validate() error {
	if v.Type != VersionTypeEntity && v.Type != VersionTypeRelationship {
		return fmt.Errorf("%w: unknown version type %q", ErrInvalidRecord, v.Type)
	}
	if v.VersionNumber < 1 {
		return fmt.Errorf("%w: version numbers start at 1, got %d", ErrInvalidRecord, v.VersionNumber)
	}
	if _, err := identifiers.Kind(v.OwnerID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// FieldChange records the before and after values of one top-level
// field in a best-effort diff.
type FieldChange struct {
	Old json.RawMessage `json:"old,omitempty"`
	New json.RawMessage `json:"new,omitempty"`
}

// Version is an immutable point-in-time record of a mutation. Snapshot
// holds the full serialized record state at this version; Changes is a
// best-effort top-level field diff against the previous version and may
// be empty. Versions survive deletion of the record they describe.
type Version struct {
	VersionSummary
	Snapshot json.RawMessage        `json:"snapshot,omitempty"`
	Changes  map[string]FieldChange `json:"changes,omitempty"`
}

// Summary returns the version header without snapshot or diff.
func (v *Version) Summary() VersionSummary {
	return v.VersionSummary
}

// DiffSnapshots compares two serialized records and returns the
// top-level fields whose values differ. Either argument may be nil
// (creation has no previous snapshot). The diff is best-effort: if
// either snapshot fails to decode, an empty map is returned.
func DiffSnapshots(previous, current json.RawMessage) map[string]FieldChange {
	changes := make(map[string]FieldChange)

	var prev, curr map[string]json.RawMessage
	if previous != nil {
		if err := json.Unmarshal(previous, &prev); err != nil {
			return changes
		}
	}
	if current != nil {
		if err := json.Unmarshal(current, &curr); err != nil {
			return changes
		}
	}

	for field, oldValue := range prev {
		newValue, ok := curr[field]
		switch {
		case !ok:
			changes[field] = FieldChange{Old: oldValue}
		case !bytes.Equal(compactJSON(oldValue), compactJSON(newValue)):
			changes[field] = FieldChange{Old: oldValue, New: newValue}
		}
	}
	for field, newValue := range curr {
		if _, ok := prev[field]; !ok {
			changes[field] = FieldChange{New: newValue}
		}
	}
	return changes
}

func compactJSON(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// versionSummaryAlias breaks marshalling recursion.
type versionSummaryAlias VersionSummary

type versionSummaryJSON struct {
	ID string `json:"id"`
	versionSummaryAlias
}

// MarshalJSON adds the computed id to the serialized summary.
func (v VersionSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(versionSummaryJSON{ID: (&v).ID(), versionSummaryAlias: versionSummaryAlias(v)})
}

// UnmarshalJSON reads a summary, ignoring any stored id.
func (v *VersionSummary) UnmarshalJSON(data []byte) error {
	var wire versionSummaryJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*v = VersionSummary(wire.versionSummaryAlias)
	return nil
}

type versionJSON struct {
	ID string `json:"id"`
	versionSummaryAlias
	Snapshot json.RawMessage        `json:"snapshot,omitempty"`
	Changes  map[string]FieldChange `json:"changes,omitempty"`
}

// MarshalJSON serializes the full version. Defined explicitly so the
// embedded summary's marshaller is not promoted, which would drop the
// snapshot and diff.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(versionJSON{
		ID:                  v.VersionSummary.ID(),
		versionSummaryAlias: versionSummaryAlias(v.VersionSummary),
		Snapshot:            v.Snapshot,
		Changes:             v.Changes,
	})
}

// UnmarshalJSON reads a full version, ignoring any stored id.
func (v *Version) UnmarshalJSON(data []byte) error {
	var wire versionJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	v.VersionSummary = VersionSummary(wire.versionSummaryAlias)
	v.Snapshot = wire.Snapshot
	v.Changes = wire.Changes
	return nil
}
