// Package identifiers builds and parses the structured string identifiers
// used throughout the service. Four grammars exist:
//
//	entity:{type}[/{sub_type}]/{slug}
//	relationship:{source-path}:{target-path}:{TYPE}
//	version:{entity-or-relationship-id}:{version_number}
//	actor:{slug}
//
// Building and breaking are inverse operations: for every valid component
// tuple, Break*(Build*(components)) returns the same components.
package identifiers

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	entityPrefix       = "entity:"
	relationshipPrefix = "relationship:"
	versionPrefix      = "version:"
	actorPrefix        = "actor:"
)

// EntityIDComponents are the parts of an entity identifier.
// SubType is empty when the entity has no sub-type.
type EntityIDComponents struct {
	Type    string
	SubType string
	Slug    string
}

// RelationshipIDComponents are the parts of a relationship identifier.
// Source and Target carry the full "entity:"-prefixed entity identifiers.
type RelationshipIDComponents struct {
	SourceEntityID string
	TargetEntityID string
	Type           string
}

// VersionIDComponents are the parts of a version identifier. OwnerID is
// the full entity or relationship identifier the version belongs to.
type VersionIDComponents struct {
	OwnerID       string
	VersionNumber int
}

// ActorIDComponents are the parts of an actor identifier.
type ActorIDComponents struct {
	Slug string
}

// BuildEntityID builds an entity identifier from its components.
// subType may be empty.
func BuildEntityID(entityType, subType, slug string) string {
	if subType == "" {
		return entityPrefix + entityType + "/" + slug
	}
	return entityPrefix + entityType + "/" + subType + "/" + slug
}

// BreakEntityID parses an entity identifier into its components.
func BreakEntityID(id string) (EntityIDComponents, error) {
	rest, ok := strings.CutPrefix(id, entityPrefix)
	if !ok {
		return EntityIDComponents{}, &ParseError{Grammar: GrammarEntity, Defect: DefectWrongPrefix, Input: id}
	}

	parts := strings.Split(rest, "/")
	switch len(parts) {
	case 2:
		return EntityIDComponents{Type: parts[0], Slug: parts[1]}, nil
	case 3:
		return EntityIDComponents{Type: parts[0], SubType: parts[1], Slug: parts[2]}, nil
	default:
		return EntityIDComponents{}, &ParseError{Grammar: GrammarEntity, Defect: DefectSegmentCount, Input: id}
	}
}

// BuildRelationshipID builds a relationship identifier. The source and
// target entity identifiers are accepted with or without the "entity:"
// prefix; the prefix is stripped in the built identifier.
func BuildRelationshipID(sourceEntityID, targetEntityID, relType string) string {
	source := strings.TrimPrefix(sourceEntityID, entityPrefix)
	target := strings.TrimPrefix(targetEntityID, entityPrefix)
	return relationshipPrefix + source + ":" + target + ":" + relType
}

// BreakRelationshipID parses a relationship identifier. The returned
// source and target are full "entity:"-prefixed entity identifiers.
func BreakRelationshipID(id string) (RelationshipIDComponents, error) {
	rest, ok := strings.CutPrefix(id, relationshipPrefix)
	if !ok {
		return RelationshipIDComponents{}, &ParseError{Grammar: GrammarRelationship, Defect: DefectWrongPrefix, Input: id}
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return RelationshipIDComponents{}, &ParseError{Grammar: GrammarRelationship, Defect: DefectSegmentCount, Input: id}
	}

	for _, path := range parts[:2] {
		segments := strings.Split(path, "/")
		if len(segments) < 2 || len(segments) > 3 {
			return RelationshipIDComponents{}, &ParseError{Grammar: GrammarRelationship, Defect: DefectSegmentCount, Input: id}
		}
	}

	return RelationshipIDComponents{
		SourceEntityID: entityPrefix + parts[0],
		TargetEntityID: entityPrefix + parts[1],
		Type:           parts[2],
	}, nil
}

// BuildVersionID builds a version identifier for the given owner
// (an entity or relationship identifier) and version number.
func BuildVersionID(ownerID string, versionNumber int) string {
	return versionPrefix + ownerID + ":" + strconv.Itoa(versionNumber)
}

// BreakVersionID parses a version identifier. The embedded owner may be a
// relationship identifier, which itself contains colons; the parser first
// validates the owner discriminator (entity or relationship) and then
// splits the trailing version number off the end.
func BreakVersionID(id string) (VersionIDComponents, error) {
	rest, ok := strings.CutPrefix(id, versionPrefix)
	if !ok {
		return VersionIDComponents{}, &ParseError{Grammar: GrammarVersion, Defect: DefectWrongPrefix, Input: id}
	}

	disc, _, ok := strings.Cut(rest, ":")
	if !ok {
		return VersionIDComponents{}, &ParseError{Grammar: GrammarVersion, Defect: DefectSegmentCount, Input: id}
	}
	if disc != GrammarEntity && disc != GrammarRelationship {
		return VersionIDComponents{}, &ParseError{Grammar: GrammarVersion, Defect: DefectUnknownOwnerKind, Input: id}
	}

	cut := strings.LastIndex(rest, ":")
	ownerID := rest[:cut]
	if ownerID == disc {
		// The only colon is the discriminator's; no version number trails.
		return VersionIDComponents{}, &ParseError{Grammar: GrammarVersion, Defect: DefectSegmentCount, Input: id}
	}

	number, err := strconv.Atoi(rest[cut+1:])
	if err != nil {
		return VersionIDComponents{}, &ParseError{Grammar: GrammarVersion, Defect: DefectBadVersionNumber, Input: id}
	}

	return VersionIDComponents{OwnerID: ownerID, VersionNumber: number}, nil
}

// BuildActorID builds an actor identifier from a slug.
func BuildActorID(slug string) string {
	return actorPrefix + slug
}

// BreakActorID parses an actor identifier.
func BreakActorID(id string) (ActorIDComponents, error) {
	slug, ok := strings.CutPrefix(id, actorPrefix)
	if !ok {
		return ActorIDComponents{}, &ParseError{Grammar: GrammarActor, Defect: DefectWrongPrefix, Input: id}
	}
	if strings.ContainsAny(slug, ":/") {
		return ActorIDComponents{}, &ParseError{Grammar: GrammarActor, Defect: DefectSegmentCount, Input: id}
	}
	return ActorIDComponents{Slug: slug}, nil
}

// Kind reports which grammar an identifier belongs to based on its
// prefix, without validating the rest of the identifier.
func Kind(id string) (string, error) {
	switch {
	case strings.HasPrefix(id, entityPrefix):
		return GrammarEntity, nil
	case strings.HasPrefix(id, relationshipPrefix):
		return GrammarRelationship, nil
	case strings.HasPrefix(id, versionPrefix):
		return GrammarVersion, nil
	case strings.HasPrefix(id, actorPrefix):
		return GrammarActor, nil
	default:
		return "", fmt.Errorf("unrecognized identifier prefix: %q", id)
	}
}
