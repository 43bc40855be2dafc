package identifiers

import "regexp"

// Token constraints shared by every identifier grammar. The slug is the
// human-chosen part of an identifier; types and sub-types come from a
// fixed vocabulary but must still fit the token pattern when embedded in
// an identifier string.
const (
	MinSlugLength = 3
	MaxSlugLength = 100
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	typePattern    = regexp.MustCompile(`^[a-z][a-z_]*$`)
	relTypePattern = regexp.MustCompile(`^[A-Z][A-Z_]*$`)
)

// IsValidSlug reports whether s is a well-formed slug: lowercase,
// hyphen-separated alphanumeric runs within the length bounds.
func IsValidSlug(s string) bool {
	return len(s) >= MinSlugLength && len(s) <= MaxSlugLength && slugPattern.MatchString(s)
}

// IsValidTypeToken reports whether s is a well-formed type or sub-type
// token (lowercase with underscores).
func IsValidTypeToken(s string) bool {
	return typePattern.MatchString(s)
}

// IsValidRelationshipTypeToken reports whether s is a well-formed
// relationship type token (uppercase with underscores).
func IsValidRelationshipTypeToken(s string) bool {
	return relTypePattern.MatchString(s)
}

// ValidateEntityID checks that id parses as an entity identifier and
// that its tokens are well formed. It returns id unchanged on success.
func ValidateEntityID(id string) (string, error) {
	c, err := BreakEntityID(id)
	if err != nil {
		return "", err
	}
	if !IsValidTypeToken(c.Type) || (c.SubType != "" && !IsValidTypeToken(c.SubType)) {
		return "", &ParseError{Grammar: GrammarEntity, Defect: DefectBadType, Input: id}
	}
	if !IsValidSlug(c.Slug) {
		return "", &ParseError{Grammar: GrammarEntity, Defect: DefectBadSlug, Input: id}
	}
	return id, nil
}

// IsValidEntityID reports whether id is a well-formed entity identifier.
func IsValidEntityID(id string) bool {
	_, err := ValidateEntityID(id)
	return err == nil
}

// ValidateRelationshipID checks that id parses as a relationship
// identifier with well-formed source, target and type tokens.
func ValidateRelationshipID(id string) (string, error) {
	c, err := BreakRelationshipID(id)
	if err != nil {
		return "", err
	}
	if _, err := ValidateEntityID(c.SourceEntityID); err != nil {
		return "", err
	}
	if _, err := ValidateEntityID(c.TargetEntityID); err != nil {
		return "", err
	}
	if !IsValidRelationshipTypeToken(c.Type) {
		return "", &ParseError{Grammar: GrammarRelationship, Defect: DefectBadType, Input: id}
	}
	return id, nil
}

// IsValidRelationshipID reports whether id is a well-formed relationship
// identifier.
func IsValidRelationshipID(id string) bool {
	_, err := ValidateRelationshipID(id)
	return err == nil
}

// ValidateVersionID checks that id parses as a version identifier whose
// owner is itself a valid entity or relationship identifier.
func ValidateVersionID(id string) (string, error) {
	c, err := BreakVersionID(id)
	if err != nil {
		return "", err
	}
	kind, err := Kind(c.OwnerID)
	if err != nil {
		return "", &ParseError{Grammar: GrammarVersion, Defect: DefectUnknownOwnerKind, Input: id}
	}
	switch kind {
	case GrammarEntity:
		_, err = ValidateEntityID(c.OwnerID)
	case GrammarRelationship:
		_, err = ValidateRelationshipID(c.OwnerID)
	default:
		return "", &ParseError{Grammar: GrammarVersion, Defect: DefectUnknownOwnerKind, Input: id}
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// IsValidVersionID reports whether id is a well-formed version identifier.
func IsValidVersionID(id string) bool {
	_, err := ValidateVersionID(id)
	return err == nil
}

// ValidateActorID checks that id parses as an actor identifier with a
// well-formed slug.
func ValidateActorID(id string) (string, error) {
	c, err := BreakActorID(id)
	if err != nil {
		return "", err
	}
	if !IsValidSlug(c.Slug) {
		return "", &ParseError{Grammar: GrammarActor, Defect: DefectBadSlug, Input: id}
	}
	return id, nil
}

// IsValidActorID reports whether id is a well-formed actor identifier.
func IsValidActorID(id string) bool {
	_, err := ValidateActorID(id)
	return err == nil
}
