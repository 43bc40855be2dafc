package identifiers

import "fmt"

// Grammar names, used in ParseError to report which identifier grammar
// was violated.
const (
	GrammarEntity       = "entity"
	GrammarRelationship = "relationship"
	GrammarVersion      = "version"
	GrammarActor        = "actor"
)

// Structural defects a malformed identifier can exhibit.
const (
	DefectWrongPrefix      = "wrong prefix"
	DefectSegmentCount     = "wrong segment count"
	DefectBadVersionNumber = "non-numeric version number"
	DefectUnknownOwnerKind = "owner is not an entity or relationship ID"
	DefectBadSlug          = "invalid slug"
	DefectBadType          = "invalid type token"
)

// ParseError reports a malformed identifier. It names the grammar that
// was violated and the structural defect, so callers never have to match
// on message text.
type ParseError struct {
	Grammar string
	Defect  string
	Input   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s ID format: %s: %q", e.Grammar, e.Defect, e.Input)
}
