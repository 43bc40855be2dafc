package entities

// EntityType is the top-level classification of an entity.
type EntityType string

const (
	TypePerson       EntityType = "person"
	TypeOrganization EntityType = "organization"
	TypeLocation     EntityType = "location"
	TypeProject      EntityType = "project"
)

// EntityTypes lists every known entity type.
var EntityTypes = []EntityType{TypePerson, TypeOrganization, TypeLocation, TypeProject}

// Organization sub-types.
const (
	SubTypePoliticalParty = "political_party"
	SubTypeGovernmentBody = "government_body"
)

// Location sub-types, following Nepal's administrative hierarchy.
const (
	SubTypeProvince            = "province"
	SubTypeDistrict            = "district"
	SubTypeMetropolitanCity    = "metropolitan_city"
	SubTypeSubMetropolitanCity = "sub_metropolitan_city"
	SubTypeMunicipality        = "municipality"
	SubTypeRuralMunicipality   = "rural_municipality"
	SubTypeWard                = "ward"
)

// Project sub-types.
const (
	SubTypeDevelopmentProject = "development_project"
)

// subTypeVocabulary maps each entity type to its allowed sub-types.
// An empty sub-type is always allowed.
var subTypeVocabulary = map[EntityType]map[string]bool{
	TypePerson: {},
	TypeOrganization: {
		SubTypePoliticalParty: true,
		SubTypeGovernmentBody: true,
	},
	TypeLocation: {
		SubTypeProvince:            true,
		SubTypeDistrict:            true,
		SubTypeMetropolitanCity:    true,
		SubTypeSubMetropolitanCity: true,
		SubTypeMunicipality:        true,
		SubTypeRuralMunicipality:   true,
		SubTypeWard:                true,
	},
	TypeProject: {
		SubTypeDevelopmentProject: true,
	},
}

// IsValidEntityType reports whether t is a known entity type.
func IsValidEntityType(t EntityType) bool {
	_, ok := subTypeVocabulary[t]
	return ok
}

// IsValidSubType reports whether subType is allowed for entity type t.
// The empty sub-type is allowed for every type.
func IsValidSubType(t EntityType, subType string) bool {
	if subType == "" {
		return true
	}
	allowed, ok := subTypeVocabulary[t]
	return ok && allowed[subType]
}

// SubTypesFor returns the allowed sub-types for an entity type.
func SubTypesFor(t EntityType) []string {
	allowed := subTypeVocabulary[t]
	out := make([]string, 0, len(allowed))
	for s := range allowed {
		out = append(out, s)
	}
	return out
}

// RelationshipType is the typed label of a directed edge between two
// entities.
type RelationshipType string

const (
	RelAffiliatedWith RelationshipType = "AFFILIATED_WITH"
	RelEmployedBy     RelationshipType = "EMPLOYED_BY"
	RelMemberOf       RelationshipType = "MEMBER_OF"
	RelParentOf       RelationshipType = "PARENT_OF"
	RelChildOf        RelationshipType = "CHILD_OF"
	RelSupervises     RelationshipType = "SUPERVISES"
	RelLocatedIn      RelationshipType = "LOCATED_IN"
	RelFundedBy       RelationshipType = "FUNDED_BY"
	RelImplementedBy  RelationshipType = "IMPLEMENTED_BY"
)
