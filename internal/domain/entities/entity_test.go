package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func primaryName(en, ne string) Name {
	variants := map[string]NameParts{"en": {Full: en}}
	if ne != "" {
		variants["ne"] = NameParts{Full: ne}
	}
	return Name{Kind: NameKindPrimary, Variants: variants}
}

func validEntity() *Entity {
	return &Entity{
		Slug:    "nepali-congress",
		Type:    TypeOrganization,
		SubType: SubTypePoliticalParty,
		Names:   []Name{primaryName("Nepali Congress", "नेपाली कांग्रेस")},
		Tags:    []string{"political", "national"},
	}
}

func TestEntity_ID(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		want   string
	}{
		{
			name:   "with sub type",
			entity: Entity{Slug: "nepali-congress", Type: TypeOrganization, SubType: SubTypePoliticalParty},
			want:   "entity:organization/political_party/nepali-congress",
		},
		{
			name:   "without sub type",
			entity: Entity{Slug: "ram-chandra-poudel", Type: TypePerson},
			want:   "entity:person/ram-chandra-poudel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entity.ID())
		})
	}
}

func TestEntity_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Entity)
		wantErr bool
	}{
		{
			name:   "valid entity",
			mutate: func(e *Entity) {},
		},
		{
			name:    "slug too short",
			mutate:  func(e *Entity) { e.Slug = "ab" },
			wantErr: true,
		},
		{
			name:    "slug with uppercase",
			mutate:  func(e *Entity) { e.Slug = "Nepali-Congress" },
			wantErr: true,
		},
		{
			name:    "unknown type",
			mutate:  func(e *Entity) { e.Type = "party" },
			wantErr: true,
		},
		{
			name:    "sub type from wrong vocabulary",
			mutate:  func(e *Entity) { e.SubType = SubTypeProvince },
			wantErr: true,
		},
		{
			name:   "empty sub type is allowed",
			mutate: func(e *Entity) { e.SubType = "" },
		},
		{
			name:    "no primary name",
			mutate:  func(e *Entity) { e.Names = []Name{{Kind: NameKindAlias, Variants: map[string]NameParts{"en": {Full: "NC"}}}} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntity()
			tt.mutate(e)
			err := e.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRecord)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEntity_JSONRoundTrip(t *testing.T) {
	e := validEntity()
	e.Attributes = map[string]any{"founded": "1950-04-09"}
	e.CreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	data, err := json.Marshal(e)
	require.NoError(t, err)

	// The computed id is present on the wire.
	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "entity:organization/political_party/nepali-congress", wire["id"])

	var decoded Entity
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, e.Slug, decoded.Slug)
	assert.Equal(t, e.Type, decoded.Type)
	assert.Equal(t, e.SubType, decoded.SubType)
	assert.Equal(t, e.Tags, decoded.Tags)
	assert.Equal(t, e.Names, decoded.Names)
	assert.Equal(t, e.ID(), decoded.ID())
}

func TestEntity_UnmarshalIgnoresStoredID(t *testing.T) {
	// A stale stored id never wins over the computed one.
	data := []byte(`{
		"id": "entity:organization/stale-slug",
		"slug": "nepali-congress",
		"type": "organization",
		"sub_type": "political_party",
		"names": [{"kind": "PRIMARY", "en": {"full": "Nepali Congress"}}],
		"created_at": "2024-03-01T12:00:00Z"
	}`)

	var e Entity
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Equal(t, "entity:organization/political_party/nepali-congress", e.ID())
}

func TestEntity_HasTags(t *testing.T) {
	e := validEntity()

	assert.True(t, e.HasTags(nil))
	assert.True(t, e.HasTags([]string{}))
	assert.True(t, e.HasTags([]string{"political"}))
	assert.True(t, e.HasTags([]string{"political", "national"}))
	assert.False(t, e.HasTags([]string{"political", "regional"}))
	assert.False(t, e.HasTags([]string{"regional"}))
}

func TestEntity_MatchesName(t *testing.T) {
	e := validEntity()

	assert.True(t, e.MatchesName("congress"))
	assert.True(t, e.MatchesName("CONGRESS"))
	assert.True(t, e.MatchesName("कांग्रेस"))
	assert.False(t, e.MatchesName("uml"))
}

func TestName_WireShape(t *testing.T) {
	n := primaryName("Nepali Congress", "नेपाली कांग्रेस")

	data, err := json.Marshal(n)
	require.NoError(t, err)

	// Languages are flattened to top-level keys next to "kind".
	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Contains(t, wire, "kind")
	assert.Contains(t, wire, "en")
	assert.Contains(t, wire, "ne")
	assert.NotContains(t, wire, "variants")

	var decoded Name
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, n, decoded)
	assert.Equal(t, []string{"en", "ne"}, decoded.Languages())
}

func TestIsValidSubType(t *testing.T) {
	assert.True(t, IsValidSubType(TypeOrganization, SubTypePoliticalParty))
	assert.True(t, IsValidSubType(TypeLocation, SubTypeRuralMunicipality))
	assert.True(t, IsValidSubType(TypePerson, ""))
	assert.False(t, IsValidSubType(TypePerson, "politician"))
	assert.False(t, IsValidSubType(TypeOrganization, SubTypeWard))
	assert.False(t, IsValidSubType("party", SubTypePoliticalParty))
}

func TestTextToSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Nepali Congress", "nepali-congress"},
		{"punctuation collapses", "Kathmandu, Metropolitan City!", "kathmandu-metropolitan-city"},
		{"leading and trailing noise", "  --CPN (UML)--  ", "cpn-uml"},
		{"digits survive", "Province 1", "province-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TextToSlug(tt.in))
		})
	}
}

func TestContainsDevanagari(t *testing.T) {
	assert.True(t, ContainsDevanagari("नेपाली कांग्रेस"))
	assert.True(t, ContainsDevanagari("mixed नेपाल text"))
	assert.False(t, ContainsDevanagari("nepali congress"))
	assert.False(t, ContainsDevanagari(""))
}
