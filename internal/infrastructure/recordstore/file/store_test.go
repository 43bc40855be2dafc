package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testEntity(slug string, entityType entities.EntityType, subType string) *entities.Entity {
	return &entities.Entity{
		Slug:    slug,
		Type:    entityType,
		SubType: subType,
		Names: []entities.Name{{
			Kind:     entities.NameKindPrimary,
			Variants: map[string]entities.NameParts{"en": {Full: slug}},
		}},
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_EntityLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := testEntity("nepali-congress", entities.TypeOrganization, entities.SubTypePoliticalParty)
	require.NoError(t, store.PutEntity(ctx, e))

	got, err := store.GetEntity(ctx, e.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.Slug, got.Slug)
	assert.Equal(t, e.Type, got.Type)
	assert.Equal(t, e.ID(), got.ID())

	removed, err := store.DeleteEntity(ctx, e.ID())
	require.NoError(t, err)
	assert.True(t, removed)

	got, err = store.GetEntity(ctx, e.ID())
	require.NoError(t, err)
	assert.Nil(t, got)

	removed, err = store.DeleteEntity(ctx, e.ID())
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_GetEntity_AbsentIsNilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetEntity(context.Background(), "entity:person/nobody-here")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_PathEncodingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rel := &entities.Relationship{
		SourceEntityID: "entity:person/ram-chandra-poudel",
		TargetEntityID: "entity:organization/political_party/nepali-congress",
		Type:           entities.RelMemberOf,
	}
	require.NoError(t, store.PutRelationship(ctx, rel))

	// The file name contains no path separators or colons.
	files, err := filepath.Glob(filepath.Join(store.Root(), relationshipsDir, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	base := filepath.Base(files[0])
	assert.NotContains(t, base, ":")
	assert.NotContains(t, base, "/")

	got, err := store.GetRelationship(ctx, rel.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rel.ID(), got.ID())
}

func TestStore_ListEntities_FilterAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []*entities.Entity{
		testEntity("koshi-province", entities.TypeLocation, entities.SubTypeProvince),
		testEntity("bagmati-province", entities.TypeLocation, entities.SubTypeProvince),
		testEntity("kathmandu", entities.TypeLocation, entities.SubTypeMetropolitanCity),
		testEntity("nepali-congress", entities.TypeOrganization, entities.SubTypePoliticalParty),
	}
	for _, e := range seed {
		require.NoError(t, store.PutEntity(ctx, e))
	}

	all, err := store.ListEntities(ctx, ports.EntityFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID(), all[i].ID())
	}

	locations, err := store.ListEntities(ctx, ports.EntityFilter{Type: entities.TypeLocation})
	require.NoError(t, err)
	assert.Len(t, locations, 3)

	provinces, err := store.ListEntities(ctx, ports.EntityFilter{
		Type:    entities.TypeLocation,
		SubType: entities.SubTypeProvince,
	})
	require.NoError(t, err)
	require.Len(t, provinces, 2)
	assert.Equal(t, "bagmati-province", provinces[0].Slug)
	assert.Equal(t, "koshi-province", provinces[1].Slug)

	count, err := store.CountEntities(ctx, ports.EntityFilter{Type: entities.TypeLocation})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStore_ListEntities_TagFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	congress := testEntity("nepali-congress", entities.TypeOrganization, entities.SubTypePoliticalParty)
	congress.Tags = []string{"political", "national"}
	uml := testEntity("cpn-uml", entities.TypeOrganization, entities.SubTypePoliticalParty)
	uml.Tags = []string{"political"}
	province := testEntity("bagmati-province", entities.TypeLocation, entities.SubTypeProvince)
	for _, e := range []*entities.Entity{congress, uml, province} {
		require.NoError(t, store.PutEntity(ctx, e))
	}

	political, err := store.ListEntities(ctx, ports.EntityFilter{Tags: []string{"political"}})
	require.NoError(t, err)
	require.Len(t, political, 2)
	assert.Equal(t, "cpn-uml", political[0].Slug)
	assert.Equal(t, "nepali-congress", political[1].Slug)

	// Every tag must match, not any.
	both, err := store.ListEntities(ctx, ports.EntityFilter{Tags: []string{"political", "national"}})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "nepali-congress", both[0].Slug)

	// Pagination applies after the tag filter.
	second, err := store.ListEntities(ctx, ports.EntityFilter{Tags: []string{"political"}, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "nepali-congress", second[0].Slug)

	count, err := store.CountEntities(ctx, ports.EntityFilter{Tags: []string{"political"}})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_ListEntities_PaginationIsContiguous(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, slug := range []string{"alpha-one", "bravo-two", "charlie-three", "delta-four", "echo-five"} {
		require.NoError(t, store.PutEntity(ctx, testEntity(slug, entities.TypePerson, "")))
	}

	var paged []string
	for offset := 0; ; offset += 2 {
		batch, err := store.ListEntities(ctx, ports.EntityFilter{Limit: 2, Offset: offset})
		require.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		for _, e := range batch {
			paged = append(paged, e.Slug)
		}
	}

	all, err := store.ListEntities(ctx, ports.EntityFilter{})
	require.NoError(t, err)
	var want []string
	for _, e := range all {
		want = append(want, e.Slug)
	}
	assert.Equal(t, want, paged)
}

func TestStore_Relationships_ByEntity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	member := &entities.Relationship{
		SourceEntityID: "entity:person/ram-chandra-poudel",
		TargetEntityID: "entity:organization/political_party/nepali-congress",
		Type:           entities.RelMemberOf,
	}
	located := &entities.Relationship{
		SourceEntityID: "entity:location/metropolitan_city/kathmandu",
		TargetEntityID: "entity:location/province/bagmati-province",
		Type:           entities.RelLocatedIn,
	}
	require.NoError(t, store.PutRelationship(ctx, member))
	require.NoError(t, store.PutRelationship(ctx, located))

	all, err := store.ListRelationships(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	touching, err := store.ListRelationshipsByEntity(ctx, "entity:person/ram-chandra-poudel")
	require.NoError(t, err)
	require.Len(t, touching, 1)
	assert.Equal(t, member.ID(), touching[0].ID())

	asTarget, err := store.ListRelationshipsByEntity(ctx, "entity:location/province/bagmati-province")
	require.NoError(t, err)
	require.Len(t, asTarget, 1)
	assert.Equal(t, located.ID(), asTarget[0].ID())
}

func TestStore_Versions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ownerID := "entity:organization/political_party/nepali-congress"

	// Written out of order; listed ascending.
	for _, n := range []int{3, 1, 2, 10} {
		v := &entities.Version{
			VersionSummary: entities.VersionSummary{
				OwnerID:       ownerID,
				Type:          entities.VersionTypeEntity,
				VersionNumber: n,
				Actor:         entities.Actor{Slug: "import-job"},
				CreatedAt:     time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC),
			},
			Snapshot: json.RawMessage(`{"slug":"nepali-congress"}`),
		}
		require.NoError(t, store.PutVersion(ctx, v))
	}

	versions, err := store.ListVersionsByOwner(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, versions, 4)
	// Numeric order, not lexicographic: 10 sorts after 3.
	assert.Equal(t, []int{1, 2, 3, 10}, []int{
		versions[0].VersionNumber, versions[1].VersionNumber,
		versions[2].VersionNumber, versions[3].VersionNumber,
	})

	got, err := store.GetVersion(ctx, "version:"+ownerID+":2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.VersionNumber)
	assert.JSONEq(t, `{"slug":"nepali-congress"}`, string(got.Snapshot))

	removed, err := store.DeleteVersionsByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	versions, err = store.ListVersionsByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestStore_VersionsSurviveEntityDeletion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := testEntity("nepali-congress", entities.TypeOrganization, entities.SubTypePoliticalParty)
	require.NoError(t, store.PutEntity(ctx, e))
	require.NoError(t, store.PutVersion(ctx, &entities.Version{
		VersionSummary: entities.VersionSummary{
			OwnerID:       e.ID(),
			Type:          entities.VersionTypeEntity,
			VersionNumber: 1,
		},
	}))

	_, err := store.DeleteEntity(ctx, e.ID())
	require.NoError(t, err)

	versions, err := store.ListVersionsByOwner(ctx, e.ID())
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestStore_Actors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := &entities.Actor{Slug: "import-job", Name: "Import Job"}
	require.NoError(t, store.PutActor(ctx, a))

	got, err := store.GetActor(ctx, a.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Import Job", got.Name)

	removed, err := store.DeleteActor(ctx, a.ID())
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestStore_MalformedFileIsInvalidRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := testEntity("nepali-congress", entities.TypeOrganization, entities.SubTypePoliticalParty)
	path := store.recordPath(entitiesDir, e.ID())
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := store.GetEntity(ctx, e.ID())
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInvalidRecord)
}

func TestStore_CancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.PutEntity(ctx, testEntity("nepali-congress", entities.TypeOrganization, ""))
	assert.ErrorIs(t, err, context.Canceled)
}
