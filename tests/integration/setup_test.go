package integration

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/services"
	"github.com/navayuwa/nes-core/internal/infrastructure/recordstore/file"
	"github.com/navayuwa/nes-core/internal/infrastructure/recordstore/memcache"
)

var testActor = entities.Actor{Slug: "integration-job", Name: "Integration Job"}

func TestMain(m *testing.M) {
	// Skip if INTEGRATION_TEST is not set
	if os.Getenv("INTEGRATION_TEST") != "1" {
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// stack wires the full read/write path over a throwaway on-disk store.
type stack struct {
	root        string
	store       *file.Store
	cache       *memcache.Cache
	publication *services.PublicationService
	search      *services.SearchService
}

func newStack(t *testing.T) *stack {
	t.Helper()

	root := t.TempDir()
	store, err := file.NewStore(root)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := memcache.NewCache(store, log)
	if err := cache.Warm(t.Context()); err != nil {
		t.Fatalf("failed to warm cache: %v", err)
	}

	return &stack{
		root:        root,
		store:       store,
		cache:       cache,
		publication: services.NewPublicationService(store, cache, log),
		search:      services.NewSearchService(cache),
	}
}

func district(slug, nameEN, nameNE string) *entities.Entity {
	return &entities.Entity{
		Slug:    slug,
		Type:    entities.TypeLocation,
		SubType: entities.SubTypeDistrict,
		Names: []entities.Name{{
			Kind: entities.NameKindPrimary,
			Variants: map[string]entities.NameParts{
				"en": {Full: nameEN},
				"ne": {Full: nameNE},
			},
		}},
	}
}
