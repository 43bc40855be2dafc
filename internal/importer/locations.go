// Package importer loads external datasets into the knowledge graph as
// one atomic batch: if any row fails, everything the batch created is
// rolled back.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/ports"
	"github.com/navayuwa/nes-core/internal/domain/services"
	"github.com/navayuwa/nes-core/internal/infrastructure/parsers"
)

// ImportActorSlug identifies records written by the location importer.
const ImportActorSlug = "location-import"

// maxSlugRetries bounds how many suffixed slugs are tried when the
// natural slug is taken.
const maxSlugRetries = 5

var rowKinds = map[string]string{
	"province":              entities.SubTypeProvince,
	"district":              entities.SubTypeDistrict,
	"metropolitan_city":     entities.SubTypeMetropolitanCity,
	"sub_metropolitan_city": entities.SubTypeSubMetropolitanCity,
	"municipality":          entities.SubTypeMunicipality,
	"rural_municipality":    entities.SubTypeRuralMunicipality,
	"ward":                  entities.SubTypeWard,
}

// Report summarizes a finished import.
type Report struct {
	BatchID       string
	Entities      int
	Relationships int
	Translated    int
}

// Locations imports Nepal's administrative units. Each row becomes a
// location entity; rows with a parent also get a LOCATED_IN
// relationship to it.
type Locations struct {
	pub        *services.PublicationService
	store      ports.RecordStore
	translator ports.Translator
	log        *slog.Logger
}

// NewLocations creates a location importer. translator may be nil;
// rows without a Nepali name are then imported with English only.
func NewLocations(pub *services.PublicationService, store ports.RecordStore, translator ports.Translator, log *slog.Logger) *Locations {
	if log == nil {
		log = slog.Default()
	}
	return &Locations{pub: pub, store: store, translator: translator, log: log}
}

// Import loads all rows as one batch. Parents must appear before the
// rows that reference them. On any failure the batch is rolled back and
// the first error returned.
func (l *Locations) Import(ctx context.Context, rows []parsers.LocationRow) (*Report, error) {
	actor := entities.Actor{Slug: ImportActorSlug, Name: "Location Import"}
	comp := services.NewCompensationLog(l.store, l.log)
	report := &Report{BatchID: comp.BatchID}

	existingActor, err := l.store.GetActor(ctx, actor.ID())
	if err != nil {
		return nil, fmt.Errorf("checking import actor: %w", err)
	}
	if existingActor == nil {
		// First import on this store; undo the actor too on rollback.
		comp.RecordActor(actor.ID())
	}

	// Parent lookups go by English name, the join key of the datasets.
	byName := make(map[string]string, len(rows))

	for _, row := range rows {
		entity, err := l.buildEntity(ctx, row, report)
		if err != nil {
			comp.Rollback(ctx)
			return nil, fmt.Errorf("row %d (%s): %w", row.LineNum, row.NameEN, err)
		}

		created, err := l.createWithSlugRetry(ctx, entity, actor, row)
		if err != nil {
			comp.Rollback(ctx)
			return nil, fmt.Errorf("row %d (%s): %w", row.LineNum, row.NameEN, err)
		}
		comp.RecordEntity(created.ID())
		byName[row.NameEN] = created.ID()
		report.Entities++

		if row.Parent == "" {
			continue
		}
		parentID, err := l.resolveParent(ctx, byName, row.Parent)
		if err != nil {
			comp.Rollback(ctx)
			return nil, fmt.Errorf("row %d (%s): %w", row.LineNum, row.NameEN, err)
		}

		rel := &entities.Relationship{
			SourceEntityID: created.ID(),
			TargetEntityID: parentID,
			Type:           entities.RelLocatedIn,
		}
		createdRel, err := l.pub.CreateRelationship(ctx, rel, actor, fmt.Sprintf("imported from batch %s", comp.BatchID))
		if err != nil {
			comp.Rollback(ctx)
			return nil, fmt.Errorf("row %d (%s): linking to %s: %w", row.LineNum, row.NameEN, row.Parent, err)
		}
		comp.RecordRelationship(createdRel.ID())
		report.Relationships++
	}

	comp.Discard()
	l.log.Info("location import finished",
		"batch", report.BatchID,
		"entities", report.Entities,
		"relationships", report.Relationships,
		"translated", report.Translated)
	return report, nil
}

// buildEntity converts one row into a location entity, translating the
// Nepali name when the dataset lacks it.
func (l *Locations) buildEntity(ctx context.Context, row parsers.LocationRow, report *Report) (*entities.Entity, error) {
	subType, ok := rowKinds[row.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown location kind %q", row.Kind)
	}
	if row.NameEN == "" {
		return nil, errors.New("missing name_en")
	}
	if entities.ContainsDevanagari(row.NameEN) {
		return nil, fmt.Errorf("name_en %q contains Devanagari, columns are likely swapped", row.NameEN)
	}
	if row.Website != "" && entities.ContainsDevanagari(row.Website) {
		return nil, fmt.Errorf("website %q contains Devanagari", row.Website)
	}

	variants := map[string]entities.NameParts{
		"en": {Full: row.NameEN},
	}
	switch {
	case row.NameNE != "":
		variants["ne"] = entities.NameParts{Full: row.NameNE}
	case l.translator != nil:
		translated, err := l.translator.Translate(ctx, row.NameEN, "en", "ne")
		if err != nil {
			return nil, fmt.Errorf("translating name: %w", err)
		}
		if translated != "" && translated != row.NameEN {
			variants["ne"] = entities.NameParts{Full: translated}
			report.Translated++
		}
	}

	entity := &entities.Entity{
		Slug:    entities.TextToSlug(row.NameEN),
		Type:    entities.TypeLocation,
		SubType: subType,
		Names:   []entities.Name{{Kind: entities.NameKindPrimary, Variants: variants}},
	}
	if row.Website != "" {
		entity.Contacts = []entities.ContactInfo{{Type: "website", Value: row.Website}}
	}
	return entity, nil
}

// createWithSlugRetry publishes the entity, suffixing the slug with
// -2, -3, ... when another unit already claimed it. Nepal reuses
// municipality names across districts, so collisions are expected.
func (l *Locations) createWithSlugRetry(ctx context.Context, entity *entities.Entity, actor entities.Actor, row parsers.LocationRow) (*entities.Entity, error) {
	base := entity.Slug
	for attempt := 1; attempt <= maxSlugRetries; attempt++ {
		if attempt > 1 {
			entity.Slug = fmt.Sprintf("%s-%d", base, attempt)
		}
		created, err := l.pub.CreateEntity(ctx, entity, actor, fmt.Sprintf("imported %s", row.Kind))
		if err == nil {
			if attempt > 1 {
				l.log.Debug("slug collision resolved", "name", row.NameEN, "slug", entity.Slug)
			}
			return created, nil
		}
		if !errors.Is(err, entities.ErrAlreadyExists) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: no free slug for %q after %d attempts", entities.ErrAlreadyExists, base, maxSlugRetries)
}

// resolveParent finds the parent entity, preferring units created in
// this batch and falling back to a store lookup by slug.
func (l *Locations) resolveParent(ctx context.Context, byName map[string]string, parent string) (string, error) {
	if id, ok := byName[parent]; ok {
		return id, nil
	}

	slug := entities.TextToSlug(parent)
	for _, subType := range rowKinds {
		candidate := &entities.Entity{Slug: slug, Type: entities.TypeLocation, SubType: subType}
		existing, err := l.store.GetEntity(ctx, candidate.ID())
		if err != nil {
			return "", fmt.Errorf("looking up parent %q: %w", parent, err)
		}
		if existing != nil {
			return existing.ID(), nil
		}
	}
	return "", fmt.Errorf("%w: parent %q", entities.ErrNotFound, parent)
}
