package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/services"
)

func newEntitiesCmd() *cobra.Command {
	var searchQuery string
	var entityType string
	var subType string
	var tags []string
	var limit int

	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List entities in the store",
		Long: `List published entities, optionally filtered.

Examples:
  nes entities
  nes entities --search "congress"
  nes entities --type location --sub-type district
  nes entities --tag political --tag national`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntities(cmd, services.EntityQuery{
				NameQuery: searchQuery,
				Type:      entities.EntityType(entityType),
				SubType:   subType,
				Tags:      tags,
				Limit:     limit,
			})
		},
	}

	cmd.Flags().StringVar(&searchQuery, "search", "", "Search entities by name")
	cmd.Flags().StringVar(&entityType, "type", "", "Filter by entity type")
	cmd.Flags().StringVar(&subType, "sub-type", "", "Filter by sub-type")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Require a tag (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of entities to return")

	return cmd
}

func runEntities(cmd *cobra.Command, query services.EntityQuery) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		found, err := d.Search.SearchEntities(ctx, query)
		if err != nil {
			return fmt.Errorf("listing entities: %w", err)
		}

		if len(found) == 0 {
			fmt.Println("No entities found.")
			return nil
		}

		fmt.Printf("Entities (%d):\n\n", len(found))
		for _, e := range found {
			fmt.Printf("  %-70s %s\n", e.ID(), primaryNameOf(e))
		}
		return nil
	})
}

// primaryNameOf returns the English primary name of an entity, falling
// back to any primary variant.
func primaryNameOf(e *entities.Entity) string {
	for _, n := range e.Names {
		if n.Kind != entities.NameKindPrimary {
			continue
		}
		if parts, ok := n.Variants["en"]; ok {
			return parts.Full
		}
		for _, parts := range n.Variants {
			return parts.Full
		}
	}
	return ""
}
