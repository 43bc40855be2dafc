package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions <record-id>",
		Short: "Show the version history of a record",
		Long: `Show the full version history of an entity or relationship.

History survives deletion of the record itself, so this also works for
identifiers that no longer resolve.

Examples:
  nes versions entity:organization/political_party/nepali-congress
  nes versions relationship:person/a-b:organization/c-d:MEMBER_OF`,
		Args: cobra.ExactArgs(1),
		RunE: runVersions,
	}

	return cmd
}

func runVersions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ownerID := args[0]

	return withDeps(func(d *Deps) error {
		versions, err := d.Search.Versions(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("listing versions: %w", err)
		}

		if len(versions) == 0 {
			fmt.Println("No versions found.")
			return nil
		}

		fmt.Printf("Versions of %s (%d):\n\n", ownerID, len(versions))
		for _, v := range versions {
			fmt.Printf("  v%-4d %s  %-20s %s\n",
				v.VersionNumber,
				v.CreatedAt.Format("2006-01-02 15:04:05"),
				v.Actor.Slug,
				v.ChangeDescription)
		}
		return nil
	})
}

func newPurgeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge-versions <record-id>",
		Short: "Delete the version history of a record",
		Long: `Delete every stored version of an entity or relationship.

This is irreversible maintenance, intended for records imported by
mistake or histories that must be removed. The record itself is not
touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(cmd, args[0], yes)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func runPurge(cmd *cobra.Command, ownerID string, yes bool) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if !yes {
			fmt.Printf("Delete all versions of %s? [y/N]: ", ownerID)
			var answer string
			fmt.Scanln(&answer)
			if answer != "y" && answer != "Y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		removed, err := d.Publication.PurgeVersions(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("purging versions: %w", err)
		}
		fmt.Printf("Removed %d version(s).\n", removed)
		return nil
	})
}
