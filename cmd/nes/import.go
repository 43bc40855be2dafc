package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/navayuwa/nes-core/internal/domain/ports"
	"github.com/navayuwa/nes-core/internal/importer"
	"github.com/navayuwa/nes-core/internal/infrastructure/parsers"
)

func newImportCmd() *cobra.Command {
	var format string
	var translateNames bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a location dataset",
		Long: `Import Nepal's administrative units from a JSON or CSV dataset.

Each row becomes a location entity; rows with a parent also get a
LOCATED_IN relationship. The import is one batch: if any row fails,
everything the batch created is rolled back.

With --translate, rows missing a Nepali name are translated via the
configured translator (requires an API key).

Examples:
  nes import provinces.json
  nes import wards.csv --translate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], format, translateNames)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Input format: json or csv (default: by extension)")
	cmd.Flags().BoolVar(&translateNames, "translate", false, "Translate missing Nepali names")

	return cmd
}

func runImport(cmd *cobra.Command, path, format string, translateNames bool) error {
	ctx := cmd.Context()

	var parser parsers.Parser
	if format != "" {
		parser = parsers.ForFormat(format)
	} else {
		parser = parsers.ForFile(path)
	}
	if parser == nil {
		return fmt.Errorf("unsupported format for %s (use --format json|csv)", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	rows, err := parser.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing dataset: %w", err)
	}
	if len(rows) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	return withDeps(func(d *Deps) error {
		imp := importer.NewLocations(d.Publication, d.Store, importTranslator(d, translateNames), d.Log)

		report, err := imp.Import(ctx, rows)
		if err != nil {
			return fmt.Errorf("import failed and was rolled back: %w", err)
		}

		fmt.Printf("Imported %d entities and %d relationships (batch %s).\n",
			report.Entities, report.Relationships, report.BatchID)
		if report.Translated > 0 {
			fmt.Printf("Translated %d missing Nepali names.\n", report.Translated)
		}
		return nil
	})
}

func importTranslator(d *Deps, enabled bool) ports.Translator {
	if !enabled {
		return nil
	}
	tr := d.translator()
	if tr == nil {
		d.Log.Warn("translation requested but no translator is configured")
	}
	return tr
}
