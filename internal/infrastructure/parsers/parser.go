// Package parsers provides parsers for importing location records from
// various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// LocationRow represents one administrative unit parsed from an
// external dataset before validation.
type LocationRow struct {
	// Kind is the administrative level: province, district,
	// metropolitan_city, sub_metropolitan_city, municipality,
	// rural_municipality or ward.
	Kind string `json:"kind"`
	// NameEN is the English name of the unit.
	NameEN string `json:"name_en"`
	// NameNE is the Nepali name, optional in the source data.
	NameNE string `json:"name_ne,omitempty"`
	// Parent is the English name of the containing unit, empty for
	// provinces.
	Parent string `json:"parent,omitempty"`
	// Website is the unit's official site, optional.
	Website string `json:"website,omitempty"`
	// LineNum is the row's position in the source file (set by parser).
	LineNum int `json:"-"`
}

// Parser defines the interface for parsing location rows from various
// formats.
type Parser interface {
	Parse(r io.Reader) ([]LocationRow, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
