// Package analyzers provides all custom static analyzers for nes-core.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/navayuwa/nes-core/tools/nes-lint/analyzers/maplookup"
	"github.com/navayuwa/nes-core/tools/nes-lint/analyzers/regexloop"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		maplookup.Analyzer,
		regexloop.Analyzer,
	}
}
