// nes-lint is a custom static analyzer for nes-core performance patterns.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/navayuwa/nes-core/tools/nes-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
