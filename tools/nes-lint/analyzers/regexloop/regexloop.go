// Package regexloop detects regex compilation inside loops. Listing
// and filtering code walks every stored record, so a compile per
// iteration multiplies with the store size.
package regexloop

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects regexp compile calls inside loop bodies.
var Analyzer = &analysis.Analyzer{
	Name:     "regexloop",
	Doc:      "detects regexp compile calls inside loops",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var compileFuncs = map[string]bool{
	"Compile":          true,
	"MustCompile":      true,
	"CompilePOSIX":     true,
	"MustCompilePOSIX": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		body := loopBody(n)
		if body == nil {
			return
		}
		ast.Inspect(body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			pkg, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			if pkg.Name == "regexp" && compileFuncs[sel.Sel.Name] {
				pass.Reportf(call.Pos(),
					"regexp.%s called inside loop - hoist the compile out of the loop",
					sel.Sel.Name)
			}
			return true
		})
	})

	return nil, nil
}

func loopBody(n ast.Node) *ast.BlockStmt {
	switch stmt := n.(type) {
	case *ast.RangeStmt:
		return stmt.Body
	case *ast.ForStmt:
		return stmt.Body
	}
	return nil
}
