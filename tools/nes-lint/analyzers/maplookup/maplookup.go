// Package maplookup detects repeated map lookups with the same key,
// where an if statement tests a lookup and its body repeats it instead
// of binding the value in the init clause.
package maplookup

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects repeated map lookups with the same key.
var Analyzer = &analysis.Analyzer{
	Name:     "maplookup",
	Doc:      "detects repeated map lookups with the same key",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.IfStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		ifStmt, ok := n.(*ast.IfStmt)
		if !ok {
			return
		}

		// An init clause already binds the lookup result.
		if ifStmt.Init != nil {
			return
		}

		condLookups := lookupsIn(ifStmt.Cond)
		if len(condLookups) == 0 {
			return
		}

		for _, stmt := range ifStmt.Body.List {
			for _, bodyLookup := range lookupsIn(stmt) {
				for _, condLookup := range condLookups {
					if sameLookup(condLookup, bodyLookup) {
						pass.Reportf(bodyLookup.Pos(),
							"repeated map lookup - bind the value with := in the if statement")
					}
				}
			}
		}
	})

	return nil, nil
}

func lookupsIn(node ast.Node) []*ast.IndexExpr {
	var lookups []*ast.IndexExpr
	ast.Inspect(node, func(n ast.Node) bool {
		if idx, ok := n.(*ast.IndexExpr); ok {
			lookups = append(lookups, idx)
		}
		return true
	})
	return lookups
}

func sameLookup(a, b *ast.IndexExpr) bool {
	return exprString(a.X) == exprString(b.X) &&
		exprString(a.Index) == exprString(b.Index)
}

func exprString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.IndexExpr:
		return exprString(e.X) + "[" + exprString(e.Index) + "]"
	default:
		return ""
	}
}
