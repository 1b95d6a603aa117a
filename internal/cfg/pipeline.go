package cfg

import (
	"github.com/lattice-lang/latticec/internal/ast"
	"github.com/lattice-lang/latticec/internal/symbols"
)

// BuildAndRefine runs the full five-stage pipeline spec.md §2 describes:
// the builder (which also performs alias-prefix injection as it finishes),
// then topological sort, dealias, and block-argument inference, strictly
// in that order.
func BuildAndRefine(ctx *symbols.Context, method *ast.MethodDef) *CFG {
	g := Build(ctx, method)
	fillInTopoSorts(g)
	Dealias(ctx, g)
	FillInBlockArguments(ctx, g)
	return g
}
