package cfg

import (
	"github.com/lattice-lang/latticec/internal/ast"
	"github.com/lattice-lang/latticec/internal/source"
	"github.com/lattice-lang/latticec/internal/symbols"
)

func loc() source.Loc { return source.Loc{} }

// newTestMethod mints a method symbol with the given formal parameter
// names already resolved to local-variable symbols (standing in for a
// namer phase that ran before the builder ever sees the AST), then hands
// those parameter symbols to build so the caller can reference them while
// constructing the body.
func newTestMethod(ctx *symbols.Context, name string, paramNames []string, build func(params []symbols.Sym) ast.Node) *ast.MethodDef {
	method := ctx.NewMethodSymbol(name, symbols.Sym{}, loc(), nil)
	params := make([]symbols.Sym, len(paramNames))
	for i, n := range paramNames {
		params[i] = ctx.NewLocalVariable(n, method, loc())
	}
	ctx.Info(method).Arguments = params
	return &ast.MethodDef{Symbol: method, Name: name, Body: build(params), Where: loc()}
}

func ident(s symbols.Sym) *ast.Ident { return &ast.Ident{Symbol: s} }

func intLit(v int64) *ast.IntLit { return &ast.IntLit{Value: v} }
