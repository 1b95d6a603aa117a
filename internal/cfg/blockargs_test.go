package cfg

import (
	"testing"

	"github.com/lattice-lang/latticec/internal/ast"
	"github.com/lattice-lang/latticec/internal/symbols"
)

// S5 (cross-block read): def m(c); if c then x = 1 else x = 2 end; x end.
// x is written down each arm of the branch and read only after the merge,
// so it must show up as exactly the merge block's formal parameter list.
func TestS5CrossBlockReadBecomesAMergeBlockArgument(t *testing.T) {
	ctx := symbols.NewContext()
	var x symbols.Sym
	md := newTestMethod(ctx, "m", []string{"c"}, func(params []symbols.Sym) ast.Node {
		c := params[0]
		x = ctx.NewLocalVariable("x", symbols.Sym{}, loc())
		return &ast.InsSeq{
			Stats: []ast.Node{
				&ast.If{
					Cond: ident(c),
					Then: &ast.Assign{Lhs: x, Rhs: intLit(1)},
					Else: &ast.Assign{Lhs: x, Rhs: intLit(2)},
				},
			},
			Expr: ident(x),
		}
	})

	g := BuildAndRefine(ctx, md)

	entry := g.Entry()
	thenBlock := entry.Then()
	merge := thenBlock.Then()

	if len(merge.Args) != 1 || merge.Args[0] != x {
		t.Fatalf("merge.Args = %v, want exactly [x]", merge.Args)
	}
	if x.Exists() && ctx.Info(x).MinLoops != 0 {
		t.Fatalf("x.MinLoops = %d, want 0 (both arms live at loop depth 0)", ctx.Info(x).MinLoops)
	}

	// entry itself must not carry x as an argument: nothing precedes it.
	if len(entry.Args) != 0 {
		t.Fatalf("entry.Args = %v, want none", entry.Args)
	}
}

// Invariant 4/6: a symbol read and written only within a single block never
// becomes any block's formal argument, and a binding whose value is never
// read and has no side effect is dropped entirely.
func TestSingleBlockLocalsNeverEscapeAndDeadStoresAreDropped(t *testing.T) {
	ctx := symbols.NewContext()
	md := newTestMethod(ctx, "n", []string{"x"}, func(params []symbols.Sym) ast.Node {
		x := params[0]
		unused := ctx.NewLocalVariable("unused", symbols.Sym{}, loc())
		return &ast.InsSeq{
			Stats: []ast.Node{&ast.Assign{Lhs: unused, Rhs: intLit(99)}},
			Expr:  ident(x),
		}
	})

	g := BuildAndRefine(ctx, md)

	for _, b := range g.BasicBlocks {
		for _, a := range b.Args {
			if ctx.Info(a).Name == "unused" {
				t.Fatalf("block%d.Args contains 'unused', which never escapes its defining block", b.ID)
			}
		}
	}

	entry := g.Entry()
	for _, bind := range entry.Exprs {
		if ctx.Info(bind.Bind).Name == "unused" {
			t.Fatalf("entry still has a binding for 'unused' after dead-store elimination")
		}
	}
}

// Invariant 5: a symbol whose minLoops the builder pre-set to -1 (an
// alias-prefix local, per global2Local) is left untouched by minLoops
// lowering.
func TestAliasLocalsAreExemptFromMinLoopsLowering(t *testing.T) {
	ctx := symbols.NewContext()
	nonLocal := ctx.NewNonLocal("$global", symbols.Sym{}, loc())
	md := newTestMethod(ctx, "o", nil, func(params []symbols.Sym) ast.Node {
		return ident(nonLocal)
	})

	g := BuildAndRefine(ctx, md)

	// global2Local must have lazily minted an AliasTemp local for nonLocal
	// and injected it as entry's first binding, left at the -1 sentinel
	// regardless of which blocks read or wrote it.
	entry := g.Entry()
	if len(entry.Exprs) == 0 {
		t.Fatalf("expected an injected alias-prefix binding in entry")
	}
	aliasBind := entry.Exprs[0]
	if _, ok := aliasBind.Value.(Alias); !ok {
		t.Fatalf("entry.Exprs[0] = %T, want Alias (the injected prefix)", aliasBind.Value)
	}
	if got := ctx.Info(aliasBind.Bind).MinLoops; got != -1 {
		t.Fatalf("alias local's MinLoops = %d, want -1", got)
	}
}

// Invariant 7: UB1/UB2 are both sound over-approximations, so their
// intersection (a block's final Args) is always a subset of every symbol
// live anywhere in the graph; in particular a block can never be assigned
// an argument it neither reads nor could have received from a predecessor.
func TestBlockArgsAreBoundedByReadsAndWrites(t *testing.T) {
	ctx := symbols.NewContext()
	md := newTestMethod(ctx, "h", nil, func(params []symbols.Sym) ast.Node {
		x := ctx.NewLocalVariable("x", symbols.Sym{}, loc())
		return &ast.While{
			Cond: &ast.BoolLit{Value: true},
			Body: &ast.Assign{Lhs: x, Rhs: intLit(1)},
		}
	})

	g := BuildAndRefine(ctx, md)

	allKnown := symSet{}
	for _, b := range g.BasicBlocks {
		for _, bind := range b.Exprs {
			allKnown[bind.Bind] = true
		}
	}

	for _, b := range g.BasicBlocks {
		for _, a := range b.Args {
			if !allKnown[a] {
				t.Fatalf("block%d.Args contains %v, which is bound nowhere in the graph", b.ID, a)
			}
		}
	}
}
