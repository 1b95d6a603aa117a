package cfg

import (
	"testing"

	"github.com/lattice-lang/latticec/internal/ast"
	"github.com/lattice-lang/latticec/internal/symbols"
)

// S4 (alias fold): def k; a = 1; b = a; b end. Dealias is restricted to
// chains of synthetic temporaries (spec.md's lookup gates substitution on
// Sym.isSyntheticTemporary) so it never folds through a or b themselves —
// those are ordinary named locals, which in general may be reassigned
// elsewhere and so are not safe to treat as single-assignment. What it does
// collapse is reads of the synthetic copies the builder mints: the method's
// return temp is an Ident of b, so the final Return of that temp is
// substituted to read b directly, and the copies themselves (the return temp
// and the discarded statement values) are left unread, to fall out in the
// dead-store pass that follows.
func TestS4AliasFoldCollapsesSyntheticStatementCopies(t *testing.T) {
	ctx := symbols.NewContext()
	var a, b symbols.Sym
	md := newTestMethod(ctx, "k", nil, func(params []symbols.Sym) ast.Node {
		a = ctx.NewLocalVariable("a", symbols.Sym{}, loc())
		b = ctx.NewLocalVariable("b", symbols.Sym{}, loc())
		return &ast.InsSeq{
			Stats: []ast.Node{
				&ast.Assign{Lhs: a, Rhs: intLit(1)},
				&ast.Assign{Lhs: b, Rhs: ident(a)},
			},
			Expr: ident(b),
		}
	})

	g := Build(ctx, md)
	fillInTopoSorts(g)
	Dealias(ctx, g)

	entry := g.Entry()
	var sawA, sawB, sawReturn bool
	for _, bind := range entry.Exprs {
		switch v := bind.Value.(type) {
		case IntLit:
			if bind.Bind == a {
				sawA = true
			}
		case Ident:
			if v.What == b && bind.Bind != b {
				// A synthetic copy of b (a statement value or the return temp).
				sawB = true
			}
		case Return:
			sawReturn = true
			if v.What != b {
				t.Fatalf("Return reads %v, want the final alias target (b)", v.What)
			}
		}
	}
	if !sawA {
		t.Fatalf("a's own definition must survive dealias untouched")
	}
	if !sawB {
		t.Fatalf("expected at least one synthetic copy reading b directly")
	}
	if !sawReturn {
		t.Fatalf("expected a Return binding in the entry block")
	}
}

// After the full pipeline (dealias plus dead-store elimination), the
// now-unread synthetic copies spec.md describes are gone entirely.
func TestS4DeadStoreRemovesTheNowUnreadCopies(t *testing.T) {
	ctx := symbols.NewContext()
	var a, b symbols.Sym
	md := newTestMethod(ctx, "k", nil, func(params []symbols.Sym) ast.Node {
		a = ctx.NewLocalVariable("a", symbols.Sym{}, loc())
		b = ctx.NewLocalVariable("b", symbols.Sym{}, loc())
		return &ast.InsSeq{
			Stats: []ast.Node{
				&ast.Assign{Lhs: a, Rhs: intLit(1)},
				&ast.Assign{Lhs: b, Rhs: ident(a)},
			},
			Expr: ident(b),
		}
	})

	g := BuildAndRefine(ctx, md)
	entry := g.Entry()

	for _, bind := range entry.Exprs {
		if info := ctx.Info(bind.Bind); info.IsSyntheticTemporary && bind.Bind != a && bind.Bind != b {
			if _, ok := bind.Value.(Ident); ok {
				t.Fatalf("synthetic copy %v still present after dead-store elimination", bind.Bind)
			}
		}
	}

	last := entry.Exprs[len(entry.Exprs)-1]
	ret, ok := last.Value.(Return)
	if !ok {
		t.Fatalf("entry's last binding = %T, want Return", last.Value)
	}
	if ret.What != b {
		t.Fatalf("final Return reads %v, want b", ret.What)
	}
}

// Invariant 10: at a merge point, dealias only keeps an alias entry that
// agrees across every predecessor; a symbol aliased to different things
// down each arm of a branch must not be folded in the block that follows.
func TestDealiasDropsAliasesThatDisagreeAcrossAMerge(t *testing.T) {
	ctx := symbols.NewContext()
	var p, q symbols.Sym
	md := newTestMethod(ctx, "m", []string{"c", "p", "q"}, func(params []symbols.Sym) ast.Node {
		c := params[0]
		p, q = params[1], params[2]
		return &ast.If{Cond: ident(c), Then: ident(p), Else: ident(q)}
	})

	g := BuildAndRefine(ctx, md)

	// The method's return temp is an Ident of p down the then arm and of q
	// down the else arm, so the merge block's Return keeps reading the temp
	// itself, which then arrives as a genuine block argument.
	merge := g.Entry().Then().Then()
	last := merge.Exprs[len(merge.Exprs)-1]
	ret, ok := last.Value.(Return)
	if !ok {
		t.Fatalf("merge's last binding = %T, want Return", last.Value)
	}
	if ret.What == p || ret.What == q {
		t.Fatalf("merge's Return reads %v, folded through one arm's alias although the arms disagree", ret.What)
	}
	foundRetArg := false
	for _, a := range merge.Args {
		if a == ret.What {
			foundRetArg = true
		}
	}
	if !foundRetArg {
		t.Fatalf("merge.Args = %v, want the return temp present since the arms disagree", merge.Args)
	}
}
