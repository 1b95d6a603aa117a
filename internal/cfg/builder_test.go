package cfg

import (
	"testing"

	"github.com/lattice-lang/latticec/internal/ast"
	"github.com/lattice-lang/latticec/internal/symbols"
)

// Invariant 1: entry is always block index 0, dead always block index 1.
func TestEntryAndDeadBlockIndices(t *testing.T) {
	ctx := symbols.NewContext()
	md := newTestMethod(ctx, "f", nil, func(params []symbols.Sym) ast.Node {
		return intLit(1)
	})

	g := Build(ctx, md)

	if g.Entry() != g.BasicBlocks[0] || g.Entry().ID != 0 {
		t.Fatalf("entry block must be index 0")
	}
	if g.DeadBlock() != g.BasicBlocks[1] || g.DeadBlock().ID != 1 {
		t.Fatalf("dead block must be index 1")
	}
}

// Invariant 3: the dead block's terminator is a self-loop tagged Never.
func TestDeadBlockIsASelfLoopTaggedNever(t *testing.T) {
	ctx := symbols.NewContext()
	md := newTestMethod(ctx, "f", nil, func(params []symbols.Sym) ast.Node {
		return intLit(1)
	})
	g := Build(ctx, md)
	dead := g.DeadBlock()

	if dead.Cond() != ctx.Never() {
		t.Fatalf("dead block terminator cond = %v, want Never", dead.Cond())
	}
	if dead.Then() != dead || dead.Else() != dead {
		t.Fatalf("dead block must jump to itself")
	}
}

// Invariant 2: every block reachable in the finished graph has its
// terminator set exactly once; attempting to set it twice panics, so simply
// observing HasTerminator() on every non-dead block (the builder always
// drives every path it creates to a terminator) exercises this.
func TestEveryNonDeadBlockHasATerminator(t *testing.T) {
	ctx := symbols.NewContext()
	md := newTestMethod(ctx, "f", []string{"c"}, func(params []symbols.Sym) ast.Node {
		c := params[0]
		return &ast.If{
			Cond: ident(c),
			Then: intLit(1),
			Else: intLit(2),
		}
	})

	g := BuildAndRefine(ctx, md)

	for _, b := range g.BasicBlocks {
		if !b.HasTerminator() {
			t.Fatalf("block%d has no terminator installed", b.ID)
		}
	}
}

// S1 (straight-line): def f(x); y = x; y; end. The entry prelude always
// binds self then each formal via LoadArg in order; the method always ends
// with a single Return binding whose block then jumps to dead.
func TestS1StraightLineEndsInASingleReturnToDead(t *testing.T) {
	ctx := symbols.NewContext()
	md := newTestMethod(ctx, "f", []string{"x"}, func(params []symbols.Sym) ast.Node {
		x := params[0]
		y := ctx.NewLocalVariable("y", symbols.Sym{}, loc())
		return &ast.InsSeq{
			Stats: []ast.Node{&ast.Assign{Lhs: y, Rhs: ident(x)}},
			Expr:  ident(y),
		}
	})

	g := BuildAndRefine(ctx, md)

	entry := g.Entry()
	if len(entry.Args) != 0 {
		t.Fatalf("entry.Args = %v, want none: nothing precedes the entry block", entry.Args)
	}
	if len(entry.Exprs) < 2 {
		t.Fatalf("entry has %d bindings, want at least self + x", len(entry.Exprs))
	}
	if _, ok := entry.Exprs[0].Value.(Self); !ok {
		t.Fatalf("entry.Exprs[0] = %T, want Self", entry.Exprs[0].Value)
	}
	if _, ok := entry.Exprs[1].Value.(LoadArg); !ok {
		t.Fatalf("entry.Exprs[1] = %T, want LoadArg", entry.Exprs[1].Value)
	}

	last := entry.Exprs[len(entry.Exprs)-1]
	if _, ok := last.Value.(Return); !ok {
		t.Fatalf("entry's last binding = %T, want Return", last.Value)
	}
	if entry.Then() != g.DeadBlock() {
		t.Fatalf("straight-line method must jump to dead after its Return")
	}
}

// S2 (if/else merge): def g(c); if c then 1 else 2 end end produces exactly
// five blocks (entry, dead, then, else, merge), with the merge block's
// backEdges holding both arms.
func TestS2IfElseMergesIntoAFreshBlock(t *testing.T) {
	ctx := symbols.NewContext()
	md := newTestMethod(ctx, "g", []string{"c"}, func(params []symbols.Sym) ast.Node {
		c := params[0]
		return &ast.If{
			Cond: ident(c),
			Then: intLit(1),
			Else: intLit(2),
		}
	})

	g := Build(ctx, md)

	if len(g.BasicBlocks) != 5 {
		t.Fatalf("got %d blocks, want 5 (entry, dead, then, else, merge)", len(g.BasicBlocks))
	}

	entry := g.Entry()
	thenBlock, elseBlock := entry.Then(), entry.Else()
	if thenBlock == elseBlock {
		t.Fatalf("entry's if-terminator must have distinct then/else successors")
	}

	merge := thenBlock.Then()
	if merge != elseBlock.Then() {
		t.Fatalf("then and else arms must converge on the same merge block")
	}
	if merge == g.DeadBlock() {
		t.Fatalf("merge block must not be the dead block when neither arm returns")
	}

	foundThen, foundElse := false, false
	for _, p := range merge.BackEdges {
		if p == thenBlock {
			foundThen = true
		}
		if p == elseBlock {
			foundElse = true
		}
	}
	if !foundThen || !foundElse {
		t.Fatalf("merge.BackEdges = %v, want both arms present", merge.BackEdges)
	}

	if merge.Then() != g.DeadBlock() {
		t.Fatalf("merge block must jump to dead after the method's implicit Return")
	}
}

// If one arm returns unconditionally, that arm's end-block is the dead
// block, and the If's overall continuation is simply the other arm — no
// merge block is allocated.
func TestIfWithOneReturningArmSkipsTheMerge(t *testing.T) {
	ctx := symbols.NewContext()
	md := newTestMethod(ctx, "h", []string{"c"}, func(params []symbols.Sym) ast.Node {
		c := params[0]
		return &ast.If{
			Cond: ident(c),
			Then: &ast.Return{Expr: intLit(1)},
			Else: intLit(2),
		}
	})

	g := Build(ctx, md)

	// entry, dead, then, else: no fifth merge block.
	if len(g.BasicBlocks) != 4 {
		t.Fatalf("got %d blocks, want 4 (entry, dead, then, else)", len(g.BasicBlocks))
	}
}
