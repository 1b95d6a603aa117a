package cfg

import "github.com/lattice-lang/latticec/internal/symbols"

// conditionalJump installs a real conditional terminator on from, wiring
// backEdges on both successors. It is a no-op when from is already the
// dead block; otherwise from.bexit.cond must currently be unset, since a
// block may only have its terminator installed once.
func conditionalJump(ctx *symbols.Context, g *CFG, from *BasicBlock, cond symbols.Sym, then, els *BasicBlock) {
	if from == g.DeadBlock() {
		return
	}
	mustBeUnterminated(from)
	from.bexit = exit{cond: cond, thenb: then, elseb: els}
	then.BackEdges = append(then.BackEdges, from)
	if els != then {
		els.BackEdges = append(els.BackEdges, from)
	}
}

// unconditionalJump installs an always-taken terminator from → to, tagging
// cond with Context.Always.
func unconditionalJump(ctx *symbols.Context, g *CFG, from, to *BasicBlock) {
	if from == g.DeadBlock() {
		return
	}
	mustBeUnterminated(from)
	from.bexit = exit{cond: ctx.Always(), thenb: to, elseb: to}
	to.BackEdges = append(to.BackEdges, from)
}

// jumpToDead installs a never-reachable terminator from → dead, tagging
// cond with Context.Never.
func jumpToDead(ctx *symbols.Context, g *CFG, from *BasicBlock) {
	if from == g.DeadBlock() {
		return
	}
	mustBeUnterminated(from)
	dead := g.DeadBlock()
	from.bexit = exit{cond: ctx.Never(), thenb: dead, elseb: dead}
	dead.BackEdges = append(dead.BackEdges, from)
}

// mustBeUnterminated panics if from already has a terminator installed —
// a programmer error per spec.md's error-handling taxonomy, since every
// non-dead block's terminator is set exactly once.
func mustBeUnterminated(from *BasicBlock) {
	if from.HasTerminator() {
		panic("cfg: block already has a terminator installed")
	}
}
