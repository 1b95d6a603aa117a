package cfg

import (
	"github.com/lattice-lang/latticec/internal/source"
	"github.com/lattice-lang/latticec/internal/symbols"
)

// Binding is a single-assignment (target, location, instruction) triple,
// exclusively owned by its containing BasicBlock.
type Binding struct {
	Bind  symbols.Sym
	Loc   source.Loc
	Value Instruction
}

// exit is a block's terminator: a condition symbol plus the two successors
// control transfers to. Two sentinel conditions, Context.Always and
// Context.Never, mark unconditional and unreachable exits.
type exit struct {
	cond  symbols.Sym
	thenb *BasicBlock
	elseb *BasicBlock
}

// topoFlags is the pair of visitation bits the two topological-sort passes
// use to guard against revisiting a block.
type topoFlags struct {
	forwardVisited  bool
	backwardVisited bool
}

// BasicBlock is a maximal straight-line sequence of Bindings ending in one
// terminator. All fields are owned by the CFG the block belongs to;
// back-references to other blocks (thenb, elseb, BackEdges) are non-owning.
type BasicBlock struct {
	ID int

	// Args is this block's formal parameter list, sorted ascending by
	// Sym.ID and populated by block-argument inference.
	Args []symbols.Sym

	Exprs []Binding

	bexit exit

	// BackEdges lists this block's predecessors, populated by the edge
	// primitives as they install each predecessor's terminator.
	BackEdges []*BasicBlock

	// OuterLoops is the loop-nesting depth this block lives at.
	OuterLoops int

	flags topoFlags
}

// Cond, Then, and Else expose the terminator spec.md's invariants are
// stated in terms of, without letting callers mutate it outside the edge
// primitives in edges.go.
func (b *BasicBlock) Cond() symbols.Sym  { return b.bexit.cond }
func (b *BasicBlock) Then() *BasicBlock  { return b.bexit.thenb }
func (b *BasicBlock) Else() *BasicBlock  { return b.bexit.elseb }
func (b *BasicBlock) HasTerminator() bool {
	return b.bexit.cond.Exists()
}

// CFG owns every BasicBlock built for one method.
type CFG struct {
	// Symbol is the method this graph was built for.
	Symbol symbols.Sym

	// BasicBlocks is the arena: every block's lifetime is bounded by this
	// slice's. Index 0 is always the entry block, index 1 the dead block.
	BasicBlocks []*BasicBlock

	ForwardsTopoSort  []*BasicBlock
	BackwardsTopoSort []*BasicBlock
}

// NewCFG creates an empty graph for method, already containing its entry
// and dead blocks at indices 0 and 1, with the dead block's terminator
// wired to itself.
func NewCFG(ctx *symbols.Context, method symbols.Sym) *CFG {
	g := &CFG{Symbol: method}

	entry := g.freshBlockAt(0)
	dead := g.freshBlockAt(0)
	g.BasicBlocks = []*BasicBlock{entry, dead}
	entry.ID = 0
	dead.ID = 1

	dead.bexit = exit{cond: ctx.Never(), thenb: dead, elseb: dead}

	return g
}

// freshBlock allocates a new block at the given loop depth, appends it to
// the CFG's arena, and returns it. This is the only way blocks come into
// existence once NewCFG has run.
func (g *CFG) freshBlock(outerLoops int) *BasicBlock {
	b := g.freshBlockAt(outerLoops)
	b.ID = len(g.BasicBlocks)
	g.BasicBlocks = append(g.BasicBlocks, b)
	return b
}

func (g *CFG) freshBlockAt(outerLoops int) *BasicBlock {
	return &BasicBlock{OuterLoops: outerLoops}
}

// Entry returns the method's entry block.
func (g *CFG) Entry() *BasicBlock { return g.BasicBlocks[0] }

// DeadBlock returns the distinguished sink block every Return and
// unlowered path eventually reaches.
func (g *CFG) DeadBlock() *BasicBlock { return g.BasicBlocks[1] }
