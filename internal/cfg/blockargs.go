package cfg

import (
	"sort"

	"github.com/lattice-lang/latticec/internal/symbols"
)

type symSet map[symbols.Sym]bool
type blockSet map[*BasicBlock]bool

// FillInBlockArguments is stage 5 of the pipeline: it lowers each local's
// minLoops, removes dead stores, prunes symbols that never escape their
// defining block, and finally computes every block's formal parameter list
// as the intersection of two fixpoint over-approximations, per spec.md §4.4.
func FillInBlockArguments(ctx *symbols.Context, g *CFG) {
	reads, writes, readBlocks, writeBlocks := collectReadsAndWrites(ctx, g)

	lowerMinLoops(ctx, readBlocks, writeBlocks)
	eliminateDeadStores(ctx, g)
	reads, writes, readBlocks, writeBlocks = collectReadsAndWrites(ctx, g)
	pruneEscapes(reads, writes, readBlocks, writeBlocks)

	ub1 := computeUB1(g, reads)
	ub2 := computeUB2(g, writes)
	assignBlockArgs(g, ub1, ub2)
}

// collectReadsAndWrites walks every binding and terminator once, producing
// both a block-indexed view (reads[B], writes[B]) used by the fixpoints and
// a symbol-indexed view (readBlocks[s], writeBlocks[s]) used by minLoops
// lowering and escape pruning.
func collectReadsAndWrites(ctx *symbols.Context, g *CFG) (reads, writes map[*BasicBlock]symSet, readBlocks, writeBlocks map[symbols.Sym]blockSet) {
	reads = make(map[*BasicBlock]symSet)
	writes = make(map[*BasicBlock]symSet)
	readBlocks = make(map[symbols.Sym]blockSet)
	writeBlocks = make(map[symbols.Sym]blockSet)

	addRead := func(b *BasicBlock, s symbols.Sym) {
		if !s.Exists() {
			return
		}
		if reads[b] == nil {
			reads[b] = symSet{}
		}
		reads[b][s] = true
		if readBlocks[s] == nil {
			readBlocks[s] = blockSet{}
		}
		readBlocks[s][b] = true
	}
	addWrite := func(b *BasicBlock, s symbols.Sym) {
		if writes[b] == nil {
			writes[b] = symSet{}
		}
		writes[b][s] = true
		if writeBlocks[s] == nil {
			writeBlocks[s] = blockSet{}
		}
		writeBlocks[s][b] = true
	}

	for _, b := range g.BasicBlocks {
		for _, bind := range b.Exprs {
			addWrite(b, bind.Bind)
			for _, s := range readOperands(bind.Value) {
				addRead(b, s)
			}
		}
		cond := b.Cond()
		if cond.Exists() && cond != ctx.Always() && cond != ctx.Never() {
			addRead(b, cond)
		}
	}

	return
}

// readOperands lists the Sym-valued operands spec.md §4.4 step 1 names as
// reads: Ident.What, Send.Recv/Args, Super.Args, Return.What, NamedArg.Value,
// LoadArg.Receiver.
func readOperands(value Instruction) []symbols.Sym {
	switch v := value.(type) {
	case Ident:
		return []symbols.Sym{v.What}
	case Send:
		out := make([]symbols.Sym, 0, len(v.Args)+1)
		out = append(out, v.Recv)
		out = append(out, v.Args...)
		return out
	case Super:
		return append([]symbols.Sym(nil), v.Args...)
	case Return:
		return []symbols.Sym{v.What}
	case NamedArg:
		return []symbols.Sym{v.Value}
	case LoadArg:
		return []symbols.Sym{v.Receiver}
	default:
		return nil
	}
}

// lowerMinLoops sets each local variable's minLoops to the smallest
// outerLoops across every block that reads or writes it.
func lowerMinLoops(ctx *symbols.Context, readBlocks, writeBlocks map[symbols.Sym]blockSet) {
	for sym, blocks := range mergeBlockSets(readBlocks, writeBlocks) {
		info := ctx.Info(sym)
		if !info.IsLocalVariable {
			continue
		}
		for b := range blocks {
			if b.OuterLoops < info.MinLoops {
				info.MinLoops = b.OuterLoops
			}
		}
	}
}

func mergeBlockSets(a, b map[symbols.Sym]blockSet) map[symbols.Sym]blockSet {
	out := make(map[symbols.Sym]blockSet, len(a))
	for sym, blocks := range a {
		merged := blockSet{}
		for blk := range blocks {
			merged[blk] = true
		}
		out[sym] = merged
	}
	for sym, blocks := range b {
		merged := out[sym]
		if merged == nil {
			merged = blockSet{}
			out[sym] = merged
		}
		for blk := range blocks {
			merged[blk] = true
		}
	}
	return out
}

// eliminateDeadStores drops any binding whose target is never read anywhere
// in the CFG and whose value is side-effect-free. Reads are recollected and
// the sweep repeated until nothing more is dropped, since removing one
// binding can leave the targets it read without any reader.
func eliminateDeadStores(ctx *symbols.Context, g *CFG) {
	for removed := true; removed; {
		removed = false
		_, _, readBlocks, _ := collectReadsAndWrites(ctx, g)
		for _, b := range g.BasicBlocks {
			var kept []Binding
			for _, bind := range b.Exprs {
				read := len(readBlocks[bind.Bind]) > 0
				if !read && sideEffectFree(bind.Value) {
					removed = true
					continue
				}
				kept = append(kept, bind)
			}
			b.Exprs = kept
		}
	}
}

// pruneEscapes clears the read/write bookkeeping for symbols that never
// cross a block boundary: read and written in the very same single block
// (doesn't escape), or written with no reads at all anywhere.
func pruneEscapes(reads, writes map[*BasicBlock]symSet, readBlocks, writeBlocks map[symbols.Sym]blockSet) {
	allSyms := mergeBlockSets(readBlocks, writeBlocks)
	for sym := range allSyms {
		rb := readBlocks[sym]
		wb := writeBlocks[sym]

		if len(rb) == 1 && len(wb) == 1 && sameSingleBlock(rb, wb) {
			removeSymFromBlocks(reads, rb, sym)
			removeSymFromBlocks(writes, wb, sym)
			delete(readBlocks, sym)
			delete(writeBlocks, sym)
			continue
		}

		if len(rb) == 0 && len(wb) > 0 {
			removeSymFromBlocks(writes, wb, sym)
			delete(writeBlocks, sym)
		}
	}
}

func sameSingleBlock(a, b blockSet) bool {
	var onlyA, onlyB *BasicBlock
	for blk := range a {
		onlyA = blk
	}
	for blk := range b {
		onlyB = blk
	}
	return onlyA == onlyB
}

func removeSymFromBlocks(m map[*BasicBlock]symSet, blocks blockSet, sym symbols.Sym) {
	for blk := range blocks {
		delete(m[blk], sym)
	}
}

// computeUB1 is the forward over-approximation: UB1[B] = reads(B) ∪
// UB1[thenb(B)] ∪ UB1[elseb(B)], excluding the dead block, iterated on
// forwardsTopoSort until no set grows any further.
func computeUB1(g *CFG, reads map[*BasicBlock]symSet) map[*BasicBlock]symSet {
	ub1 := make(map[*BasicBlock]symSet, len(g.BasicBlocks))
	for _, b := range g.BasicBlocks {
		ub1[b] = symSet{}
	}
	dead := g.DeadBlock()

	for changed := true; changed; {
		changed = false
		for _, b := range g.ForwardsTopoSort {
			if b == dead {
				continue
			}
			merged := cloneSymSet(reads[b])
			if then := b.Then(); then != nil && then != dead {
				mergeSymSetInto(merged, ub1[then])
			}
			if els := b.Else(); els != nil && els != b.Then() && els != dead {
				mergeSymSetInto(merged, ub1[els])
			}
			if !symSetEqual(merged, ub1[b]) {
				ub1[b] = merged
				changed = true
			}
		}
	}
	return ub1
}

// computeUB2 is the backward over-approximation: UB2[B] = writes(B) ∪
// union over B's predecessors' UB2, iterated on backwardsTopoSort until no
// set grows any further.
func computeUB2(g *CFG, writes map[*BasicBlock]symSet) map[*BasicBlock]symSet {
	ub2 := make(map[*BasicBlock]symSet, len(g.BasicBlocks))
	for _, b := range g.BasicBlocks {
		ub2[b] = symSet{}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range g.BackwardsTopoSort {
			merged := cloneSymSet(writes[b])
			for _, p := range b.BackEdges {
				mergeSymSetInto(merged, ub2[p])
			}
			if !symSetEqual(merged, ub2[b]) {
				ub2[b] = merged
				changed = true
			}
		}
	}
	return ub2
}

func assignBlockArgs(g *CFG, ub1, ub2 map[*BasicBlock]symSet) {
	for _, b := range g.BasicBlocks {
		var args []symbols.Sym
		for s := range ub1[b] {
			if ub2[b][s] {
				args = append(args, s)
			}
		}
		sort.Slice(args, func(i, j int) bool { return args[i].ID() < args[j].ID() })
		b.Args = args
	}
}

func cloneSymSet(s symSet) symSet {
	out := make(symSet, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func mergeSymSetInto(dst, src symSet) {
	for k := range src {
		dst[k] = true
	}
}

func symSetEqual(a, b symSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
