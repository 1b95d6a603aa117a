package cfg

import "sort"

// fillInTopoSorts stable-sorts every block's predecessor list by ascending
// loop depth, then computes both whole-graph orderings spec.md §4.2
// describes: forwardsTopoSort (depth-first postorder from entry, entry last) and
// backwardsTopoSort (a loop-aware order from the dead block).
func fillInTopoSorts(g *CFG) {
	for _, b := range g.BasicBlocks {
		preds := b.BackEdges
		sort.SliceStable(preds, func(i, j int) bool {
			return preds[i].OuterLoops < preds[j].OuterLoops
		})
	}

	for _, b := range g.BasicBlocks {
		b.flags.forwardVisited = false
		b.flags.backwardVisited = false
	}

	g.ForwardsTopoSort = nil
	topoSortFwd(g, g.Entry())

	g.BackwardsTopoSort = nil
	topoSortBwd(g, g.DeadBlock())
}

// topoSortFwd is a depth-first post-order traversal: recurse into thenb,
// then elseb, then append the current block. The result read front-to-back
// is a postorder of the forward graph (entry last); read back-to-front it is
// a reverse-postorder.
func topoSortFwd(g *CFG, b *BasicBlock) {
	if b.flags.forwardVisited {
		return
	}
	b.flags.forwardVisited = true

	if then := b.Then(); then != nil {
		topoSortFwd(g, then)
	}
	if els := b.Else(); els != nil && els != b.Then() {
		topoSortFwd(g, els)
	}
	g.ForwardsTopoSort = append(g.ForwardsTopoSort, b)
}

// topoSortBwd walks backEdges starting from the dead block. It is loop-aware:
// predecessors at a strictly lower loop depth than b are recursed first; if
// any existed, b is appended immediately (it is a loop header, placed
// before its in-loop predecessors), and the remaining predecessors are
// recursed afterward. Otherwise b is appended only once every predecessor
// has been visited.
func topoSortBwd(g *CFG, b *BasicBlock) {
	if b.flags.backwardVisited {
		return
	}
	b.flags.backwardVisited = true

	var lower, sameOrDeeper []*BasicBlock
	for _, p := range b.BackEdges {
		if p.OuterLoops < b.OuterLoops {
			lower = append(lower, p)
		} else {
			sameOrDeeper = append(sameOrDeeper, p)
		}
	}

	for _, p := range lower {
		topoSortBwd(g, p)
	}
	if len(lower) > 0 {
		g.BackwardsTopoSort = append(g.BackwardsTopoSort, b)
		for _, p := range sameOrDeeper {
			topoSortBwd(g, p)
		}
		return
	}

	for _, p := range sameOrDeeper {
		topoSortBwd(g, p)
	}
	g.BackwardsTopoSort = append(g.BackwardsTopoSort, b)
}
