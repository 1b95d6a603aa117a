package cfg

import "github.com/lattice-lang/latticec/internal/symbols"

// Dealias folds chains of copy-assignments through the synthetic temporaries
// the builder mints, per spec.md §4.3. It is a single backward data-flow
// pass over backwardsTopoSort: sound because every synthetic temporary is
// single-assignment by construction, so one pass in the direction opposite
// to control flow is enough to collapse a chain however long.
func Dealias(ctx *symbols.Context, g *CFG) {
	aliasAtExit := make(map[*BasicBlock]map[symbols.Sym]symbols.Sym)
	dead := g.DeadBlock()

	for _, b := range g.BackwardsTopoSort {
		if b == dead {
			continue
		}

		current := seedAliasState(aliasAtExit, b)
		lookup := func(s symbols.Sym) symbols.Sym {
			if !ctx.Info(s).IsSyntheticTemporary {
				return s
			}
			if v, ok := current[s]; ok {
				return v
			}
			return s
		}

		for i := range b.Exprs {
			bind := b.Exprs[i].Bind
			rewritten := rewriteOperands(b.Exprs[i].Value, lookup)

			for k, v := range current {
				if v == bind {
					delete(current, k)
				}
			}

			b.Exprs[i].Value = rewritten
			if id, ok := rewritten.(Ident); ok {
				current[bind] = id.What
			}
		}

		aliasAtExit[b] = current
	}
}

// seedAliasState builds the incoming alias map for b: the first
// predecessor's exit state, intersected against every other predecessor's.
func seedAliasState(aliasAtExit map[*BasicBlock]map[symbols.Sym]symbols.Sym, b *BasicBlock) map[symbols.Sym]symbols.Sym {
	preds := b.BackEdges
	if len(preds) == 0 {
		return make(map[symbols.Sym]symbols.Sym)
	}

	current := cloneAliasMap(aliasAtExit[preds[0]])
	for _, p := range preds[1:] {
		current = intersectAliasMap(current, aliasAtExit[p])
	}
	return current
}

func cloneAliasMap(m map[symbols.Sym]symbols.Sym) map[symbols.Sym]symbols.Sym {
	out := make(map[symbols.Sym]symbols.Sym, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// intersectAliasMap retains only the entries present in both maps with the
// same right-hand side, per spec.md's merge-point rule.
func intersectAliasMap(a, b map[symbols.Sym]symbols.Sym) map[symbols.Sym]symbols.Sym {
	out := make(map[symbols.Sym]symbols.Sym)
	for k, v := range a {
		if bv, ok := b[k]; ok && bv == v {
			out[k] = v
		}
	}
	return out
}

// rewriteOperands returns a copy of instr with every Sym-valued operand
// field passed through lookup: Ident.What, Send.Recv and Send.Args,
// Super.Args, Return.What, and NamedArg.Value. Every other instruction
// (literals, Nil, Alias, LoadArg, Self, splats, NotSupported) is returned
// unchanged, including any Sym it carries.
func rewriteOperands(instr Instruction, lookup func(symbols.Sym) symbols.Sym) Instruction {
	switch v := instr.(type) {
	case Ident:
		return Ident{What: lookup(v.What)}
	case Send:
		args := make([]symbols.Sym, len(v.Args))
		for i, a := range v.Args {
			args[i] = lookup(a)
		}
		return Send{Recv: lookup(v.Recv), Fun: v.Fun, Args: args}
	case Super:
		args := make([]symbols.Sym, len(v.Args))
		for i, a := range v.Args {
			args[i] = lookup(a)
		}
		return Super{Args: args}
	case Return:
		return Return{What: lookup(v.What)}
	case NamedArg:
		return NamedArg{Name: v.Name, Value: lookup(v.Value)}
	default:
		return instr
	}
}
