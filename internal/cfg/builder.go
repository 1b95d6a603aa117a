package cfg

import (
	"fmt"
	"sort"

	"github.com/lattice-lang/latticec/internal/ast"
	"github.com/lattice-lang/latticec/internal/source"
	"github.com/lattice-lang/latticec/internal/symbols"
)

// builder holds the per-method state threaded through walk: the symbol
// context, the CFG under construction, and the global-to-local alias map
// that global2Local lazily populates.
type builder struct {
	ctx        *symbols.Context
	g          *CFG
	methodSym  symbols.Sym
	methodName symbols.Name
	aliases    map[symbols.Sym]symbols.Sym
}

// Build lowers method into a fully connected CFG whose entry block
// initializes self and every formal parameter, per spec.md §4.1.
func Build(ctx *symbols.Context, method *ast.MethodDef) *CFG {
	g := NewCFG(ctx, method.Symbol)
	b := &builder{
		ctx:        ctx,
		g:          g,
		methodSym:  method.Symbol,
		methodName: symbols.Name(method.Name),
		aliases:    make(map[symbols.Sym]symbols.Sym),
	}

	entry := g.Entry()
	selfSym := ctx.NewTemporary(symbols.SelfMethodTemp, method.Symbol, method.Where)
	b.emit(entry, selfSym, Self{Claz: method.Symbol}, method.Where)

	for i, argSym := range ctx.Info(method.Symbol).Arguments {
		b.emit(entry, argSym, LoadArg{Receiver: selfSym, Method: b.methodName, Index: i}, method.Where)
	}

	retTarget := ctx.NewTemporary(symbols.ReturnMethodTemp, method.Symbol, method.Where)
	cont := b.walk(method.Body, entry, retTarget, 0)

	b.emit(cont, retTarget, Return{What: retTarget}, method.Where)
	jumpToDead(ctx, g, cont)

	b.injectAliasPrefix()
	return g
}

func (b *builder) emit(block *BasicBlock, bind symbols.Sym, value Instruction, loc source.Loc) {
	block.Exprs = append(block.Exprs, Binding{Bind: bind, Loc: loc, Value: value})
}

// walk lowers expr into current, emitting into target, and returns the
// block subsequent statements should be emitted into. Precondition:
// current.bexit.cond is unset on entry. Every case either sets a
// terminator on current (or a block chained from it) and returns a block
// whose own terminator is still unset, or returns the dead block.
func (b *builder) walk(expr ast.Node, current *BasicBlock, target symbols.Sym, loops int) *BasicBlock {
	switch n := expr.(type) {

	case *ast.IntLit:
		b.emit(current, target, IntLit{Value: n.Value}, n.Where)
		return current

	case *ast.FloatLit:
		b.emit(current, target, FloatLit{Value: n.Value}, n.Where)
		return current

	case *ast.StringLit:
		b.emit(current, target, StringLit{Value: n.Value}, n.Where)
		return current

	case *ast.BoolLit:
		b.emit(current, target, BoolLit{Value: n.Value}, n.Where)
		return current

	case *ast.Self:
		b.emit(current, target, Self{Claz: b.methodSym}, n.Where)
		return current

	case *ast.Ident:
		local := b.global2Local(n.Symbol)
		b.emit(current, target, Ident{What: local}, n.Where)
		return current

	case *ast.Assign:
		lhsLocal := b.global2Local(n.Lhs)
		cont := b.walk(n.Rhs, current, lhsLocal, loops)
		b.emit(cont, target, Ident{What: lhsLocal}, n.Where)
		return cont

	case *ast.InsSeq:
		cur := current
		for _, stat := range n.Stats {
			statTmp := b.ctx.NewTemporary(symbols.StatTemp, b.methodSym, stat.Loc())
			cur = b.walk(stat, cur, statTmp, loops)
		}
		return b.walk(n.Expr, cur, target, loops)

	case *ast.If:
		return b.walkIf(n, current, target, loops)

	case *ast.While:
		return b.walkWhile(n, current, target, loops)

	case *ast.Return:
		tmp := b.ctx.NewTemporary(symbols.ReturnTemp, b.methodSym, n.Where)
		cont := b.walk(n.Expr, current, tmp, loops)
		b.emit(cont, target, Return{What: tmp}, n.Where)
		jumpToDead(b.ctx, b.g, cont)
		return b.g.DeadBlock()

	case *ast.Send:
		return b.walkSend(n, current, target, loops)

	case *ast.ConstantLit:
		panic(fmt.Sprintf("cfg: ConstantLit reached the builder at %s; the namer should have resolved it away", n.Where))

	case *ast.Block:
		panic(fmt.Sprintf("cfg: bare Block reached the builder at %s; blocks may only appear as a Send argument", n.Where))

	default:
		b.emit(current, target, NotSupported{Why: fmt.Sprintf("unrecognized node %T", n)}, expr.Loc())
		return current
	}
}

func (b *builder) walkIf(n *ast.If, current *BasicBlock, target symbols.Sym, loops int) *BasicBlock {
	condTmp := b.ctx.NewTemporary(symbols.IfTemp, b.methodSym, n.Where)
	afterCond := b.walk(n.Cond, current, condTmp, loops)

	thenBlock := b.g.freshBlock(loops)
	elseBlock := b.g.freshBlock(loops)
	conditionalJump(b.ctx, b.g, afterCond, condTmp, thenBlock, elseBlock)

	thenEnd := b.walk(n.Then, thenBlock, target, loops)
	elseEnd := b.walk(n.Else, elseBlock, target, loops)

	dead := b.g.DeadBlock()
	switch {
	case thenEnd == dead && elseEnd == dead:
		return dead
	case thenEnd == dead:
		return elseEnd
	case elseEnd == dead:
		return thenEnd
	default:
		merge := b.g.freshBlock(loops)
		unconditionalJump(b.ctx, b.g, thenEnd, merge)
		unconditionalJump(b.ctx, b.g, elseEnd, merge)
		return merge
	}
}

func (b *builder) walkWhile(n *ast.While, current *BasicBlock, target symbols.Sym, loops int) *BasicBlock {
	header := b.g.freshBlock(loops + 1)
	body := b.g.freshBlock(loops + 1)
	cont := b.g.freshBlock(loops)

	unconditionalJump(b.ctx, b.g, current, header)

	whileTmp := b.ctx.NewTemporary(symbols.WhileTemp, b.methodSym, n.Where)
	condEnd := b.walk(n.Cond, header, whileTmp, loops+1)
	conditionalJump(b.ctx, b.g, condEnd, whileTmp, body, cont)

	bodyTmp := b.ctx.NewTemporary(symbols.StatTemp, b.methodSym, n.Where)
	bodyEnd := b.walk(n.Body, body, bodyTmp, loops+1)
	unconditionalJump(b.ctx, b.g, bodyEnd, header)

	b.emit(cont, target, Nil{}, n.Where)
	return cont
}

func (b *builder) walkSend(n *ast.Send, current *BasicBlock, target symbols.Sym, loops int) *BasicBlock {
	var recvNode ast.Node = n.Recv
	if recvNode == nil {
		recvNode = &ast.Self{Where: n.Where}
	}
	recvTmp := b.ctx.NewTemporary(symbols.StatTemp, b.methodSym, n.Where)
	cur := b.walk(recvNode, current, recvTmp, loops)

	argSyms := make([]symbols.Sym, len(n.Args))
	for i, a := range n.Args {
		argTmp := b.ctx.NewTemporary(symbols.StatTemp, b.methodSym, a.Loc())
		cur = b.walk(a, cur, argTmp, loops)
		argSyms[i] = argTmp
	}

	if n.Block != nil {
		header := b.g.freshBlock(loops + 1)
		post := b.g.freshBlock(loops)
		body := b.g.freshBlock(loops + 1)

		unconditionalJump(b.ctx, b.g, cur, header)
		conditionalJump(b.ctx, b.g, header, b.ctx.BlockCall(), body, post)

		for i, argSym := range n.Block.Args {
			b.emit(body, argSym, LoadArg{Receiver: b.ctx.BlockCall(), Method: n.Fun, Index: i}, n.Block.Where)
		}

		blockRet := b.ctx.NewTemporary(symbols.BlockReturnTemp, b.methodSym, n.Block.Where)
		bodyEnd := b.walk(n.Block.Body, body, blockRet, loops+1)
		unconditionalJump(b.ctx, b.g, bodyEnd, header)

		cur = post
	}

	b.emit(cur, target, Send{Recv: recvTmp, Fun: n.Fun, Args: argSyms}, n.Where)
	return cur
}

// global2Local resolves sym to a value usable as an instruction operand.
// Local variables pass through unchanged; anything else is lazily aliased
// to a fresh synthetic local sharing its name, recorded once per method so
// later uses of the same global resolve to the same local.
func (b *builder) global2Local(sym symbols.Sym) symbols.Sym {
	info := b.ctx.Info(sym)
	if info.IsLocalVariable {
		return sym
	}
	if local, ok := b.aliases[sym]; ok {
		return local
	}
	local := b.ctx.NewTemporary(symbols.AliasTemp, info.Owner, info.DefinitionLoc)
	localInfo := b.ctx.Info(local)
	localInfo.Name = info.Name
	// Alias locals are never loop-bound themselves; -1 marks that
	// block-argument inference's minLoops lowering should leave them alone.
	localInfo.MinLoops = -1
	b.aliases[sym] = local
	return local
}

// injectAliasPrefix prepends to the entry block a deterministic, sorted
// sequence of local := Alias(global) bindings, one per global2Local
// discovery made during the walk.
func (b *builder) injectAliasPrefix() {
	if len(b.aliases) == 0 {
		return
	}

	type pair struct {
		global, local symbols.Sym
	}
	pairs := make([]pair, 0, len(b.aliases))
	for g, l := range b.aliases {
		pairs = append(pairs, pair{g, l})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].global.ID() < pairs[j].global.ID() })

	prefix := make([]Binding, len(pairs))
	for i, p := range pairs {
		prefix[i] = Binding{
			Bind:  p.local,
			Loc:   b.ctx.Info(p.global).DefinitionLoc,
			Value: Alias{What: p.global},
		}
	}

	entry := b.g.Entry()
	entry.Exprs = append(prefix, entry.Exprs...)
}
