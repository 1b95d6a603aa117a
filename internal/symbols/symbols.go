// Package symbols implements the Context collaborator that the CFG builder
// treats as an opaque, external dependency: symbol identity, fresh-temporary
// minting, and the handful of sentinel symbols the builder reaches for when
// a construct has no real target (an always-taken branch, a dead branch, an
// implicit block-call receiver, or a not-yet-lowered node).
//
// Mirrors the shape of the teacher's internal/ast.SymbolTable /
// internal/hir.GlobalSymbolTable: a flat table of mutable Info records
// addressed by a small integer handle, with no locking of its own because
// each concurrent build gets its own Context (see internal/scanner.Batch).
package symbols

import (
	"fmt"

	"github.com/lattice-lang/latticec/internal/source"
)

// ID is the integer identity backing a Sym. Zero is reserved for the
// invalid symbol.
type ID int32

// Sym is an opaque handle into a Context's symbol table. The zero value
// does not exist and must never be dereferenced with Context.Info.
type Sym struct {
	id ID
}

// Name is a method or block-parameter selector. Unlike Sym it is not
// resolved against any Context — it is the raw name a Send or LoadArg
// carries, the way core::NameRef labels a call site in the original.
type Name string

// Exists reports whether s was minted by some Context, as opposed to being
// the zero value.
func (s Sym) Exists() bool { return s.id != 0 }

// ID returns the handle's underlying integer identity, useful as a sort key
// when a deterministic symbol ordering is needed (e.g. sorted block args).
func (s Sym) ID() ID { return s.id }

func (s Sym) String() string {
	if !s.Exists() {
		return "<no-symbol>"
	}
	return fmt.Sprintf("sym#%d", s.id)
}

// Category distinguishes the different shapes of synthetic temporary the
// builder mints while walking the AST. It is recorded on Info purely for
// naming and debugging; it has no effect on how the CFG core treats the
// resulting Sym.
type Category int

const (
	// WhileTemp names the hidden boolean a while-loop condition binds to.
	WhileTemp Category = iota
	// IfTemp names the hidden value an if-expression's condition binds to.
	IfTemp
	// StatTemp names the discarded value of a statement used in value
	// position (e.g. a non-final InsSeq statement or a while body), and also
	// the receiver and each argument value of a Send.
	StatTemp
	// ReturnTemp names the value passed to a Return instruction.
	ReturnTemp
	// ReturnMethodTemp names the synthetic return-value binding a method
	// body's implicit final expression targets.
	ReturnMethodTemp
	// SelfMethodTemp names the method's self binding, the first binding of
	// the entry block and the receiver of every formal parameter's LoadArg.
	SelfMethodTemp
	// BlockReturnTemp names the value a block body's final expression
	// binds to before control returns to the caller of LoadArg.
	BlockReturnTemp
	// AliasTemp names a synthetic local lazily minted by global2Local to
	// stand in for a non-local symbol referenced from inside a method body.
	AliasTemp
)

func (c Category) String() string {
	switch c {
	case WhileTemp:
		return "while"
	case IfTemp:
		return "if"
	case StatTemp:
		return "stat"
	case ReturnTemp:
		return "return"
	case ReturnMethodTemp:
		return "return_method"
	case SelfMethodTemp:
		return "self_method"
	case BlockReturnTemp:
		return "block_return"
	case AliasTemp:
		return "alias"
	default:
		return "temp"
	}
}

// Info is the mutable record a Sym addresses. Context owns these by pointer
// so that fields like MinLoops can be lowered in place during
// block-argument inference, the same way the original walks
// id.info(ctx).minLoops.
type Info struct {
	ID ID

	Name     string
	FullName string
	Owner    Sym

	// IsLocalVariable marks a Sym as a CFG-local value slot: a formal
	// parameter, a namer-resolved Ruby-level local, or any synthetic
	// temporary minted by NewTemporary. Symbols without this set (globals,
	// ivars, constants, method symbols used as call targets) must be
	// routed through global2Local before an instruction can target them.
	IsLocalVariable bool

	// IsSyntheticTemporary marks a Sym minted by NewTemporary rather than
	// one that already existed as a named program variable.
	IsSyntheticTemporary bool

	// MinLoops is the minimum loop nesting depth this symbol is live at.
	// Block-argument inference lowers it to the smallest loop depth of any
	// block that reads or writes the symbol; it starts at an unreached
	// sentinel distinct from zero so "never lowered" is observable.
	MinLoops int

	DefinitionLoc source.Loc

	// Arguments holds, for a method symbol only, the ordered formal
	// parameter symbols; empty for every other kind.
	Arguments []Sym
}

// MinLoopsUnset is the sentinel MinLoops value assigned to a freshly minted
// symbol, before any block-argument inference pass has lowered it.
const MinLoopsUnset = 1 << 30

// Context is the symbol table a single CFG build is threaded through. It is
// not safe for concurrent use; internal/scanner.Batch gives each worker its
// own Context rather than sharing one.
type Context struct {
	infos []*Info

	always    Sym
	never     Sym
	blockCall Sym
	todo      Sym

	tempSeq map[Category]int
}

// NewContext creates a fresh, empty symbol table along with its four
// sentinel symbols.
func NewContext() *Context {
	c := &Context{
		infos:   []*Info{{}}, // index 0 is the invalid symbol, never returned
		tempSeq: make(map[Category]int),
	}
	c.always = c.addSentinel("<cfg-always>")
	c.never = c.addSentinel("<cfg-never>")
	c.blockCall = c.addSentinel("<cfg-block-call>")
	c.todo = c.addSentinel("<cfg-todo>")
	return c
}

func (c *Context) addSentinel(name string) Sym {
	id := ID(len(c.infos))
	c.infos = append(c.infos, &Info{ID: id, Name: name})
	return Sym{id: id}
}

// Always returns the defn_cfg_always sentinel: the synthetic condition
// symbol an unconditional jump is recorded as testing.
func (c *Context) Always() Sym { return c.always }

// Never returns the defn_cfg_never sentinel: the synthetic condition symbol
// a jump-to-dead is recorded as testing.
func (c *Context) Never() Sym { return c.never }

// BlockCall returns the defn_cfg_block_call sentinel used as the implicit
// receiver symbol when lowering a block invocation.
func (c *Context) BlockCall() Sym { return c.blockCall }

// Todo returns the defn_todo sentinel, the placeholder target for an
// assignment whose left-hand side cannot be lowered. ast.Assign always
// carries a resolved Lhs symbol, so the builder in internal/cfg never
// emits a binding to it.
func (c *Context) Todo() Sym { return c.todo }

// Info returns the mutable record behind sym. Panics if sym is the zero
// value or was not minted by c — both are programmer errors.
func (c *Context) Info(sym Sym) *Info {
	if !sym.Exists() || int(sym.id) >= len(c.infos) {
		panic(fmt.Sprintf("symbols: %v does not belong to this Context", sym))
	}
	return c.infos[sym.id]
}

// NewMethodSymbol mints the symbol representing a method definition itself
// (MethodDef.Symbol), with the given ordered formal parameters already
// resolved to local-variable symbols.
func (c *Context) NewMethodSymbol(name string, owner Sym, loc source.Loc, args []Sym) Sym {
	sym := c.newSym(name, owner, loc)
	info := c.Info(sym)
	info.FullName = name
	info.Arguments = args
	return sym
}

// NewLocalVariable mints a symbol for a formal parameter or a namer-resolved
// program-level local: something already a CFG-local value slot, without
// being a synthetic temporary.
func (c *Context) NewLocalVariable(name string, owner Sym, loc source.Loc) Sym {
	sym := c.newSym(name, owner, loc)
	c.Info(sym).IsLocalVariable = true
	return sym
}

// NewNonLocal mints a symbol for anything that is not itself a CFG-local
// value slot: a global, an instance variable, a constant, or a method
// symbol referenced as a call target. Idents resolving to these must go
// through global2Local before they can be used as an instruction operand.
func (c *Context) NewNonLocal(name string, owner Sym, loc source.Loc) Sym {
	return c.newSym(name, owner, loc)
}

// NewTemporary mints a fresh synthetic local, named after category and
// scoped to owner (typically the enclosing method or block symbol). Every
// call returns a distinct Sym, matching core::Context::newTemporary's
// guarantee that the builder never accidentally reuses a CFG-internal slot.
func (c *Context) NewTemporary(category Category, owner Sym, loc source.Loc) Sym {
	seq := c.tempSeq[category]
	c.tempSeq[category] = seq + 1
	name := fmt.Sprintf("<%s$%d>", category, seq)
	sym := c.newSym(name, owner, loc)
	info := c.Info(sym)
	info.IsLocalVariable = true
	info.IsSyntheticTemporary = true
	info.MinLoops = MinLoopsUnset
	return sym
}

func (c *Context) newSym(name string, owner Sym, loc source.Loc) Sym {
	id := ID(len(c.infos))
	c.infos = append(c.infos, &Info{
		ID:            id,
		Name:          name,
		Owner:         owner,
		MinLoops:      MinLoopsUnset,
		DefinitionLoc: loc,
	})
	return Sym{id: id}
}
