// Package cfg implements the five-stage lowering pipeline that turns a
// method's AST into a control-flow graph: Builder, alias-prefix injection,
// topological sort, the dealias pass, and block-argument inference.
//
// Grounded on the teacher's internal/hir package (basic blocks, CFG nodes
// and edges, phi-node-style arguments), generalized from a PHP taint-flow
// HIR into the closed instruction variant this component requires.
package cfg

import "github.com/lattice-lang/latticec/internal/symbols"

// Instruction is the closed tagged variant a Binding's value holds. The
// concrete types below are the only implementations; a type switch over
// Instruction is always exhaustive.
type Instruction interface {
	// isInstruction is unexported so no type outside this package can
	// implement Instruction, keeping the variant closed the way spec.md's
	// "closed tagged variant" language requires.
	isInstruction()
}

// Ident copies the value of What.
type Ident struct{ What symbols.Sym }

// Alias materializes a non-local name (What) as a local.
type Alias struct{ What symbols.Sym }

// Send is a method call: Recv.Fun(Args...).
type Send struct {
	Recv symbols.Sym
	Fun  symbols.Name
	Args []symbols.Sym
}

// Super is a super-call.
type Super struct{ Args []symbols.Sym }

// Return is a method return; the block containing it always jumps to the
// dead block immediately after.
type Return struct{ What symbols.Sym }

// NamedArg is a keyword-argument placeholder. walk never produces one
// (spec.md's open question (iii)); it exists so downstream passes that read
// it type-check against a complete variant.
type NamedArg struct {
	Name  symbols.Name
	Value symbols.Sym
}

// LoadArg binds formal parameter Index of Method on Receiver.
type LoadArg struct {
	Receiver symbols.Sym
	Method   symbols.Name
	Index    int
}

// Self is the enclosing class of the method being built.
type Self struct{ Claz symbols.Sym }

// IntLit is an integer constant.
type IntLit struct{ Value int64 }

// FloatLit is a floating-point constant.
type FloatLit struct{ Value float64 }

// StringLit is a string constant.
type StringLit struct{ Value string }

// BoolLit is a boolean constant.
type BoolLit struct{ Value bool }

// Nil is the nil constant.
type Nil struct{}

// ArraySplat is a splat placeholder over What.
type ArraySplat struct{ What symbols.Sym }

// HashSplat is a splat placeholder over What.
type HashSplat struct{ What symbols.Sym }

// NotSupported marks an AST node outside the recognized set. It is emitted,
// not a failure: downstream phases turn it into a diagnostic using Why.
type NotSupported struct{ Why string }

func (Ident) isInstruction()        {}
func (Alias) isInstruction()        {}
func (Send) isInstruction()         {}
func (Super) isInstruction()        {}
func (Return) isInstruction()       {}
func (NamedArg) isInstruction()     {}
func (LoadArg) isInstruction()      {}
func (Self) isInstruction()         {}
func (IntLit) isInstruction()       {}
func (FloatLit) isInstruction()     {}
func (StringLit) isInstruction()    {}
func (BoolLit) isInstruction()      {}
func (Nil) isInstruction()          {}
func (ArraySplat) isInstruction()   {}
func (HashSplat) isInstruction()    {}
func (NotSupported) isInstruction() {}

// sideEffectFree is exactly the instruction set spec.md's dead-store pass
// may remove when its binding's target goes unread.
func sideEffectFree(instr Instruction) bool {
	switch instr.(type) {
	case Ident, ArraySplat, HashSplat, BoolLit, StringLit, IntLit, FloatLit, Self, LoadArg, NamedArg:
		return true
	default:
		return false
	}
}
