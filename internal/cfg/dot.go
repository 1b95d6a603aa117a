package cfg

import (
	"fmt"
	"strings"

	"github.com/lattice-lang/latticec/internal/symbols"
)

// String renders the whole graph as a DOT subgraph cluster: one node per
// block, an edge for thenb always, and a second edge for elseb only when
// the terminator is a real conditional (elseb != thenb). Entry is drawn
// invhouse, the dead block parallelogram, everything else the default box.
func (g *CFG) String(ctx *symbols.Context) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "subgraph cluster_%s {\n", symbolLabel(ctx, g.Symbol))

	for _, b := range g.BasicBlocks {
		fmt.Fprintf(&sb, "  %s\n", b.nodeDecl(ctx, g))
	}
	for _, b := range g.BasicBlocks {
		if b == g.DeadBlock() {
			continue
		}
		then := b.Then()
		els := b.Else()
		fmt.Fprintf(&sb, "  block%d -> block%d;\n", b.ID, then.ID)
		if els != nil && els != then {
			fmt.Fprintf(&sb, "  block%d -> block%d;\n", b.ID, els.ID)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func (b *BasicBlock) nodeDecl(ctx *symbols.Context, g *CFG) string {
	shape := "box"
	switch b {
	case g.Entry():
		shape = "invhouse"
	case g.DeadBlock():
		shape = "parallelogram"
	}
	return fmt.Sprintf("block%d [shape=%s label=%q];", b.ID, shape, b.String(ctx))
}

// String renders a block's argument list and bindings, one per line, the
// way BasicBlock::toString does in the reference implementation.
func (b *BasicBlock) String(ctx *symbols.Context) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "block%d(", b.ID)
	for i, a := range b.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(symbolLabel(ctx, a))
	}
	sb.WriteString(")\n")

	for _, bind := range b.Exprs {
		fmt.Fprintf(&sb, "%s = %s\n", symbolLabel(ctx, bind.Bind), instructionString(ctx, bind.Value))
	}
	return sb.String()
}

func symbolLabel(ctx *symbols.Context, s symbols.Sym) string {
	if !s.Exists() {
		return "<none>"
	}
	info := ctx.Info(s)
	if info.Name != "" {
		return info.Name
	}
	return s.String()
}

// instructionString renders a single instruction the way the original
// CFG's per-variant toString methods do: the variant name followed by its
// operands.
func instructionString(ctx *symbols.Context, instr Instruction) string {
	sym := func(s symbols.Sym) string { return symbolLabel(ctx, s) }
	syms := func(ss []symbols.Sym) string {
		parts := make([]string, len(ss))
		for i, s := range ss {
			parts[i] = sym(s)
		}
		return strings.Join(parts, ", ")
	}

	switch v := instr.(type) {
	case Ident:
		return fmt.Sprintf("Ident(%s)", sym(v.What))
	case Alias:
		return fmt.Sprintf("Alias(%s)", sym(v.What))
	case Send:
		return fmt.Sprintf("Send(%s.%s(%s))", sym(v.Recv), v.Fun, syms(v.Args))
	case Super:
		return fmt.Sprintf("Super(%s)", syms(v.Args))
	case Return:
		return fmt.Sprintf("Return(%s)", sym(v.What))
	case NamedArg:
		return fmt.Sprintf("NamedArg(%s: %s)", v.Name, sym(v.Value))
	case LoadArg:
		return fmt.Sprintf("LoadArg(%s, %s, %d)", sym(v.Receiver), v.Method, v.Index)
	case Self:
		return fmt.Sprintf("Self(%s)", sym(v.Claz))
	case IntLit:
		return fmt.Sprintf("IntLit(%d)", v.Value)
	case FloatLit:
		return fmt.Sprintf("FloatLit(%g)", v.Value)
	case StringLit:
		return fmt.Sprintf("StringLit(%q)", v.Value)
	case BoolLit:
		return fmt.Sprintf("BoolLit(%t)", v.Value)
	case Nil:
		return "Nil"
	case ArraySplat:
		return fmt.Sprintf("ArraySplat(%s)", sym(v.What))
	case HashSplat:
		return fmt.Sprintf("HashSplat(%s)", sym(v.What))
	case NotSupported:
		return fmt.Sprintf("NotSupported(%q)", v.Why)
	default:
		return "<unknown instruction>"
	}
}
