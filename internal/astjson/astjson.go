// Package astjson is the minimal adapter that turns a serialized method
// description into internal/ast nodes the CFG builder can consume. It
// stands in for the namer/resolver phase spec.md places out of scope: real
// front ends parse source and resolve names against a full symbol table,
// but the builder itself only needs a Context and a closed AST, so this
// package's job is exactly that translation, nothing more.
package astjson

import (
	"encoding/json"
	"fmt"

	"github.com/lattice-lang/latticec/internal/ast"
	"github.com/lattice-lang/latticec/internal/source"
	"github.com/lattice-lang/latticec/internal/symbols"
)

// doc is the on-disk shape of a single *.method.json file.
type doc struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	Locals []string `json:"locals"`
	Body   rawNode  `json:"body"`
}

// rawNode is any node in the body tree; Kind selects which of the other
// fields are populated. Block nodes are only legal as Send.Block.
type rawNode struct {
	Kind string `json:"kind"`

	// Literals.
	Int    *int64   `json:"int,omitempty"`
	Float  *float64 `json:"float,omitempty"`
	String *string  `json:"string,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
	Name   string   `json:"name,omitempty"` // ident / const

	// Assign.
	Lhs string   `json:"lhs,omitempty"`
	Rhs *rawNode `json:"rhs,omitempty"`

	// InsSeq.
	Stats []rawNode `json:"stats,omitempty"`
	Expr  *rawNode  `json:"expr,omitempty"`

	// If / While / Return share Cond/Then/Else/Body/Expr as needed.
	Cond *rawNode `json:"cond,omitempty"`
	Then *rawNode `json:"then,omitempty"`
	Else *rawNode `json:"else,omitempty"`
	Body *rawNode `json:"body,omitempty"`

	// Send.
	Recv  *rawNode   `json:"recv,omitempty"`
	Fun   string     `json:"fun,omitempty"`
	Args  []rawNode  `json:"args,omitempty"`
	Block *blockJSON `json:"block,omitempty"`
}

type blockJSON struct {
	Params []string `json:"params"`
	Body   rawNode  `json:"body"`
}

// loader threads the symbol context and the method's name scope through the
// recursive node conversion, the same role builder plays for lowering.
type loader struct {
	ctx     *symbols.Context
	method  symbols.Sym
	locals  map[string]symbols.Sym
	globals map[string]symbols.Sym
}

// Load parses a single method description and returns a fresh Context
// together with the ast.MethodDef ready to hand to cfg.Build.
func Load(data []byte) (*symbols.Context, *ast.MethodDef, error) {
	var d doc
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, nil, fmt.Errorf("astjson: decode: %w", err)
	}
	if d.Method == "" {
		return nil, nil, fmt.Errorf("astjson: method name is required")
	}

	ctx := symbols.NewContext()
	loc := source.Loc{}

	params := make([]symbols.Sym, len(d.Params))
	locals := make(map[string]symbols.Sym, len(d.Params)+len(d.Locals))
	for i, name := range d.Params {
		sym := ctx.NewLocalVariable(name, symbols.Sym{}, loc)
		params[i] = sym
		locals[name] = sym
	}
	for _, name := range d.Locals {
		if _, exists := locals[name]; exists {
			return nil, nil, fmt.Errorf("astjson: local %q collides with a parameter", name)
		}
		locals[name] = ctx.NewLocalVariable(name, symbols.Sym{}, loc)
	}

	method := ctx.NewMethodSymbol(d.Method, symbols.Sym{}, loc, params)
	l := &loader{ctx: ctx, method: method, locals: locals, globals: make(map[string]symbols.Sym)}
	for _, sym := range locals {
		ctx.Info(sym).Owner = method
	}

	body, err := l.convert(d.Body)
	if err != nil {
		return nil, nil, err
	}

	return ctx, &ast.MethodDef{Symbol: method, Name: d.Method, Body: body, Where: loc}, nil
}

// resolve maps a bare name to a Sym: a declared local/param resolves
// directly, anything else is lazily minted as a non-local, once per name,
// the way a real namer would intern a global or instance-variable slot.
func (l *loader) resolve(name string) symbols.Sym {
	if sym, ok := l.locals[name]; ok {
		return sym
	}
	if sym, ok := l.globals[name]; ok {
		return sym
	}
	sym := l.ctx.NewNonLocal(name, l.method, source.Loc{})
	l.globals[name] = sym
	return sym
}

func (l *loader) convert(n rawNode) (ast.Node, error) {
	where := source.Loc{}

	switch n.Kind {
	case "int":
		if n.Int == nil {
			return nil, fmt.Errorf("astjson: int node missing \"int\"")
		}
		return &ast.IntLit{Value: *n.Int, Where: where}, nil

	case "float":
		if n.Float == nil {
			return nil, fmt.Errorf("astjson: float node missing \"float\"")
		}
		return &ast.FloatLit{Value: *n.Float, Where: where}, nil

	case "string":
		if n.String == nil {
			return nil, fmt.Errorf("astjson: string node missing \"string\"")
		}
		return &ast.StringLit{Value: *n.String, Where: where}, nil

	case "bool":
		if n.Bool == nil {
			return nil, fmt.Errorf("astjson: bool node missing \"bool\"")
		}
		return &ast.BoolLit{Value: *n.Bool, Where: where}, nil

	case "self":
		return &ast.Self{Where: where}, nil

	case "ident":
		if n.Name == "" {
			return nil, fmt.Errorf("astjson: ident node missing \"name\"")
		}
		return &ast.Ident{Symbol: l.resolve(n.Name), Where: where}, nil

	case "const":
		if n.Name == "" {
			return nil, fmt.Errorf("astjson: const node missing \"name\"")
		}
		return &ast.ConstantLit{Name: n.Name, Where: where}, nil

	case "assign":
		if n.Lhs == "" || n.Rhs == nil {
			return nil, fmt.Errorf("astjson: assign node requires \"lhs\" and \"rhs\"")
		}
		lhs, ok := l.locals[n.Lhs]
		if !ok {
			return nil, fmt.Errorf("astjson: assign to undeclared local %q (add it to \"locals\")", n.Lhs)
		}
		rhs, err := l.convert(*n.Rhs)
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Lhs: lhs, Rhs: rhs, Where: where}, nil

	case "seq":
		stats := make([]ast.Node, len(n.Stats))
		for i, s := range n.Stats {
			conv, err := l.convert(s)
			if err != nil {
				return nil, err
			}
			stats[i] = conv
		}
		if n.Expr == nil {
			return nil, fmt.Errorf("astjson: seq node requires \"expr\"")
		}
		expr, err := l.convert(*n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.InsSeq{Stats: stats, Expr: expr, Where: where}, nil

	case "if":
		if n.Cond == nil || n.Then == nil || n.Else == nil {
			return nil, fmt.Errorf("astjson: if node requires \"cond\", \"then\", and \"else\"")
		}
		cond, err := l.convert(*n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := l.convert(*n.Then)
		if err != nil {
			return nil, err
		}
		els, err := l.convert(*n.Else)
		if err != nil {
			return nil, err
		}
		return &ast.If{Cond: cond, Then: then, Else: els, Where: where}, nil

	case "while":
		if n.Cond == nil || n.Body == nil {
			return nil, fmt.Errorf("astjson: while node requires \"cond\" and \"body\"")
		}
		cond, err := l.convert(*n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := l.convert(*n.Body)
		if err != nil {
			return nil, err
		}
		return &ast.While{Cond: cond, Body: body, Where: where}, nil

	case "return":
		if n.Expr == nil {
			return nil, fmt.Errorf("astjson: return node requires \"expr\"")
		}
		expr, err := l.convert(*n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Expr: expr, Where: where}, nil

	case "send":
		if n.Fun == "" {
			return nil, fmt.Errorf("astjson: send node requires \"fun\"")
		}
		var recv ast.Node
		if n.Recv != nil {
			r, err := l.convert(*n.Recv)
			if err != nil {
				return nil, err
			}
			recv = r
		}
		args := make([]ast.Node, len(n.Args))
		for i, a := range n.Args {
			conv, err := l.convert(a)
			if err != nil {
				return nil, err
			}
			args[i] = conv
		}
		var block *ast.Block
		if n.Block != nil {
			b, err := l.convertBlock(*n.Block)
			if err != nil {
				return nil, err
			}
			block = b
		}
		return &ast.Send{Recv: recv, Fun: symbols.Name(n.Fun), Args: args, Block: block, Where: where}, nil

	default:
		return nil, fmt.Errorf("astjson: unrecognized node kind %q", n.Kind)
	}
}

// convertBlock introduces a fresh nested scope for the block's parameters,
// shadowing any outer local of the same name for the duration of its body,
// then restores the outer scope before returning.
func (l *loader) convertBlock(b blockJSON) (*ast.Block, error) {
	where := source.Loc{}
	args := make([]symbols.Sym, len(b.Params))
	saved := make(map[string]symbols.Sym, len(b.Params))
	for i, name := range b.Params {
		if prev, ok := l.locals[name]; ok {
			saved[name] = prev
		}
		sym := l.ctx.NewLocalVariable(name, l.method, where)
		args[i] = sym
		l.locals[name] = sym
	}

	body, err := l.convert(b.Body)

	for _, name := range b.Params {
		if prev, ok := saved[name]; ok {
			l.locals[name] = prev
		} else {
			delete(l.locals, name)
		}
	}

	if err != nil {
		return nil, err
	}
	return &ast.Block{Args: args, Body: body, Where: where}, nil
}
