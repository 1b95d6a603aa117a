package symbols

import (
	"testing"

	"github.com/lattice-lang/latticec/internal/source"
)

func TestSentinelsAreDistinctAndExist(t *testing.T) {
	ctx := NewContext()

	sentinels := []Sym{ctx.Always(), ctx.Never(), ctx.BlockCall(), ctx.Todo()}
	seen := make(map[ID]bool)
	for _, s := range sentinels {
		if !s.Exists() {
			t.Fatalf("sentinel %v does not exist", s)
		}
		if seen[s.ID()] {
			t.Fatalf("sentinel %v reused an ID", s)
		}
		seen[s.ID()] = true
	}
}

func TestNewTemporaryMintsDistinctLocalSyntheticSymbols(t *testing.T) {
	ctx := NewContext()
	owner := ctx.NewMethodSymbol("foo", Sym{}, source.Loc{}, nil)

	a := ctx.NewTemporary(IfTemp, owner, source.Loc{})
	b := ctx.NewTemporary(IfTemp, owner, source.Loc{})

	if a.ID() == b.ID() {
		t.Fatalf("expected distinct temporaries, got %v and %v", a, b)
	}

	for _, s := range []Sym{a, b} {
		info := ctx.Info(s)
		if !info.IsLocalVariable {
			t.Errorf("%v: want IsLocalVariable", s)
		}
		if !info.IsSyntheticTemporary {
			t.Errorf("%v: want IsSyntheticTemporary", s)
		}
		if info.MinLoops != MinLoopsUnset {
			t.Errorf("%v: want MinLoops unset, got %d", s, info.MinLoops)
		}
	}
}

func TestNewLocalVariableIsNotSynthetic(t *testing.T) {
	ctx := NewContext()
	owner := ctx.NewMethodSymbol("foo", Sym{}, source.Loc{}, nil)
	x := ctx.NewLocalVariable("x", owner, source.Loc{})

	info := ctx.Info(x)
	if !info.IsLocalVariable {
		t.Error("want IsLocalVariable")
	}
	if info.IsSyntheticTemporary {
		t.Error("want !IsSyntheticTemporary")
	}
}

func TestNewNonLocalIsNotLocalVariable(t *testing.T) {
	ctx := NewContext()
	owner := ctx.NewMethodSymbol("foo", Sym{}, source.Loc{}, nil)
	g := ctx.NewNonLocal("$global", owner, source.Loc{})

	if ctx.Info(g).IsLocalVariable {
		t.Error("non-local symbol must not report IsLocalVariable")
	}
}

func TestMethodSymbolCarriesOrderedArguments(t *testing.T) {
	ctx := NewContext()
	owner := ctx.NewMethodSymbol("foo", Sym{}, source.Loc{}, nil)
	a := ctx.NewLocalVariable("a", owner, source.Loc{})
	b := ctx.NewLocalVariable("b", owner, source.Loc{})

	method := ctx.NewMethodSymbol("bar", Sym{}, source.Loc{}, []Sym{a, b})
	args := ctx.Info(method).Arguments
	if len(args) != 2 || args[0] != a || args[1] != b {
		t.Fatalf("got arguments %v, want [%v %v]", args, a, b)
	}
}

func TestInfoOnZeroSymPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on zero Sym")
		}
	}()
	ctx := NewContext()
	ctx.Info(Sym{})
}
