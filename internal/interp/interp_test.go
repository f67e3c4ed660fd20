package interp

import (
	"math/rand"
	"testing"

	"github.com/restruct-labs/restruct/internal/cast"
)

func TestIntArithmeticWraps(t *testing.T) {
	b := cast.NewBuilder()
	// 255 + 1 wraps to 0 at 8 bits unsigned
	e := b.Binary(cast.OpAdd, b.IntLit(255, cast.UInt8), b.IntLit(1, cast.UInt8))
	v := Eval(e, nil)
	iv, ok := v.(IntVal)
	if !ok || iv.V != 0 {
		t.Fatalf("expected wrapped 0, got %#v", v)
	}
}

func TestSignedVsUnsignedComparison(t *testing.T) {
	b := cast.NewBuilder()
	// -1 < 0 signed, but 0xffffffff > 0 unsigned
	signed := b.Binary(cast.OpLt, b.IntLit(-1, cast.Int32), b.IntLit(0, cast.Int32))
	if truth, ok := Truth(Eval(signed, nil)); !ok || !truth {
		t.Fatalf("signed -1 < 0 should be true")
	}
	unsigned := b.Binary(cast.OpLt, b.IntLit(-1, cast.UInt32), b.IntLit(0, cast.UInt32))
	if truth, ok := Truth(Eval(unsigned, nil)); !ok || truth {
		t.Fatalf("unsigned 0xffffffff < 0 should be false")
	}
}

func TestDivisionByZeroIsUnknown(t *testing.T) {
	b := cast.NewBuilder()
	e := b.Binary(cast.OpDiv, b.IntLit(4, cast.Int32), b.IntLit(0, cast.Int32))
	if _, ok := Eval(e, nil).(Unknown); !ok {
		t.Fatalf("division by zero must be Unknown")
	}
}

func TestShortCircuitWithUnknownOperand(t *testing.T) {
	b := cast.NewBuilder()
	// unknown && false is false
	e := b.Binary(cast.OpLAnd, b.VarRef("x", cast.Bool), b.IntLit(0, cast.Bool))
	if truth, ok := Truth(Eval(e, nil)); !ok || truth {
		t.Fatalf("x && false should be known false")
	}
	// unknown || true is true
	e = b.Binary(cast.OpLOr, b.VarRef("x", cast.Bool), b.IntLit(1, cast.Bool))
	if truth, ok := Truth(Eval(e, nil)); !ok || !truth {
		t.Fatalf("x || true should be known true")
	}
	// unknown && true stays unknown
	e = b.Binary(cast.OpLAnd, b.VarRef("x", cast.Bool), b.IntLit(1, cast.Bool))
	if _, ok := Eval(e, nil).(Unknown); !ok {
		t.Fatalf("x && true must stay Unknown")
	}
}

func TestCallsAreOpaque(t *testing.T) {
	b := cast.NewBuilder()
	e := b.Binary(cast.OpGt, b.Call("rand", cast.Int32), b.IntLit(0, cast.Int32))
	if _, ok := Eval(e, nil).(Unknown); !ok {
		t.Fatalf("calls must evaluate to Unknown")
	}
}

func TestCastTruncatesAndExtends(t *testing.T) {
	b := cast.NewBuilder()
	// (u8)300 == 44
	e := b.Binary(cast.OpEq,
		b.Cast(cast.UInt8, b.IntLit(300, cast.Int32)),
		b.IntLit(44, cast.UInt8))
	if truth, ok := Truth(Eval(e, nil)); !ok || !truth {
		t.Fatalf("(u8)300 should equal 44")
	}
	// (i64)(i8)-1 == -1 (sign extension)
	e = b.Binary(cast.OpEq,
		b.Cast(cast.Int64, b.IntLit(-1, cast.Int8)),
		b.IntLit(-1, cast.Int64))
	if truth, ok := Truth(Eval(e, nil)); !ok || !truth {
		t.Fatalf("sign extension lost")
	}
}

func TestTernaryAgreementDespiteUnknownGuard(t *testing.T) {
	b := cast.NewBuilder()
	e := b.Ternary(b.VarRef("c", cast.Bool), b.IntLit(7, cast.Int32), b.IntLit(7, cast.Int32))
	v, ok := Eval(e, nil).(IntVal)
	if !ok || v.V != 7 {
		t.Fatalf("both-arms-agree ternary should fold, got %#v", v)
	}
}

func TestRandomEnvCoversFreeVars(t *testing.T) {
	b := cast.NewBuilder()
	e := b.Binary(cast.OpLAnd,
		b.Binary(cast.OpLt, b.VarRef("x", cast.Int32), b.VarRef("y", cast.Int32)),
		b.VarRef("flag", cast.Bool))
	rng := rand.New(rand.NewSource(1))
	env := RandomEnv(rng, e)
	for _, name := range []string{"x", "y", "flag"} {
		if _, ok := env[name]; !ok {
			t.Fatalf("missing assignment for %s", name)
		}
	}
	if _, ok := Eval(e, env).(Unknown); ok {
		t.Fatalf("fully assigned guard should evaluate")
	}
}

func TestDeMorganHoldsUnderRandomAssignments(t *testing.T) {
	b := cast.NewBuilder()
	x := func() cast.Expr { return b.VarRef("x", cast.Bool) }
	y := func() cast.Expr { return b.VarRef("y", cast.Bool) }
	lhs := b.Not(b.Binary(cast.OpLAnd, x(), y()))
	rhs := b.Binary(cast.OpLOr, b.Not(x()), b.Not(y()))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		env := RandomEnv(rng, lhs)
		same, ok := EquivalentUnder(lhs, rhs, env)
		if !ok {
			t.Fatalf("boolean guard should always evaluate")
		}
		if !same {
			t.Fatalf("De Morgan violated under %v", env)
		}
	}
}
