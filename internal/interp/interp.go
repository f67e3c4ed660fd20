// Package interp evaluates expressions over concrete variable
// assignments with C semantics: fixed-width two's-complement integers,
// signedness-aware comparison and division, short-circuit logic.
// Anything it cannot decide it reports as Unknown rather than guessing.
//
// The evaluator backs constant folding, the concrete oracle session,
// and the random-assignment soundness tests.
package interp

import (
	"math"

	"github.com/restruct-labs/restruct/internal/cast"
)

// Value is a runtime value: a fixed-width integer, a float, a string,
// or Unknown.
type Value interface {
	isValue()
}

// IntVal holds the raw bit pattern truncated to Bits.
type IntVal struct {
	Bits   int
	Signed bool
	V      uint64
}

func (IntVal) isValue() {}

// Int64 returns the value sign-extended for signed widths and
// zero-extended otherwise.
func (v IntVal) Int64() int64 {
	if v.Signed {
		return signExtend(v.V, v.Bits)
	}
	return int64(v.V)
}

// FloatVal is a floating-point runtime value.
type FloatVal struct {
	V float64
}

func (FloatVal) isValue() {}

// StrVal is a string runtime value.
type StrVal struct {
	V string
}

func (StrVal) isValue() {}

// Unknown marks a value the evaluator cannot determine.
type Unknown struct{}

func (Unknown) isValue() {}

// Env maps variable names to values.
type Env map[string]Value

// mask truncates v to the given width.
func mask(v uint64, bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return v
	}
	return v & (1<<uint(bits) - 1)
}

// signExtend interprets the low bits of v as a signed integer.
func signExtend(v uint64, bits int) int64 {
	if bits <= 0 || bits >= 64 {
		return int64(v)
	}
	shift := uint(64 - bits)
	return int64(v<<shift) >> shift
}

// MakeInt builds an IntVal of the given type from a signed value.
func MakeInt(v int64, t cast.Type) IntVal {
	bits := t.Bits
	if bits == 0 {
		bits = 64
	}
	return IntVal{Bits: bits, Signed: t.Signed || t.Kind == cast.TypeBool, V: mask(uint64(v), bits)}
}

// MakeBool builds the canonical boolean IntVal.
func MakeBool(b bool) IntVal {
	if b {
		return IntVal{Bits: 1, V: 1}
	}
	return IntVal{Bits: 1, V: 0}
}

// Truth reports the truthiness of v; ok is false for Unknown and
// non-scalar values.
func Truth(v Value) (truth, ok bool) {
	switch x := v.(type) {
	case IntVal:
		return x.V != 0, true
	case FloatVal:
		return x.V != 0, true
	default:
		return false, false
	}
}

// Equal reports whether two known values are equal. Unknown never
// equals anything, itself included.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case IntVal:
		y, ok := b.(IntVal)
		return ok && x.V == y.V
	case FloatVal:
		y, ok := b.(FloatVal)
		return ok && x.V == y.V
	case StrVal:
		y, ok := b.(StrVal)
		return ok && x.V == y.V
	default:
		return false
	}
}

// Eval evaluates e under env. Variables absent from env, calls, member
// and array loads evaluate to Unknown; Unknown propagates except where
// short-circuiting or branch agreement decides the result anyway.
func Eval(e cast.Expr, env Env) Value {
	switch x := e.(type) {
	case *cast.IntLit:
		return MakeInt(x.Val, x.Typ)
	case *cast.FloatLit:
		return FloatVal{V: x.Val}
	case *cast.StringLit:
		return StrVal{V: x.Val}
	case *cast.VarRef:
		if v, ok := env[x.Name]; ok {
			return v
		}
		return Unknown{}
	case *cast.Unary:
		return evalUnary(x, env)
	case *cast.Binary:
		return evalBinary(x, env)
	case *cast.CastExpr:
		return evalCast(x, env)
	case *cast.Member, *cast.Index, *cast.Call:
		return Unknown{}
	case *cast.Ternary:
		cond := Eval(x.Cond, env)
		thenV := Eval(x.Then, env)
		elseV := Eval(x.Else, env)
		if truth, ok := Truth(cond); ok {
			if truth {
				return thenV
			}
			return elseV
		}
		// Guard unknown: decidable only when both arms agree.
		if _, unk := thenV.(Unknown); !unk && Equal(thenV, elseV) {
			return thenV
		}
		return Unknown{}
	default:
		return Unknown{}
	}
}

func evalUnary(e *cast.Unary, env Env) Value {
	v := Eval(e.X, env)
	switch e.Op {
	case cast.OpLNot:
		if truth, ok := Truth(v); ok {
			return MakeBool(!truth)
		}
	case cast.OpNeg:
		switch x := v.(type) {
		case IntVal:
			return IntVal{Bits: x.Bits, Signed: x.Signed, V: mask(-x.V, x.Bits)}
		case FloatVal:
			return FloatVal{V: -x.V}
		}
	case cast.OpBitNot:
		if x, ok := v.(IntVal); ok {
			return IntVal{Bits: x.Bits, Signed: x.Signed, V: mask(^x.V, x.Bits)}
		}
	}
	return Unknown{}
}

func evalBinary(e *cast.Binary, env Env) Value {
	if e.Op.IsLogical() {
		return evalLogical(e, env)
	}

	lv := Eval(e.X, env)
	rv := Eval(e.Y, env)

	if lf, ok := lv.(FloatVal); ok {
		if rf, ok := rv.(FloatVal); ok {
			return evalFloat(e.Op, lf, rf)
		}
		return Unknown{}
	}

	li, lok := lv.(IntVal)
	ri, rok := rv.(IntVal)
	if !lok || !rok {
		return Unknown{}
	}
	return evalInt(e.Op, li, ri)
}

// evalLogical applies && and || with short-circuit semantics. An
// unknown operand still yields a result when the other operand forces
// one; expressions reaching the evaluator are side-effect free, so the
// reordering is safe.
func evalLogical(e *cast.Binary, env Env) Value {
	lt, lok := Truth(Eval(e.X, env))
	rt, rok := Truth(Eval(e.Y, env))
	switch e.Op {
	case cast.OpLAnd:
		if (lok && !lt) || (rok && !rt) {
			return MakeBool(false)
		}
		if lok && rok {
			return MakeBool(lt && rt)
		}
	case cast.OpLOr:
		if (lok && lt) || (rok && rt) {
			return MakeBool(true)
		}
		if lok && rok {
			return MakeBool(lt || rt)
		}
	}
	return Unknown{}
}

func evalInt(op cast.BinaryOp, a, b IntVal) Value {
	bits := a.Bits
	if b.Bits > bits {
		bits = b.Bits
	}
	signed := a.Signed && b.Signed
	wrap := func(v uint64) Value {
		return IntVal{Bits: bits, Signed: signed, V: mask(v, bits)}
	}
	sa, sb := signExtend(a.V, a.Bits), signExtend(b.V, b.Bits)

	switch op {
	case cast.OpAdd:
		return wrap(a.V + b.V)
	case cast.OpSub:
		return wrap(a.V - b.V)
	case cast.OpMul:
		return wrap(a.V * b.V)
	case cast.OpDiv:
		if b.V == 0 {
			return Unknown{}
		}
		if signed {
			if sb == 0 {
				return Unknown{}
			}
			return wrap(uint64(sa / sb))
		}
		return wrap(a.V / b.V)
	case cast.OpRem:
		if b.V == 0 {
			return Unknown{}
		}
		if signed {
			if sb == 0 {
				return Unknown{}
			}
			return wrap(uint64(sa % sb))
		}
		return wrap(a.V % b.V)
	case cast.OpAnd:
		return wrap(a.V & b.V)
	case cast.OpOr:
		return wrap(a.V | b.V)
	case cast.OpXor:
		return wrap(a.V ^ b.V)
	case cast.OpShl:
		if b.V >= uint64(bits) {
			return Unknown{}
		}
		return wrap(a.V << b.V)
	case cast.OpShr:
		if b.V >= uint64(bits) {
			return Unknown{}
		}
		if signed {
			return wrap(uint64(sa >> b.V))
		}
		return wrap(a.V >> b.V)
	case cast.OpEq:
		return MakeBool(a.V == b.V)
	case cast.OpNe:
		return MakeBool(a.V != b.V)
	case cast.OpLt:
		if signed {
			return MakeBool(sa < sb)
		}
		return MakeBool(a.V < b.V)
	case cast.OpLe:
		if signed {
			return MakeBool(sa <= sb)
		}
		return MakeBool(a.V <= b.V)
	case cast.OpGt:
		if signed {
			return MakeBool(sa > sb)
		}
		return MakeBool(a.V > b.V)
	case cast.OpGe:
		if signed {
			return MakeBool(sa >= sb)
		}
		return MakeBool(a.V >= b.V)
	default:
		return Unknown{}
	}
}

func evalFloat(op cast.BinaryOp, a, b FloatVal) Value {
	switch op {
	case cast.OpAdd:
		return FloatVal{V: a.V + b.V}
	case cast.OpSub:
		return FloatVal{V: a.V - b.V}
	case cast.OpMul:
		return FloatVal{V: a.V * b.V}
	case cast.OpDiv:
		if b.V == 0 {
			return Unknown{}
		}
		return FloatVal{V: a.V / b.V}
	case cast.OpEq:
		return MakeBool(a.V == b.V)
	case cast.OpNe:
		return MakeBool(a.V != b.V)
	case cast.OpLt:
		return MakeBool(a.V < b.V)
	case cast.OpLe:
		return MakeBool(a.V <= b.V)
	case cast.OpGt:
		return MakeBool(a.V > b.V)
	case cast.OpGe:
		return MakeBool(a.V >= b.V)
	default:
		return Unknown{}
	}
}

func evalCast(e *cast.CastExpr, env Env) Value {
	v := Eval(e.X, env)
	switch e.To.Kind {
	case cast.TypeInt, cast.TypeBool:
		bits := e.To.Bits
		if bits == 0 {
			bits = 64
		}
		switch x := v.(type) {
		case IntVal:
			// Sign-extend when widening from a signed source.
			raw := x.V
			if x.Signed && bits > x.Bits {
				raw = uint64(signExtend(x.V, x.Bits))
			}
			if e.To.Kind == cast.TypeBool {
				return MakeBool(mask(raw, bits) != 0)
			}
			return IntVal{Bits: bits, Signed: e.To.Signed, V: mask(raw, bits)}
		case FloatVal:
			if math.IsNaN(x.V) || math.IsInf(x.V, 0) {
				return Unknown{}
			}
			return IntVal{Bits: bits, Signed: e.To.Signed, V: mask(uint64(int64(x.V)), bits)}
		}
	case cast.TypeFloat:
		switch x := v.(type) {
		case IntVal:
			if x.Signed {
				return FloatVal{V: float64(signExtend(x.V, x.Bits))}
			}
			return FloatVal{V: float64(x.V)}
		case FloatVal:
			return x
		}
	}
	return Unknown{}
}
