package oracle

import (
	"fmt"

	"github.com/mitchellh/go-z3"

	"github.com/restruct-labs/restruct/internal/cast"
)

// converter translates tree expressions into Z3 terms. The contract:
//
//   - booleans become Bool-sorted formulas, integers Int-sorted terms;
//   - integer variables get range assumptions matching their width and
//     signedness (collected in bounds, asserted with every query);
//   - signed arithmetic is modeled wrap-free: signed overflow is
//     undefined in the source language, so reasoning as over the
//     mathematical integers is sound for well-defined programs;
//   - unsigned wrap is well defined but not representable over the Int
//     sort, so unsigned arithmetic, bitwise operators, shifts,
//     division, casts that can change a value, and memory loads all
//     become uninterpreted constants; deterministic subterms are
//     keyed structurally so equal text maps to the same constant,
//     while calls stay distinct per node instance;
//   - floating-point and string guards are not translated at all; a
//     query containing one is answered Unknown.
//
// A converter is query-scoped; the bounds slice and constant pool die
// with the query.
type converter struct {
	ctx      *z3.Context
	intSort  *z3.Sort
	boolSort *z3.Sort

	bounds []*z3.AST
	seen   map[string]*z3.AST
}

func newConverter(ctx *z3.Context) *converter {
	return &converter{
		ctx:      ctx,
		intSort:  ctx.IntSort(),
		boolSort: ctx.BoolSort(),
		seen:     make(map[string]*z3.AST),
	}
}

func (c *converter) intConst(key string) *z3.AST {
	if t, ok := c.seen[key]; ok {
		return t
	}
	t := c.ctx.Const(c.ctx.Symbol(key), c.intSort)
	c.seen[key] = t
	return t
}

// opaque returns the uninterpreted constant standing for e.
// Deterministic expressions share one constant per structural text;
// call-bearing expressions get one per node instance.
func (c *converter) opaque(e cast.Expr) *z3.AST {
	if cast.HasCall(e) {
		return c.intConst(fmt.Sprintf("$call.%d", e.ID()))
	}
	return c.intConst("$term." + e.String())
}

// boundVar introduces the Int constant for an integer variable and
// records its range assumption once.
func (c *converter) boundVar(name string, t cast.Type) *z3.AST {
	key := "$var." + name
	if v, ok := c.seen[key]; ok {
		return v
	}
	v := c.ctx.Const(c.ctx.Symbol(key), c.intSort)
	c.seen[key] = v

	bits := t.Bits
	if t.Signed {
		if bits > 0 && bits < 64 {
			lo := c.ctx.Int(int(-(int64(1) << uint(bits-1))), c.intSort)
			hi := c.ctx.Int(int((int64(1)<<uint(bits-1))-1), c.intSort)
			c.bounds = append(c.bounds, v.Ge(lo), v.Le(hi))
		}
	} else {
		zero := c.ctx.Int(0, c.intSort)
		c.bounds = append(c.bounds, v.Ge(zero))
		if bits > 0 && bits < 63 {
			hi := c.ctx.Int(int((int64(1)<<uint(bits))-1), c.intSort)
			c.bounds = append(c.bounds, v.Le(hi))
		}
	}
	return v
}

// isBoolShaped reports whether e should be translated as a formula
// rather than a term.
func isBoolShaped(e cast.Expr) bool {
	switch x := e.(type) {
	case *cast.Unary:
		return x.Op == cast.OpLNot
	case *cast.Binary:
		return x.Op.IsComparison() || x.Op.IsLogical()
	default:
		return e.Type().Kind == cast.TypeBool
	}
}

// boolFormula translates e as a guard. ok is false when e reaches
// outside the translatable fragment.
func (c *converter) boolFormula(e cast.Expr) (*z3.AST, bool) {
	switch x := e.(type) {
	case *cast.IntLit:
		if x.Val != 0 {
			return c.ctx.True(), true
		}
		return c.ctx.False(), true
	case *cast.Unary:
		if x.Op == cast.OpLNot {
			f, ok := c.boolFormula(x.X)
			if !ok {
				return nil, false
			}
			return f.Not(), true
		}
	case *cast.Binary:
		switch {
		case x.Op.IsLogical():
			fx, ok := c.boolFormula(x.X)
			if !ok {
				return nil, false
			}
			fy, ok := c.boolFormula(x.Y)
			if !ok {
				return nil, false
			}
			if x.Op == cast.OpLAnd {
				return fx.And(fy), true
			}
			return fx.Or(fy), true
		case x.Op.IsComparison():
			return c.comparison(x)
		}
	case *cast.Ternary:
		fc, ok := c.boolFormula(x.Cond)
		if !ok {
			return nil, false
		}
		ft, ok := c.boolFormula(x.Then)
		if !ok {
			return nil, false
		}
		fe, ok := c.boolFormula(x.Else)
		if !ok {
			return nil, false
		}
		return fc.And(ft).Or(fc.Not().And(fe)), true
	}

	// Fall back to term != 0.
	t, ok := c.intTerm(e)
	if !ok {
		return nil, false
	}
	return t.Eq(c.ctx.Int(0, c.intSort)).Not(), true
}

func (c *converter) comparison(e *cast.Binary) (*z3.AST, bool) {
	// Boolean operands compare as formulas.
	if isBoolShaped(e.X) || isBoolShaped(e.Y) {
		if e.Op != cast.OpEq && e.Op != cast.OpNe {
			return nil, false
		}
		fx, ok := c.boolFormula(e.X)
		if !ok {
			return nil, false
		}
		fy, ok := c.boolFormula(e.Y)
		if !ok {
			return nil, false
		}
		if e.Op == cast.OpEq {
			return fx.Iff(fy), true
		}
		return fx.Iff(fy).Not(), true
	}

	tx, ok := c.intTerm(e.X)
	if !ok {
		return nil, false
	}
	ty, ok := c.intTerm(e.Y)
	if !ok {
		return nil, false
	}
	switch e.Op {
	case cast.OpEq:
		return tx.Eq(ty), true
	case cast.OpNe:
		return tx.Eq(ty).Not(), true
	case cast.OpLt:
		return tx.Lt(ty), true
	case cast.OpLe:
		return tx.Le(ty), true
	case cast.OpGt:
		return tx.Gt(ty), true
	case cast.OpGe:
		return tx.Ge(ty), true
	}
	return nil, false
}

// intTerm translates e as an Int-sorted term.
func (c *converter) intTerm(e cast.Expr) (*z3.AST, bool) {
	switch x := e.(type) {
	case *cast.IntLit:
		if !x.Typ.Signed && x.Val < 0 {
			// Unsigned value above 2^63 does not fit the binding's
			// literal constructor.
			return nil, false
		}
		return c.ctx.Int(int(x.Val), c.intSort), true
	case *cast.FloatLit, *cast.StringLit:
		return nil, false
	case *cast.VarRef:
		switch x.Typ.Kind {
		case cast.TypeInt:
			return c.boundVar(x.Name, x.Typ), true
		case cast.TypeBool:
			// Treated as 0/1-bounded.
			return c.boundVar(x.Name, cast.Type{Kind: cast.TypeInt, Bits: 1}), true
		case cast.TypePointer:
			return c.intConst("$var." + x.Name), true
		}
		return nil, false
	case *cast.Unary:
		switch x.Op {
		case cast.OpNeg:
			t, ok := c.intTerm(x.X)
			if !ok {
				return nil, false
			}
			return c.ctx.Int(0, c.intSort).Sub(t), true
		case cast.OpBitNot:
			return c.opaque(e), true
		}
		return nil, false
	case *cast.Binary:
		switch x.Op {
		case cast.OpAdd, cast.OpSub, cast.OpMul:
			if !signedArith(x) {
				return c.opaque(e), true
			}
			tx, ok := c.intTerm(x.X)
			if !ok {
				return nil, false
			}
			ty, ok := c.intTerm(x.Y)
			if !ok {
				return nil, false
			}
			switch x.Op {
			case cast.OpAdd:
				return tx.Add(ty), true
			case cast.OpSub:
				return tx.Sub(ty), true
			default:
				return tx.Mul(ty), true
			}
		case cast.OpDiv, cast.OpRem, cast.OpAnd, cast.OpOr, cast.OpXor, cast.OpShl, cast.OpShr:
			return c.opaque(e), true
		}
		return nil, false
	case *cast.CastExpr:
		src := x.X.Type()
		if x.To.Kind == cast.TypeInt && src.Kind == cast.TypeInt &&
			x.To.Signed == src.Signed && x.To.Bits >= src.Bits {
			// Value-preserving widening passes through.
			return c.intTerm(x.X)
		}
		return c.opaque(e), true
	case *cast.Member, *cast.Index, *cast.Call:
		return c.opaque(e), true
	default:
		return nil, false
	}
}

// signedArith reports whether both operands of an arithmetic node are
// signed integers, the fragment modeled wrap-free.
func signedArith(e *cast.Binary) bool {
	xt, yt := e.X.Type(), e.Y.Type()
	return xt.Kind == cast.TypeInt && xt.Signed && yt.Kind == cast.TypeInt && yt.Signed
}
