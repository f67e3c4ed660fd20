package transform

import (
	"github.com/restruct-labs/restruct/internal/cast"
	"github.com/restruct-labs/restruct/internal/interp"
)

// ConstFold replaces closed subexpressions with their literal value
// using the concrete evaluator. It runs with an empty environment, so
// only variable-free, call-free subtrees fold; a ternary whose guard
// folded to a literal additionally collapses to the selected branch.
type ConstFold struct {
	b *cast.Builder
}

func NewConstFold(b *cast.Builder) *ConstFold {
	return &ConstFold{b: b}
}

func (p *ConstFold) Name() string { return "const-fold" }

func (p *ConstFold) Run(fn *cast.Function) (bool, error) {
	changed := false
	cast.WalkStmt(fn.Body, func(s cast.Stmt) {
		switch x := s.(type) {
		case *cast.If:
			x.Cond = p.fold(x.Cond, &changed)
		case *cast.While:
			x.Cond = p.fold(x.Cond, &changed)
		case *cast.DoWhile:
			x.Cond = p.fold(x.Cond, &changed)
		case *cast.Return:
			if x.Value != nil {
				x.Value = p.fold(x.Value, &changed)
			}
		case *cast.Decl:
			if x.Init != nil {
				x.Init = p.fold(x.Init, &changed)
			}
		case *cast.ExprStmt:
			x.X = p.fold(x.X, &changed)
		}
	})
	return changed, nil
}

// fold rewrites e bottom-up and returns its replacement.
func (p *ConstFold) fold(e cast.Expr, changed *bool) cast.Expr {
	switch x := e.(type) {
	case *cast.IntLit, *cast.FloatLit, *cast.StringLit, *cast.VarRef:
		return e
	case *cast.Unary:
		x.X = p.fold(x.X, changed)
	case *cast.Binary:
		x.X = p.fold(x.X, changed)
		x.Y = p.fold(x.Y, changed)
	case *cast.CastExpr:
		x.X = p.fold(x.X, changed)
	case *cast.Member:
		x.X = p.fold(x.X, changed)
		return e
	case *cast.Index:
		x.X = p.fold(x.X, changed)
		x.Idx = p.fold(x.Idx, changed)
		return e
	case *cast.Call:
		for i, a := range x.Args {
			x.Args[i] = p.fold(a, changed)
		}
		return e
	case *cast.Ternary:
		x.Cond = p.fold(x.Cond, changed)
		// A decided guard selects one branch; the other is never
		// evaluated and drops without losing effects.
		if lit, ok := x.Cond.(*cast.IntLit); ok {
			*changed = true
			branch := x.Then
			if !lit.IsTrue() {
				branch = x.Else
			}
			return p.fold(branch, changed)
		}
		x.Then = p.fold(x.Then, changed)
		x.Else = p.fold(x.Else, changed)
	}
	// The evaluator decides short-circuit connectives and agreeing
	// ternary branches without visiting every operand, so a decided
	// value can still contain an unevaluated call. Folding it would
	// erase the call.
	if cast.HasCall(e) {
		return e
	}
	switch val := interp.Eval(e, nil).(type) {
	case interp.IntVal:
		*changed = true
		return p.b.IntLit(val.Int64(), e.Type())
	case interp.FloatVal:
		*changed = true
		return p.b.FloatLit(val.V, e.Type())
	}
	return e
}
