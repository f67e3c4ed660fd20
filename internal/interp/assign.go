package interp

import (
	"math/rand"
	"sort"

	"github.com/restruct-labs/restruct/internal/cast"
)

// FreeVars returns the variable references in e, name-sorted with
// their types. When a name occurs with several types the first one
// seen wins; random assignments only need a representative.
func FreeVars(e cast.Expr) []cast.Param {
	seen := make(map[string]cast.Type)
	var names []string
	cast.WalkExpr(e, func(sub cast.Expr) {
		if v, ok := sub.(*cast.VarRef); ok {
			if _, dup := seen[v.Name]; !dup {
				seen[v.Name] = v.Typ
				names = append(names, v.Name)
			}
		}
	})
	sort.Strings(names)
	out := make([]cast.Param, 0, len(names))
	for _, n := range names {
		out = append(out, cast.Param{Name: n, Typ: seen[n]})
	}
	return out
}

// RandomValue draws a value of type t. Small magnitudes are favored so
// comparisons and equalities get exercised on both sides.
func RandomValue(rng *rand.Rand, t cast.Type) Value {
	switch t.Kind {
	case cast.TypeBool:
		return MakeBool(rng.Intn(2) == 1)
	case cast.TypeInt:
		var v int64
		switch rng.Intn(3) {
		case 0:
			v = int64(rng.Intn(7)) - 3
		case 1:
			v = int64(rng.Intn(1 << 16))
		default:
			v = int64(rng.Uint64())
		}
		return MakeInt(v, t)
	case cast.TypeFloat:
		return FloatVal{V: rng.NormFloat64() * 100}
	default:
		return Unknown{}
	}
}

// RandomEnv assigns random values to every free variable of e.
func RandomEnv(rng *rand.Rand, e cast.Expr) Env {
	env := make(Env)
	for _, p := range FreeVars(e) {
		env[p.Name] = RandomValue(rng, p.Typ)
	}
	return env
}

// EquivalentUnder reports whether a and b evaluate identically under
// env; ok is false when either side is Unknown there.
func EquivalentUnder(a, b cast.Expr, env Env) (same, ok bool) {
	ta, aok := Truth(Eval(a, env))
	tb, bok := Truth(Eval(b, env))
	if !aok || !bok {
		return false, false
	}
	return ta == tb, true
}
