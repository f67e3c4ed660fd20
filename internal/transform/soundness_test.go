package transform

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/restruct-labs/restruct/internal/cast"
	"github.com/restruct-labs/restruct/internal/interp"
	"github.com/restruct-labs/restruct/internal/provenance"
)

// randomGuard builds a boolean expression over two int variables with
// enough constant leaves that the simplifier finds something to do.
func randomGuard(rng *rand.Rand, b *cast.Builder, depth int) cast.Expr {
	if depth == 0 {
		switch rng.Intn(3) {
		case 0:
			return b.Binary(cast.OpLt, b.VarRef("x", cast.Int32), b.IntLit(int64(rng.Intn(5)), cast.Int32))
		case 1:
			return b.Binary(cast.OpEq, b.VarRef("y", cast.Int32), b.VarRef("x", cast.Int32))
		default:
			return b.Binary(cast.OpGt, b.IntLit(int64(rng.Intn(4)), cast.Int32), b.IntLit(int64(rng.Intn(4)), cast.Int32))
		}
	}
	switch rng.Intn(3) {
	case 0:
		return b.Not(randomGuard(rng, b, depth-1))
	case 1:
		return b.Binary(cast.OpLAnd, randomGuard(rng, b, depth-1), randomGuard(rng, b, depth-1))
	default:
		return b.Binary(cast.OpLOr, randomGuard(rng, b, depth-1), randomGuard(rng, b, depth-1))
	}
}

// Simplified guards must evaluate like the originals under every
// assignment, and a collapsed branch must mean the original guard was
// constant.
func TestSimplifyPreservesGuardSemantics(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		b := cast.NewBuilder()
		p := newSimplifier(t, b, provenance.NewMap())

		guard := randomGuard(rng, b, 1+rng.Intn(3))
		original := cast.CloneExpr(b, guard)
		then := b.Compound(b.Return(b.IntLit(1, cast.Int32)))
		fn := wrapFn(b, b.If(guard, then, nil))

		_, err := p.Run(fn)
		require.NoError(t, err)
		require.Len(t, fn.Body.Stmts, 1)

		for trial := 0; trial < 32; trial++ {
			env := interp.RandomEnv(rng, original)
			want, ok := interp.Truth(interp.Eval(original, env))
			require.True(t, ok, "round %d: original guard must be decidable under a full env", round)

			switch stmt := fn.Body.Stmts[0].(type) {
			case *cast.If:
				got, ok := interp.Truth(interp.Eval(stmt.Cond, env))
				require.True(t, ok)
				require.Equal(t, want, got, "round %d trial %d: guard changed meaning", round, trial)
			case *cast.Compound:
				require.True(t, want, "round %d: branch kept but guard is falsifiable", round)
			case *cast.Null:
				require.False(t, want, "round %d: branch dropped but guard is satisfiable", round)
			default:
				t.Fatalf("round %d: unexpected statement %T", round, stmt)
			}
		}
	}
}
