package oracle

import (
	"math/rand"

	"github.com/restruct-labs/restruct/internal/cast"
	"github.com/restruct-labs/restruct/internal/interp"
)

// ConcreteSession decides queries with the concrete evaluator instead
// of an external solver. It proves exactly the guards that fold to a
// constant and the equivalences between structurally equal
// expressions; everything else is Unknown. Random sampling is used
// only to refuse equivalence early, never to claim it.
//
// It exists so the pipeline stays usable without a Z3 installation and
// so tests exercise the oracle protocol without cgo.
type ConcreteSession struct {
	rng     *rand.Rand
	samples int
}

// NewConcreteSession builds an evaluator-backed session. The Options
// timeout is ignored; evaluation is bounded by construction.
func NewConcreteSession(Options) (Session, error) {
	return &ConcreteSession{rng: rand.New(rand.NewSource(1)), samples: 64}, nil
}

// Prove implements Session. Only constant-foldable tautologies are
// provable concretely.
func (s *ConcreteSession) Prove(e cast.Expr) (bool, error) {
	truth, ok := interp.Truth(interp.Eval(e, nil))
	return ok && truth, nil
}

// Equivalent implements Session. Structural equality is the only
// accepted proof; sampling that finds a disagreeing assignment merely
// confirms the refusal faster.
func (s *ConcreteSession) Equivalent(a, b cast.Expr) (bool, error) {
	if cast.HasCall(a) || cast.HasCall(b) {
		return false, nil
	}
	if cast.StructurallyEqual(a, b) {
		return true, nil
	}
	for i := 0; i < s.samples; i++ {
		env := interp.RandomEnv(s.rng, a)
		for k, v := range interp.RandomEnv(s.rng, b) {
			if _, ok := env[k]; !ok {
				env[k] = v
			}
		}
		if same, ok := interp.EquivalentUnder(a, b, env); ok && !same {
			return false, nil
		}
	}
	return false, nil
}

// Close implements Session.
func (s *ConcreteSession) Close() error { return nil }
