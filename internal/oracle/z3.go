package oracle

import (
	"fmt"
	"strconv"

	"github.com/mitchellh/go-z3"

	"github.com/restruct-labs/restruct/internal/cast"
)

// Z3Session proves guards by refutation: to establish that e always
// holds it asserts the translation of !e and checks for
// unsatisfiability. Satisfiable and undecided checks both degrade to
// "not proven".
//
// The underlying Z3 context is not reentrant across goroutines; the
// session must stay confined to the worker that created it.
type Z3Session struct {
	cfg *z3.Config
	ctx *z3.Context
}

// NewZ3Session initializes a Z3-backed session. Construction failure
// wraps ErrUnavailable.
func NewZ3Session(opts Options) (Session, error) {
	cfg := z3.NewConfig()
	if opts.Timeout > 0 {
		cfg.SetParamValue("timeout", strconv.FormatInt(opts.Timeout.Milliseconds(), 10))
	}
	ctx := z3.NewContext(cfg)
	if ctx == nil {
		cfg.Close()
		return nil, fmt.Errorf("creating Z3 context: %w", ErrUnavailable)
	}
	return &Z3Session{cfg: cfg, ctx: ctx}, nil
}

// Prove implements Session.
func (s *Z3Session) Prove(e cast.Expr) (bool, error) {
	conv := newConverter(s.ctx)
	goal, ok := conv.boolFormula(e)
	if !ok {
		return false, nil // untranslatable guard: unknown
	}
	return s.refute(conv, goal.Not()), nil
}

// Equivalent implements Session: a and b always agree iff !(a <-> b)
// is unsatisfiable. Both expressions share one converter so identical
// subterms map to the same uninterpreted constants.
func (s *Z3Session) Equivalent(a, b cast.Expr) (bool, error) {
	conv := newConverter(s.ctx)
	fa, ok := conv.boolFormula(a)
	if !ok {
		return false, nil
	}
	fb, ok := conv.boolFormula(b)
	if !ok {
		return false, nil
	}
	return s.refute(conv, fa.Iff(fb).Not()), nil
}

// refute checks whether goal is unsatisfiable under the range
// assumptions the converter accumulated.
func (s *Z3Session) refute(conv *converter, goal *z3.AST) bool {
	solver := s.ctx.NewSolver()
	defer solver.Close()
	for _, bound := range conv.bounds {
		solver.Assert(bound)
	}
	solver.Assert(goal)
	return solver.Check() == z3.False
}

// Close tears the session down. Safe to call once per session.
func (s *Z3Session) Close() error {
	if err := s.ctx.Close(); err != nil {
		return fmt.Errorf("closing Z3 context: %w", err)
	}
	s.cfg.Close()
	return nil
}
