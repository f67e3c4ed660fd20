package transform

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/restruct-labs/restruct/internal/cast"
	"github.com/restruct-labs/restruct/internal/oracle"
	"github.com/restruct-labs/restruct/internal/proofs"
	"github.com/restruct-labs/restruct/internal/provenance"
)

// CondSimplify rewrites control flow whose guards the oracle can
// decide: branches with tautological or contradictory conditions,
// loops that never run, do-while bodies that run exactly once, and
// loop bodies re-testing the loop's own guard. Verdicts are memoized
// in a proof cache keyed by node identity with oracle-checked
// equivalence as the fallback; every dropped subtree is forgotten
// from the cache before the rewrite lands.
//
// Guards containing calls are never judged. A call may have side
// effects, and a rewrite justified by the guard's value would discard
// them.
type CondSimplify struct {
	b       *cast.Builder
	prov    *provenance.Map
	sess    oracle.Session
	cache   *proofs.Cache
	logger  *zap.Logger
	queries int
}

// CondSimplifyStats exposes per-function oracle and cache counters.
type CondSimplifyStats struct {
	OracleQueries int
	Cache         proofs.Stats
}

// NewCondSimplify builds the pass around one function's builder,
// provenance map and oracle session.
func NewCondSimplify(b *cast.Builder, prov *provenance.Map, sess oracle.Session, logger *zap.Logger) *CondSimplify {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &CondSimplify{b: b, prov: prov, sess: sess, logger: logger}
	p.cache = proofs.New(p.equivalent)
	return p
}

func (p *CondSimplify) Name() string { return "condition-simplify" }

// InvalidateCache drops every memoized verdict. The pipeline calls
// this after another pass mutates the tree.
func (p *CondSimplify) InvalidateCache() { p.cache.Reset() }

// Stats returns the counters accumulated since construction.
func (p *CondSimplify) Stats() CondSimplifyStats {
	return CondSimplifyStats{OracleQueries: p.queries, Cache: p.cache.Stats()}
}

func (p *CondSimplify) equivalent(a, b cast.Expr) (bool, error) {
	p.queries++
	return p.sess.Equivalent(a, b)
}

func (p *CondSimplify) Run(fn *cast.Function) (bool, error) {
	return p.visitCompound(fn.Body)
}

// provenTrue reports whether e is a tautology, consulting the cache
// before the oracle. Call-bearing guards are never judged.
func (p *CondSimplify) provenTrue(e cast.Expr) (bool, error) {
	if cast.HasCall(e) {
		return false, nil
	}
	if val, hit, err := p.cache.LookupTrue(e); hit || err != nil {
		return val, err
	}
	p.queries++
	val, err := p.sess.Prove(e)
	if err != nil {
		return false, err
	}
	p.cache.StoreTrue(e, val)
	return val, nil
}

// provenFalse is the dual of provenTrue. The negation wrapper exists
// only for the query and never enters the tree.
func (p *CondSimplify) provenFalse(e cast.Expr) (bool, error) {
	if cast.HasCall(e) {
		return false, nil
	}
	if val, hit, err := p.cache.LookupFalse(e); hit || err != nil {
		return val, err
	}
	p.queries++
	val, err := p.sess.Prove(p.b.Not(e))
	if err != nil {
		return false, err
	}
	p.cache.StoreFalse(e, val)
	return val, nil
}

// guardVerdict judges a statement guard. A guard proven both ways is
// a fatal internal inconsistency.
func (p *CondSimplify) guardVerdict(e cast.Expr) (pt, pf bool, err error) {
	pt, err = p.provenTrue(e)
	if err != nil {
		return
	}
	pf, err = p.provenFalse(e)
	if err != nil {
		return
	}
	if pt && pf {
		err = fmt.Errorf("guard %s (node %d): %w", e.String(), e.ID(), ErrInconsistentGuard)
	}
	return
}

// forgetStmt drops cache entries for every expression under s.
func (p *CondSimplify) forgetStmt(s cast.Stmt) {
	cast.WalkStmt(s, func(st cast.Stmt) {
		cast.OwnedExprs(st, p.cache.Forget)
	})
}

func (p *CondSimplify) visitCompound(c *cast.Compound) (bool, error) {
	changed := false
	for i, st := range c.Stmts {
		repl, ch, err := p.visitStmt(st)
		if err != nil {
			return changed, err
		}
		if ch {
			changed = true
		}
		if repl != st {
			c.Stmts[i] = repl
		}
	}
	return changed, nil
}

// visitStmt rewrites one statement, returning its replacement. Only
// guarded statements are touched; everything else is left for the
// folding and cleanup passes.
func (p *CondSimplify) visitStmt(s cast.Stmt) (cast.Stmt, bool, error) {
	switch x := s.(type) {
	case *cast.Compound:
		ch, err := p.visitCompound(x)
		return x, ch, err
	case *cast.If:
		return p.visitIf(x)
	case *cast.While:
		return p.visitWhile(x)
	case *cast.DoWhile:
		return p.visitDoWhile(x)
	default:
		return s, false, nil
	}
}

func (p *CondSimplify) visitIf(s *cast.If) (cast.Stmt, bool, error) {
	pt, pf, err := p.guardVerdict(s.Cond)
	if err != nil {
		return s, false, err
	}
	if pt {
		p.cache.Forget(s.Cond)
		if s.Else != nil {
			p.forgetStmt(s.Else)
		}
		repl, _, err := p.visitStmt(s.Then)
		return repl, true, err
	}
	if pf {
		p.cache.Forget(s.Cond)
		p.forgetStmt(s.Then)
		if s.Else != nil {
			repl, _, err := p.visitStmt(s.Else)
			return repl, true, err
		}
		return p.b.Null(), true, nil
	}
	changed := false
	if cond, ch, err := p.simplify(s.Cond); err != nil {
		return s, changed, err
	} else if ch {
		s.Cond = cond
		changed = true
	}
	then, ch, err := p.visitStmt(s.Then)
	if err != nil {
		return s, changed, err
	}
	if ch {
		changed = true
	}
	s.Then = then
	if s.Else != nil {
		els, ch, err := p.visitStmt(s.Else)
		if err != nil {
			return s, changed, err
		}
		if ch {
			changed = true
		}
		s.Else = els
	}
	return s, changed, nil
}

func (p *CondSimplify) visitWhile(s *cast.While) (cast.Stmt, bool, error) {
	pt, pf, err := p.guardVerdict(s.Cond)
	if err != nil {
		return s, false, err
	}
	if pf {
		// never entered, everything under it is dead
		p.cache.Forget(s.Cond)
		p.forgetStmt(s.Body)
		return p.b.Null(), true, nil
	}
	changed := false
	if pt {
		if !isCanonicalTrue(s.Cond) {
			p.cache.Forget(s.Cond)
			s.Cond = p.b.True()
			changed = true
		}
	} else {
		if cond, ch, err := p.simplify(s.Cond); err != nil {
			return s, changed, err
		} else if ch {
			s.Cond = cond
			changed = true
		}
		ch, err := p.pruneLoopGuard(s)
		if err != nil {
			return s, changed, err
		}
		if ch {
			changed = true
		}
	}
	body, ch, err := p.visitStmt(s.Body)
	if err != nil {
		return s, changed, err
	}
	if ch {
		changed = true
	}
	s.Body = body
	return s, changed, nil
}

// pruneLoopGuard removes a branch re-testing the loop's own guard
// when the branch is the first real statement of the body: nothing
// has run since the loop test, so the guard still holds there. The
// inner guard must share provenance with the loop guard and the
// oracle must confirm semantic equivalence.
func (p *CondSimplify) pruneLoopGuard(loop *cast.While) (bool, error) {
	body, ok := loop.Body.(*cast.Compound)
	if !ok {
		return false, nil
	}
	for i, st := range body.Stmts {
		if _, isNull := st.(*cast.Null); isNull {
			continue
		}
		inner, ok := st.(*cast.If)
		if !ok {
			return false, nil
		}
		if cast.HasCall(inner.Cond) || cast.HasCall(loop.Cond) {
			return false, nil
		}
		if !p.prov.SameOrigin(inner.Cond, loop.Cond) {
			return false, nil
		}
		eq, err := p.equivalent(inner.Cond, loop.Cond)
		if err != nil || !eq {
			return false, err
		}
		p.cache.Forget(inner.Cond)
		if inner.Else != nil {
			p.forgetStmt(inner.Else)
		}
		body.Stmts[i] = inner.Then
		return true, nil
	}
	return false, nil
}

func (p *CondSimplify) visitDoWhile(s *cast.DoWhile) (cast.Stmt, bool, error) {
	pt, pf, err := p.guardVerdict(s.Cond)
	if err != nil {
		return s, false, err
	}
	if pf && !hasLooseBreak(s.Body) {
		// the body runs exactly once
		p.cache.Forget(s.Cond)
		repl, _, err := p.visitStmt(s.Body)
		return repl, true, err
	}
	changed := false
	switch {
	case pt:
		if !isCanonicalTrue(s.Cond) {
			p.cache.Forget(s.Cond)
			s.Cond = p.b.True()
			changed = true
		}
	case pf:
		// a break escapes early, so the loop shape stays; still
		// canonicalize the guard
		if !isCanonicalFalse(s.Cond) {
			p.cache.Forget(s.Cond)
			s.Cond = p.b.False()
			changed = true
		}
	default:
		if cond, ch, err := p.simplify(s.Cond); err != nil {
			return s, changed, err
		} else if ch {
			s.Cond = cond
			changed = true
		}
	}
	body, ch, err := p.visitStmt(s.Body)
	if err != nil {
		return s, changed, err
	}
	if ch {
		changed = true
	}
	s.Body = body
	return s, changed, nil
}

// isCanonicalTrue reports whether e is already the literal the
// builder's True produces, so guard canonicalization does not rewrite
// its own output forever.
func isCanonicalTrue(e cast.Expr) bool {
	lit, ok := e.(*cast.IntLit)
	return ok && lit.Val == 1 && lit.Typ == cast.Bool
}

func isCanonicalFalse(e cast.Expr) bool {
	lit, ok := e.(*cast.IntLit)
	return ok && lit.Val == 0 && lit.Typ == cast.Bool
}

// hasLooseBreak reports whether s contains a break binding to the
// enclosing loop rather than to a loop nested inside s.
func hasLooseBreak(s cast.Stmt) bool {
	switch x := s.(type) {
	case *cast.Break:
		return true
	case *cast.Compound:
		for _, st := range x.Stmts {
			if hasLooseBreak(st) {
				return true
			}
		}
	case *cast.If:
		if hasLooseBreak(x.Then) {
			return true
		}
		if x.Else != nil {
			return hasLooseBreak(x.Else)
		}
	}
	return false
}

// simplify shrinks a guard expression without changing its meaning:
// double negations unwrap and decided operands of the short-circuit
// connectives drop out. Every rewrite strictly reduces the node
// count, so iteration terminates.
func (p *CondSimplify) simplify(e cast.Expr) (cast.Expr, bool, error) {
	switch x := e.(type) {
	case *cast.Unary:
		if x.Op != cast.OpLNot {
			return e, false, nil
		}
		if inner, ok := x.X.(*cast.Unary); ok && inner.Op == cast.OpLNot {
			p.cache.Forget(x)
			repl, _, err := p.simplify(inner.X)
			return repl, true, err
		}
		sub, ch, err := p.simplify(x.X)
		if ch {
			p.cache.Forget(x)
			x.X = sub
			cast.InvalidateHash(x)
		}
		return x, ch, err
	case *cast.Binary:
		if x.Op == cast.OpLAnd || x.Op == cast.OpLOr {
			return p.simplifyConnective(x)
		}
		return e, false, nil
	default:
		return e, false, nil
	}
}

func (p *CondSimplify) simplifyConnective(x *cast.Binary) (cast.Expr, bool, error) {
	changed := false
	if sub, ch, err := p.simplify(x.X); err != nil {
		return x, changed, err
	} else if ch {
		p.cache.Forget(x)
		x.X = sub
		cast.InvalidateHash(x)
		changed = true
	}
	if sub, ch, err := p.simplify(x.Y); err != nil {
		return x, changed, err
	} else if ch {
		p.cache.Forget(x)
		x.Y = sub
		cast.InvalidateHash(x)
		changed = true
	}

	// The absorbing verdict collapses the whole connective, which
	// discards both operands, so neither may carry a call. The
	// neutral verdict drops only the judged operand, already gated
	// inside the prover.
	absorb, neutral := p.provenFalse, p.provenTrue
	if x.Op == cast.OpLOr {
		absorb, neutral = p.provenTrue, p.provenFalse
	}
	if !cast.HasCall(x.X) && !cast.HasCall(x.Y) {
		for _, side := range []cast.Expr{x.X, x.Y} {
			dead, err := absorb(side)
			if err != nil {
				return x, changed, err
			}
			if dead {
				p.cache.Forget(x)
				if x.Op == cast.OpLAnd {
					return p.b.False(), true, nil
				}
				return p.b.True(), true, nil
			}
		}
	}
	if drop, err := neutral(x.X); err != nil {
		return x, changed, err
	} else if drop {
		p.cache.Forget(x.X)
		return x.Y, true, nil
	}
	if drop, err := neutral(x.Y); err != nil {
		return x, changed, err
	} else if drop {
		p.cache.Forget(x.Y)
		return x.X, true, nil
	}
	return x, changed, nil
}
