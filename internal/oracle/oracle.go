// Package oracle defines the narrow interface the condition simplifier
// uses to ask a theorem prover about guard expressions, and the two
// bundled backends: a Z3-based session and an evaluator-based concrete
// session for constant guards.
//
// A Session is a scoped resource: one per function-processing unit,
// never shared between concurrent workers, torn down with Close when
// the unit finishes. Queries are synchronous and blocking; the only
// way to bound one is the session timeout, and a timed-out query
// reports "not proven" rather than failing.
package oracle

import (
	"errors"
	"time"

	"github.com/restruct-labs/restruct/internal/cast"
)

// ErrUnavailable reports that the external solver could not be
// initialized. Fatal at pipeline startup, never per-query.
var ErrUnavailable = errors.New("oracle unavailable")

// Session answers provability queries about expressions.
//
// Prove reports whether e is a tautology (true under every assignment
// of its free variables). Equivalent reports whether a and b always
// agree. Both are conservative: false means "not proven", never
// "disproven". A non-nil error is a hard oracle failure and aborts the
// pipeline; inconclusive results and timeouts return (false, nil).
type Session interface {
	Prove(e cast.Expr) (bool, error)
	Equivalent(a, b cast.Expr) (bool, error)
	Close() error
}

// Options configures session construction.
type Options struct {
	// Timeout bounds each individual query. Zero means no bound.
	Timeout time.Duration
}

// Factory builds one Session per function-processing unit.
type Factory func(Options) (Session, error)
