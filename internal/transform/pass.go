package transform

import (
	"errors"

	"github.com/restruct-labs/restruct/internal/cast"
)

// ErrInconsistentGuard reports a guard that was proven both a
// tautology and a contradiction. Guards are satisfiable-or-not, never
// both; hitting this means the tree or the oracle translation is
// broken, so processing of the current function aborts.
var ErrInconsistentGuard = errors.New("guard proven both true and false")

// Pass is one fixed-point tree rewrite. Run mutates fn in place and
// reports whether anything changed. A pass that cannot make progress
// (inconclusive oracle answers included) returns false rather than an
// error; errors are reserved for hard failures that must abort the
// pipeline.
type Pass interface {
	Name() string
	Run(fn *cast.Function) (bool, error)
}

// cacheHolder is implemented by passes that memoize per-node facts.
// The pipeline invalidates them whenever a different pass mutates the
// tree, since node identities for rewritten subtrees may be reused.
type cacheHolder interface {
	InvalidateCache()
}
