package proofs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restruct-labs/restruct/internal/cast"
)

// neverEquivalent is the strictest predicate: identity hits only.
func neverEquivalent(a, b cast.Expr) (bool, error) { return false, nil }

func TestIdentityHit(t *testing.T) {
	b := cast.NewBuilder()
	c := New(neverEquivalent)

	e := b.Binary(cast.OpGt, b.VarRef("x", cast.Int32), b.IntLit(0, cast.Int32))
	_, hit, err := c.LookupTrue(e)
	require.NoError(t, err)
	assert.False(t, hit)

	c.StoreTrue(e, true)
	val, hit, err := c.LookupTrue(e)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.True(t, val)
}

func TestDistinctInstancesCacheIndependently(t *testing.T) {
	b := cast.NewBuilder()
	c := New(neverEquivalent)

	a := b.Binary(cast.OpGt, b.VarRef("x", cast.Int32), b.IntLit(0, cast.Int32))
	d := b.Binary(cast.OpGt, b.VarRef("x", cast.Int32), b.IntLit(0, cast.Int32))
	c.StoreTrue(a, true)

	// Same structure, same bucket, but without the equivalence
	// predicate's say-so the second instance stays a miss.
	_, hit, err := c.LookupTrue(d)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestEquivalencePredicateSharesVerdicts(t *testing.T) {
	b := cast.NewBuilder()
	calls := 0
	equiv := func(x, y cast.Expr) (bool, error) {
		calls++
		return cast.StructurallyEqual(x, y), nil
	}
	c := New(equiv)

	a := b.Binary(cast.OpGt, b.VarRef("x", cast.Int32), b.IntLit(0, cast.Int32))
	d := b.Binary(cast.OpGt, b.VarRef("x", cast.Int32), b.IntLit(0, cast.Int32))
	c.StoreTrue(a, true)

	val, hit, err := c.LookupTrue(d)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.True(t, val)
	assert.Positive(t, calls, "collision must consult the predicate")
}

func TestForgetDropsSubtreeEntries(t *testing.T) {
	b := cast.NewBuilder()
	c := New(neverEquivalent)

	inner := b.Binary(cast.OpGt, b.VarRef("x", cast.Int32), b.IntLit(0, cast.Int32))
	outer := b.Not(inner)
	c.StoreTrue(outer, true)
	c.StoreFalse(inner, true)

	c.Forget(outer)

	_, hit, err := c.LookupTrue(outer)
	require.NoError(t, err)
	assert.False(t, hit, "entry must not survive node replacement")
	_, hit, err = c.LookupFalse(inner)
	require.NoError(t, err)
	assert.False(t, hit, "subtree entries must be dropped too")
}

func TestResetClearsBothTables(t *testing.T) {
	b := cast.NewBuilder()
	c := New(neverEquivalent)

	e := b.VarRef("p", cast.Bool)
	c.StoreTrue(e, true)
	c.StoreFalse(e, false)
	c.Reset()

	_, hit, _ := c.LookupTrue(e)
	assert.False(t, hit)
	_, hit, _ = c.LookupFalse(e)
	assert.False(t, hit)
}

func TestTablesAreIndependent(t *testing.T) {
	b := cast.NewBuilder()
	c := New(neverEquivalent)

	e := b.VarRef("p", cast.Bool)
	c.StoreTrue(e, false) // queried, not proven

	_, hit, err := c.LookupFalse(e)
	require.NoError(t, err)
	assert.False(t, hit, "a proven-true verdict says nothing about proven-false")
}
