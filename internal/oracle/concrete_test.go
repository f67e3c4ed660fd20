package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restruct-labs/restruct/internal/cast"
)

func newConcrete(t *testing.T) Session {
	t.Helper()
	s, err := NewConcreteSession(Options{})
	require.NoError(t, err)
	return s
}

func TestConcreteProvesConstantGuards(t *testing.T) {
	s := newConcrete(t)
	defer s.Close()
	b := cast.NewBuilder()

	proven, err := s.Prove(b.IntLit(1, cast.Bool))
	require.NoError(t, err)
	assert.True(t, proven)

	proven, err = s.Prove(b.Binary(cast.OpLt, b.IntLit(2, cast.Int32), b.IntLit(5, cast.Int32)))
	require.NoError(t, err)
	assert.True(t, proven)

	proven, err = s.Prove(b.IntLit(0, cast.Bool))
	require.NoError(t, err)
	assert.False(t, proven)
}

func TestConcreteLeavesFreeGuardsUnknown(t *testing.T) {
	s := newConcrete(t)
	defer s.Close()
	b := cast.NewBuilder()

	// x > 0 || x <= 0 is a tautology, but beyond concrete proof.
	x := func() cast.Expr { return b.VarRef("x", cast.Int32) }
	e := b.Binary(cast.OpLOr,
		b.Binary(cast.OpGt, x(), b.IntLit(0, cast.Int32)),
		b.Binary(cast.OpLe, x(), b.IntLit(0, cast.Int32)))
	proven, err := s.Prove(e)
	require.NoError(t, err)
	assert.False(t, proven)
}

func TestConcreteEquivalenceIsStructural(t *testing.T) {
	s := newConcrete(t)
	defer s.Close()
	b := cast.NewBuilder()

	a := b.Binary(cast.OpGt, b.VarRef("x", cast.Int32), b.IntLit(0, cast.Int32))
	c := b.Binary(cast.OpGt, b.VarRef("x", cast.Int32), b.IntLit(0, cast.Int32))
	eq, err := s.Equivalent(a, c)
	require.NoError(t, err)
	assert.True(t, eq, "distinct instances of the same text must be equivalent")

	d := b.Binary(cast.OpGt, b.VarRef("y", cast.Int32), b.IntLit(0, cast.Int32))
	eq, err = s.Equivalent(a, d)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestConcreteRefusesCallGuards(t *testing.T) {
	s := newConcrete(t)
	defer s.Close()
	b := cast.NewBuilder()

	a := b.Binary(cast.OpGt, b.Call("poll", cast.Int32), b.IntLit(0, cast.Int32))
	c := b.Binary(cast.OpGt, b.Call("poll", cast.Int32), b.IntLit(0, cast.Int32))
	eq, err := s.Equivalent(a, c)
	require.NoError(t, err)
	assert.False(t, eq, "call results are never provably equal across sites")
}
