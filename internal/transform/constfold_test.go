package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restruct-labs/restruct/internal/cast"
)

func TestFoldArithmeticInGuard(t *testing.T) {
	b := cast.NewBuilder()
	p := NewConstFold(b)

	cond := b.Binary(cast.OpLt,
		b.Binary(cast.OpAdd, b.IntLit(2, cast.Int32), b.IntLit(3, cast.Int32)),
		b.VarRef("x", cast.Int32))
	branch := b.If(cond, b.Compound(b.Return(nil)), nil)
	fn := wrapFn(b, branch)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	folded, ok := branch.Cond.(*cast.Binary)
	require.True(t, ok)
	lit, ok := folded.X.(*cast.IntLit)
	require.True(t, ok)
	assert.Equal(t, int64(5), lit.Val)
}

func TestFoldUnsignedWraps(t *testing.T) {
	b := cast.NewBuilder()
	p := NewConstFold(b)

	sum := b.Binary(cast.OpAdd, b.IntLit(255, cast.UInt8), b.IntLit(1, cast.UInt8))
	decl := b.Decl("v", cast.UInt8, sum)
	fn := wrapFn(b, decl)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	lit, ok := decl.Init.(*cast.IntLit)
	require.True(t, ok)
	assert.Equal(t, int64(0), lit.Val)
	assert.Equal(t, cast.UInt8, lit.Typ)
}

func TestFoldCastTruncates(t *testing.T) {
	b := cast.NewBuilder()
	p := NewConstFold(b)

	init := b.Cast(cast.Int8, b.IntLit(300, cast.Int32))
	decl := b.Decl("v", cast.Int8, init)
	fn := wrapFn(b, decl)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	lit, ok := decl.Init.(*cast.IntLit)
	require.True(t, ok)
	assert.Equal(t, int64(44), lit.Val)
}

func TestTernaryWithDecidedGuardCollapses(t *testing.T) {
	b := cast.NewBuilder()
	p := NewConstFold(b)

	picked := b.VarRef("a", cast.Int32)
	tern := b.Ternary(b.IntLit(1, cast.Bool), picked, b.Call("expensive", cast.Int32))
	ret := b.Return(tern)
	fn := wrapFn(b, ret)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Same(t, picked, ret.Value)
}

func TestCallArgumentsFoldCallStays(t *testing.T) {
	b := cast.NewBuilder()
	p := NewConstFold(b)

	call := b.Call("f", cast.Int32, b.Binary(cast.OpMul, b.IntLit(6, cast.Int32), b.IntLit(7, cast.Int32)))
	fn := wrapFn(b, b.ExprStmt(call))

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	kept, ok := fn.Body.Stmts[0].(*cast.ExprStmt)
	require.True(t, ok)
	assert.Same(t, call, kept.X)
	lit, ok := call.Args[0].(*cast.IntLit)
	require.True(t, ok)
	assert.Equal(t, int64(42), lit.Val)
}

func TestConjunctionWithCallOperandKept(t *testing.T) {
	b := cast.NewBuilder()
	p := NewConstFold(b)

	// The false right operand decides the conjunction, but the call on
	// the left still runs first.
	cond := b.Binary(cast.OpLAnd,
		b.Binary(cast.OpGt, b.Call("poll", cast.Int32), b.IntLit(0, cast.Int32)),
		b.IntLit(0, cast.Bool))
	branch := b.If(cond, b.Compound(b.Return(nil)), nil)
	fn := wrapFn(b, branch)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, cond, branch.Cond)
}

func TestTernaryWithCallGuardAndAgreeingBranchesKept(t *testing.T) {
	b := cast.NewBuilder()
	p := NewConstFold(b)

	tern := b.Ternary(
		b.Binary(cast.OpGt, b.Call("poll", cast.Int32), b.IntLit(0, cast.Int32)),
		b.IntLit(5, cast.Int32),
		b.IntLit(5, cast.Int32))
	ret := b.Return(tern)
	fn := wrapFn(b, ret)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, tern, ret.Value)
}

func TestFreeExpressionsUntouched(t *testing.T) {
	b := cast.NewBuilder()
	p := NewConstFold(b)

	cond := b.Binary(cast.OpGt, b.VarRef("x", cast.Int32), b.VarRef("y", cast.Int32))
	branch := b.If(cond, b.Compound(b.Return(nil)), nil)
	fn := wrapFn(b, branch)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, cond, branch.Cond)
}
