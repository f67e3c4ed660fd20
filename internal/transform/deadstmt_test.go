package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restruct-labs/restruct/internal/cast"
)

func TestNullStatementsRemoved(t *testing.T) {
	b := cast.NewBuilder()
	p := NewDeadStmt(b)

	ret := b.Return(nil)
	fn := wrapFn(b, b.Null(), ret, b.Null())

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, fn.Body.Stmts, 1)
	assert.Same(t, ret, fn.Body.Stmts[0])
}

func TestCodeAfterReturnDropped(t *testing.T) {
	b := cast.NewBuilder()
	p := NewDeadStmt(b)

	ret := b.Return(b.IntLit(1, cast.Int32))
	fn := wrapFn(b, ret, b.ExprStmt(b.Call("never", cast.Void)))

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, fn.Body.Stmts, 1)
	assert.Same(t, ret, fn.Body.Stmts[0])
}

func TestCodeAfterBreakDroppedInsideLoop(t *testing.T) {
	b := cast.NewBuilder()
	p := NewDeadStmt(b)

	brk := b.Break()
	body := b.Compound(brk, b.ExprStmt(b.Call("never", cast.Void)))
	loop := b.While(b.VarRef("c", cast.Bool), body)
	fn := wrapFn(b, loop)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, body.Stmts, 1)
	assert.Same(t, brk, body.Stmts[0])
}

func TestEmptyThenFlipsBranch(t *testing.T) {
	b := cast.NewBuilder()
	p := NewDeadStmt(b)

	cond := b.VarRef("c", cast.Bool)
	els := b.Compound(b.ExprStmt(b.Call("work", cast.Void)))
	branch := b.If(cond, b.Compound(), els)
	fn := wrapFn(b, branch)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Same(t, els, branch.Then)
	assert.Nil(t, branch.Else)
	neg, ok := branch.Cond.(*cast.Unary)
	require.True(t, ok)
	assert.Equal(t, cast.OpLNot, neg.Op)
	assert.Same(t, cond, neg.X)
}

func TestEmptyBranchWithCallGuardKeepsEvaluation(t *testing.T) {
	b := cast.NewBuilder()
	p := NewDeadStmt(b)

	cond := b.Binary(cast.OpGt, b.Call("poll", cast.Int32), b.IntLit(0, cast.Int32))
	fn := wrapFn(b, b.If(cond, b.Compound(), nil), b.Return(nil))

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	kept, ok := fn.Body.Stmts[0].(*cast.ExprStmt)
	require.True(t, ok, "call-bearing guard must survive as an expression statement")
	assert.Same(t, cond, kept.X)
}

func TestEmptyBranchWithPureGuardVanishes(t *testing.T) {
	b := cast.NewBuilder()
	p := NewDeadStmt(b)

	ret := b.Return(nil)
	fn := wrapFn(b, b.If(b.VarRef("c", cast.Bool), b.Compound(), nil), ret)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, fn.Body.Stmts, 1)
	assert.Same(t, ret, fn.Body.Stmts[0])
}

func TestPureExpressionStatementRemoved(t *testing.T) {
	b := cast.NewBuilder()
	p := NewDeadStmt(b)

	ret := b.Return(nil)
	fn := wrapFn(b, b.ExprStmt(b.Binary(cast.OpAdd, b.VarRef("x", cast.Int32), b.IntLit(1, cast.Int32))), ret)

	changed, err := p.Run(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, fn.Body.Stmts, 1)
	assert.Same(t, ret, fn.Body.Stmts[0])
}
