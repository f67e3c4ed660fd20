package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restruct-labs/restruct/internal/cast"
	"github.com/restruct-labs/restruct/internal/provenance"
)

func defaultPasses(t *testing.T, b *cast.Builder) []Pass {
	t.Helper()
	return []Pass{
		newSimplifier(t, b, provenance.NewMap()),
		NewConstFold(b),
		NewDeadStmt(b),
		NewFlatten(),
	}
}

func TestPipelineConvergesOnNestedDeadCode(t *testing.T) {
	b := cast.NewBuilder()

	// if (2 > 1) { if (0) { work(); } return 1; } else { return 2; }
	inner := b.If(b.IntLit(0, cast.Int32), b.Compound(b.ExprStmt(b.Call("work", cast.Void))), nil)
	ret := b.Return(b.IntLit(1, cast.Int32))
	outer := b.If(
		b.Binary(cast.OpGt, b.IntLit(2, cast.Int32), b.IntLit(1, cast.Int32)),
		b.Compound(inner, ret),
		b.Compound(b.Return(b.IntLit(2, cast.Int32))),
	)
	fn := wrapFn(b, outer)
	before := cast.CountNodes(fn)

	p := NewPipeline(nil, defaultPasses(t, b), WithTreeCheck())
	report, err := p.RunToFixpoint(fn)
	require.NoError(t, err)
	assert.True(t, report.Changed)
	assert.True(t, report.Converged)
	assert.Less(t, cast.CountNodes(fn), before)

	require.Len(t, fn.Body.Stmts, 1)
	assert.Same(t, ret, fn.Body.Stmts[0])
}

func TestPipelineQuietWhenNothingApplies(t *testing.T) {
	b := cast.NewBuilder()
	fn := wrapFn(b,
		b.If(b.Binary(cast.OpGt, b.VarRef("x", cast.Int32), b.IntLit(0, cast.Int32)),
			b.Compound(b.Return(b.IntLit(1, cast.Int32))), nil),
		b.Return(b.IntLit(0, cast.Int32)),
	)

	p := NewPipeline(nil, defaultPasses(t, b))
	report, err := p.RunToFixpoint(fn)
	require.NoError(t, err)
	assert.False(t, report.Changed)
	assert.True(t, report.Converged)
	assert.Equal(t, 1, report.Sweeps)
}

// churnPass reports a change on every run without touching the tree.
type churnPass struct{ runs int }

func (p *churnPass) Name() string { return "churn" }
func (p *churnPass) Run(*cast.Function) (bool, error) {
	p.runs++
	return true, nil
}

func TestPipelineStopsAtSweepCeiling(t *testing.T) {
	b := cast.NewBuilder()
	fn := wrapFn(b, b.Return(nil))

	churn := &churnPass{}
	p := NewPipeline(nil, []Pass{churn}, WithMaxSweeps(3))
	report, err := p.RunToFixpoint(fn)
	require.NoError(t, err)
	assert.False(t, report.Converged)
	assert.Equal(t, 3, report.Sweeps)
	assert.Equal(t, 3, churn.runs)
}

// failPass always errors.
type failPass struct{}

func (failPass) Name() string { return "boom" }
func (failPass) Run(*cast.Function) (bool, error) {
	return false, errors.New("solver went away")
}

func TestPipelineWrapsPassErrors(t *testing.T) {
	b := cast.NewBuilder()
	fn := wrapFn(b, b.Return(nil))

	p := NewPipeline(nil, []Pass{failPass{}})
	_, err := p.RunToFixpoint(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), fn.Name)
}

// countingCache tracks invalidations.
type countingCache struct {
	invalidations int
}

func (p *countingCache) Name() string     { return "counting" }
func (p *countingCache) InvalidateCache() { p.invalidations++ }
func (p *countingCache) Run(*cast.Function) (bool, error) {
	return false, nil
}

func TestCacheInvalidatedWhenAnotherPassMutates(t *testing.T) {
	b := cast.NewBuilder()
	// one foldable guard so ConstFold reports a change on sweep one
	fn := wrapFn(b,
		b.If(b.Binary(cast.OpGt, b.VarRef("x", cast.Int32),
			b.Binary(cast.OpAdd, b.IntLit(1, cast.Int32), b.IntLit(1, cast.Int32))),
			b.Compound(b.Return(nil)), nil),
	)

	holder := &countingCache{}
	p := NewPipeline(nil, []Pass{NewConstFold(b), holder})
	report, err := p.RunToFixpoint(fn)
	require.NoError(t, err)
	assert.True(t, report.Changed)
	assert.Greater(t, holder.invalidations, 0)
}

// aliasPass wires the same expression instance into two parents.
type aliasPass struct{ b *cast.Builder }

func (p *aliasPass) Name() string { return "alias" }
func (p *aliasPass) Run(fn *cast.Function) (bool, error) {
	v := p.b.VarRef("x", cast.Int32)
	fn.Body.Stmts = append(fn.Body.Stmts, p.b.ExprStmt(v))
	shared := p.b.If(v, p.b.Compound(), nil) // reuses v
	fn.Body.Stmts = append(fn.Body.Stmts, shared)
	return true, nil
}

func TestTreeCheckCatchesAliasing(t *testing.T) {
	b := cast.NewBuilder()
	fn := wrapFn(b)

	p := NewPipeline(nil, []Pass{&aliasPass{b: b}}, WithTreeCheck())
	_, err := p.RunToFixpoint(fn)
	require.Error(t, err)
	assert.ErrorIs(t, err, cast.ErrSharedNode)
}
