package cast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAssignsDistinctIDs(t *testing.T) {
	b := NewBuilder()
	x := b.VarRef("x", Int32)
	y := b.VarRef("x", Int32)
	assert.NotEqual(t, x.ID(), y.ID())
}

func TestHashMemoized(t *testing.T) {
	b := NewBuilder()
	e := b.Binary(OpLt, b.VarRef("x", Int32), b.IntLit(10, Int32))
	h1 := HashExpr(e)
	h2 := HashExpr(e)
	assert.Equal(t, h1, h2)
	assert.NotZero(t, h1)
}

func TestHashAgreesOnStructure(t *testing.T) {
	b := NewBuilder()
	a := b.Binary(OpLt, b.VarRef("x", Int32), b.IntLit(10, Int32))
	c := b.Binary(OpLt, b.VarRef("x", Int32), b.IntLit(10, Int32))
	assert.Equal(t, HashExpr(a), HashExpr(c))
	assert.True(t, StructurallyEqual(a, c))

	d := b.Binary(OpLt, b.VarRef("y", Int32), b.IntLit(10, Int32))
	assert.False(t, StructurallyEqual(a, d))
}

func TestCloneGetsFreshIdentities(t *testing.T) {
	b := NewBuilder()
	orig := b.Binary(OpLAnd,
		b.Binary(OpGt, b.VarRef("x", Int32), b.IntLit(0, Int32)),
		b.Not(b.VarRef("done", Bool)))
	dup := CloneExpr(b, orig)

	require.True(t, StructurallyEqual(orig, dup))

	ids := make(map[NodeID]bool)
	WalkExpr(orig, func(e Expr) { ids[e.ID()] = true })
	WalkExpr(dup, func(e Expr) {
		assert.False(t, ids[e.ID()], "clone reused identity %d", e.ID())
	})
}

func TestCheckTreeDetectsSharing(t *testing.T) {
	b := NewBuilder()
	guard := b.VarRef("x", Bool)
	fn := &Function{
		Name: "f",
		Ret:  Void,
		Body: b.Compound(
			b.If(guard, b.Return(nil), nil),
			// same instance embedded a second time: ownership violation
			b.While(guard, b.Compound()),
		),
	}
	err := CheckTree(fn)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSharedNode)
}

func TestCheckTreeAcceptsCleanTree(t *testing.T) {
	b := NewBuilder()
	fn := &Function{
		Name: "f",
		Ret:  Int32,
		Body: b.Compound(
			b.If(b.VarRef("x", Bool), b.Return(b.IntLit(1, Int32)), b.Return(b.IntLit(0, Int32))),
		),
	}
	assert.NoError(t, CheckTree(fn))
}

func TestCountNodes(t *testing.T) {
	b := NewBuilder()
	fn := &Function{
		Name: "f",
		Body: b.Compound(
			b.ExprStmt(b.Call("g", Void, b.VarRef("x", Int32))),
		),
	}
	// compound + expr-stmt + call + var
	assert.Equal(t, 4, CountNodes(fn))
}

func TestParseTypeRoundTrip(t *testing.T) {
	for _, typ := range []Type{Void, Bool, Int8, Int64, UInt32, Float64, Pointer, Aggregate} {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseType("q17")
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	b := NewBuilder()
	fn := &Function{
		Name:   "clamp",
		Ret:    Int32,
		Params: []Param{{Name: "x", Typ: Int32}, {Name: "hi", Typ: Int32}},
		Body: b.Compound(
			b.If(b.Binary(OpGt, b.VarRef("x", Int32), b.VarRef("hi", Int32)),
				b.Return(b.VarRef("hi", Int32)),
				nil),
			b.While(b.Binary(OpNe, b.VarRef("x", Int32), b.IntLit(0, Int32)),
				b.Compound(b.Break())),
			b.DoWhile(b.Compound(b.ExprStmt(b.Call("tick", Void))), b.IntLit(0, Bool)),
			b.Decl("t", Float64, b.FloatLit(0.5, Float64)),
			b.ExprStmt(b.Ternary(b.VarRef("x", Int32),
				b.Cast(Int64, b.Member(b.VarRef("s", Aggregate), "f", Int64)),
				b.Index(b.VarRef("a", Pointer), b.IntLit(3, Int64), Int64))),
			b.Return(b.VarRef("x", Int32)),
		),
	}

	data, err := EncodeFunction(fn)
	require.NoError(t, err)

	back, err := DecodeFunction(NewBuilder(), data)
	require.NoError(t, err)

	again, err := EncodeFunction(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
	assert.Equal(t, CountNodes(fn), CountNodes(back))
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	_, err := DecodeFunction(NewBuilder(), []byte(`{"body":{"kind":"null"}}`))
	assert.Error(t, err)

	_, err = DecodeFunction(NewBuilder(), []byte(`{"name":"f","body":{"kind":"goto"}}`))
	assert.Error(t, err)

	_, err = DecodeFunction(NewBuilder(), []byte(`{"name":"f","body":{"kind":"expr","x":{"kind":"binary","op":"@","x":{"kind":"int","int":1,"type":"i32"},"y":{"kind":"int","int":2,"type":"i32"}}}}`))
	assert.Error(t, err)
}
