package cast

import "math"

// Structural hashing for expressions. The hash of a node is computed
// lazily on first request and memoized in the node instance; it covers
// the operator kind, literal values, variable names, semantic types,
// and the recursively hashed children. It is a bucketing aid only,
// never a substitute for the semantic-equivalence predicate.

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

func hashMix(h, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= (v >> (8 * i)) & 0xff
		h *= fnvPrime
	}
	return h
}

func hashString(h uint64, s string) uint64 {
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}

func hashType(h uint64, t Type) uint64 {
	h = hashMix(h, uint64(t.Kind))
	h = hashMix(h, uint64(t.Bits))
	if t.Signed {
		h = hashMix(h, 1)
	}
	return h
}

// HashExpr returns the memoized structural hash of e.
func HashExpr(e Expr) uint64 {
	switch x := e.(type) {
	case *IntLit:
		if x.hash == 0 {
			x.hash = nonzero(hashType(hashMix(hashMix(fnvOffset, 1), uint64(x.Val)), x.Typ))
		}
		return x.hash
	case *FloatLit:
		if x.hash == 0 {
			x.hash = nonzero(hashType(hashMix(hashMix(fnvOffset, 2), math.Float64bits(x.Val)), x.Typ))
		}
		return x.hash
	case *StringLit:
		if x.hash == 0 {
			x.hash = nonzero(hashString(hashMix(fnvOffset, 3), x.Val))
		}
		return x.hash
	case *VarRef:
		if x.hash == 0 {
			x.hash = nonzero(hashType(hashString(hashMix(fnvOffset, 4), x.Name), x.Typ))
		}
		return x.hash
	case *Unary:
		if x.hash == 0 {
			x.hash = nonzero(hashMix(hashMix(hashMix(fnvOffset, 5), uint64(x.Op)), HashExpr(x.X)))
		}
		return x.hash
	case *Binary:
		if x.hash == 0 {
			h := hashMix(hashMix(fnvOffset, 6), uint64(x.Op))
			h = hashMix(h, HashExpr(x.X))
			h = hashMix(h, HashExpr(x.Y))
			x.hash = nonzero(h)
		}
		return x.hash
	case *CastExpr:
		if x.hash == 0 {
			x.hash = nonzero(hashMix(hashType(hashMix(fnvOffset, 7), x.To), HashExpr(x.X)))
		}
		return x.hash
	case *Member:
		if x.hash == 0 {
			x.hash = nonzero(hashString(hashMix(hashMix(fnvOffset, 8), HashExpr(x.X)), x.Field))
		}
		return x.hash
	case *Index:
		if x.hash == 0 {
			x.hash = nonzero(hashMix(hashMix(hashMix(fnvOffset, 9), HashExpr(x.X)), HashExpr(x.Idx)))
		}
		return x.hash
	case *Call:
		if x.hash == 0 {
			h := hashString(hashMix(fnvOffset, 10), x.Callee)
			for _, a := range x.Args {
				h = hashMix(h, HashExpr(a))
			}
			x.hash = nonzero(h)
		}
		return x.hash
	case *Ternary:
		if x.hash == 0 {
			h := hashMix(fnvOffset, 11)
			h = hashMix(h, HashExpr(x.Cond))
			h = hashMix(h, HashExpr(x.Then))
			h = hashMix(h, HashExpr(x.Else))
			x.hash = nonzero(h)
		}
		return x.hash
	default:
		return nonzero(hashMix(fnvOffset, 0))
	}
}

func (n *node) resetHash() { n.hash = 0 }

// InvalidateHash clears the memoized hash of e itself. A rewrite that
// replaces a child of e in place must call this on e; untouched
// descendants keep their memos.
func InvalidateHash(e Expr) {
	if x, ok := e.(interface{ resetHash() }); ok {
		x.resetHash()
	}
}

// nonzero keeps 0 free as the "not yet computed" sentinel.
func nonzero(h uint64) uint64 {
	if h == 0 {
		return 1
	}
	return h
}

// StructurallyEqual reports whether a and b are the same expression
// text for text. Hashes are compared first as a cheap reject.
func StructurallyEqual(a, b Expr) bool {
	if a == b {
		return true
	}
	if HashExpr(a) != HashExpr(b) {
		return false
	}
	switch x := a.(type) {
	case *IntLit:
		y, ok := b.(*IntLit)
		return ok && x.Val == y.Val && x.Typ == y.Typ
	case *FloatLit:
		y, ok := b.(*FloatLit)
		return ok && x.Val == y.Val && x.Typ == y.Typ
	case *StringLit:
		y, ok := b.(*StringLit)
		return ok && x.Val == y.Val
	case *VarRef:
		y, ok := b.(*VarRef)
		return ok && x.Name == y.Name && x.Typ == y.Typ
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && StructurallyEqual(x.X, y.X)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && StructurallyEqual(x.X, y.X) && StructurallyEqual(x.Y, y.Y)
	case *CastExpr:
		y, ok := b.(*CastExpr)
		return ok && x.To == y.To && StructurallyEqual(x.X, y.X)
	case *Member:
		y, ok := b.(*Member)
		return ok && x.Field == y.Field && StructurallyEqual(x.X, y.X)
	case *Index:
		y, ok := b.(*Index)
		return ok && StructurallyEqual(x.X, y.X) && StructurallyEqual(x.Idx, y.Idx)
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.Callee != y.Callee || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !StructurallyEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Ternary:
		y, ok := b.(*Ternary)
		return ok && StructurallyEqual(x.Cond, y.Cond) &&
			StructurallyEqual(x.Then, y.Then) && StructurallyEqual(x.Else, y.Else)
	default:
		return false
	}
}
