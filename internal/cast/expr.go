package cast

import (
	"fmt"
	"strings"
)

// NodeID is the stable identity of a tree node, assigned once at
// creation and never reused within a function body.
type NodeID uint64

// node carries the identity and the lazily memoized structural hash
// shared by every tree node.
type node struct {
	id   NodeID
	hash uint64 // 0 until first computed
}

func (n *node) ID() NodeID { return n.id }

// Node is implemented by every statement and expression.
type Node interface {
	ID() NodeID
}

// Expr represents an expression node. Expressions are owned by the
// statement that embeds them; the same instance must never appear in
// two places in the tree.
type Expr interface {
	Node
	Type() Type
	isExpr()
	String() string
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	_ UnaryOp = iota
	OpLNot
	OpNeg
	OpBitNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpLNot:
		return "!"
	case OpNeg:
		return "-"
	case OpBitNot:
		return "~"
	default:
		return "?"
	}
}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	_ BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLAnd
	OpLOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpRem:
		return "%"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLAnd:
		return "&&"
	case OpLOr:
		return "||"
	default:
		return "?"
	}
}

// IsComparison reports whether op yields a boolean regardless of
// operand types.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// IsLogical reports whether op is a short-circuit boolean connective.
func (op BinaryOp) IsLogical() bool {
	return op == OpLAnd || op == OpLOr
}

// IntLit is an integer literal. Val holds the sign-extended value for
// signed types and the zero-extended value reinterpreted for unsigned
// ones.
type IntLit struct {
	node
	Val int64
	Typ Type
}

func (e *IntLit) isExpr()    {}
func (e *IntLit) Type() Type { return e.Typ }
func (e *IntLit) String() string {
	if e.Typ.Kind == TypeInt && !e.Typ.Signed {
		return fmt.Sprintf("%d", uint64(e.Val))
	}
	return fmt.Sprintf("%d", e.Val)
}

// IsTrue reports whether the literal is a nonzero boolean/integer.
func (e *IntLit) IsTrue() bool { return e.Val != 0 }

// FloatLit is a floating-point literal.
type FloatLit struct {
	node
	Val float64
	Typ Type
}

func (e *FloatLit) isExpr()        {}
func (e *FloatLit) Type() Type     { return e.Typ }
func (e *FloatLit) String() string { return fmt.Sprintf("%g", e.Val) }

// StringLit is a string literal.
type StringLit struct {
	node
	Val string
}

func (e *StringLit) isExpr()        {}
func (e *StringLit) Type() Type     { return Pointer }
func (e *StringLit) String() string { return fmt.Sprintf("%q", e.Val) }

// VarRef references a named variable.
type VarRef struct {
	node
	Name string
	Typ  Type
}

func (e *VarRef) isExpr()        {}
func (e *VarRef) Type() Type     { return e.Typ }
func (e *VarRef) String() string { return e.Name }

// Unary applies a unary operator.
type Unary struct {
	node
	Op UnaryOp
	X  Expr
}

func (e *Unary) isExpr() {}
func (e *Unary) Type() Type {
	if e.Op == OpLNot {
		return Bool
	}
	return e.X.Type()
}
func (e *Unary) String() string { return e.Op.String() + e.X.String() }

// Binary applies a binary operator.
type Binary struct {
	node
	Op BinaryOp
	X  Expr
	Y  Expr
}

func (e *Binary) isExpr() {}
func (e *Binary) Type() Type {
	if e.Op.IsComparison() || e.Op.IsLogical() {
		return Bool
	}
	return e.X.Type()
}
func (e *Binary) String() string {
	return "(" + e.X.String() + " " + e.Op.String() + " " + e.Y.String() + ")"
}

// CastExpr converts X to the target type.
type CastExpr struct {
	node
	To Type
	X  Expr
}

func (e *CastExpr) isExpr()        {}
func (e *CastExpr) Type() Type     { return e.To }
func (e *CastExpr) String() string { return "(" + e.To.String() + ")" + e.X.String() }

// Member accesses a named field of an aggregate.
type Member struct {
	node
	X     Expr
	Field string
	Typ   Type
}

func (e *Member) isExpr()        {}
func (e *Member) Type() Type     { return e.Typ }
func (e *Member) String() string { return e.X.String() + "." + e.Field }

// Index accesses an array element.
type Index struct {
	node
	X   Expr
	Idx Expr
	Typ Type
}

func (e *Index) isExpr()        {}
func (e *Index) Type() Type     { return e.Typ }
func (e *Index) String() string { return e.X.String() + "[" + e.Idx.String() + "]" }

// Call invokes a named function. Calls are opaque and may have side
// effects; no pass may duplicate or discard one.
type Call struct {
	node
	Callee string
	Args   []Expr
	Typ    Type
}

func (e *Call) isExpr()    {}
func (e *Call) Type() Type { return e.Typ }
func (e *Call) String() string {
	var sb strings.Builder
	sb.WriteString(e.Callee)
	sb.WriteByte('(')
	for i, a := range e.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Ternary is the conditional operator cond ? then : else.
type Ternary struct {
	node
	Cond Expr
	Then Expr
	Else Expr
}

func (e *Ternary) isExpr()    {}
func (e *Ternary) Type() Type { return e.Then.Type() }
func (e *Ternary) String() string {
	return "(" + e.Cond.String() + " ? " + e.Then.String() + " : " + e.Else.String() + ")"
}
