package cast

import (
	"errors"
	"fmt"
)

// ErrSharedNode reports a tree-ownership violation: a node reachable
// from more than one parent.
var ErrSharedNode = errors.New("node reachable from more than one parent")

// WalkExpr calls f on e and every expression below it, pre-order.
func WalkExpr(e Expr, f func(Expr)) {
	f(e)
	switch x := e.(type) {
	case *Unary:
		WalkExpr(x.X, f)
	case *Binary:
		WalkExpr(x.X, f)
		WalkExpr(x.Y, f)
	case *CastExpr:
		WalkExpr(x.X, f)
	case *Member:
		WalkExpr(x.X, f)
	case *Index:
		WalkExpr(x.X, f)
		WalkExpr(x.Idx, f)
	case *Call:
		for _, a := range x.Args {
			WalkExpr(a, f)
		}
	case *Ternary:
		WalkExpr(x.Cond, f)
		WalkExpr(x.Then, f)
		WalkExpr(x.Else, f)
	}
}

// WalkStmt calls f on s and every statement below it, pre-order.
// Expressions are not visited; use WalkExpr on the guards f sees.
func WalkStmt(s Stmt, f func(Stmt)) {
	f(s)
	switch x := s.(type) {
	case *Compound:
		for _, st := range x.Stmts {
			WalkStmt(st, f)
		}
	case *If:
		WalkStmt(x.Then, f)
		if x.Else != nil {
			WalkStmt(x.Else, f)
		}
	case *While:
		WalkStmt(x.Body, f)
	case *DoWhile:
		WalkStmt(x.Body, f)
	}
}

// OwnedExprs calls f on the expressions directly owned by s: guards,
// return values, initializers and expression-statement payloads.
func OwnedExprs(s Stmt, f func(Expr)) {
	switch x := s.(type) {
	case *If:
		f(x.Cond)
	case *While:
		f(x.Cond)
	case *DoWhile:
		f(x.Cond)
	case *Return:
		if x.Value != nil {
			f(x.Value)
		}
	case *Decl:
		if x.Init != nil {
			f(x.Init)
		}
	case *ExprStmt:
		f(x.X)
	}
}

// CountNodes returns the number of statement and expression nodes in
// the function body. Passes must never grow this figure.
func CountNodes(fn *Function) int {
	n := 0
	WalkStmt(fn.Body, func(s Stmt) {
		n++
		OwnedExprs(s, func(e Expr) {
			WalkExpr(e, func(Expr) { n++ })
		})
	})
	return n
}

// HasCall reports whether e contains a function call. Calls are the
// only side-effecting expression kind in this vocabulary.
func HasCall(e Expr) bool {
	found := false
	WalkExpr(e, func(sub Expr) {
		if _, ok := sub.(*Call); ok {
			found = true
		}
	})
	return found
}

// CheckTree verifies strict tree ownership: no statement or expression
// instance reachable twice. Returns ErrSharedNode (wrapped with the
// offending identity) on violation.
func CheckTree(fn *Function) error {
	seen := make(map[Node]struct{})
	var dup Node
	visit := func(n Node) {
		if dup != nil {
			return
		}
		if _, ok := seen[n]; ok {
			dup = n
			return
		}
		seen[n] = struct{}{}
	}
	WalkStmt(fn.Body, func(s Stmt) {
		visit(s)
		OwnedExprs(s, func(e Expr) {
			WalkExpr(e, func(sub Expr) { visit(sub) })
		})
	})
	if dup != nil {
		return fmt.Errorf("%s: node %d: %w", fn.Name, dup.ID(), ErrSharedNode)
	}
	return nil
}
