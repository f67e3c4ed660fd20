package cast

// CloneExpr deep-copies e, assigning fresh identities from b. Sharing
// an expression instance across two tree locations is disallowed, so a
// rewrite that wants the "same" expression twice must clone.
func CloneExpr(b *Builder, e Expr) Expr {
	switch x := e.(type) {
	case *IntLit:
		return b.IntLit(x.Val, x.Typ)
	case *FloatLit:
		return b.FloatLit(x.Val, x.Typ)
	case *StringLit:
		return b.StringLit(x.Val)
	case *VarRef:
		return b.VarRef(x.Name, x.Typ)
	case *Unary:
		return b.Unary(x.Op, CloneExpr(b, x.X))
	case *Binary:
		return b.Binary(x.Op, CloneExpr(b, x.X), CloneExpr(b, x.Y))
	case *CastExpr:
		return b.Cast(x.To, CloneExpr(b, x.X))
	case *Member:
		return b.Member(CloneExpr(b, x.X), x.Field, x.Typ)
	case *Index:
		return b.Index(CloneExpr(b, x.X), CloneExpr(b, x.Idx), x.Typ)
	case *Call:
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = CloneExpr(b, a)
		}
		return b.Call(x.Callee, x.Typ, args...)
	case *Ternary:
		return b.Ternary(CloneExpr(b, x.Cond), CloneExpr(b, x.Then), CloneExpr(b, x.Else))
	default:
		panic("cast: unknown expression kind")
	}
}

// CloneStmt deep-copies s, assigning fresh identities from b.
func CloneStmt(b *Builder, s Stmt) Stmt {
	switch x := s.(type) {
	case *Compound:
		stmts := make([]Stmt, len(x.Stmts))
		for i, st := range x.Stmts {
			stmts[i] = CloneStmt(b, st)
		}
		return b.Compound(stmts...)
	case *If:
		var els Stmt
		if x.Else != nil {
			els = CloneStmt(b, x.Else)
		}
		return b.If(CloneExpr(b, x.Cond), CloneStmt(b, x.Then), els)
	case *While:
		return b.While(CloneExpr(b, x.Cond), CloneStmt(b, x.Body))
	case *DoWhile:
		return b.DoWhile(CloneStmt(b, x.Body), CloneExpr(b, x.Cond))
	case *Break:
		return b.Break()
	case *Return:
		if x.Value == nil {
			return b.Return(nil)
		}
		return b.Return(CloneExpr(b, x.Value))
	case *Decl:
		if x.Init == nil {
			return b.Decl(x.Name, x.Typ, nil)
		}
		return b.Decl(x.Name, x.Typ, CloneExpr(b, x.Init))
	case *ExprStmt:
		return b.ExprStmt(CloneExpr(b, x.X))
	case *Null:
		return b.Null()
	default:
		panic("cast: unknown statement kind")
	}
}
