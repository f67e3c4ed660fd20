package cast

// Builder creates tree nodes with stable, function-scoped identities.
// Both the upstream AST construction and every rewriting pass must
// allocate nodes through the same builder so identities never collide
// within one function body.
type Builder struct {
	next NodeID
}

// NewBuilder returns a builder whose first node gets ID 1.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) newNode() node {
	b.next++
	return node{id: b.next}
}

func (b *Builder) IntLit(v int64, t Type) *IntLit {
	return &IntLit{node: b.newNode(), Val: v, Typ: t}
}

// True returns a fresh canonical true literal.
func (b *Builder) True() *IntLit { return b.IntLit(1, Bool) }

// False returns a fresh canonical false literal.
func (b *Builder) False() *IntLit { return b.IntLit(0, Bool) }

func (b *Builder) FloatLit(v float64, t Type) *FloatLit {
	return &FloatLit{node: b.newNode(), Val: v, Typ: t}
}

func (b *Builder) StringLit(v string) *StringLit {
	return &StringLit{node: b.newNode(), Val: v}
}

func (b *Builder) VarRef(name string, t Type) *VarRef {
	return &VarRef{node: b.newNode(), Name: name, Typ: t}
}

func (b *Builder) Unary(op UnaryOp, x Expr) *Unary {
	return &Unary{node: b.newNode(), Op: op, X: x}
}

func (b *Builder) Not(x Expr) *Unary { return b.Unary(OpLNot, x) }

func (b *Builder) Binary(op BinaryOp, x, y Expr) *Binary {
	return &Binary{node: b.newNode(), Op: op, X: x, Y: y}
}

func (b *Builder) Cast(to Type, x Expr) *CastExpr {
	return &CastExpr{node: b.newNode(), To: to, X: x}
}

func (b *Builder) Member(x Expr, field string, t Type) *Member {
	return &Member{node: b.newNode(), X: x, Field: field, Typ: t}
}

func (b *Builder) Index(x, idx Expr, t Type) *Index {
	return &Index{node: b.newNode(), X: x, Idx: idx, Typ: t}
}

func (b *Builder) Call(callee string, t Type, args ...Expr) *Call {
	return &Call{node: b.newNode(), Callee: callee, Args: args, Typ: t}
}

func (b *Builder) Ternary(cond, then, els Expr) *Ternary {
	return &Ternary{node: b.newNode(), Cond: cond, Then: then, Else: els}
}

func (b *Builder) Compound(stmts ...Stmt) *Compound {
	return &Compound{node: b.newNode(), Stmts: stmts}
}

func (b *Builder) If(cond Expr, then, els Stmt) *If {
	return &If{node: b.newNode(), Cond: cond, Then: then, Else: els}
}

func (b *Builder) While(cond Expr, body Stmt) *While {
	return &While{node: b.newNode(), Cond: cond, Body: body}
}

func (b *Builder) DoWhile(body Stmt, cond Expr) *DoWhile {
	return &DoWhile{node: b.newNode(), Body: body, Cond: cond}
}

func (b *Builder) Break() *Break {
	return &Break{node: b.newNode()}
}

func (b *Builder) Return(v Expr) *Return {
	return &Return{node: b.newNode(), Value: v}
}

func (b *Builder) Decl(name string, t Type, init Expr) *Decl {
	return &Decl{node: b.newNode(), Name: name, Typ: t, Init: init}
}

func (b *Builder) ExprStmt(x Expr) *ExprStmt {
	return &ExprStmt{node: b.newNode(), X: x}
}

func (b *Builder) Null() *Null {
	return &Null{node: b.newNode()}
}
