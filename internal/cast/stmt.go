package cast

// Stmt represents a statement node. A statement exclusively owns its
// direct child statements and its own guard/value expressions.
type Stmt interface {
	Node
	isStmt()
}

// Compound is an ordered sequence of statements.
type Compound struct {
	node
	Stmts []Stmt
}

func (s *Compound) isStmt() {}

// If is a conditional with an optional else branch.
type If struct {
	node
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

func (s *If) isStmt() {}

// While is a guard-first loop.
type While struct {
	node
	Cond Expr
	Body Stmt
}

func (s *While) isStmt() {}

// DoWhile is a body-first loop; the body runs once before any guard
// check.
type DoWhile struct {
	node
	Body Stmt
	Cond Expr
}

func (s *DoWhile) isStmt() {}

// Break exits the innermost enclosing loop.
type Break struct {
	node
}

func (s *Break) isStmt() {}

// Return exits the function with an optional value.
type Return struct {
	node
	Value Expr // nil for a bare return
}

func (s *Return) isStmt() {}

// Decl declares a local variable with an optional initializer.
type Decl struct {
	node
	Name string
	Typ  Type
	Init Expr // nil when uninitialized
}

func (s *Decl) isStmt() {}

// ExprStmt evaluates an expression for its effects.
type ExprStmt struct {
	node
	X Expr
}

func (s *ExprStmt) isStmt() {}

// Null is the empty statement. Passes use it as the removal
// placeholder; DeadStmt sweeps it out of compounds.
type Null struct {
	node
}

func (s *Null) isStmt() {}

// Param is a formal parameter of a function.
type Param struct {
	Name string
	Typ  Type
}

// Function is the unit the pipeline processes: one structured,
// goto-free function body.
type Function struct {
	Name   string
	Ret    Type
	Params []Param
	Body   *Compound
}
