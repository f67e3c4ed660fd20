package transform

import (
	"github.com/restruct-labs/restruct/internal/cast"
)

// DeadStmt clears out statements that can never run or do nothing:
// null statements, code trailing a return or break inside the same
// compound, and branches with empty bodies. Guards with calls are
// preserved as expression statements when their branch disappears.
type DeadStmt struct {
	b *cast.Builder
}

func NewDeadStmt(b *cast.Builder) *DeadStmt {
	return &DeadStmt{b: b}
}

func (p *DeadStmt) Name() string { return "dead-stmt" }

func (p *DeadStmt) Run(fn *cast.Function) (bool, error) {
	changed := false
	p.sweepCompound(fn.Body, &changed)
	return changed, nil
}

func (p *DeadStmt) sweepCompound(c *cast.Compound, changed *bool) {
	out := c.Stmts[:0]
	for _, st := range c.Stmts {
		repl := p.sweepStmt(st, changed)
		if isEmpty(repl) {
			*changed = true
			continue
		}
		out = append(out, repl)
		if isTerminator(repl) {
			break
		}
	}
	if len(out) < len(c.Stmts) {
		*changed = true
	}
	c.Stmts = out
}

func (p *DeadStmt) sweepStmt(s cast.Stmt, changed *bool) cast.Stmt {
	switch x := s.(type) {
	case *cast.Compound:
		p.sweepCompound(x, changed)
		return x
	case *cast.If:
		x.Then = p.sweepStmt(x.Then, changed)
		if x.Else != nil {
			x.Else = p.sweepStmt(x.Else, changed)
			if isEmpty(x.Else) {
				x.Else = nil
				*changed = true
			}
		}
		if !isEmpty(x.Then) {
			return x
		}
		if x.Else != nil {
			// flip the branch instead of keeping an empty arm
			x.Cond = p.b.Not(x.Cond)
			x.Then = x.Else
			x.Else = nil
			*changed = true
			return x
		}
		*changed = true
		if cast.HasCall(x.Cond) {
			return p.b.ExprStmt(x.Cond)
		}
		return p.b.Null()
	case *cast.While:
		x.Body = p.sweepStmt(x.Body, changed)
		return x
	case *cast.DoWhile:
		x.Body = p.sweepStmt(x.Body, changed)
		return x
	case *cast.ExprStmt:
		// an expression statement without calls computes nothing
		// observable
		if !cast.HasCall(x.X) {
			*changed = true
			return p.b.Null()
		}
		return x
	default:
		return s
	}
}

// isEmpty reports whether s is a null statement or a compound with no
// statements.
func isEmpty(s cast.Stmt) bool {
	switch x := s.(type) {
	case *cast.Null:
		return true
	case *cast.Compound:
		return len(x.Stmts) == 0
	}
	return false
}

// isTerminator reports whether control cannot flow past s.
func isTerminator(s cast.Stmt) bool {
	switch s.(type) {
	case *cast.Return, *cast.Break:
		return true
	}
	return false
}
