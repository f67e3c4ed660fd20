package transform

import (
	"github.com/restruct-labs/restruct/internal/cast"
)

// Flatten splices nested compounds into their parent compound. Only
// declaration-free compounds are spliced; hoisting a declaration
// would widen its scope and could capture names in the parent.
type Flatten struct{}

func NewFlatten() *Flatten {
	return &Flatten{}
}

func (p *Flatten) Name() string { return "flatten" }

func (p *Flatten) Run(fn *cast.Function) (bool, error) {
	changed := false
	cast.WalkStmt(fn.Body, func(s cast.Stmt) {
		c, ok := s.(*cast.Compound)
		if !ok {
			return
		}
		if !needsSplice(c) {
			return
		}
		out := make([]cast.Stmt, 0, len(c.Stmts))
		for _, st := range c.Stmts {
			if nested, ok := st.(*cast.Compound); ok && !declaresNames(nested) {
				out = append(out, nested.Stmts...)
				changed = true
				continue
			}
			out = append(out, st)
		}
		c.Stmts = out
	})
	return changed, nil
}

func needsSplice(c *cast.Compound) bool {
	for _, st := range c.Stmts {
		if nested, ok := st.(*cast.Compound); ok && !declaresNames(nested) {
			return true
		}
	}
	return false
}

func declaresNames(c *cast.Compound) bool {
	for _, st := range c.Stmts {
		if _, ok := st.(*cast.Decl); ok {
			return true
		}
	}
	return false
}
