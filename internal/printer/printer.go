// Package printer renders function bodies as C-like source. Rendering
// goes through a flat token stream first: every token remembers the
// node it was emitted for, so downstream consumers can map source
// spans back to tree nodes and from there to IR provenance.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/restruct-labs/restruct/internal/cast"
)

// TokenKind discriminates layout tokens from content tokens.
type TokenKind int

const (
	TokenMisc TokenKind = iota
	TokenSpace
	TokenNewline
	TokenIndent
)

func (k TokenKind) String() string {
	switch k {
	case TokenMisc:
		return "misc"
	case TokenSpace:
		return "space"
	case TokenNewline:
		return "newline"
	case TokenIndent:
		return "indent"
	default:
		return "?"
	}
}

// Token is one unit of rendered output. Node is the identity of the
// tree node the token belongs to, zero for pure layout.
type Token struct {
	Kind TokenKind
	Text string
	Node cast.NodeID
}

// Printer accumulates tokens for one function.
type Printer struct {
	tokens []Token
	depth  int
}

// Tokenize renders fn into a token stream.
func Tokenize(fn *cast.Function) []Token {
	p := &Printer{}
	p.function(fn)
	return p.tokens
}

// Print renders fn as text. The error is the writer's.
func Print(w io.Writer, fn *cast.Function) error {
	var sb strings.Builder
	for _, tok := range Tokenize(fn) {
		switch tok.Kind {
		case TokenSpace:
			sb.WriteByte(' ')
		case TokenNewline:
			sb.WriteByte('\n')
		case TokenIndent:
			sb.WriteString("  ")
		default:
			sb.WriteString(tok.Text)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Format renders fn to a string.
func Format(fn *cast.Function) string {
	var sb strings.Builder
	_ = Print(&sb, fn) // strings.Builder never errors
	return sb.String()
}

func (p *Printer) misc(n cast.Node, text string) {
	var id cast.NodeID
	if n != nil {
		id = n.ID()
	}
	p.tokens = append(p.tokens, Token{Kind: TokenMisc, Text: text, Node: id})
}

func (p *Printer) space()   { p.tokens = append(p.tokens, Token{Kind: TokenSpace}) }
func (p *Printer) newline() { p.tokens = append(p.tokens, Token{Kind: TokenNewline}) }

func (p *Printer) indent() {
	for i := 0; i < p.depth; i++ {
		p.tokens = append(p.tokens, Token{Kind: TokenIndent})
	}
}

func (p *Printer) function(fn *cast.Function) {
	p.misc(nil, fn.Ret.String())
	p.space()
	p.misc(nil, fn.Name)
	p.misc(nil, "(")
	for i, param := range fn.Params {
		if i > 0 {
			p.misc(nil, ",")
			p.space()
		}
		p.misc(nil, param.Typ.String())
		p.space()
		p.misc(nil, param.Name)
	}
	p.misc(nil, ")")
	p.space()
	p.compound(fn.Body)
	p.newline()
}

func (p *Printer) stmt(s cast.Stmt) {
	switch x := s.(type) {
	case *cast.Compound:
		p.indent()
		p.compound(x)
		p.newline()
	case *cast.If:
		p.ifStmt(x)
	case *cast.While:
		p.indent()
		p.misc(x, "while")
		p.space()
		p.misc(x, "(")
		p.expr(x.Cond, 0)
		p.misc(x, ")")
		p.space()
		p.body(x.Body)
	case *cast.DoWhile:
		p.indent()
		p.misc(x, "do")
		p.space()
		p.compound(asCompound(x.Body))
		p.space()
		p.misc(x, "while")
		p.space()
		p.misc(x, "(")
		p.expr(x.Cond, 0)
		p.misc(x, ");")
		p.newline()
	case *cast.Break:
		p.indent()
		p.misc(x, "break;")
		p.newline()
	case *cast.Return:
		p.indent()
		p.misc(x, "return")
		if x.Value != nil {
			p.space()
			p.expr(x.Value, 0)
		}
		p.misc(x, ";")
		p.newline()
	case *cast.Decl:
		p.indent()
		p.misc(x, x.Typ.String())
		p.space()
		p.misc(x, x.Name)
		if x.Init != nil {
			p.space()
			p.misc(x, "=")
			p.space()
			p.expr(x.Init, 0)
		}
		p.misc(x, ";")
		p.newline()
	case *cast.ExprStmt:
		p.indent()
		p.expr(x.X, 0)
		p.misc(x, ";")
		p.newline()
	case *cast.Null:
		p.indent()
		p.misc(x, ";")
		p.newline()
	}
}

func (p *Printer) ifStmt(x *cast.If) {
	p.indent()
	p.misc(x, "if")
	p.space()
	p.misc(x, "(")
	p.expr(x.Cond, 0)
	p.misc(x, ")")
	p.space()
	if x.Else == nil {
		p.body(x.Then)
		return
	}
	p.compound(asCompound(x.Then))
	p.space()
	p.misc(x, "else")
	p.space()
	if nested, ok := x.Else.(*cast.If); ok {
		p.elseIf(nested)
		return
	}
	p.body(x.Else)
}

// elseIf renders a chained branch on the same line as its else.
func (p *Printer) elseIf(x *cast.If) {
	p.misc(x, "if")
	p.space()
	p.misc(x, "(")
	p.expr(x.Cond, 0)
	p.misc(x, ")")
	p.space()
	if x.Else == nil {
		p.body(x.Then)
		return
	}
	p.compound(asCompound(x.Then))
	p.space()
	p.misc(x, "else")
	p.space()
	if nested, ok := x.Else.(*cast.If); ok {
		p.elseIf(nested)
		return
	}
	p.body(x.Else)
}

// body renders a statement in branch position, bracing it when it is
// not already a compound.
func (p *Printer) body(s cast.Stmt) {
	p.compound(asCompound(s))
	p.newline()
}

// asCompound views s as a compound without reparenting its nodes.
func asCompound(s cast.Stmt) *cast.Compound {
	if c, ok := s.(*cast.Compound); ok {
		return c
	}
	return &cast.Compound{Stmts: []cast.Stmt{s}}
}

func (p *Printer) compound(c *cast.Compound) {
	p.misc(c, "{")
	p.newline()
	p.depth++
	for _, st := range c.Stmts {
		p.stmt(st)
	}
	p.depth--
	p.indent()
	p.misc(c, "}")
}

// Binding strength of each operator, C-style. Higher binds tighter.
func binaryPrec(op cast.BinaryOp) int {
	switch op {
	case cast.OpMul, cast.OpDiv, cast.OpRem:
		return 10
	case cast.OpAdd, cast.OpSub:
		return 9
	case cast.OpShl, cast.OpShr:
		return 8
	case cast.OpLt, cast.OpLe, cast.OpGt, cast.OpGe:
		return 7
	case cast.OpEq, cast.OpNe:
		return 6
	case cast.OpAnd:
		return 5
	case cast.OpXor:
		return 4
	case cast.OpOr:
		return 3
	case cast.OpLAnd:
		return 2
	case cast.OpLOr:
		return 1
	default:
		return 0
	}
}

const (
	unaryPrec   = 11
	postfixPrec = 12
)

// expr renders e, parenthesizing when its operator binds looser than
// the context requires.
func (p *Printer) expr(e cast.Expr, ctx int) {
	switch x := e.(type) {
	case *cast.IntLit:
		p.misc(x, x.String())
	case *cast.FloatLit:
		p.misc(x, x.String())
	case *cast.StringLit:
		p.misc(x, x.String())
	case *cast.VarRef:
		p.misc(x, x.Name)
	case *cast.Unary:
		p.parenIf(x, ctx > unaryPrec, func() {
			p.misc(x, x.Op.String())
			p.expr(x.X, unaryPrec)
		})
	case *cast.Binary:
		prec := binaryPrec(x.Op)
		p.parenIf(x, ctx > prec, func() {
			p.expr(x.X, prec)
			p.space()
			p.misc(x, x.Op.String())
			p.space()
			p.expr(x.Y, prec+1)
		})
	case *cast.CastExpr:
		p.parenIf(x, ctx > unaryPrec, func() {
			p.misc(x, "("+x.To.String()+")")
			p.expr(x.X, unaryPrec)
		})
	case *cast.Member:
		p.expr(x.X, postfixPrec)
		p.misc(x, "."+x.Field)
	case *cast.Index:
		p.expr(x.X, postfixPrec)
		p.misc(x, "[")
		p.expr(x.Idx, 0)
		p.misc(x, "]")
	case *cast.Call:
		p.misc(x, x.Callee)
		p.misc(x, "(")
		for i, a := range x.Args {
			if i > 0 {
				p.misc(x, ",")
				p.space()
			}
			p.expr(a, 0)
		}
		p.misc(x, ")")
	case *cast.Ternary:
		p.parenIf(x, ctx > 0, func() {
			p.expr(x.Cond, 1)
			p.space()
			p.misc(x, "?")
			p.space()
			p.expr(x.Then, 1)
			p.space()
			p.misc(x, ":")
			p.space()
			p.expr(x.Else, 1)
		})
	default:
		p.misc(nil, fmt.Sprintf("/* node %d */", e.ID()))
	}
}

func (p *Printer) parenIf(n cast.Node, need bool, inner func()) {
	if need {
		p.misc(n, "(")
	}
	inner()
	if need {
		p.misc(n, ")")
	}
}
