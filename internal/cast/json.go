package cast

import (
	"encoding/json"
	"fmt"
)

// JSON interchange for function trees. The upstream AST builder hands
// the core a structured-but-unsimplified tree serialized in this
// kind-tagged form; the CLI reads it back through DecodeFunction,
// assigning fresh node identities from a per-function builder.

type jsonParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonFunction struct {
	Name   string          `json:"name"`
	Ret    string          `json:"ret"`
	Params []jsonParam     `json:"params,omitempty"`
	Body   json.RawMessage `json:"body"`
}

type jsonNode struct {
	Kind string `json:"kind"`

	// Ref is the textual IR provenance reference of the node, empty
	// when origin is unknown.
	Ref string `json:"ref,omitempty"`

	// literals and references
	Int    *int64   `json:"int,omitempty"`
	Float  *float64 `json:"float,omitempty"`
	String *string  `json:"string,omitempty"`
	Name   string   `json:"name,omitempty"`
	Type   string   `json:"type,omitempty"`

	// operators
	Op    string          `json:"op,omitempty"`
	X     json.RawMessage `json:"x,omitempty"`
	Y     json.RawMessage `json:"y,omitempty"`
	To    string          `json:"to,omitempty"`
	Field string          `json:"field,omitempty"`
	Idx   json.RawMessage `json:"idx,omitempty"`

	Callee string            `json:"callee,omitempty"`
	Args   []json.RawMessage `json:"args,omitempty"`

	Cond json.RawMessage `json:"cond,omitempty"`
	Then json.RawMessage `json:"then,omitempty"`
	Else json.RawMessage `json:"else,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`

	Stmts []json.RawMessage `json:"stmts,omitempty"`
	Value json.RawMessage   `json:"value,omitempty"`
	Init  json.RawMessage   `json:"init,omitempty"`
}

var unaryOpNames = map[string]UnaryOp{
	"!": OpLNot,
	"-": OpNeg,
	"~": OpBitNot,
}

var binaryOpNames = map[string]BinaryOp{
	"+":  OpAdd,
	"-":  OpSub,
	"*":  OpMul,
	"/":  OpDiv,
	"%":  OpRem,
	"&":  OpAnd,
	"|":  OpOr,
	"^":  OpXor,
	"<<": OpShl,
	">>": OpShr,
	"==": OpEq,
	"!=": OpNe,
	"<":  OpLt,
	"<=": OpLe,
	">":  OpGt,
	">=": OpGe,
	"&&": OpLAnd,
	"||": OpLOr,
}

// DecodeFunction parses a serialized function tree, allocating every
// node through b.
// rec stores the node's textual provenance reference, if any.
func rec[T Node](refs map[NodeID]string, ref string, n T) T {
	if ref != "" && refs != nil {
		refs[n.ID()] = ref
	}
	return n
}

// DecodeFunction reads the interchange form, discarding per-node
// provenance references.
func DecodeFunction(b *Builder, data []byte) (*Function, error) {
	fn, _, err := DecodeFunctionRefs(b, data)
	return fn, err
}

// DecodeFunctionRefs reads the interchange form and additionally
// returns the textual provenance reference of every node that carried
// one. Callers resolve the strings against their IR view.
func DecodeFunctionRefs(b *Builder, data []byte) (*Function, map[NodeID]string, error) {
	refs := make(map[NodeID]string)
	var jf jsonFunction
	if err := json.Unmarshal(data, &jf); err != nil {
		return nil, nil, fmt.Errorf("decoding function: %w", err)
	}
	if jf.Name == "" {
		return nil, nil, fmt.Errorf("decoding function: missing name")
	}
	ret := Void
	if jf.Ret != "" {
		var err error
		if ret, err = ParseType(jf.Ret); err != nil {
			return nil, nil, fmt.Errorf("decoding function %s: %w", jf.Name, err)
		}
	}
	params := make([]Param, 0, len(jf.Params))
	for _, p := range jf.Params {
		t, err := ParseType(p.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding function %s: param %s: %w", jf.Name, p.Name, err)
		}
		params = append(params, Param{Name: p.Name, Typ: t})
	}
	body, err := decodeStmt(b, refs, jf.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding function %s: %w", jf.Name, err)
	}
	compound, ok := body.(*Compound)
	if !ok {
		compound = b.Compound(body)
	}
	return &Function{Name: jf.Name, Ret: ret, Params: params, Body: compound}, refs, nil
}

func decodeStmt(b *Builder, refs map[NodeID]string, raw json.RawMessage) (Stmt, error) {
	var n jsonNode
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	switch n.Kind {
	case "compound":
		stmts := make([]Stmt, 0, len(n.Stmts))
		for _, rs := range n.Stmts {
			s, err := decodeStmt(b, refs, rs)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		}
		return rec(refs, n.Ref, b.Compound(stmts...)), nil
	case "if":
		cond, err := decodeExpr(b, refs, n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmt(b, refs, n.Then)
		if err != nil {
			return nil, err
		}
		var els Stmt
		if len(n.Else) > 0 {
			if els, err = decodeStmt(b, refs, n.Else); err != nil {
				return nil, err
			}
		}
		return rec(refs, n.Ref, b.If(cond, then, els)), nil
	case "while":
		cond, err := decodeExpr(b, refs, n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(b, refs, n.Body)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.While(cond, body)), nil
	case "do":
		body, err := decodeStmt(b, refs, n.Body)
		if err != nil {
			return nil, err
		}
		cond, err := decodeExpr(b, refs, n.Cond)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.DoWhile(body, cond)), nil
	case "break":
		return rec(refs, n.Ref, b.Break()), nil
	case "return":
		if len(n.Value) == 0 {
			return rec(refs, n.Ref, b.Return(nil)), nil
		}
		v, err := decodeExpr(b, refs, n.Value)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.Return(v)), nil
	case "decl":
		t, err := ParseType(n.Type)
		if err != nil {
			return nil, err
		}
		var init Expr
		if len(n.Init) > 0 {
			if init, err = decodeExpr(b, refs, n.Init); err != nil {
				return nil, err
			}
		}
		return rec(refs, n.Ref, b.Decl(n.Name, t, init)), nil
	case "expr":
		x, err := decodeExpr(b, refs, n.X)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.ExprStmt(x)), nil
	case "null":
		return rec(refs, n.Ref, b.Null()), nil
	default:
		return nil, fmt.Errorf("unknown statement kind %q", n.Kind)
	}
}

func decodeExpr(b *Builder, refs map[NodeID]string, raw json.RawMessage) (Expr, error) {
	var n jsonNode
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	switch n.Kind {
	case "int":
		if n.Int == nil {
			return nil, fmt.Errorf("int literal missing value")
		}
		t, err := ParseType(n.Type)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.IntLit(*n.Int, t)), nil
	case "float":
		if n.Float == nil {
			return nil, fmt.Errorf("float literal missing value")
		}
		t, err := ParseType(n.Type)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.FloatLit(*n.Float, t)), nil
	case "string":
		if n.String == nil {
			return nil, fmt.Errorf("string literal missing value")
		}
		return rec(refs, n.Ref, b.StringLit(*n.String)), nil
	case "var":
		t, err := ParseType(n.Type)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.VarRef(n.Name, t)), nil
	case "unary":
		op, ok := unaryOpNames[n.Op]
		if !ok {
			return nil, fmt.Errorf("unknown unary operator %q", n.Op)
		}
		x, err := decodeExpr(b, refs, n.X)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.Unary(op, x)), nil
	case "binary":
		op, ok := binaryOpNames[n.Op]
		if !ok {
			return nil, fmt.Errorf("unknown binary operator %q", n.Op)
		}
		x, err := decodeExpr(b, refs, n.X)
		if err != nil {
			return nil, err
		}
		y, err := decodeExpr(b, refs, n.Y)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.Binary(op, x, y)), nil
	case "cast":
		to, err := ParseType(n.To)
		if err != nil {
			return nil, err
		}
		x, err := decodeExpr(b, refs, n.X)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.Cast(to, x)), nil
	case "member":
		t, err := ParseType(n.Type)
		if err != nil {
			return nil, err
		}
		x, err := decodeExpr(b, refs, n.X)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.Member(x, n.Field, t)), nil
	case "index":
		t, err := ParseType(n.Type)
		if err != nil {
			return nil, err
		}
		x, err := decodeExpr(b, refs, n.X)
		if err != nil {
			return nil, err
		}
		idx, err := decodeExpr(b, refs, n.Idx)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.Index(x, idx, t)), nil
	case "call":
		t := Void
		if n.Type != "" {
			var err error
			if t, err = ParseType(n.Type); err != nil {
				return nil, err
			}
		}
		args := make([]Expr, 0, len(n.Args))
		for _, ra := range n.Args {
			a, err := decodeExpr(b, refs, ra)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return rec(refs, n.Ref, b.Call(n.Callee, t, args...)), nil
	case "ternary":
		cond, err := decodeExpr(b, refs, n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeExpr(b, refs, n.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeExpr(b, refs, n.Else)
		if err != nil {
			return nil, err
		}
		return rec(refs, n.Ref, b.Ternary(cond, then, els)), nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", n.Kind)
	}
}

// EncodeFunction serializes fn back into the interchange form without
// provenance references.
func EncodeFunction(fn *Function) ([]byte, error) {
	return EncodeFunctionRefs(fn, nil)
}

// EncodeFunctionRefs serializes fn, attaching the given textual
// provenance reference to every node that has one.
func EncodeFunctionRefs(fn *Function, refs map[NodeID]string) ([]byte, error) {
	body, err := encodeStmt(refs, fn.Body)
	if err != nil {
		return nil, fmt.Errorf("encoding function %s: %w", fn.Name, err)
	}
	params := make([]jsonParam, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, jsonParam{Name: p.Name, Type: p.Typ.String()})
	}
	return json.MarshalIndent(jsonFunction{
		Name:   fn.Name,
		Ret:    fn.Ret.String(),
		Params: params,
		Body:   body,
	}, "", "  ")
}

func marshalNode(refs map[NodeID]string, id NodeID, n jsonNode) (json.RawMessage, error) {
	if ref, ok := refs[id]; ok {
		n.Ref = ref
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func encodeStmt(refs map[NodeID]string, s Stmt) (json.RawMessage, error) {
	switch x := s.(type) {
	case *Compound:
		stmts := make([]json.RawMessage, 0, len(x.Stmts))
		for _, st := range x.Stmts {
			rs, err := encodeStmt(refs, st)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, rs)
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "compound", Stmts: stmts})
	case *If:
		cond, err := encodeExpr(refs, x.Cond)
		if err != nil {
			return nil, err
		}
		then, err := encodeStmt(refs, x.Then)
		if err != nil {
			return nil, err
		}
		n := jsonNode{Kind: "if", Cond: cond, Then: then}
		if x.Else != nil {
			if n.Else, err = encodeStmt(refs, x.Else); err != nil {
				return nil, err
			}
		}
		return marshalNode(refs, x.ID(), n)
	case *While:
		cond, err := encodeExpr(refs, x.Cond)
		if err != nil {
			return nil, err
		}
		body, err := encodeStmt(refs, x.Body)
		if err != nil {
			return nil, err
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "while", Cond: cond, Body: body})
	case *DoWhile:
		body, err := encodeStmt(refs, x.Body)
		if err != nil {
			return nil, err
		}
		cond, err := encodeExpr(refs, x.Cond)
		if err != nil {
			return nil, err
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "do", Cond: cond, Body: body})
	case *Break:
		return marshalNode(refs, x.ID(), jsonNode{Kind: "break"})
	case *Return:
		n := jsonNode{Kind: "return"}
		if x.Value != nil {
			v, err := encodeExpr(refs, x.Value)
			if err != nil {
				return nil, err
			}
			n.Value = v
		}
		return marshalNode(refs, x.ID(), n)
	case *Decl:
		n := jsonNode{Kind: "decl", Name: x.Name, Type: x.Typ.String()}
		if x.Init != nil {
			init, err := encodeExpr(refs, x.Init)
			if err != nil {
				return nil, err
			}
			n.Init = init
		}
		return marshalNode(refs, x.ID(), n)
	case *ExprStmt:
		xe, err := encodeExpr(refs, x.X)
		if err != nil {
			return nil, err
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "expr", X: xe})
	case *Null:
		return marshalNode(refs, x.ID(), jsonNode{Kind: "null"})
	default:
		return nil, fmt.Errorf("unknown statement kind %T", s)
	}
}

func encodeExpr(refs map[NodeID]string, e Expr) (json.RawMessage, error) {
	switch x := e.(type) {
	case *IntLit:
		v := x.Val
		return marshalNode(refs, x.ID(), jsonNode{Kind: "int", Int: &v, Type: x.Typ.String()})
	case *FloatLit:
		v := x.Val
		return marshalNode(refs, x.ID(), jsonNode{Kind: "float", Float: &v, Type: x.Typ.String()})
	case *StringLit:
		v := x.Val
		return marshalNode(refs, x.ID(), jsonNode{Kind: "string", String: &v})
	case *VarRef:
		return marshalNode(refs, x.ID(), jsonNode{Kind: "var", Name: x.Name, Type: x.Typ.String()})
	case *Unary:
		xe, err := encodeExpr(refs, x.X)
		if err != nil {
			return nil, err
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "unary", Op: x.Op.String(), X: xe})
	case *Binary:
		xe, err := encodeExpr(refs, x.X)
		if err != nil {
			return nil, err
		}
		ye, err := encodeExpr(refs, x.Y)
		if err != nil {
			return nil, err
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "binary", Op: x.Op.String(), X: xe, Y: ye})
	case *CastExpr:
		xe, err := encodeExpr(refs, x.X)
		if err != nil {
			return nil, err
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "cast", To: x.To.String(), X: xe})
	case *Member:
		xe, err := encodeExpr(refs, x.X)
		if err != nil {
			return nil, err
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "member", X: xe, Field: x.Field, Type: x.Typ.String()})
	case *Index:
		xe, err := encodeExpr(refs, x.X)
		if err != nil {
			return nil, err
		}
		idx, err := encodeExpr(refs, x.Idx)
		if err != nil {
			return nil, err
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "index", X: xe, Idx: idx, Type: x.Typ.String()})
	case *Call:
		args := make([]json.RawMessage, 0, len(x.Args))
		for _, a := range x.Args {
			ra, err := encodeExpr(refs, a)
			if err != nil {
				return nil, err
			}
			args = append(args, ra)
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "call", Callee: x.Callee, Args: args, Type: x.Typ.String()})
	case *Ternary:
		cond, err := encodeExpr(refs, x.Cond)
		if err != nil {
			return nil, err
		}
		then, err := encodeExpr(refs, x.Then)
		if err != nil {
			return nil, err
		}
		els, err := encodeExpr(refs, x.Else)
		if err != nil {
			return nil, err
		}
		return marshalNode(refs, x.ID(), jsonNode{Kind: "ternary", Cond: cond, Then: then, Else: els})
	default:
		return nil, fmt.Errorf("unknown expression kind %T", e)
	}
}
