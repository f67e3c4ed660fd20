// Package ir holds the minimal view of the low-level input program the
// refinement core needs: stable references to the IR values and
// instructions tree nodes were translated from. The full IR module is
// parsed and lowered upstream; only these references cross the
// boundary.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind classifies what a provenance reference points at.
type ValueKind int

const (
	ValueInstruction ValueKind = iota
	ValueArgument
	ValueGlobal
	ValueConstant
)

func (k ValueKind) String() string {
	switch k {
	case ValueInstruction:
		return "inst"
	case ValueArgument:
		return "arg"
	case ValueGlobal:
		return "global"
	case ValueConstant:
		return "const"
	default:
		return "?"
	}
}

// ValueRef identifies one IR value inside one function: the defining
// block and the instruction index within it. ValueRefs are comparable;
// two tree nodes translated from the same IR value carry equal refs.
type ValueRef struct {
	Kind  ValueKind
	Func  string
	Block int
	Index int
}

func (r ValueRef) String() string {
	return fmt.Sprintf("%s:%s.%d.%d", r.Kind, r.Func, r.Block, r.Index)
}

// IsZero reports whether r is the absent reference.
func (r ValueRef) IsZero() bool {
	return r == ValueRef{}
}

// ParseRef is the inverse of ValueRef.String. Used to resolve the
// textual references carried by the interchange form.
func ParseRef(s string) (ValueRef, error) {
	sep := strings.IndexByte(s, ':')
	if sep < 0 {
		return ValueRef{}, fmt.Errorf("malformed value ref %q", s)
	}
	var kind ValueKind
	switch s[:sep] {
	case "inst":
		kind = ValueInstruction
	case "arg":
		kind = ValueArgument
	case "global":
		kind = ValueGlobal
	case "const":
		kind = ValueConstant
	default:
		return ValueRef{}, fmt.Errorf("malformed value ref %q", s)
	}
	rest := s[sep+1:]
	last := strings.LastIndexByte(rest, '.')
	if last < 0 {
		return ValueRef{}, fmt.Errorf("malformed value ref %q", s)
	}
	mid := strings.LastIndexByte(rest[:last], '.')
	if mid < 0 {
		return ValueRef{}, fmt.Errorf("malformed value ref %q", s)
	}
	block, err := strconv.Atoi(rest[mid+1 : last])
	if err != nil {
		return ValueRef{}, fmt.Errorf("malformed value ref %q", s)
	}
	index, err := strconv.Atoi(rest[last+1:])
	if err != nil {
		return ValueRef{}, fmt.Errorf("malformed value ref %q", s)
	}
	return ValueRef{Kind: kind, Func: rest[:mid], Block: block, Index: index}, nil
}
