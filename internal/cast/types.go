package cast

import "fmt"

// TypeKind discriminates the semantic type categories carried by
// expression nodes.
type TypeKind int

const (
	TypeVoid TypeKind = iota
	TypeBool
	TypeInt
	TypeFloat
	TypePointer
	TypeAggregate
)

// Type is the semantic type of an expression: integer width and
// signedness, floating kind, pointer, aggregate, or void.
type Type struct {
	Kind   TypeKind
	Bits   int  // integer or float width in bits
	Signed bool // meaningful for TypeInt only
}

var (
	Void = Type{Kind: TypeVoid}
	Bool = Type{Kind: TypeBool, Bits: 1}

	Int8  = Type{Kind: TypeInt, Bits: 8, Signed: true}
	Int16 = Type{Kind: TypeInt, Bits: 16, Signed: true}
	Int32 = Type{Kind: TypeInt, Bits: 32, Signed: true}
	Int64 = Type{Kind: TypeInt, Bits: 64, Signed: true}

	UInt8  = Type{Kind: TypeInt, Bits: 8}
	UInt16 = Type{Kind: TypeInt, Bits: 16}
	UInt32 = Type{Kind: TypeInt, Bits: 32}
	UInt64 = Type{Kind: TypeInt, Bits: 64}

	Float32 = Type{Kind: TypeFloat, Bits: 32}
	Float64 = Type{Kind: TypeFloat, Bits: 64}

	Pointer   = Type{Kind: TypePointer, Bits: 64}
	Aggregate = Type{Kind: TypeAggregate}
)

func (t Type) String() string {
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeBool:
		return "bool"
	case TypeInt:
		if t.Signed {
			return fmt.Sprintf("i%d", t.Bits)
		}
		return fmt.Sprintf("u%d", t.Bits)
	case TypeFloat:
		return fmt.Sprintf("f%d", t.Bits)
	case TypePointer:
		return "ptr"
	case TypeAggregate:
		return "agg"
	default:
		return "?"
	}
}

// ParseType is the inverse of Type.String. Used by the JSON codec.
func ParseType(s string) (Type, error) {
	switch s {
	case "void":
		return Void, nil
	case "bool":
		return Bool, nil
	case "ptr":
		return Pointer, nil
	case "agg":
		return Aggregate, nil
	}
	if len(s) < 2 {
		return Type{}, fmt.Errorf("malformed type %q", s)
	}
	var bits int
	if _, err := fmt.Sscanf(s[1:], "%d", &bits); err != nil || bits <= 0 {
		return Type{}, fmt.Errorf("malformed type %q", s)
	}
	switch s[0] {
	case 'i':
		return Type{Kind: TypeInt, Bits: bits, Signed: true}, nil
	case 'u':
		return Type{Kind: TypeInt, Bits: bits}, nil
	case 'f':
		return Type{Kind: TypeFloat, Bits: bits}, nil
	}
	return Type{}, fmt.Errorf("malformed type %q", s)
}

// IsBoolean reports whether t can carry a guard value.
func (t Type) IsBoolean() bool {
	return t.Kind == TypeBool || t.Kind == TypeInt
}
