package ir

import "fmt"

// Kind enumerates all supported node kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindBoolTy is the type of booleans.
	KindBoolTy
	// KindBool is a boolean literal.
	KindBool
	// KindFiniteTy is a finite type of a given cardinality.
	KindFiniteTy
	// KindIndex is a literal inhabitant of a finite type.
	KindIndex
	// KindBitsTy is a bit-vector type of a given width.
	KindBitsTy
	// KindBits is a bit-vector literal.
	KindBits
	// KindProduct is a product (tuple) type.
	KindProduct
	// KindTuple is a tuple value.
	KindTuple
	// KindPi is a function type over a region's parameter list.
	KindPi
	// KindLambda is a function value.
	KindLambda
	// KindTernary is a two-way boolean conditional, typed as a
	// single-boolean-parameter function selecting between two values.
	KindTernary
	// KindParam is a reference to a region parameter.
	KindParam
	// KindApply is an application of a value to an argument list.
	KindApply
	// KindLogical is an n-ary boolean combinator encoded as a truth table.
	KindLogical
	// KindAdd is the primitive bit-vector addition operator.
	KindAdd
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBoolTy:
		return "boolty"
	case KindBool:
		return "bool"
	case KindFiniteTy:
		return "finitety"
	case KindIndex:
		return "index"
	case KindBitsTy:
		return "bitsty"
	case KindBits:
		return "bits"
	case KindProduct:
		return "product"
	case KindTuple:
		return "tuple"
	case KindPi:
		return "pi"
	case KindLambda:
		return "lambda"
	case KindTernary:
		return "ternary"
	case KindParam:
		return "param"
	case KindApply:
		return "apply"
	case KindLogical:
		return "logical"
	case KindAdd:
		return "add"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Node is a compact descriptor for any supported node.
//
// The payload fields are kind-dependent:
//
//	KindBool     Lit (0/1)
//	KindFiniteTy Lit (cardinality)
//	KindIndex    Elems[0] (finite type), Lit (index)
//	KindBitsTy   Lit (width)
//	KindBits     Elems[0] (bits type), Lit (data)
//	KindProduct  Elems (member types)
//	KindTuple    Elems (member values)
//	KindPi       Region, Elems[0] (result type)
//	KindLambda   Region, Elems[0] (body)
//	KindTernary  Region, Elems[0] (high), Elems[1] (low)
//	KindParam    Region, Lit (parameter index)
//	KindApply    Elems[0] (callee), Elems[1:] (arguments)
//	KindLogical  Arity, Table
type Node struct {
	Kind   Kind
	Region RegionID
	Elems  []NodeID
	Lit    uint64
	Arity  uint8
	Table  uint8
}
