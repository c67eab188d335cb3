package lower

import (
	"fmt"

	"rill/internal/ir"
	"rill/internal/llvmir"
)

// lowerIndex lowers a literal inhabitant of a finite type. A literal at or
// past the declared cardinality is an upstream typechecking breach; it must
// not wrap or truncate into a valid-looking scalar.
func (cg *Codegen) lowerIndex(v ir.NodeID) (Val, error) {
	n := cg.graph.Node(v)
	card := cg.graph.Node(n.Elems[0]).Lit
	repr, err := cg.ReprOf(n.Elems[0])
	if err != nil {
		return Val{}, err
	}
	switch repr.Kind {
	case ReprEmpty:
		return Contr, nil
	case ReprProp:
		return Unit, nil
	case ReprScalar:
		if n.Lit >= card {
			panic(fmt.Errorf("lower: index %d out of range for cardinality %d", n.Lit, card))
		}
		return valueVal(cg.mod.ConstInt(repr.Type, n.Lit)), nil
	default:
		return Val{}, fmt.Errorf("%w: finite representation %s", ErrInternal, repr.Kind)
	}
}

// lowerBits lowers a bit-vector literal.
func (cg *Codegen) lowerBits(v ir.NodeID) (Val, error) {
	n := cg.graph.Node(v)
	width := cg.graph.Node(n.Elems[0]).Lit
	repr, err := cg.ReprOf(n.Elems[0])
	if err != nil {
		return Val{}, err
	}
	switch repr.Kind {
	case ReprEmpty:
		return Contr, nil
	case ReprScalar:
		if width < 64 && n.Lit >= uint64(1)<<width {
			panic(fmt.Errorf("lower: literal %d out of range for %d-bit vector", n.Lit, width))
		}
		return valueVal(cg.mod.ConstInt(repr.Type, n.Lit)), nil
	default:
		return Val{}, fmt.Errorf("%w: bit-vector representation %s", ErrInternal, repr.Kind)
	}
}

// lowerAdd lowers an application of the primitive bit-vector addition.
func (cg *Codegen) lowerAdd(args []ir.NodeID) (Val, error) {
	if len(args) != 2 {
		panic(fmt.Errorf("lower: addition applied to %d arguments", len(args)))
	}
	lv, err := cg.Lower(args[0])
	if err != nil {
		return Val{}, err
	}
	rv, err := cg.Lower(args[1])
	if err != nil {
		return Val{}, err
	}
	if lv.Kind == ValContr || rv.Kind == ValContr {
		return Contr, nil
	}
	out, err := cg.emitBinary(llvmir.OpAdd, cg.scalarOf(lv), cg.scalarOf(rv))
	if err != nil {
		return Val{}, err
	}
	return valueVal(out), nil
}
