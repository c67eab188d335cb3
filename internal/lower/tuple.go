package lower

import (
	"fmt"

	"rill/internal/ir"
	"rill/internal/llvmir"
)

// reprProduct builds the aggregate representation of a product type. An
// uninhabited member short-circuits the whole product to empty, taking
// priority over every other outcome. With no uninhabited member, an
// irrepresentable member makes the product irrepresentable, and a product
// whose every member erases is itself a proposition rather than an empty
// aggregate.
func (cg *Codegen) reprProduct(t ir.NodeID) (Repr, error) {
	n := cg.graph.Node(t)
	var ixes IxMap
	var phys []llvmir.TypeID
	hasIrrep := false
	for _, memberTy := range n.Elems {
		mr, err := cg.ReprOf(memberTy)
		if err != nil {
			return Repr{}, err
		}
		switch mr.Kind {
		case ReprScalar, ReprAggregate:
			ixes.PushIx(len(phys))
			phys = append(phys, mr.Type)
		case ReprFunc:
			return Repr{}, fmt.Errorf("%w: function-typed aggregate fields", ErrNotImplemented)
		case ReprProp:
			ixes.PushProp()
		case ReprEmpty:
			return Repr{Kind: ReprEmpty}, nil
		case ReprIrrep:
			hasIrrep = true
		default:
			return Repr{}, fmt.Errorf("%w: product member representation %s", ErrInternal, mr.Kind)
		}
	}
	if hasIrrep {
		return Repr{Kind: ReprIrrep}, nil
	}
	if len(phys) == 0 {
		return Repr{Kind: ReprProp}, nil
	}
	return Repr{
		Kind: ReprAggregate,
		Type: cg.mod.StructType(phys),
		Map:  ixes,
	}, nil
}

// lowerTuple lowers a tuple literal: members whose positions survive erasure
// are lowered and packed in slot order, erased members are skipped entirely.
func (cg *Codegen) lowerTuple(v ir.NodeID) (Val, error) {
	n := cg.graph.Node(v)
	repr, err := cg.ReprOf(cg.graph.TypeOf(v))
	if err != nil {
		return Val{}, err
	}
	switch repr.Kind {
	case ReprAggregate:
	case ReprProp:
		return Unit, nil
	case ReprEmpty:
		return Contr, nil
	case ReprIrrep:
		return Val{}, fmt.Errorf("%w: tuple", ErrIrrepresentable)
	default:
		return Val{}, fmt.Errorf("%w: expected a product representation, got %s", ErrInternal, repr.Kind)
	}

	members := make([]llvmir.ValueID, repr.Map.Slots())
	allConst := true
	for i, member := range n.Elems {
		slot, ok := repr.Map.Get(i)
		if !ok {
			continue
		}
		mv, err := cg.Lower(member)
		if err != nil {
			return Val{}, err
		}
		switch mv.Kind {
		case ValValue:
			members[slot] = mv.Ref
			if !llvmir.IsConst(mv.Ref) {
				allConst = false
			}
		case ValContr:
			return Contr, nil
		default:
			// The member's slot entry promised a physical representation.
			panic(fmt.Errorf("lower: tuple member %d lowered to %s against a physical slot", i, mv.Kind))
		}
	}
	if !allConst && cg.curFn == nil {
		return Val{}, fmt.Errorf("%w: aggregate construction", ErrNoCurrentFunc)
	}
	return valueVal(cg.b.BuildStruct(repr.Type, members)), nil
}
