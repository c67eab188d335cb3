package lower

import (
	"fmt"

	"rill/internal/ir"
	"rill/internal/llvmir"
	"rill/internal/trace"
)

// ReprKind enumerates the physical representations a type can select.
type ReprKind uint8

const (
	ReprInvalid ReprKind = iota
	// ReprScalar is a plain machine scalar.
	ReprScalar
	// ReprAggregate is a fixed-size record with an erasure-aware field map.
	ReprAggregate
	// ReprFunc is a callable signature with an erasure-aware parameter map.
	ReprFunc
	// ReprProp is a type with exactly one inhabitant: present, zero width.
	ReprProp
	// ReprEmpty is a type with no inhabitants: reaching a value of it at
	// runtime is undefined behaviour.
	ReprEmpty
	// ReprIrrep marks a type the engine cannot represent at all, as opposed
	// to one that legitimately erases to zero width.
	ReprIrrep
)

func (k ReprKind) String() string {
	switch k {
	case ReprInvalid:
		return "invalid"
	case ReprScalar:
		return "scalar"
	case ReprAggregate:
		return "aggregate"
	case ReprFunc:
		return "func"
	case ReprProp:
		return "prop"
	case ReprEmpty:
		return "empty"
	case ReprIrrep:
		return "irrep"
	default:
		return fmt.Sprintf("ReprKind(%d)", k)
	}
}

// Repr is the selected physical representation of a type.
//
// Type holds the physical scalar or struct type for ReprScalar and
// ReprAggregate. Sig holds the physical signature for ReprFunc. Map holds the
// logical-to-physical position map for ReprAggregate (fields) and ReprFunc
// (parameters).
type Repr struct {
	Kind ReprKind
	Type llvmir.TypeID
	Sig  llvmir.TypeID
	Map  IxMap
}

func scalarRepr(t llvmir.TypeID) Repr { return Repr{Kind: ReprScalar, Type: t} }

// ReprOf selects the physical representation of a type. Selection is a total,
// pure function of type structure, memoized per Codegen: identical types
// always select structurally identical representations.
func (cg *Codegen) ReprOf(t ir.NodeID) (Repr, error) {
	// Boolean is special-cased ahead of both the cache and the general
	// finite-type logic: it is not expressed as finite(2) in this layer.
	if cg.graph.Kind(t) == ir.KindBoolTy {
		return scalarRepr(cg.mod.IntType(1)), nil
	}
	if r, ok := cg.reprs[t]; ok {
		return r, nil
	}
	var r Repr
	var err error
	switch cg.graph.Kind(t) {
	case ir.KindFiniteTy:
		r = cg.reprFinite(cg.graph.Node(t).Lit)
	case ir.KindBitsTy:
		r, err = cg.reprBits(uint32(cg.graph.Node(t).Lit))
	case ir.KindProduct:
		r, err = cg.reprProduct(t)
	case ir.KindPi:
		r, err = cg.reprPi(t)
	default:
		return Repr{}, fmt.Errorf("%w: representation for %s nodes", ErrNotImplemented, cg.graph.Kind(t))
	}
	if err != nil {
		return Repr{}, err
	}
	cg.reprs[t] = r
	if cg.tr.Enabled(trace.LevelDetail) {
		cg.tr.Emit(trace.Event{Level: trace.LevelDetail, Phase: "repr", Msg: fmt.Sprintf("node %d -> %s", t, r.Kind)})
	}
	return r, nil
}

// reprFinite selects the representation of a finite type of the given
// cardinality: empty for zero, a proposition for one, and otherwise the
// smallest unsigned scalar that can hold card-1.
func (cg *Codegen) reprFinite(card uint64) Repr {
	switch {
	case card == 0:
		return Repr{Kind: ReprEmpty}
	case card == 1:
		return Repr{Kind: ReprProp}
	case card == 2:
		return scalarRepr(cg.mod.IntType(1))
	case card <= 1<<8:
		return scalarRepr(cg.mod.IntType(8))
	case card <= 1<<16:
		return scalarRepr(cg.mod.IntType(16))
	case card <= 1<<32:
		return scalarRepr(cg.mod.IntType(32))
	default:
		return scalarRepr(cg.mod.IntType(64))
	}
}

// reprBits selects the representation of a bit-vector type of the given
// width.
func (cg *Codegen) reprBits(width uint32) (Repr, error) {
	switch {
	case width == 0:
		return Repr{Kind: ReprEmpty}, nil
	case width == 1:
		return scalarRepr(cg.mod.IntType(1)), nil
	case width <= 8:
		return scalarRepr(cg.mod.IntType(8)), nil
	case width <= 16:
		return scalarRepr(cg.mod.IntType(16)), nil
	case width <= 32:
		return scalarRepr(cg.mod.IntType(32)), nil
	case width <= 64:
		return scalarRepr(cg.mod.IntType(64)), nil
	case width <= 128:
		return scalarRepr(cg.mod.IntType(128)), nil
	default:
		return Repr{}, fmt.Errorf("%w: bit-vector types wider than 128 bits", ErrNotImplemented)
	}
}
