package lower

import (
	"fmt"

	"rill/internal/ir"
	"rill/internal/llvmir"
)

// lowerLogicalExpr lowers the application of a boolean combinator to its
// arguments. Constant tables fold without lowering anything; arity 1 and 2
// tables with a direct native instruction emit it; everything else falls
// back to Shannon expansion on the first argument, which terminates by
// arity induction.
func (cg *Codegen) lowerLogicalExpr(l ir.Node, args []ir.NodeID) (Val, error) {
	arity := int(l.Arity)
	if len(args) > arity {
		panic(fmt.Errorf("lower: arity-%d combinator applied to %d arguments", arity, len(args)))
	}
	if len(args) < arity {
		return Val{}, fmt.Errorf("%w: partial application of combinators", ErrNotImplemented)
	}
	if c, ok := ir.TableConst(l.Table, l.Arity); ok {
		return valueVal(cg.boolConst(c)), nil
	}

	if arity == 1 {
		ref, err := cg.lowerBool(args[0])
		if err != nil {
			return Val{}, err
		}
		switch l.Table & ir.TableMask(1) {
		case ir.TableId:
			return valueVal(ref), nil
		case ir.TableNot:
			out, err := cg.emitNot(ref)
			if err != nil {
				return Val{}, err
			}
			return valueVal(out), nil
		default:
			// Constant unary tables were folded above.
			panic(fmt.Errorf("lower: impossible unary table %#b", l.Table))
		}
	}

	if arity == 2 {
		var op llvmir.Op
		switch l.Table & ir.TableMask(2) {
		case ir.TableAnd:
			op = llvmir.OpAnd
		case ir.TableOr:
			op = llvmir.OpOr
		case ir.TableXor:
			op = llvmir.OpXor
		}
		if op != llvmir.OpInvalid {
			lhs, err := cg.lowerBool(args[0])
			if err != nil {
				return Val{}, err
			}
			rhs, err := cg.lowerBool(args[1])
			if err != nil {
				return Val{}, err
			}
			out, err := cg.emitBinary(op, lhs, rhs)
			if err != nil {
				return Val{}, err
			}
			return valueVal(out), nil
		}
	}

	return cg.shannon(l.Table, l.Arity, args)
}

// shannon lowers an arbitrary combinator as
// (high AND sel) OR (low AND NOT sel), where high and low are the
// partially-applied tables for the first argument's two cases.
func (cg *Codegen) shannon(table uint8, arity uint8, args []ir.NodeID) (Val, error) {
	sel, err := cg.lowerBool(args[0])
	if err != nil {
		return Val{}, err
	}
	sub := arity - 1
	highNode := ir.Node{Kind: ir.KindLogical, Arity: sub, Table: ir.SplitTable(table, arity, true)}
	lowNode := ir.Node{Kind: ir.KindLogical, Arity: sub, Table: ir.SplitTable(table, arity, false)}

	highVal, err := cg.lowerLogicalExpr(highNode, args[1:])
	if err != nil {
		return Val{}, err
	}
	lowVal, err := cg.lowerLogicalExpr(lowNode, args[1:])
	if err != nil {
		return Val{}, err
	}
	high := cg.scalarOf(highVal)
	low := cg.scalarOf(lowVal)

	isHigh, err := cg.emitBinary(llvmir.OpAnd, high, sel)
	if err != nil {
		return Val{}, err
	}
	nsel, err := cg.emitNot(sel)
	if err != nil {
		return Val{}, err
	}
	isLow, err := cg.emitBinary(llvmir.OpAnd, low, nsel)
	if err != nil {
		return Val{}, err
	}
	out, err := cg.emitBinary(llvmir.OpOr, isHigh, isLow)
	if err != nil {
		return Val{}, err
	}
	return valueVal(out), nil
}

// lowerBool lowers a combinator operand down to its scalar reference.
func (cg *Codegen) lowerBool(v ir.NodeID) (llvmir.ValueID, error) {
	av, err := cg.Lower(v)
	if err != nil {
		return llvmir.NoValueID, err
	}
	return cg.scalarOf(av), nil
}

// scalarOf unwraps a scalar operand. Anything else in a boolean position is
// an upstream typechecking breach.
func (cg *Codegen) scalarOf(v Val) llvmir.ValueID {
	if v.Kind != ValValue {
		panic(fmt.Errorf("lower: expected a scalar operand, got %s", v.Kind))
	}
	return v.Ref
}

// emitNot complements a scalar, folding constants to constants so that
// fully-constant expressions never require an open function.
func (cg *Codegen) emitNot(v llvmir.ValueID) (llvmir.ValueID, error) {
	if bits, ok := cg.mod.ConstIntValue(v); ok {
		t, _ := cg.mod.ConstTypeOf(v)
		return cg.mod.ConstInt(t, ^bits&cg.widthMask(t)), nil
	}
	if cg.curFn == nil {
		return llvmir.NoValueID, fmt.Errorf("%w: instruction emission", ErrNoCurrentFunc)
	}
	return cg.b.Not(v), nil
}

// emitBinary emits a two-operand bitwise or arithmetic instruction, folding
// when both operands are constant.
func (cg *Codegen) emitBinary(op llvmir.Op, lhs, rhs llvmir.ValueID) (llvmir.ValueID, error) {
	lb, lok := cg.mod.ConstIntValue(lhs)
	rb, rok := cg.mod.ConstIntValue(rhs)
	if lok && rok {
		t, _ := cg.mod.ConstTypeOf(lhs)
		var bits uint64
		switch op {
		case llvmir.OpAnd:
			bits = lb & rb
		case llvmir.OpOr:
			bits = lb | rb
		case llvmir.OpXor:
			bits = lb ^ rb
		case llvmir.OpAdd:
			bits = lb + rb
		default:
			panic(fmt.Errorf("lower: %s is not foldable", op))
		}
		return cg.mod.ConstInt(t, bits&cg.widthMask(t)), nil
	}
	if cg.curFn == nil {
		return llvmir.NoValueID, fmt.Errorf("%w: instruction emission", ErrNoCurrentFunc)
	}
	return cg.b.Binary(op, lhs, rhs), nil
}

// widthMask returns the value mask of an integer type, saturating at 64 bits.
func (cg *Codegen) widthMask(t llvmir.TypeID) uint64 {
	bits := cg.mod.TypeInfo(t).Bits
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}
