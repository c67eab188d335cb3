package lower

import (
	"fmt"

	"rill/internal/ir"
	"rill/internal/llvmir"
)

// lowerTernary compiles a two-way conditional into a fresh native function
// taking the boolean selector as its only parameter. The body is the inline
// branch-and-join form built by ternaryInline.
func (cg *Codegen) lowerTernary(v ir.NodeID) (Val, error) {
	n := cg.graph.Node(v)
	if depth := cg.graph.DepthOf(v); depth != 0 {
		return Val{}, fmt.Errorf("%w: closures (conditional at depth %d)", ErrNotImplemented, depth)
	}
	piRepr, err := cg.ReprOf(cg.graph.TypeOf(v))
	if err != nil {
		return Val{}, err
	}
	switch piRepr.Kind {
	case ReprFunc:
	case ReprProp:
		return Unit, nil
	case ReprEmpty:
		return Contr, nil
	case ReprIrrep:
		return Irrep, nil
	default:
		panic(fmt.Errorf("lower: invalid conditional representation %s", piRepr.Kind))
	}

	f := cg.mod.AddFunc(cg.nextName(cg.opts.TernPrefix), piRepr.Sig, false)
	entry := cg.b.AppendBlock(f, "entry")
	restore := cg.enterFunc(f, n.Region)
	defer restore()
	cg.b.SetInsertPoint(f, entry)

	// The selector is the region's single boolean parameter; booleans never
	// erase, so slot 0 is always present.
	sel, ok := f.Param(0)
	if !ok {
		panic(fmt.Errorf("lower: conditional signature lost its selector parameter"))
	}
	prev := cg.scopes.push(noLayer, n.Region)
	defer cg.scopes.pop(prev)
	cg.scopes.insert(cg.graph.Param(n.Region, 0), valueVal(sel))

	out, err := cg.ternaryInline(n.Elems[0], n.Elems[1], sel)
	if err != nil {
		return Val{}, err
	}
	cg.b.Ret(out)
	return funcVal(f), nil
}

// ternaryInline emits the branch-and-join form of a conditional at the
// current insertion point: branch on sel into two blocks, lower each branch
// into its own block, and merge the results with a phi in a join block. The
// builder is left positioned in the join block. The high and low nodes are
// lowered separately even when structurally equal; each branch sees the
// enclosing scope through a branch-local layer, so values first lowered
// inside one branch never leak into the other.
func (cg *Codegen) ternaryInline(high, low ir.NodeID, sel llvmir.ValueID) (llvmir.ValueID, error) {
	if cg.graph.TypeOf(high) != cg.graph.TypeOf(low) {
		return llvmir.NoValueID, fmt.Errorf("%w: dependently typed conditional branches", ErrNotImplemented)
	}
	resRepr, err := cg.ReprOf(cg.graph.TypeOf(high))
	if err != nil {
		return llvmir.NoValueID, err
	}
	if resRepr.Kind != ReprScalar {
		return llvmir.NoValueID, fmt.Errorf("%w: %s conditional results", ErrNotImplemented, resRepr.Kind)
	}
	if cg.curFn == nil {
		return llvmir.NoValueID, fmt.Errorf("%w: conditional emission", ErrNoCurrentFunc)
	}

	highBB := cg.b.AppendBlock(cg.curFn, "high")
	lowBB := cg.b.AppendBlock(cg.curFn, "low")
	joinBB := cg.b.AppendBlock(cg.curFn, "join")
	cg.b.CondBr(sel, highBB, lowBB)

	highVal, highFrom, err := cg.lowerBranch(highBB, joinBB, high)
	if err != nil {
		return llvmir.NoValueID, err
	}
	lowVal, lowFrom, err := cg.lowerBranch(lowBB, joinBB, low)
	if err != nil {
		return llvmir.NoValueID, err
	}

	cg.b.SetInsertPoint(cg.curFn, joinBB)
	phi := cg.b.Phi(resRepr.Type, []llvmir.Incoming{
		{Val: highVal, Block: highFrom},
		{Val: lowVal, Block: lowFrom},
	})
	return phi, nil
}

// lowerBranch lowers one conditional arm into bb and closes it with a jump
// to join. It returns the arm's value and the block the jump was emitted
// from, which is the phi's incoming edge; lowering may have moved the
// insertion point past bb.
func (cg *Codegen) lowerBranch(bb, join llvmir.BlockID, node ir.NodeID) (llvmir.ValueID, llvmir.BlockID, error) {
	cg.b.SetInsertPoint(cg.curFn, bb)
	prev := cg.scopes.push(cg.scopes.top, cg.curRegion)
	v, err := cg.Lower(node)
	cg.scopes.pop(prev)
	if err != nil {
		return llvmir.NoValueID, 0, err
	}
	if v.Kind != ValValue {
		return llvmir.NoValueID, 0, fmt.Errorf("%w: erased conditional branch results", ErrNotImplemented)
	}
	_, from, ok := cg.b.InsertPoint()
	if !ok {
		panic(fmt.Errorf("lower: branch lowering lost the insertion point"))
	}
	cg.b.Br(join)
	return v.Ref, from, nil
}
