package lower

import (
	"fmt"

	"rill/internal/ir"
	"rill/internal/llvmir"
	"rill/internal/trace"
)

// reprPi builds the signature representation of a pi (function) type. The
// return representation is computed first; a proposition or uninhabited
// return collapses the whole signature to that marker, since calling such a
// function can only ever produce the erased value.
func (cg *Codegen) reprPi(t ir.NodeID) (Repr, error) {
	n := cg.graph.Node(t)
	result := n.Elems[0]
	if cg.graph.DepthOf(result) != 0 {
		return Repr{}, fmt.Errorf("%w: non-constant return types for pi functions", ErrNotImplemented)
	}
	resRepr, err := cg.ReprOf(result)
	if err != nil {
		return Repr{}, err
	}
	var retTy llvmir.TypeID
	switch resRepr.Kind {
	case ReprScalar, ReprAggregate:
		retTy = resRepr.Type
	case ReprFunc:
		return Repr{}, fmt.Errorf("%w: higher-order function returns", ErrNotImplemented)
	case ReprProp:
		return Repr{Kind: ReprProp}, nil
	case ReprEmpty:
		return Repr{Kind: ReprEmpty}, nil
	case ReprIrrep:
		return Repr{Kind: ReprIrrep}, nil
	default:
		return Repr{}, fmt.Errorf("%w: pi result representation %s", ErrInternal, resRepr.Kind)
	}

	region := cg.graph.Region(n.Region)
	var ixes IxMap
	var phys []llvmir.TypeID
	hasEmpty := false
	hasIrrep := false
	for _, paramTy := range region.Params {
		pr, err := cg.ReprOf(paramTy)
		if err != nil {
			return Repr{}, err
		}
		switch pr.Kind {
		case ReprScalar, ReprAggregate:
			if !hasEmpty {
				ixes.PushIx(len(phys))
				phys = append(phys, pr.Type)
			}
		case ReprFunc:
			return Repr{}, fmt.Errorf("%w: function-typed parameters", ErrNotImplemented)
		case ReprProp:
			if !hasEmpty {
				ixes.PushProp()
			}
		case ReprEmpty:
			hasEmpty = true
		case ReprIrrep:
			hasIrrep = true
		}
	}
	// An uninhabited parameter means the function can never be called:
	// it is vacuously a proposition and no code is emitted for it.
	if hasEmpty {
		return Repr{Kind: ReprProp}, nil
	}
	if hasIrrep {
		return Repr{Kind: ReprIrrep}, nil
	}
	return Repr{
		Kind: ReprFunc,
		Sig:  cg.mod.FuncType(phys, retTy),
		Map:  ixes,
	}, nil
}

// lowerLambda compiles a lambda into a fresh native function: bind the
// parameters per the signature's index map, lower the body in a new scope,
// splice a return. The caller's emission state is restored on every exit
// path.
func (cg *Codegen) lowerLambda(v ir.NodeID) (Val, error) {
	n := cg.graph.Node(v)
	if depth := cg.graph.DepthOf(v); depth != 0 {
		return Val{}, fmt.Errorf("%w: closures (lambda at depth %d)", ErrNotImplemented, depth)
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
		panic(fmt.Errorf("lower: invalid function representation %s", piRepr.Kind))
	}

	f := cg.mod.AddFunc(cg.nextName(cg.opts.LambdaPrefix), piRepr.Sig, false)
	entry := cg.b.AppendBlock(f, "entry")
	restore := cg.enterFunc(f, ir.NoRegionID)
	defer restore()
	cg.b.SetInsertPoint(f, entry)

	paramVals := make([]Val, piRepr.Map.Len())
	for i := range paramVals {
		if slot, ok := piRepr.Map.Get(i); ok {
			pv, ok := f.Param(int(slot))
			if !ok {
				panic(fmt.Errorf("lower: parameter slot %d out of bounds", slot))
			}
			paramVals[i] = valueVal(pv)
		} else {
			paramVals[i] = Unit
		}
	}

	ret, err := cg.lowerInline(n.Region, n.Elems[0], paramVals)
	if err != nil {
		return Val{}, err
	}
	switch ret.Kind {
	case ValValue:
		cg.b.Ret(ret.Ref)
	case ValFunc:
		return Val{}, fmt.Errorf("%w: higher-order function results", ErrNotImplemented)
	default:
		// Type checking upstream guarantees a representable body for a
		// ReprFunc signature; an erased body here is a broken invariant.
		panic(fmt.Errorf("lower: impossible representation %s for compiled function result", ret.Kind))
	}
	if cg.tr.Enabled(trace.LevelPhase) {
		cg.tr.Emit(trace.Event{Level: trace.LevelPhase, Phase: "func", Msg: fmt.Sprintf("compiled %s", f.Name)})
	}
	return funcVal(f), nil
}

// enterFunc makes f the current emission target with locals detached, and
// returns the restore closure. Restoring reattaches the caller's scope chain
// and insertion point; it must run on every exit path.
func (cg *Codegen) enterFunc(f *llvmir.Func, region ir.RegionID) func() {
	prevFn, prevBlk, prevPos := cg.b.InsertPoint()
	prevCur := cg.curFn
	prevRegion := cg.curRegion
	prevTop := cg.scopes.detach()
	cg.curFn = f
	cg.curRegion = region
	return func() {
		cg.scopes.attach(prevTop)
		cg.curFn = prevCur
		cg.curRegion = prevRegion
		if prevPos {
			cg.b.SetInsertPoint(prevFn, prevBlk)
		} else {
			cg.b.ClearInsertPoint()
		}
	}
}

// lowerApply lowers the application of a value to an argument list.
func (cg *Codegen) lowerApply(callee ir.NodeID, args []ir.NodeID) (Val, error) {
	if len(args) == 0 {
		return cg.Lower(callee)
	}
	switch cg.graph.Kind(callee) {
	case ir.KindLogical:
		return cg.lowerLogicalExpr(cg.graph.Node(callee), args)
	case ir.KindAdd:
		return cg.lowerAdd(args)
	}
	if ty := cg.graph.TypeOf(callee); ty.IsValid() && cg.graph.Kind(ty) == ir.KindProduct {
		return cg.lowerProjection(callee, ty, args)
	}

	fv, err := cg.Lower(callee)
	if err != nil {
		return Val{}, err
	}
	switch fv.Kind {
	case ValFunc:
		return cg.lowerCall(fv.Fn, args)
	case ValUnit:
		// The callee collapsed to an erased marker: calling it produces only
		// the erased value, with no code. Arguments are not lowered.
		return Unit, nil
	case ValContr:
		return Contr, nil
	case ValIrrep:
		return Val{}, fmt.Errorf("%w: callee", ErrIrrepresentable)
	default:
		return Val{}, fmt.Errorf("%w: application of a %s callee", ErrNotImplemented, fv.Kind)
	}
}

// lowerCall lowers the arguments in order and emits a native call.
func (cg *Codegen) lowerCall(f *llvmir.Func, args []ir.NodeID) (Val, error) {
	refs := make([]llvmir.ValueID, 0, len(args))
	for i, arg := range args {
		av, err := cg.Lower(arg)
		if err != nil {
			return Val{}, err
		}
		switch av.Kind {
		case ValValue:
			refs = append(refs, av.Ref)
		case ValUnit:
			// Erased argument: the signature has no slot for it.
		case ValContr:
			return Contr, nil
		case ValIrrep:
			return Val{}, fmt.Errorf("%w: argument %d", ErrIrrepresentable, i)
		case ValFunc:
			return Val{}, fmt.Errorf("%w: higher-order function arguments", ErrNotImplemented)
		default:
			return Val{}, fmt.Errorf("%w: argument %d lowered to %s", ErrInternal, i, av.Kind)
		}
	}
	if cg.curFn == nil {
		return Val{}, fmt.Errorf("%w: call emission", ErrNoCurrentFunc)
	}
	ret := cg.b.Call(f, refs)
	if ret == llvmir.NoValueID {
		return Unit, nil
	}
	return valueVal(ret), nil
}

// lowerProjection lowers the application of an index to a product-typed
// value: an erased field projects to Unit without touching the aggregate,
// a physical field extracts at the mapped slot.
func (cg *Codegen) lowerProjection(base ir.NodeID, productTy ir.NodeID, args []ir.NodeID) (Val, error) {
	repr, err := cg.ReprOf(productTy)
	if err != nil {
		return Val{}, err
	}
	switch repr.Kind {
	case ReprProp:
		return Unit, nil
	case ReprEmpty:
		return Contr, nil
	case ReprIrrep:
		return Val{}, fmt.Errorf("%w: projection base", ErrIrrepresentable)
	case ReprAggregate:
	default:
		return Val{}, fmt.Errorf("%w: projection from %s representation", ErrInternal, repr.Kind)
	}
	if len(args) != 1 {
		return Val{}, fmt.Errorf("%w: projections take exactly one index", ErrNotImplemented)
	}
	argn := cg.graph.Node(args[0])
	if argn.Kind != ir.KindIndex {
		return Val{}, fmt.Errorf("%w: non-literal projection indices", ErrNotImplemented)
	}
	pos := argn.Lit
	if pos >= uint64(repr.Map.Len()) {
		panic(fmt.Errorf("lower: projection index %d out of range for %d-field product", pos, repr.Map.Len()))
	}
	slot, ok := repr.Map.Get(int(pos))
	if !ok {
		return Unit, nil
	}
	bv, err := cg.Lower(base)
	if err != nil {
		return Val{}, err
	}
	switch bv.Kind {
	case ValContr:
		return Contr, nil
	case ValValue:
	default:
		panic(fmt.Errorf("lower: aggregate representation guarantees a struct value, got %s", bv.Kind))
	}
	if fld, ok := cg.mod.ConstStructField(bv.Ref, slot); ok {
		return valueVal(fld), nil
	}
	if cg.curFn == nil {
		return Val{}, fmt.Errorf("%w: field extraction", ErrNoCurrentFunc)
	}
	return valueVal(cg.b.ExtractValue(bv.Ref, slot)), nil
}
