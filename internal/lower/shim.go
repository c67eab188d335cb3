package lower

import (
	"fmt"

	"rill/internal/llvmir"
)

// BuildShim wraps a compiled function in an exported shim with a flat,
// ABI-stable signature: aggregate parameters pass by pointer and are loaded
// inside the shim, an aggregate return becomes a trailing out-pointer with
// the shim returning an i32 status (0 on success), and scalar or pointer
// parameters pass through unchanged. The caller's insertion point is
// restored on exit, so a shim can be built mid-way through lowering
// something else.
func (cg *Codegen) BuildShim(f *llvmir.Func, name string) (*llvmir.Func, error) {
	prevFn, prevBlk, prevPos := cg.b.InsertPoint()
	defer func() {
		if prevPos {
			cg.b.SetInsertPoint(prevFn, prevBlk)
		} else {
			cg.b.ClearInsertPoint()
		}
	}()

	sig := cg.mod.TypeInfo(f.Sig)
	params := make([]llvmir.TypeID, 0, len(sig.Params)+1)
	loaded := make([]bool, len(sig.Params))
	for i, pt := range sig.Params {
		switch cg.mod.TypeInfo(pt).Kind {
		case llvmir.TyStruct:
			params = append(params, cg.mod.PtrType(pt))
			loaded[i] = true
		case llvmir.TyInt, llvmir.TyPtr:
			params = append(params, pt)
		default:
			return nil, fmt.Errorf("%w: shim parameters of kind %s", ErrNotImplemented, cg.mod.TypeInfo(pt).Kind)
		}
	}

	var shimRet llvmir.TypeID
	outPtr := false
	switch {
	case sig.Ret == llvmir.NoTypeID || cg.mod.TypeInfo(sig.Ret).Kind == llvmir.TyVoid:
		return nil, fmt.Errorf("%w: shims around void functions", ErrNotImplemented)
	case cg.mod.TypeInfo(sig.Ret).Kind == llvmir.TyStruct:
		params = append(params, cg.mod.PtrType(sig.Ret))
		shimRet = cg.mod.IntType(32)
		outPtr = true
	case cg.mod.TypeInfo(sig.Ret).Kind == llvmir.TyInt || cg.mod.TypeInfo(sig.Ret).Kind == llvmir.TyPtr:
		shimRet = sig.Ret
	default:
		return nil, fmt.Errorf("%w: shim returns of kind %s", ErrNotImplemented, cg.mod.TypeInfo(sig.Ret).Kind)
	}

	shim := cg.mod.AddFunc(name, cg.mod.FuncType(params, shimRet), true)
	entry := cg.b.AppendBlock(shim, "entry")
	cg.b.SetInsertPoint(shim, entry)

	args := make([]llvmir.ValueID, len(sig.Params))
	for i := range sig.Params {
		p, ok := shim.Param(i)
		if !ok {
			panic(fmt.Errorf("lower: shim parameter %d missing", i))
		}
		if loaded[i] {
			args[i] = cg.b.Load(p)
		} else {
			args[i] = p
		}
	}
	res := cg.b.Call(f, args)
	if outPtr {
		out, ok := shim.Param(len(sig.Params))
		if !ok {
			panic(fmt.Errorf("lower: shim out-pointer parameter missing"))
		}
		cg.b.Store(out, res)
		cg.b.Ret(cg.mod.ConstInt(cg.mod.IntType(32), 0))
	} else {
		cg.b.Ret(res)
	}
	return shim, nil
}
