package llvmir

import "fmt"

// Builder appends instructions at a movable insertion point. It is the only
// way to grow function bodies; the lowering engine saves and restores the
// insertion point around every nested function it opens.
type Builder struct {
	mod    *Module
	fn     *Func
	blk    BlockID
	hasPos bool
}

// NewBuilder constructs a builder for a module with no insertion point.
func NewBuilder(m *Module) *Builder {
	return &Builder{mod: m}
}

// Module returns the builder's module.
func (b *Builder) Module() *Module { return b.mod }

// AppendBlock appends a new basic block to a function. Labels are kept
// unique within the function so the printed form stays unambiguous.
func (b *Builder) AppendBlock(f *Func, label string) BlockID {
	id := BlockID(len(f.Blocks))
	unique := label
	for _, blk := range f.Blocks {
		if blk.Label == label {
			unique = fmt.Sprintf("%s.%d", label, id)
			break
		}
	}
	f.Blocks = append(f.Blocks, &Block{ID: id, Label: unique})
	return id
}

// SetInsertPoint positions the builder at the end of a block.
func (b *Builder) SetInsertPoint(f *Func, blk BlockID) {
	b.fn = f
	b.blk = blk
	b.hasPos = true
}

// ClearInsertPoint detaches the builder from any block.
func (b *Builder) ClearInsertPoint() {
	b.fn = nil
	b.blk = 0
	b.hasPos = false
}

// InsertPoint returns the current position, if any. Callers opening a nested
// function use this to restore the caller's position on exit.
func (b *Builder) InsertPoint() (*Func, BlockID, bool) {
	return b.fn, b.blk, b.hasPos
}

func (b *Builder) emit(v Value) ValueID {
	if !b.hasPos {
		panic(fmt.Errorf("llvmir: emit without insertion point"))
	}
	blk := b.fn.Block(b.blk)
	if blk.Term.Kind != TermNone {
		panic(fmt.Errorf("llvmir: emit into terminated block %q", blk.Label))
	}
	id := b.fn.addValue(v)
	blk.Instrs = append(blk.Instrs, id)
	return id
}

func (b *Builder) terminate(t Terminator) {
	if !b.hasPos {
		panic(fmt.Errorf("llvmir: terminator without insertion point"))
	}
	blk := b.fn.Block(b.blk)
	if blk.Term.Kind != TermNone {
		panic(fmt.Errorf("llvmir: double terminator in block %q", blk.Label))
	}
	blk.Term = t
}

// ConstInt interns an integer constant; usable in any function.
func (b *Builder) ConstInt(t TypeID, bits uint64) ValueID {
	return b.mod.ConstInt(t, bits)
}

// Binary emits a two-operand instruction (and/or/xor/add).
func (b *Builder) Binary(op Op, lhs, rhs ValueID) ValueID {
	switch op {
	case OpAnd, OpOr, OpXor, OpAdd:
	default:
		panic(fmt.Errorf("llvmir: %s is not a binary op", op))
	}
	return b.emit(Value{Op: op, Type: b.fn.ValueType(lhs), Args: []ValueID{lhs, rhs}})
}

// And emits a bitwise and.
func (b *Builder) And(lhs, rhs ValueID) ValueID { return b.Binary(OpAnd, lhs, rhs) }

// Or emits a bitwise or.
func (b *Builder) Or(lhs, rhs ValueID) ValueID { return b.Binary(OpOr, lhs, rhs) }

// Xor emits a bitwise xor.
func (b *Builder) Xor(lhs, rhs ValueID) ValueID { return b.Binary(OpXor, lhs, rhs) }

// Add emits a wrapping integer add.
func (b *Builder) Add(lhs, rhs ValueID) ValueID { return b.Binary(OpAdd, lhs, rhs) }

// Not emits a bitwise complement.
func (b *Builder) Not(v ValueID) ValueID {
	return b.emit(Value{Op: OpNot, Type: b.fn.ValueType(v), Args: []ValueID{v}})
}

// Phi emits a phi merge of the given incoming edges.
func (b *Builder) Phi(t TypeID, incoming []Incoming) ValueID {
	return b.emit(Value{Op: OpPhi, Type: t, Incoming: append([]Incoming(nil), incoming...)})
}

// Call emits a call; a void callee yields NoValueID.
func (b *Builder) Call(callee *Func, args []ValueID) ValueID {
	ret := b.mod.TypeInfo(callee.Sig).Ret
	var t TypeID
	if ret != NoTypeID && b.mod.TypeInfo(ret).Kind != TyVoid {
		t = ret
	}
	id := b.emit(Value{Op: OpCall, Type: t, Callee: callee, Args: append([]ValueID(nil), args...)})
	if t == NoTypeID {
		return NoValueID
	}
	return id
}

// Load emits a load through a pointer.
func (b *Builder) Load(ptr ValueID) ValueID {
	pt := b.mod.TypeInfo(b.fn.ValueType(ptr))
	if pt.Kind != TyPtr {
		panic(fmt.Errorf("llvmir: load through non-pointer"))
	}
	return b.emit(Value{Op: OpLoad, Type: pt.Elem, Args: []ValueID{ptr}})
}

// Store emits a store through a pointer.
func (b *Builder) Store(ptr, v ValueID) {
	pt := b.mod.TypeInfo(b.fn.ValueType(ptr))
	if pt.Kind != TyPtr {
		panic(fmt.Errorf("llvmir: store through non-pointer"))
	}
	b.emit(Value{Op: OpStore, Args: []ValueID{ptr, v}})
}

// ExtractValue emits a field extraction from an aggregate value.
func (b *Builder) ExtractValue(agg ValueID, field uint32) ValueID {
	st := b.mod.TypeInfo(b.fn.ValueType(agg))
	if st.Kind != TyStruct || int(field) >= len(st.Fields) {
		panic(fmt.Errorf("llvmir: extractvalue field %d out of range", field))
	}
	return b.emit(Value{Op: OpExtract, Type: st.Fields[field], Args: []ValueID{agg}, Index: field})
}

// BuildStruct materializes an aggregate from member values in slot order.
// All-constant members fold to a module-level struct constant.
func (b *Builder) BuildStruct(t TypeID, members []ValueID) ValueID {
	allConst := true
	for _, mv := range members {
		if !IsConst(mv) {
			allConst = false
			break
		}
	}
	if allConst {
		return b.mod.ConstStruct(t, members)
	}
	return b.emit(Value{Op: OpAggregate, Type: t, Args: append([]ValueID(nil), members...)})
}

// CondBr terminates the current block with a two-way conditional branch.
func (b *Builder) CondBr(cond ValueID, then, els BlockID) {
	b.terminate(Terminator{Kind: TermCondBr, Cond: cond, Then: then, Else: els})
}

// Br terminates the current block with an unconditional branch.
func (b *Builder) Br(dst BlockID) {
	b.terminate(Terminator{Kind: TermBr, Then: dst})
}

// Ret terminates the current block returning a value.
func (b *Builder) Ret(v ValueID) {
	b.terminate(Terminator{Kind: TermRet, Val: v})
}

// RetVoid terminates the current block returning nothing.
func (b *Builder) RetVoid() {
	b.terminate(Terminator{Kind: TermRetVoid})
}
