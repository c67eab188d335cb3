package llvmir

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
)

// ValueID identifies an SSA value. Function-local values index the owning
// function's value arena; module-level constants carry the constFlag bit so
// they stay valid across functions.
type ValueID uint32

// NoValueID marks the absence of a value (e.g. a void call result).
const NoValueID ValueID = 0

const constFlag ValueID = 1 << 31

// BlockID identifies a basic block within a function.
type BlockID uint32

// Module owns types, module-level constants and functions.
type Module struct {
	Name   string
	Target string

	types      []Type
	typeIndex  map[string]TypeID
	consts     []constant
	constIndex map[string]ValueID
	funcs      []*Func
	byName     map[string]*Func
}

type constant struct {
	typ    TypeID
	bits   uint64
	fields []ValueID // struct constants
}

// NewModule constructs an empty module.
func NewModule(name string) *Module {
	m := &Module{
		Name:       name,
		typeIndex:  make(map[string]TypeID, 16),
		constIndex: make(map[string]ValueID, 16),
		byName:     make(map[string]*Func, 8),
	}
	m.types = append(m.types, Type{}) // reserve 0 as invalid sentinel
	m.consts = append(m.consts, constant{})
	return m
}

// IsConst reports whether a ValueID names a module-level constant.
func IsConst(v ValueID) bool { return v&constFlag != 0 }

// ConstInt interns an integer constant of the given type.
func (m *Module) ConstInt(t TypeID, bits uint64) ValueID {
	if m.TypeInfo(t).Kind != TyInt {
		panic(fmt.Errorf("llvmir: integer constant of non-integer type %d", t))
	}
	key := make([]byte, 0, 13)
	key = append(key, 'i')
	key = binary.LittleEndian.AppendUint32(key, uint32(t))
	key = binary.LittleEndian.AppendUint64(key, bits)
	return m.internConst(string(key), constant{typ: t, bits: bits})
}

// ConstStruct interns a struct constant; every field must itself be a
// module-level constant.
func (m *Module) ConstStruct(t TypeID, fields []ValueID) ValueID {
	if m.TypeInfo(t).Kind != TyStruct {
		panic(fmt.Errorf("llvmir: struct constant of non-struct type %d", t))
	}
	key := make([]byte, 0, 5+4*len(fields))
	key = append(key, 's')
	key = binary.LittleEndian.AppendUint32(key, uint32(t))
	for _, f := range fields {
		if !IsConst(f) {
			panic(fmt.Errorf("llvmir: non-constant field in struct constant"))
		}
		key = binary.LittleEndian.AppendUint32(key, uint32(f))
	}
	return m.internConst(string(key), constant{typ: t, fields: append([]ValueID(nil), fields...)})
}

func (m *Module) internConst(key string, c constant) ValueID {
	if id, ok := m.constIndex[key]; ok {
		return id
	}
	m.consts = append(m.consts, c)
	raw, err := safecast.Conv[uint32](len(m.consts) - 1)
	if err != nil {
		panic(fmt.Errorf("llvmir: constant id overflow: %w", err))
	}
	id := ValueID(raw) | constFlag
	m.constIndex[key] = id
	return id
}

func (m *Module) constInfo(v ValueID) constant {
	ix := v &^ constFlag
	if !IsConst(v) || int(ix) >= len(m.consts) {
		panic(fmt.Errorf("llvmir: unknown constant %d", v))
	}
	return m.consts[ix]
}

// ConstIntValue returns the bits of an integer constant.
func (m *Module) ConstIntValue(v ValueID) (uint64, bool) {
	if !IsConst(v) {
		return 0, false
	}
	c := m.constInfo(v)
	if m.TypeInfo(c.typ).Kind != TyInt {
		return 0, false
	}
	return c.bits, true
}

// ConstTypeOf returns the type of a module-level constant.
func (m *Module) ConstTypeOf(v ValueID) (TypeID, bool) {
	if !IsConst(v) {
		return NoTypeID, false
	}
	return m.constInfo(v).typ, true
}

// ConstStructField returns the field constant at slot of a struct constant.
func (m *Module) ConstStructField(v ValueID, slot uint32) (ValueID, bool) {
	if !IsConst(v) {
		return NoValueID, false
	}
	c := m.constInfo(v)
	if m.TypeInfo(c.typ).Kind != TyStruct || int(slot) >= len(c.fields) {
		return NoValueID, false
	}
	return c.fields[slot], true
}

// AddFunc allocates a new, empty function with the given name and signature.
func (m *Module) AddFunc(name string, sig TypeID, exported bool) *Func {
	if m.TypeInfo(sig).Kind != TyFunc {
		panic(fmt.Errorf("llvmir: function %q with non-function signature", name))
	}
	if _, dup := m.byName[name]; dup {
		panic(fmt.Errorf("llvmir: duplicate function name %q", name))
	}
	f := &Func{Name: name, Sig: sig, Exported: exported, mod: m}
	f.values = append(f.values, Value{}) // reserve 0 as invalid sentinel
	info := m.TypeInfo(sig)
	for i, pt := range info.Params {
		f.Params = append(f.Params, f.addValue(Value{Op: OpParam, Type: pt, Index: uint32(i)}))
	}
	m.funcs = append(m.funcs, f)
	m.byName[name] = f
	return f
}

// Funcs returns the module's functions in creation order.
func (m *Module) Funcs() []*Func { return m.funcs }

// FuncByName looks a function up by name.
func (m *Module) FuncByName(name string) (*Func, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Op enumerates instruction operations.
type Op uint8

const (
	OpInvalid Op = iota
	OpParam
	OpAnd
	OpOr
	OpXor
	OpNot
	OpAdd
	OpPhi
	OpCall
	OpLoad
	OpStore
	OpExtract
	OpAggregate
)

func (o Op) String() string {
	switch o {
	case OpParam:
		return "param"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpNot:
		return "not"
	case OpAdd:
		return "add"
	case OpPhi:
		return "phi"
	case OpCall:
		return "call"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpExtract:
		return "extractvalue"
	case OpAggregate:
		return "aggregate"
	default:
		return fmt.Sprintf("Op(%d)", o)
	}
}

// Incoming is one phi edge.
type Incoming struct {
	Val   ValueID
	Block BlockID
}

// Value is a function-local SSA value: a parameter or an instruction result.
type Value struct {
	Op       Op
	Type     TypeID // NoTypeID for void results and stores
	Args     []ValueID
	Callee   *Func
	Incoming []Incoming
	Index    uint32 // parameter index / extractvalue field
}

// TermKind enumerates block terminators.
type TermKind uint8

const (
	TermNone TermKind = iota
	TermRet
	TermRetVoid
	TermBr
	TermCondBr
)

// Terminator closes a basic block.
type Terminator struct {
	Kind TermKind
	Val  ValueID // TermRet
	Cond ValueID // TermCondBr
	Then BlockID // TermBr / TermCondBr
	Else BlockID // TermCondBr
}

// Block is a basic block: an ordered instruction list plus a terminator.
type Block struct {
	ID     BlockID
	Label  string
	Instrs []ValueID
	Term   Terminator
}

// Func is a function under construction or completed.
type Func struct {
	Name     string
	Sig      TypeID
	Exported bool
	Params   []ValueID
	Blocks   []*Block

	values []Value
	mod    *Module
}

func (f *Func) addValue(v Value) ValueID {
	f.values = append(f.values, v)
	id, err := safecast.Conv[uint32](len(f.values) - 1)
	if err != nil {
		panic(fmt.Errorf("llvmir: value id overflow: %w", err))
	}
	return ValueID(id)
}

// Param returns the i-th parameter value.
func (f *Func) Param(i int) (ValueID, bool) {
	if i < 0 || i >= len(f.Params) {
		return NoValueID, false
	}
	return f.Params[i], true
}

// NumParams returns the parameter count.
func (f *Func) NumParams() int { return len(f.Params) }

// ValueInfo returns the descriptor of a function-local value.
func (f *Func) ValueInfo(v ValueID) Value {
	if IsConst(v) || int(v) >= len(f.values) {
		panic(fmt.Errorf("llvmir: unknown local value %d in %q", v, f.Name))
	}
	return f.values[v]
}

// ValueType returns the type of a value, resolving module constants.
func (f *Func) ValueType(v ValueID) TypeID {
	if IsConst(v) {
		return f.mod.constInfo(v).typ
	}
	return f.ValueInfo(v).Type
}

// Block returns a block by ID.
func (f *Func) Block(id BlockID) *Block {
	if int(id) >= len(f.Blocks) {
		panic(fmt.Errorf("llvmir: unknown block %d in %q", id, f.Name))
	}
	return f.Blocks[id]
}
