package llvmir

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
)

// TypeID uniquely identifies a type inside a module.
type TypeID uint32

// NoTypeID marks the absence of a type (used as the void return marker).
const NoTypeID TypeID = 0

// TypeKind enumerates all supported kinds of types.
type TypeKind uint8

const (
	TyInvalid TypeKind = iota
	TyVoid
	TyInt
	TyStruct
	TyPtr
	TyFunc
)

func (k TypeKind) String() string {
	switch k {
	case TyInvalid:
		return "invalid"
	case TyVoid:
		return "void"
	case TyInt:
		return "int"
	case TyStruct:
		return "struct"
	case TyPtr:
		return "ptr"
	case TyFunc:
		return "func"
	default:
		return fmt.Sprintf("TypeKind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind   TypeKind
	Bits   uint32   // for TyInt (1..128)
	Elem   TypeID   // for TyPtr
	Fields []TypeID // for TyStruct
	Params []TypeID // for TyFunc
	Ret    TypeID   // for TyFunc (NoTypeID means void)
}

func typeKey(t Type) string {
	buf := make([]byte, 0, 16+4*(len(t.Fields)+len(t.Params)))
	buf = append(buf, byte(t.Kind))
	buf = binary.LittleEndian.AppendUint32(buf, t.Bits)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(t.Elem))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(t.Ret))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Fields)))
	for _, f := range t.Fields {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(f))
	}
	for _, p := range t.Params {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(p))
	}
	return string(buf)
}

func (m *Module) internType(t Type) TypeID {
	key := typeKey(t)
	if id, ok := m.typeIndex[key]; ok {
		return id
	}
	m.types = append(m.types, t)
	id, err := safecast.Conv[uint32](len(m.types) - 1)
	if err != nil {
		panic(fmt.Errorf("llvmir: type id overflow: %w", err))
	}
	m.typeIndex[key] = TypeID(id)
	return TypeID(id)
}

// VoidType returns the void type.
func (m *Module) VoidType() TypeID {
	return m.internType(Type{Kind: TyVoid})
}

// IntType returns the integer type of the given bit width (1..128).
func (m *Module) IntType(bits uint32) TypeID {
	if bits == 0 || bits > 128 {
		panic(fmt.Errorf("llvmir: invalid integer width %d", bits))
	}
	return m.internType(Type{Kind: TyInt, Bits: bits})
}

// StructType returns the struct type with the given field types.
func (m *Module) StructType(fields []TypeID) TypeID {
	return m.internType(Type{Kind: TyStruct, Fields: append([]TypeID(nil), fields...)})
}

// PtrType returns the pointer type to the given element type.
func (m *Module) PtrType(elem TypeID) TypeID {
	return m.internType(Type{Kind: TyPtr, Elem: elem})
}

// FuncType returns the function type with the given parameter and return
// types. NoTypeID as ret means void.
func (m *Module) FuncType(params []TypeID, ret TypeID) TypeID {
	return m.internType(Type{Kind: TyFunc, Params: append([]TypeID(nil), params...), Ret: ret})
}

// TypeInfo returns the descriptor for a type.
func (m *Module) TypeInfo(id TypeID) Type {
	if int(id) >= len(m.types) {
		panic(fmt.Errorf("llvmir: unknown type id %d", id))
	}
	return m.types[id]
}
