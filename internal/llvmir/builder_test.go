package llvmir

import (
	"strings"
	"testing"
)

func TestConstInterning(t *testing.T) {
	m := NewModule("t")
	i8 := m.IntType(8)
	a := m.ConstInt(i8, 42)
	b := m.ConstInt(i8, 42)
	if a != b {
		t.Fatalf("equal constants should intern to one id")
	}
	if !IsConst(a) {
		t.Fatalf("interned constant should carry the module-constant flag")
	}
	if m.ConstInt(m.IntType(16), 42) == a {
		t.Fatalf("same bits of a different type must differ")
	}
	bits, ok := m.ConstIntValue(a)
	if !ok || bits != 42 {
		t.Fatalf("ConstIntValue = %d, %v", bits, ok)
	}
}

func TestConstStructFields(t *testing.T) {
	m := NewModule("t")
	st := m.StructType([]TypeID{m.IntType(8), m.IntType(16)})
	c := m.ConstStruct(st, []ValueID{m.ConstInt(m.IntType(8), 1), m.ConstInt(m.IntType(16), 300)})
	fld, ok := m.ConstStructField(c, 1)
	if !ok {
		t.Fatalf("field 1 should resolve")
	}
	bits, _ := m.ConstIntValue(fld)
	if bits != 300 {
		t.Fatalf("field 1 = %d, want 300", bits)
	}
	if _, ok := m.ConstStructField(c, 2); ok {
		t.Fatalf("out-of-range field should miss")
	}
}

func TestBuildStructFoldsConstants(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	st := m.StructType([]TypeID{m.IntType(8)})
	v := b.BuildStruct(st, []ValueID{m.ConstInt(m.IntType(8), 5)})
	if !IsConst(v) {
		t.Fatalf("all-constant aggregate should fold to a module constant")
	}
}

func TestAppendBlockUniqueLabels(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	f := m.AddFunc("f", m.FuncType(nil, m.IntType(1)), false)
	first := b.AppendBlock(f, "entry")
	second := b.AppendBlock(f, "entry")
	if f.Block(first).Label == f.Block(second).Label {
		t.Fatalf("duplicate labels should be uniquified")
	}
}

func TestEmitIntoTerminatedBlockPanics(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	f := m.AddFunc("f", m.FuncType([]TypeID{m.IntType(1)}, m.IntType(1)), false)
	entry := b.AppendBlock(f, "entry")
	b.SetInsertPoint(f, entry)
	p, _ := f.Param(0)
	b.Ret(p)
	defer func() {
		if recover() == nil {
			t.Fatalf("emitting past a terminator should panic")
		}
	}()
	b.Not(p)
}

func TestPrintModule(t *testing.T) {
	m := NewModule("unit")
	m.Target = "x86_64-linux-gnu"
	b := NewBuilder(m)
	f := m.AddFunc("flip", m.FuncType([]TypeID{m.IntType(1)}, m.IntType(1)), true)
	entry := b.AppendBlock(f, "entry")
	b.SetInsertPoint(f, entry)
	p, _ := f.Param(0)
	b.Ret(b.Not(p))

	out := Print(m)
	for _, want := range []string{
		`target triple = "x86_64-linux-gnu"`,
		"define dso_local i1 @flip(i1 ",
		"entry:",
		"xor i1",
		"ret i1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("printed module missing %q:\n%s", want, out)
		}
	}
}
