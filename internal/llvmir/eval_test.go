package llvmir

import (
	"testing"
)

func TestEvalAddMasksToWidth(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i8 := m.IntType(8)
	f := m.AddFunc("add8", m.FuncType([]TypeID{i8, i8}, i8), false)
	entry := b.AppendBlock(f, "entry")
	b.SetInsertPoint(f, entry)
	p0, _ := f.Param(0)
	p1, _ := f.Param(1)
	b.Ret(b.Add(p0, p1))

	out, err := Eval(m, f, []Datum{Scalar(200), Scalar(100)})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.Bits != 44 {
		t.Fatalf("200+100 mod 256 = %d, want 44", out.Bits)
	}
}

func TestEvalPhiPicksIncomingEdge(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i1 := m.IntType(1)
	i8 := m.IntType(8)
	f := m.AddFunc("pick", m.FuncType([]TypeID{i1}, i8), false)
	entry := b.AppendBlock(f, "entry")
	high := b.AppendBlock(f, "high")
	low := b.AppendBlock(f, "low")
	join := b.AppendBlock(f, "join")

	p, _ := f.Param(0)
	b.SetInsertPoint(f, entry)
	b.CondBr(p, high, low)
	b.SetInsertPoint(f, high)
	b.Br(join)
	b.SetInsertPoint(f, low)
	b.Br(join)
	b.SetInsertPoint(f, join)
	phi := b.Phi(i8, []Incoming{
		{Val: m.ConstInt(i8, 11), Block: high},
		{Val: m.ConstInt(i8, 22), Block: low},
	})
	b.Ret(phi)

	for _, tc := range []struct{ in, want uint64 }{{1, 11}, {0, 22}} {
		out, err := Eval(m, f, []Datum{Scalar(tc.in)})
		if err != nil {
			t.Fatalf("Eval(%d): %v", tc.in, err)
		}
		if out.Bits != tc.want {
			t.Fatalf("pick(%d) = %d, want %d", tc.in, out.Bits, tc.want)
		}
	}
}

func TestEvalLoadStoreThroughPointer(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i8 := m.IntType(8)
	ptr := m.PtrType(i8)
	f := m.AddFunc("bump", m.FuncType([]TypeID{ptr}, i8), false)
	entry := b.AppendBlock(f, "entry")
	b.SetInsertPoint(f, entry)
	p, _ := f.Param(0)
	v := b.Load(p)
	sum := b.Add(v, m.ConstInt(i8, 1))
	b.Store(p, sum)
	b.Ret(sum)

	cell := Scalar(41)
	out, err := Eval(m, f, []Datum{Ref(&cell)})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.Bits != 42 || cell.Bits != 42 {
		t.Fatalf("store through pointer: ret %d, cell %d", out.Bits, cell.Bits)
	}
}

func TestEvalBudget(t *testing.T) {
	m := NewModule("t")
	b := NewBuilder(m)
	i1 := m.IntType(1)
	f := m.AddFunc("spin", m.FuncType(nil, i1), false)
	entry := b.AppendBlock(f, "entry")
	loop := b.AppendBlock(f, "loop")
	b.SetInsertPoint(f, entry)
	b.Br(loop)
	b.SetInsertPoint(f, loop)
	b.Not(m.ConstInt(i1, 0))
	b.Br(loop)

	if _, err := Eval(m, f, nil); err == nil {
		t.Fatalf("infinite loop should exhaust the step budget")
	}
}
