package lower

import (
	"errors"
	"testing"

	"rill/internal/ir"
	"rill/internal/llvmir"
)

// mustFunc lowers a node and unwraps the compiled function.
func mustFunc(t *testing.T, cg *Codegen, v ir.NodeID) *llvmir.Func {
	t.Helper()
	out, err := cg.Lower(v)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if out.Kind != ValFunc {
		t.Fatalf("Lower = %v, want a function", out.Kind)
	}
	return out.Fn
}

func evalScalar(t *testing.T, m *llvmir.Module, f *llvmir.Func, args ...uint64) uint64 {
	t.Helper()
	data := make([]llvmir.Datum, len(args))
	for i, a := range args {
		data[i] = llvmir.Scalar(a)
	}
	out, err := llvmir.Eval(m, f, data)
	if err != nil {
		t.Fatalf("Eval(%s): %v", f.Name, err)
	}
	return out.Bits
}

func TestIdentityRoundTrip(t *testing.T) {
	g := ir.NewGraph()
	r := g.NewRegion(ir.NoRegionID, []ir.NodeID{g.BoolTy()})
	lam := g.Lambda(r, g.Param(r, 0))

	cg := New(g, Options{})
	f := mustFunc(t, cg, lam)
	for _, in := range []uint64{0, 1} {
		if got := evalScalar(t, cg.Module(), f, in); got != in {
			t.Fatalf("identity(%d) = %d", in, got)
		}
	}
}

func TestMuxTruthTable(t *testing.T) {
	g := ir.NewGraph()
	// sel ? high : low as an arity-3 combinator, first argument most
	// significant in the table encoding.
	const mux uint8 = 0b11001010
	r := g.NewRegion(ir.NoRegionID, []ir.NodeID{g.BoolTy(), g.BoolTy(), g.BoolTy()})
	body := g.Apply(g.Logical(3, mux), g.Param(r, 0), g.Param(r, 1), g.Param(r, 2))
	lam := g.Lambda(r, body)

	cg := New(g, Options{})
	f := mustFunc(t, cg, lam)
	for sel := uint64(0); sel < 2; sel++ {
		for high := uint64(0); high < 2; high++ {
			for low := uint64(0); low < 2; low++ {
				want := low
				if sel != 0 {
					want = high
				}
				if got := evalScalar(t, cg.Module(), f, sel, high, low); got != want {
					t.Fatalf("mux(%d,%d,%d) = %d, want %d", sel, high, low, got, want)
				}
			}
		}
	}
}

func TestBinaryLogicalPrimitives(t *testing.T) {
	g := ir.NewGraph()
	cg := New(g, Options{})
	cases := []struct {
		name string
		comb ir.NodeID
		want func(a, b uint64) uint64
	}{
		{"and", g.And(), func(a, b uint64) uint64 { return a & b }},
		{"or", g.Or(), func(a, b uint64) uint64 { return a | b }},
		{"xor", g.Xor(), func(a, b uint64) uint64 { return a ^ b }},
	}
	for _, tc := range cases {
		r := g.NewRegion(ir.NoRegionID, []ir.NodeID{g.BoolTy(), g.BoolTy()})
		lam := g.Lambda(r, g.Apply(tc.comb, g.Param(r, 0), g.Param(r, 1)))
		f := mustFunc(t, cg, lam)
		for a := uint64(0); a < 2; a++ {
			for b := uint64(0); b < 2; b++ {
				if got := evalScalar(t, cg.Module(), f, a, b); got != tc.want(a, b) {
					t.Fatalf("%s(%d,%d) = %d", tc.name, a, b, got)
				}
			}
		}
	}
}

func TestConstantFolding(t *testing.T) {
	g := ir.NewGraph()
	cg := New(g, Options{})

	// Fully-constant logic folds to a constant without any open function.
	out, err := cg.Lower(g.Apply(g.And(), g.Bool(true), g.Bool(false)))
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if out.Kind != ValValue || !llvmir.IsConst(out.Ref) {
		t.Fatalf("constant and should fold to a module constant")
	}
	bits, ok := cg.Module().ConstIntValue(out.Ref)
	if !ok || bits != 0 {
		t.Fatalf("true AND false = %d, want 0", bits)
	}

	out, err = cg.Lower(g.Apply(g.Not(), g.Bool(false)))
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	bits, ok = cg.Module().ConstIntValue(out.Ref)
	if !ok || bits != 1 {
		t.Fatalf("NOT false = %d, want 1", bits)
	}
}

func TestSharingLowersOnce(t *testing.T) {
	g := ir.NewGraph()
	r := g.NewRegion(ir.NoRegionID, []ir.NodeID{g.BoolTy(), g.BoolTy()})
	shared := g.Apply(g.Xor(), g.Param(r, 0), g.Param(r, 1))
	body := g.Apply(g.And(), shared, shared)
	lam := g.Lambda(r, body)

	cg := New(g, Options{})
	f := mustFunc(t, cg, lam)
	xors := 0
	for _, blk := range f.Blocks {
		for _, iv := range blk.Instrs {
			if f.ValueInfo(iv).Op == llvmir.OpXor {
				xors++
			}
		}
	}
	if xors != 1 {
		t.Fatalf("shared subexpression lowered %d times, want 1", xors)
	}
	if got := evalScalar(t, cg.Module(), f, 1, 0); got != 1 {
		t.Fatalf("and(xor(1,0), xor(1,0)) = %d, want 1", got)
	}
}

func TestGlobalConstantCacheIdentity(t *testing.T) {
	g := ir.NewGraph()
	r := g.NewRegion(ir.NoRegionID, []ir.NodeID{g.BoolTy()})
	lam := g.Lambda(r, g.Param(r, 0))

	cg := New(g, Options{})
	f1 := mustFunc(t, cg, lam)
	f2 := mustFunc(t, cg, lam)
	if f1 != f2 {
		t.Fatalf("lowering a cached constant twice should return the same function")
	}
	if len(cg.Module().Funcs()) != 1 {
		t.Fatalf("constant lambda compiled %d times", len(cg.Module().Funcs()))
	}
}

func TestProjectionWithErasure(t *testing.T) {
	g := ir.NewGraph()
	cg := New(g, Options{})
	f6 := g.FiniteTy(6)
	tup := g.Tuple(g.Index(g.FiniteTy(1), 0), g.Index(f6, 4))

	// The erased field projects to the sentinel without touching the
	// aggregate.
	out, err := cg.Lower(g.Apply(tup, g.Index(g.FiniteTy(2), 0)))
	if err != nil {
		t.Fatalf("Lower erased projection: %v", err)
	}
	if out.Kind != ValUnit {
		t.Fatalf("projection of erased field = %v, want unit", out.Kind)
	}

	out, err = cg.Lower(g.Apply(tup, g.Index(g.FiniteTy(2), 1)))
	if err != nil {
		t.Fatalf("Lower physical projection: %v", err)
	}
	if out.Kind != ValValue {
		t.Fatalf("projection of physical field = %v, want value", out.Kind)
	}
	bits, ok := cg.Module().ConstIntValue(out.Ref)
	if !ok || bits != 4 {
		t.Fatalf("projected index = %d, want 4", bits)
	}
}

func TestAggregateIdentityRoundTrip(t *testing.T) {
	g := ir.NewGraph()
	prod := g.Product(g.FiniteTy(73), g.FiniteTy(1025))
	r := g.NewRegion(ir.NoRegionID, []ir.NodeID{prod})
	lam := g.Lambda(r, g.Param(r, 0))

	cg := New(g, Options{})
	f := mustFunc(t, cg, lam)
	for a := uint64(0); a < 10; a++ {
		for b := uint64(0); b < 10; b++ {
			in := llvmir.Aggregate(llvmir.Scalar(a), llvmir.Scalar(b))
			out, err := llvmir.Eval(cg.Module(), f, []llvmir.Datum{in})
			if err != nil {
				t.Fatalf("Eval: %v", err)
			}
			if len(out.Agg) != 2 || out.Agg[0].Bits != a || out.Agg[1].Bits != b {
				t.Fatalf("round-trip of (%d,%d) came back %+v", a, b, out)
			}
		}
	}
}

func TestTupleConstructionSkipsErased(t *testing.T) {
	g := ir.NewGraph()
	f6 := g.FiniteTy(6)
	f1025 := g.FiniteTy(1025)
	r := g.NewRegion(ir.NoRegionID, []ir.NodeID{f6, f1025})
	body := g.Tuple(g.Param(r, 0), g.Index(g.FiniteTy(1), 0), g.Param(r, 1))
	lam := g.Lambda(r, body)

	cg := New(g, Options{})
	f := mustFunc(t, cg, lam)
	out, err := llvmir.Eval(cg.Module(), f, []llvmir.Datum{llvmir.Scalar(5), llvmir.Scalar(300)})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(out.Agg) != 2 || out.Agg[0].Bits != 5 || out.Agg[1].Bits != 300 {
		t.Fatalf("tuple with erased middle = %+v, want {5, 300}", out)
	}
}

func TestBitsAddition(t *testing.T) {
	g := ir.NewGraph()
	b8 := g.BitsTy(8)
	r := g.NewRegion(ir.NoRegionID, []ir.NodeID{b8, b8})
	body := g.Apply(g.Builtins().Add, g.Param(r, 0), g.Param(r, 1))
	lam := g.Lambda(r, body)

	cg := New(g, Options{})
	f := mustFunc(t, cg, lam)
	if got := evalScalar(t, cg.Module(), f, 200, 100); got != (200+100)&0xff {
		t.Fatalf("8-bit add should wrap, got %d", got)
	}

	// Constant addition folds without a function.
	out, err := cg.Lower(g.Apply(g.Builtins().Add, g.Bits(b8, 250), g.Bits(b8, 10)))
	if err != nil {
		t.Fatalf("Lower const add: %v", err)
	}
	bits, ok := cg.Module().ConstIntValue(out.Ref)
	if !ok || bits != 4 {
		t.Fatalf("250+10 mod 256 = %d, want 4", bits)
	}
}

func TestErasedCalleeShortCircuits(t *testing.T) {
	g := ir.NewGraph()
	// A function with an erased result never compiles; applying it yields
	// the erased marker without lowering arguments.
	r := g.NewRegion(ir.NoRegionID, []ir.NodeID{g.BoolTy()})
	lam := g.Lambda(r, g.Index(g.FiniteTy(1), 0))

	cg := New(g, Options{})
	out, err := cg.Lower(g.Apply(lam, g.Bool(true)))
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if out.Kind != ValUnit {
		t.Fatalf("erased call = %v, want unit", out.Kind)
	}
	if len(cg.Module().Funcs()) != 0 {
		t.Fatalf("no native function should be emitted for an erased callee")
	}
}

func TestClosuresRejected(t *testing.T) {
	g := ir.NewGraph()
	outer := g.NewRegion(ir.NoRegionID, []ir.NodeID{g.BoolTy()})
	inner := g.NewRegion(outer, []ir.NodeID{g.BoolTy()})
	capture := g.Lambda(inner, g.Param(outer, 0))
	lam := g.Lambda(outer, capture)

	cg := New(g, Options{})
	if _, err := cg.Lower(lam); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("capturing lambda should be rejected, got %v", err)
	}
}

func TestOutOfRangeIndexPanics(t *testing.T) {
	g := ir.NewGraph()
	cg := New(g, Options{})
	defer func() {
		if recover() == nil {
			t.Fatalf("index 9 against cardinality 6 should panic, not truncate")
		}
	}()
	_, _ = cg.Lower(g.Index(g.FiniteTy(6), 9))
}

func TestOutOfRangeBitsPanics(t *testing.T) {
	g := ir.NewGraph()
	cg := New(g, Options{})
	defer func() {
		if recover() == nil {
			t.Fatalf("300 does not fit 8 bits and should panic")
		}
	}()
	_, _ = cg.Lower(g.Bits(g.BitsTy(8), 300))
}

func TestArityMismatchPanics(t *testing.T) {
	g := ir.NewGraph()
	cg := New(g, Options{})
	defer func() {
		if recover() == nil {
			t.Fatalf("over-applied combinator should panic")
		}
	}()
	_, _ = cg.Lower(g.Apply(g.And(), g.Bool(true), g.Bool(false), g.Bool(true)))
}

func TestPartialApplicationRejected(t *testing.T) {
	g := ir.NewGraph()
	cg := New(g, Options{})
	if _, err := cg.Lower(g.Apply(g.And(), g.Bool(true))); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("partial application should be not-implemented, got %v", err)
	}
}

func TestUninhabitedLiteralIsContradiction(t *testing.T) {
	g := ir.NewGraph()
	cg := New(g, Options{})
	out, err := cg.Lower(g.Bits(g.BitsTy(0), 0))
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if out.Kind != ValContr {
		t.Fatalf("zero-width literal = %v, want contradiction", out.Kind)
	}
}
