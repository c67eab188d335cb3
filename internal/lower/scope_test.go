package lower

import (
	"testing"

	"rill/internal/ir"
)

func TestScopeChainShadowAndPop(t *testing.T) {
	g := ir.NewGraph()
	r1 := g.NewRegion(ir.NoRegionID, []ir.NodeID{g.BoolTy()})
	r2 := g.NewRegion(r1, []ir.NodeID{g.BoolTy()})
	n := g.Param(r1, 0)

	s := newScopeChain()
	outer := s.push(noLayer, r1)
	s.insert(n, Unit)

	inner := s.push(s.top, r2)
	if v, ok := s.lookup(n); !ok || v.Kind != ValUnit {
		t.Fatalf("inner layer should see outer bindings")
	}
	s.insert(n, Contr)
	if v, _ := s.lookup(n); v.Kind != ValContr {
		t.Fatalf("inner binding should shadow")
	}

	s.pop(inner)
	if v, _ := s.lookup(n); v.Kind != ValUnit {
		t.Fatalf("popping should restore the outer binding")
	}
	s.pop(outer)
	if s.inScope() {
		t.Fatalf("chain should be empty after the final pop")
	}
}

func TestScopeChainAncestorWalk(t *testing.T) {
	g := ir.NewGraph()
	r1 := g.NewRegion(ir.NoRegionID, nil)
	r2 := g.NewRegion(r1, nil)
	r3 := g.NewRegion(r2, nil)

	s := newScopeChain()
	s.push(noLayer, r1)
	base1 := s.top
	s.push(s.top, r2)
	s.push(s.top, r3)

	if got := s.ancestor(0); got != s.top {
		t.Fatalf("ancestor(0) should be the top")
	}
	if got := s.ancestor(2); got != base1 {
		t.Fatalf("ancestor(2) = %d, want %d", got, base1)
	}
}

func TestScopeDetachHidesBindings(t *testing.T) {
	g := ir.NewGraph()
	r := g.NewRegion(ir.NoRegionID, []ir.NodeID{g.BoolTy()})
	n := g.Param(r, 0)

	s := newScopeChain()
	s.push(noLayer, r)
	s.insert(n, Unit)

	prev := s.detach()
	if _, ok := s.lookup(n); ok {
		t.Fatalf("detached chain must not expose caller locals")
	}
	s.attach(prev)
	if _, ok := s.lookup(n); !ok {
		t.Fatalf("attach should restore the caller's chain")
	}
}

func TestArenaReusesFreedSlots(t *testing.T) {
	var a Arena[int]
	first := a.Alloc(1)
	second := a.Alloc(2)
	if a.Live() != 2 {
		t.Fatalf("live = %d, want 2", a.Live())
	}
	a.Free(first)
	third := a.Alloc(3)
	if third != first {
		t.Fatalf("freed slot should be reused, got %d want %d", third, first)
	}
	if *a.Get(second) != 2 || *a.Get(third) != 3 {
		t.Fatalf("arena contents corrupted")
	}
}
