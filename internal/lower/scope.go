package lower

import (
	"fmt"

	"rill/internal/ir"
)

// noLayer marks the absence of a scope layer.
const noLayer int32 = -1

// scopeLayer binds IR values to lowered values for one region. A binding,
// once inserted, is never mutated: inner layers shadow, popping discards.
type scopeLayer struct {
	region ir.RegionID
	parent int32
	vars   map[ir.NodeID]Val
}

// scopeChain is the branch-structured local-binding chain. Layers form a
// tree through parent links; the chain tracks the layer the engine currently
// lowers under. Pushing snapshots in O(1), and crossing back into a shallower
// region walks parent links in O(depth).
type scopeChain struct {
	layers Arena[scopeLayer]
	top    int32
}

func newScopeChain() *scopeChain {
	return &scopeChain{top: noLayer}
}

// ancestor returns the layer dd parent steps above the current top.
func (s *scopeChain) ancestor(dd uint32) int32 {
	at := s.top
	for ; dd > 0; dd-- {
		if at == noLayer {
			panic(fmt.Errorf("lower: too few scope layers for region walk"))
		}
		at = s.layers.Get(uint32(at)).parent
	}
	return at
}

// push opens a new layer for region whose parent is base and makes it the
// current top, returning the previous top for restore.
func (s *scopeChain) push(base int32, region ir.RegionID) (prev int32) {
	prev = s.top
	layer := s.layers.Alloc(scopeLayer{
		region: region,
		parent: base,
		vars:   make(map[ir.NodeID]Val, 8),
	})
	s.top = int32(layer)
	return prev
}

// pop discards the current top layer and restores prev as the top.
func (s *scopeChain) pop(prev int32) {
	if s.top == noLayer {
		panic(fmt.Errorf("lower: scope pop without push"))
	}
	s.layers.Free(uint32(s.top))
	s.top = prev
}

// lookup walks from the top layer through its ancestors.
func (s *scopeChain) lookup(n ir.NodeID) (Val, bool) {
	for at := s.top; at != noLayer; {
		layer := s.layers.Get(uint32(at))
		if v, ok := layer.vars[n]; ok {
			return v, true
		}
		at = layer.parent
	}
	return Val{}, false
}

// insert binds n in the current top layer.
func (s *scopeChain) insert(n ir.NodeID, v Val) {
	if s.top == noLayer {
		panic(fmt.Errorf("lower: scope insert without a layer"))
	}
	s.layers.Get(uint32(s.top)).vars[n] = v
}

// detach clears the chain for the duration of a nested function body and
// returns the previous top for attach. A nested function must not see the
// caller's locals.
func (s *scopeChain) detach() int32 {
	prev := s.top
	s.top = noLayer
	return prev
}

// attach restores a previously detached top.
func (s *scopeChain) attach(prev int32) {
	s.top = prev
}

// inScope reports whether any layer is active.
func (s *scopeChain) inScope() bool { return s.top != noLayer }
