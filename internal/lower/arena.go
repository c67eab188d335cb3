package lower

import "fmt"

// Arena is a slot arena with a free list of reclaimed indices. Scope layers
// are pushed and popped at high frequency while lowering nested functions;
// the free list lets the chain reuse slots instead of growing per push.
type Arena[T any] struct {
	slots []T
	free  []uint32
	live  int
}

// Alloc stores v in a free slot and returns its index.
func (a *Arena[T]) Alloc(v T) uint32 {
	a.live++
	if n := len(a.free); n > 0 {
		ix := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[ix] = v
		return ix
	}
	a.slots = append(a.slots, v)
	return uint32(len(a.slots) - 1)
}

// Get returns a pointer to the slot at ix. The pointer is invalidated by the
// next Alloc.
func (a *Arena[T]) Get(ix uint32) *T {
	if int(ix) >= len(a.slots) {
		panic(fmt.Errorf("lower: arena index %d out of range", ix))
	}
	return &a.slots[ix]
}

// Free reclaims the slot at ix for reuse.
func (a *Arena[T]) Free(ix uint32) {
	if int(ix) >= len(a.slots) {
		panic(fmt.Errorf("lower: arena free of %d out of range", ix))
	}
	var zero T
	a.slots[ix] = zero
	a.free = append(a.free, ix)
	a.live--
}

// Live returns the number of allocated slots.
func (a *Arena[T]) Live() int { return a.live }
