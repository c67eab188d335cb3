package ir

import "fmt"

// maxRegionDepth bounds region nesting so node depths fit a uint64 mask.
const maxRegionDepth = 63

// Region describes one nesting scope: a parameter list, a parent and a depth.
type Region struct {
	Parent RegionID
	Depth  uint32
	Params []NodeID
}

// NewRegion allocates a region nested inside parent with the given parameter
// types.
func (g *Graph) NewRegion(parent RegionID, params []NodeID) RegionID {
	p := g.Region(parent)
	if p.Depth >= maxRegionDepth {
		panic(fmt.Errorf("ir: region depth overflow at %d", p.Depth))
	}
	g.regions = append(g.regions, Region{
		Parent: parent,
		Depth:  p.Depth + 1,
		Params: append([]NodeID(nil), params...),
	})
	return RegionID(len(g.regions) - 1)
}

// Region returns the descriptor for a region. NoRegionID yields the global
// region: depth zero, no parameters, its own parent.
func (g *Graph) Region(id RegionID) Region {
	if int(id) >= len(g.regions) {
		panic(fmt.Errorf("ir: unknown region %d", id))
	}
	return g.regions[id]
}

// LCA returns the least common ancestor of two regions. The global region is
// an ancestor of every region, so the walk always terminates.
func (g *Graph) LCA(a, b RegionID) RegionID {
	ra, rb := g.Region(a), g.Region(b)
	for ra.Depth > rb.Depth {
		a = ra.Parent
		ra = g.Region(a)
	}
	for rb.Depth > ra.Depth {
		b = rb.Parent
		rb = g.Region(b)
	}
	for a != b {
		a, b = ra.Parent, rb.Parent
		ra, rb = g.Region(a), g.Region(b)
	}
	return a
}
