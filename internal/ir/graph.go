package ir

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"fortio.org/safecast"
)

// entry is the arena record for one interned node.
type entry struct {
	node Node
	typ  NodeID
	free uint64 // bitmask of region depths whose parameters the node uses
}

// Builtins stores NodeIDs for nodes every graph carries.
type Builtins struct {
	BoolTy NodeID
	True   NodeID
	False  NodeID
	Add    NodeID
}

// Graph is an arena of structurally interned nodes plus a region arena.
type Graph struct {
	entries    []entry
	index      map[string]NodeID
	regions    []Region
	builtins   Builtins
	logicalTys map[uint8]NodeID
}

// NewGraph constructs a graph seeded with the builtin nodes.
func NewGraph() *Graph {
	g := &Graph{
		index:      make(map[string]NodeID, 64),
		logicalTys: make(map[uint8]NodeID, 4),
	}
	g.entries = append(g.entries, entry{}) // reserve 0 as invalid sentinel
	g.regions = append(g.regions, Region{})
	g.builtins.BoolTy = g.intern(Node{Kind: KindBoolTy})
	g.builtins.True = g.intern(Node{Kind: KindBool, Lit: 1})
	g.builtins.False = g.intern(Node{Kind: KindBool})
	g.builtins.Add = g.intern(Node{Kind: KindAdd})
	return g
}

// Builtins returns NodeIDs for the builtin nodes.
func (g *Graph) Builtins() Builtins {
	return g.builtins
}

func nodeKey(n Node) string {
	buf := make([]byte, 0, 16+4*len(n.Elems))
	buf = append(buf, byte(n.Kind), n.Arity, n.Table)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(n.Region))
	buf = binary.LittleEndian.AppendUint64(buf, n.Lit)
	for _, e := range n.Elems {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e))
	}
	return string(buf)
}

func (g *Graph) intern(n Node) NodeID {
	key := nodeKey(n)
	if id, ok := g.index[key]; ok {
		return id
	}
	e := entry{node: n}
	e.typ = g.typeOf(n)
	e.free = g.freeMask(n)
	g.entries = append(g.entries, e)
	id, err := safecast.Conv[uint32](len(g.entries) - 1)
	if err != nil {
		panic(fmt.Errorf("ir: node id overflow: %w", err))
	}
	g.index[key] = NodeID(id)
	return NodeID(id)
}

// typeOf derives the node's type at intern time. Type-level nodes and nodes
// whose type is not needed by the lowering engine get NoNodeID.
func (g *Graph) typeOf(n Node) NodeID {
	switch n.Kind {
	case KindBool:
		return g.builtins.BoolTy
	case KindIndex, KindBits:
		return n.Elems[0]
	case KindTuple:
		tys := make([]NodeID, len(n.Elems))
		for i, e := range n.Elems {
			tys[i] = g.TypeOf(e)
		}
		return g.Product(tys...)
	case KindLambda:
		return g.Pi(n.Region, g.TypeOf(n.Elems[0]))
	case KindTernary:
		return g.Pi(n.Region, g.TypeOf(n.Elems[0]))
	case KindParam:
		return g.Region(n.Region).Params[n.Lit]
	case KindApply:
		callee := g.entries[n.Elems[0]]
		if callee.node.Kind == KindLogical {
			if len(n.Elems)-1 == int(callee.node.Arity) {
				return g.builtins.BoolTy
			}
			return NoNodeID
		}
		if callee.node.Kind == KindAdd && len(n.Elems) == 3 {
			return g.TypeOf(n.Elems[1])
		}
		calleeTy := callee.typ
		if calleeTy.IsValid() {
			ctn := g.entries[calleeTy].node
			switch ctn.Kind {
			case KindPi:
				return ctn.Elems[0]
			case KindProduct:
				// Projection: a single index argument selects a member type.
				if len(n.Elems) == 2 && g.entries[n.Elems[1]].node.Kind == KindIndex {
					ix := g.entries[n.Elems[1]].node.Lit
					if ix < uint64(len(ctn.Elems)) {
						return ctn.Elems[ix]
					}
				}
			}
		}
		return NoNodeID
	case KindLogical:
		return g.logicalTy(n.Arity)
	default:
		return NoNodeID
	}
}

// logicalTy returns the pi type of an arity-n boolean combinator, caching one
// region per arity.
func (g *Graph) logicalTy(arity uint8) NodeID {
	if id, ok := g.logicalTys[arity]; ok {
		return id
	}
	params := make([]NodeID, arity)
	for i := range params {
		params[i] = g.builtins.BoolTy
	}
	id := g.Pi(g.NewRegion(NoRegionID, params), g.builtins.BoolTy)
	g.logicalTys[arity] = id
	return id
}

// freeMask computes the bitmask of region depths whose parameters the node
// depends on. Region-owning nodes clear their own depth: their parameters are
// bound, not free.
func (g *Graph) freeMask(n Node) uint64 {
	switch n.Kind {
	case KindParam:
		return 1 << g.Region(n.Region).Depth
	case KindLambda, KindTernary:
		var m uint64
		for _, e := range n.Elems {
			m |= g.entries[e].free
		}
		return m &^ (1 << g.Region(n.Region).Depth)
	default:
		var m uint64
		for _, e := range n.Elems {
			m |= g.entries[e].free
		}
		return m
	}
}

// Node returns a copy of the node descriptor.
func (g *Graph) Node(id NodeID) Node {
	return g.entries[id].node
}

// Kind returns the node's structural variant.
func (g *Graph) Kind(id NodeID) Kind {
	return g.entries[id].node.Kind
}

// TypeOf returns the node's type, or NoNodeID for type-level nodes.
func (g *Graph) TypeOf(id NodeID) NodeID {
	return g.entries[id].typ
}

// DepthOf returns the depth of the deepest region whose parameters the node
// uses; zero means the node is a closed constant.
func (g *Graph) DepthOf(id NodeID) uint32 {
	m := g.entries[id].free
	if m == 0 {
		return 0
	}
	return uint32(bits.Len64(m) - 1)
}

// RegionOf returns the region a lambda, ternary or parameter node owns or
// refers to, and NoRegionID for every other kind.
func (g *Graph) RegionOf(id NodeID) RegionID {
	n := g.entries[id].node
	switch n.Kind {
	case KindLambda, KindTernary, KindParam, KindPi:
		return n.Region
	default:
		return NoRegionID
	}
}

// BoolTy returns the boolean type node.
func (g *Graph) BoolTy() NodeID { return g.builtins.BoolTy }

// Bool returns a boolean literal node.
func (g *Graph) Bool(b bool) NodeID {
	if b {
		return g.builtins.True
	}
	return g.builtins.False
}

// FiniteTy returns the finite type of the given cardinality. Cardinality zero
// is the uninhabited type.
func (g *Graph) FiniteTy(card uint64) NodeID {
	return g.intern(Node{Kind: KindFiniteTy, Lit: card})
}

// Index returns a literal inhabitant of a finite type. Range checking is the
// typechecker's job upstream; the lowering engine treats an out-of-range
// index as a broken invariant.
func (g *Graph) Index(finiteTy NodeID, ix uint64) NodeID {
	if g.Kind(finiteTy) != KindFiniteTy {
		panic(fmt.Errorf("ir: index into non-finite node %d (%s)", finiteTy, g.Kind(finiteTy)))
	}
	return g.intern(Node{Kind: KindIndex, Elems: []NodeID{finiteTy}, Lit: ix})
}

// BitsTy returns the bit-vector type of the given width.
func (g *Graph) BitsTy(width uint32) NodeID {
	return g.intern(Node{Kind: KindBitsTy, Lit: uint64(width)})
}

// Bits returns a bit-vector literal of the given type.
func (g *Graph) Bits(bitsTy NodeID, data uint64) NodeID {
	if g.Kind(bitsTy) != KindBitsTy {
		panic(fmt.Errorf("ir: bits literal of non-bits node %d (%s)", bitsTy, g.Kind(bitsTy)))
	}
	return g.intern(Node{Kind: KindBits, Elems: []NodeID{bitsTy}, Lit: data})
}

// Product returns the product type of the given member types.
func (g *Graph) Product(members ...NodeID) NodeID {
	return g.intern(Node{Kind: KindProduct, Elems: append([]NodeID(nil), members...)})
}

// Tuple returns a tuple value of the given members.
func (g *Graph) Tuple(members ...NodeID) NodeID {
	return g.intern(Node{Kind: KindTuple, Elems: append([]NodeID(nil), members...)})
}

// Pi returns the function type over the region's parameter list with the
// given result type.
func (g *Graph) Pi(region RegionID, result NodeID) NodeID {
	return g.intern(Node{Kind: KindPi, Region: region, Elems: []NodeID{result}})
}

// Lambda returns a function value with the given defining region and body.
func (g *Graph) Lambda(region RegionID, body NodeID) NodeID {
	if region.IsGlobal() {
		panic(fmt.Errorf("ir: lambda requires a non-global region"))
	}
	return g.intern(Node{Kind: KindLambda, Region: region, Elems: []NodeID{body}})
}

// Ternary returns a two-way conditional selecting high when its boolean
// parameter is true and low otherwise. The region must declare exactly one
// boolean parameter.
func (g *Graph) Ternary(region RegionID, high, low NodeID) NodeID {
	r := g.Region(region)
	if len(r.Params) != 1 || r.Params[0] != g.builtins.BoolTy {
		panic(fmt.Errorf("ir: ternary region must declare exactly one boolean parameter"))
	}
	return g.intern(Node{Kind: KindTernary, Region: region, Elems: []NodeID{high, low}})
}

// Param returns a reference to the region's i-th parameter.
func (g *Graph) Param(region RegionID, i int) NodeID {
	r := g.Region(region)
	if i < 0 || i >= len(r.Params) {
		panic(fmt.Errorf("ir: parameter %d out of range for region %d", i, region))
	}
	return g.intern(Node{Kind: KindParam, Region: region, Lit: uint64(i)})
}

// Apply returns the application of callee to the given arguments.
func (g *Graph) Apply(callee NodeID, args ...NodeID) NodeID {
	elems := make([]NodeID, 0, 1+len(args))
	elems = append(elems, callee)
	elems = append(elems, args...)
	return g.intern(Node{Kind: KindApply, Elems: elems})
}

// Logical returns an arity-n boolean combinator with the given truth table.
// See the logical.go table conventions.
func (g *Graph) Logical(arity uint8, table uint8) NodeID {
	if arity == 0 || arity > MaxLogicalArity {
		panic(fmt.Errorf("ir: logical arity %d out of range", arity))
	}
	return g.intern(Node{Kind: KindLogical, Arity: arity, Table: table & TableMask(arity)})
}
