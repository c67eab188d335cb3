package ir

// NodeID identifies a node within a Graph.
type NodeID uint32

// RegionID identifies a region within a Graph.
type RegionID uint32

// Invalid ID constants (zero is sentinel). NoRegionID doubles as the global
// region: depth zero, no parameters.
const (
	NoNodeID   NodeID   = 0
	NoRegionID RegionID = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id NodeID) IsValid() bool { return id != NoNodeID }

// IsGlobal returns true for the global (depth-zero) region.
func (id RegionID) IsGlobal() bool { return id == NoRegionID }
