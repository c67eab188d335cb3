// Package ir provides the region-based value graph consumed by the lowering
// engine.
//
// The graph is an arena of structurally interned nodes: two nodes built from
// the same kind and payload always receive the same NodeID, which is what
// gives downstream caches their sharing guarantee. Types are nodes too, so a
// value's type is just another NodeID.
//
// Regions generalize lexical scope: every function body or conditional branch
// owns a region with a parameter list, a parent and a depth. A node's depth is
// the depth of the deepest region whose parameters it (transitively) uses;
// depth zero means the node is a closed constant.
//
// The graph is required to be acyclic. Construction through the provided
// builders cannot introduce cycles, and consumers rely on acyclicity as a
// precondition rather than re-verifying it.
package ir
