// Package llvmir is the instruction-emission target of the lowering engine:
// an in-memory SSA module with functions, basic blocks and typed values, a
// builder that appends instructions at a movable insertion point, an
// LLVM-flavoured textual printer, and a small reference evaluator used by
// tests to execute generated functions without a native backend.
package llvmir
