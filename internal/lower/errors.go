package lower

import "errors"

// Recoverable lowering failures. These propagate to the caller of Lower;
// broken upstream invariants (arity mismatches, out-of-range literals, erased
// function results) are panics instead, since recovering from those risks
// emitting silently wrong code.
var (
	// ErrNotImplemented marks constructs the engine does not support yet:
	// closures, dependent return types, wide constants, non-scalar merges.
	ErrNotImplemented = errors.New("not implemented")

	// ErrIrrepresentable marks a type with no physical representation in a
	// position that requires one.
	ErrIrrepresentable = errors.New("irrepresentable type")

	// ErrNotConst marks a non-constant value in a constant-only position.
	ErrNotConst = errors.New("non-constant value in constant position")

	// ErrNoCurrentFunc marks instruction emission outside any function.
	ErrNoCurrentFunc = errors.New("no current function")

	// ErrInternal marks internal-consistency failures that are plausible
	// under future extension, e.g. a parameter lookup that should have been
	// pre-registered.
	ErrInternal = errors.New("internal lowering error")
)
