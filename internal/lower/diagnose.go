package lower

import (
	"errors"

	"rill/internal/diag"
)

// Diagnose maps a recoverable lowering error onto a user-facing diagnostic.
// Fatal conditions surface as panics and never reach this path.
func Diagnose(err error) diag.Diagnostic {
	code := diag.LowInternal
	switch {
	case errors.Is(err, ErrNotImplemented):
		code = diag.LowNotImplemented
	case errors.Is(err, ErrIrrepresentable):
		code = diag.LowIrrepresentable
	case errors.Is(err, ErrNotConst):
		code = diag.LowNotConst
	case errors.Is(err, ErrNoCurrentFunc):
		code = diag.LowNoCurrentFunc
	}
	return diag.New(diag.SevError, code, err.Error())
}
