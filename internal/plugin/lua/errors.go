package lua

import "errors"

// Errors returned by the macro bridge.
var (
	// ErrDisabled indicates the macro bridge is turned off in configuration.
	ErrDisabled = errors.New("macro bridge disabled")

	// ErrOpBudget indicates a macro exceeded its operation budget and was
	// aborted.
	ErrOpBudget = errors.New("macro operation budget exceeded")
)
