package op

import (
	"errors"
	"fmt"

	"github.com/dshills/docstorm/internal/engine/address"
)

// Errors returned by the operation engines.
var (
	// ErrNotApplied indicates an inversion was requested for an operation
	// whose back-filled fields are missing (it was never applied).
	ErrNotApplied = errors.New("operation has not been applied")

	// ErrUnknownKind indicates an unrecognized operation kind. Transform and
	// codec failures of this sort are fatal for the specific operation;
	// approximating is unsafe.
	ErrUnknownKind = errors.New("unknown operation kind")
)

// ModelIntegrityError reports a non-resolving path or a wrong-kind target.
// The failed operation is abandoned and the model state for it is undefined;
// a batch must not continue past a failed member.
type ModelIntegrityError struct {
	Path   address.Path
	Reason string
}

func (e *ModelIntegrityError) Error() string {
	return fmt.Sprintf("model integrity: %s at %s", e.Reason, e.Path)
}

func integrityErr(p address.Path, format string, args ...any) error {
	return &ModelIntegrityError{Path: p.Clone(), Reason: fmt.Sprintf(format, args...)}
}
