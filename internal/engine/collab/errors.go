package collab

import "errors"

// Errors returned by the collaboration layer.
var (
	// ErrRevisionTooOld indicates a remote envelope predates the bounded
	// operation log, so it can no longer be transformed. The sender must
	// rebase from a fresh snapshot.
	ErrRevisionTooOld = errors.New("revision predates the operation log")

	// ErrBadEnvelope indicates a malformed wire envelope.
	ErrBadEnvelope = errors.New("malformed envelope")
)
