package engine

import (
	"errors"

	"github.com/dshills/docstorm/internal/engine/collab"
	"github.com/dshills/docstorm/internal/engine/history"
	"github.com/dshills/docstorm/internal/plugin/lua"
)

// Errors returned by engine operations.
var (
	// ErrReadOnly indicates a mutation was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")

	// ErrNodeNotFound indicates a path did not resolve to a node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNotText indicates a path resolved to an element, not a text leaf.
	ErrNotText = errors.New("node is not a text node")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrRevisionTooOld indicates a remote envelope predates the retained
	// operation log.
	ErrRevisionTooOld = collab.ErrRevisionTooOld

	// ErrMacrosDisabled indicates macros are turned off in configuration.
	ErrMacrosDisabled = lua.ErrDisabled
)
