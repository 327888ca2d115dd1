package engine

import (
	"github.com/dshills/docstorm/internal/config"
	"github.com/dshills/docstorm/internal/engine/collab"
	"github.com/dshills/docstorm/internal/engine/doc"
	"github.com/dshills/docstorm/internal/event"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithConfig applies a full configuration. Later options override the
// fields they cover.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg != nil {
			e.cfg = cfg
		}
	}
}

// WithOrigin sets this replica's identity. Two live replicas must never
// share an origin; the default is a fresh UUID.
func WithOrigin(origin string) Option {
	return func(e *Engine) {
		e.cfg.Collab.Origin = origin
	}
}

// WithEmitFunc sets the broadcast function handed each locally produced
// envelope.
func WithEmitFunc(emit collab.EmitFunc) Option {
	return func(e *Engine) {
		e.emit = emit
	}
}

// WithIDSource sets the node id source for the document model.
func WithIDSource(src doc.IDSource) Option {
	return func(e *Engine) {
		e.idSource = src
	}
}

// WithBus sets the event bus. The default is a bus private to the engine.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) {
		if bus != nil {
			e.bus = bus
		}
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.cfg.History.MaxEntries = max
		}
	}
}

// WithReadOnly creates a read-only engine.
// Mutating operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}
