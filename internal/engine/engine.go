package engine

import (
	"sync"

	"github.com/dshills/docstorm/internal/config"
	"github.com/dshills/docstorm/internal/engine/address"
	"github.com/dshills/docstorm/internal/engine/collab"
	"github.com/dshills/docstorm/internal/engine/doc"
	"github.com/dshills/docstorm/internal/engine/history"
	"github.com/dshills/docstorm/internal/engine/op"
	"github.com/dshills/docstorm/internal/event"
	"github.com/dshills/docstorm/internal/event/events"
	"github.com/dshills/docstorm/internal/plugin/lua"
)

// Re-export commonly used types for convenience.
type (
	// Path addresses a node by child indexes from the root.
	Path = address.Path

	// Position is a path plus a byte offset within a text leaf.
	Position = address.Position

	// Range is an anchor/focus pair of positions.
	Range = address.Range

	// PointRef is a position pinned to a node identity.
	PointRef = address.PointRef

	// Node is a member of the document tree.
	Node = doc.Node

	// TextNode is a leaf holding a run of marked text.
	TextNode = doc.TextNode

	// ElementNode is a container node with a type and attributes.
	ElementNode = doc.ElementNode

	// NodeID uniquely identifies a node.
	NodeID = doc.NodeID

	// Mark is a formatting attribute on a text node.
	Mark = doc.Mark

	// MarkType identifies a kind of formatting mark.
	MarkType = doc.MarkType

	// IDSource produces node ids.
	IDSource = doc.IDSource

	// Operation is a single invertible mutation record.
	Operation = op.Operation

	// Kind identifies an operation kind.
	Kind = op.Kind

	// The ten operation kinds.
	InsertText = op.InsertText
	DeleteText = op.DeleteText
	ApplyMark  = op.ApplyMark
	RemoveMark = op.RemoveMark
	InsertNode = op.InsertNode
	RemoveNode = op.RemoveNode
	SetNode    = op.SetNode
	MergeNodes = op.MergeNodes
	SplitNode  = op.SplitNode
	MoveNode   = op.MoveNode

	// Envelope is a revision-stamped batch from one replica.
	Envelope = collab.Envelope

	// EmitFunc broadcasts a locally produced envelope.
	EmitFunc = collab.EmitFunc

	// BatchInfo describes an undo or redo stack entry.
	BatchInfo = history.BatchInfo
)

// Re-export constants.
const (
	RootType = doc.RootType

	MarkBold          = doc.MarkBold
	MarkItalic        = doc.MarkItalic
	MarkUnderline     = doc.MarkUnderline
	MarkStrikethrough = doc.MarkStrikethrough
	MarkCode          = doc.MarkCode
	MarkColor         = doc.MarkColor
	MarkBackground    = doc.MarkBackground
)

// Engine is the main facade for the document engine. It combines the tree
// model, invertible operations, undo/redo, collaboration, and Lua macros
// into a unified, thread-safe API.
type Engine struct {
	mu     sync.Mutex
	model  *doc.Model
	hist   *history.History
	collab *collab.Collab
	bridge *lua.Bridge
	bus    *event.Bus

	readOnly bool

	// emitted collects envelopes produced during the current mutation,
	// published as events after the collab lock is released.
	emitted []*collab.Envelope

	// construction state
	cfg      *config.Config
	emit     collab.EmitFunc
	idSource doc.IDSource
}

// New creates a document engine with an empty document.
func New(opts ...Option) *Engine {
	e := &Engine{cfg: config.Default()}
	for _, opt := range opts {
		opt(e)
	}

	var modelOpts []doc.Option
	if e.idSource != nil {
		modelOpts = append(modelOpts, doc.WithIDSource(e.idSource))
	}
	e.model = doc.NewModel(modelOpts...)
	e.hist = history.New(e.model, e.cfg.History.MaxEntries)

	collabOpts := []collab.Option{
		collab.WithOpLogCap(e.cfg.Collab.OpLogCap),
		collab.WithEmitFunc(e.captureEmit),
	}
	if e.cfg.Collab.Origin != "" {
		collabOpts = append(collabOpts, collab.WithOrigin(e.cfg.Collab.Origin))
	}
	e.collab = collab.New(e.hist, collabOpts...)

	e.bridge = lua.New(e.collab,
		lua.WithEnabled(e.cfg.Plugin.Enabled),
		lua.WithMaxOps(e.cfg.Plugin.MaxMacroOps),
	)

	if e.bus == nil {
		e.bus = event.NewBus()
	}
	return e
}

// captureEmit records each outgoing envelope for event publication and
// forwards it to the configured broadcast function. It runs synchronously
// inside the mutation that produced the envelope.
func (e *Engine) captureEmit(env *collab.Envelope) {
	e.emitted = append(e.emitted, env)
	if e.emit != nil {
		e.emit(env)
	}
}

// publishEmittedLocked publishes one collab event per envelope produced by
// the mutation that just completed.
func (e *Engine) publishEmittedLocked() {
	for _, env := range e.emitted {
		_ = e.bus.Publish(events.TopicCollabEmitted, events.CollabEmitted{
			Origin:   env.Origin,
			Revision: env.Revision,
			OpCount:  len(env.Ops),
		})
	}
	e.emitted = nil
}

// Apply applies a single operation to the document, records it for undo,
// and broadcasts it.
func (e *Engine) Apply(o op.Operation) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	if err := e.collab.ApplyLocalOperation(o); err != nil {
		e.emitted = nil
		return err
	}
	e.publishEmittedLocked()
	_ = e.bus.Publish(events.TopicDocumentChanged, events.DocumentChanged{
		Ops:    []op.Operation{o},
		Source: events.SourceLocal,
	})
	return nil
}

// ApplyBatch applies ops as one undo batch named name and broadcasts them
// composed into a single envelope. A failing operation rolls the whole
// batch back.
func (e *Engine) ApplyBatch(name string, ops []op.Operation) error {
	return e.Transact(name, func(apply func(op.Operation) error) error {
		for _, o := range ops {
			if err := apply(o); err != nil {
				return err
			}
		}
		return nil
	})
}

// Transact runs fn as one named undo batch. Each edit fn applies lands on
// the document immediately, so later edits see the updated tree. On
// failure every edit is rolled back and nothing is broadcast.
func (e *Engine) Transact(name string, fn func(apply func(op.Operation) error) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	ops, err := e.collab.Transact(name, fn)
	if err != nil {
		e.emitted = nil
		return err
	}
	e.publishEmittedLocked()
	_ = e.bus.Publish(events.TopicDocumentChanged, events.DocumentChanged{
		Ops:       ops,
		Source:    events.SourceLocal,
		BatchName: name,
	})
	return nil
}

// Undo reverts the most recent batch and broadcasts the reverting
// operations so other replicas converge.
func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	ops, err := e.collab.Undo()
	if err != nil {
		e.emitted = nil
		return err
	}
	e.publishEmittedLocked()
	_ = e.bus.Publish(events.TopicDocumentUndone, events.HistoryChanged{Ops: ops})
	_ = e.bus.Publish(events.TopicDocumentChanged, events.DocumentChanged{
		Ops:    ops,
		Source: events.SourceUndo,
	})
	return nil
}

// Redo re-applies the most recently undone batch and broadcasts it.
func (e *Engine) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	ops, err := e.collab.Redo()
	if err != nil {
		e.emitted = nil
		return err
	}
	e.publishEmittedLocked()
	_ = e.bus.Publish(events.TopicDocumentRedone, events.HistoryChanged{Ops: ops})
	_ = e.bus.Publish(events.TopicDocumentChanged, events.DocumentChanged{
		Ops:    ops,
		Source: events.SourceRedo,
	})
	return nil
}

// ReceiveRemote integrates an envelope from another replica, transforming
// its operations against anything applied since the revision they were
// produced at. Envelopes from the future are queued until the gap fills.
// Read-only engines accept remote envelopes so a mirror can follow a
// session.
func (e *Engine) ReceiveRemote(env *collab.Envelope) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pendingBefore := e.collab.PendingCount()
	ops, err := e.collab.ReceiveRemote(env)
	if err != nil {
		e.emitted = nil
		return err
	}
	e.publishEmittedLocked()

	if len(ops) > 0 {
		_ = e.bus.Publish(events.TopicCollabApplied, events.CollabApplied{
			Origin:   env.Origin,
			Revision: env.Revision,
			Applied:  len(ops),
		})
		_ = e.bus.Publish(events.TopicDocumentChanged, events.DocumentChanged{
			Ops:    ops,
			Source: events.SourceRemote,
		})
	}
	if pending := e.collab.PendingCount(); pending > pendingBefore {
		_ = e.bus.Publish(events.TopicCollabQueued, events.CollabQueued{
			Origin:   env.Origin,
			Revision: env.Revision,
			Pending:  pending,
		})
	}
	return nil
}

// ReceiveRemoteBytes decodes a wire envelope and integrates it.
func (e *Engine) ReceiveRemoteBytes(data []byte) error {
	env, err := collab.DecodeEnvelope(data)
	if err != nil {
		return err
	}
	return e.ReceiveRemote(env)
}

// RunMacro executes a Lua macro script as one undo batch named name. A
// script error rolls every edit back; on success the batch broadcasts as a
// single envelope.
func (e *Engine) RunMacro(name, script string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	ops, err := e.bridge.Run(name, script)
	if err != nil {
		e.emitted = nil
		return err
	}
	e.publishEmittedLocked()
	_ = e.bus.Publish(events.TopicDocumentChanged, events.DocumentChanged{
		Ops:       ops,
		Source:    events.SourceLocal,
		BatchName: name,
	})
	return nil
}

// EncodeEnvelope serializes an envelope for the wire.
func EncodeEnvelope(env *Envelope) ([]byte, error) {
	return collab.EncodeEnvelope(env)
}

// DecodeEnvelope parses a wire envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	return collab.DecodeEnvelope(data)
}

// Document returns the root element. Callers must not mutate the tree
// directly; edits go through operations.
func (e *Engine) Document() *doc.ElementNode {
	return e.model.Document()
}

// SetDocument replaces the document root. Intended for loading; history is
// not consulted, so call it before editing begins.
func (e *Engine) SetDocument(root *doc.ElementNode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model.SetDocument(root)
	_ = e.bus.Publish(events.TopicDocumentReplaced, events.DocumentReplaced{})
}

// Model returns the underlying document model.
func (e *Engine) Model() *doc.Model {
	return e.model
}

// NewTextNode creates a text leaf with a fresh id.
func (e *Engine) NewTextNode(text string, marks ...Mark) *TextNode {
	return e.model.NewTextNode(text, marks...)
}

// NewElementNode creates an element with a fresh id.
func (e *Engine) NewElementNode(typ string, attrs map[string]any, children ...Node) *ElementNode {
	return e.model.NewElementNode(typ, attrs, children...)
}

// AppendChild appends a node to the document root. Intended for initial
// document construction; collaborative edits use InsertNode operations.
func (e *Engine) AppendChild(n Node) {
	e.model.AppendChild(n)
}

// NodeAt resolves a path to a node.
func (e *Engine) NodeAt(p Path) (Node, bool) {
	n := address.NodeAt(e.model, p)
	if n == nil {
		return nil, false
	}
	return n, true
}

// FindNodeByID searches the tree for a node by id.
func (e *Engine) FindNodeByID(id NodeID) (Node, bool) {
	return e.model.FindNodeByID(id)
}

// TextAt returns the text of the leaf at p.
func (e *Engine) TextAt(p Path) (string, error) {
	n := address.NodeAt(e.model, p)
	if n == nil {
		return "", ErrNodeNotFound
	}
	leaf, ok := n.(*doc.TextNode)
	if !ok {
		return "", ErrNotText
	}
	return leaf.Text, nil
}

// CanUndo reports whether an undo batch is available.
func (e *Engine) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo reports whether a redo batch is available.
func (e *Engine) CanRedo() bool { return e.hist.CanRedo() }

// UndoCount returns the undo stack depth.
func (e *Engine) UndoCount() int { return e.hist.UndoCount() }

// RedoCount returns the redo stack depth.
func (e *Engine) RedoCount() int { return e.hist.RedoCount() }

// PeekUndo describes the batch Undo would revert.
func (e *Engine) PeekUndo() (BatchInfo, bool) { return e.hist.PeekUndo() }

// PeekRedo describes the batch Redo would re-apply.
func (e *Engine) PeekRedo() (BatchInfo, bool) { return e.hist.PeekRedo() }

// SetMaxUndoEntries adjusts the undo stack bound at runtime, evicting the
// oldest batches if the stack is over the new bound.
func (e *Engine) SetMaxUndoEntries(max int) {
	e.hist.SetMaxEntries(max)
}

// Revision returns the number of envelopes integrated so far.
func (e *Engine) Revision() uint64 { return e.collab.Revision() }

// Origin returns this replica's identity.
func (e *Engine) Origin() string { return e.collab.Origin() }

// PendingCount returns the number of queued future envelopes.
func (e *Engine) PendingCount() int { return e.collab.PendingCount() }

// Bus returns the engine's event bus.
func (e *Engine) Bus() *event.Bus { return e.bus }

// ReadOnly reports whether the engine rejects local mutations.
func (e *Engine) ReadOnly() bool { return e.readOnly }
