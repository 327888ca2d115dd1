package history

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/docstorm/internal/engine/doc"
	"github.com/dshills/docstorm/internal/engine/op"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// undoEntry wraps a batch with metadata.
type undoEntry struct {
	batch     *Batch
	timestamp time.Time
}

// History manages undo/redo state for a document model. All edits that
// should be undoable must flow through ApplyOperation; operations applied to
// the model directly are invisible to the history.
type History struct {
	mu    sync.Mutex
	model *doc.Model

	undoStack []*undoEntry
	redoStack []*undoEntry

	// Open batch collecting operations, nil when none.
	open *Batch

	maxEntries int
}

// New creates a history manager bound to a model.
func New(model *doc.Model, maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = 1000 // Default
	}
	return &History{
		model:      model,
		maxEntries: maxEntries,
	}
}

// Model returns the model the history mutates.
func (h *History) Model() *doc.Model {
	return h.model
}

// ApplyOperation applies o to the model and records it for undo. The
// operation is recorded as applied, with its inverse-bearing fields filled
// in. A successful apply clears the redo stack.
func (h *History) ApplyOperation(o op.Operation) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := op.Apply(h.model, o); err != nil {
		return err
	}
	h.redoStack = nil

	if h.open != nil {
		h.open.Ops = append(h.open.Ops, o)
		return nil
	}
	h.pushLocked(&Batch{Ops: []op.Operation{o}})
	return nil
}

// pushLocked adds a batch to the undo stack without acquiring the lock.
func (h *History) pushLocked(b *Batch) {
	h.undoStack = append(h.undoStack, &undoEntry{
		batch:     b,
		timestamp: time.Now(),
	})

	// Enforce max entries
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// StartBatch opens a batch; subsequent ApplyOperation calls join it until
// EndBatch. Starting while a batch is open closes the previous one first.
func (h *History) StartBatch(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.endBatchLocked()
	h.open = &Batch{Name: name}
}

// EndBatch closes the open batch and records it as one undo unit. An empty
// batch is discarded. No-op when no batch is open.
func (h *History) EndBatch() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.endBatchLocked()
}

func (h *History) endBatchLocked() {
	if h.open == nil {
		return
	}
	b := h.open
	h.open = nil
	if len(b.Ops) == 0 {
		return
	}
	h.pushLocked(b)
}

// InBatch returns true if a batch is currently open.
func (h *History) InBatch() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open != nil
}

// Undo reverts the newest batch and moves it to the redo stack. It returns
// the inverse operations it applied, in application order, so callers can
// forward them as ordinary edits. An open batch is closed first.
//
// A failing inverse puts the batch back and returns the error; the model may
// then be partially reverted, which only happens when it was mutated behind
// the history's back.
func (h *History) Undo() ([]op.Operation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.endBatchLocked()
	if len(h.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}

	entry := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]

	applied, err := h.applyInverseLocked(entry.batch)
	if err != nil {
		h.undoStack = append(h.undoStack, entry)
		return nil, fmt.Errorf("undo %q: %w", entry.batch.Name, err)
	}

	h.redoStack = append(h.redoStack, entry)
	return applied, nil
}

// Redo re-applies the newest undone batch. It returns the operations it
// applied, in application order.
func (h *History) Redo() ([]op.Operation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}

	entry := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]

	applied := make([]op.Operation, 0, len(entry.batch.Ops))
	for i, o := range entry.batch.Ops {
		if err := op.Apply(h.model, o); err != nil {
			h.redoStack = append(h.redoStack, entry)
			return nil, fmt.Errorf("redo %q op %d: %w", entry.batch.Name, i, err)
		}
		applied = append(applied, o)
	}

	h.undoStack = append(h.undoStack, entry)
	return applied, nil
}

func (h *History) applyInverseLocked(b *Batch) ([]op.Operation, error) {
	inverses, err := b.Inverse()
	if err != nil {
		return nil, err
	}
	for i, inv := range inverses {
		if err := op.Apply(h.model, inv); err != nil {
			return nil, fmt.Errorf("inverse op %d: %w", i, err)
		}
	}
	return inverses, nil
}

// Transaction runs fn inside a batch named name. On success the batch is
// recorded as one undo unit. On failure every operation fn applied is rolled
// back and discarded, and the model and both stacks are as they were.
func (h *History) Transaction(name string, fn func() error) error {
	h.StartBatch(name)

	if err := fn(); err != nil {
		if rbErr := h.rollbackOpen(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	h.EndBatch()
	return nil
}

// rollbackOpen reverts and discards the open batch without touching the
// stacks.
func (h *History) rollbackOpen() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open == nil {
		return nil
	}
	b := h.open
	h.open = nil
	if len(b.Ops) == 0 {
		return nil
	}
	if _, err := h.applyInverseLocked(b); err != nil {
		return fmt.Errorf("rolling back %q: %w", b.Name, err)
	}
	return nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0 || (h.open != nil && len(h.open.Ops) > 0)
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo batches available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo batches available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// PeekUndo returns info about the next undo batch without removing it.
func (h *History) PeekUndo() (BatchInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return BatchInfo{}, false
	}
	entry := h.undoStack[len(h.undoStack)-1]
	return BatchInfo{
		Name:      entry.batch.Name,
		Size:      len(entry.batch.Ops),
		Timestamp: entry.timestamp,
	}, true
}

// PeekRedo returns info about the next redo batch without removing it.
func (h *History) PeekRedo() (BatchInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return BatchInfo{}, false
	}
	entry := h.redoStack[len(h.redoStack)-1]
	return BatchInfo{
		Name:      entry.batch.Name,
		Size:      len(entry.batch.Ops),
		Timestamp: entry.timestamp,
	}, true
}

// Clear removes all undo/redo history and abandons any open batch.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.open = nil
}

// SetMaxEntries changes the maximum number of undo batches. If the current
// stack is larger, oldest batches are removed.
func (h *History) SetMaxEntries(max int) {
	if max <= 0 {
		max = 1000
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = max
	if len(h.undoStack) > max {
		excess := len(h.undoStack) - max
		h.undoStack = h.undoStack[excess:]
	}
}

// MaxEntries returns the maximum number of undo batches.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
