package history

import (
	"time"

	"github.com/dshills/docstorm/internal/engine/op"
)

// Batch is a group of operations undone and redone as a single unit. The
// operations are stored as applied, so every inverse-bearing field has been
// back-filled and the batch can be inverted without consulting the document.
type Batch struct {
	Name string
	Ops  []op.Operation
}

// Inverse returns the operations that undo the batch, in application order.
func (b *Batch) Inverse() ([]op.Operation, error) {
	out := make([]op.Operation, 0, len(b.Ops))
	for i := len(b.Ops) - 1; i >= 0; i-- {
		inv, err := op.Invert(b.Ops[i])
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

// BatchInfo describes a recorded batch without exposing its operations.
type BatchInfo struct {
	Name      string
	Size      int
	Timestamp time.Time
}
