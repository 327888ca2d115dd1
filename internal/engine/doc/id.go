package doc

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDSource produces node ids. Implementations must never return the same id
// twice within a process.
type IDSource interface {
	NextID() NodeID
}

// CounterSource issues monotonically increasing numeric ids. It is the
// default source: cheap, ordered, and stable for tests.
type CounterSource struct {
	next atomic.Uint64
}

// NewCounterSource creates a counter source starting at 1.
func NewCounterSource() *CounterSource {
	return &CounterSource{}
}

// NextID returns the next counter id.
func (c *CounterSource) NextID() NodeID {
	return NodeID("n" + strconv.FormatUint(c.next.Add(1), 10))
}

// UUIDSource issues random UUID ids. Use it when nodes from multiple
// processes may end up in the same document.
type UUIDSource struct{}

// NextID returns a fresh UUID id.
func (UUIDSource) NextID() NodeID {
	return NodeID(uuid.NewString())
}
