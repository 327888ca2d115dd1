package collab

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/docstorm/internal/engine/history"
	"github.com/dshills/docstorm/internal/engine/op"
)

// DefaultOpLogCap is the default maximum number of applied operations kept
// for transforming late arrivals.
const DefaultOpLogCap = 100

// EmitFunc receives envelopes for broadcast to other replicas.
type EmitFunc func(*Envelope)

// Option configures a Collab.
type Option func(*Collab)

// WithOrigin sets the replica's origin id. Defaults to a fresh UUID.
func WithOrigin(origin string) Option {
	return func(c *Collab) {
		c.origin = origin
	}
}

// WithEmitFunc sets the broadcast function for locally produced envelopes.
func WithEmitFunc(emit EmitFunc) Option {
	return func(c *Collab) {
		c.emit = emit
	}
}

// WithOpLogCap bounds the operation log used to transform late arrivals.
func WithOpLogCap(cap int) Option {
	return func(c *Collab) {
		if cap > 0 {
			c.logCap = cap
		}
	}
}

// logEntry is one applied operation, tagged with the revision it was
// produced against and the origin that authored it.
type logEntry struct {
	origin   string
	revision uint64
	op       op.Operation
}

// Collab is the collaborative history manager for one replica. All edits,
// local and remote, must flow through it; it owns revision numbering for
// the replica.
type Collab struct {
	mu   sync.Mutex
	hist *history.History

	origin   string
	revision uint64

	// Applied operations, oldest first. Capped at logCap envelopes;
	// logFloor is the oldest revision late arrivals can still be
	// transformed from.
	log      []logEntry
	logCap   int
	logFloor uint64

	// Remote envelopes from the future, sorted by revision.
	pending []*Envelope

	emit EmitFunc
}

// New creates a collaboration manager over a history.
func New(hist *history.History, opts ...Option) *Collab {
	c := &Collab{
		hist:   hist,
		origin: uuid.NewString(),
		logCap: DefaultOpLogCap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Origin returns the replica's origin id.
func (c *Collab) Origin() string {
	return c.origin
}

// Revision returns the replica's current revision.
func (c *Collab) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// History returns the underlying undo history.
func (c *Collab) History() *history.History {
	return c.hist
}

// PendingCount returns the number of queued future envelopes.
func (c *Collab) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ApplyLocalOperation applies o through the undo history, advances the
// revision, and broadcasts the operation.
func (c *Collab) ApplyLocalOperation(o op.Operation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.hist.ApplyOperation(o); err != nil {
		return err
	}
	c.recordAndEmitLocked([]op.Operation{o})
	return nil
}

// ApplyLocalBatch applies ops through the undo history as one batch named
// name, then broadcasts them composed into a single envelope. A failing
// operation rolls the batch back and nothing is broadcast.
func (c *Collab) ApplyLocalBatch(name string, ops []op.Operation) error {
	_, err := c.Transact(name, func(apply func(op.Operation) error) error {
		for _, o := range ops {
			if err := apply(o); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// Transact runs fn as one named undo batch. fn edits through the apply
// function it is handed; each edit lands on the model immediately, so later
// edits see the updated tree. On success the batch is broadcast composed
// and the composed operations are returned; on failure every edit is
// rolled back and nothing is broadcast.
func (c *Collab) Transact(name string, fn func(apply func(op.Operation) error) error) ([]op.Operation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var applied []op.Operation
	err := c.hist.Transaction(name, func() error {
		return fn(func(o op.Operation) error {
			if err := c.hist.ApplyOperation(o); err != nil {
				return err
			}
			applied = append(applied, o)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(applied) == 0 {
		return nil, nil
	}
	composed := op.Compose(applied)
	c.recordAndEmitLocked(composed)
	return composed, nil
}

// Undo reverts the newest local batch and broadcasts the inverse operations
// as ordinary forward edits, which it returns.
func (c *Collab) Undo() ([]op.Operation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	forward, err := c.hist.Undo()
	if err != nil {
		return nil, err
	}
	composed := op.Compose(forward)
	c.recordAndEmitLocked(composed)
	return composed, nil
}

// Redo re-applies the newest undone batch and broadcasts it, returning the
// operations applied.
func (c *Collab) Redo() ([]op.Operation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	forward, err := c.hist.Redo()
	if err != nil {
		return nil, err
	}
	composed := op.Compose(forward)
	c.recordAndEmitLocked(composed)
	return composed, nil
}

// recordAndEmitLocked logs applied local operations at the current revision,
// advances it, and hands the envelope to the emitter.
func (c *Collab) recordAndEmitLocked(ops []op.Operation) {
	env := &Envelope{Origin: c.origin, Revision: c.revision, Ops: ops}
	c.appendLogLocked(c.origin, c.revision, ops)
	c.revision++
	if c.emit != nil {
		c.emit(env)
	}
}

// appendLogLocked records one envelope's applied operations. The cap counts
// envelopes, not operations, so one large batch cannot flush the log;
// evicting an envelope advances the floor below which late arrivals are
// refused. Entries from the same envelope always evict together.
func (c *Collab) appendLogLocked(origin string, revision uint64, ops []op.Operation) {
	for _, o := range ops {
		c.log = append(c.log, logEntry{origin: origin, revision: revision, op: o})
	}
	for c.logEnvelopesLocked() > c.logCap {
		front := c.log[0].revision
		i := 0
		for i < len(c.log) && c.log[i].revision == front {
			i++
		}
		c.log = c.log[i:]
		c.logFloor = front + 1
	}
}

// logEnvelopesLocked counts the envelopes represented in the log. Entries
// are grouped by the revision they were integrated at.
func (c *Collab) logEnvelopesLocked() int {
	n := 0
	for i, e := range c.log {
		if i == 0 || e.revision != c.log[i-1].revision {
			n++
		}
	}
	return n
}

// ReceiveRemote integrates an envelope from another replica and returns the
// transformed operations that were applied (including any drained from the
// pending queue). Envelopes from this replica's own origin are dropped.
// Future envelopes queue until the revision gap fills; stale envelopes are
// transformed against everything applied since their revision. An operation
// whose transform fails is refused, the rest of the envelope and all local
// editing continue.
func (c *Collab) ReceiveRemote(env *Envelope) ([]op.Operation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if env.Origin == c.origin {
		return nil, nil
	}
	if env.Revision > c.revision {
		c.enqueueLocked(env)
		return nil, nil
	}

	applied, err := c.integrateLocked(env)
	if err != nil {
		return applied, err
	}
	drained, err := c.drainPendingLocked()
	return append(applied, drained...), err
}

// enqueueLocked inserts env into the pending queue, keeping it sorted by
// revision.
func (c *Collab) enqueueLocked(env *Envelope) {
	i := sort.Search(len(c.pending), func(i int) bool {
		return c.pending[i].Revision > env.Revision
	})
	c.pending = append(c.pending, nil)
	copy(c.pending[i+1:], c.pending[i:])
	c.pending[i] = env
}

// drainPendingLocked integrates queued envelopes that have become ready.
func (c *Collab) drainPendingLocked() ([]op.Operation, error) {
	var errs []error
	var applied []op.Operation
	for len(c.pending) > 0 && c.pending[0].Revision <= c.revision {
		env := c.pending[0]
		c.pending = c.pending[1:]
		ops, err := c.integrateLocked(env)
		applied = append(applied, ops...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return applied, errors.Join(errs...)
}

// integrateLocked transforms env against everything applied since its
// revision and applies what survives, returning the applied operations.
// Remote operations do not enter the undo history.
func (c *Collab) integrateLocked(env *Envelope) ([]op.Operation, error) {
	concurrent, err := c.logSinceLocked(env.Revision)
	if err != nil {
		return nil, fmt.Errorf("envelope from %s at revision %d: %w", env.Origin, env.Revision, err)
	}

	var errs []error
	var applied []op.Operation
	for _, o := range env.Ops {
		cur, ok := o, true
		for _, entry := range concurrent {
			// The sender's own earlier operations are causally before
			// this envelope, not concurrent with it; transforming
			// against them would double-shift.
			if entry.origin == env.Origin {
				continue
			}
			// The lower origin keeps the earlier position at exact ties.
			opWins := env.Origin < entry.origin
			cur, ok, err = op.Transform(cur, []op.Operation{entry.op}, opWins)
			if err != nil {
				errs = append(errs, fmt.Errorf("transforming %s op from %s: %w", o.Kind(), env.Origin, err))
				ok = false
				break
			}
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		if err := op.Apply(c.hist.Model(), cur); err != nil {
			errs = append(errs, fmt.Errorf("applying %s op from %s: %w", cur.Kind(), env.Origin, err))
			continue
		}
		applied = append(applied, cur)
	}

	// The surviving operations joined this replica's timeline; later
	// arrivals transform against them like any local edit.
	c.appendLogLocked(env.Origin, c.revision, applied)
	c.revision++
	return applied, errors.Join(errs...)
}

// logSinceLocked returns the applied operations produced at or after
// revision, oldest first. Coverage is decided by the eviction floor, not by
// log contents: a revision can legitimately have no entries when its
// envelope was fully consumed by transformation.
func (c *Collab) logSinceLocked(revision uint64) ([]logEntry, error) {
	if revision < c.logFloor {
		return nil, ErrRevisionTooOld
	}
	i := sort.Search(len(c.log), func(i int) bool {
		return c.log[i].revision >= revision
	})
	return c.log[i:], nil
}
