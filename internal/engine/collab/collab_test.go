package collab

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/docstorm/internal/engine/address"
	"github.com/dshills/docstorm/internal/engine/doc"
	"github.com/dshills/docstorm/internal/engine/history"
	"github.com/dshills/docstorm/internal/engine/op"
)

// replica is a Collab with its model and a capture of everything it emits.
type replica struct {
	collab  *Collab
	emitted []*Envelope
}

func newReplica(t *testing.T, origin, text string, opts ...Option) *replica {
	t.Helper()
	m := doc.NewModel(doc.WithIDSource(doc.NewCounterSource()))
	m.AppendChild(m.NewElementNode("paragraph", nil, m.NewTextNode(text)))
	r := &replica{}
	opts = append([]Option{
		WithOrigin(origin),
		WithEmitFunc(func(env *Envelope) { r.emitted = append(r.emitted, env) }),
	}, opts...)
	r.collab = New(history.New(m, 0), opts...)
	return r
}

func (r *replica) text(t *testing.T, path address.Path) string {
	t.Helper()
	tn, ok := address.NodeAt(r.collab.History().Model(), path).(*doc.TextNode)
	if !ok {
		t.Fatalf("no text node at %v", path)
	}
	return tn.Text
}

func TestLocalOperationEmits(t *testing.T) {
	r := newReplica(t, "a", "hi")
	err := r.collab.ApplyLocalOperation(&op.InsertText{Path: address.Path{0, 0}, Offset: 2, Text: "!"})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.emitted) != 1 {
		t.Fatalf("emitted %d envelopes, want 1", len(r.emitted))
	}
	env := r.emitted[0]
	if env.Origin != "a" || env.Revision != 0 || len(env.Ops) != 1 {
		t.Errorf("envelope = %+v", env)
	}
	if r.collab.Revision() != 1 {
		t.Errorf("revision = %d, want 1", r.collab.Revision())
	}
}

func TestOwnEnvelopeIgnored(t *testing.T) {
	r := newReplica(t, "a", "hi")
	_, err := r.collab.ReceiveRemote(&Envelope{
		Origin:   "a",
		Revision: 0,
		Ops:      []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "x"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.text(t, address.Path{0, 0}); got != "hi" {
		t.Errorf("text = %q, own envelope must not apply", got)
	}
	if r.collab.Revision() != 0 {
		t.Errorf("revision = %d, want 0", r.collab.Revision())
	}
}

func TestRemoteAtCurrentRevisionApplies(t *testing.T) {
	r := newReplica(t, "a", "hi")
	_, err := r.collab.ReceiveRemote(&Envelope{
		Origin:   "b",
		Revision: 0,
		Ops:      []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 2, Text: "!"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.text(t, address.Path{0, 0}); got != "hi!" {
		t.Errorf("text = %q", got)
	}
	if r.collab.History().CanUndo() {
		t.Error("remote operations must not enter the undo history")
	}
}

// Envelopes produced at revisions 0, 1, 2 arrive as 1, 2, 0. The first two
// wait in the queue; the third applies and drains them in revision order.
func TestOutOfOrderEnvelopesQueueAndDrain(t *testing.T) {
	r := newReplica(t, "dst", "")
	envs := []*Envelope{
		{Origin: "src", Revision: 0, Ops: []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "a"}}},
		{Origin: "src", Revision: 1, Ops: []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 1, Text: "b"}}},
		{Origin: "src", Revision: 2, Ops: []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 2, Text: "c"}}},
	}

	if _, err := r.collab.ReceiveRemote(envs[1]); err != nil {
		t.Fatal(err)
	}
	if _, err := r.collab.ReceiveRemote(envs[2]); err != nil {
		t.Fatal(err)
	}
	if r.collab.PendingCount() != 2 {
		t.Fatalf("pending = %d, want 2", r.collab.PendingCount())
	}
	if got := r.text(t, address.Path{0, 0}); got != "" {
		t.Fatalf("text = %q before the gap filled", got)
	}

	if _, err := r.collab.ReceiveRemote(envs[0]); err != nil {
		t.Fatal(err)
	}
	if got := r.text(t, address.Path{0, 0}); got != "abc" {
		t.Errorf("text = %q, want %q", got, "abc")
	}
	if r.collab.PendingCount() != 0 {
		t.Errorf("pending = %d, want 0", r.collab.PendingCount())
	}
	if r.collab.Revision() != 3 {
		t.Errorf("revision = %d, want 3", r.collab.Revision())
	}
}

// Two replicas insert at the same position concurrently and exchange
// envelopes. Both converge, with the lower origin's text first.
func TestConcurrentInsertsConverge(t *testing.T) {
	ra := newReplica(t, "a", "base")
	rb := newReplica(t, "b", "base")

	if err := ra.collab.ApplyLocalOperation(&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "A"}); err != nil {
		t.Fatal(err)
	}
	if err := rb.collab.ApplyLocalOperation(&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "B"}); err != nil {
		t.Fatal(err)
	}

	if _, err := ra.collab.ReceiveRemote(rb.emitted[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := rb.collab.ReceiveRemote(ra.emitted[0]); err != nil {
		t.Fatal(err)
	}

	ta := ra.text(t, address.Path{0, 0})
	tb := rb.text(t, address.Path{0, 0})
	if ta != tb {
		t.Fatalf("replicas diverged: %q vs %q", ta, tb)
	}
	if ta != "ABbase" {
		t.Errorf("converged text = %q, want %q", ta, "ABbase")
	}
}

func TestStaleEnvelopeTransformed(t *testing.T) {
	r := newReplica(t, "a", "hello")

	// Local edit advances to revision 1.
	if err := r.collab.ApplyLocalOperation(&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: ">> "}); err != nil {
		t.Fatal(err)
	}

	// Remote op produced against revision 0 targets the old offsets.
	_, err := r.collab.ReceiveRemote(&Envelope{
		Origin:   "b",
		Revision: 0,
		Ops:      []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 5, Text: "!"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.text(t, address.Path{0, 0}); got != ">> hello!" {
		t.Errorf("text = %q, want %q", got, ">> hello!")
	}
}

func TestRemoteOpOnRemovedNodeDropped(t *testing.T) {
	r := newReplica(t, "a", "hello")
	if err := r.collab.ApplyLocalOperation(&op.RemoveNode{Path: address.Path{}, Index: 0}); err != nil {
		t.Fatal(err)
	}

	_, err := r.collab.ReceiveRemote(&Envelope{
		Origin:   "b",
		Revision: 0,
		Ops:      []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "x"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.collab.History().Model().Document().Children) != 0 {
		t.Error("consumed remote op must not resurrect the node")
	}
	if r.collab.Revision() != 2 {
		t.Errorf("revision = %d, want 2", r.collab.Revision())
	}
}

func TestUndoBroadcastsForwardOps(t *testing.T) {
	r := newReplica(t, "a", "hello")
	if err := r.collab.ApplyLocalOperation(&op.InsertText{Path: address.Path{0, 0}, Offset: 5, Text: " world"}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.collab.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := r.text(t, address.Path{0, 0}); got != "hello" {
		t.Fatalf("text = %q after undo", got)
	}
	if len(r.emitted) != 2 {
		t.Fatalf("emitted %d envelopes, want 2", len(r.emitted))
	}
	env := r.emitted[1]
	if env.Revision != 1 {
		t.Errorf("undo envelope revision = %d, want 1", env.Revision)
	}
	del, ok := env.Ops[0].(*op.DeleteText)
	if !ok || del.Offset != 5 || del.Text != " world" {
		t.Errorf("undo envelope op = %#v", env.Ops[0])
	}

	if _, err := r.collab.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := r.text(t, address.Path{0, 0}); got != "hello world" {
		t.Errorf("text = %q after redo", got)
	}
	if len(r.emitted) != 3 {
		t.Errorf("emitted %d envelopes, want 3", len(r.emitted))
	}
}

func TestRevisionTooOld(t *testing.T) {
	r := newReplica(t, "a", "", WithOpLogCap(1))
	for i := 0; i < 3; i++ {
		if err := r.collab.ApplyLocalOperation(&op.InsertText{Path: address.Path{0, 0}, Offset: i, Text: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	_, err := r.collab.ReceiveRemote(&Envelope{
		Origin:   "b",
		Revision: 1,
		Ops:      []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "y"}},
	})
	if !errors.Is(err, ErrRevisionTooOld) {
		t.Errorf("err = %v, want ErrRevisionTooOld", err)
	}
	// Local editing continues.
	if err := r.collab.ApplyLocalOperation(&op.InsertText{Path: address.Path{0, 0}, Offset: 3, Text: "z"}); err != nil {
		t.Fatal(err)
	}
}

func TestLocalBatchComposedIntoOneEnvelope(t *testing.T) {
	r := newReplica(t, "a", "")
	err := r.collab.ApplyLocalBatch("type hey", []op.Operation{
		&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "h"},
		&op.InsertText{Path: address.Path{0, 0}, Offset: 1, Text: "e"},
		&op.InsertText{Path: address.Path{0, 0}, Offset: 2, Text: "y"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.emitted) != 1 {
		t.Fatalf("emitted %d envelopes, want 1", len(r.emitted))
	}
	want := []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "hey"}}
	if diff := cmp.Diff(want, r.emitted[0].Ops); diff != "" {
		t.Errorf("envelope ops (-want +got):\n%s", diff)
	}
	if r.collab.History().UndoCount() != 1 {
		t.Errorf("UndoCount = %d, want 1", r.collab.History().UndoCount())
	}
}

func TestFailedBatchEmitsNothing(t *testing.T) {
	r := newReplica(t, "a", "hi")
	err := r.collab.ApplyLocalBatch("bad", []op.Operation{
		&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "x"},
		&op.InsertText{Path: address.Path{0, 0}, Offset: 99, Text: "y"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(r.emitted) != 0 {
		t.Error("failed batch must not be broadcast")
	}
	if got := r.text(t, address.Path{0, 0}); got != "hi" {
		t.Errorf("text = %q, rollback failed", got)
	}
	if r.collab.Revision() != 0 {
		t.Errorf("revision = %d, want 0", r.collab.Revision())
	}
}

func TestEnvelopeCodecRoundTrip(t *testing.T) {
	env := &Envelope{
		Origin:   "replica-1",
		Revision: 42,
		Ops: []op.Operation{
			&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "hi"},
			&op.ApplyMark{Path: address.Path{0, 0}, Mark: doc.Mark{Type: doc.MarkBold}, Start: 0, End: 2},
		},
	}
	data, err := EncodeEnvelope(env)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(env, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		`[]`,
		`{"revision":1,"ops":[]}`,
		`{"origin":"a","ops":[]}`,
		`{"origin":"a","revision":1}`,
	} {
		if _, err := DecodeEnvelope([]byte(raw)); !errors.Is(err, ErrBadEnvelope) {
			t.Errorf("DecodeEnvelope(%s) err = %v, want ErrBadEnvelope", raw, err)
		}
	}
}

func TestSequentialEnvelopesFromOneOriginConverge(t *testing.T) {
	ra := newReplica(t, "a", "xyz")
	rb := newReplica(t, "b", "xyz")

	// A run of typing from a: each insert was produced against a tree
	// already containing the previous ones.
	for i, s := range []string{"0", "1", "2", "3", "4"} {
		if err := ra.collab.ApplyLocalOperation(&op.InsertText{Path: address.Path{0, 0}, Offset: i, Text: s}); err != nil {
			t.Fatal(err)
		}
	}
	// One concurrent edit on b.
	if err := rb.collab.ApplyLocalOperation(&op.InsertText{Path: address.Path{0, 0}, Offset: 3, Text: "!"}); err != nil {
		t.Fatal(err)
	}

	for _, env := range ra.emitted {
		if _, err := rb.collab.ReceiveRemote(env); err != nil {
			t.Fatal(err)
		}
	}
	for _, env := range rb.emitted {
		if _, err := ra.collab.ReceiveRemote(env); err != nil {
			t.Fatal(err)
		}
	}

	ta := ra.text(t, address.Path{0, 0})
	tb := rb.text(t, address.Path{0, 0})
	if ta != tb {
		t.Fatalf("replicas diverged: %q vs %q", ta, tb)
	}
	// a's inserts must not be re-shifted by a's own earlier entries in
	// b's log.
	if ta != "01234xyz!" {
		t.Errorf("converged text = %q, want %q", ta, "01234xyz!")
	}
}

func TestConsumedEnvelopeKeepsRevisionCovered(t *testing.T) {
	r := newReplica(t, "a", "hello")

	// Revision 0: the paragraph goes away.
	if _, err := r.collab.ReceiveRemote(&Envelope{
		Origin:   "b",
		Revision: 0,
		Ops:      []op.Operation{&op.RemoveNode{Path: address.Path{}, Index: 0}},
	}); err != nil {
		t.Fatal(err)
	}
	// Revision 1 applies nothing: the op targets the removed node. The
	// revision still advances, leaving a gap in the log.
	if _, err := r.collab.ReceiveRemote(&Envelope{
		Origin:   "c",
		Revision: 0,
		Ops:      []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "x"}},
	}); err != nil {
		t.Fatal(err)
	}
	if r.collab.Revision() != 2 {
		t.Fatalf("revision = %d, want 2", r.collab.Revision())
	}

	// An envelope from the gap revision has nothing to transform against
	// and must integrate, not be refused as too old.
	applied, err := r.collab.ReceiveRemote(&Envelope{
		Origin:   "d",
		Revision: 1,
		Ops: []op.Operation{&op.InsertNode{
			Path:  address.Path{},
			Index: 0,
			Node:  &doc.ElementNode{ID: "p9", Type: "paragraph"},
		}},
	})
	if err != nil {
		t.Fatalf("gap-revision envelope refused: %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("applied %d ops, want 1", len(applied))
	}
	if len(r.collab.History().Model().Document().Children) != 1 {
		t.Error("inserted paragraph missing")
	}
}

func TestOpLogCapCountsEnvelopes(t *testing.T) {
	r := newReplica(t, "a", "q", WithOpLogCap(2))
	m := r.collab.History().Model()
	m.AppendChild(m.NewElementNode("paragraph", nil, m.NewTextNode("r")))
	m.AppendChild(m.NewElementNode("paragraph", nil, m.NewTextNode("s")))

	// One envelope holding three non-composable operations.
	err := r.collab.ApplyLocalBatch("triple", []op.Operation{
		&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "X"},
		&op.InsertText{Path: address.Path{1, 0}, Offset: 0, Text: "X"},
		&op.InsertText{Path: address.Path{2, 0}, Offset: 0, Text: "X"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// All three entries must survive: the cap counts envelopes, so a
	// stale arrival still transforms against the whole batch.
	if _, err := r.collab.ReceiveRemote(&Envelope{
		Origin:   "b",
		Revision: 0,
		Ops:      []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "Y"}},
	}); err != nil {
		t.Fatal(err)
	}
	if got := r.text(t, address.Path{0, 0}); got != "XYq" {
		t.Errorf("text = %q, want %q", got, "XYq")
	}

	// Two more envelopes push the batch past the cap; only then does its
	// revision fall below the floor.
	for i := 0; i < 2; i++ {
		if err := r.collab.ApplyLocalOperation(&op.InsertText{Path: address.Path{2, 0}, Offset: 0, Text: "z"}); err != nil {
			t.Fatal(err)
		}
	}
	_, err = r.collab.ReceiveRemote(&Envelope{
		Origin:   "c",
		Revision: 0,
		Ops:      []op.Operation{&op.InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "w"}},
	})
	if !errors.Is(err, ErrRevisionTooOld) {
		t.Errorf("err = %v, want ErrRevisionTooOld", err)
	}
}
