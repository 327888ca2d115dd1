package collab

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/docstorm/internal/engine/op"
)

// Envelope wraps a batch of operations with the metadata a replica needs to
// order and transform them.
type Envelope struct {
	// Origin identifies the authoring replica. Replicas drop their own
	// envelopes on receipt, and ties between concurrent insertions resolve
	// toward the lexicographically lower origin.
	Origin string

	// Revision the operations were produced against. A replica at the same
	// revision applies them directly.
	Revision uint64

	// Ops in application order.
	Ops []op.Operation
}

// EncodeEnvelope renders an envelope as JSON.
func EncodeEnvelope(env *Envelope) ([]byte, error) {
	ops, err := op.EncodeBatch(env.Ops)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope ops: %w", err)
	}
	out := []byte(`{}`)
	if out, err = sjson.SetBytes(out, "origin", env.Origin); err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "revision", env.Revision); err != nil {
		return nil, err
	}
	if out, err = sjson.SetRawBytes(out, "ops", ops); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeEnvelope parses a JSON envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("%w: not an object", ErrBadEnvelope)
	}
	origin := parsed.Get("origin")
	if origin.Type != gjson.String || origin.String() == "" {
		return nil, fmt.Errorf("%w: missing origin", ErrBadEnvelope)
	}
	revision := parsed.Get("revision")
	if revision.Type != gjson.Number {
		return nil, fmt.Errorf("%w: missing revision", ErrBadEnvelope)
	}
	opsRaw := parsed.Get("ops")
	if !opsRaw.IsArray() {
		return nil, fmt.Errorf("%w: missing ops", ErrBadEnvelope)
	}
	ops, err := op.DecodeBatch([]byte(opsRaw.Raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	return &Envelope{
		Origin:   origin.String(),
		Revision: revision.Uint(),
		Ops:      ops,
	}, nil
}
