// Package engine provides the core document engine for Docstorm.
//
// The engine package serves as the main facade, combining the tree document
// model, invertible operations, undo/redo history, and the collaboration
// layer into a unified, thread-safe API suitable for building rich document
// editors.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - doc: the document tree model (element nodes, text leaves, marks)
//   - address: child-index paths and grapheme-aware positions
//   - op: the ten invertible operation kinds with apply, invert, compose,
//     transform, and a JSON wire codec
//   - history: batch-based undo/redo over the operation log
//   - collab: revision-stamped envelopes and operational transformation
//     for concurrent replicas
//
// # Thread Safety
//
// All Engine operations are thread-safe. Mutations are serialized so that
// subscribers observe document events in application order.
//
// # Basic Usage
//
// Create an engine and edit the document:
//
//	e := engine.New()
//	para := e.NewElementNode("paragraph", nil, e.NewTextNode("hello"))
//	e.AppendChild(para)
//
//	// Type at the end of the text leaf
//	e.Apply(&engine.InsertText{Path: engine.Path{0, 0}, Offset: 5, Text: "!"})
//
//	// Undo it
//	e.Undo()
//
// # Collaboration
//
// Wire two engines together by exchanging envelopes:
//
//	a := engine.New(engine.WithOrigin("a"), engine.WithEmitFunc(sendToB))
//	b := engine.New(engine.WithOrigin("b"), engine.WithEmitFunc(sendToA))
//
//	// sendToB delivers each envelope to b.ReceiveRemote and vice versa.
//	// Concurrent edits are transformed so both replicas converge.
//
// # Events
//
// Subscribe to document changes through the engine's bus:
//
//	e.Bus().SubscribeFunc(events.TopicDocumentChanged, func(tp topic.Topic, payload any) error {
//		change := payload.(events.DocumentChanged)
//		render(change.Ops)
//		return nil
//	})
package engine
