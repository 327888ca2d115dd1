// Package op defines the closed operation vocabulary that mutates the
// document model, together with the engines that give operations their
// semantics:
//
//   - Apply: deterministic in-place mutation, back-filling the fields an
//     inverse needs (deleted text, removed nodes, prior property values,
//     merge split points)
//   - Invert: derive the exact undoing operation from an applied one
//   - Compose: collapse adjacent compatible operations before hand-off to
//     a transport
//   - Transform: rewrite an operation's addressing so it preserves its
//     intent after concurrent operations changed the tree shape it was
//     written against
//   - Codec: JSON encoding for the default transport boundary
//
// The vocabulary is a closed ten-kind tagged union. Every engine dispatches
// with an exhaustive type switch, so adding a kind is a compile-visible
// change everywhere it matters.
//
// Path convention: Path addresses the parent for node-level operations
// (InsertNode, RemoveNode) and the node itself for text, mark, and
// structural operations.
//
// A failed apply leaves the model state for that operation undefined.
// Callers running batches must stop at the first failure.
package op
