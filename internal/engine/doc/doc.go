// Package doc provides the document model: a tree of element and text nodes
// that all editing operations mutate. It serves as the single source of truth
// for document content in the engine.
//
// The doc package provides:
//
//   - A closed node vocabulary: TextNode leaves and ElementNode containers
//   - Formatting marks attached to text nodes (at most one per mark type)
//   - Factory methods that centralize node id assignment
//   - Depth-first tree queries by id and by element type
//   - Whole-tree get/replace for loading and collaboration snapshots
//   - Grapheme-aware text boundary helpers
//
// Nodes are created only through Model factories so that every node carries a
// process-unique id. Ids are the only stable handle across mutations; index
// paths (see the address package) are valid only against a specific tree
// state. Ownership follows containment: a node spliced out of its parent's
// children is gone, there is no explicit free step.
//
// Basic usage:
//
//	m := doc.NewModel()
//	para := m.NewElementNode("paragraph", nil, m.NewTextNode("Hello world"))
//	m.AppendChild(para)
//
//	if n, ok := m.FindNodeByID(para.ID); ok {
//	    // ...
//	}
//
// The model performs no validation on its own; keeping the tree well-formed
// is the apply engine's responsibility (see the op package).
package doc
