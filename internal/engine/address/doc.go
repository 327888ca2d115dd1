// Package address converts between node references and ordinal index paths
// from the document root. Operations use paths to locate their targets
// without holding node references, so the tree never needs parent
// back-pointers.
//
// A Path is valid only against the tree state it was computed from: any
// earlier sibling-count change invalidates it. Callers resolving a batch of
// operations must recompute paths against the model as it exists immediately
// before each apply.
//
// Ranges are unordered anchor/focus pairs; start and end are derived on
// demand by document-order comparison. The PointRef serialized form lets a
// selection survive a whole-tree replacement, where node identities may be
// recreated.
package address
