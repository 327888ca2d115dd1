// Package collab synchronizes a document model across replicas using
// operational transformation.
//
// Every replica owns a Collab wrapping its History. Local edits go through
// ApplyLocalOperation or ApplyLocalBatch, which apply via the history,
// advance the replica's revision, and hand an Envelope to the emit function
// for broadcast. Remote envelopes arrive through ReceiveRemote:
//
//   - An envelope produced against the current revision applies directly.
//   - An envelope from the future waits in a revision-ordered queue until
//     the gap fills.
//   - An envelope produced against an older revision is transformed against
//     everything applied since, then applied.
//
// Concurrent insertions at the same position are ordered by origin id: the
// lexicographically lower origin keeps the earlier position on every
// replica, so replicas that have seen the same envelopes converge to the
// same tree.
//
// Remote operations bypass the undo history; undoing a local batch never
// reverts another author's work. Collaborative Undo and Redo broadcast the
// operations they apply as ordinary forward edits.
package collab
