// Package history provides undo/redo functionality for the document engine.
//
// Every edit reaches the document as an invertible operation. The history
// records the operations it applies, and undo replays their inverses in
// reverse order. Key concepts:
//
// # Batches
//
// A Batch groups operations into a single undo unit. Related edits, a
// character of typing together with the split it caused, or every edit a
// macro makes, collapse to one Ctrl+Z:
//
//	hist.StartBatch("insert paragraph")
//	hist.ApplyOperation(op1)
//	hist.ApplyOperation(op2)
//	hist.EndBatch()
//
// Operations applied outside an open batch become single-operation batches.
//
// # Undo and Redo
//
// Undo pops the newest batch, applies the inverse of each operation in
// reverse order, and moves the batch to the redo stack. Redo re-applies the
// batch forward. Any new edit clears the redo stack:
//
//	hist := history.New(model, 1000) // Max 1000 undo entries
//	hist.ApplyOperation(op)
//	forward, err := hist.Undo()
//	forward, err = hist.Redo()
//
// Undo and Redo return the operations they applied so a collaboration layer
// can broadcast them as ordinary forward edits.
//
// # Transactions
//
// Transaction runs a function inside a batch and rolls its edits back if the
// function fails, leaving the document and both stacks untouched.
package history
