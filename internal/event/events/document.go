package events

import (
	"github.com/dshills/docstorm/internal/engine/op"
	"github.com/dshills/docstorm/internal/event/topic"
)

// Document event topics.
const (
	// TopicDocumentChanged is published after operations mutate the tree.
	TopicDocumentChanged topic.Topic = "document.changed"

	// TopicDocumentUndone is published after an undo batch is applied.
	TopicDocumentUndone topic.Topic = "document.undone"

	// TopicDocumentRedone is published after a redo batch is applied.
	TopicDocumentRedone topic.Topic = "document.redone"

	// TopicDocumentReplaced is published when the whole root is swapped,
	// as when loading a document.
	TopicDocumentReplaced topic.Topic = "document.replaced"
)

// ChangeSource identifies what produced a document change.
type ChangeSource string

// Change sources.
const (
	SourceLocal  ChangeSource = "local"
	SourceRemote ChangeSource = "remote"
	SourceUndo   ChangeSource = "undo"
	SourceRedo   ChangeSource = "redo"
)

// DocumentChanged is the payload for TopicDocumentChanged.
type DocumentChanged struct {
	// Ops that were applied, in application order, with inverse-bearing
	// fields filled in. Subscribers must not mutate them.
	Ops []op.Operation

	// Source of the change.
	Source ChangeSource

	// BatchName is the undo batch name, empty for single operations and
	// remote changes.
	BatchName string
}

// HistoryChanged is the payload for TopicDocumentUndone and
// TopicDocumentRedone.
type HistoryChanged struct {
	// Ops applied to carry out the undo or redo, in application order.
	Ops []op.Operation
}

// DocumentReplaced is the payload for TopicDocumentReplaced. Subscribers
// holding paths or point refs must re-resolve them.
type DocumentReplaced struct{}
