package events

import "github.com/dshills/docstorm/internal/event/topic"

// Collaboration event topics.
const (
	// TopicCollabEmitted is published when a local envelope is handed to
	// the broadcast function.
	TopicCollabEmitted topic.Topic = "collab.local.emitted"

	// TopicCollabApplied is published after a remote envelope is
	// integrated.
	TopicCollabApplied topic.Topic = "collab.remote.applied"

	// TopicCollabQueued is published when a remote envelope from a future
	// revision is queued.
	TopicCollabQueued topic.Topic = "collab.remote.queued"
)

// CollabEmitted is the payload for TopicCollabEmitted.
type CollabEmitted struct {
	Origin   string
	Revision uint64
	OpCount  int
}

// CollabApplied is the payload for TopicCollabApplied.
type CollabApplied struct {
	Origin   string
	Revision uint64

	// Applied is the number of operations that survived transformation.
	Applied int
}

// CollabQueued is the payload for TopicCollabQueued.
type CollabQueued struct {
	Origin   string
	Revision uint64

	// Pending is the queue depth after enqueueing.
	Pending int
}
