package events

import "github.com/dshills/docstorm/internal/event/topic"

// Configuration event topics.
const (
	// TopicConfigChanged is published when the configuration file changes
	// on disk and reloads cleanly.
	TopicConfigChanged topic.Topic = "config.changed"

	// TopicConfigError is published when a configuration reload fails; the
	// previous configuration stays in effect.
	TopicConfigError topic.Topic = "config.error"
)

// ConfigChanged is the payload for TopicConfigChanged.
type ConfigChanged struct {
	// Path of the file that changed.
	Path string
}

// ConfigError is the payload for TopicConfigError.
type ConfigError struct {
	Path string
	Err  error
}
