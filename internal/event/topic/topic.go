// Package topic defines hierarchical event topics and pattern matching.
package topic

import "strings"

// Topic represents a hierarchical event type using dot notation.
// Examples: "document.changed", "collab.remote.applied", "config.changed"
type Topic string

// Wildcard constants for pattern matching.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	// Separator is the character used to separate topic segments.
	Separator = "."
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// Parent returns the parent topic by removing the last segment.
// Returns an empty topic if there is no parent.
func (t Topic) Parent() Topic {
	s := string(t)
	idx := strings.LastIndex(s, Separator)
	if idx < 0 {
		return ""
	}
	return Topic(s[:idx])
}

// Child returns a child topic by appending a segment.
func (t Topic) Child(segment string) Topic {
	if t == "" {
		return Topic(segment)
	}
	return Topic(string(t) + Separator + segment)
}

// HasWildcard returns true if the topic contains wildcard segments.
func (t Topic) HasWildcard() bool {
	for _, seg := range t.Segments() {
		if seg == WildcardSingle || seg == WildcardMulti {
			return true
		}
	}
	return false
}

// Matches reports whether the concrete topic other matches pattern t.
// "*" matches one segment, "**" matches zero or more.
func (t Topic) Matches(other Topic) bool {
	return matchSegments(t.Segments(), other.Segments())
}

func matchSegments(pattern, concrete []string) bool {
	if len(pattern) == 0 {
		return len(concrete) == 0
	}
	switch pattern[0] {
	case WildcardMulti:
		// Try consuming zero segments, then one, and so on.
		for i := 0; i <= len(concrete); i++ {
			if matchSegments(pattern[1:], concrete[i:]) {
				return true
			}
		}
		return false
	case WildcardSingle:
		if len(concrete) == 0 {
			return false
		}
		return matchSegments(pattern[1:], concrete[1:])
	default:
		if len(concrete) == 0 || concrete[0] != pattern[0] {
			return false
		}
		return matchSegments(pattern[1:], concrete[1:])
	}
}
