package topic

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		pattern Topic
		topic   Topic
		want    bool
	}{
		{"document.changed", "document.changed", true},
		{"document.changed", "document.undone", false},
		{"document.*", "document.changed", true},
		{"document.*", "document.changed.text", false},
		{"document.**", "document.changed.text", true},
		{"document.**", "document", true},
		{"**", "anything.at.all", true},
		{"*.changed", "document.changed", true},
		{"*.changed", "config.changed", true},
		{"*.changed", "changed", false},
		{"collab.**.applied", "collab.remote.applied", true},
		{"collab.**.applied", "collab.applied", true},
		{"collab.**.applied", "collab.remote.queued", false},
	}
	for _, tt := range tests {
		if got := tt.pattern.Matches(tt.topic); got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
		}
	}
}

func TestParentChild(t *testing.T) {
	tp := Topic("document").Child("changed")
	if tp != "document.changed" {
		t.Errorf("Child = %q", tp)
	}
	if tp.Parent() != "document" {
		t.Errorf("Parent = %q", tp.Parent())
	}
	if Topic("document").Parent() != "" {
		t.Error("top-level topic should have empty parent")
	}
}

func TestHasWildcard(t *testing.T) {
	if Topic("document.changed").HasWildcard() {
		t.Error("concrete topic reported wildcard")
	}
	if !Topic("document.*").HasWildcard() {
		t.Error("pattern not reported as wildcard")
	}
}
