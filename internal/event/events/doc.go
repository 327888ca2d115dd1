// Package events defines the topics and payload types published on the
// engine bus. Payloads are plain values; subscribers type-assert on the
// topic they asked for.
package events
