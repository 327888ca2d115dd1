package doc

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// GraphemeCount returns the number of user-perceived characters in s.
func GraphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// IsBoundary reports whether the byte offset falls on a grapheme cluster
// boundary of s. Offsets 0 and len(s) are always boundaries; offsets inside
// a UTF-8 sequence or inside a cluster (combining sequences, emoji joins)
// are not.
func IsBoundary(s string, offset int) bool {
	if offset == 0 || offset == len(s) {
		return true
	}
	if offset < 0 || offset > len(s) {
		return false
	}
	if !utf8.RuneStart(s[offset]) {
		return false
	}
	state := -1
	rest := s
	pos := 0
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		pos += len(cluster)
		if pos == offset {
			return true
		}
		if pos > offset {
			return false
		}
	}
	return false
}

// SnapToBoundary returns the nearest grapheme boundary at or before offset.
func SnapToBoundary(s string, offset int) int {
	if offset <= 0 {
		return 0
	}
	if offset >= len(s) {
		return len(s)
	}
	state := -1
	rest := s
	pos := 0
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if pos+len(cluster) > offset {
			return pos
		}
		pos += len(cluster)
	}
	return pos
}
