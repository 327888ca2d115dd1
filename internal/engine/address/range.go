package address

import (
	"errors"

	"github.com/dshills/docstorm/internal/engine/doc"
)

// ErrSelectionResolution indicates a range could not be converted to model
// positions. Selection sync runs on every native selection change, so this
// is returned for local recovery, never panicked.
var ErrSelectionResolution = errors.New("selection does not resolve to the model")

// Position is a node plus an offset within it: a byte offset for text nodes,
// a child index for elements.
type Position struct {
	Node   doc.Node
	Offset int
}

// Range is an unordered anchor/focus pair of positions. Start and end are
// derived by document-order comparison, not by construction order.
type Range struct {
	Anchor Position
	Focus  Position
}

// IsCollapsed reports whether anchor and focus name the same point.
func (r Range) IsCollapsed() bool {
	return r.Anchor.Node == r.Focus.Node && r.Anchor.Offset == r.Focus.Offset
}

// Normalize returns the range's positions in document order. It fails with
// ErrSelectionResolution when either node is not in the tree.
func (r Range) Normalize(m *doc.Model) (start, end Position, err error) {
	ap, ok := PathOf(m, r.Anchor.Node)
	if !ok {
		return Position{}, Position{}, ErrSelectionResolution
	}
	fp, ok := PathOf(m, r.Focus.Node)
	if !ok {
		return Position{}, Position{}, ErrSelectionResolution
	}

	cmp := ap.Compare(fp)
	if cmp == 0 && r.Anchor.Offset > r.Focus.Offset {
		cmp = 1
	}
	if cmp > 0 {
		return r.Focus, r.Anchor, nil
	}
	return r.Anchor, r.Focus, nil
}

// PointRef is the serialized form of a position: a path plus offset. It
// survives a whole-tree replacement, where node identities may be recreated.
type PointRef struct {
	Path   Path `json:"path"`
	Offset int  `json:"offset"`
}

// Ref serializes a position against the model's current tree.
func Ref(m *doc.Model, pos Position) (PointRef, error) {
	p, ok := PathOf(m, pos.Node)
	if !ok {
		return PointRef{}, ErrSelectionResolution
	}
	return PointRef{Path: p, Offset: pos.Offset}, nil
}

// Refs serializes a range's anchor and focus.
func (r Range) Refs(m *doc.Model) (anchor, focus PointRef, err error) {
	anchor, err = Ref(m, r.Anchor)
	if err != nil {
		return PointRef{}, PointRef{}, err
	}
	focus, err = Ref(m, r.Focus)
	if err != nil {
		return PointRef{}, PointRef{}, err
	}
	return anchor, focus, nil
}

// Resolve converts a serialized point back to a position against the current
// tree, clamping text offsets into range.
func Resolve(m *doc.Model, ref PointRef) (Position, error) {
	n := NodeAt(m, ref.Path)
	if n == nil {
		return Position{}, ErrSelectionResolution
	}
	offset := ref.Offset
	switch v := n.(type) {
	case *doc.TextNode:
		if offset > len(v.Text) {
			offset = len(v.Text)
		}
	case *doc.ElementNode:
		if offset > len(v.Children) {
			offset = len(v.Children)
		}
	}
	if offset < 0 {
		offset = 0
	}
	return Position{Node: n, Offset: offset}, nil
}

// RangeFromRefs rebuilds a range from serialized anchor and focus points.
func RangeFromRefs(m *doc.Model, anchor, focus PointRef) (Range, error) {
	a, err := Resolve(m, anchor)
	if err != nil {
		return Range{}, err
	}
	f, err := Resolve(m, focus)
	if err != nil {
		return Range{}, err
	}
	return Range{Anchor: a, Focus: f}, nil
}
