package op

import (
	"github.com/dshills/docstorm/internal/engine/address"
	"github.com/dshills/docstorm/internal/engine/doc"
)

// Kind identifies an operation in the closed ten-kind vocabulary.
type Kind uint8

const (
	KindInsertText Kind = iota
	KindDeleteText
	KindApplyMark
	KindRemoveMark
	KindInsertNode
	KindRemoveNode
	KindSetNode
	KindMergeNodes
	KindSplitNode
	KindMoveNode
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInsertText:
		return "insertText"
	case KindDeleteText:
		return "deleteText"
	case KindApplyMark:
		return "applyMark"
	case KindRemoveMark:
		return "removeMark"
	case KindInsertNode:
		return "insertNode"
	case KindRemoveNode:
		return "removeNode"
	case KindSetNode:
		return "setNode"
	case KindMergeNodes:
		return "mergeNodes"
	case KindSplitNode:
		return "splitNode"
	case KindMoveNode:
		return "moveNode"
	default:
		return "unknown"
	}
}

// Operation is a single addressed, invertible mutation record.
type Operation interface {
	Kind() Kind

	// Clone returns an independent deep copy.
	Clone() Operation
}

// InsertText splices Text into the text node at Path at a byte offset.
type InsertText struct {
	Path   address.Path
	Offset int
	Text   string
}

func (o *InsertText) Kind() Kind { return KindInsertText }

func (o *InsertText) Clone() Operation {
	c := *o
	c.Path = o.Path.Clone()
	return &c
}

// DeleteText removes Count bytes at Offset from the text node at Path.
// Text is back-filled by apply with the excised substring, making the
// inverse self-contained.
type DeleteText struct {
	Path   address.Path
	Offset int
	Count  int
	Text   string
}

func (o *DeleteText) Kind() Kind { return KindDeleteText }

func (o *DeleteText) Clone() Operation {
	c := *o
	c.Path = o.Path.Clone()
	return &c
}

// ApplyMark attaches Mark to the byte range [Start, End) of the text node at
// Path. A sub-range application splits the node into up to three siblings;
// apply back-fills Shift with the resulting sibling-count change so the
// transformer can account for it.
type ApplyMark struct {
	Path  address.Path
	Mark  doc.Mark
	Start int
	End   int
	Shift int
}

func (o *ApplyMark) Kind() Kind { return KindApplyMark }

func (o *ApplyMark) Clone() Operation {
	c := *o
	c.Path = o.Path.Clone()
	return &c
}

// RemoveMark detaches the mark of Mark.Type from the byte range [Start, End)
// of the text node at Path. Mark.Value and Shift are back-filled by apply.
type RemoveMark struct {
	Path  address.Path
	Mark  doc.Mark
	Start int
	End   int
	Shift int
}

func (o *RemoveMark) Kind() Kind { return KindRemoveMark }

func (o *RemoveMark) Clone() Operation {
	c := *o
	c.Path = o.Path.Clone()
	return &c
}

// InsertNode splices Node into the children of the element at Path at Index.
type InsertNode struct {
	Path  address.Path
	Index int
	Node  doc.Node
}

func (o *InsertNode) Kind() Kind { return KindInsertNode }

func (o *InsertNode) Clone() Operation {
	c := *o
	c.Path = o.Path.Clone()
	if o.Node != nil {
		c.Node = o.Node.Clone()
	}
	return &c
}

// RemoveNode splices out the child at Index of the element at Path. Node is
// back-filled by apply with the removed subtree.
type RemoveNode struct {
	Path  address.Path
	Index int
	Node  doc.Node
}

func (o *RemoveNode) Kind() Kind { return KindRemoveNode }

func (o *RemoveNode) Clone() Operation {
	c := *o
	c.Path = o.Path.Clone()
	if o.Node != nil {
		c.Node = o.Node.Clone()
	}
	return &c
}

// SetNode shallow-merges Properties into the node at Path. For elements the
// key "type" sets the element type and every other key sets an attribute
// (nil deletes it); text nodes accept only "text". OldProperties is
// back-filled by apply with the prior values of touched keys.
type SetNode struct {
	Path          address.Path
	Properties    map[string]any
	OldProperties map[string]any
}

func (o *SetNode) Kind() Kind { return KindSetNode }

func (o *SetNode) Clone() Operation {
	c := &SetNode{Path: o.Path.Clone()}
	if o.Properties != nil {
		c.Properties = make(map[string]any, len(o.Properties))
		for k, v := range o.Properties {
			c.Properties[k] = v
		}
	}
	if o.OldProperties != nil {
		c.OldProperties = make(map[string]any, len(o.OldProperties))
		for k, v := range o.OldProperties {
			c.OldProperties[k] = v
		}
	}
	return c
}

// MergeNodes merges the node at Path with its next sibling: text absorbs
// text, element children absorb element children. Position is back-filled by
// apply with the true split point (prior text length or child count) when
// the caller left it zero, so the SplitNode inverse is always exact.
type MergeNodes struct {
	Path     address.Path
	Position int
}

func (o *MergeNodes) Kind() Kind { return KindMergeNodes }

func (o *MergeNodes) Clone() Operation {
	c := *o
	c.Path = o.Path.Clone()
	return &c
}

// SplitNode splits the node at Path into two same-type siblings: a text node
// at a byte offset, an element at a child index.
type SplitNode struct {
	Path     address.Path
	Position int
}

func (o *SplitNode) Kind() Kind { return KindSplitNode }

func (o *SplitNode) Clone() Operation {
	c := *o
	c.Path = o.Path.Clone()
	return &c
}

// MoveNode detaches the node at Path and re-splices it at NewPath. The
// target index is adjusted by -1 when moving within the same parent past the
// source index.
type MoveNode struct {
	Path    address.Path
	NewPath address.Path
}

func (o *MoveNode) Kind() Kind { return KindMoveNode }

func (o *MoveNode) Clone() Operation {
	c := *o
	c.Path = o.Path.Clone()
	c.NewPath = o.NewPath.Clone()
	return &c
}
