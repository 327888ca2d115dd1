package op

import (
	"github.com/dshills/docstorm/internal/engine/address"
	"github.com/dshills/docstorm/internal/engine/doc"
)

// Apply mutates the model in place according to the operation, back-filling
// the fields its inverse needs. On error the model state for this operation
// is undefined and the caller must not continue the batch.
func Apply(m *doc.Model, o Operation) error {
	switch v := o.(type) {
	case *InsertText:
		return applyInsertText(m, v)
	case *DeleteText:
		return applyDeleteText(m, v)
	case *ApplyMark:
		return applyApplyMark(m, v)
	case *RemoveMark:
		return applyRemoveMark(m, v)
	case *InsertNode:
		return applyInsertNode(m, v)
	case *RemoveNode:
		return applyRemoveNode(m, v)
	case *SetNode:
		return applySetNode(m, v)
	case *MergeNodes:
		return applyMergeNodes(m, v)
	case *SplitNode:
		return applySplitNode(m, v)
	case *MoveNode:
		return applyMoveNode(m, v)
	default:
		return ErrUnknownKind
	}
}

func textAt(m *doc.Model, p address.Path) (*doc.TextNode, error) {
	n := address.NodeAt(m, p)
	if n == nil {
		return nil, integrityErr(p, "path does not resolve")
	}
	t, ok := n.(*doc.TextNode)
	if !ok {
		return nil, integrityErr(p, "target is not a text node")
	}
	return t, nil
}

func elementAt(m *doc.Model, p address.Path) (*doc.ElementNode, error) {
	n := address.NodeAt(m, p)
	if n == nil {
		return nil, integrityErr(p, "path does not resolve")
	}
	e, ok := n.(*doc.ElementNode)
	if !ok {
		return nil, integrityErr(p, "target is not an element node")
	}
	return e, nil
}

func checkTextOffset(p address.Path, text string, offset int) error {
	if offset < 0 || offset > len(text) {
		return integrityErr(p, "offset %d out of range [0,%d]", offset, len(text))
	}
	if !doc.IsBoundary(text, offset) {
		return integrityErr(p, "offset %d is not a character boundary", offset)
	}
	return nil
}

func applyInsertText(m *doc.Model, o *InsertText) error {
	t, err := textAt(m, o.Path)
	if err != nil {
		return err
	}
	if err := checkTextOffset(o.Path, t.Text, o.Offset); err != nil {
		return err
	}
	t.Text = t.Text[:o.Offset] + o.Text + t.Text[o.Offset:]
	return nil
}

func applyDeleteText(m *doc.Model, o *DeleteText) error {
	t, err := textAt(m, o.Path)
	if err != nil {
		return err
	}
	if o.Count < 0 || o.Offset < 0 || o.Offset+o.Count > len(t.Text) {
		return integrityErr(o.Path, "delete range %d+%d out of range [0,%d]", o.Offset, o.Count, len(t.Text))
	}
	if err := checkTextOffset(o.Path, t.Text, o.Offset); err != nil {
		return err
	}
	if err := checkTextOffset(o.Path, t.Text, o.Offset+o.Count); err != nil {
		return err
	}
	excised := t.Text[o.Offset : o.Offset+o.Count]
	if o.Text == "" {
		o.Text = excised
	}
	t.Text = t.Text[:o.Offset] + t.Text[o.Offset+o.Count:]
	return nil
}

func checkMarkRange(p address.Path, o doc.Mark, text string, start, end int) error {
	if !o.Type.Valid() {
		return integrityErr(p, "unknown mark type %q", o.Type)
	}
	if start < 0 || end > len(text) || start > end {
		return integrityErr(p, "mark range [%d,%d] out of range [0,%d]", start, end, len(text))
	}
	if !doc.IsBoundary(text, start) || !doc.IsBoundary(text, end) {
		return integrityErr(p, "mark range [%d,%d] not on character boundaries", start, end)
	}
	return nil
}

// splitForMark splits the text node at p into before/target/after pieces for
// the range [start, end) and splices them in place of the original. The
// original node keeps its id and becomes the target piece. It returns the
// target and the sibling-count change.
func splitForMark(m *doc.Model, p address.Path, t *doc.TextNode, start, end int) (*doc.TextNode, int, error) {
	parent, idx, ok := address.ParentAt(m, p)
	if !ok {
		return nil, 0, integrityErr(p, "text node has no parent")
	}
	text := t.Text
	shift := 0

	copyMarks := func() []doc.Mark {
		if t.Marks == nil {
			return nil
		}
		out := make([]doc.Mark, len(t.Marks))
		copy(out, t.Marks)
		return out
	}

	t.Text = text[start:end]
	if end < len(text) {
		after := &doc.TextNode{ID: m.NextID(), Text: text[end:], Marks: copyMarks()}
		parent.InsertChild(idx+1, after)
		shift++
	}
	if start > 0 {
		before := &doc.TextNode{ID: m.NextID(), Text: text[:start], Marks: copyMarks()}
		parent.InsertChild(idx, before)
		shift++
	}
	return t, shift, nil
}

// mergeAdjacentText absorbs the text siblings around index idx that carry an
// identical mark set. The left node of each merge survives and keeps its id.
// Assumes a normalized tree: adjacent text runs with identical marks occur
// only as a transient result of the current operation. Returns the number of
// siblings removed.
func mergeAdjacentText(parent *doc.ElementNode, idx int) int {
	merged := 0
	node, ok := parent.Children[idx].(*doc.TextNode)
	if !ok {
		return 0
	}
	if idx+1 < len(parent.Children) {
		if right, ok := parent.Children[idx+1].(*doc.TextNode); ok && node.MarksEqual(right) {
			node.Text += right.Text
			parent.RemoveChild(idx + 1)
			merged++
		}
	}
	if idx > 0 {
		if left, ok := parent.Children[idx-1].(*doc.TextNode); ok && left.MarksEqual(node) {
			left.Text += node.Text
			parent.RemoveChild(idx)
			merged++
		}
	}
	return merged
}

func applyApplyMark(m *doc.Model, o *ApplyMark) error {
	t, err := textAt(m, o.Path)
	if err != nil {
		return err
	}
	if err := checkMarkRange(o.Path, o.Mark, t.Text, o.Start, o.End); err != nil {
		return err
	}
	if o.Start == 0 && o.End == len(t.Text) {
		t.AddMark(o.Mark)
		o.Shift = 0
		if parent, idx, ok := address.ParentAt(m, o.Path); ok {
			o.Shift = -mergeAdjacentText(parent, idx)
		}
		return nil
	}
	target, shift, err := splitForMark(m, o.Path, t, o.Start, o.End)
	if err != nil {
		return err
	}
	target.AddMark(o.Mark)
	o.Shift = shift
	return nil
}

func applyRemoveMark(m *doc.Model, o *RemoveMark) error {
	t, err := textAt(m, o.Path)
	if err != nil {
		return err
	}
	if err := checkMarkRange(o.Path, o.Mark, t.Text, o.Start, o.End); err != nil {
		return err
	}

	// Back-fill the mark value so the inverse can restore color/background.
	if o.Mark.Value == "" {
		for _, mk := range t.Marks {
			if mk.Type == o.Mark.Type {
				o.Mark.Value = mk.Value
			}
		}
	}

	if o.Start == 0 && o.End == len(t.Text) {
		t.RemoveMark(o.Mark.Type)
		o.Shift = 0
		if parent, idx, ok := address.ParentAt(m, o.Path); ok {
			o.Shift = -mergeAdjacentText(parent, idx)
		}
		return nil
	}
	target, shift, err := splitForMark(m, o.Path, t, o.Start, o.End)
	if err != nil {
		return err
	}
	target.RemoveMark(o.Mark.Type)
	o.Shift = shift
	return nil
}

func applyInsertNode(m *doc.Model, o *InsertNode) error {
	if o.Node == nil {
		return integrityErr(o.Path, "insertNode with no node")
	}
	parent, err := elementAt(m, o.Path)
	if err != nil {
		return err
	}
	if o.Index < 0 || o.Index > len(parent.Children) {
		return integrityErr(o.Path, "insert index %d out of range [0,%d]", o.Index, len(parent.Children))
	}
	parent.InsertChild(o.Index, o.Node.Clone())
	return nil
}

func applyRemoveNode(m *doc.Model, o *RemoveNode) error {
	parent, err := elementAt(m, o.Path)
	if err != nil {
		return err
	}
	if o.Index < 0 || o.Index >= len(parent.Children) {
		return integrityErr(o.Path, "remove index %d out of range [0,%d)", o.Index, len(parent.Children))
	}
	removed := parent.RemoveChild(o.Index)
	if o.Node == nil {
		o.Node = removed.Clone()
	}
	return nil
}

func applySetNode(m *doc.Model, o *SetNode) error {
	n := address.NodeAt(m, o.Path)
	if n == nil {
		return integrityErr(o.Path, "path does not resolve")
	}
	old := make(map[string]any, len(o.Properties))

	switch v := n.(type) {
	case *doc.TextNode:
		for k, val := range o.Properties {
			if k != "text" {
				return integrityErr(o.Path, "text nodes do not support property %q", k)
			}
			s, ok := val.(string)
			if !ok {
				return integrityErr(o.Path, "property \"text\" must be a string")
			}
			old[k] = v.Text
			v.Text = s
		}
	case *doc.ElementNode:
		for k, val := range o.Properties {
			if k == "type" {
				s, ok := val.(string)
				if !ok {
					return integrityErr(o.Path, "property \"type\" must be a string")
				}
				old[k] = v.Type
				v.Type = s
				continue
			}
			if prev, ok := v.Attributes[k]; ok {
				old[k] = prev
			} else {
				old[k] = nil
			}
			if val == nil {
				delete(v.Attributes, k)
				continue
			}
			if v.Attributes == nil {
				v.Attributes = make(map[string]any)
			}
			v.Attributes[k] = val
		}
	}

	if o.OldProperties == nil {
		o.OldProperties = old
	}
	return nil
}

func applyMergeNodes(m *doc.Model, o *MergeNodes) error {
	parent, idx, ok := address.ParentAt(m, o.Path)
	if !ok {
		return integrityErr(o.Path, "path does not resolve to a non-root node")
	}
	if idx >= len(parent.Children)-1 {
		return integrityErr(o.Path, "no next sibling to merge")
	}
	left := parent.Children[idx]
	right := parent.Children[idx+1]

	switch l := left.(type) {
	case *doc.TextNode:
		r, ok := right.(*doc.TextNode)
		if !ok {
			return integrityErr(o.Path, "cannot merge text node with element node")
		}
		if o.Position == 0 {
			o.Position = len(l.Text)
		}
		l.Text += r.Text
	case *doc.ElementNode:
		r, ok := right.(*doc.ElementNode)
		if !ok {
			return integrityErr(o.Path, "cannot merge element node with text node")
		}
		if o.Position == 0 {
			o.Position = len(l.Children)
		}
		l.Children = append(l.Children, r.Children...)
	}

	parent.RemoveChild(idx + 1)
	return nil
}

func applySplitNode(m *doc.Model, o *SplitNode) error {
	parent, idx, ok := address.ParentAt(m, o.Path)
	if !ok {
		return integrityErr(o.Path, "cannot split the root")
	}
	n := address.NodeAt(m, o.Path)
	if n == nil {
		return integrityErr(o.Path, "path does not resolve")
	}

	switch v := n.(type) {
	case *doc.TextNode:
		if err := checkTextOffset(o.Path, v.Text, o.Position); err != nil {
			return err
		}
		var marks []doc.Mark
		if v.Marks != nil {
			marks = make([]doc.Mark, len(v.Marks))
			copy(marks, v.Marks)
		}
		right := &doc.TextNode{ID: m.NextID(), Text: v.Text[o.Position:], Marks: marks}
		v.Text = v.Text[:o.Position]
		parent.InsertChild(idx+1, right)
	case *doc.ElementNode:
		if o.Position < 0 || o.Position > len(v.Children) {
			return integrityErr(o.Path, "split index %d out of range [0,%d]", o.Position, len(v.Children))
		}
		var attrs map[string]any
		if v.Attributes != nil {
			attrs = make(map[string]any, len(v.Attributes))
			for k, val := range v.Attributes {
				attrs[k] = val
			}
		}
		right := &doc.ElementNode{ID: m.NextID(), Type: v.Type, Attributes: attrs}
		right.Children = append(right.Children, v.Children[o.Position:]...)
		v.Children = v.Children[:o.Position]
		parent.InsertChild(idx+1, right)
	}
	return nil
}

func applyMoveNode(m *doc.Model, o *MoveNode) error {
	if len(o.Path) == 0 {
		return integrityErr(o.Path, "cannot move the root")
	}
	if len(o.NewPath) == 0 {
		return integrityErr(o.NewPath, "move target cannot be the root")
	}
	if o.NewPath.HasPrefix(o.Path) && len(o.NewPath) > len(o.Path) {
		return integrityErr(o.NewPath, "cannot move a node inside itself")
	}

	srcParent, srcIdx, ok := address.ParentAt(m, o.Path)
	if !ok || srcIdx >= len(srcParent.Children) {
		return integrityErr(o.Path, "path does not resolve")
	}
	// Validate the destination parent before detaching.
	dstParentPath := o.NewPath[:len(o.NewPath)-1]
	if _, ok := address.NodeAt(m, dstParentPath).(*doc.ElementNode); !ok {
		return integrityErr(o.NewPath, "move target parent does not resolve")
	}

	node := srcParent.RemoveChild(srcIdx)

	dstParent, ok := address.NodeAt(m, dstParentPath).(*doc.ElementNode)
	if !ok {
		return integrityErr(o.NewPath, "move target parent does not resolve")
	}
	dstIdx := o.NewPath.Leaf()
	if dstParent == srcParent && dstIdx > srcIdx {
		dstIdx--
	}
	if dstIdx < 0 || dstIdx > len(dstParent.Children) {
		return integrityErr(o.NewPath, "move index %d out of range [0,%d]", dstIdx, len(dstParent.Children))
	}
	dstParent.InsertChild(dstIdx, node)
	return nil
}
