package op

import "github.com/dshills/docstorm/internal/engine/address"

// Invert returns the operation that undoes o, given that o has already been
// applied so its back-filled fields are present. It returns ErrNotApplied
// when a required back-fill is missing.
func Invert(o Operation) (Operation, error) {
	switch v := o.(type) {
	case *InsertText:
		return &DeleteText{
			Path:   v.Path.Clone(),
			Offset: v.Offset,
			Count:  len(v.Text),
			Text:   v.Text,
		}, nil

	case *DeleteText:
		if v.Text == "" && v.Count > 0 {
			return nil, ErrNotApplied
		}
		return &InsertText{
			Path:   v.Path.Clone(),
			Offset: v.Offset,
			Text:   v.Text,
		}, nil

	case *ApplyMark:
		return &RemoveMark{
			Path:  markedPiecePath(v.Path, v.Start),
			Mark:  v.Mark,
			Start: 0,
			End:   v.End - v.Start,
		}, nil

	case *RemoveMark:
		return &ApplyMark{
			Path:  markedPiecePath(v.Path, v.Start),
			Mark:  v.Mark,
			Start: 0,
			End:   v.End - v.Start,
		}, nil

	case *InsertNode:
		if v.Node == nil {
			return nil, ErrNotApplied
		}
		return &RemoveNode{
			Path:  v.Path.Clone(),
			Index: v.Index,
			Node:  v.Node.Clone(),
		}, nil

	case *RemoveNode:
		if v.Node == nil {
			return nil, ErrNotApplied
		}
		return &InsertNode{
			Path:  v.Path.Clone(),
			Index: v.Index,
			Node:  v.Node.Clone(),
		}, nil

	case *SetNode:
		if v.OldProperties == nil {
			return nil, ErrNotApplied
		}
		inv := &SetNode{Path: v.Path.Clone()}
		inv.Properties = make(map[string]any, len(v.OldProperties))
		for k, val := range v.OldProperties {
			inv.Properties[k] = val
		}
		inv.OldProperties = make(map[string]any, len(v.Properties))
		for k, val := range v.Properties {
			inv.OldProperties[k] = val
		}
		return inv, nil

	case *MergeNodes:
		return &SplitNode{Path: v.Path.Clone(), Position: v.Position}, nil

	case *SplitNode:
		return &MergeNodes{Path: v.Path.Clone(), Position: v.Position}, nil

	case *MoveNode:
		return &MoveNode{
			Path:    landedPath(v),
			NewPath: v.Path.Clone(),
		}, nil

	default:
		return nil, ErrUnknownKind
	}
}

// markedPiecePath returns the path of the piece carrying the mark change
// after apply: a sub-range starting past 0 puts a "before" piece ahead of
// the target, shifting it one sibling right.
func markedPiecePath(p address.Path, start int) address.Path {
	out := p.Clone()
	if start > 0 && len(out) > 0 {
		out[len(out)-1]++
	}
	return out
}

// landedPath returns where a moved node actually sits after apply, folding
// in the same-parent index adjustment and the source-removal shift.
func landedPath(o *MoveNode) address.Path {
	landed := o.NewPath.Clone()
	d := len(o.Path) - 1
	if len(landed) > d && landed[:d].Equal(o.Path[:d]) && landed[d] > o.Path[d] {
		landed[d]--
	}
	return landed
}
