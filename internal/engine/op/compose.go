package op

// Compose collapses adjacent compatible operations into fewer equivalent
// ones: contiguous text insertions, contiguous text deletions, and repeated
// property sets on the same node. It never mutates its inputs and preserves
// order and semantics for every operation it cannot merge.
func Compose(ops []Operation) []Operation {
	if len(ops) < 2 {
		return cloneAll(ops)
	}
	out := make([]Operation, 0, len(ops))
	for _, o := range ops {
		if len(out) > 0 {
			if merged, ok := tryMerge(out[len(out)-1], o); ok {
				out[len(out)-1] = merged
				continue
			}
		}
		out = append(out, o.Clone())
	}
	return out
}

func cloneAll(ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, o := range ops {
		out[i] = o.Clone()
	}
	return out
}

func tryMerge(a, b Operation) (Operation, bool) {
	switch av := a.(type) {
	case *InsertText:
		bv, ok := b.(*InsertText)
		if !ok || !av.Path.Equal(bv.Path) {
			return nil, false
		}
		// Typing forward, or re-inserting at the same point.
		if bv.Offset == av.Offset+len(av.Text) {
			return &InsertText{Path: av.Path.Clone(), Offset: av.Offset, Text: av.Text + bv.Text}, true
		}
		if bv.Offset == av.Offset {
			return &InsertText{Path: av.Path.Clone(), Offset: av.Offset, Text: bv.Text + av.Text}, true
		}

	case *DeleteText:
		bv, ok := b.(*DeleteText)
		if !ok || !av.Path.Equal(bv.Path) {
			return nil, false
		}
		// Forward delete at the same offset.
		if bv.Offset == av.Offset {
			return &DeleteText{
				Path:   av.Path.Clone(),
				Offset: av.Offset,
				Count:  av.Count + bv.Count,
				Text:   av.Text + bv.Text,
			}, true
		}
		// Backspace run: the later delete ends where the earlier began.
		if bv.Offset+bv.Count == av.Offset {
			return &DeleteText{
				Path:   av.Path.Clone(),
				Offset: bv.Offset,
				Count:  av.Count + bv.Count,
				Text:   bv.Text + av.Text,
			}, true
		}

	case *SetNode:
		bv, ok := b.(*SetNode)
		if !ok || !av.Path.Equal(bv.Path) {
			return nil, false
		}
		merged := &SetNode{Path: av.Path.Clone()}
		merged.Properties = make(map[string]any, len(av.Properties)+len(bv.Properties))
		for k, v := range av.Properties {
			merged.Properties[k] = v
		}
		for k, v := range bv.Properties {
			merged.Properties[k] = v
		}
		if av.OldProperties != nil || bv.OldProperties != nil {
			merged.OldProperties = make(map[string]any)
			// The later set's old values are intermediate; the earlier set's
			// old values win for keys both touched.
			for k, v := range bv.OldProperties {
				merged.OldProperties[k] = v
			}
			for k, v := range av.OldProperties {
				merged.OldProperties[k] = v
			}
		}
		return merged, true
	}
	return nil, false
}
