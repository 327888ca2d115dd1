package op

import (
	"github.com/dshills/docstorm/internal/engine/address"
)

// Transform rewrites o so it preserves its intent after the operations in
// applied mutated the tree shape o was written against. It is a pure
// function: o and applied are never modified.
//
// opWins controls position priority at exact ties, typically concurrent
// insertions at the same point: when true, o keeps the earlier position.
// The collaborative layer derives it from origin ids (lower origin wins).
//
// The returned ok is false when o was consumed by a concurrent operation
// (its target no longer exists); the caller drops it. An unrecognized kind
// is an error for that operation; approximating transform correctness is
// unsafe.
func Transform(o Operation, applied []Operation, opWins bool) (Operation, bool, error) {
	cur := o.Clone()
	for _, a := range applied {
		next, ok, err := transformOne(cur, a, opWins)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		cur = next
	}
	return cur, true, nil
}

func transformOne(o, a Operation, opWins bool) (Operation, bool, error) {
	switch av := a.(type) {
	case *InsertText:
		return xformAgainstInsertText(o, av, opWins), true, nil
	case *DeleteText:
		return xformAgainstDeleteText(o, av)
	case *ApplyMark:
		return xformAgainstMarkChange(o, av.Path, av.Start, av.End, av.Shift), true, nil
	case *RemoveMark:
		return xformAgainstMarkChange(o, av.Path, av.Start, av.End, av.Shift), true, nil
	case *InsertNode:
		point := append(av.Path.Clone(), av.Index)
		return remapPaths(o,
			func(q address.Path) (address.Path, bool) { return insertShift(q, point, false), true },
			func(q address.Path) (address.Path, bool) { return insertShift(q, point, tieKeepsPoint(o, opWins)), true },
		)
	case *RemoveNode:
		point := append(av.Path.Clone(), av.Index)
		return remapPaths(o,
			func(q address.Path) (address.Path, bool) { return removeShift(q, point, false) },
			func(q address.Path) (address.Path, bool) { return removeShift(q, point, true) },
		)
	case *SetNode:
		// Property changes have no addressing impact. Concurrent SetNodes on
		// the same node resolve last-writer-wins by application order.
		return o.Clone(), true, nil
	case *MergeNodes:
		return xformAgainstMerge(o, av)
	case *SplitNode:
		return xformAgainstSplit(o, av)
	case *MoveNode:
		return xformAgainstMove(o, av)
	default:
		return nil, false, ErrUnknownKind
	}
}

// tieKeepsPoint decides whether an insertion point colliding exactly with a
// concurrent insertion keeps the earlier position.
func tieKeepsPoint(o Operation, opWins bool) bool {
	switch o.(type) {
	case *InsertNode, *MoveNode:
		return opWins
	}
	return false
}

// remapPaths rewrites every tree point an operation addresses through the
// given mappers. node maps references to existing nodes; point maps
// insertion points, which survive removal of the node they abut.
func remapPaths(o Operation, node, point func(address.Path) (address.Path, bool)) (Operation, bool, error) {
	c := o.Clone()
	switch v := c.(type) {
	case *InsertText:
		p, ok := node(v.Path)
		if !ok {
			return nil, false, nil
		}
		v.Path = p
	case *DeleteText:
		p, ok := node(v.Path)
		if !ok {
			return nil, false, nil
		}
		v.Path = p
	case *ApplyMark:
		p, ok := node(v.Path)
		if !ok {
			return nil, false, nil
		}
		v.Path = p
	case *RemoveMark:
		p, ok := node(v.Path)
		if !ok {
			return nil, false, nil
		}
		v.Path = p
	case *SetNode:
		p, ok := node(v.Path)
		if !ok {
			return nil, false, nil
		}
		v.Path = p
	case *MergeNodes:
		p, ok := node(v.Path)
		if !ok {
			return nil, false, nil
		}
		v.Path = p
	case *SplitNode:
		p, ok := node(v.Path)
		if !ok {
			return nil, false, nil
		}
		v.Path = p
	case *InsertNode:
		pt, ok := point(append(v.Path.Clone(), v.Index))
		if !ok {
			return nil, false, nil
		}
		v.Path, v.Index = pt[:len(pt)-1], pt.Leaf()
	case *RemoveNode:
		pt, ok := node(append(v.Path.Clone(), v.Index))
		if !ok {
			return nil, false, nil
		}
		v.Path, v.Index = pt[:len(pt)-1], pt.Leaf()
	case *MoveNode:
		p, ok := node(v.Path)
		if !ok {
			return nil, false, nil
		}
		np, ok := point(v.NewPath)
		if !ok {
			return nil, false, nil
		}
		v.Path, v.NewPath = p, np
	default:
		return nil, false, ErrUnknownKind
	}
	return c, true, nil
}

// insertShift shifts q right by one sibling when a node was inserted at
// point before or at q's index on the shared level. tieKeep leaves q in
// place on an exact collision.
func insertShift(q address.Path, point address.Path, tieKeep bool) address.Path {
	d := len(point) - 1
	if len(q) <= d || !q[:d].Equal(point[:d]) {
		return q.Clone()
	}
	out := q.Clone()
	if out[d] > point[d] || (out[d] == point[d] && !tieKeep) {
		out[d]++
	}
	return out
}

// removeShift shifts q left past a removed sibling. Node references to the
// removed node or anything inside it are consumed; an insertion point at
// exactly the removed index survives in place.
func removeShift(q address.Path, point address.Path, isPoint bool) (address.Path, bool) {
	d := len(point) - 1
	if len(q) <= d || !q[:d].Equal(point[:d]) {
		return q.Clone(), true
	}
	out := q.Clone()
	switch {
	case out[d] > point[d]:
		out[d]--
	case out[d] == point[d]:
		if isPoint && len(out) == d+1 {
			return out, true
		}
		return nil, false
	}
	return out, true
}

func xformAgainstInsertText(o Operation, a *InsertText, opWins bool) Operation {
	c := o.Clone()
	n := len(a.Text)
	switch v := c.(type) {
	case *InsertText:
		if !v.Path.Equal(a.Path) {
			return c
		}
		if v.Offset > a.Offset || (v.Offset == a.Offset && !opWins) {
			v.Offset += n
		}
	case *DeleteText:
		if !v.Path.Equal(a.Path) {
			return c
		}
		switch {
		case a.Offset <= v.Offset:
			v.Offset += n
		case a.Offset < v.Offset+v.Count:
			// Concurrent insert landed inside the deleted span; widen the
			// delete so the span stays contiguous.
			if len(v.Text) == v.Count {
				at := a.Offset - v.Offset
				v.Text = v.Text[:at] + a.Text + v.Text[at:]
			}
			v.Count += n
		}
	case *ApplyMark:
		shiftMarkRange(&v.Start, &v.End, a.Path, v.Path, a.Offset, n)
	case *RemoveMark:
		shiftMarkRange(&v.Start, &v.End, a.Path, v.Path, a.Offset, n)
	case *SplitNode:
		if v.Path.Equal(a.Path) && a.Offset <= v.Position {
			v.Position += n
		}
	case *MergeNodes:
		if v.Path.Equal(a.Path) && v.Position > 0 && a.Offset <= v.Position {
			v.Position += n
		}
	}
	return c
}

func shiftMarkRange(start, end *int, aPath, oPath address.Path, at, n int) {
	if !oPath.Equal(aPath) {
		return
	}
	if at <= *start {
		*start += n
		*end += n
		return
	}
	if at < *end {
		*end += n
	}
}

func xformAgainstDeleteText(o Operation, a *DeleteText) (Operation, bool, error) {
	c := o.Clone()
	f := func(x int) int {
		if x <= a.Offset {
			return x
		}
		if x >= a.Offset+a.Count {
			return x - a.Count
		}
		return a.Offset
	}
	switch v := c.(type) {
	case *InsertText:
		if v.Path.Equal(a.Path) {
			v.Offset = f(v.Offset)
		}
	case *DeleteText:
		if !v.Path.Equal(a.Path) {
			return c, true, nil
		}
		oldOff, oldCount := v.Offset, v.Count
		end := f(oldOff + oldCount)
		v.Offset = f(oldOff)
		v.Count = end - v.Offset
		if v.Count == 0 {
			return nil, false, nil
		}
		if len(v.Text) == oldCount {
			cutStart := max(oldOff, a.Offset)
			cutEnd := min(oldOff+oldCount, a.Offset+a.Count)
			if cutStart < cutEnd {
				v.Text = v.Text[:cutStart-oldOff] + v.Text[cutEnd-oldOff:]
			}
		}
	case *ApplyMark:
		if v.Path.Equal(a.Path) {
			v.Start, v.End = f(v.Start), f(v.End)
			if v.Start == v.End {
				return nil, false, nil
			}
		}
	case *RemoveMark:
		if v.Path.Equal(a.Path) {
			v.Start, v.End = f(v.Start), f(v.End)
			if v.Start == v.End {
				return nil, false, nil
			}
		}
	case *SplitNode:
		if v.Path.Equal(a.Path) {
			v.Position = f(v.Position)
		}
	case *MergeNodes:
		if v.Path.Equal(a.Path) && v.Position > 0 {
			v.Position = f(v.Position)
		}
	}
	return c, true, nil
}

// xformAgainstMarkChange accounts for the structural side effects of an
// applied mark operation: a sub-range application splits the target into up
// to three siblings (shift > 0); a full-range removal may merge the target
// with same-marked neighbors (shift < 0). Same-node offsets are mapped onto
// the piece they fall into; ops clamped across a piece boundary keep the
// piece containing their start.
func xformAgainstMarkChange(o Operation, aPath address.Path, aStart, aEnd, aShift int) Operation {
	c := o.Clone()
	target := opTargetPath(c)
	if target == nil {
		return c
	}

	d := len(aPath) - 1
	if d < 0 {
		return c
	}

	// Sibling shift on the shared level.
	if aShift != 0 && len(target) > d && target[:d].Equal(aPath[:d]) && !target.Equal(aPath) {
		if target[d] > aPath[d] {
			shifted := target.Clone()
			shifted[d] += aShift
			setOpTargetPath(c, shifted)
		}
		return c
	}

	if !target.Equal(aPath) || aShift <= 0 {
		return c
	}

	// Same node, and the mark change split it. Map offsets onto pieces.
	beforePieces := 0
	if aStart > 0 {
		beforePieces = 1
	}
	markedLeaf := aPath[d] + beforePieces

	mapPoint := func(x int) (leaf, off int) {
		switch {
		case x < aStart:
			return aPath[d], x
		case x <= aEnd:
			return markedLeaf, x - aStart
		default:
			return markedLeaf + 1, x - aEnd
		}
	}

	switch v := c.(type) {
	case *InsertText:
		leaf, off := mapPoint(v.Offset)
		v.Path = withLeaf(v.Path, leaf)
		v.Offset = off
	case *DeleteText:
		leaf, off := mapPoint(v.Offset)
		pieceEnd := pieceLength(leaf, aPath[d], markedLeaf, aStart, aEnd)
		v.Path = withLeaf(v.Path, leaf)
		v.Offset = off
		if pieceEnd >= 0 && off+v.Count > pieceEnd {
			trimmed := pieceEnd - off
			if len(v.Text) == v.Count && trimmed >= 0 {
				v.Text = v.Text[:trimmed]
			}
			v.Count = trimmed
		}
	case *ApplyMark:
		mapMarkOntoPieces(&v.Path, &v.Start, &v.End, mapPoint, aPath[d], markedLeaf, aStart, aEnd)
	case *RemoveMark:
		mapMarkOntoPieces(&v.Path, &v.Start, &v.End, mapPoint, aPath[d], markedLeaf, aStart, aEnd)
	case *SplitNode:
		leaf, off := mapPoint(v.Position)
		v.Path = withLeaf(v.Path, leaf)
		v.Position = off
	default:
		// Node-level references follow the piece that kept the node's id.
		setOpTargetPath(c, withLeaf(target, markedLeaf))
	}
	return c
}

// pieceLength returns the byte length of the piece a leaf refers to, or -1
// for the open-ended trailing piece.
func pieceLength(leaf, beforeLeaf, markedLeaf, aStart, aEnd int) int {
	switch leaf {
	case markedLeaf:
		return aEnd - aStart
	case beforeLeaf:
		if aStart > 0 {
			return aStart
		}
		return -1
	default:
		return -1
	}
}

func mapMarkOntoPieces(p *address.Path, start, end *int, mapPoint func(int) (int, int), beforeLeaf, markedLeaf, aStart, aEnd int) {
	sLeaf, sOff := mapPoint(*start)
	eLeaf, eOff := mapPoint(*end)
	*p = withLeaf(*p, sLeaf)
	if sLeaf == eLeaf {
		*start, *end = sOff, eOff
		return
	}
	// Crosses a piece boundary: keep the portion in the start piece.
	*start = sOff
	if limit := pieceLength(sLeaf, beforeLeaf, markedLeaf, aStart, aEnd); limit >= 0 {
		*end = limit
	} else {
		*end = sOff
	}
}

func withLeaf(p address.Path, leaf int) address.Path {
	out := p.Clone()
	out[len(out)-1] = leaf
	return out
}

// opTargetPath returns the primary node path an operation addresses, or nil
// when it has none that mark splits can affect.
func opTargetPath(o Operation) address.Path {
	switch v := o.(type) {
	case *InsertText:
		return v.Path
	case *DeleteText:
		return v.Path
	case *ApplyMark:
		return v.Path
	case *RemoveMark:
		return v.Path
	case *SetNode:
		return v.Path
	case *MergeNodes:
		return v.Path
	case *SplitNode:
		return v.Path
	case *InsertNode:
		return append(v.Path.Clone(), v.Index)
	case *RemoveNode:
		return append(v.Path.Clone(), v.Index)
	case *MoveNode:
		return v.Path
	}
	return nil
}

func setOpTargetPath(o Operation, p address.Path) {
	switch v := o.(type) {
	case *InsertText:
		v.Path = p
	case *DeleteText:
		v.Path = p
	case *ApplyMark:
		v.Path = p
	case *RemoveMark:
		v.Path = p
	case *SetNode:
		v.Path = p
	case *MergeNodes:
		v.Path = p
	case *SplitNode:
		v.Path = p
	case *InsertNode:
		v.Path, v.Index = p[:len(p)-1], p.Leaf()
	case *RemoveNode:
		v.Path, v.Index = p[:len(p)-1], p.Leaf()
	case *MoveNode:
		v.Path = p
	}
}

func xformAgainstSplit(o Operation, a *SplitNode) (Operation, bool, error) {
	// Same-node text interactions first: offsets past the split point move
	// onto the new right sibling.
	if target := samePathTextTarget(o, a.Path); target != nil {
		c := o.Clone()
		mapOff := func(x int) (bump, off int) {
			if x >= a.Position {
				return 1, x - a.Position
			}
			return 0, x
		}
		switch v := c.(type) {
		case *InsertText:
			bump, off := mapOff(v.Offset)
			v.Path = withLeaf(v.Path, v.Path.Leaf()+bump)
			v.Offset = off
		case *DeleteText:
			bump, off := mapOff(v.Offset)
			v.Path = withLeaf(v.Path, v.Path.Leaf()+bump)
			v.Offset = off
			if bump == 0 && off+v.Count > a.Position {
				trimmed := a.Position - off
				if len(v.Text) == v.Count {
					v.Text = v.Text[:trimmed]
				}
				v.Count = trimmed
			}
		case *ApplyMark:
			mapRangeAcrossSplit(v.Path, &v.Path, &v.Start, &v.End, a.Position)
		case *RemoveMark:
			mapRangeAcrossSplit(v.Path, &v.Path, &v.Start, &v.End, a.Position)
		case *SplitNode:
			if v.Position == a.Position {
				return nil, false, nil
			}
			bump, off := mapOff(v.Position)
			v.Path = withLeaf(v.Path, v.Path.Leaf()+bump)
			v.Position = off
		}
		return c, true, nil
	}

	return remapPaths(o,
		func(q address.Path) (address.Path, bool) { return splitShift(q, a.Path, a.Position), true },
		func(q address.Path) (address.Path, bool) { return splitShift(q, a.Path, a.Position), true },
	)
}

func samePathTextTarget(o Operation, p address.Path) Operation {
	switch v := o.(type) {
	case *InsertText:
		if v.Path.Equal(p) {
			return o
		}
	case *DeleteText:
		if v.Path.Equal(p) {
			return o
		}
	case *ApplyMark:
		if v.Path.Equal(p) {
			return o
		}
	case *RemoveMark:
		if v.Path.Equal(p) {
			return o
		}
	case *SplitNode:
		if v.Path.Equal(p) {
			return o
		}
	}
	return nil
}

func mapRangeAcrossSplit(p address.Path, out *address.Path, start, end *int, pos int) {
	switch {
	case *start >= pos:
		*out = withLeaf(p, p.Leaf()+1)
		*start -= pos
		*end -= pos
	case *end > pos:
		// Straddles the split: keep the left portion.
		*end = pos
	}
}

// splitShift maps paths around an applied split: later siblings shift right;
// descents past the split position move under the new right sibling.
func splitShift(q address.Path, nodePath address.Path, pos int) address.Path {
	d := len(nodePath) - 1
	if d < 0 || len(q) <= d || !q[:d].Equal(nodePath[:d]) {
		return q.Clone()
	}
	out := q.Clone()
	if out[d] > nodePath[d] {
		out[d]++
		return out
	}
	if out[d] != nodePath[d] {
		return out
	}
	// Inside the split node: child indices at or past pos move to the new
	// sibling.
	if len(out) > d+1 && out[d+1] >= pos {
		out[d]++
		out[d+1] -= pos
	}
	return out
}

func xformAgainstMerge(o Operation, a *MergeNodes) (Operation, bool, error) {
	if v, ok := o.(*MergeNodes); ok && v.Path.Equal(a.Path) {
		return nil, false, nil
	}

	// Text ops addressed at the absorbed right sibling move onto the merged
	// node with their offsets advanced by the split point.
	sib := withLeaf(a.Path, a.Path.Leaf()+1)
	if target := samePathTextTarget(o, sib); target != nil && a.Position > 0 {
		c := o.Clone()
		switch v := c.(type) {
		case *InsertText:
			v.Path = a.Path.Clone()
			v.Offset += a.Position
		case *DeleteText:
			v.Path = a.Path.Clone()
			v.Offset += a.Position
		case *ApplyMark:
			v.Path = a.Path.Clone()
			v.Start += a.Position
			v.End += a.Position
		case *RemoveMark:
			v.Path = a.Path.Clone()
			v.Start += a.Position
			v.End += a.Position
		case *SplitNode:
			v.Path = a.Path.Clone()
			v.Position += a.Position
		}
		return c, true, nil
	}

	return remapPaths(o,
		func(q address.Path) (address.Path, bool) { return mergeShift(q, a.Path, a.Position), true },
		func(q address.Path) (address.Path, bool) { return mergeShift(q, a.Path, a.Position), true },
	)
}

// mergeShift maps paths around an applied merge: the right sibling's
// descendants land inside the merged node offset by the split point, and
// later siblings shift left.
func mergeShift(q address.Path, nodePath address.Path, pos int) address.Path {
	d := len(nodePath) - 1
	if d < 0 || len(q) <= d || !q[:d].Equal(nodePath[:d]) {
		return q.Clone()
	}
	out := q.Clone()
	sibIdx := nodePath[d] + 1
	switch {
	case out[d] > sibIdx:
		out[d]--
	case out[d] == sibIdx:
		out[d] = nodePath[d]
		if len(out) > d+1 {
			out[d+1] += pos
		}
	}
	return out
}

func xformAgainstMove(o Operation, a *MoveNode) (Operation, bool, error) {
	if v, ok := o.(*MoveNode); ok && v.Path.Equal(a.Path) {
		return nil, false, nil
	}
	landed := landedPath(a)

	mapper := func(q address.Path) (address.Path, bool) {
		// Anything inside the moved subtree follows it to its new home.
		if q.HasPrefix(a.Path) {
			out := landed.Clone()
			out = append(out, q[len(a.Path):]...)
			return out, true
		}
		q1, ok := removeShift(q, a.Path, true)
		if !ok {
			return nil, false
		}
		return insertShift(q1, landed, false), true
	}
	return remapPaths(o, mapper, mapper)
}
