package address

import (
	"strconv"
	"strings"

	"github.com/dshills/docstorm/internal/engine/doc"
)

// Path is an ordered list of child indices locating a node from the document
// root. The empty path addresses the root itself.
type Path []int

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Equal reports whether two paths are identical.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Compare orders paths by document order: the first differing index wins;
// otherwise the shorter path (an ancestor) sorts first.
func (p Path) Compare(q Path) int {
	for i := 0; i < len(p) && i < len(q); i++ {
		if p[i] != q[i] {
			if p[i] < q[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(p) < len(q):
		return -1
	case len(p) > len(q):
		return 1
	}
	return 0
}

// HasPrefix reports whether prefix addresses p or one of p's ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Parent returns the path of the node's parent. The root has no parent.
func (p Path) Parent() (Path, bool) {
	if len(p) == 0 {
		return nil, false
	}
	return p[:len(p)-1].Clone(), true
}

// Leaf returns the last index of the path. The root has no leaf index.
func (p Path) Leaf() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// String renders the path as "[0 2 1]"-style for errors and logs.
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, idx := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	b.WriteByte(']')
	return b.String()
}

// NodeAt resolves a path against the model's current tree. It returns nil
// when an index is out of bounds or the path descends into a text node.
func NodeAt(m *doc.Model, p Path) doc.Node {
	var n doc.Node = m.Document()
	for _, idx := range p {
		e, ok := n.(*doc.ElementNode)
		if !ok {
			return nil
		}
		if idx < 0 || idx >= len(e.Children) {
			return nil
		}
		n = e.Children[idx]
	}
	return n
}

// ParentAt resolves the path's parent as an element along with the leaf
// index. It returns ok=false when the path is empty or does not resolve.
func ParentAt(m *doc.Model, p Path) (*doc.ElementNode, int, bool) {
	if len(p) == 0 {
		return nil, 0, false
	}
	parent, ok := NodeAt(m, p[:len(p)-1]).(*doc.ElementNode)
	if !ok {
		return nil, 0, false
	}
	return parent, p[len(p)-1], true
}

// PathOf computes the index path of target by depth-first search from the
// root. O(tree size), which is acceptable for editing-sized trees.
func PathOf(m *doc.Model, target doc.Node) (Path, bool) {
	if target == nil {
		return nil, false
	}
	if target == doc.Node(m.Document()) {
		return Path{}, true
	}
	return searchPath(m.Document(), target, nil)
}

func searchPath(n *doc.ElementNode, target doc.Node, prefix Path) (Path, bool) {
	for i, c := range n.Children {
		p := append(prefix.Clone(), i)
		if c == target {
			return p, true
		}
		if e, ok := c.(*doc.ElementNode); ok {
			if found, ok := searchPath(e, target, p); ok {
				return found, true
			}
		}
	}
	return nil, false
}
