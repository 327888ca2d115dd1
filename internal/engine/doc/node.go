package doc

// NodeID uniquely identifies a node within a model's lifetime.
// Ids are assigned at creation by the model's IDSource and never reused.
type NodeID string

// RootType is the element type of every document root.
const RootType = "root"

// Node is a member of the document tree: either a *TextNode leaf or an
// *ElementNode container.
type Node interface {
	// NodeID returns the node's stable identity.
	NodeID() NodeID

	// Clone returns a deep copy of the node, preserving ids.
	Clone() Node
}

// TextNode is a leaf holding a run of text with uniform formatting marks.
type TextNode struct {
	ID    NodeID
	Text  string
	Marks []Mark
}

// NodeID returns the node's stable identity.
func (t *TextNode) NodeID() NodeID { return t.ID }

// Clone returns a deep copy of the text node, preserving its id.
func (t *TextNode) Clone() Node {
	clone := &TextNode{
		ID:   t.ID,
		Text: t.Text,
	}
	if t.Marks != nil {
		clone.Marks = make([]Mark, len(t.Marks))
		copy(clone.Marks, t.Marks)
	}
	return clone
}

// HasMark reports whether a mark of the given type is present.
func (t *TextNode) HasMark(mt MarkType) bool {
	for _, m := range t.Marks {
		if m.Type == mt {
			return true
		}
	}
	return false
}

// AddMark attaches a mark. Adding a mark type that is already present
// replaces its value rather than duplicating the entry.
func (t *TextNode) AddMark(mark Mark) {
	for i, m := range t.Marks {
		if m.Type == mark.Type {
			t.Marks[i] = mark
			return
		}
	}
	t.Marks = append(t.Marks, mark)
}

// RemoveMark detaches the mark of the given type if present.
func (t *TextNode) RemoveMark(mt MarkType) {
	for i, m := range t.Marks {
		if m.Type == mt {
			t.Marks = append(t.Marks[:i], t.Marks[i+1:]...)
			return
		}
	}
}

// MarksEqual reports whether two text nodes carry the same mark set,
// ignoring order.
func (t *TextNode) MarksEqual(other *TextNode) bool {
	if len(t.Marks) != len(other.Marks) {
		return false
	}
	for _, m := range t.Marks {
		found := false
		for _, o := range other.Marks {
			if m == o {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ElementNode is a container with a type tag, optional attributes, and an
// ordered child sequence.
type ElementNode struct {
	ID         NodeID
	Type       string
	Attributes map[string]any
	Children   []Node
}

// NodeID returns the node's stable identity.
func (e *ElementNode) NodeID() NodeID { return e.ID }

// Clone returns a deep copy of the element and its subtree, preserving ids.
func (e *ElementNode) Clone() Node {
	clone := &ElementNode{
		ID:   e.ID,
		Type: e.Type,
	}
	if e.Attributes != nil {
		clone.Attributes = make(map[string]any, len(e.Attributes))
		for k, v := range e.Attributes {
			clone.Attributes[k] = v
		}
	}
	if e.Children != nil {
		clone.Children = make([]Node, len(e.Children))
		for i, c := range e.Children {
			clone.Children[i] = c.Clone()
		}
	}
	return clone
}

// InsertChild splices a child in at index. Index must be in [0, len].
func (e *ElementNode) InsertChild(index int, n Node) {
	e.Children = append(e.Children, nil)
	copy(e.Children[index+1:], e.Children[index:])
	e.Children[index] = n
}

// RemoveChild splices out and returns the child at index.
func (e *ElementNode) RemoveChild(index int) Node {
	n := e.Children[index]
	e.Children = append(e.Children[:index], e.Children[index+1:]...)
	return n
}
