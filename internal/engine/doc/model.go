package doc

// Model owns the document tree and allocates node identities. It is created
// once per editing session. The model itself is not goroutine-safe: all
// mutation happens on the single flow that owns it (see the engine package).
type Model struct {
	ids  IDSource
	root *ElementNode
}

// Option configures a Model during creation.
type Option func(*Model)

// WithIDSource sets the id source used by the node factories.
func WithIDSource(src IDSource) Option {
	return func(m *Model) {
		if src != nil {
			m.ids = src
		}
	}
}

// NewModel creates a model with an empty root element.
func NewModel(opts ...Option) *Model {
	m := &Model{ids: NewCounterSource()}
	for _, opt := range opts {
		opt(m)
	}
	m.root = &ElementNode{ID: m.ids.NextID(), Type: RootType}
	return m
}

// NewTextNode creates a text node with a fresh id.
func (m *Model) NewTextNode(text string, marks ...Mark) *TextNode {
	t := &TextNode{ID: m.ids.NextID(), Text: text}
	for _, mk := range marks {
		t.AddMark(mk)
	}
	return t
}

// NewElementNode creates an element node with a fresh id.
func (m *Model) NewElementNode(typ string, attrs map[string]any, children ...Node) *ElementNode {
	e := &ElementNode{ID: m.ids.NextID(), Type: typ, Attributes: attrs}
	if len(children) > 0 {
		e.Children = append(e.Children, children...)
	}
	return e
}

// NextID exposes the model's id source for structural operations that create
// nodes outside the factories (splits in the apply engine).
func (m *Model) NextID() NodeID {
	return m.ids.NextID()
}

// AppendChild appends a node to the root's children.
func (m *Model) AppendChild(n Node) {
	m.root.Children = append(m.root.Children, n)
}

// Document returns the root element. Callers must treat the tree as
// read-only; all mutation goes through operations.
func (m *Model) Document() *ElementNode {
	return m.root
}

// SetDocument replaces the whole tree. The previous tree and every path or
// node reference into it become invalid.
func (m *Model) SetDocument(root *ElementNode) {
	if root == nil {
		root = &ElementNode{ID: m.ids.NextID(), Type: RootType}
	}
	m.root = root
}

// FindNodeByID returns the first node with the given id in depth-first
// order, or false if no node matches.
func (m *Model) FindNodeByID(id NodeID) (Node, bool) {
	return findByID(m.root, id)
}

func findByID(n Node, id NodeID) (Node, bool) {
	if n.NodeID() == id {
		return n, true
	}
	if e, ok := n.(*ElementNode); ok {
		for _, c := range e.Children {
			if found, ok := findByID(c, id); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// NodesByType returns every element of the given type in depth-first
// preorder.
func (m *Model) NodesByType(typ string) []*ElementNode {
	var out []*ElementNode
	collectByType(m.root, typ, &out)
	return out
}

func collectByType(n Node, typ string, out *[]*ElementNode) {
	e, ok := n.(*ElementNode)
	if !ok {
		return
	}
	if e.Type == typ {
		*out = append(*out, e)
	}
	for _, c := range e.Children {
		collectByType(c, typ, out)
	}
}

// TextNodes returns every text node in depth-first preorder.
func (m *Model) TextNodes() []*TextNode {
	var out []*TextNode
	collectText(m.root, &out)
	return out
}

func collectText(n Node, out *[]*TextNode) {
	switch v := n.(type) {
	case *TextNode:
		*out = append(*out, v)
	case *ElementNode:
		for _, c := range v.Children {
			collectText(c, out)
		}
	}
}
