package doc

import "testing"

func TestNewModelHasRoot(t *testing.T) {
	m := NewModel()
	root := m.Document()
	if root == nil {
		t.Fatal("no root")
	}
	if root.Type != RootType {
		t.Errorf("root type = %q, want %q", root.Type, RootType)
	}
	if root.ID == "" {
		t.Error("root has no id")
	}
}

func TestFactoriesAssignUniqueIDs(t *testing.T) {
	m := NewModel()
	seen := map[NodeID]bool{m.Document().ID: true}

	for i := 0; i < 100; i++ {
		var n Node
		if i%2 == 0 {
			n = m.NewTextNode("x")
		} else {
			n = m.NewElementNode("paragraph", nil)
		}
		if seen[n.NodeID()] {
			t.Fatalf("id %q reused", n.NodeID())
		}
		seen[n.NodeID()] = true
	}
}

func TestUUIDSource(t *testing.T) {
	m := NewModel(WithIDSource(UUIDSource{}))
	a := m.NewTextNode("a")
	b := m.NewTextNode("b")
	if a.ID == b.ID {
		t.Error("uuid source reused an id")
	}
	if len(a.ID) != 36 {
		t.Errorf("id %q does not look like a uuid", a.ID)
	}
}

func TestFindNodeByID(t *testing.T) {
	m := NewModel()
	inner := m.NewTextNode("deep")
	para := m.NewElementNode("paragraph", nil, m.NewTextNode("first"), inner)
	m.AppendChild(m.NewElementNode("heading", nil))
	m.AppendChild(para)

	got, ok := m.FindNodeByID(inner.ID)
	if !ok {
		t.Fatal("node not found")
	}
	if got != Node(inner) {
		t.Error("found wrong node")
	}

	if _, ok := m.FindNodeByID("missing"); ok {
		t.Error("found a node that does not exist")
	}
}

func TestNodesByTypePreorder(t *testing.T) {
	m := NewModel()
	p1 := m.NewElementNode("paragraph", nil)
	quote := m.NewElementNode("quote", nil, p1)
	p2 := m.NewElementNode("paragraph", nil)
	m.AppendChild(quote)
	m.AppendChild(p2)

	got := m.NodesByType("paragraph")
	if len(got) != 2 {
		t.Fatalf("got %d paragraphs, want 2", len(got))
	}
	if got[0] != p1 || got[1] != p2 {
		t.Error("wrong preorder")
	}
}

func TestSetDocumentReplacesTree(t *testing.T) {
	m := NewModel()
	old := m.NewTextNode("old")
	m.AppendChild(old)

	next := m.NewElementNode(RootType, nil, m.NewTextNode("new"))
	m.SetDocument(next)

	if m.Document() != next {
		t.Error("root not replaced")
	}
	if _, ok := m.FindNodeByID(old.ID); ok {
		t.Error("old node still reachable")
	}

	m.SetDocument(nil)
	if m.Document() == nil || m.Document().Type != RootType {
		t.Error("nil SetDocument should install an empty root")
	}
}

func TestAddMarkIdempotent(t *testing.T) {
	m := NewModel()
	tn := m.NewTextNode("hi")
	tn.AddMark(Mark{Type: MarkBold})
	tn.AddMark(Mark{Type: MarkBold})
	if len(tn.Marks) != 1 {
		t.Errorf("got %d marks, want 1", len(tn.Marks))
	}

	tn.AddMark(Mark{Type: MarkColor, Value: "#f00"})
	tn.AddMark(Mark{Type: MarkColor, Value: "#0f0"})
	if len(tn.Marks) != 2 {
		t.Fatalf("got %d marks, want 2", len(tn.Marks))
	}
	if !tn.HasMark(MarkColor) {
		t.Fatal("color mark missing")
	}
	for _, mk := range tn.Marks {
		if mk.Type == MarkColor && mk.Value != "#0f0" {
			t.Errorf("color value = %q, want replacement", mk.Value)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := NewModel()
	tn := m.NewTextNode("hello", Mark{Type: MarkItalic})
	para := m.NewElementNode("paragraph", map[string]any{"align": "left"}, tn)

	clone := para.Clone().(*ElementNode)
	clone.Attributes["align"] = "right"
	clone.Children[0].(*TextNode).Text = "changed"
	clone.Children[0].(*TextNode).Marks[0] = Mark{Type: MarkBold}

	if para.Attributes["align"] != "left" {
		t.Error("attribute shared with clone")
	}
	if tn.Text != "hello" {
		t.Error("text shared with clone")
	}
	if tn.Marks[0].Type != MarkItalic {
		t.Error("marks shared with clone")
	}
	if clone.ID != para.ID {
		t.Error("clone should preserve ids")
	}
}

func TestInsertRemoveChild(t *testing.T) {
	m := NewModel()
	e := m.NewElementNode("paragraph", nil, m.NewTextNode("a"), m.NewTextNode("c"))
	b := m.NewTextNode("b")

	e.InsertChild(1, b)
	if len(e.Children) != 3 || e.Children[1] != Node(b) {
		t.Fatal("insert at index 1 failed")
	}

	removed := e.RemoveChild(1)
	if removed != Node(b) || len(e.Children) != 2 {
		t.Fatal("remove at index 1 failed")
	}
}

func TestGraphemeBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		offset int
		want   bool
	}{
		{"start", "héllo", 0, true},
		{"end", "héllo", 6, true},
		{"ascii middle", "hello", 2, true},
		{"inside utf8 sequence", "héllo", 2, false},
		{"after multibyte rune", "héllo", 3, true},
		{"inside combining pair", "éx", 1, false},
		{"after combining pair", "éx", 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBoundary(tt.s, tt.offset); got != tt.want {
				t.Errorf("IsBoundary(%q, %d) = %v, want %v", tt.s, tt.offset, got, tt.want)
			}
		})
	}

	if got := SnapToBoundary("héllo", 2); got != 1 {
		t.Errorf("SnapToBoundary = %d, want 1", got)
	}
	if got := GraphemeCount("éx"); got != 2 {
		t.Errorf("GraphemeCount = %d, want 2", got)
	}
}
