package op

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/dshills/docstorm/internal/engine/address"
	"github.com/dshills/docstorm/internal/engine/doc"
)

func TestCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Operation
	}{
		{"insertText", &InsertText{Path: address.Path{0, 1}, Offset: 5, Text: " there"}},
		{"deleteText", &DeleteText{Path: address.Path{0, 0}, Offset: 2, Count: 3, Text: "llo"}},
		{"applyMark", &ApplyMark{Path: address.Path{0, 0}, Mark: doc.Mark{Type: doc.MarkColor, Value: "#f00"}, Start: 0, End: 5, Shift: 1}},
		{"removeMark", &RemoveMark{Path: address.Path{0, 0}, Mark: doc.Mark{Type: doc.MarkBold}, Start: 0, End: 5, Shift: -1}},
		{"insertNode", &InsertNode{Path: address.Path{0}, Index: 1, Node: &doc.TextNode{
			ID:    "t3",
			Text:  "hi",
			Marks: []doc.Mark{{Type: doc.MarkItalic}},
		}}},
		{"removeNode", &RemoveNode{Path: address.Path{0}, Index: 1, Node: &doc.ElementNode{
			ID:         "e3",
			Type:       "blockquote",
			Attributes: map[string]any{"cite": "src"},
			Children:   []doc.Node{&doc.TextNode{ID: "t4", Text: "quoted"}},
		}}},
		{"setNode", &SetNode{
			Path:          address.Path{0},
			Properties:    map[string]any{"type": "heading", "level": float64(2)},
			OldProperties: map[string]any{"type": "paragraph", "level": nil},
		}},
		{"mergeNodes", &MergeNodes{Path: address.Path{0, 0}, Position: 4}},
		{"splitNode", &SplitNode{Path: address.Path{0, 0}, Position: 2}},
		{"moveNode", &MoveNode{Path: address.Path{0, 0}, NewPath: address.Path{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeOperation(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if kind := gjson.GetBytes(data, "kind").String(); kind != tt.name {
				t.Errorf("kind field = %q, want %q", kind, tt.name)
			}
			got, err := DecodeOperation(data)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.in, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodecEmptyPath(t *testing.T) {
	data, err := EncodeOperation(&InsertNode{Path: address.Path{}, Index: 0, Node: &doc.TextNode{ID: "t1"}})
	if err != nil {
		t.Fatal(err)
	}
	// A root-level path serializes as an empty array, never null.
	if p := gjson.GetBytes(data, "path"); !p.IsArray() || len(p.Array()) != 0 {
		t.Errorf("path = %s, want []", p.Raw)
	}
	got, err := DecodeOperation(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.(*InsertNode).Path) != 0 {
		t.Errorf("decoded path = %v, want empty", got.(*InsertNode).Path)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := DecodeOperation([]byte(`{"kind":"frobnicate","path":[0]}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestBatchRoundTrip(t *testing.T) {
	ops := []Operation{
		&InsertText{Path: address.Path{0, 0}, Offset: 0, Text: "a"},
		&SplitNode{Path: address.Path{0, 0}, Position: 1},
	}
	data, err := EncodeBatch(ops)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeBatch(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ops, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
