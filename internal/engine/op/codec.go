package op

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/docstorm/internal/engine/address"
	"github.com/dshills/docstorm/internal/engine/doc"
)

// Wire structures for the default transport boundary. Back-filled fields
// are carried so a receiver can invert and transform without re-applying.

type wireMark struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

type wireNode struct {
	ID         string         `json:"id"`
	Text       *string        `json:"text,omitempty"`
	Marks      []wireMark     `json:"marks,omitempty"`
	Type       string         `json:"type,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Children   []wireNode     `json:"children,omitempty"`
}

type wireOp struct {
	Kind          string         `json:"kind"`
	Path          []int          `json:"path"`
	NewPath       []int          `json:"newPath,omitempty"`
	Offset        int            `json:"offset,omitempty"`
	Count         int            `json:"count,omitempty"`
	Text          string         `json:"text,omitempty"`
	Mark          *wireMark      `json:"mark,omitempty"`
	Start         int            `json:"start,omitempty"`
	End           int            `json:"end,omitempty"`
	Shift         int            `json:"shift,omitempty"`
	Index         int            `json:"index,omitempty"`
	Node          *wireNode      `json:"node,omitempty"`
	Properties    map[string]any `json:"properties,omitempty"`
	OldProperties map[string]any `json:"oldProperties,omitempty"`
	Position      int            `json:"position,omitempty"`
}

func nodeToWire(n doc.Node) *wireNode {
	switch v := n.(type) {
	case *doc.TextNode:
		text := v.Text
		w := &wireNode{ID: string(v.ID), Text: &text}
		for _, m := range v.Marks {
			w.Marks = append(w.Marks, wireMark{Type: string(m.Type), Value: m.Value})
		}
		return w
	case *doc.ElementNode:
		w := &wireNode{ID: string(v.ID), Type: v.Type, Attributes: v.Attributes}
		for _, c := range v.Children {
			w.Children = append(w.Children, *nodeToWire(c))
		}
		return w
	}
	return nil
}

func nodeFromWire(w *wireNode) (doc.Node, error) {
	if w == nil {
		return nil, nil
	}
	if w.Text != nil {
		t := &doc.TextNode{ID: doc.NodeID(w.ID), Text: *w.Text}
		for _, m := range w.Marks {
			t.AddMark(doc.Mark{Type: doc.MarkType(m.Type), Value: m.Value})
		}
		return t, nil
	}
	if w.Type == "" {
		return nil, fmt.Errorf("node %q is neither text nor element", w.ID)
	}
	e := &doc.ElementNode{ID: doc.NodeID(w.ID), Type: w.Type, Attributes: w.Attributes}
	for i := range w.Children {
		c, err := nodeFromWire(&w.Children[i])
		if err != nil {
			return nil, err
		}
		e.Children = append(e.Children, c)
	}
	return e, nil
}

// EncodeOperation renders an operation as JSON for the transport boundary.
func EncodeOperation(o Operation) ([]byte, error) {
	w := wireOp{Kind: o.Kind().String()}
	switch v := o.(type) {
	case *InsertText:
		w.Path, w.Offset, w.Text = v.Path, v.Offset, v.Text
	case *DeleteText:
		w.Path, w.Offset, w.Count, w.Text = v.Path, v.Offset, v.Count, v.Text
	case *ApplyMark:
		w.Path, w.Start, w.End, w.Shift = v.Path, v.Start, v.End, v.Shift
		w.Mark = &wireMark{Type: string(v.Mark.Type), Value: v.Mark.Value}
	case *RemoveMark:
		w.Path, w.Start, w.End, w.Shift = v.Path, v.Start, v.End, v.Shift
		w.Mark = &wireMark{Type: string(v.Mark.Type), Value: v.Mark.Value}
	case *InsertNode:
		w.Path, w.Index, w.Node = v.Path, v.Index, nodeToWire(v.Node)
	case *RemoveNode:
		w.Path, w.Index, w.Node = v.Path, v.Index, nodeToWire(v.Node)
	case *SetNode:
		w.Path, w.Properties, w.OldProperties = v.Path, v.Properties, v.OldProperties
	case *MergeNodes:
		w.Path, w.Position = v.Path, v.Position
	case *SplitNode:
		w.Path, w.Position = v.Path, v.Position
	case *MoveNode:
		w.Path, w.NewPath = v.Path, v.NewPath
	default:
		return nil, ErrUnknownKind
	}
	if w.Path == nil {
		w.Path = []int{}
	}
	return json.Marshal(w)
}

// DecodeOperation parses a single operation. An unrecognized kind is an
// error; there is no generic fallback.
func DecodeOperation(data []byte) (Operation, error) {
	kind := gjson.GetBytes(data, "kind")
	if !kind.Exists() {
		return nil, fmt.Errorf("%w: missing kind", ErrUnknownKind)
	}
	var w wireOp
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding %s operation: %w", kind.String(), err)
	}
	path := address.Path(w.Path)

	switch kind.String() {
	case "insertText":
		return &InsertText{Path: path, Offset: w.Offset, Text: w.Text}, nil
	case "deleteText":
		return &DeleteText{Path: path, Offset: w.Offset, Count: w.Count, Text: w.Text}, nil
	case "applyMark", "removeMark":
		if w.Mark == nil {
			return nil, fmt.Errorf("%s operation without a mark", kind.String())
		}
		mark := doc.Mark{Type: doc.MarkType(w.Mark.Type), Value: w.Mark.Value}
		if kind.String() == "applyMark" {
			return &ApplyMark{Path: path, Mark: mark, Start: w.Start, End: w.End, Shift: w.Shift}, nil
		}
		return &RemoveMark{Path: path, Mark: mark, Start: w.Start, End: w.End, Shift: w.Shift}, nil
	case "insertNode", "removeNode":
		n, err := nodeFromWire(w.Node)
		if err != nil {
			return nil, err
		}
		if kind.String() == "insertNode" {
			return &InsertNode{Path: path, Index: w.Index, Node: n}, nil
		}
		return &RemoveNode{Path: path, Index: w.Index, Node: n}, nil
	case "setNode":
		return &SetNode{Path: path, Properties: w.Properties, OldProperties: w.OldProperties}, nil
	case "mergeNodes":
		return &MergeNodes{Path: path, Position: w.Position}, nil
	case "splitNode":
		return &SplitNode{Path: path, Position: w.Position}, nil
	case "moveNode":
		return &MoveNode{Path: path, NewPath: address.Path(w.NewPath)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind.String())
	}
}

// EncodeBatch renders a slice of operations as a JSON array.
func EncodeBatch(ops []Operation) ([]byte, error) {
	raw := make([]json.RawMessage, len(ops))
	for i, o := range ops {
		data, err := EncodeOperation(o)
		if err != nil {
			return nil, err
		}
		raw[i] = data
	}
	return json.Marshal(raw)
}

// DecodeBatch parses a JSON array of operations.
func DecodeBatch(data []byte) ([]Operation, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("operation batch is not an array")
	}
	var ops []Operation
	for _, item := range parsed.Array() {
		o, err := DecodeOperation([]byte(item.Raw))
		if err != nil {
			return nil, err
		}
		ops = append(ops, o)
	}
	return ops, nil
}
