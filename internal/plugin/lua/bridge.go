package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/docstorm/internal/engine/address"
	"github.com/dshills/docstorm/internal/engine/collab"
	"github.com/dshills/docstorm/internal/engine/doc"
	"github.com/dshills/docstorm/internal/engine/op"
)

// DefaultMaxOps is the default per-macro operation budget.
const DefaultMaxOps = 10000

// Option configures a Bridge.
type Option func(*Bridge)

// WithMaxOps sets the per-macro operation budget. Zero means unlimited.
func WithMaxOps(n int) Option {
	return func(b *Bridge) {
		if n >= 0 {
			b.maxOps = n
		}
	}
}

// WithEnabled turns the bridge on or off.
func WithEnabled(enabled bool) Option {
	return func(b *Bridge) {
		b.enabled = enabled
	}
}

// Bridge runs Lua macros against a document through its collaboration
// manager, so macro edits batch, broadcast, and undo exactly like local
// edits.
type Bridge struct {
	collab  *collab.Collab
	maxOps  int
	enabled bool
}

// New creates a macro bridge over a collaboration manager.
func New(c *collab.Collab, opts ...Option) *Bridge {
	b := &Bridge{
		collab:  c,
		maxOps:  DefaultMaxOps,
		enabled: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes script as one undo batch named name and returns the
// composed operations the macro applied. A script error rolls every edit
// back; on success the batch broadcasts as a single envelope. Each macro
// runs in a fresh sandboxed Lua state.
func (b *Bridge) Run(name, script string) ([]op.Operation, error) {
	if !b.enabled {
		return nil, ErrDisabled
	}
	return b.collab.Transact(name, func(apply func(op.Operation) error) error {
		L := lua.NewState()
		defer L.Close()
		sandbox(L)

		// Go-side failures are raised as Lua errors to stop the script,
		// but the original error is what the caller gets back.
		var opErr error
		count := 0
		applyChecked := func(o op.Operation) error {
			count++
			if b.maxOps > 0 && count > b.maxOps {
				return ErrOpBudget
			}
			return apply(o)
		}
		b.registerDocTable(L, applyChecked, &opErr)

		if err := L.DoString(script); err != nil {
			if opErr != nil {
				return opErr
			}
			return fmt.Errorf("macro %q: %w", name, err)
		}
		return nil
	})
}

// sandbox removes script loading and host access from a fresh state.
func sandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)
	L.SetGlobal("debug", lua.LNil)
}

// registerDocTable installs the doc edit API. Every edit funnels through
// apply; the first Go error is stored in opErr and raised.
func (b *Bridge) registerDocTable(L *lua.LState, apply func(op.Operation) error, opErr *error) {
	model := b.collab.History().Model()

	do := func(L *lua.LState, o op.Operation) {
		if err := apply(o); err != nil {
			if *opErr == nil {
				*opErr = err
			}
			L.RaiseError("%v", err)
		}
	}

	t := L.NewTable()

	L.SetField(t, "insert_text", L.NewFunction(func(L *lua.LState) int {
		do(L, &op.InsertText{
			Path:   pathArg(L, 1),
			Offset: L.CheckInt(2),
			Text:   L.CheckString(3),
		})
		return 0
	}))

	L.SetField(t, "delete_text", L.NewFunction(func(L *lua.LState) int {
		do(L, &op.DeleteText{
			Path:   pathArg(L, 1),
			Offset: L.CheckInt(2),
			Count:  L.CheckInt(3),
		})
		return 0
	}))

	L.SetField(t, "apply_mark", L.NewFunction(func(L *lua.LState) int {
		do(L, &op.ApplyMark{
			Path:  pathArg(L, 1),
			Mark:  markArg(L, 2, 5),
			Start: L.CheckInt(3),
			End:   L.CheckInt(4),
		})
		return 0
	}))

	L.SetField(t, "remove_mark", L.NewFunction(func(L *lua.LState) int {
		do(L, &op.RemoveMark{
			Path:  pathArg(L, 1),
			Mark:  markArg(L, 2, 5),
			Start: L.CheckInt(3),
			End:   L.CheckInt(4),
		})
		return 0
	}))

	L.SetField(t, "insert_paragraph", L.NewFunction(func(L *lua.LState) int {
		index := L.CheckInt(1)
		text := L.CheckString(2)
		node := model.NewElementNode("paragraph", nil, model.NewTextNode(text))
		do(L, &op.InsertNode{Path: address.Path{}, Index: index, Node: node})
		return 0
	}))

	L.SetField(t, "remove_node", L.NewFunction(func(L *lua.LState) int {
		do(L, &op.RemoveNode{
			Path:  pathArg(L, 1),
			Index: L.CheckInt(2),
		})
		return 0
	}))

	L.SetField(t, "set_attr", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(2)
		do(L, &op.SetNode{
			Path:       pathArg(L, 1),
			Properties: map[string]any{key: goValue(L.Get(3))},
		})
		return 0
	}))

	L.SetField(t, "split_node", L.NewFunction(func(L *lua.LState) int {
		do(L, &op.SplitNode{
			Path:     pathArg(L, 1),
			Position: L.CheckInt(2),
		})
		return 0
	}))

	L.SetField(t, "merge_nodes", L.NewFunction(func(L *lua.LState) int {
		do(L, &op.MergeNodes{Path: pathArg(L, 1)})
		return 0
	}))

	L.SetField(t, "move_node", L.NewFunction(func(L *lua.LState) int {
		do(L, &op.MoveNode{
			Path:    pathArg(L, 1),
			NewPath: pathArg(L, 2),
		})
		return 0
	}))

	L.SetField(t, "text_of", L.NewFunction(func(L *lua.LState) int {
		p := pathArg(L, 1)
		tn, ok := address.NodeAt(model, p).(*doc.TextNode)
		if !ok {
			L.RaiseError("no text node at %s", p)
			return 0
		}
		L.Push(lua.LString(tn.Text))
		return 1
	}))

	L.SetGlobal("doc", t)
}

// pathArg reads a Lua array of integers as a document path.
func pathArg(L *lua.LState, n int) address.Path {
	t := L.CheckTable(n)
	p := make(address.Path, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		v := t.RawGetInt(i)
		num, ok := v.(lua.LNumber)
		if !ok {
			L.ArgError(n, fmt.Sprintf("path element %d is not a number", i))
		}
		p = append(p, int(num))
	}
	return p
}

// markArg reads a mark type at index n and an optional value at valueIdx.
func markArg(L *lua.LState, n, valueIdx int) doc.Mark {
	mt := doc.MarkType(L.CheckString(n))
	if !mt.Valid() {
		L.ArgError(n, fmt.Sprintf("unknown mark type %q", string(mt)))
	}
	m := doc.Mark{Type: mt}
	if v := L.Get(valueIdx); v != lua.LNil {
		m.Value = lua.LVAsString(v)
	}
	return m
}

// goValue converts a Lua scalar to the Go value stored in node attributes.
func goValue(lv lua.LValue) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	default:
		return nil
	}
}
