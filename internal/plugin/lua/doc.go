// Package lua runs document macros in a sandboxed Lua state.
//
// A macro is a Lua script driving a `doc` table of edit functions. The
// whole script runs as one undo batch: a single host undo reverts every
// edit the macro made, and a script error rolls all of them back as if the
// macro never ran.
//
//	local n = doc.insert_paragraph(1, "notes")
//	doc.insert_text({1, 0}, 5, ":")
//	doc.apply_mark({1, 0}, "bold", 0, 5)
//
// Paths are zero-based integer arrays from the document root; offsets are
// zero-based byte offsets, matching the operation layer.
//
// The state is sandboxed: no file, shell, or network access, and script
// loading primitives are removed. A per-macro operation budget bounds
// runaway scripts.
package lua
