package doc

// MarkType identifies a kind of formatting mark.
type MarkType string

// The closed set of mark types.
const (
	MarkBold          MarkType = "bold"
	MarkItalic        MarkType = "italic"
	MarkUnderline     MarkType = "underline"
	MarkStrikethrough MarkType = "strikethrough"
	MarkCode          MarkType = "code"
	MarkColor         MarkType = "color"
	MarkBackground    MarkType = "background"
)

// Valid reports whether mt is one of the known mark types.
func (mt MarkType) Valid() bool {
	switch mt {
	case MarkBold, MarkItalic, MarkUnderline, MarkStrikethrough,
		MarkCode, MarkColor, MarkBackground:
		return true
	}
	return false
}

// Mark is a formatting attribute attached to a text node. Value is used only
// by color and background marks.
type Mark struct {
	Type  MarkType
	Value string
}

// String returns the mark type, with the value appended for valued marks.
func (m Mark) String() string {
	if m.Value == "" {
		return string(m.Type)
	}
	return string(m.Type) + "=" + m.Value
}
