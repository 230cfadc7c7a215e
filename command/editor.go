// Package command defines the commands a client can run through the command
// channel, their typed arguments, and the editor capabilities they need.
package command

// Pos is a zero-based position in a document. Ch counts UTF-8 bytes within
// the line. Document offsets are UTF-8 byte offsets too; editors snap a
// position or offset that falls inside a multi-byte character back to the
// start of that character.
type Pos struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// Less reports whether p is before q.
func (p Pos) Less(q Pos) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Ch < q.Ch
}

// Editor is the host editor a command runs against. Implementations clamp
// out-of-range positions and offsets to the document.
type Editor interface {
	// LineCount returns the number of lines; an empty document has one.
	LineCount() int
	// Line returns the text of line n without its line break.
	Line(n int) string
	// Range returns the text between from and to.
	Range(from, to Pos) string
	// OffsetToPos converts a document offset to a position.
	OffsetToPos(offset int) Pos
	// PosToOffset converts a position to a document offset.
	PosToOffset(p Pos) int

	// Cursor returns the selection head.
	Cursor() Pos
	// SelectionRange returns the selection bounds in document order.
	SelectionRange() (from, to Pos)
	// Selection returns the selected text, or "" when nothing is selected.
	Selection() string
	// SetCursor collapses the selection to p.
	SetCursor(p Pos)
	// SetSelection selects from anchor to head.
	SetSelection(anchor, head Pos)
	// WordAt returns the bounds of the word containing p.
	WordAt(p Pos) (from, to Pos, ok bool)

	// ReplaceSelection replaces the selection with text and places the
	// cursor after it.
	ReplaceSelection(text string)
	// ReplaceRange replaces the text between from and to.
	ReplaceRange(text string, from, to Pos)

	// HasFocus reports whether this editor is the focused one.
	HasFocus() bool
}

// View exposes host application state around the editor.
type View interface {
	// FilePath returns the path of the open file, or "" if there is none.
	FilePath() string
}
