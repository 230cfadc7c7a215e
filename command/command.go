package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// Command is a decoded request. The set of implementations is closed: one
// type per Kind, all declared in this package.
type Command interface {
	Kind() Kind
	// Run executes the command. The returned value is sent back to the
	// client when it asked for the command output.
	Run(ctx context.Context, ed Editor, view View) (any, error)

	sealed()
}

// maxTextFlowLength bounds the text returned by GetTextFlowContext,
// not counting the selection itself.
const maxTextFlowLength = 20000

// JumpToLine moves the cursor to the start of a 1-based line.
type JumpToLine struct {
	Line int
}

// LineRange is an inclusive range of 1-based lines.
type LineRange struct {
	From, To int
}

// SelectLineRangeIncludingLineBreak selects whole lines, up to the start of
// the line after the range.
type SelectLineRangeIncludingLineBreak struct {
	LineRange
}

// SelectLineRangeForEditing selects whole lines without the final line break.
type SelectLineRangeForEditing struct {
	LineRange
}

// CopyLinesToCursor replaces the selection with a copy of whole lines.
type CopyLinesToCursor struct {
	LineRange
}

// SetSelection selects between two document offsets.
type SetSelection struct {
	From, To int
}

// GetTextFlowContext returns the selection and the text around it.
type GetTextFlowContext struct{}

// TextFlowContext is the return value of GetTextFlowContext. Offsets are
// UTF-8 byte offsets into the document; Text starts at TextStartOffset and
// always begins and ends on a character boundary.
type TextFlowContext struct {
	Text                string `json:"text"`
	SelectionFromOffset int    `json:"selectionFromOffset"`
	SelectionToOffset   int    `json:"selectionToOffset"`
	TextStartOffset     int    `json:"textStartOffset"`
}

// GetFilename returns the absolute path of the open file.
type GetFilename struct{}

// GetSelectedText returns the selected text.
type GetSelectedText struct{}

// SelectWord selects the word under the cursor.
type SelectWord struct{}

// InsertNewLineAbove inserts an empty line before a 1-based line.
type InsertNewLineAbove struct {
	Line int
}

// InsertNewLineBelow inserts an empty line after a 1-based line.
type InsertNewLineBelow struct {
	Line int
}

func (JumpToLine) Kind() Kind                        { return KindJumpToLine }
func (SelectLineRangeIncludingLineBreak) Kind() Kind { return KindSelectLineRangeIncludingLineBreak }
func (SelectLineRangeForEditing) Kind() Kind         { return KindSelectLineRangeForEditing }
func (CopyLinesToCursor) Kind() Kind                 { return KindCopyLinesToCursor }
func (SetSelection) Kind() Kind                      { return KindSetSelection }
func (GetTextFlowContext) Kind() Kind                { return KindGetTextFlowContext }
func (GetFilename) Kind() Kind                       { return KindGetFilename }
func (GetSelectedText) Kind() Kind                   { return KindGetSelectedText }
func (SelectWord) Kind() Kind                        { return KindSelectWord }
func (InsertNewLineAbove) Kind() Kind                { return KindInsertNewLineAbove }
func (InsertNewLineBelow) Kind() Kind                { return KindInsertNewLineBelow }

func (JumpToLine) sealed()                        {}
func (SelectLineRangeIncludingLineBreak) sealed() {}
func (SelectLineRangeForEditing) sealed()         {}
func (CopyLinesToCursor) sealed()                 {}
func (SetSelection) sealed()                      {}
func (GetTextFlowContext) sealed()                {}
func (GetFilename) sealed()                       {}
func (GetSelectedText) sealed()                   {}
func (SelectWord) sealed()                        {}
func (InsertNewLineAbove) sealed()                {}
func (InsertNewLineBelow) sealed()                {}

func checkLine(line int) error {
	if line < 1 {
		return fmt.Errorf("Line number must be greater than 0, but got: %d", line)
	}
	return nil
}

func checkLineExists(ed Editor, line int) error {
	if err := checkLine(line); err != nil {
		return err
	}
	if n := ed.LineCount(); line > n {
		return fmt.Errorf("Line number %d is past the end of the document (%d lines)", line, n)
	}
	return nil
}

func (r LineRange) check(ed Editor) error {
	if err := checkLineExists(ed, r.From); err != nil {
		return err
	}
	if r.To < r.From {
		return fmt.Errorf("End line %d is before start line %d", r.To, r.From)
	}
	return nil
}

// withLineBreak returns the range from the start of the first line to the
// start of the line after the last one, or to the end of the document when
// the range reaches the last line.
func (r LineRange) withLineBreak(ed Editor) (start, end Pos) {
	start = Pos{Line: r.From - 1}
	end = Pos{Line: r.To}
	if last := ed.LineCount() - 1; r.To > last {
		end = Pos{Line: last, Ch: len(ed.Line(last))}
	}
	return start, end
}

// forEditing returns the range from the start of the first line to the end
// of the last line, without its line break.
func (r LineRange) forEditing(ed Editor) (start, end Pos) {
	last := min(r.To, ed.LineCount()) - 1
	return Pos{Line: r.From - 1}, Pos{Line: last, Ch: len(ed.Line(last))}
}

func (c JumpToLine) Run(_ context.Context, ed Editor, _ View) (any, error) {
	// Input lines are 1-based, editor lines are 0-based.
	if err := checkLine(c.Line); err != nil {
		return nil, err
	}
	ed.SetCursor(Pos{Line: c.Line - 1})
	return nil, nil
}

func (c SelectLineRangeIncludingLineBreak) Run(_ context.Context, ed Editor, _ View) (any, error) {
	if err := c.check(ed); err != nil {
		return nil, err
	}
	ed.SetSelection(c.withLineBreak(ed))
	return nil, nil
}

func (c SelectLineRangeForEditing) Run(_ context.Context, ed Editor, _ View) (any, error) {
	if err := c.check(ed); err != nil {
		return nil, err
	}
	ed.SetSelection(c.forEditing(ed))
	return nil, nil
}

func (c CopyLinesToCursor) Run(_ context.Context, ed Editor, _ View) (any, error) {
	if err := c.check(ed); err != nil {
		return nil, err
	}
	ed.ReplaceSelection(ed.Range(c.withLineBreak(ed)))
	return nil, nil
}

func (c SetSelection) Run(_ context.Context, ed Editor, _ View) (any, error) {
	if c.From < 0 || c.To < 0 {
		return nil, fmt.Errorf("Offsets must not be negative, but got: %d, %d", c.From, c.To)
	}
	ed.SetSelection(ed.OffsetToPos(c.From), ed.OffsetToPos(c.To))
	return nil, nil
}

func (GetTextFlowContext) Run(_ context.Context, ed Editor, _ View) (any, error) {
	from, to := ed.SelectionRange()
	fromOffset := ed.PosToOffset(from)
	toOffset := ed.PosToOffset(to)

	last := ed.LineCount() - 1
	endOffset := ed.PosToOffset(Pos{Line: last, Ch: len(ed.Line(last))})

	// The selection does not count towards the text budget.
	// Round-tripping snaps the window edges to character boundaries, so
	// textStartOffset matches the first byte of text.
	startOffset := ed.PosToOffset(ed.OffsetToPos(max(0, fromOffset-maxTextFlowLength/2)))
	stopOffset := ed.PosToOffset(ed.OffsetToPos(min(endOffset, toOffset+maxTextFlowLength/2)))

	return TextFlowContext{
		Text:                ed.Range(ed.OffsetToPos(startOffset), ed.OffsetToPos(stopOffset)),
		SelectionFromOffset: fromOffset,
		SelectionToOffset:   toOffset,
		TextStartOffset:     startOffset,
	}, nil
}

var errNoFile = errors.New("No file is open in this editor")

func (GetFilename) Run(_ context.Context, _ Editor, view View) (any, error) {
	if view == nil {
		return nil, errNoFile
	}
	path := view.FilePath()
	if path == "" {
		return nil, errNoFile
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve file path: %w", err)
	}
	return abs, nil
}

func (GetSelectedText) Run(_ context.Context, ed Editor, _ View) (any, error) {
	return ed.Selection(), nil
}

func (SelectWord) Run(_ context.Context, ed Editor, _ View) (any, error) {
	if from, to, ok := ed.WordAt(ed.Cursor()); ok {
		ed.SetSelection(from, to)
	}
	return nil, nil
}

func (c InsertNewLineAbove) Run(_ context.Context, ed Editor, _ View) (any, error) {
	if err := checkLineExists(ed, c.Line); err != nil {
		return nil, err
	}
	at := Pos{Line: c.Line - 1}
	ed.ReplaceRange("\n", at, at)
	ed.SetCursor(at)
	return nil, nil
}

func (c InsertNewLineBelow) Run(_ context.Context, ed Editor, _ View) (any, error) {
	if err := checkLineExists(ed, c.Line); err != nil {
		return nil, err
	}
	at := Pos{Line: c.Line - 1, Ch: len(ed.Line(c.Line - 1))}
	ed.ReplaceRange("\n", at, at)
	ed.SetCursor(Pos{Line: c.Line})
	return nil, nil
}
