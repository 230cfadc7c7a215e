package command_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Paranoid-AF/cmdserver/command"
	"github.com/Paranoid-AF/cmdserver/editor"
)

// tenLines returns "line 1\nline 2\n...\nline 10".
func tenLines() string {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return strings.Join(lines, "\n")
}

func run(t *testing.T, cmd command.Command, b *editor.Buffer) (any, error) {
	t.Helper()
	return cmd.Run(context.Background(), b, b)
}

func TestJumpToLine(t *testing.T) {
	b := editor.NewBuffer(tenLines())
	if _, err := run(t, command.JumpToLine{Line: 5}, b); err != nil {
		t.Fatal(err)
	}
	if c := b.Cursor(); c != (command.Pos{Line: 4, Ch: 0}) {
		t.Errorf("expected cursor at {4 0}, got %+v", c)
	}
}

func TestJumpToLineRejectsZero(t *testing.T) {
	b := editor.NewBuffer(tenLines())
	_, err := run(t, command.JumpToLine{Line: 0}, b)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Line number must be greater than 0, but got: 0" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestSelectLineRangeForEditing(t *testing.T) {
	b := editor.NewBuffer("first\nsecond\nthird line!!\nfourth")
	cmd := command.SelectLineRangeForEditing{LineRange: command.LineRange{From: 3, To: 3}}
	if _, err := run(t, cmd, b); err != nil {
		t.Fatal(err)
	}
	from, to := b.SelectionRange()
	if from != (command.Pos{Line: 2, Ch: 0}) || to != (command.Pos{Line: 2, Ch: 12}) {
		t.Errorf("expected {2 0}-{2 12}, got %+v-%+v", from, to)
	}
	if got := b.Selection(); got != "third line!!" {
		t.Errorf("expected selection without line break, got %q", got)
	}
}

func TestSelectLineRangeIncludingLineBreak(t *testing.T) {
	b := editor.NewBuffer("a\nb\nc\nd")
	cmd := command.SelectLineRangeIncludingLineBreak{LineRange: command.LineRange{From: 2, To: 3}}
	if _, err := run(t, cmd, b); err != nil {
		t.Fatal(err)
	}
	if got := b.Selection(); got != "b\nc\n" {
		t.Errorf("expected %q, got %q", "b\nc\n", got)
	}

	// The last line has no trailing break: select to the end of the document.
	last := command.SelectLineRangeIncludingLineBreak{LineRange: command.LineRange{From: 4, To: 4}}
	if _, err := run(t, last, b); err != nil {
		t.Fatal(err)
	}
	from, to := b.SelectionRange()
	if from != (command.Pos{Line: 3}) || to != (command.Pos{Line: 3, Ch: 1}) {
		t.Errorf("expected {3 0}-{3 1}, got %+v-%+v", from, to)
	}
}

func TestLineRangeValidation(t *testing.T) {
	b := editor.NewBuffer("a\nb")
	tests := []struct {
		name string
		r    command.LineRange
		want string
	}{
		{"zero", command.LineRange{From: 0, To: 0}, "must be greater than 0"},
		{"past end", command.LineRange{From: 3, To: 3}, "past the end of the document"},
		{"backwards", command.LineRange{From: 2, To: 1}, "before start line"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, command.SelectLineRangeForEditing{LineRange: tt.r}, b)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCopyLinesToCursor(t *testing.T) {
	b := editor.NewBuffer("one\ntwo\nthree\n")
	b.SetCursor(command.Pos{Line: 3})
	cmd := command.CopyLinesToCursor{LineRange: command.LineRange{From: 1, To: 2}}
	if _, err := run(t, cmd, b); err != nil {
		t.Fatal(err)
	}
	if got := b.Text(); got != "one\ntwo\nthree\none\ntwo\n" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestCopyLinesToCursorReplacesSelection(t *testing.T) {
	b := editor.NewBuffer("keep\nREPLACE")
	b.SetSelection(command.Pos{Line: 1}, command.Pos{Line: 1, Ch: 7})
	cmd := command.CopyLinesToCursor{LineRange: command.LineRange{From: 1, To: 1}}
	if _, err := run(t, cmd, b); err != nil {
		t.Fatal(err)
	}
	if got := b.Text(); got != "keep\nkeep\n" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestSetSelection(t *testing.T) {
	b := editor.NewBuffer("hello\nworld")
	if _, err := run(t, command.SetSelection{From: 3, To: 8}, b); err != nil {
		t.Fatal(err)
	}
	if got := b.Selection(); got != "lo\nwo" {
		t.Errorf("expected %q, got %q", "lo\nwo", got)
	}
	if _, err := run(t, command.SetSelection{From: -1, To: 2}, b); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestGetTextFlowContext(t *testing.T) {
	b := editor.NewBuffer("abc\ndef")
	b.SetSelection(command.Pos{Line: 0, Ch: 2}, command.Pos{Line: 1, Ch: 1})
	v, err := run(t, command.GetTextFlowContext{}, b)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.(command.TextFlowContext)
	if !ok {
		t.Fatalf("expected TextFlowContext, got %T", v)
	}
	want := command.TextFlowContext{Text: "abc\ndef", SelectionFromOffset: 2, SelectionToOffset: 5, TextStartOffset: 0}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestGetTextFlowContextWindow(t *testing.T) {
	text := strings.Repeat("x", 30000)
	b := editor.NewBuffer(text)
	b.SetSelection(command.Pos{Ch: 15000}, command.Pos{Ch: 15010})
	v, err := run(t, command.GetTextFlowContext{}, b)
	if err != nil {
		t.Fatal(err)
	}
	got := v.(command.TextFlowContext)
	if got.TextStartOffset != 5000 {
		t.Errorf("expected window start 5000, got %d", got.TextStartOffset)
	}
	if len(got.Text) != 20010 {
		t.Errorf("expected 20010 bytes of context, got %d", len(got.Text))
	}
}

func TestGetFilename(t *testing.T) {
	b := editor.NewBuffer("")
	if _, err := run(t, command.GetFilename{}, b); err == nil {
		t.Error("expected error for untitled buffer")
	}

	path := filepath.Join(t.TempDir(), "note.md")
	writeFile(t, path, "x")
	opened, err := editor.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	v, err := run(t, command.GetFilename{}, opened)
	if err != nil {
		t.Fatal(err)
	}
	if v != opened.FilePath() || !filepath.IsAbs(v.(string)) {
		t.Errorf("expected absolute path %s, got %v", opened.FilePath(), v)
	}
}

func TestGetSelectedText(t *testing.T) {
	b := editor.NewBuffer("pick me")
	v, err := run(t, command.GetSelectedText{}, b)
	if err != nil || v != "" {
		t.Errorf("expected empty selection, got %v %v", v, err)
	}
	b.SetSelection(command.Pos{Ch: 5}, command.Pos{Ch: 7})
	v, err = run(t, command.GetSelectedText{}, b)
	if err != nil || v != "me" {
		t.Errorf("expected me, got %v %v", v, err)
	}
}

func TestSelectWord(t *testing.T) {
	b := editor.NewBuffer("foo barbaz qux")
	b.SetCursor(command.Pos{Ch: 6})
	if _, err := run(t, command.SelectWord{}, b); err != nil {
		t.Fatal(err)
	}
	if got := b.Selection(); got != "barbaz" {
		t.Errorf("expected barbaz, got %q", got)
	}

	empty := editor.NewBuffer("   ")
	empty.SetCursor(command.Pos{Ch: 1})
	if _, err := run(t, command.SelectWord{}, empty); err != nil {
		t.Fatal(err)
	}
	if empty.Selection() != "" {
		t.Error("expected no selection when no word is under the cursor")
	}
}

func TestInsertNewLineAbove(t *testing.T) {
	b := editor.NewBuffer("a\nb\nc")
	if _, err := run(t, command.InsertNewLineAbove{Line: 2}, b); err != nil {
		t.Fatal(err)
	}
	if got := b.Text(); got != "a\n\nb\nc" {
		t.Errorf("unexpected text %q", got)
	}
	if c := b.Cursor(); c != (command.Pos{Line: 1}) {
		t.Errorf("expected cursor on the new line, got %+v", c)
	}
}

func TestInsertNewLineBelow(t *testing.T) {
	b := editor.NewBuffer("a\nb\nc")
	if _, err := run(t, command.InsertNewLineBelow{Line: 3}, b); err != nil {
		t.Fatal(err)
	}
	if got := b.Text(); got != "a\nb\nc\n" {
		t.Errorf("unexpected text %q", got)
	}
	if c := b.Cursor(); c != (command.Pos{Line: 3}) {
		t.Errorf("expected cursor on the new line, got %+v", c)
	}
	if _, err := run(t, command.InsertNewLineBelow{Line: 9}, b); err == nil {
		t.Error("expected error past the end")
	}
}

func TestGetTextFlowContextMultiByteEdge(t *testing.T) {
	text := "é" + strings.Repeat("a", 10000)
	b := editor.NewBuffer(text)
	b.SetCursor(command.Pos{Ch: len(text)})
	v, err := run(t, command.GetTextFlowContext{}, b)
	if err != nil {
		t.Fatal(err)
	}
	got := v.(command.TextFlowContext)
	// The window edge falls inside "é" and must move back to its first byte.
	if got.TextStartOffset != 0 {
		t.Errorf("expected window start 0, got %d", got.TextStartOffset)
	}
	if !utf8.ValidString(got.Text) {
		t.Errorf("context text is not valid UTF-8: %q", got.Text[:4])
	}
	if got.Text != text[got.TextStartOffset:] {
		t.Error("context text does not start at textStartOffset")
	}
}

func TestSetSelectionInsideCharacter(t *testing.T) {
	b := editor.NewBuffer("é\nx")
	if _, err := run(t, command.SetSelection{From: 1, To: 1}, b); err != nil {
		t.Fatal(err)
	}
	if c := b.Cursor(); c != (command.Pos{}) {
		t.Errorf("expected cursor snapped to {0 0}, got %+v", c)
	}
	cmd := command.CopyLinesToCursor{LineRange: command.LineRange{From: 2, To: 2}}
	if _, err := run(t, cmd, b); err != nil {
		t.Fatal(err)
	}
	if got := b.Text(); got != "xé\nx" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestInsertNewLineBelowNonASCII(t *testing.T) {
	b := editor.NewBuffer("日本\n語")
	if _, err := run(t, command.InsertNewLineBelow{Line: 1}, b); err != nil {
		t.Fatal(err)
	}
	if got := b.Text(); got != "日本\n\n語" {
		t.Errorf("unexpected text %q", got)
	}
}
