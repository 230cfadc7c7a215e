// Package editor is an in-memory text editor implementing the command
// package's Editor and View interfaces. cmdserverd hosts one Buffer per
// opened file; tests use it as the host editor.
package editor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/Paranoid-AF/cmdserver/command"
)

// Buffer manages the text content, selection and focus of a single open file.
// It is safe for concurrent use: commands that run detached from a request
// may touch it while the host reads it.
type Buffer struct {
	mu        sync.Mutex
	path      string // absolute path, or "" if untitled
	text      string
	savedText string
	sel       Selection
	focused   bool
}

var (
	_ command.Editor = (*Buffer)(nil)
	_ command.View   = (*Buffer)(nil)
)

// NewBuffer creates a focused, untitled buffer holding text.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text, savedText: text, focused: true}
}

// Open reads the file at path into a new focused buffer.
// The stored path is converted to an absolute path.
func Open(path string) (*Buffer, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	b := NewBuffer(string(data))
	b.path = absPath
	return b, nil
}

// Save writes the current text to the stored path.
func (b *Buffer) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.path == "" {
		return errors.New("buffer has no path")
	}
	if err := os.WriteFile(b.path, []byte(b.text), 0644); err != nil {
		return err
	}
	b.savedText = b.text
	return nil
}

// FilePath returns the absolute file path, or "" if the buffer is untitled.
func (b *Buffer) FilePath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

// Text returns the current text content of the buffer.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Dirty reports whether the text differs from the last saved/opened text.
func (b *Buffer) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text != b.savedText
}

// SetFocus marks the buffer as focused or not.
func (b *Buffer) SetFocus(focused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.focused = focused
}

// HasFocus reports whether the buffer is focused.
func (b *Buffer) HasFocus() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.focused
}

// LineCount returns the number of lines. An empty buffer has 1 line.
func (b *Buffer) LineCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return lineCount(b.text)
}

// Line returns the text of the 0-based line n, clamped to the buffer.
func (b *Buffer) Line(n int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.line(n)
}

func (b *Buffer) Range(from, to command.Pos) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	start, end := b.offsets(from, to)
	return b.text[start:end]
}

func (b *Buffer) OffsetToPos(offset int) command.Pos {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.offsetToPos(offset)
}

func (b *Buffer) PosToOffset(p command.Pos) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.posToOffset(p)
}

func (b *Buffer) Cursor() command.Pos {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.offsetToPos(b.sel.Cursor)
}

func (b *Buffer) SelectionRange() (from, to command.Pos) {
	b.mu.Lock()
	defer b.mu.Unlock()
	start, end := b.sel.Ordered()
	return b.offsetToPos(start), b.offsetToPos(end)
}

func (b *Buffer) Selection() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.sel.Active() {
		return ""
	}
	return b.sel.Text(b.text)
}

func (b *Buffer) SetCursor(p command.Pos) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sel.Collapse(b.posToOffset(p))
}

func (b *Buffer) SetSelection(anchor, head command.Pos) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sel = Selection{Anchor: b.posToOffset(anchor), Cursor: b.posToOffset(head)}
}

// WordAt returns the run of letters, digits and underscores touching p.
func (b *Buffer) WordAt(p command.Pos) (from, to command.Pos, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	off := b.posToOffset(p)
	start, end := off, off
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(b.text[:start])
		if !isWordRune(r) {
			break
		}
		start -= size
	}
	for end < len(b.text) {
		r, size := utf8.DecodeRuneInString(b.text[end:])
		if !isWordRune(r) {
			break
		}
		end += size
	}
	if start == end {
		return command.Pos{}, command.Pos{}, false
	}
	return b.offsetToPos(start), b.offsetToPos(end), true
}

func (b *Buffer) ReplaceSelection(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	start, end := b.sel.Ordered()
	b.replace(start, end, text)
	b.sel.Collapse(start + len(text))
}

func (b *Buffer) ReplaceRange(text string, from, to command.Pos) {
	b.mu.Lock()
	defer b.mu.Unlock()
	start, end := b.offsets(from, to)
	b.replace(start, end, text)
}

// replace swaps text[start:end] for s and remaps the selection.
func (b *Buffer) replace(start, end int, s string) {
	b.text = b.text[:start] + s + b.text[end:]
	b.sel.remap(start, end, len(s))
}

func (b *Buffer) offsets(from, to command.Pos) (start, end int) {
	start, end = b.posToOffset(from), b.posToOffset(to)
	if end < start {
		start, end = end, start
	}
	return start, end
}

func (b *Buffer) line(n int) string {
	start := lineStart(b.text, clamp(n, 0, lineCount(b.text)-1))
	if i := strings.IndexByte(b.text[start:], '\n'); i >= 0 {
		return b.text[start : start+i]
	}
	return b.text[start:]
}

func (b *Buffer) posToOffset(p command.Pos) int {
	line := clamp(p.Line, 0, lineCount(b.text)-1)
	return runeStart(b.text, lineStart(b.text, line)+clamp(p.Ch, 0, len(b.line(line))))
}

func (b *Buffer) offsetToPos(offset int) command.Pos {
	offset = runeStart(b.text, clamp(offset, 0, len(b.text)))
	head := b.text[:offset]
	return command.Pos{
		Line: strings.Count(head, "\n"),
		Ch:   offset - (strings.LastIndexByte(head, '\n') + 1),
	}
}

// runeStart moves off back to the first byte of the character it falls in,
// so edits and ranges never split a multi-byte character.
func runeStart(text string, off int) int {
	for off > 0 && off < len(text) && !utf8.RuneStart(text[off]) {
		off--
	}
	return off
}

// lineCount returns the number of lines in the text.
// An empty string is considered to have 1 line.
func lineCount(text string) int {
	return strings.Count(text, "\n") + 1
}

// lineStart returns the offset of the first byte of the 0-based line n,
// which must exist.
func lineStart(text string, n int) int {
	off := 0
	for i := 0; i < n; i++ {
		off += strings.IndexByte(text[off:], '\n') + 1
	}
	return off
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
