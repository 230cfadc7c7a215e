//go:build unix

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
)

// ErrInterrupt is returned when the user presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// LineReader is a minimal raw-mode line editor with history.
type LineReader struct {
	in      *bufio.Reader
	out     io.Writer
	restore func()

	buf []byte
	pos int // cursor byte offset into buf

	history []string
	hist    int    // index into history while browsing, len(history) otherwise
	draft   []byte // line being typed before browsing started
}

// OpenTerminal opens /dev/tty in raw mode, so prompts work even when stdout
// is redirected.
func OpenTerminal() (*LineReader, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}

	old, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("raw mode: %w", err)
	}

	lr := NewLineReader(tty, tty)
	lr.restore = func() {
		term.Restore(int(tty.Fd()), old)
		tty.Close()
	}
	return lr, nil
}

// NewLineReader returns a line reader over in and out. The caller is
// responsible for putting the terminal into raw mode.
func NewLineReader(in io.Reader, out io.Writer) *LineReader {
	return &LineReader{in: bufio.NewReader(in), out: out}
}

// Close restores the terminal state.
func (lr *LineReader) Close() {
	if lr.restore != nil {
		lr.restore()
	}
}

// Out returns the writer prompts are drawn on.
func (lr *LineReader) Out() io.Writer {
	return lr.out
}

// ReadLine displays the prompt and reads one line. Non-empty lines are added
// to the history. It returns io.EOF on Ctrl-D with an empty line and
// ErrInterrupt on Ctrl-C.
func (lr *LineReader) ReadLine(prompt string) (string, error) {
	lr.buf = lr.buf[:0]
	lr.pos = 0
	lr.hist = len(lr.history)
	lr.draft = nil
	lr.redraw(prompt)

	for {
		b, err := lr.in.ReadByte()
		if err != nil {
			return "", err
		}

		switch b {
		case 3: // Ctrl-C
			fmt.Fprint(lr.out, "\r\n")
			return "", ErrInterrupt

		case 4: // Ctrl-D
			if len(lr.buf) == 0 {
				fmt.Fprint(lr.out, "\r\n")
				return "", io.EOF
			}

		case 13, 10: // Enter
			fmt.Fprint(lr.out, "\r\n")
			line := string(lr.buf)
			if line != "" && (len(lr.history) == 0 || lr.history[len(lr.history)-1] != line) {
				lr.history = append(lr.history, line)
			}
			return line, nil

		case 127, 8: // Backspace / Ctrl-H
			if lr.pos > 0 {
				size := prevRuneLen(lr.buf, lr.pos)
				lr.buf = append(lr.buf[:lr.pos-size], lr.buf[lr.pos:]...)
				lr.pos -= size
			}

		case 1: // Ctrl-A
			lr.pos = 0

		case 5: // Ctrl-E
			lr.pos = len(lr.buf)

		case 21: // Ctrl-U
			lr.buf = lr.buf[:0]
			lr.pos = 0

		case 16: // Ctrl-P
			lr.historyPrev()

		case 14: // Ctrl-N
			lr.historyNext()

		case 27:
			lr.escape()

		default:
			if b >= 32 {
				lr.insert(b)
			}
		}

		lr.redraw(prompt)
	}
}

// History returns the lines entered so far, oldest first.
func (lr *LineReader) History() []string {
	return lr.history
}

// escape handles a CSI sequence after ESC.
func (lr *LineReader) escape() {
	if b, err := lr.in.ReadByte(); err != nil || b != '[' {
		return
	}
	b, err := lr.in.ReadByte()
	if err != nil {
		return
	}
	switch b {
	case 'A': // Up
		lr.historyPrev()
	case 'B': // Down
		lr.historyNext()
	case 'D': // Left
		if lr.pos > 0 {
			lr.pos -= prevRuneLen(lr.buf, lr.pos)
		}
	case 'C': // Right
		if lr.pos < len(lr.buf) {
			_, size := utf8.DecodeRune(lr.buf[lr.pos:])
			lr.pos += size
		}
	case 'H':
		lr.pos = 0
	case 'F':
		lr.pos = len(lr.buf)
	case '1', '3', '4': // \x1b[N~
		lr.in.ReadByte()
		switch b {
		case '1':
			lr.pos = 0
		case '4':
			lr.pos = len(lr.buf)
		case '3': // Delete
			if lr.pos < len(lr.buf) {
				_, size := utf8.DecodeRune(lr.buf[lr.pos:])
				lr.buf = append(lr.buf[:lr.pos], lr.buf[lr.pos+size:]...)
			}
		}
	}
}

func (lr *LineReader) insert(lead byte) {
	ch := []byte{lead}
	for i := 0; i < utf8RuneLen(lead)-1; i++ {
		b, err := lr.in.ReadByte()
		if err != nil {
			break
		}
		ch = append(ch, b)
	}
	tail := append([]byte(nil), lr.buf[lr.pos:]...)
	lr.buf = append(append(lr.buf[:lr.pos], ch...), tail...)
	lr.pos += len(ch)
}

func (lr *LineReader) historyPrev() {
	if lr.hist == 0 {
		return
	}
	if lr.hist == len(lr.history) {
		lr.draft = append([]byte(nil), lr.buf...)
	}
	lr.hist--
	lr.setLine([]byte(lr.history[lr.hist]))
}

func (lr *LineReader) historyNext() {
	if lr.hist >= len(lr.history) {
		return
	}
	lr.hist++
	if lr.hist == len(lr.history) {
		lr.setLine(lr.draft)
		return
	}
	lr.setLine([]byte(lr.history[lr.hist]))
}

func (lr *LineReader) setLine(line []byte) {
	lr.buf = append(lr.buf[:0], line...)
	lr.pos = len(lr.buf)
}

// redraw clears the current line and redraws prompt and buffer, then moves
// the cursor back into place.
func (lr *LineReader) redraw(prompt string) {
	fmt.Fprintf(lr.out, "\r\x1b[K%s%s", prompt, lr.buf)
	if tail := utf8.RuneCount(lr.buf[lr.pos:]); tail > 0 {
		fmt.Fprintf(lr.out, "\x1b[%dD", tail)
	}
}

// prevRuneLen returns the byte size of the rune ending at pos.
func prevRuneLen(buf []byte, pos int) int {
	_, size := utf8.DecodeLastRune(buf[:pos])
	return size
}

// utf8RuneLen returns the byte length of a UTF-8 sequence from its lead byte.
func utf8RuneLen(lead byte) int {
	switch {
	case lead < 0xC0:
		return 1
	case lead < 0xE0:
		return 2
	case lead < 0xF0:
		return 3
	}
	return 4
}
