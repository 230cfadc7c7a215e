//go:build unix

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"

	"github.com/Paranoid-AF/cmdserver"
)

// termWriter wraps a file and converts \n to \r\n when the file is a terminal
// (raw mode disables the kernel's NL to CRNL translation). When the file is
// redirected, \n passes through unchanged.
func termWriter(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return &crlfWriter{w: f}
	}
	return f
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	replaced := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	_, err := c.w.Write(replaced)
	return len(p), err // report original length to caller
}

// entry is one request/response pair as logged to stdout.
type entry struct {
	Request  entryRequest  `toml:"request"`
	Response entryResponse `toml:"response"`
}

type entryRequest struct {
	Timestamp time.Time `toml:"timestamp"`
	Line      string    `toml:"line"`
	CommandID string    `toml:"command_id"`
	Args      []string  `toml:"args"`
}

type entryResponse struct {
	UUID string `toml:"uuid,omitempty"`
	// Value is the return value as JSON text; TOML has no null.
	Value    string   `toml:"value,omitempty"`
	Error    string   `toml:"error,omitempty"`
	Warnings []string `toml:"warnings,omitempty"`
}

// newEntry builds the log entry for one line. resp may be nil when the
// request never got an answer; err is then the transport error.
func newEntry(now time.Time, line, commandID string, args []any, resp *cmdserver.Response, err error) entry {
	e := entry{
		Request: entryRequest{
			Timestamp: now,
			Line:      line,
			CommandID: commandID,
			Args:      make([]string, 0, len(args)),
		},
	}
	for _, a := range args {
		e.Request.Args = append(e.Request.Args, fmt.Sprint(a))
	}
	if resp != nil {
		e.Response.UUID = resp.UUID
		e.Response.Warnings = resp.Warnings
		if resp.ReturnValue != nil {
			data, _ := json.Marshal(resp.ReturnValue)
			e.Response.Value = string(data)
		}
		if resp.Error != nil {
			e.Response.Error = *resp.Error
		}
	}
	if err != nil && e.Response.Error == "" {
		e.Response.Error = err.Error()
	}
	return e
}

// writeEntry writes e as a TOML document preceded by a separator comment.
func writeEntry(w io.Writer, e entry) error {
	fmt.Fprintf(w, "# %s\n\n", strings.Repeat("═", 60))
	if err := toml.NewEncoder(w).Encode(e); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// summary is the short result shown on the terminal.
func summary(e entry) string {
	r := e.Response
	var sb strings.Builder
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "warning: %s\n", w)
	}
	switch {
	case r.Error != "":
		fmt.Fprintf(&sb, "error: %s\n", r.Error)
	case r.Value != "":
		fmt.Fprintf(&sb, "%s\n", r.Value)
	default:
		sb.WriteString("(ok)\n")
	}
	return sb.String()
}
