//go:build unix

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Paranoid-AF/cmdserver"
)

func TestCRLFWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &crlfWriter{w: &buf}
	n, err := w.Write([]byte("a\nb\n"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("expected original length 4, got %d", n)
	}
	if buf.String() != "a\r\nb\r\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWriteEntryRoundTrip(t *testing.T) {
	resp := cmdserver.NewResponse("u1")
	resp.ReturnValue = map[string]any{"text": "hi"}
	resp.Warn("This editor is not active")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	e := newEntry(now, `getTextFlowContext`, "getTextFlowContext", nil, resp, nil)
	var buf bytes.Buffer
	if err := writeEntry(&buf, e); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "# ═") {
		t.Errorf("expected separator comment, got %q", buf.String())
	}

	var got entry
	if _, err := toml.Decode(buf.String(), &got); err != nil {
		t.Fatalf("output is not valid TOML: %v\n%s", err, buf.String())
	}
	if !got.Request.Timestamp.Equal(now) || got.Request.CommandID != "getTextFlowContext" {
		t.Errorf("unexpected request %+v", got.Request)
	}
	if got.Response.UUID != "u1" || got.Response.Value != `{"text":"hi"}` {
		t.Errorf("unexpected response %+v", got.Response)
	}
	if len(got.Response.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", got.Response.Warnings)
	}
}

func TestNewEntryError(t *testing.T) {
	resp := cmdserver.NewResponse("u2")
	resp.SetError("Line number must be greater than 0, but got: 0")

	e := newEntry(time.Now(), "jumpToLine 0", "jumpToLine", []any{int64(0)}, resp, errors.New("jumpToLine: failed"))
	if e.Response.Error != "Line number must be greater than 0, but got: 0" {
		t.Errorf("expected host error to win, got %q", e.Response.Error)
	}
	if len(e.Request.Args) != 1 || e.Request.Args[0] != "0" {
		t.Errorf("unexpected args %q", e.Request.Args)
	}
	if s := summary(e); !strings.HasPrefix(s, "error: ") {
		t.Errorf("unexpected summary %q", s)
	}
}

func TestNewEntryTransportError(t *testing.T) {
	e := newEntry(time.Now(), "selectWord", "selectWord", nil, nil, errors.New("timed out waiting for response"))
	if e.Response.Error != "timed out waiting for response" || e.Response.UUID != "" {
		t.Errorf("unexpected response %+v", e.Response)
	}
}

func TestSummaryOK(t *testing.T) {
	e := newEntry(time.Now(), "selectWord", "selectWord", nil, cmdserver.NewResponse("u"), nil)
	if s := summary(e); s != "(ok)\n" {
		t.Errorf("unexpected summary %q", s)
	}
}
