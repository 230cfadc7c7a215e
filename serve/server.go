//go:build unix

package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Paranoid-AF/cmdserver/channel"
	"github.com/Paranoid-AF/cmdserver/editor"
	"github.com/Paranoid-AF/cmdserver/runner"
)

// Host serves requests against one buffer. Triggers are serialized so only
// one request is handled at a time.
type Host struct {
	runner *runner.Runner
	buf    *editor.Buffer
	poll   time.Duration

	mu   sync.Mutex
	seen os.FileInfo // last request file handed to the runner
}

// NewHost returns a host for r and buf. A poll interval of zero disables
// polling; the host then only reacts to explicit triggers.
func NewHost(r *runner.Runner, buf *editor.Buffer, poll time.Duration) *Host {
	return &Host{runner: r, buf: buf, poll: poll}
}

// Trigger runs the pending request, if there is one the host has not seen.
// It reports whether the runner was invoked.
func (h *Host) Trigger(ctx context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	info, err := os.Stat(h.runner.Dir().RequestPath())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if h.handled(info) {
		return false, nil
	}

	err = h.runner.RunCommand(ctx, h.buf, h.buf)
	// The client clears the old response before writing a new request, so a
	// taken slot is retried on the next trigger.
	if !errors.Is(err, channel.ErrSlotTaken) {
		h.seen = info
	}
	return true, err
}

// handled reports whether info is the request file last handed to the
// runner. Clients replace request.json by rename, so a new request is a new
// file even when the filesystem stores mtime in whole seconds.
func (h *Host) handled(info os.FileInfo) bool {
	return h.seen != nil && os.SameFile(h.seen, info) && info.ModTime().Equal(h.seen.ModTime())
}

// Serve handles triggers until ctx is canceled. Each value received on
// signals triggers one run in addition to polling.
func (h *Host) Serve(ctx context.Context, signals <-chan os.Signal) {
	var tick <-chan time.Time
	if h.poll > 0 {
		ticker := time.NewTicker(h.poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case sig := <-signals:
			slog.Debug("trigger", "signal", sig)
		}
		h.handle(ctx)
	}
}

func (h *Host) handle(ctx context.Context) {
	_, err := h.Trigger(ctx)
	switch {
	case err == nil:
	case errors.Is(err, channel.ErrStaleRequest):
		slog.Debug("skipped request", "error", err)
	default:
		slog.Warn("request failed", "error", err)
	}
}
