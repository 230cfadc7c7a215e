// Package runner serves one command request per invocation: it reads the
// pending request, reserves the response file, dispatches the command to the
// host editor and writes the response.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Paranoid-AF/cmdserver"
	"github.com/Paranoid-AF/cmdserver/channel"
	"github.com/Paranoid-AF/cmdserver/command"
)

// Runner executes requests found in one communication directory.
type Runner struct {
	dir     channel.Dir
	timeout time.Duration
	now     func() time.Time
	replay  *replayGuard

	detached  sync.WaitGroup
	closeOnce sync.Once
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the request staleness window.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithClock replaces time.Now for the staleness check.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Initialize resolves the communication directory from cfg, creates and
// validates it, and returns a Runner for it. An error means the directory is
// unsafe or unusable and no commands must be served.
func Initialize(cfg *cmdserver.Config, opts ...Option) (*Runner, error) {
	slog.Info("initializing command runner")

	path := channel.Path(cmdserver.ResolveBaseDir(cfg), cmdserver.ResolveDirName(cfg))
	dir, err := channel.Ensure(path)
	if err != nil {
		return nil, err
	}

	opts = append([]Option{WithTimeout(cmdserver.ResolveRequestTimeout(cfg))}, opts...)
	r := New(dir, opts...)

	slog.Info("initialized command runner", "dir", dir.Path(), "timeout", r.timeout)
	return r, nil
}

// New returns a Runner for an already validated directory.
func New(dir channel.Dir, opts ...Option) *Runner {
	r := &Runner{
		dir:     dir,
		timeout: cmdserver.ResolveRequestTimeout(nil),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	// A request stays acceptable for timeout on either side of its mtime.
	r.replay = newReplayGuard(2 * r.timeout)
	return r
}

// Dir returns the communication directory.
func (r *Runner) Dir() channel.Dir {
	return r.dir
}

// Wait blocks until every detached command has finished.
func (r *Runner) Wait() {
	r.detached.Wait()
}

// Close waits for detached commands and releases the replay guard.
func (r *Runner) Close() {
	r.Wait()
	r.closeOnce.Do(r.replay.close)
}

// RunCommand reads the pending request, executes it against ed and writes
// the response file.
//
// Errors are returned only for failures before the response file is
// reserved (missing, stale or malformed request, or a response file already
// present) and for a failed final write. In those cases no response is
// written, so the client sees nothing and must time out. Everything that
// goes wrong after the reservation is reported in the response instead.
//
// The request is parsed before the response slot is reserved, so a malformed
// request never creates a response file.
func (r *Runner) RunCommand(ctx context.Context, ed command.Editor, view command.View) error {
	req, err := r.dir.ReadRequest(r.now(), r.timeout)
	if err != nil {
		return err
	}
	slog.Debug("request", "uuid", req.UUID, "command", req.CommandID, "args", len(req.Args))

	slot, err := r.dir.OpenSlot()
	if err != nil {
		return err
	}

	resp := r.Dispatch(ctx, req, ed, view)

	if err := slot.Commit(resp); err != nil {
		slot.Close()
		return fmt.Errorf("write response for %s: %w", req.UUID, err)
	}
	slog.Debug("response", "uuid", resp.UUID, "failed", resp.Failed(), "warnings", resp.Warnings)
	return nil
}
