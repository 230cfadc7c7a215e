//go:build unix

// Package client is the external side of the command channel. It writes
// request.json, waits for the host to answer in response.json, and cleans up
// after itself so the next request finds a free response slot.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/renameio"
	"github.com/google/uuid"

	"github.com/Paranoid-AF/cmdserver"
	"github.com/Paranoid-AF/cmdserver/channel"
)

var (
	// ErrTimeout is returned when no complete response appeared in time.
	ErrTimeout = errors.New("timed out waiting for response")
	// ErrUUIDMismatch is returned when the response answers another request.
	ErrUUIDMismatch = errors.New("response uuid does not match request")
)

// CommandError is a command failure reported by the host in response.error.
type CommandError struct {
	CommandID string
	Message   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.CommandID, e.Message)
}

// Call describes one command invocation.
type Call struct {
	CommandID string
	Args      []any
	// ReturnOutput asks the host for the command's return value.
	ReturnOutput bool
	// WaitForFinish asks the host to finish the command before answering.
	WaitForFinish bool
}

// Client sends requests through one communication directory.
type Client struct {
	dir     channel.Dir
	timeout time.Duration
	poll    time.Duration
	trigger func(context.Context) error
	newID   func() string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds how long Send waits for a response.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithPollInterval sets how often Send checks for the response file.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.poll = d }
}

// WithTrigger sets a hook run after the request is written, for hosts that
// need to be told about new requests (a key press, a signal).
func WithTrigger(fn func(context.Context) error) Option {
	return func(c *Client) { c.trigger = fn }
}

// New returns a client for the communication directory at dir.
func New(dir string, opts ...Option) *Client {
	timeout, poll := cmdserver.ResolveClientTimeouts(nil)
	c := &Client{
		dir:     channel.Open(dir),
		timeout: timeout,
		poll:    poll,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig returns a client for the directory the host derives from cfg.
func FromConfig(cfg *cmdserver.Config, opts ...Option) *Client {
	timeout, poll := cmdserver.ResolveClientTimeouts(cfg)
	dir := channel.Path(cmdserver.ResolveBaseDir(cfg), cmdserver.ResolveDirName(cfg))
	opts = append([]Option{WithTimeout(timeout), WithPollInterval(poll)}, opts...)
	return New(dir, opts...)
}

// Dir returns the communication directory path.
func (c *Client) Dir() string {
	return c.dir.Path()
}

// Send runs call on the host and returns its response. A command failure
// reported by the host is returned as *CommandError together with the
// response.
func (c *Client) Send(ctx context.Context, call Call) (*cmdserver.Response, error) {
	req := cmdserver.Request{
		UUID:                c.newID(),
		CommandID:           call.CommandID,
		Args:                make([]json.RawMessage, 0, len(call.Args)),
		ReturnCommandOutput: call.ReturnOutput,
		WaitForFinish:       call.WaitForFinish,
	}
	for i, arg := range call.Args {
		data, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("encode argument %d: %w", i, err)
		}
		req.Args = append(req.Args, data)
	}

	// A response left behind by an earlier request would make the host
	// refuse this one.
	if err := os.Remove(c.dir.ResponsePath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale response: %w", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	// Written to a temp file and renamed so the host never reads half a request.
	if err := renameio.WriteFile(c.dir.RequestPath(), data, 0600); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}
	slog.Debug("request", "data", string(data))

	if c.trigger != nil {
		if err := c.trigger(ctx); err != nil {
			return nil, fmt.Errorf("trigger host: %w", err)
		}
	}

	resp, err := c.await(ctx, req.UUID)
	if err != nil {
		return nil, err
	}
	for _, w := range resp.Warnings {
		slog.Warn("host warning", "command", call.CommandID, "warning", w)
	}
	if resp.Error != nil {
		return resp, &CommandError{CommandID: call.CommandID, Message: *resp.Error}
	}
	return resp, nil
}

// await polls for a complete response, consumes it and checks its uuid.
func (c *Client) await(ctx context.Context, id string) (*cmdserver.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	path := c.dir.ResponsePath()
	for {
		data, err := os.ReadFile(path)
		switch {
		case err == nil && bytes.HasSuffix(data, []byte("\n")):
			return c.consume(path, data, id)
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read response: %w", err)
		}
		// Missing, or still being written.

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) consume(path string, data []byte, id string) (*cmdserver.Response, error) {
	slog.Debug("response", "data", string(bytes.TrimRight(data, "\n")))

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove response file", "path", path, "error", err)
	}

	var resp cmdserver.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.UUID != id {
		return nil, fmt.Errorf("%w: sent %s, got %s", ErrUUIDMismatch, id, resp.UUID)
	}
	return &resp, nil
}
