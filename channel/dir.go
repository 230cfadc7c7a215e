// Package channel implements the filesystem side of the command channel: the
// per-user communication directory, the request file reader and the
// single-writer response file.
package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Paranoid-AF/cmdserver"
)

const (
	// RequestFile is written by the client.
	RequestFile = "request.json"
	// ResponseFile is created exclusively by the server, once per invocation.
	ResponseFile = "response.json"

	dirMode = 0o770
)

// ErrInsecureDir matches every *InsecureDirError.
var ErrInsecureDir = errors.New("insecure communication directory")

// InsecureDirError reports why a communication directory was rejected.
type InsecureDirError struct {
	Path   string
	Reason string
}

func (e *InsecureDirError) Error() string {
	return fmt.Sprintf("invalid communication directory %s: %s", e.Path, e.Reason)
}

func (e *InsecureDirError) Is(target error) bool {
	return target == ErrInsecureDir
}

// Dir is a validated communication directory. Obtain one from Ensure.
type Dir struct {
	path string
}

// Path returns the directory path.
func (d Dir) Path() string {
	return d.path
}

// RequestPath returns the path of request.json.
func (d Dir) RequestPath() string {
	return filepath.Join(d.path, RequestFile)
}

// ResponsePath returns the path of response.json.
func (d Dir) ResponsePath() string {
	return filepath.Join(d.path, ResponseFile)
}

// ReadRequest reads and validates the pending request. See ReadRequest.
func (d Dir) ReadRequest(now time.Time, timeout time.Duration) (*cmdserver.Request, error) {
	return ReadRequest(d.RequestPath(), now, timeout)
}

// OpenSlot reserves the response file. See OpenSlot.
func (d Dir) OpenSlot() (*Slot, error) {
	return OpenSlot(d.ResponsePath())
}

// Path returns the communication directory for name under base. On platforms
// with numeric user ids the directory is suffixed with "-<uid>"; elsewhere
// (Windows) the temp root is already per-user and no suffix is added. The
// client derives the same path.
func Path(base, name string) string {
	if base == "" {
		base = os.TempDir()
	}
	if uid := os.Getuid(); uid >= 0 {
		name = fmt.Sprintf("%s-%d", name, uid)
	}
	return filepath.Join(base, name)
}

// Open returns a Dir for path without creating or validating it. Clients use
// it; the server must go through Ensure.
func Open(path string) Dir {
	return Dir{path: path}
}

// Ensure creates the communication directory if needed and verifies that it
// is a real directory, not writable by other users and owned by the current
// user. Calling it again on a valid directory changes nothing.
func Ensure(path string) (Dir, error) {
	slog.Info("ensuring communication directory", "path", path)

	if err := os.MkdirAll(path, dirMode); err != nil {
		return Dir{}, fmt.Errorf("create communication directory: %w", err)
	}
	if err := inspect(path, os.Getuid()); err != nil {
		return Dir{}, err
	}

	slog.Info("communication directory ready", "path", path)
	return Dir{path: path}, nil
}
