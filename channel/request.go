package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Paranoid-AF/cmdserver"
)

var (
	// ErrStaleRequest matches every *StaleRequestError.
	ErrStaleRequest = errors.New("request file is too old")
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("malformed request")
)

// StaleRequestError is returned when the request file's modification time is
// further than the timeout from now, in either direction.
type StaleRequestError struct {
	Path    string
	Age     time.Duration
	Timeout time.Duration
}

func (e *StaleRequestError) Error() string {
	return fmt.Sprintf("request file is too old: %s modified %s from now (limit %s)",
		e.Path, e.Age.Round(time.Millisecond), e.Timeout)
}

func (e *StaleRequestError) Is(target error) bool {
	return target == ErrStaleRequest
}

// ParseError wraps a JSON decoding failure of the request file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed request %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// CheckFresh fails with *StaleRequestError when the file at path was modified
// more than timeout before or after now. A missing file yields an error
// matching fs.ErrNotExist.
func CheckFresh(path string, now time.Time, timeout time.Duration) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat request: %w", err)
	}
	age := now.Sub(info.ModTime())
	if age < 0 {
		// Clock skew: the file claims to be from the future.
		age = -age
	}
	if age > timeout {
		return &StaleRequestError{Path: path, Age: age, Timeout: timeout}
	}
	return nil
}

// ReadRequest checks the request file's freshness, then reads and decodes it.
func ReadRequest(path string, now time.Time, timeout time.Duration) (*cmdserver.Request, error) {
	if err := CheckFresh(path, now, timeout); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	var req cmdserver.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &req, nil
}
