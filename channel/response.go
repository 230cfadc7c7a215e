package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/Paranoid-AF/cmdserver"
)

var (
	// ErrSlotTaken is returned by OpenSlot when a response file already
	// exists. The error also matches fs.ErrExist.
	ErrSlotTaken = errors.New("response file already exists")
	// ErrSlotClosed is returned by Commit after the slot was committed,
	// closed or released.
	ErrSlotClosed = errors.New("response slot is closed")
)

// Slot is an exclusively created response file.
//
// The O_EXCL create in OpenSlot is the only mutual exclusion in the command
// channel: at most one invocation can hold the slot for a directory, and a
// second one fails immediately instead of queueing or overwriting.
type Slot struct {
	path string

	mu        sync.Mutex
	f         *os.File
	committed bool
	released  bool
}

// OpenSlot creates the response file at path, failing with ErrSlotTaken if it
// exists. An existing file is left untouched.
func OpenSlot(path string) (*Slot, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %w", ErrSlotTaken, err)
		}
		return nil, fmt.Errorf("open response file: %w", err)
	}
	return &Slot{path: path, f: f}, nil
}

// Path returns the response file path.
func (s *Slot) Path() string {
	return s.path
}

// Commit writes resp as one JSON document followed by a newline and closes
// the file. Readers treat the trailing newline as the end-of-write marker, so
// the document goes out in a single write. If encoding fails nothing is
// written and the slot stays open.
func (s *Slot) Commit(resp *cmdserver.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return ErrSlotClosed
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	data = append(data, '\n')

	_, werr := s.f.Write(data)
	cerr := s.f.Close()
	s.f = nil
	s.committed = true
	if werr != nil {
		return fmt.Errorf("write response: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("close response: %w", cerr)
	}
	return nil
}

// Close releases the file handle without writing anything. The (empty)
// response file stays on disk.
func (s *Slot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// Release closes the handle and removes the file this slot created. It is a
// no-op after a successful Commit.
func (s *Slot) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committed || s.released {
		return nil
	}
	var cerr error
	if s.f != nil {
		cerr = s.f.Close()
		s.f = nil
	}
	s.released = true
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(cerr, err)
	}
	return cerr
}
