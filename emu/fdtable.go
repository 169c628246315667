package emu

import (
	"os"
	"sync"
)

// FileDescriptor is one entry in a guest file descriptor table.
type FileDescriptor struct {
	HostFile *os.File // nil for the standard streams
	Path     string
	Flags    int
	IsOpen   bool
}

// FDTable maps guest file descriptors to host files. Descriptors 0-2
// are pre-registered as the standard streams; the syscall handler
// routes those to its own writers, so the table never touches them.
type FDTable struct {
	mu     sync.Mutex
	fds    map[uint64]*FileDescriptor
	nextFD uint64
}

// NewFDTable creates a table with stdin, stdout, and stderr open.
func NewFDTable() *FDTable {
	return &FDTable{
		fds: map[uint64]*FileDescriptor{
			0: {Path: "stdin", IsOpen: true},
			1: {Path: "stdout", IsOpen: true},
			2: {Path: "stderr", IsOpen: true},
		},
		nextFD: 3,
	}
}

// Open opens a host file and allocates a guest descriptor for it.
func (t *FDTable) Open(path string, flags int, mode os.FileMode) (uint64, error) {
	hostFile, err := os.OpenFile(path, flags, mode)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fd := t.nextFD
	t.nextFD++
	t.fds[fd] = &FileDescriptor{
		HostFile: hostFile,
		Path:     path,
		Flags:    flags,
		IsOpen:   true,
	}

	return fd, nil
}

// Close closes a guest descriptor. Closing a standard stream marks it
// closed without touching the host process streams.
func (t *FDTable) Close(fd uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.fds[fd]
	if !ok || !entry.IsOpen {
		return os.ErrInvalid
	}

	entry.IsOpen = false
	if entry.HostFile == nil {
		return nil
	}

	err := entry.HostFile.Close()
	entry.HostFile = nil
	return err
}

// Get returns the entry for an open descriptor.
func (t *FDTable) Get(fd uint64) (*FileDescriptor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.fds[fd]
	if !ok || !entry.IsOpen {
		return nil, false
	}
	return entry, true
}

// hostFile returns the host file backing an open, non-stdio
// descriptor.
func (t *FDTable) hostFile(fd uint64) (*os.File, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.fds[fd]
	if !ok || !entry.IsOpen || entry.HostFile == nil {
		return nil, os.ErrInvalid
	}
	return entry.HostFile, nil
}

// Read reads from an open descriptor into buf.
func (t *FDTable) Read(fd uint64, buf []byte) (int, error) {
	f, err := t.hostFile(fd)
	if err != nil {
		return 0, err
	}
	return f.Read(buf)
}

// Write writes buf to an open descriptor.
func (t *FDTable) Write(fd uint64, buf []byte) (int, error) {
	f, err := t.hostFile(fd)
	if err != nil {
		return 0, err
	}
	return f.Write(buf)
}

// Seek repositions an open descriptor. The standard streams cannot be
// seeked.
func (t *FDTable) Seek(fd uint64, offset int64, whence int) (int64, error) {
	f, err := t.hostFile(fd)
	if err != nil {
		return 0, err
	}
	return f.Seek(offset, whence)
}
