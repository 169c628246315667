package emu

import (
	"encoding/binary"
	"io"
	"os"
	"time"
)

// RV64 Linux syscall numbers.
const (
	SyscallOpenAt       uint64 = 56  // openat(dirfd, path, flags, mode)
	SyscallClose        uint64 = 57  // close(fd)
	SyscallLseek        uint64 = 62  // lseek(fd, offset, whence)
	SyscallRead         uint64 = 63  // read(fd, buf, count)
	SyscallWrite        uint64 = 64  // write(fd, buf, count)
	SyscallFstat        uint64 = 80  // fstat(fd, statbuf)
	SyscallExit         uint64 = 93  // exit(status)
	SyscallExitGroup    uint64 = 94  // exit_group(status)
	SyscallClockGetTime uint64 = 113 // clock_gettime(clockid, tp)
	SyscallGetPid       uint64 = 172 // getpid()
	SyscallGetTid       uint64 = 178 // gettid()
	SyscallBrk          uint64 = 214 // brk(addr)
)

// Linux error codes.
const (
	EBADF  = 9  // Bad file descriptor
	ENOSYS = 38 // Function not implemented
	EIO    = 5  // I/O error
	ENOENT = 2  // No such file or directory
	EINVAL = 22 // Invalid argument
)

// Guest open(2) flag bits, as defined by the generic Linux ABI.
const (
	guestOWrOnly = 0x1
	guestORdWr   = 0x2
	guestOCreat  = 0x40
	guestOExcl   = 0x80
	guestOTrunc  = 0x200
	guestOAppend = 0x400
)

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64
}

// SyscallHandler is the interface for handling RV64 syscalls.
type SyscallHandler interface {
	// Handle executes the syscall indicated by the register file state.
	// RV64 Linux syscall convention:
	//   - Syscall number in a7 (x17)
	//   - Arguments in a0-a5 (x10-x15)
	//   - Return value or -errno in a0 (x10)
	Handle() SyscallResult
}

// DefaultSyscallHandler provides a basic syscall handler implementation.
type DefaultSyscallHandler struct {
	regFile  *RegFile
	memory   *Memory
	fdTable  *FDTable
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	brk      uint64
	brkLimit uint64
}

// NewDefaultSyscallHandler creates a default syscall handler.
func NewDefaultSyscallHandler(regFile *RegFile, memory *Memory, stdout, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		regFile: regFile,
		memory:  memory,
		fdTable: NewFDTable(),
		stdout:  stdout,
		stderr:  stderr,
	}
}

// SetStdin sets the stdin reader for the syscall handler.
func (h *DefaultSyscallHandler) SetStdin(stdin io.Reader) {
	h.stdin = stdin
}

// SetBrk sets the initial program break and the limit it may grow to.
func (h *DefaultSyscallHandler) SetBrk(brk, limit uint64) {
	h.brk = brk
	h.brkLimit = limit
}

// Handle executes the syscall indicated by the register file state.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	syscallNum := h.regFile.ReadReg(17)

	switch syscallNum {
	case SyscallOpenAt:
		return h.handleOpenAt()
	case SyscallClose:
		return h.handleClose()
	case SyscallLseek:
		return h.handleLseek()
	case SyscallRead:
		return h.handleRead()
	case SyscallWrite:
		return h.handleWrite()
	case SyscallFstat:
		return h.handleFstat()
	case SyscallExit, SyscallExitGroup:
		return h.handleExit()
	case SyscallClockGetTime:
		return h.handleClockGetTime()
	case SyscallGetPid, SyscallGetTid:
		// One guest process, one thread.
		h.regFile.WriteReg(10, 1)
		return SyscallResult{}
	case SyscallBrk:
		return h.handleBrk()
	default:
		h.setError(ENOSYS)
		return SyscallResult{}
	}
}

func (h *DefaultSyscallHandler) handleExit() SyscallResult {
	return SyscallResult{
		Exited:   true,
		ExitCode: int64(h.regFile.ReadReg(10)),
	}
}

// handleOpenAt handles the openat syscall (56). The dirfd argument is
// ignored; paths resolve against the host working directory.
func (h *DefaultSyscallHandler) handleOpenAt() SyscallResult {
	pathPtr := h.regFile.ReadReg(11)
	flags := h.regFile.ReadReg(12)
	mode := h.regFile.ReadReg(13)

	path, ok := h.readString(pathPtr)
	if !ok {
		h.setError(EINVAL)
		return SyscallResult{}
	}

	fd, err := h.fdTable.Open(path, hostOpenFlags(flags), os.FileMode(mode&0777))
	if err != nil {
		h.setError(ENOENT)
		return SyscallResult{}
	}

	h.regFile.WriteReg(10, fd)
	return SyscallResult{}
}

func hostOpenFlags(flags uint64) int {
	var host int
	switch {
	case flags&guestORdWr != 0:
		host = os.O_RDWR
	case flags&guestOWrOnly != 0:
		host = os.O_WRONLY
	default:
		host = os.O_RDONLY
	}
	if flags&guestOCreat != 0 {
		host |= os.O_CREATE
	}
	if flags&guestOExcl != 0 {
		host |= os.O_EXCL
	}
	if flags&guestOTrunc != 0 {
		host |= os.O_TRUNC
	}
	if flags&guestOAppend != 0 {
		host |= os.O_APPEND
	}
	return host
}

func (h *DefaultSyscallHandler) handleClose() SyscallResult {
	fd := h.regFile.ReadReg(10)

	if err := h.fdTable.Close(fd); err != nil {
		h.setError(EBADF)
		return SyscallResult{}
	}

	h.regFile.WriteReg(10, 0)
	return SyscallResult{}
}

func (h *DefaultSyscallHandler) handleLseek() SyscallResult {
	fd := h.regFile.ReadReg(10)
	offset := int64(h.regFile.ReadReg(11))
	whence := int(h.regFile.ReadReg(12))

	pos, err := h.fdTable.Seek(fd, offset, whence)
	if err != nil {
		h.setError(EBADF)
		return SyscallResult{}
	}

	h.regFile.WriteReg(10, uint64(pos))
	return SyscallResult{}
}

// handleRead handles the read syscall (63). fd 0 reads from the
// configured stdin reader; other descriptors go through the FD table.
func (h *DefaultSyscallHandler) handleRead() SyscallResult {
	fd := h.regFile.ReadReg(10)
	bufPtr := h.regFile.ReadReg(11)
	count := h.regFile.ReadReg(12)

	buf := make([]byte, count)

	var n int
	var err error
	if fd == 0 {
		if h.stdin == nil {
			h.regFile.WriteReg(10, 0)
			return SyscallResult{}
		}
		n, err = h.stdin.Read(buf)
	} else {
		n, err = h.fdTable.Read(fd, buf)
	}
	if err != nil && n == 0 {
		if err == io.EOF {
			h.regFile.WriteReg(10, 0)
		} else {
			h.setError(EBADF)
		}
		return SyscallResult{}
	}

	h.memory.WriteBytes(bufPtr, buf[:n])
	h.regFile.WriteReg(10, uint64(n))
	return SyscallResult{}
}

// handleWrite handles the write syscall (64). fds 1 and 2 go to the
// configured writers; other descriptors go through the FD table.
func (h *DefaultSyscallHandler) handleWrite() SyscallResult {
	fd := h.regFile.ReadReg(10)
	bufPtr := h.regFile.ReadReg(11)
	count := h.regFile.ReadReg(12)

	buf := make([]byte, count)
	h.memory.ReadBytes(bufPtr, buf)

	var n int
	var err error
	switch fd {
	case 1:
		n, err = h.stdout.Write(buf)
	case 2:
		n, err = h.stderr.Write(buf)
	default:
		n, err = h.fdTable.Write(fd, buf)
		if err != nil {
			h.setError(EBADF)
			return SyscallResult{}
		}
	}
	if err != nil {
		h.setError(EIO)
		return SyscallResult{}
	}

	h.regFile.WriteReg(10, uint64(n))
	return SyscallResult{}
}

// handleFstat handles the fstat syscall (80). The guest struct stat is
// 128 bytes on RV64; only st_mode and st_size are filled in, which is
// enough for libc isatty and buffering decisions.
func (h *DefaultSyscallHandler) handleFstat() SyscallResult {
	fd := h.regFile.ReadReg(10)
	statPtr := h.regFile.ReadReg(11)

	const (
		sIFCHR = 0x2000
		sIFREG = 0x8000
	)

	var mode uint32
	var size int64
	if fd <= 2 {
		mode = sIFCHR | 0o666
	} else {
		entry, ok := h.fdTable.Get(fd)
		if !ok || entry.HostFile == nil {
			h.setError(EBADF)
			return SyscallResult{}
		}
		info, err := entry.HostFile.Stat()
		if err != nil {
			h.setError(EIO)
			return SyscallResult{}
		}
		mode = sIFREG | uint32(info.Mode().Perm())
		size = info.Size()
	}

	buf := make([]byte, 128)
	binary.LittleEndian.PutUint32(buf[16:], mode)         // st_mode
	binary.LittleEndian.PutUint64(buf[48:], uint64(size)) // st_size
	binary.LittleEndian.PutUint32(buf[56:], 4096)         // st_blksize
	h.memory.WriteBytes(statPtr, buf)

	h.regFile.WriteReg(10, 0)
	return SyscallResult{}
}

// handleClockGetTime handles clock_gettime (113) with the host clock.
func (h *DefaultSyscallHandler) handleClockGetTime() SyscallResult {
	tpPtr := h.regFile.ReadReg(11)

	now := time.Now()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(now.Unix()))
	binary.LittleEndian.PutUint64(buf[8:], uint64(now.Nanosecond()))
	h.memory.WriteBytes(tpPtr, buf[:])

	h.regFile.WriteReg(10, 0)
	return SyscallResult{}
}

// handleBrk handles the brk syscall (214). brk(0) reports the current
// break; requests past the limit leave the break unchanged. Either way
// the current break is returned, as Linux does.
func (h *DefaultSyscallHandler) handleBrk() SyscallResult {
	addr := h.regFile.ReadReg(10)

	if addr >= h.brk && addr < h.brkLimit {
		h.brk = addr
	}

	h.regFile.WriteReg(10, h.brk)
	return SyscallResult{}
}

// readString reads a NUL-terminated string from guest memory.
func (h *DefaultSyscallHandler) readString(addr uint64) (string, bool) {
	const maxPath = 4096

	var out []byte
	for i := uint64(0); i < maxPath; i++ {
		b := h.memory.Read8(addr + i)
		if b == 0 {
			return string(out), true
		}
		out = append(out, b)
	}
	return "", false
}

// setError sets a0 to -errno (as two's complement).
func (h *DefaultSyscallHandler) setError(errno int) {
	h.regFile.WriteReg(10, uint64(-int64(errno)))
}
