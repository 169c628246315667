package emu

import (
	"encoding/binary"
	"sync"
)

const pageSize = 4096

// Memory is a sparse, paged guest memory. Pages are allocated on first
// touch and unbacked reads return zero. A Memory can be shared by
// several Emulators running as separate harts; the page table is
// guarded by a lock, while data accesses follow the guest's own
// synchronization, the same way real shared memory does.
type Memory struct {
	mu    sync.RWMutex
	pages map[uint64][]byte

	reservation reservation
}

// reservation tracks the address range claimed by the most recent LR
// on this memory.
type reservation struct {
	mu    sync.Mutex
	valid bool
	addr  uint64
	size  uint8
}

// NewMemory creates a new empty memory.
func NewMemory() *Memory {
	return &Memory{
		pages: make(map[uint64][]byte),
	}
}

// page returns the backing page for addr, allocating it if needed.
func (m *Memory) page(addr uint64) []byte {
	key := addr / pageSize

	m.mu.RLock()
	p, ok := m.pages[key]
	m.mu.RUnlock()
	if ok {
		return p
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok = m.pages[key]; ok {
		return p
	}
	p = make([]byte, pageSize)
	m.pages[key] = p
	return p
}

// peekPage returns the backing page for addr without allocating.
func (m *Memory) peekPage(addr uint64) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pages[addr/pageSize]
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint64) uint8 {
	p := m.peekPage(addr)
	if p == nil {
		return 0
	}
	return p[addr%pageSize]
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint64, value uint8) {
	m.page(addr)[addr%pageSize] = value
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint64) uint16 {
	var buf [2]byte
	m.ReadBytes(addr, buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint64, value uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	m.WriteBytes(addr, buf[:])
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint64) uint32 {
	var buf [4]byte
	m.ReadBytes(addr, buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint64, value uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	m.WriteBytes(addr, buf[:])
}

// Read64 reads a little-endian doubleword.
func (m *Memory) Read64(addr uint64) uint64 {
	var buf [8]byte
	m.ReadBytes(addr, buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

// Write64 writes a little-endian doubleword.
func (m *Memory) Write64(addr uint64, value uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	m.WriteBytes(addr, buf[:])
}

// ReadBytes fills buf from memory starting at addr, crossing page
// boundaries as needed.
func (m *Memory) ReadBytes(addr uint64, buf []byte) {
	for len(buf) > 0 {
		off := addr % pageSize
		n := pageSize - off
		if uint64(len(buf)) < n {
			n = uint64(len(buf))
		}
		if p := m.peekPage(addr); p != nil {
			copy(buf[:n], p[off:off+n])
		} else {
			for i := uint64(0); i < n; i++ {
				buf[i] = 0
			}
		}
		addr += n
		buf = buf[n:]
	}
}

// WriteBytes copies buf into memory starting at addr, crossing page
// boundaries as needed.
func (m *Memory) WriteBytes(addr uint64, buf []byte) {
	for len(buf) > 0 {
		off := addr % pageSize
		n := pageSize - off
		if uint64(len(buf)) < n {
			n = uint64(len(buf))
		}
		copy(m.page(addr)[off:off+n], buf[:n])
		addr += n
		buf = buf[n:]
	}
}

// LoadProgram copies a program image into memory at the given address.
func (m *Memory) LoadProgram(addr uint64, program []byte) {
	m.WriteBytes(addr, program)
}
