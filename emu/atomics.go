package emu

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/sarchlab/rv64sim/insts"
)

// AtomicUnit implements the A extension: LR/SC and the atomic
// memory operations. All accesses go through the host's sequentially
// consistent atomics, which is stronger than any acquire/release
// ordering an encoding can request, so every requested ordering holds.
type AtomicUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewAtomicUnit creates a new AtomicUnit connected to the given
// register file and memory.
func NewAtomicUnit(regFile *RegFile, memory *Memory) *AtomicUnit {
	return &AtomicUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// word32 returns a pointer suitable for atomic access. The address
// must already be verified as aligned; an aligned word never crosses a
// page boundary.
func (m *Memory) word32(addr uint64) *uint32 {
	p := m.page(addr)
	return (*uint32)(unsafe.Pointer(&p[addr%pageSize]))
}

func (m *Memory) word64(addr uint64) *uint64 {
	p := m.page(addr)
	return (*uint64)(unsafe.Pointer(&p[addr%pageSize]))
}

// Execute runs an A-extension instruction. Misaligned addresses are
// fatal.
func (u *AtomicUnit) Execute(inst *insts.Instruction) error {
	addr := u.regFile.ReadReg(inst.Rs1)

	size := uint64(4)
	if inst.Is64Bit {
		size = 8
	}
	if addr%size != 0 {
		return fmt.Errorf("misaligned atomic access to 0x%X (size %d)", addr, size)
	}

	switch inst.Op {
	case insts.OpLR:
		u.executeLR(inst, addr, uint8(size))
	case insts.OpSC:
		u.executeSC(inst, addr, uint8(size))
	default:
		u.executeAMO(inst, addr)
	}
	return nil
}

func (u *AtomicUnit) executeLR(inst *insts.Instruction, addr uint64, size uint8) {
	var value uint64
	if inst.Is64Bit {
		value = atomic.LoadUint64(u.memory.word64(addr))
	} else {
		value = signExtend32(atomic.LoadUint32(u.memory.word32(addr)))
	}

	res := &u.memory.reservation
	res.mu.Lock()
	res.valid = true
	res.addr = addr
	res.size = size
	res.mu.Unlock()

	u.regFile.WriteReg(inst.Rd, value)
}

// executeSC stores conditionally. The reservation lock serializes the
// check and the store against competing store-conditionals, and any
// attempt clears the reservation.
func (u *AtomicUnit) executeSC(inst *insts.Instruction, addr uint64, size uint8) {
	value := u.regFile.ReadReg(inst.Rs2)

	res := &u.memory.reservation
	res.mu.Lock()
	ok := res.valid && res.addr == addr && res.size == size
	res.valid = false
	if ok {
		if inst.Is64Bit {
			atomic.StoreUint64(u.memory.word64(addr), value)
		} else {
			atomic.StoreUint32(u.memory.word32(addr), uint32(value))
		}
	}
	res.mu.Unlock()

	if ok {
		u.regFile.WriteReg(inst.Rd, 0)
	} else {
		u.regFile.WriteReg(inst.Rd, 1)
	}
}

func (u *AtomicUnit) executeAMO(inst *insts.Instruction, addr uint64) {
	operand := u.regFile.ReadReg(inst.Rs2)

	var old uint64
	if inst.Is64Bit {
		old = amoUpdate64(u.memory.word64(addr), operand, inst.Op)
	} else {
		old = signExtend32(amoUpdate32(u.memory.word32(addr), uint32(operand), inst.Op))
	}

	// A successful AMO write breaks any reservation on the same
	// location.
	res := &u.memory.reservation
	res.mu.Lock()
	if res.valid && res.addr == addr {
		res.valid = false
	}
	res.mu.Unlock()

	u.regFile.WriteReg(inst.Rd, old)
}

func amoUpdate64(p *uint64, operand uint64, op insts.Op) uint64 {
	for {
		old := atomic.LoadUint64(p)
		if atomic.CompareAndSwapUint64(p, old, amoApply64(old, operand, op)) {
			return old
		}
	}
}

func amoUpdate32(p *uint32, operand uint32, op insts.Op) uint32 {
	for {
		old := atomic.LoadUint32(p)
		if atomic.CompareAndSwapUint32(p, old, amoApply32(old, operand, op)) {
			return old
		}
	}
}

func amoApply64(old, operand uint64, op insts.Op) uint64 {
	switch op {
	case insts.OpAMOSWAP:
		return operand
	case insts.OpAMOADD:
		return old + operand
	case insts.OpAMOXOR:
		return old ^ operand
	case insts.OpAMOAND:
		return old & operand
	case insts.OpAMOOR:
		return old | operand
	case insts.OpAMOMIN:
		if int64(operand) < int64(old) {
			return operand
		}
		return old
	case insts.OpAMOMAX:
		if int64(operand) > int64(old) {
			return operand
		}
		return old
	case insts.OpAMOMINU:
		if operand < old {
			return operand
		}
		return old
	case insts.OpAMOMAXU:
		if operand > old {
			return operand
		}
		return old
	}
	return old
}

func amoApply32(old, operand uint32, op insts.Op) uint32 {
	switch op {
	case insts.OpAMOSWAP:
		return operand
	case insts.OpAMOADD:
		return old + operand
	case insts.OpAMOXOR:
		return old ^ operand
	case insts.OpAMOAND:
		return old & operand
	case insts.OpAMOOR:
		return old | operand
	case insts.OpAMOMIN:
		if int32(operand) < int32(old) {
			return operand
		}
		return old
	case insts.OpAMOMAX:
		if int32(operand) > int32(old) {
			return operand
		}
		return old
	case insts.OpAMOMINU:
		if operand < old {
			return operand
		}
		return old
	case insts.OpAMOMAXU:
		if operand > old {
			return operand
		}
		return old
	}
	return old
}
