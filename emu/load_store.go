package emu

import (
	"github.com/sarchlab/rv64sim/insts"
)

// MemoryObserver is notified of every guest memory access. A cache
// model can implement it to collect hit and miss statistics without
// sitting on the access path.
type MemoryObserver interface {
	OnFetch(addr uint64, size int)
	OnLoad(addr uint64, size int)
	OnStore(addr uint64, size int)
}

// LoadStoreUnit implements the RV64 load and store operations for both
// the integer and floating-point register files.
type LoadStoreUnit struct {
	regFile  *RegFile
	memory   *Memory
	observer MemoryObserver
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

func (lsu *LoadStoreUnit) notifyLoad(addr uint64, size int) {
	if lsu.observer != nil {
		lsu.observer.OnLoad(addr, size)
	}
}

func (lsu *LoadStoreUnit) notifyStore(addr uint64, size int) {
	if lsu.observer != nil {
		lsu.observer.OnStore(addr, size)
	}
}

func (lsu *LoadStoreUnit) effectiveAddr(inst *insts.Instruction) uint64 {
	return uint64(int64(lsu.regFile.ReadReg(inst.Rs1)) + inst.Imm)
}

// ExecuteLoad executes an integer load.
func (lsu *LoadStoreUnit) ExecuteLoad(inst *insts.Instruction) {
	addr := lsu.effectiveAddr(inst)

	var value uint64
	switch inst.Op {
	case insts.OpLB:
		lsu.notifyLoad(addr, 1)
		value = uint64(int64(int8(lsu.memory.Read8(addr))))
	case insts.OpLH:
		lsu.notifyLoad(addr, 2)
		value = uint64(int64(int16(lsu.memory.Read16(addr))))
	case insts.OpLW:
		lsu.notifyLoad(addr, 4)
		value = uint64(int64(int32(lsu.memory.Read32(addr))))
	case insts.OpLD:
		lsu.notifyLoad(addr, 8)
		value = lsu.memory.Read64(addr)
	case insts.OpLBU:
		lsu.notifyLoad(addr, 1)
		value = uint64(lsu.memory.Read8(addr))
	case insts.OpLHU:
		lsu.notifyLoad(addr, 2)
		value = uint64(lsu.memory.Read16(addr))
	case insts.OpLWU:
		lsu.notifyLoad(addr, 4)
		value = uint64(lsu.memory.Read32(addr))
	}
	lsu.regFile.WriteReg(inst.Rd, value)
}

// ExecuteStore executes an integer store.
func (lsu *LoadStoreUnit) ExecuteStore(inst *insts.Instruction) {
	addr := lsu.effectiveAddr(inst)
	value := lsu.regFile.ReadReg(inst.Rs2)

	switch inst.Op {
	case insts.OpSB:
		lsu.notifyStore(addr, 1)
		lsu.memory.Write8(addr, uint8(value))
	case insts.OpSH:
		lsu.notifyStore(addr, 2)
		lsu.memory.Write16(addr, uint16(value))
	case insts.OpSW:
		lsu.notifyStore(addr, 4)
		lsu.memory.Write32(addr, uint32(value))
	case insts.OpSD:
		lsu.notifyStore(addr, 8)
		lsu.memory.Write64(addr, value)
	}
}

// ExecuteLoadFp executes FLW or FLD. Single-precision loads NaN-box
// the loaded bits.
func (lsu *LoadStoreUnit) ExecuteLoadFp(inst *insts.Instruction) {
	addr := lsu.effectiveAddr(inst)

	if inst.Op == insts.OpFLD {
		lsu.notifyLoad(addr, 8)
		lsu.regFile.WriteFReg(inst.Rd, lsu.memory.Read64(addr))
		return
	}
	lsu.notifyLoad(addr, 4)
	lsu.regFile.WriteFReg32(inst.Rd, lsu.memory.Read32(addr))
}

// ExecuteStoreFp executes FSW or FSD. Single-precision stores write
// the low 32 bits of the register without unboxing.
func (lsu *LoadStoreUnit) ExecuteStoreFp(inst *insts.Instruction) {
	addr := lsu.effectiveAddr(inst)
	value := lsu.regFile.ReadFReg(inst.Rs2)

	if inst.Op == insts.OpFSD {
		lsu.notifyStore(addr, 8)
		lsu.memory.Write64(addr, value)
		return
	}
	lsu.notifyStore(addr, 4)
	lsu.memory.Write32(addr, uint32(value))
}
