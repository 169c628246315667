package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/rv64sim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (via exit syscall).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes RV64 instructions functionally.
type Emulator struct {
	regFile        *RegFile
	memory         *Memory
	decoder        *insts.Decoder
	syscallHandler SyscallHandler

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit
	fpu        *FPU
	atomicUnit *AtomicUnit
	csrUnit    *CsrUnit

	// I/O
	stdout io.Writer
	stderr io.Writer

	tracer   *Tracer
	observer MemoryObserver

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithMemory makes the emulator use an existing memory instead of
// allocating its own. Emulators sharing one memory act as harts of
// the same system: loads, stores, atomics, and reservations all hit
// the shared image.
func WithMemory(m *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithStackPointer sets the initial stack pointer (x2) value.
func WithStackPointer(sp uint64) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.WriteReg(2, sp)
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithMemoryObserver registers an observer that sees every fetch,
// load, and store, typically a cache model collecting statistics.
func WithMemoryObserver(o MemoryObserver) EmulatorOption {
	return func(e *Emulator) {
		e.observer = o
	}
}

// WithTrace writes a disassembled line for every executed instruction
// to w.
func WithTrace(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.tracer = NewTracer(w)
	}
}

// NewEmulator creates a new RV64 emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		memory:  NewMemory(),
		decoder: insts.NewDecoder(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	// Apply options first (may replace memory or stdout/stderr)
	for _, opt := range opts {
		opt(e)
	}

	e.connectUnits()

	if e.syscallHandler == nil {
		e.syscallHandler = NewDefaultSyscallHandler(e.regFile, e.memory, e.stdout, e.stderr)
	}

	return e
}

func (e *Emulator) connectUnits() {
	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory)
	e.lsu.observer = e.observer
	e.branchUnit = NewBranchUnit(e.regFile)
	e.fpu = NewFPU(e.regFile)
	e.atomicUnit = NewAtomicUnit(e.regFile, e.memory)
	e.csrUnit = NewCsrUnit(e.regFile)
}

// SyscallHandler returns the active system call handler.
func (e *Emulator) SyscallHandler() SyscallHandler {
	return e.syscallHandler
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram loads a program image into memory at entry and sets the
// PC there.
func (e *Emulator) LoadProgram(entry uint64, program []byte) {
	e.memory.LoadProgram(entry, program)
	e.regFile.PC = entry
}

// Reset resets the emulator to its initial state. The memory is
// replaced, so a shared memory must be re-attached with a new
// emulator instead.
func (e *Emulator) Reset() {
	e.regFile = &RegFile{}
	e.memory = NewMemory()
	e.instructionCount = 0

	e.connectUnits()
	e.syscallHandler = NewDefaultSyscallHandler(e.regFile, e.memory, e.stdout, e.stderr)
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("max instructions reached"),
		}
	}

	// Fetch the low parcel first: it determines the instruction
	// length.
	pc := e.regFile.PC
	low := e.memory.Read16(pc)

	size := insts.GetInsnSize(low)

	var inst *insts.Instruction
	var raw uint32
	if size == 4 {
		raw = uint32(low) | uint32(e.memory.Read16(pc+2))<<16
		inst = e.decoder.Decode(raw)
	} else {
		raw = uint32(low)
		inst = e.decoder.DecodeCompressed(low)
	}

	if e.observer != nil {
		e.observer.OnFetch(pc, int(size))
	}

	if e.tracer != nil {
		e.tracer.Trace(pc, raw, inst)
	}

	result := e.execute(inst)
	e.instructionCount++

	return result
}

// Run executes instructions until the program exits or an error occurs.
// Returns the exit code (-1 if error).
func (e *Emulator) Run() int64 {
	for {
		result := e.Step()
		if result.Exited {
			return result.ExitCode
		}
		if result.Err != nil {
			_, _ = fmt.Fprintf(e.stderr, "Emulation error: %v\n", result.Err)
			return -1
		}
	}
}

// execute dispatches a decoded instruction to its unit.
func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	if inst.Op == insts.OpUnknown {
		return StepResult{
			Err: fmt.Errorf("illegal instruction at PC=0x%X", e.regFile.PC),
		}
	}

	if inst.Format == insts.FormatSystem {
		return e.executeSystem(inst)
	}

	var err error
	switch inst.Format {
	case insts.FormatUpperImm:
		e.executeUpperImm(inst)
	case insts.FormatJal:
		e.branchUnit.ExecuteJal(inst)
		return StepResult{} // PC already updated
	case insts.FormatJalr:
		e.branchUnit.ExecuteJalr(inst)
		return StepResult{} // PC already updated
	case insts.FormatBranch:
		e.branchUnit.ExecuteBranch(inst)
		return StepResult{} // PC already updated
	case insts.FormatLoad:
		e.lsu.ExecuteLoad(inst)
	case insts.FormatStore:
		e.lsu.ExecuteStore(inst)
	case insts.FormatLoadFp:
		e.lsu.ExecuteLoadFp(inst)
	case insts.FormatStoreFp:
		e.lsu.ExecuteStoreFp(inst)
	case insts.FormatOpImm:
		e.alu.ExecuteOpImm(inst)
	case insts.FormatOp:
		e.alu.ExecuteOp(inst)
	case insts.FormatAmo:
		err = e.atomicUnit.Execute(inst)
	case insts.FormatOpFp:
		err = e.fpu.ExecuteOpFp(inst)
	case insts.FormatFma:
		err = e.fpu.ExecuteFma(inst)
	case insts.FormatCsr:
		err = e.csrUnit.Execute(inst)
	case insts.FormatFence:
		// The emulator executes each hart's accesses in order, so
		// fences need no action.
	default:
		err = fmt.Errorf("unimplemented format %d at PC=0x%X", inst.Format, e.regFile.PC)
	}
	if err != nil {
		return StepResult{Err: fmt.Errorf("at PC=0x%X: %w", e.regFile.PC, err)}
	}

	e.regFile.PC += uint64(inst.Len)

	return StepResult{}
}

// executeUpperImm executes LUI and AUIPC.
func (e *Emulator) executeUpperImm(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpLUI:
		e.regFile.WriteReg(inst.Rd, uint64(inst.Imm))
	case insts.OpAUIPC:
		e.regFile.WriteReg(inst.Rd, e.regFile.PC+uint64(inst.Imm))
	}
}

// executeSystem handles ECALL and EBREAK.
func (e *Emulator) executeSystem(inst *insts.Instruction) StepResult {
	switch inst.Op {
	case insts.OpECALL:
		// The syscall return address is the next instruction.
		e.regFile.PC += uint64(inst.Len)

		syscallResult := e.syscallHandler.Handle()
		return StepResult{
			Exited:   syscallResult.Exited,
			ExitCode: syscallResult.ExitCode,
		}
	case insts.OpEBREAK:
		return StepResult{
			Err: fmt.Errorf("breakpoint trap at PC=0x%X", e.regFile.PC),
		}
	default:
		return StepResult{
			Err: fmt.Errorf("unimplemented system instruction at PC=0x%X", e.regFile.PC),
		}
	}
}
