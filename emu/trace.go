package emu

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/arch/riscv64/riscv64asm"

	"github.com/sarchlab/rv64sim/insts"
)

// Tracer writes one disassembled line per executed instruction.
type Tracer struct {
	w io.Writer
}

// NewTracer creates a Tracer writing to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// Trace logs the instruction at pc. 32-bit instructions are
// disassembled in GNU syntax; compressed instructions print their raw
// halfword, which the disassembler does not cover.
func (t *Tracer) Trace(pc uint64, raw uint32, inst *insts.Instruction) {
	if inst.Len == 2 {
		_, _ = fmt.Fprintf(t.w, "0x%016X: %04x\n", pc, raw)
		return
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], raw)

	decoded, err := riscv64asm.Decode(buf[:])
	if err != nil {
		_, _ = fmt.Fprintf(t.w, "0x%016X: %08x\n", pc, raw)
		return
	}

	_, _ = fmt.Fprintf(t.w, "0x%016X: %08x  %s\n", pc, raw, riscv64asm.GNUSyntax(decoded))
}
