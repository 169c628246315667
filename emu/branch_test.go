package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/emu"
)

var _ = Describe("BranchUnit", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	step := func(words ...uint32) {
		e.LoadProgram(0x1000, program(words...))
		result := e.Step()
		Expect(result.Err).To(BeNil())
	}

	Describe("conditional branches", func() {
		It("should take BEQ when operands are equal", func() {
			e.RegFile().WriteReg(1, 7)
			e.RegFile().WriteReg(2, 7)
			step(beq(1, 2, 16))
			Expect(e.RegFile().PC).To(Equal(uint64(0x1010)))
		})

		It("should fall through BEQ when operands differ", func() {
			e.RegFile().WriteReg(1, 7)
			e.RegFile().WriteReg(2, 8)
			step(beq(1, 2, 16))
			Expect(e.RegFile().PC).To(Equal(uint64(0x1004)))
		})

		It("should compare BLT as signed", func() {
			e.RegFile().WriteReg(1, 0xFFFFFFFFFFFFFFFF) // -1
			e.RegFile().WriteReg(2, 1)
			step(blt(1, 2, 8))
			Expect(e.RegFile().PC).To(Equal(uint64(0x1008)))
		})

		It("should branch backwards", func() {
			e.RegFile().WriteReg(1, 1)
			e.RegFile().WriteReg(2, 1)
			e.LoadProgram(0x1000, program(addi(3, 0, 1), beq(1, 2, -4)))
			e.Step()
			result := e.Step()
			Expect(result.Err).To(BeNil())
			Expect(e.RegFile().PC).To(Equal(uint64(0x1000)))
		})
	})

	Describe("JAL", func() {
		It("should link the next instruction and jump", func() {
			step(jal(1, 0x100))
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint64(0x1004)))
			Expect(e.RegFile().PC).To(Equal(uint64(0x1100)))
		})

		It("should discard the link when rd is x0", func() {
			step(jal(0, 8))
			Expect(e.RegFile().ReadReg(0)).To(Equal(uint64(0)))
			Expect(e.RegFile().PC).To(Equal(uint64(0x1008)))
		})
	})

	Describe("JALR", func() {
		It("should jump to rs1 plus offset", func() {
			e.RegFile().WriteReg(5, 0x2000)
			step(jalr(1, 5, 0x10))
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint64(0x1004)))
			Expect(e.RegFile().PC).To(Equal(uint64(0x2010)))
		})

		It("should clear the low bit of the target", func() {
			e.RegFile().WriteReg(5, 0x2001)
			step(jalr(0, 5, 0))
			Expect(e.RegFile().PC).To(Equal(uint64(0x2000)))
		})

		It("should read the base before writing the link", func() {
			e.RegFile().WriteReg(5, 0x2000)
			step(jalr(5, 5, 0))
			Expect(e.RegFile().ReadReg(5)).To(Equal(uint64(0x1004)))
			Expect(e.RegFile().PC).To(Equal(uint64(0x2000)))
		})
	})
})
