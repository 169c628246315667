package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/emu"
)

const (
	csrFFlags = 0x001
	csrFRM    = 0x002
	csrFCsr   = 0x003
)

var _ = Describe("CsrUnit", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	step := func(word uint32) {
		e.LoadProgram(0x1000, program(word))
		result := e.Step()
		Expect(result.Err).To(BeNil())
	}

	It("should swap fcsr with CSRRW", func() {
		e.RegFile().FCsr.Flags = 0x03
		e.RegFile().FCsr.FRM = 0x02
		e.RegFile().WriteReg(1, 0x1F) // frm 0, all flags

		step(csrrw(2, 1, csrFCsr))

		Expect(e.RegFile().ReadReg(2)).To(Equal(uint64(0x02<<5 | 0x03)))
		Expect(e.RegFile().FCsr.Flags).To(Equal(uint8(0x1F)))
		Expect(e.RegFile().FCsr.FRM).To(Equal(uint8(0)))
	})

	It("should read without writing when CSRRS has rs1 x0", func() {
		e.RegFile().FCsr.FRM = 0x03

		step(csrrs(1, 0, csrFRM))

		Expect(e.RegFile().ReadReg(1)).To(Equal(uint64(3)))
		Expect(e.RegFile().FCsr.FRM).To(Equal(uint8(3)))
	})

	It("should set bits with CSRRS", func() {
		e.RegFile().FCsr.Flags = uint8(emu.FlagNX)
		e.RegFile().WriteReg(1, uint64(emu.FlagDZ))

		step(csrrs(2, 1, csrFFlags))

		Expect(e.RegFile().ReadReg(2)).To(Equal(uint64(emu.FlagNX)))
		Expect(e.RegFile().FCsr.Flags).To(Equal(emu.FlagNX | emu.FlagDZ))
	})

	It("should clear bits with CSRRC", func() {
		e.RegFile().FCsr.Flags = emu.FlagNX | emu.FlagDZ
		e.RegFile().WriteReg(1, uint64(emu.FlagNX))

		step(csrrc(2, 1, csrFFlags))

		Expect(e.RegFile().FCsr.Flags).To(Equal(emu.FlagDZ))
	})

	It("should write the immediate with CSRRWI", func() {
		step(csrrwi(0, 0x1F, csrFFlags))
		Expect(e.RegFile().FCsr.Flags).To(Equal(uint8(0x1F)))
	})

	It("should mask writes to the CSR width", func() {
		e.RegFile().WriteReg(1, 0xFFFF)

		step(csrrw(0, 1, csrFRM))

		Expect(e.RegFile().FCsr.FRM).To(Equal(uint8(7)))
	})

	It("should fault on an unimplemented CSR", func() {
		e.LoadProgram(0x1000, program(csrrs(1, 0, 0xC00))) // cycle
		result := e.Step()
		Expect(result.Err).To(HaveOccurred())
	})

	It("should accrue flags from floating-point operations", func() {
		e.RegFile().WriteFReg(1, 0x3FF0000000000000) // 1.0
		e.RegFile().WriteFReg(2, 0)

		e.LoadProgram(0x1000, program(
			fdivD(3, 1, 2, 0),
			csrrs(4, 0, csrFFlags),
		))
		Expect(e.Step().Err).To(BeNil())
		Expect(e.Step().Err).To(BeNil())

		Expect(e.RegFile().ReadReg(4)).To(Equal(uint64(emu.FlagDZ)))
	})
})
