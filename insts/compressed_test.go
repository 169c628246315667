package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/insts"
)

var _ = Describe("Compressed decoding", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Quadrant 0", func() {
		// C.ADDI4SPN x8, sp, 16 -> 0x0800
		It("should expand C.ADDI4SPN to ADDI off the stack pointer", func() {
			inst := decoder.DecodeCompressed(0x0800)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Format).To(Equal(insts.FormatOpImm))
			Expect(inst.Rd).To(Equal(uint8(8)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(16)))
			Expect(inst.Len).To(Equal(uint8(2)))
		})

		// C.LW x9, 4(x10) -> 0x4144
		It("should expand C.LW", func() {
			inst := decoder.DecodeCompressed(0x4144)

			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Format).To(Equal(insts.FormatLoad))
			Expect(inst.Rd).To(Equal(uint8(9)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(4)))
		})

		// C.LD x8, 8(x9) -> 0x6480
		It("should expand C.LD", func() {
			inst := decoder.DecodeCompressed(0x6480)

			Expect(inst.Op).To(Equal(insts.OpLD))
			Expect(inst.Rd).To(Equal(uint8(8)))
			Expect(inst.Rs1).To(Equal(uint8(9)))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		// C.FLD f8, 16(x10) -> 0x2900
		It("should expand C.FLD", func() {
			inst := decoder.DecodeCompressed(0x2900)

			Expect(inst.Op).To(Equal(insts.OpFLD))
			Expect(inst.Format).To(Equal(insts.FormatLoadFp))
			Expect(inst.Double).To(BeTrue())
			Expect(inst.Rd).To(Equal(uint8(8)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(16)))
		})

		// C.SD x14, 0(x15) -> 0xE398
		It("should expand C.SD", func() {
			inst := decoder.DecodeCompressed(0xE398)

			Expect(inst.Op).To(Equal(insts.OpSD))
			Expect(inst.Format).To(Equal(insts.FormatStore))
			Expect(inst.Rs1).To(Equal(uint8(15)))
			Expect(inst.Rs2).To(Equal(uint8(14)))
			Expect(inst.Imm).To(Equal(int64(0)))
		})
	})

	Describe("Quadrant 1", func() {
		// C.ADDI x10, -2 -> 0x1579
		It("should expand C.ADDI with a negative immediate", func() {
			inst := decoder.DecodeCompressed(0x1579)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(-2)))
		})

		// C.ADDIW x3, -1 -> 0x31FD
		It("should expand C.ADDIW", func() {
			inst := decoder.DecodeCompressed(0x31FD)

			Expect(inst.Op).To(Equal(insts.OpADDIW))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(int64(-1)))
		})

		// C.LI x1, 5 -> 0x4095
		It("should expand C.LI to ADDI from x0", func() {
			inst := decoder.DecodeCompressed(0x4095)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(5)))
		})

		// C.LUI x3, 1 -> 0x6185
		It("should expand C.LUI", func() {
			inst := decoder.DecodeCompressed(0x6185)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(int64(0x1000)))
		})

		// C.ADDI16SP 16 -> 0x6141
		It("should expand C.ADDI16SP", func() {
			inst := decoder.DecodeCompressed(0x6141)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Rd).To(Equal(uint8(2)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(16)))
		})

		// C.SRAI x8, 63 -> 0x947D
		It("should expand C.SRAI with a 6-bit shift amount", func() {
			inst := decoder.DecodeCompressed(0x947D)

			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Rd).To(Equal(uint8(8)))
			Expect(inst.Rs1).To(Equal(uint8(8)))
			Expect(inst.Imm).To(Equal(int64(63)))
		})

		// C.AND x8, x9 -> 0x8C65
		It("should expand C.AND", func() {
			inst := decoder.DecodeCompressed(0x8C65)

			Expect(inst.Op).To(Equal(insts.OpAND))
			Expect(inst.Format).To(Equal(insts.FormatOp))
			Expect(inst.Rd).To(Equal(uint8(8)))
			Expect(inst.Rs1).To(Equal(uint8(8)))
			Expect(inst.Rs2).To(Equal(uint8(9)))
		})

		// C.SUBW x10, x11 -> 0x9D0D
		It("should expand C.SUBW", func() {
			inst := decoder.DecodeCompressed(0x9D0D)

			Expect(inst.Op).To(Equal(insts.OpSUBW))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Rs2).To(Equal(uint8(11)))
		})

		// C.J +42 -> 0xA02D
		It("should expand C.J to JAL x0", func() {
			inst := decoder.DecodeCompressed(0xA02D)

			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(42)))
		})

		// C.BEQZ x10, +6 -> 0xC119
		It("should expand C.BEQZ to BEQ against x0", func() {
			inst := decoder.DecodeCompressed(0xC119)

			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Rs2).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(6)))
		})

		// C.BNEZ x9, -4 -> 0xFCF5
		It("should expand C.BNEZ with a negative offset", func() {
			inst := decoder.DecodeCompressed(0xFCF5)

			Expect(inst.Op).To(Equal(insts.OpBNE))
			Expect(inst.Rs1).To(Equal(uint8(9)))
			Expect(inst.Imm).To(Equal(int64(-4)))
		})
	})

	Describe("Quadrant 2", func() {
		// C.SLLI x1, 1 -> 0x0086
		It("should expand C.SLLI", func() {
			inst := decoder.DecodeCompressed(0x0086)

			Expect(inst.Op).To(Equal(insts.OpSLLI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int64(1)))
		})

		// C.LWSP x5, 8(sp) -> 0x42A2
		It("should expand C.LWSP", func() {
			inst := decoder.DecodeCompressed(0x42A2)

			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		// C.LDSP x8, 16(sp) -> 0x6442
		It("should expand C.LDSP", func() {
			inst := decoder.DecodeCompressed(0x6442)

			Expect(inst.Op).To(Equal(insts.OpLD))
			Expect(inst.Rd).To(Equal(uint8(8)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(16)))
		})

		// C.SWSP x15, 4(sp) -> 0xC23E
		It("should expand C.SWSP", func() {
			inst := decoder.DecodeCompressed(0xC23E)

			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(15)))
			Expect(inst.Imm).To(Equal(int64(4)))
		})

		// C.SDSP x1, 8(sp) -> 0xE406
		It("should expand C.SDSP", func() {
			inst := decoder.DecodeCompressed(0xE406)

			Expect(inst.Op).To(Equal(insts.OpSD))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		// C.FSDSP f9, 8(sp) -> 0xA426
		It("should expand C.FSDSP", func() {
			inst := decoder.DecodeCompressed(0xA426)

			Expect(inst.Op).To(Equal(insts.OpFSD))
			Expect(inst.Format).To(Equal(insts.FormatStoreFp))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(9)))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		// C.MV x1, x2 -> 0x808A
		It("should expand C.MV to ADD from x0", func() {
			inst := decoder.DecodeCompressed(0x808A)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
		})

		// C.ADD x1, x2 -> 0x908A
		It("should expand C.ADD", func() {
			inst := decoder.DecodeCompressed(0x908A)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
		})

		// C.JR x1 -> 0x8082, the canonical RET
		It("should expand C.JR to JALR x0", func() {
			inst := decoder.DecodeCompressed(0x8082)

			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int64(0)))
		})

		// C.JALR x5 -> 0x9282
		It("should expand C.JALR to JALR x1", func() {
			inst := decoder.DecodeCompressed(0x9282)

			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(5)))
		})

		// C.EBREAK -> 0x9002
		It("should decode C.EBREAK", func() {
			inst := decoder.DecodeCompressed(0x9002)

			Expect(inst.Op).To(Equal(insts.OpEBREAK))
			Expect(inst.Format).To(Equal(insts.FormatSystem))
		})
	})

	Describe("Illegal encodings", func() {
		It("should reject the all-zero halfword", func() {
			inst := decoder.DecodeCompressed(0x0000)

			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Format).To(Equal(insts.FormatUnknown))
		})

		It("should not decode 32-bit words", func() {
			inst := decoder.DecodeCompressed(0x00B3)

			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})

		// C.LWSP with rd=x0 is reserved
		It("should reject C.LWSP to x0", func() {
			inst := decoder.DecodeCompressed(0x4022)

			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})
	})
})
