package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Upper immediate", func() {
		// LUI x10, 0x12345 -> 0x12345537
		It("should decode LUI x10, 0x12345", func() {
			inst := decoder.Decode(0x12345537)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Format).To(Equal(insts.FormatUpperImm))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(0x12345000)))
			Expect(inst.Len).To(Equal(uint8(4)))
		})

		// LUI x1, 0xFFFFF -> 0xFFFFF0B7, a negative immediate
		It("should sign-extend the LUI immediate", func() {
			inst := decoder.Decode(0xFFFFF0B7)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Imm).To(Equal(int64(-0x1000)))
		})

		// AUIPC x3, 0x1 -> 0x00001197
		It("should decode AUIPC x3, 0x1", func() {
			inst := decoder.Decode(0x00001197)

			Expect(inst.Op).To(Equal(insts.OpAUIPC))
			Expect(inst.Format).To(Equal(insts.FormatUpperImm))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(int64(0x1000)))
		})
	})

	Describe("Jumps", func() {
		// JAL x1, +2048 -> 0x001000EF
		It("should decode JAL x1, +2048", func() {
			inst := decoder.Decode(0x001000EF)

			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Format).To(Equal(insts.FormatJal))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int64(2048)))
		})

		// JAL x0, -4 -> 0xFFDFF06F
		It("should decode JAL x0, -4", func() {
			inst := decoder.Decode(0xFFDFF06F)

			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(-4)))
		})

		// JALR x0, 0(x1) -> 0x00008067, the canonical RET
		It("should decode JALR x0, 0(x1)", func() {
			inst := decoder.Decode(0x00008067)

			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.Format).To(Equal(insts.FormatJalr))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int64(0)))
		})
	})

	Describe("Branches", func() {
		// BEQ x1, x2, +8 -> 0x00208463
		It("should decode BEQ x1, x2, +8", func() {
			inst := decoder.Decode(0x00208463)

			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Format).To(Equal(insts.FormatBranch))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		// BLT x3, x4, -8 -> 0xFE41CCE3
		It("should decode BLT x3, x4, -8", func() {
			inst := decoder.Decode(0xFE41CCE3)

			Expect(inst.Op).To(Equal(insts.OpBLT))
			Expect(inst.Rs1).To(Equal(uint8(3)))
			Expect(inst.Rs2).To(Equal(uint8(4)))
			Expect(inst.Imm).To(Equal(int64(-8)))
		})
	})

	Describe("Loads and stores", func() {
		// LW x5, 16(x10) -> 0x01052283
		It("should decode LW x5, 16(x10)", func() {
			inst := decoder.Decode(0x01052283)

			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Format).To(Equal(insts.FormatLoad))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(16)))
		})

		// LD x6, -8(x2) -> 0xFF813303
		It("should decode LD x6, -8(x2)", func() {
			inst := decoder.Decode(0xFF813303)

			Expect(inst.Op).To(Equal(insts.OpLD))
			Expect(inst.Rd).To(Equal(uint8(6)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(-8)))
		})

		// SD x7, 24(x2) -> 0x00713C23
		It("should decode SD x7, 24(x2)", func() {
			inst := decoder.Decode(0x00713C23)

			Expect(inst.Op).To(Equal(insts.OpSD))
			Expect(inst.Format).To(Equal(insts.FormatStore))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(7)))
			Expect(inst.Imm).To(Equal(int64(24)))
		})

		// FLW f1, 4(x2) -> 0x00412087
		It("should decode FLW f1, 4(x2)", func() {
			inst := decoder.Decode(0x00412087)

			Expect(inst.Op).To(Equal(insts.OpFLW))
			Expect(inst.Format).To(Equal(insts.FormatLoadFp))
			Expect(inst.Double).To(BeFalse())
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(4)))
		})

		// FSD f3, 8(x4) -> 0x00323427
		It("should decode FSD f3, 8(x4)", func() {
			inst := decoder.Decode(0x00323427)

			Expect(inst.Op).To(Equal(insts.OpFSD))
			Expect(inst.Format).To(Equal(insts.FormatStoreFp))
			Expect(inst.Double).To(BeTrue())
			Expect(inst.Rs1).To(Equal(uint8(4)))
			Expect(inst.Rs2).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(int64(8)))
		})
	})

	Describe("Register-immediate ALU", func() {
		// ADDI x5, x6, -1 -> 0xFFF30293
		It("should decode ADDI x5, x6, -1", func() {
			inst := decoder.Decode(0xFFF30293)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Format).To(Equal(insts.FormatOpImm))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(6)))
			Expect(inst.Imm).To(Equal(int64(-1)))
		})

		// SLLI x1, x2, 33 -> 0x02111093
		It("should decode SLLI x1, x2, 33", func() {
			inst := decoder.Decode(0x02111093)

			Expect(inst.Op).To(Equal(insts.OpSLLI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(33)))
		})

		// SRAI x3, x4, 4 -> 0x40425193
		It("should decode SRAI x3, x4, 4", func() {
			inst := decoder.Decode(0x40425193)

			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Imm).To(Equal(int64(4)))
		})

		// ADDIW x1, x1, 1 -> 0x0010809B
		It("should decode ADDIW x1, x1, 1", func() {
			inst := decoder.Decode(0x0010809B)

			Expect(inst.Op).To(Equal(insts.OpADDIW))
			Expect(inst.Format).To(Equal(insts.FormatOpImm))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int64(1)))
		})
	})

	Describe("Register-register ALU", func() {
		// ADD x1, x2, x3 -> 0x003100B3
		It("should decode ADD x1, x2, x3", func() {
			inst := decoder.Decode(0x003100B3)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Format).To(Equal(insts.FormatOp))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(3)))
		})

		// SUBW x5, x6, x7 -> 0x407302BB
		It("should decode SUBW x5, x6, x7", func() {
			inst := decoder.Decode(0x407302BB)

			Expect(inst.Op).To(Equal(insts.OpSUBW))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(6)))
			Expect(inst.Rs2).To(Equal(uint8(7)))
		})

		// MUL x1, x2, x3 -> 0x023100B3
		It("should decode MUL x1, x2, x3", func() {
			inst := decoder.Decode(0x023100B3)

			Expect(inst.Op).To(Equal(insts.OpMUL))
			Expect(inst.Format).To(Equal(insts.FormatOp))
		})

		// DIVU x1, x2, x3 -> 0x023150B3
		It("should decode DIVU x1, x2, x3", func() {
			inst := decoder.Decode(0x023150B3)

			Expect(inst.Op).To(Equal(insts.OpDIVU))
		})
	})

	Describe("Atomics", func() {
		// LR.W.AQ x5, (x10) -> 0x140522AF
		It("should decode LR.W with acquire", func() {
			inst := decoder.Decode(0x140522AF)

			Expect(inst.Op).To(Equal(insts.OpLR))
			Expect(inst.Format).To(Equal(insts.FormatAmo))
			Expect(inst.Is64Bit).To(BeFalse())
			Expect(inst.Aq).To(BeTrue())
			Expect(inst.Rl).To(BeFalse())
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
		})

		// SC.D.RL x6, x7, (x10) -> 0x1A75332F
		It("should decode SC.D with release", func() {
			inst := decoder.Decode(0x1A75332F)

			Expect(inst.Op).To(Equal(insts.OpSC))
			Expect(inst.Is64Bit).To(BeTrue())
			Expect(inst.Aq).To(BeFalse())
			Expect(inst.Rl).To(BeTrue())
			Expect(inst.Rd).To(Equal(uint8(6)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Rs2).To(Equal(uint8(7)))
		})

		// AMOADD.W x5, x6, (x7) -> 0x0063A2AF
		It("should decode AMOADD.W", func() {
			inst := decoder.Decode(0x0063A2AF)

			Expect(inst.Op).To(Equal(insts.OpAMOADD))
			Expect(inst.Is64Bit).To(BeFalse())
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(7)))
			Expect(inst.Rs2).To(Equal(uint8(6)))
		})

		// AMOMAXU.D x1, x2, (x3) -> 0xE021B0AF
		It("should decode AMOMAXU.D", func() {
			inst := decoder.Decode(0xE021B0AF)

			Expect(inst.Op).To(Equal(insts.OpAMOMAXU))
			Expect(inst.Is64Bit).To(BeTrue())
		})
	})

	Describe("Floating point", func() {
		// FADD.D f1, f2, f3 (rm=RNE) -> 0x023100D3
		It("should decode FADD.D with static rounding", func() {
			inst := decoder.Decode(0x023100D3)

			Expect(inst.Op).To(Equal(insts.OpFADD))
			Expect(inst.Format).To(Equal(insts.FormatOpFp))
			Expect(inst.Double).To(BeTrue())
			Expect(inst.Rm).To(Equal(insts.RmRNE))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(3)))
		})

		// FADD.S f1, f2, f3 (rm=DYN) -> 0x003170D3
		It("should decode FADD.S with dynamic rounding", func() {
			inst := decoder.Decode(0x003170D3)

			Expect(inst.Op).To(Equal(insts.OpFADD))
			Expect(inst.Double).To(BeFalse())
			Expect(inst.Rm).To(Equal(insts.RmDYN))
		})

		// FSQRT.S f1, f2 (rm=DYN) -> 0x580170D3
		It("should decode FSQRT.S", func() {
			inst := decoder.Decode(0x580170D3)

			Expect(inst.Op).To(Equal(insts.OpFSQRT))
			Expect(inst.Double).To(BeFalse())
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
		})

		// FSGNJ.S f1, f2, f2 -> 0x202100D3, the FMV.S idiom
		It("should decode FSGNJ.S", func() {
			inst := decoder.Decode(0x202100D3)

			Expect(inst.Op).To(Equal(insts.OpFSGNJ))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
		})

		// FEQ.D x1, f2, f3 -> 0xA23120D3
		It("should decode FEQ.D", func() {
			inst := decoder.Decode(0xA23120D3)

			Expect(inst.Op).To(Equal(insts.OpFEQ))
			Expect(inst.Double).To(BeTrue())
			Expect(inst.Rd).To(Equal(uint8(1)))
		})

		// FCLASS.D x1, f2 -> 0xE20110D3
		It("should decode FCLASS.D", func() {
			inst := decoder.Decode(0xE20110D3)

			Expect(inst.Op).To(Equal(insts.OpFCLASS))
			Expect(inst.Double).To(BeTrue())
		})

		// FMV.X.D x1, f2 -> 0xE20100D3
		It("should decode FMV.X.D", func() {
			inst := decoder.Decode(0xE20100D3)

			Expect(inst.Op).To(Equal(insts.OpFMVToX))
			Expect(inst.Double).To(BeTrue())
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
		})

		// FCVT.W.D x1, f2 (rm=RTZ) -> 0xC20110D3
		It("should decode FCVT.W.D", func() {
			inst := decoder.Decode(0xC20110D3)

			Expect(inst.Op).To(Equal(insts.OpFCVTFpToInt))
			Expect(inst.Double).To(BeTrue())
			Expect(inst.Cvt64).To(BeFalse())
			Expect(inst.CvtSigned).To(BeTrue())
			Expect(inst.Rm).To(Equal(insts.RmRTZ))
		})

		// FCVT.D.LU f1, x2 -> 0xD23100D3
		It("should decode FCVT.D.LU", func() {
			inst := decoder.Decode(0xD23100D3)

			Expect(inst.Op).To(Equal(insts.OpFCVTIntToFp))
			Expect(inst.Double).To(BeTrue())
			Expect(inst.Cvt64).To(BeTrue())
			Expect(inst.CvtSigned).To(BeFalse())
		})

		// FCVT.S.D f1, f2 (rm=DYN) -> 0x401170D3
		It("should decode FCVT.S.D", func() {
			inst := decoder.Decode(0x401170D3)

			Expect(inst.Op).To(Equal(insts.OpFCVTFpToFp))
			Expect(inst.Double).To(BeFalse())
			Expect(inst.SrcDouble).To(BeTrue())
		})

		// FMADD.D f1, f2, f3, f4 -> 0x223100C3
		It("should decode FMADD.D", func() {
			inst := decoder.Decode(0x223100C3)

			Expect(inst.Op).To(Equal(insts.OpFMADD))
			Expect(inst.Format).To(Equal(insts.FormatFma))
			Expect(inst.Double).To(BeTrue())
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(3)))
			Expect(inst.Rs3).To(Equal(uint8(4)))
		})
	})

	Describe("System", func() {
		// ECALL -> 0x00000073
		It("should decode ECALL", func() {
			inst := decoder.Decode(0x00000073)

			Expect(inst.Op).To(Equal(insts.OpECALL))
			Expect(inst.Format).To(Equal(insts.FormatSystem))
		})

		// EBREAK -> 0x00100073
		It("should decode EBREAK", func() {
			inst := decoder.Decode(0x00100073)

			Expect(inst.Op).To(Equal(insts.OpEBREAK))
		})

		// CSRRS x5, fcsr, x0 -> 0x003022F3, the FRCSR idiom
		It("should decode CSRRS x5, fcsr, x0", func() {
			inst := decoder.Decode(0x003022F3)

			Expect(inst.Op).To(Equal(insts.OpCSRRS))
			Expect(inst.Format).To(Equal(insts.FormatCsr))
			Expect(inst.Csr).To(Equal(insts.CsrFCsr))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
		})

		// CSRRWI x0, fflags, 31 -> 0x001FD073
		It("should decode CSRRWI x0, fflags, 31", func() {
			inst := decoder.Decode(0x001FD073)

			Expect(inst.Op).To(Equal(insts.OpCSRRWI))
			Expect(inst.Csr).To(Equal(insts.CsrFFlags))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(31)))
		})

		// FENCE iorw, iorw -> 0x0FF0000F
		It("should decode FENCE", func() {
			inst := decoder.Decode(0x0FF0000F)

			Expect(inst.Op).To(Equal(insts.OpFENCE))
			Expect(inst.Format).To(Equal(insts.FormatFence))
		})

		// FENCE.I -> 0x0000100F
		It("should decode FENCE.I", func() {
			inst := decoder.Decode(0x0000100F)

			Expect(inst.Op).To(Equal(insts.OpFENCEI))
			Expect(inst.Format).To(Equal(insts.FormatFence))
		})
	})

	Describe("Unknown encodings", func() {
		It("should return OpUnknown for unrecognized words", func() {
			inst := decoder.Decode(0xFFFFFFFF)

			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Format).To(Equal(insts.FormatUnknown))
		})

		It("should not decode compressed halfwords", func() {
			inst := decoder.Decode(0x00008082)

			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})
	})
})
