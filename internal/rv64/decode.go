package rv64

// OperandFormat names the instruction encoding shapes the dispatcher
// understands.
type OperandFormat int

const (
	FormatR OperandFormat = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
	FormatZicsr
)

// Operands is the pre-extracted operand record an IBuf entry caches
// alongside its pattern pointer.
type Operands struct {
	Rd   uint32
	Rs1  uint32
	Rs2  uint32
	Imm  int64
	Raw  uint32
}

func opcode(insn uint32) uint32 { return insn & 0x7f }
func rdField(insn uint32) uint32 { return (insn >> 7) & 0x1f }
func funct3(insn uint32) uint32  { return (insn >> 12) & 0x7 }
func rs1Field(insn uint32) uint32 { return (insn >> 15) & 0x1f }
func rs2Field(insn uint32) uint32 { return (insn >> 20) & 0x1f }
func funct7(insn uint32) uint32  { return (insn >> 25) & 0x7f }

func immI(insn uint32) int64 { return signExtend(uint64(insn>>20), 12) }

func immS(insn uint32) int64 {
	imm := (insn >> 7) & 0x1f
	imm |= ((insn >> 25) & 0x7f) << 5
	return signExtend(uint64(imm), 12)
}

func immB(insn uint32) int64 {
	imm := ((insn >> 8) & 0xf) << 1
	imm |= ((insn >> 25) & 0x3f) << 5
	imm |= ((insn >> 7) & 0x1) << 11
	imm |= ((insn >> 31) & 0x1) << 12
	return signExtend(uint64(imm), 13)
}

func immU(insn uint32) int64 { return signExtend(uint64(insn&0xfffff000), 32) }

func immJ(insn uint32) int64 {
	imm := ((insn >> 21) & 0x3ff) << 1
	imm |= ((insn >> 20) & 0x1) << 11
	imm |= ((insn >> 12) & 0xff) << 12
	imm |= ((insn >> 31) & 0x1) << 20
	return signExtend(uint64(imm), 21)
}

func shamt(insn uint32) uint32   { return (insn >> 20) & 0x3f }
func shamt32(insn uint32) uint32 { return (insn >> 20) & 0x1f }

// decodeOperands extracts the operand record for a pattern's format, per
// §4.5. rd=0 is rewritten to the fake-zero slot at this point, so downstream
// semantic functions never branch on the destination register.
func decodeOperands(insn uint32, format OperandFormat) Operands {
	op := Operands{Raw: insn}
	switch format {
	case FormatR:
		op.Rd = dest(rdField(insn))
		op.Rs1 = rs1Field(insn)
		op.Rs2 = rs2Field(insn)
	case FormatI:
		op.Rd = dest(rdField(insn))
		op.Rs1 = rs1Field(insn)
		op.Imm = immI(insn)
	case FormatS:
		op.Rs1 = rs1Field(insn)
		op.Rs2 = rs2Field(insn)
		op.Imm = immS(insn)
	case FormatB:
		op.Rs1 = rs1Field(insn)
		op.Rs2 = rs2Field(insn)
		op.Imm = immB(insn)
	case FormatU:
		op.Rd = dest(rdField(insn))
		op.Imm = immU(insn)
	case FormatJ:
		op.Rd = dest(rdField(insn))
		op.Imm = immJ(insn)
	case FormatZicsr:
		op.Rd = dest(rdField(insn))
		op.Rs1 = rs1Field(insn) // also the zimm value for *i forms
		op.Imm = int64(insn>>20) & 0xfff
	}
	return op
}
