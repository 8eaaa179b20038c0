package rv64

import (
	"math/bits"
	"sort"
)

// execFn is the semantic action attached to a pattern. It receives the
// hart and the pre-extracted operand record; it may mutate registers,
// CSRs, memory (through cpu.Bus / cpu.MMU) or cpu.PC, and returns a trap
// as an ExceptionError.
type execFn func(cpu *CPU, ops Operands) error

// Pattern is one row of the instruction dispatcher: a mask/key pair that
// identifies one instruction encoding, its operand format, a name for
// diagnostics, and its semantic function.
type Pattern struct {
	Mask, Key uint32
	Format    OperandFormat
	Name      string
	Exec      execFn
}

func (p *Pattern) matches(insn uint32) bool { return insn&p.Mask == p.Key }

func encR(opcode, f3, f7 uint32) (mask, key uint32) {
	return 0x7f | 0x7000 | 0xfe000000, opcode | (f3 << 12) | (f7 << 25)
}

func encI(opcode, f3 uint32) (mask, key uint32) {
	return 0x7f | 0x7000, opcode | (f3 << 12)
}

func encShift64(opcode, f3, funct6 uint32) (mask, key uint32) {
	return 0x7f | 0x7000 | 0xfc000000, opcode | (f3 << 12) | (funct6 << 26)
}

func encU(opcode uint32) (mask, key uint32) { return 0x7f, opcode }

func encExact(val uint32) (mask, key uint32) { return 0xffffffff, val }

func encAMO(opcode, f3, funct5 uint32) (mask, key uint32) {
	return 0x7f | 0x7000 | 0xf8000000, opcode | (f3 << 12) | (funct5 << 27)
}

func pat(name string, mask, key uint32, format OperandFormat, fn execFn) Pattern {
	return Pattern{Mask: mask, Key: key, Format: format, Name: name, Exec: fn}
}

// dispatchTable is built once at package init, ordered by decreasing mask
// popcount so that fully-specific encodings (ADD vs SUB, SLLI vs SRLI vs
// SRAI) are tested before any less-specific overlapping shape.
var dispatchTable []Pattern

func init() {
	dispatchTable = buildPatterns()
	sort.SliceStable(dispatchTable, func(i, j int) bool {
		return bits.OnesCount32(dispatchTable[i].Mask) > bits.OnesCount32(dispatchTable[j].Mask)
	})
}

// decode scans the dispatch table for the first matching pattern and
// extracts its operand record. Called only on an IBuf miss.
func decode(insn uint32) (*Pattern, Operands, error) {
	for i := range dispatchTable {
		p := &dispatchTable[i]
		if p.matches(insn) {
			return p, decodeOperands(insn, p.Format), nil
		}
	}
	return nil, Operands{}, Exception(CauseIllegalInsn, uint64(insn))
}
