package rv64

// AMO funct5 codes, shared by the Zaamo and Zalrsc pattern rows below.
const (
	amoAddFn5    = 0b00000
	amoSwapFn5   = 0b00001
	lrFn5        = 0b00010
	scFn5        = 0b00011
	amoXorFn5    = 0b00100
	amoOrFn5     = 0b01000
	amoAndFn5    = 0b01100
	amoMinFn5    = 0b10000
	amoMaxFn5    = 0b10100
	amoMinuFn5   = 0b11000
	amoMaxuFn5   = 0b11100
)

// buildPatterns enumerates the RV64IMA + Zicsr + Zifencei + Zaamo + Zalrsc
// instruction set as mask/key rows for the dispatcher. Rows are written in
// no particular order; init() sorts them by mask specificity.
func buildPatterns() []Pattern {
	var t []Pattern

	add := func(name string, mask, key uint32, format OperandFormat, fn execFn) {
		t = append(t, pat(name, mask, key, format, fn))
	}

	// Loads.
	for _, f3 := range []uint32{0b000, 0b001, 0b010, 0b011, 0b100, 0b101, 0b110} {
		mask, key := encI(OpLoad, f3)
		add(loadName(f3), mask, key, FormatI, execLoad(f3))
	}

	// Stores.
	for _, f3 := range []uint32{0b000, 0b001, 0b010, 0b011} {
		mask, key := encI(OpStore, f3)
		add(storeName(f3), mask, key, FormatS, execStore(f3))
	}

	// LUI / AUIPC.
	{
		mask, key := encU(OpLui)
		add("lui", mask, key, FormatU, execLui)
	}
	{
		mask, key := encU(OpAuipc)
		add("auipc", mask, key, FormatU, execAuipc)
	}

	// JAL / JALR.
	{
		mask, key := encU(OpJal)
		add("jal", mask, key, FormatJ, execJal)
	}
	{
		mask, key := encI(OpJalr, 0b000)
		add("jalr", mask, key, FormatI, execJalr)
	}

	// Branches.
	branches := []struct {
		f3   uint32
		name string
		cmp  func(r1, r2 uint64) bool
	}{
		{0b000, "beq", func(a, b uint64) bool { return a == b }},
		{0b001, "bne", func(a, b uint64) bool { return a != b }},
		{0b100, "blt", func(a, b uint64) bool { return int64(a) < int64(b) }},
		{0b101, "bge", func(a, b uint64) bool { return int64(a) >= int64(b) }},
		{0b110, "bltu", func(a, b uint64) bool { return a < b }},
		{0b111, "bgeu", func(a, b uint64) bool { return a >= b }},
	}
	for _, b := range branches {
		mask, key := encI(OpBranch, b.f3)
		add(b.name, mask, key, FormatB, execBranch(b.cmp))
	}

	// OP-IMM: arithmetic/logical immediates (not shifts).
	immArith := []struct {
		f3   uint32
		name string
	}{
		{0b000, "addi"}, {0b010, "slti"}, {0b011, "sltiu"},
		{0b100, "xori"}, {0b110, "ori"}, {0b111, "andi"},
	}
	for _, ia := range immArith {
		mask, key := encI(OpOpImm, ia.f3)
		add(ia.name, mask, key, FormatI, execOpImmArith(ia.f3))
	}
	// SLLI/SRLI/SRAI: 64-bit shift amount (6 bits), funct6 discriminates.
	{
		mask, key := encShift64(OpOpImm, 0b001, 0b000000)
		add("slli", mask, key, FormatI, execShiftImm(shiftLeft))
	}
	{
		mask, key := encShift64(OpOpImm, 0b101, 0b000000)
		add("srli", mask, key, FormatI, execShiftImm(shiftRightLogical))
	}
	{
		mask, key := encShift64(OpOpImm, 0b101, 0b010000)
		add("srai", mask, key, FormatI, execShiftImm(shiftRightArith))
	}

	// OP-IMM-32: addiw, and the 32-bit shift immediates.
	{
		mask, key := encI(OpOpImm32, 0b000)
		add("addiw", mask, key, FormatI, execOpImm32Arith(0b000))
	}
	{
		mask, key := encR(OpOpImm32, 0b001, 0b0000000)
		add("slliw", mask, key, FormatI, execShiftImm32(shiftLeft))
	}
	{
		mask, key := encR(OpOpImm32, 0b101, 0b0000000)
		add("srliw", mask, key, FormatI, execShiftImm32(shiftRightLogical))
	}
	{
		mask, key := encR(OpOpImm32, 0b101, 0b0100000)
		add("sraiw", mask, key, FormatI, execShiftImm32(shiftRightArith))
	}

	// OP: register-register ALU (RV32I subset) and M-extension.
	opRows := []struct {
		f3, f7 uint32
		name   string
	}{
		{0b000, 0b0000000, "add"}, {0b000, 0b0100000, "sub"},
		{0b001, 0b0000000, "sll"}, {0b010, 0b0000000, "slt"},
		{0b011, 0b0000000, "sltu"}, {0b100, 0b0000000, "xor"},
		{0b101, 0b0000000, "srl"}, {0b101, 0b0100000, "sra"},
		{0b110, 0b0000000, "or"}, {0b111, 0b0000000, "and"},
	}
	for _, r := range opRows {
		mask, key := encR(OpOp, r.f3, r.f7)
		add(r.name, mask, key, FormatR, execOpArith(r.name))
	}
	mulDivRows := []struct {
		f3   uint32
		name string
	}{
		{0b000, "mul"}, {0b001, "mulh"}, {0b010, "mulhsu"}, {0b011, "mulhu"},
		{0b100, "div"}, {0b101, "divu"}, {0b110, "rem"}, {0b111, "remu"},
	}
	for _, r := range mulDivRows {
		mask, key := encR(OpOp, r.f3, 0b0000001)
		add(r.name, mask, key, FormatR, execMulDiv(r.name))
	}

	// OP-32: addw/subw/sllw/srlw/sraw and the W-suffixed M-extension ops.
	op32Rows := []struct {
		f3, f7 uint32
		name   string
	}{
		{0b000, 0b0000000, "addw"}, {0b000, 0b0100000, "subw"},
		{0b001, 0b0000000, "sllw"}, {0b101, 0b0000000, "srlw"},
		{0b101, 0b0100000, "sraw"},
	}
	for _, r := range op32Rows {
		mask, key := encR(OpOp32, r.f3, r.f7)
		add(r.name, mask, key, FormatR, execOp32Arith(r.name))
	}
	mulDiv32Rows := []struct {
		f3   uint32
		name string
	}{
		{0b000, "mulw"}, {0b100, "divw"}, {0b101, "divuw"}, {0b110, "remw"}, {0b111, "remuw"},
	}
	for _, r := range mulDiv32Rows {
		mask, key := encR(OpOp32, r.f3, 0b0000001)
		add(r.name, mask, key, FormatR, execMulDiv32(r.name))
	}

	// MISC-MEM: FENCE and FENCE.I, both no-ops on an in-order single hart.
	{
		mask, key := encI(OpMiscMem, 0b000)
		add("fence", mask, key, FormatI, execFence)
	}
	{
		mask, key := encI(OpMiscMem, 0b001)
		add("fence.i", mask, key, FormatI, execFence)
	}

	// SYSTEM: privileged instructions and Zicsr.
	add("ecall", 0xffffffff, OpSystem|(0b000<<12)|(0b000<<20), FormatI, execEcall)
	add("ebreak", 0xffffffff, OpSystem|(0b000<<12)|(1<<20), FormatI, execEbreak)
	add("mret", 0xffffffff, OpSystem|(0b000<<12)|(0b0011000<<25)|(0b00010<<20), FormatI, execMret)
	add("sret", 0xffffffff, OpSystem|(0b000<<12)|(0b0001000<<25)|(0b00010<<20), FormatI, execSret)
	add("wfi", 0xffffffff, OpSystem|(0b000<<12)|(0b0001000<<25)|(0b00101<<20), FormatI, execWfi)
	{
		mask, key := encR(OpSystem, 0b000, 0b0001001)
		add("sfence.vma", mask, key, FormatR, execSfenceVMA)
	}
	csrRows := []struct {
		f3   uint32
		name string
		op   string
		imm  bool
	}{
		{0b001, "csrrw", "w", false}, {0b010, "csrrs", "s", false}, {0b011, "csrrc", "c", false},
		{0b101, "csrrwi", "w", true}, {0b110, "csrrsi", "s", true}, {0b111, "csrrci", "c", true},
	}
	for _, c := range csrRows {
		mask, key := encI(OpSystem, c.f3)
		add(c.name, mask, key, FormatZicsr, execCsr(c.op, c.imm))
	}

	// AMO: Zaamo read-modify-writes plus the Zalrsc LR/SC pair, .W and .D.
	amoRows := []struct {
		fn5  uint32
		name string
	}{
		{amoAddFn5, "amoadd"}, {amoSwapFn5, "amoswap"}, {amoXorFn5, "amoxor"},
		{amoOrFn5, "amoor"}, {amoAndFn5, "amoand"}, {amoMinFn5, "amomin"},
		{amoMaxFn5, "amomax"}, {amoMinuFn5, "amominu"}, {amoMaxuFn5, "amomaxu"},
	}
	for _, r := range amoRows {
		{
			mask, key := encAMO(OpAMO, 0b010, r.fn5)
			add(r.name+".w", mask, key, FormatR, execAMO(r.name, false))
		}
		{
			mask, key := encAMO(OpAMO, 0b011, r.fn5)
			add(r.name+".d", mask, key, FormatR, execAMO(r.name, true))
		}
	}
	{
		mask, key := encAMO(OpAMO, 0b010, lrFn5)
		add("lr.w", mask, key, FormatR, execLR(false))
	}
	{
		mask, key := encAMO(OpAMO, 0b011, lrFn5)
		add("lr.d", mask, key, FormatR, execLR(true))
	}
	{
		mask, key := encAMO(OpAMO, 0b010, scFn5)
		add("sc.w", mask, key, FormatR, execSC(false))
	}
	{
		mask, key := encAMO(OpAMO, 0b011, scFn5)
		add("sc.d", mask, key, FormatR, execSC(true))
	}

	return t
}

func loadName(f3 uint32) string {
	switch f3 {
	case 0b000:
		return "lb"
	case 0b001:
		return "lh"
	case 0b010:
		return "lw"
	case 0b011:
		return "ld"
	case 0b100:
		return "lbu"
	case 0b101:
		return "lhu"
	case 0b110:
		return "lwu"
	}
	return "l?"
}

func storeName(f3 uint32) string {
	switch f3 {
	case 0b000:
		return "sb"
	case 0b001:
		return "sh"
	case 0b010:
		return "sw"
	case 0b011:
		return "sd"
	}
	return "s?"
}
