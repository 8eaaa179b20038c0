package rv64

// fakeZero is the synthetic 33rd register slot that writes to x0 are
// redirected to. Keeping it as an ordinary array element lets RegFile.Write
// stay branch-free on the hot path while ReadReg(0) still observes 0,
// since nothing other than the decoder's rd=0 rewrite ever targets it.
const fakeZero = 32

// RegFile holds the 32 architectural integer registers plus the fake-zero
// slot described in the data model.
type RegFile struct {
	X [33]uint64
}

// Reset clears every register, including the fake-zero slot.
func (r *RegFile) Reset() {
	for i := range r.X {
		r.X[i] = 0
	}
}

// Read returns the value of architectural register reg (0-31).
func (r *RegFile) Read(reg uint32) uint64 {
	return r.X[reg]
}

// Write stores val into architectural register reg. Callers that decoded
// rd=0 are expected to have already rewritten reg to fakeZero; Write itself
// performs no redirection so it stays a single array store.
func (r *RegFile) Write(reg uint32, val uint64) {
	r.X[reg] = val
}

// dest rewrites a decoded rd field of 0 to the fake-zero slot so that
// RegFile.Write never needs to branch on the destination register.
func dest(reg uint32) uint32 {
	if reg == 0 {
		return fakeZero
	}
	return reg
}
