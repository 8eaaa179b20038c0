package rv64

// ibufSize is the row count of the decoded-instruction cache, keyed by
// physical address modulo this size.
const ibufSize = 65536

// ibufEntry memoises one decode result. A row hits only when both the
// stored physical address and the stored raw instruction bits match the
// current fetch, so self-modifying code invalidates itself automatically
// without any explicit flush.
type ibufEntry struct {
	valid bool
	pa    uint64
	raw   uint32
	pat   *Pattern
	ops   Operands
}

// IBuf is the hart's decoded-instruction cache.
type IBuf struct {
	rows [ibufSize]ibufEntry

	Hits   uint64
	Misses uint64
}

func NewIBuf() *IBuf { return &IBuf{} }

// Lookup returns the pattern and operands for the instruction at physical
// address pa with raw encoding raw, decoding and filling the row on a miss.
func (b *IBuf) Lookup(pa uint64, raw uint32) (*Pattern, Operands, error) {
	row := &b.rows[pa%ibufSize]
	if row.valid && row.pa == pa && row.raw == raw {
		b.Hits++
		return row.pat, row.ops, nil
	}

	b.Misses++
	p, ops, err := decode(raw)
	if err != nil {
		row.valid = false
		return nil, Operands{}, err
	}

	row.valid = true
	row.pa = pa
	row.raw = raw
	row.pat = p
	row.ops = ops
	return p, ops, nil
}
