package rv64

import "testing"

func TestIBufHitsOnSecondLookup(t *testing.T) {
	b := NewIBuf()

	raw := uint32(0x00100293) // addi x5, x0, 1
	_, _, err := b.Lookup(0x1000, raw)
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if b.Misses != 1 || b.Hits != 0 {
		t.Fatalf("after first lookup: hits=%d misses=%d, want 0/1", b.Hits, b.Misses)
	}

	p, ops, err := b.Lookup(0x1000, raw)
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if b.Hits != 1 {
		t.Errorf("hits=%d, want 1", b.Hits)
	}
	if p == nil || p.Name != "addi" {
		t.Errorf("pattern name = %v, want addi", p)
	}
	if ops.Rd != 5 {
		t.Errorf("rd = %d, want 5", ops.Rd)
	}
}

func TestIBufMissesOnRawMismatchAtSamePA(t *testing.T) {
	b := NewIBuf()

	if _, _, err := b.Lookup(0x2000, 0x00100293); err != nil {
		t.Fatal(err)
	}
	// Self-modifying code: same physical address, different instruction
	// word, must not return the stale decode.
	p, _, err := b.Lookup(0x2000, 0x00200293) // addi x5, x0, 2
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "addi" {
		t.Errorf("pattern name = %v, want addi", p.Name)
	}
	if b.Misses != 2 {
		t.Errorf("misses = %d, want 2 (raw mismatch forces a redecode)", b.Misses)
	}
}

func TestIBufIllegalInstructionNotCached(t *testing.T) {
	b := NewIBuf()
	_, _, err := b.Lookup(0x3000, 0xffffffff)
	if err == nil {
		t.Fatalf("expected decode error for all-ones instruction word")
	}
	if b.rows[0x3000%ibufSize].valid {
		t.Errorf("illegal instruction left a valid cache row")
	}
}
