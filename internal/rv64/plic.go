package rv64

import (
	"sync"
)

// PLIC register offsets, per the external interface's fixed map.
const (
	PLICPriorityBase  = 0x000000
	PLICPendingBase   = 0x001000
	PLICEnableBase    = 0x002000
	PLICThresholdBase = 0x200000
	PLICContextStride = 0x1000
	PLICEnableStride  = 0x80
)

// PLICMaxSources is the interrupt-source count this map supports: enough
// for the UART (line 10) plus headroom, not the 1024-source PLIC some SoCs
// expose.
const PLICMaxSources = 16

// PLICContextM and PLICContextS index the two per-hart contexts this core
// exposes.
const (
	PLICContextM = 0
	PLICContextS = 1
	plicContexts = 2
)

// PLIC is the Platform-Level Interrupt Controller: per-source priority and
// pending bits, gated by per-context enable masks and a claim/complete
// handshake, feeding the M/S external-interrupt bits of the pending word.
type PLIC struct {
	cpu *CPU
	mu  sync.Mutex

	priority [PLICMaxSources]uint32
	pending  uint32 // one bit per source, bit 0 (source 0) unused
	enable   [plicContexts]uint32
	threshold [plicContexts]uint32
	claimed   [plicContexts]uint32
}

func NewPLIC(cpu *CPU) *PLIC { return &PLIC{cpu: cpu} }

func (p *PLIC) Size() uint64 { return PLICSize }

func (p *PLIC) Read(offset uint64, size int) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case offset < PLICPendingBase:
		source := offset / 4
		if source < PLICMaxSources {
			return uint64(p.priority[source]), nil
		}

	case offset >= PLICPendingBase && offset < PLICEnableBase:
		if offset == PLICPendingBase {
			return uint64(p.pending), nil
		}

	case offset >= PLICEnableBase && offset < PLICThresholdBase:
		ctx, word := plicEnableLocation(offset)
		if ctx < plicContexts && word == 0 {
			return uint64(p.enable[ctx]), nil
		}

	case offset >= PLICThresholdBase:
		ctx, reg := plicContextLocation(offset)
		if ctx < plicContexts {
			switch reg {
			case 0:
				return uint64(p.threshold[ctx]), nil
			case 4:
				return uint64(p.claim(ctx)), nil
			}
		}
	}
	return 0, nil
}

func (p *PLIC) Write(offset uint64, size int, value uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case offset < PLICPendingBase:
		source := offset / 4
		if source > 0 && source < PLICMaxSources {
			p.priority[source] = uint32(value) & 0x7
		}

	case offset >= PLICEnableBase && offset < PLICThresholdBase:
		ctx, word := plicEnableLocation(offset)
		if ctx < plicContexts && word == 0 {
			p.enable[ctx] = uint32(value)
		}

	case offset >= PLICThresholdBase:
		ctx, reg := plicContextLocation(offset)
		if ctx < plicContexts {
			switch reg {
			case 0:
				p.threshold[ctx] = uint32(value) & 0x7
			case 4:
				p.complete(ctx, uint32(value))
			}
		}
	}

	p.updateInterrupt()
	return nil
}

func plicEnableLocation(offset uint64) (ctx int, word uint64) {
	rel := offset - PLICEnableBase
	return int(rel / PLICEnableStride), (rel % PLICEnableStride) / 4
}

func plicContextLocation(offset uint64) (ctx int, reg uint64) {
	rel := offset - PLICThresholdBase
	return int(rel / PLICContextStride), rel % PLICContextStride
}

// Trigger raises source as pending, called by a device's I/O thread (the
// UART's input pump) on newly available data.
func (p *PLIC) Trigger(source uint32) {
	if source == 0 || source >= PLICMaxSources {
		return
	}
	p.mu.Lock()
	p.pending |= 1 << source
	p.updateInterrupt()
	p.mu.Unlock()
}

func (p *PLIC) claim(ctx int) uint32 {
	var best, bestPriority uint32
	for source := uint32(1); source < PLICMaxSources; source++ {
		if p.pending&(1<<source) == 0 || p.enable[ctx]&(1<<source) == 0 {
			continue
		}
		if pr := p.priority[source]; pr > p.threshold[ctx] && pr > bestPriority {
			bestPriority = pr
			best = source
		}
	}
	if best != 0 {
		p.pending &^= 1 << best
		p.claimed[ctx] = best
	}
	p.updateInterrupt()
	return best
}

func (p *PLIC) complete(ctx int, source uint32) {
	if source == 0 || source >= PLICMaxSources {
		return
	}
	if p.claimed[ctx] == source {
		p.claimed[ctx] = 0
	}
	p.updateInterrupt()
}

// updateInterrupt recomputes the M/S external-interrupt bits from current
// pending/enable/threshold state. Called with p.mu held.
func (p *PLIC) updateInterrupt() {
	if p.hasPendingAbove(PLICContextM) {
		p.cpu.SetMip(MipMEIP)
	} else {
		p.cpu.ClearMip(MipMEIP)
	}
	if p.hasPendingAbove(PLICContextS) {
		p.cpu.SetMip(MipSEIP)
	} else {
		p.cpu.ClearMip(MipSEIP)
	}
}

func (p *PLIC) hasPendingAbove(ctx int) bool {
	for source := uint32(1); source < PLICMaxSources; source++ {
		if p.pending&(1<<source) == 0 || p.enable[ctx]&(1<<source) == 0 {
			continue
		}
		if p.priority[source] > p.threshold[ctx] {
			return true
		}
	}
	return false
}

var _ Device = (*PLIC)(nil)
