package rv64

// PendingInterrupt reports the highest-priority interrupt eligible for
// delivery at the current privilege and mstatus, per the asynchronous
// interrupt delivery rules: a cause is eligible only if pending in mip and
// enabled in mie, and the gating then depends on whether it is delegated to
// S in mideleg.
//
// Priority, highest first: M-external, M-software, M-timer, S-external,
// S-software, S-timer — mirroring the privilege order machine trumps
// supervisor.
func (cpu *CPU) PendingInterrupt() (uint64, bool) {
	pending := cpu.CSR.Mip & cpu.CSR.Mie
	if pending == 0 {
		return 0, false
	}

	order := []struct {
		bit   uint64
		cause uint64
	}{
		{MipMEIP, CauseMExternalInt},
		{MipMSIP, CauseMSoftwareInt},
		{MipMTIP, CauseMTimerInt},
		{MipSEIP, CauseSExternalInt},
		{MipSSIP, CauseSSoftwareInt},
		{MipSTIP, CauseSTimerInt},
	}

	for _, o := range order {
		if pending&o.bit == 0 {
			continue
		}
		if cpu.interruptDeliverable(o.bit) {
			return o.cause, true
		}
	}
	return 0, false
}

// interruptDeliverable implements the eligibility gate for one pending+
// enabled mip bit, independent of priority ordering.
func (cpu *CPU) interruptDeliverable(bit uint64) bool {
	delegated := cpu.CSR.Mideleg&bit != 0
	if delegated {
		switch cpu.Priv {
		case PrivUser:
			return true
		case PrivSupervisor:
			return cpu.CSR.Mstatus&MstatusSIE != 0
		default: // PrivMachine: never taken in M once delegated
			return false
		}
	}
	return cpu.Priv < PrivMachine || cpu.CSR.Mstatus&MstatusMIE != 0
}

// Trap delivers a synchronous or asynchronous trap, computing delegation
// from medeleg/mideleg and updating the target privilege's epc/cause/tval
// and status bits before redirecting PC to the target's trap vector base.
func (cpu *CPU) Trap(cause, tval uint64) {
	isInterrupt := cause>>63 != 0
	code := cause &^ (1 << 63)

	toS := false
	if cpu.Priv != PrivMachine {
		if isInterrupt {
			toS = cpu.CSR.Mideleg&(1<<code) != 0
		} else {
			toS = cpu.CSR.Medeleg&(1<<code) != 0
		}
	}

	from := cpu.Priv
	if toS {
		cpu.CSR.values[CSRSepc] = cpu.PC
		cpu.CSR.values[CSRScause] = cause
		cpu.CSR.values[CSRStval] = tval

		mstatus := cpu.CSR.Mstatus
		if mstatus&MstatusSIE != 0 {
			mstatus |= MstatusSPIE
		} else {
			mstatus &^= MstatusSPIE
		}
		mstatus &^= MstatusSIE
		mstatus &^= MstatusSPP
		mstatus |= uint64(from) << MstatusSPPShift
		cpu.CSR.WriteMstatusRaw(mstatus)

		cpu.Priv = PrivSupervisor
		cpu.PC = cpu.CSR.Stvec &^ 3
		return
	}

	cpu.CSR.values[CSRMepc] = cpu.PC
	cpu.CSR.values[CSRMcause] = cause
	cpu.CSR.values[CSRMtval] = tval

	mstatus := cpu.CSR.Mstatus
	if mstatus&MstatusMIE != 0 {
		mstatus |= MstatusMPIE
	} else {
		mstatus &^= MstatusMPIE
	}
	mstatus &^= MstatusMIE
	mstatus &^= MstatusMPP
	mstatus |= uint64(from) << MstatusMPPShift
	cpu.CSR.WriteMstatusRaw(mstatus)

	cpu.Priv = PrivMachine
	cpu.PC = cpu.CSR.Mtvec &^ 3
}
