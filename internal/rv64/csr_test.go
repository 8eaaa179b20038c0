package rv64

import "testing"

func TestSstatusIsAMaskedViewOfMstatus(t *testing.T) {
	cpu := NewCPU(NewBus(1 << 20))

	if err := cpu.CSR.Write(CSRSstatus, MstatusSIE); err != nil {
		t.Fatalf("writing sstatus: %v", err)
	}
	if cpu.CSR.Mstatus&MstatusSIE == 0 {
		t.Errorf("sstatus write did not set mstatus.SIE")
	}

	sstatus, err := cpu.CSR.Read(CSRSstatus)
	if err != nil {
		t.Fatalf("reading sstatus: %v", err)
	}
	if sstatus&MstatusSIE == 0 {
		t.Errorf("sstatus read did not reflect mstatus.SIE")
	}
	// mstatus.MIE is not part of the sstatus mask.
	if sstatus&MstatusMIE != 0 {
		t.Errorf("sstatus leaked mstatus.MIE")
	}
}

func TestMachineCSRUnwritableBelowMachineMode(t *testing.T) {
	cpu := NewCPU(NewBus(1 << 20))
	cpu.Priv = PrivSupervisor

	if err := cpu.CSR.Write(CSRMtvec, 0x1000); err == nil {
		t.Errorf("expected illegal-instruction exception writing mtvec from S-mode")
	}
}

func TestWriteMstatusRawBypassesPrivilegeGate(t *testing.T) {
	cpu := NewCPU(NewBus(1 << 20))
	cpu.Priv = PrivUser

	cpu.CSR.WriteMstatusRaw(0x1800)
	if cpu.CSR.Mstatus != 0x1800 {
		t.Errorf("mstatus = 0x%x, want 0x1800", cpu.CSR.Mstatus)
	}
}

func TestSieRespectsMideleg(t *testing.T) {
	cpu := NewCPU(NewBus(1 << 20))

	if err := cpu.CSR.Write(CSRMideleg, MipSTIP); err != nil {
		t.Fatal(err)
	}
	if err := cpu.CSR.Write(CSRSie, MipSTIP|MipMTIP); err != nil {
		t.Fatal(err)
	}

	if cpu.CSR.Mie&MipSTIP == 0 {
		t.Errorf("sie write did not set delegated mie.STIE")
	}
	if cpu.CSR.Mie&MipMTIP != 0 {
		t.Errorf("sie write set non-delegated mie.MTIE")
	}
}
