package rv64

import "testing"

func TestPLICTriggerRaisesMachineExternalInterrupt(t *testing.T) {
	cpu := NewCPU(NewBus(1 << 20))
	plic := NewPLIC(cpu)

	if err := plic.Write(PLICPriorityBase+4*UARTPlicLine, 4, 1); err != nil {
		t.Fatal(err)
	}
	if err := plic.Write(PLICEnableBase+PLICContextM*PLICEnableStride, 4, 1<<UARTPlicLine); err != nil {
		t.Fatal(err)
	}

	plic.Trigger(UARTPlicLine)

	if cpu.CSR.Mip&MipMEIP == 0 {
		t.Fatalf("MEIP not set after Trigger with priority+enable set")
	}
}

func TestPLICClaimClearsPendingAndCompleteAllowsRetrigger(t *testing.T) {
	cpu := NewCPU(NewBus(1 << 20))
	plic := NewPLIC(cpu)

	mustWrite := func(offset uint64, size int, v uint64) {
		t.Helper()
		if err := plic.Write(offset, size, v); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite(PLICPriorityBase+4*UARTPlicLine, 4, 1)
	mustWrite(PLICEnableBase+PLICContextM*PLICEnableStride, 4, 1<<UARTPlicLine)

	plic.Trigger(UARTPlicLine)

	claimAddr := uint64(PLICThresholdBase + PLICContextM*PLICContextStride + 4)
	claimed, err := plic.Read(claimAddr, 4)
	if err != nil {
		t.Fatal(err)
	}
	if claimed != UARTPlicLine {
		t.Fatalf("claimed source = %d, want %d", claimed, UARTPlicLine)
	}
	if cpu.CSR.Mip&MipMEIP != 0 {
		t.Errorf("MEIP still set after claim drained the only pending source")
	}

	mustWrite(claimAddr, 4, UARTPlicLine) // complete
	plic.Trigger(UARTPlicLine)
	if cpu.CSR.Mip&MipMEIP == 0 {
		t.Errorf("MEIP not set after re-trigger following complete")
	}
}

func TestPLICThresholdGatesLowerPriority(t *testing.T) {
	cpu := NewCPU(NewBus(1 << 20))
	plic := NewPLIC(cpu)

	if err := plic.Write(PLICPriorityBase+4*UARTPlicLine, 4, 1); err != nil {
		t.Fatal(err)
	}
	if err := plic.Write(PLICEnableBase+PLICContextM*PLICEnableStride, 4, 1<<UARTPlicLine); err != nil {
		t.Fatal(err)
	}
	thresholdAddr := uint64(PLICThresholdBase + PLICContextM*PLICContextStride)
	if err := plic.Write(thresholdAddr, 4, 1); err != nil {
		t.Fatal(err)
	}

	plic.Trigger(UARTPlicLine)

	if cpu.CSR.Mip&MipMEIP != 0 {
		t.Errorf("MEIP set despite priority == threshold")
	}
}
