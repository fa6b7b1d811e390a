package interrupt

import (
	"testing"

	"nexaos/ioport"
)

func newTestPIC(commandPort, dataPort uint16) (*PIC, *ioport.MemoryPort) {
	mp := ioport.NewMemoryPort()
	mp.Map(commandPort, &ioport.LatchRegister{})
	mp.Map(dataPort, &ioport.LatchRegister{})
	return &PIC{port: mp, commandPort: commandPort, dataPort: dataPort}, mp
}

func TestPIC_MaskUnmaskLine(t *testing.T) {
	pic, _ := newTestPIC(masterCommandPort, masterDataPort)

	masked, err := pic.IsMasked(3)
	if err != nil {
		t.Fatalf("IsMasked failed: %v", err)
	}
	if masked {
		t.Fatal("expected line 3 unmasked initially")
	}

	if err := pic.MaskLine(3); err != nil {
		t.Fatalf("MaskLine failed: %v", err)
	}
	masked, _ = pic.IsMasked(3)
	if !masked {
		t.Error("expected line 3 masked")
	}

	if err := pic.UnmaskLine(3); err != nil {
		t.Fatalf("UnmaskLine failed: %v", err)
	}
	masked, _ = pic.IsMasked(3)
	if masked {
		t.Error("expected line 3 unmasked after UnmaskLine")
	}
}

func TestPIC_SendEOI(t *testing.T) {
	pic, mp := newTestPIC(masterCommandPort, masterDataPort)
	if err := pic.SendEOI(); err != nil {
		t.Fatalf("SendEOI failed: %v", err)
	}
	got, _ := mp.In(masterCommandPort, ioport.Width8)
	if got != cmdEOI {
		t.Errorf("command port = 0x%x, want 0x%x", got, cmdEOI)
	}
}
