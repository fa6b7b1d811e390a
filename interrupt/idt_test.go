package interrupt

import "testing"

func TestIDT_SetGateAndLookup(t *testing.T) {
	idt := NewIDT()
	called := false

	err := idt.SetGate(VectorSyscall, func(vector int) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("SetGate failed: %v", err)
	}

	if !idt.IsPresent(VectorSyscall) {
		t.Fatal("expected gate present at syscall vector")
	}

	h, ok := idt.Handler(VectorSyscall)
	if !ok {
		t.Fatal("expected handler present")
	}
	if err := h(VectorSyscall); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !called {
		t.Error("expected handler to be invoked")
	}
}

func TestIDT_ClearGate(t *testing.T) {
	idt := NewIDT()
	_ = idt.SetGate(0x30, func(int) error { return nil })
	idt.ClearGate(0x30)

	if idt.IsPresent(0x30) {
		t.Error("expected gate absent after ClearGate")
	}
}

func TestIDT_OutOfRange(t *testing.T) {
	idt := NewIDT()
	if err := idt.SetGate(-1, nil); err == nil {
		t.Error("expected error for negative vector")
	}
	if err := idt.SetGate(NumVectors, nil); err == nil {
		t.Error("expected error for vector >= NumVectors")
	}
	if idt.IsPresent(-1) || idt.IsPresent(NumVectors) {
		t.Error("IsPresent should be false for out-of-range vectors")
	}
}
