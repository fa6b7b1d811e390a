package cpu

import "testing"

func TestSMP_CPULookup(t *testing.T) {
	s := NewSMP(4)
	if s.NumCPUs() != 4 {
		t.Fatalf("NumCPUs() = %d, want 4", s.NumCPUs())
	}

	c, err := s.CPU(2)
	if err != nil {
		t.Fatalf("CPU(2) failed: %v", err)
	}
	if c.ID != 2 {
		t.Errorf("CPU(2).ID = %d, want 2", c.ID)
	}

	if _, err := s.CPU(99); err == nil {
		t.Error("expected error for out-of-range CPU id")
	}
}

func TestSMP_SendRescheduleIPI(t *testing.T) {
	s := NewSMP(2)
	if err := s.SendRescheduleIPI(1); err != nil {
		t.Fatalf("SendRescheduleIPI failed: %v", err)
	}
	c, _ := s.CPU(1)
	if !c.ReschedulePending() {
		t.Error("expected reschedule pending on target CPU")
	}
}

func TestSMP_Broadcast(t *testing.T) {
	s := NewSMP(3)
	s.Broadcast(0)

	c0, _ := s.CPU(0)
	if c0.ReschedulePending() {
		t.Error("sender should not receive its own broadcast")
	}
	for i := 1; i < 3; i++ {
		c, _ := s.CPU(i)
		if !c.ReschedulePending() {
			t.Errorf("CPU %d expected reschedule pending after broadcast", i)
		}
	}
}
