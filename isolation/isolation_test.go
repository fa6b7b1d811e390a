package isolation

import "testing"

func TestClass_SecurityLevelOrdering(t *testing.T) {
	if !(IC0.SecurityLevel() < IC1.SecurityLevel() && IC1.SecurityLevel() < IC2.SecurityLevel()) {
		t.Error("expected IC0 < IC1 < IC2 security levels")
	}
}

func TestClass_IPCLatencyIncreasesWithIsolation(t *testing.T) {
	if !(IC0.IPCLatencyCycles() < IC1.IPCLatencyCycles() && IC1.IPCLatencyCycles() < IC2.IPCLatencyCycles()) {
		t.Error("expected IPC latency to increase with isolation class")
	}
}

func TestClass_CanAccess(t *testing.T) {
	cases := []struct {
		from, to Class
		want     bool
	}{
		{IC0, IC0, true},
		{IC0, IC1, true},
		{IC0, IC2, true},
		{IC1, IC0, false},
		{IC2, IC0, false},
		{IC1, IC1, true},
		{IC2, IC1, false},
	}
	for _, c := range cases {
		if got := c.from.CanAccess(c.to); got != c.want {
			t.Errorf("%v.CanAccess(%v) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestDomainManager_Domain0Reserved(t *testing.T) {
	m := NewDomainManager()
	d, err := m.Get(0)
	if err != nil {
		t.Fatalf("Get(0) failed: %v", err)
	}
	if !d.Allocated {
		t.Error("expected domain 0 to be reserved/allocated at construction")
	}
}

func TestDomainManager_AllocateDeallocate(t *testing.T) {
	m := NewDomainManager()
	id, err := m.Allocate(42)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if id == 0 {
		t.Error("Allocate should never hand out domain 0")
	}
	d, _ := m.Get(id)
	if d.OwnerID != 42 {
		t.Errorf("OwnerID = %d, want 42", d.OwnerID)
	}

	if err := m.Deallocate(id); err != nil {
		t.Fatalf("Deallocate failed: %v", err)
	}
	d, _ = m.Get(id)
	if d.Allocated {
		t.Error("expected domain to be free after Deallocate")
	}
}

func TestDomainManager_DeallocateDomain0Fails(t *testing.T) {
	m := NewDomainManager()
	if err := m.Deallocate(0); err == nil {
		t.Error("expected deallocating domain 0 to fail")
	}
}

func TestDomainManager_ExhaustsSlots(t *testing.T) {
	m := NewDomainManager()
	for i := 0; i < ic1DomainCount-1; i++ {
		if _, err := m.Allocate(i); err != nil {
			t.Fatalf("Allocate #%d failed: %v", i, err)
		}
	}
	if _, err := m.Allocate(999); err == nil {
		t.Error("expected Allocate to fail once all 15 non-reserved slots are taken")
	}
}

func TestDomainManager_SetMemoryRegionRequiresAllocated(t *testing.T) {
	m := NewDomainManager()
	if err := m.SetMemoryRegion(5, 0x1000, 0x2000); err == nil {
		t.Error("expected SetMemoryRegion on an unallocated domain to fail")
	}

	id, _ := m.Allocate(1)
	if err := m.SetMemoryRegion(id, 0x1000, 0x2000); err != nil {
		t.Fatalf("SetMemoryRegion failed: %v", err)
	}
	d, _ := m.Get(id)
	if d.MemBase != 0x1000 || d.MemSize != 0x2000 {
		t.Errorf("domain memory region = (%#x, %#x), want (0x1000, 0x2000)", d.MemBase, d.MemSize)
	}
}

func TestGate_DisabledRejectsCrossing(t *testing.T) {
	g := NewGate(3, 0x401000, 0x7ffff000)
	if _, _, err := g.Cross(); err == nil {
		t.Error("expected crossing a disabled gate to fail")
	}
}

func TestGate_EnabledYieldsEntryPoint(t *testing.T) {
	g := NewGate(3, 0x401000, 0x7ffff000)
	g.Enable()
	entry, stack, err := g.Cross()
	if err != nil {
		t.Fatalf("Cross failed: %v", err)
	}
	if entry != 0x401000 || stack != 0x7ffff000 {
		t.Errorf("Cross = (%#x, %#x), want (0x401000, 0x7ffff000)", entry, stack)
	}
}

func TestGate_DisableAfterEnable(t *testing.T) {
	g := NewGate(1, 0, 0)
	g.Enable()
	g.Disable()
	if g.Enabled() {
		t.Error("expected gate to be disabled after Disable")
	}
}

func TestIC2Context_UniquePIDs(t *testing.T) {
	a := NewIC2Context(0x1000, 0x7f0000, 0x10000, 0x500000)
	b := NewIC2Context(0x2000, 0x7f0000, 0x10000, 0x500000)
	if a.PID == b.PID {
		t.Error("expected distinct contexts to receive distinct PIDs")
	}
}

func TestIC2Context_GrowHeap(t *testing.T) {
	c := NewIC2Context(0x1000, 0x7f0000, 0x10000, 0x500000)
	if err := c.GrowHeap(0x510000); err != nil {
		t.Fatalf("GrowHeap failed: %v", err)
	}
	if c.HeapEnd != 0x510000 {
		t.Errorf("HeapEnd = %#x, want 0x510000", c.HeapEnd)
	}
	if err := c.GrowHeap(0x100); err == nil {
		t.Error("expected GrowHeap to reject shrinking the heap")
	}
}

func TestIC2Context_StackTop(t *testing.T) {
	c := NewIC2Context(0x1000, 0x7f0000, 0x10000, 0x500000)
	if c.StackTop() != 0x800000 {
		t.Errorf("StackTop = %#x, want 0x800000", c.StackTop())
	}
}
