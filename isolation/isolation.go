// Package isolation implements the kernel's isolation-class model: the
// IC0/IC1/IC2 security tiers, the IC1 hardware-domain table, isolation
// gates between domains, and the per-IC2-context address-space handle.
package isolation

import (
	"sync"

	"nexaos/kerrors"
)

// Class is an isolation tier a kernel subsystem or driver runs under.
// Lower classes are cheaper to enter and trust more; higher classes are
// more isolated and more expensive to cross into.
type Class int

const (
	// IC0 runs in-TCB: same address space, same privilege ring as the
	// kernel. Cheapest to call, ~18 cycles for a direct call.
	IC0 Class = iota
	// IC1 runs kernel-space but in its own hardware-enforced domain
	// (e.g. a protection-key region), ~500 cycles to cross into.
	IC1
	// IC2 runs in a separate address space at ring 3, ~1000 cycles to
	// cross into via a full context switch.
	IC2
)

func (c Class) String() string {
	switch c {
	case IC0:
		return "IC0"
	case IC1:
		return "IC1"
	case IC2:
		return "IC2"
	default:
		return "unknown"
	}
}

// SecurityLevel returns the class's ordinal security level: higher is
// more isolated.
func (c Class) SecurityLevel() int {
	return int(c)
}

// ipcLatencyCycles approximates the cost, in CPU cycles, of a call that
// crosses into this class from IC0.
var ipcLatencyCycles = map[Class]uint64{
	IC0: 18,
	IC1: 500,
	IC2: 1000,
}

// IPCLatencyCycles returns the approximate cost of entering this class.
func (c Class) IPCLatencyCycles() uint64 {
	return ipcLatencyCycles[c]
}

// CanAccess reports whether code running at class c may reach into a
// target running at class target. A caller may always reach a target at
// the same or a higher (more isolated) class; it may never reach into a
// less-isolated class without going through that class's own gate.
func (c Class) CanAccess(target Class) bool {
	return c <= target
}

// ic1DomainCount is the number of hardware-enforced domains IC1 can
// address. Domain 0 is reserved for the kernel itself.
const ic1DomainCount = 16

// Domain is one slot in the IC1 domain table.
type Domain struct {
	ID        int
	Allocated bool
	OwnerID   int
	MemBase   uint64
	MemSize   uint64
}

// DomainManager owns the fixed IC1 domain table.
type DomainManager struct {
	mu      sync.Mutex
	domains [ic1DomainCount]Domain
}

// NewDomainManager returns a manager with domain 0 reserved for the
// kernel and all other slots free.
func NewDomainManager() *DomainManager {
	m := &DomainManager{}
	for i := range m.domains {
		m.domains[i] = Domain{ID: i}
	}
	m.domains[0].Allocated = true
	m.domains[0].OwnerID = 0
	return m
}

// Allocate reserves the lowest-numbered free domain (excluding domain 0)
// for ownerID and returns its ID.
func (m *DomainManager) Allocate(ownerID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 1; i < ic1DomainCount; i++ {
		if !m.domains[i].Allocated {
			m.domains[i].Allocated = true
			m.domains[i].OwnerID = ownerID
			return i, nil
		}
	}
	return 0, kerrors.New(kerrors.KindResource, "allocate-domain", "no free IC1 domain slots")
}

// Deallocate frees a previously allocated domain. Domain 0 can never be
// deallocated.
func (m *DomainManager) Deallocate(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id <= 0 || id >= ic1DomainCount {
		return kerrors.New(kerrors.KindInvalidArgument, "deallocate-domain", "domain id out of range")
	}
	if !m.domains[id].Allocated {
		return kerrors.New(kerrors.KindInvalidState, "deallocate-domain", "domain not allocated")
	}
	m.domains[id] = Domain{ID: id}
	return nil
}

// Get returns a copy of the domain's current state.
func (m *DomainManager) Get(id int) (Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 0 || id >= ic1DomainCount {
		return Domain{}, kerrors.New(kerrors.KindInvalidArgument, "get-domain", "domain id out of range")
	}
	return m.domains[id], nil
}

// SetMemoryRegion records the memory range a domain's hardware-enforced
// protection key covers.
func (m *DomainManager) SetMemoryRegion(id int, base, size uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id <= 0 || id >= ic1DomainCount {
		return kerrors.New(kerrors.KindInvalidArgument, "set-memory-region", "domain id out of range")
	}
	if !m.domains[id].Allocated {
		return kerrors.New(kerrors.KindInvalidState, "set-memory-region", "domain not allocated")
	}
	m.domains[id].MemBase = base
	m.domains[id].MemSize = size
	return nil
}

// GateFlags are bit flags controlling how an isolation gate behaves.
type GateFlags uint32

const (
	// GateEnabled permits the gate to be crossed at all.
	GateEnabled GateFlags = 1 << iota
	// GateReentrant marks a gate as permitting concurrent crossings;
	// Cross does not consult it.
	GateReentrant
	// GateTrace marks a gate for tracing; Cross does not consult it and
	// writes no trace record.
	GateTrace
)

// Gate describes a callable transition into a target domain: an entry
// point and stack to switch to, gated by flags.
type Gate struct {
	TargetDomain int
	EntryPoint   uint64
	StackPtr     uint64
	Flags        GateFlags
}

// NewGate returns a disabled gate into targetDomain.
func NewGate(targetDomain int, entryPoint, stackPtr uint64) Gate {
	return Gate{TargetDomain: targetDomain, EntryPoint: entryPoint, StackPtr: stackPtr}
}

// Enable sets the GateEnabled flag.
func (g *Gate) Enable() {
	g.Flags |= GateEnabled
}

// Disable clears the GateEnabled flag.
func (g *Gate) Disable() {
	g.Flags &^= GateEnabled
}

// Enabled reports whether the gate currently permits crossing.
func (g Gate) Enabled() bool {
	return g.Flags&GateEnabled != 0
}

// Cross attempts to switch into the gate's target domain, returning the
// (entryPoint, stackPtr) pair a caller should jump to. A disabled gate
// never yields an entry point.
func (g Gate) Cross() (entryPoint, stackPtr uint64, err error) {
	if !g.Enabled() {
		return 0, 0, kerrors.New(kerrors.KindPermission, "cross-gate", "gate disabled")
	}
	return g.EntryPoint, g.StackPtr, nil
}

// nextPID hands out IC2 context PIDs in allocation order.
var (
	pidMu   sync.Mutex
	nextPID = 1
)

func allocatePID() int {
	pidMu.Lock()
	defer pidMu.Unlock()
	pid := nextPID
	nextPID++
	return pid
}

// IC2Context is the address-space handle for a process running at IC2:
// its own page tables, stack, and heap.
type IC2Context struct {
	PID           int
	PageTableRoot uint64
	StackBase     uint64
	StackSize     uint64
	HeapBase      uint64
	HeapEnd       uint64
}

// NewIC2Context allocates a fresh PID and returns a context over the
// given address ranges.
func NewIC2Context(pageTableRoot, stackBase, stackSize, heapBase uint64) *IC2Context {
	return &IC2Context{
		PID:           allocatePID(),
		PageTableRoot: pageTableRoot,
		StackBase:     stackBase,
		StackSize:     stackSize,
		HeapBase:      heapBase,
		HeapEnd:       heapBase,
	}
}

// GrowHeap extends the context's heap to newEnd, which must not
// retreat below the current end.
func (c *IC2Context) GrowHeap(newEnd uint64) error {
	if newEnd < c.HeapEnd {
		return kerrors.New(kerrors.KindInvalidArgument, "grow-heap", "new heap end below current end")
	}
	c.HeapEnd = newEnd
	return nil
}

// StackTop returns the first address past the stack's extent.
func (c *IC2Context) StackTop() uint64 {
	return c.StackBase + c.StackSize
}
