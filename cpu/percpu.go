// Package cpu models the per-CPU state the interrupt, scheduler, and
// syscall layers share: preemption accounting, interrupt statistics, and
// the flag pairs cross-CPU IPIs use to request work on a remote core.
package cpu

import "sync/atomic"

// PerCPU is one logical CPU's kernel-side bookkeeping. Fields touched by
// both local reads and remote (IPI-driven) writes are atomics, per the
// concurrency model's requirement that such fields use acquire/release
// loads and stores rather than a mutex.
type PerCPU struct {
	ID int

	preemptDisable  int32
	interruptCount  uint64
	tickCount       uint64
	reschedPending  atomic.Bool
	tlbFlushPending atomic.Bool
}

// NewPerCPU creates the bookkeeping record for logical CPU id.
func NewPerCPU(id int) *PerCPU {
	return &PerCPU{ID: id}
}

// EnterInterrupt marks the CPU as having entered interrupt context,
// incrementing the preempt-disable counter and the interrupt-count
// statistic. It must be called from the handler prologue before any
// payload processing.
func (c *PerCPU) EnterInterrupt() {
	c.preemptDisable++
	c.interruptCount++
}

// LeaveInterrupt decrements the preempt-disable counter and reports
// whether a reschedule should now be serviced: preemption is enabled
// (the counter reached zero) and a reschedule was requested.
func (c *PerCPU) LeaveInterrupt() bool {
	c.preemptDisable--
	return c.preemptDisable == 0 && c.reschedPending.Load()
}

// PreemptDisabled reports whether the CPU currently has preemption
// disabled (nested interrupt context, or an explicit critical section).
func (c *PerCPU) PreemptDisabled() bool {
	return c.preemptDisable > 0
}

// Tick advances the local tick counter, as the timer-interrupt prologue
// does on every LAPIC timer vector.
func (c *PerCPU) Tick() uint64 {
	c.tickCount++
	return c.tickCount
}

// InterruptCount returns the lifetime count of interrupts serviced by
// this CPU.
func (c *PerCPU) InterruptCount() uint64 {
	return c.interruptCount
}

// RequestReschedule sets the local reschedule-pending flag. Used both by
// the local timer tick and by the IPI handler servicing a remote
// request.
func (c *PerCPU) RequestReschedule() {
	c.reschedPending.Store(true)
}

// ReschedulePending reports the reschedule-pending flag without clearing
// it; ClearReschedule clears it.
func (c *PerCPU) ReschedulePending() bool {
	return c.reschedPending.Load()
}

// ClearReschedule clears the reschedule-pending flag, observed once the
// scheduler's switch path has run.
func (c *PerCPU) ClearReschedule() {
	c.reschedPending.Store(false)
}

// RequestTLBFlush sets the local TLB-flush-pending flag, as a remote CPU
// does via IPI after a shared mapping changes.
func (c *PerCPU) RequestTLBFlush() {
	c.tlbFlushPending.Store(true)
}

// TLBFlushPending reports whether a TLB flush is owed on this CPU.
func (c *PerCPU) TLBFlushPending() bool {
	return c.tlbFlushPending.Load()
}

// AcknowledgeTLBFlush clears the TLB-flush-pending flag once the flush
// has been performed.
func (c *PerCPU) AcknowledgeTLBFlush() {
	c.tlbFlushPending.Store(false)
}
