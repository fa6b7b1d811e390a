package interrupt

import "nexaos/ioport"

// LAPIC register offsets modeled as port addresses in this harness
// (the real hardware exposes these as a memory-mapped window; the
// ioport.Port abstraction makes no distinction the kernel core cares
// about, since both are just addressed register access).
const (
	lapicEOIPort      uint16 = 0x0B0
	lapicTimerInitCnt uint16 = 0x380
	lapicTimerCurCnt  uint16 = 0x390
)

// LAPIC models the local APIC a CPU uses for its own timer and for
// sending/receiving inter-processor interrupts.
type LAPIC struct {
	port ioport.Port
	id   int
}

// NewLAPIC returns a LAPIC model for the given CPU id.
func NewLAPIC(port ioport.Port, cpuID int) *LAPIC {
	return &LAPIC{port: port, id: cpuID}
}

// ID returns the APIC id, used by lap_id()-style CPU identification.
func (l *LAPIC) ID() int {
	return l.id
}

// SendEOI acknowledges the current interrupt at the local APIC.
func (l *LAPIC) SendEOI() error {
	return l.port.Out(lapicEOIPort, ioport.Width32, 0)
}

// ProgramTimer loads the initial count register, arming the one-shot or
// periodic countdown that fires VectorLAPICTimer.
func (l *LAPIC) ProgramTimer(initialCount uint32) error {
	return l.port.Out(lapicTimerInitCnt, ioport.Width32, initialCount)
}

// CurrentCount reads the timer's current countdown value.
func (l *LAPIC) CurrentCount() (uint32, error) {
	return l.port.In(lapicTimerCurCnt, ioport.Width32)
}
