package interrupt

import (
	"log/slog"

	"nexaos/cpu"
	"nexaos/klog"
)

// TimerCallbacks groups the timer-tick payload the dispatcher runs
// between EOI-eligible and reschedule-eligible phases: service sleepers,
// poll the simulated network stack, then consult the scheduler.
type TimerCallbacks struct {
	ServiceSleepers func()
	PollNetwork     func()
	ConsultSched    func() (reschedule bool)
}

// Dispatcher routes IDT vectors to the owning PIC chip (for EOI and
// masking) and runs the five-step handler prologue/epilogue the kernel's
// interrupt model requires.
type Dispatcher struct {
	idt    *IDT
	master *PIC
	slave  *PIC
	lapic  *LAPIC
	logger *slog.Logger
	timer  TimerCallbacks
}

// NewDispatcher wires an IDT to its backing PIC chips and LAPIC.
func NewDispatcher(idt *IDT, master, slave *PIC, lapic *LAPIC) *Dispatcher {
	return &Dispatcher{
		idt:    idt,
		master: master,
		slave:  slave,
		lapic:  lapic,
		logger: klog.WithSubsystem(klog.Default(), "interrupt"),
	}
}

// SetTimerCallbacks installs the timer-tick payload run on VectorLAPICTimer.
func (d *Dispatcher) SetTimerCallbacks(cb TimerCallbacks) {
	d.timer = cb
}

// Dispatch runs the full handler prologue/epilogue for one interrupt
// arriving on the given vector, on the given CPU. fromUserMode indicates
// the interrupt came from ring 3; the scheduler switch path only saves
// the interrupted user context when both values this returns are true.
func (d *Dispatcher) Dispatch(c *cpu.PerCPU, vector int, fromUserMode bool) (reschedule, saveUserContext bool) {
	// Step 1+2: enter interrupt context, bump the per-CPU interrupt count.
	c.EnterInterrupt()

	switch {
	case vector == VectorLAPICTimer:
		d.handleTimer(c)
	case vector >= IRQBase && vector <= IRQMasterEnd:
		d.handleLegacyIRQ(vector, d.master, vector-IRQBase)
	case vector >= IRQSlaveBase && vector <= IRQSlaveEnd:
		d.handleLegacyIRQ(vector, d.slave, vector-IRQSlaveBase)
	default:
		if h, ok := d.idt.Handler(vector); ok && h != nil {
			if err := h(vector); err != nil {
				d.logger.Warn("handler returned error", "vector", vector, "err", err)
			}
		} else {
			d.handleSpurious(vector)
		}
	}

	// Step 5: leave interrupt context; report whether a reschedule is
	// now due, and whether the switch path must save the interrupted
	// user context (only meaningful if the interrupt came from ring 3).
	resched := c.LeaveInterrupt()
	return resched, resched && fromUserMode
}

// handleTimer implements the timer-handler ordering: service sleepers,
// poll network, consult the scheduler, EOI, then (by returning
// reschedule=true up to Dispatch/LeaveInterrupt) switch.
func (d *Dispatcher) handleTimer(c *cpu.PerCPU) {
	c.Tick()
	if d.timer.ServiceSleepers != nil {
		d.timer.ServiceSleepers()
	}
	if d.timer.PollNetwork != nil {
		d.timer.PollNetwork()
	}
	if d.timer.ConsultSched != nil && d.timer.ConsultSched() {
		c.RequestReschedule()
	}
	if d.lapic != nil {
		if err := d.lapic.SendEOI(); err != nil {
			d.logger.Warn("lapic EOI failed", "err", err)
		}
	}
}

// handleLegacyIRQ dispatches a routed legacy PIC vector and sends EOI
// after payload processing but before any reschedule, per the ordering
// the handler prologue requires.
func (d *Dispatcher) handleLegacyIRQ(vector int, pic *PIC, line int) {
	if h, ok := d.idt.Handler(vector); ok && h != nil {
		if err := h(vector); err != nil {
			d.logger.Warn("IRQ handler returned error", "vector", vector, "err", err)
		}
	} else {
		d.maskAndWarn(pic, line, vector)
	}
	if pic != nil {
		if err := pic.SendEOI(); err != nil {
			d.logger.Warn("PIC EOI failed", "err", err)
		}
	}
}

// handleSpurious implements the spurious/unhandled IRQ policy for
// non-legacy, non-timer vectors with no registered handler: log and
// continue, never panic.
func (d *Dispatcher) handleSpurious(vector int) {
	d.logger.Warn("unhandled interrupt vector", "vector", vector)
}

// maskAndWarn masks the offending line in its chip's IMR and logs a
// warning, per the spurious-IRQ policy for legacy vectors with no
// registered handler.
func (d *Dispatcher) maskAndWarn(pic *PIC, line int, vector int) {
	d.logger.Warn("spurious IRQ, masking line", "vector", vector, "line", line)
	if pic != nil {
		if err := pic.MaskLine(line); err != nil {
			d.logger.Warn("failed to mask spurious IRQ line", "line", line, "err", err)
		}
	}
}
