// Package interrupt implements the 256-entry IDT, the legacy 8259 PIC
// and LAPIC timer models, and the five-step handler prologue/epilogue
// policy that converts hardware events and traps into scheduler
// decisions.
package interrupt

import "nexaos/kerrors"

const (
	// NumVectors is the size of the IDT.
	NumVectors = 256

	// IRQBase is the first vector the master 8259 routes to.
	IRQBase = 0x20
	// IRQMasterEnd is the last vector the master 8259 routes to.
	IRQMasterEnd = 0x27
	// IRQSlaveBase is the first vector the slave 8259 routes to.
	IRQSlaveBase = 0x28
	// IRQSlaveEnd is the last vector the slave 8259 routes to.
	IRQSlaveEnd = 0x2F

	// VectorLAPICTimer is the LAPIC timer vector used on APs.
	VectorLAPICTimer = 0xEC
	// VectorSyscall is the syscall trap gate, callable from ring 3.
	VectorSyscall = 0x81

	// ExceptionVectorsEnd is the last CPU-exception vector reserved by
	// the architecture (0-31).
	ExceptionVectorsEnd = 31
)

// Handler is invoked with the interrupt vector number. Errors are never
// fatal on their own; dispatch logs and continues per the spurious-IRQ
// policy.
type Handler func(vector int) error

// IDT is the 256-entry interrupt descriptor table: a vector-indexed
// table of handlers plus the gate-present bit per vector.
type IDT struct {
	handlers [NumVectors]Handler
	present  [NumVectors]bool
}

// NewIDT creates an empty IDT with every gate absent.
func NewIDT() *IDT {
	return &IDT{}
}

// SetGate installs a handler at the given vector.
func (t *IDT) SetGate(vector int, h Handler) error {
	if vector < 0 || vector >= NumVectors {
		return &kerrors.KernelError{Op: "set-gate", Subsystem: "interrupt", Kind: kerrors.KindInvalidArgument, Detail: "vector out of range"}
	}
	t.handlers[vector] = h
	t.present[vector] = true
	return nil
}

// ClearGate removes the handler installed at the given vector.
func (t *IDT) ClearGate(vector int) {
	if vector < 0 || vector >= NumVectors {
		return
	}
	t.handlers[vector] = nil
	t.present[vector] = false
}

// IsPresent reports whether a gate is installed at the given vector.
func (t *IDT) IsPresent(vector int) bool {
	if vector < 0 || vector >= NumVectors {
		return false
	}
	return t.present[vector]
}

// Handler returns the handler installed at vector, and whether one is present.
func (t *IDT) Handler(vector int) (Handler, bool) {
	if vector < 0 || vector >= NumVectors {
		return nil, false
	}
	return t.handlers[vector], t.present[vector]
}
