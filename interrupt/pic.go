package interrupt

import "nexaos/ioport"

// Legacy 8259 PIC I/O port addresses and commands.
const (
	masterCommandPort uint16 = 0x20
	masterDataPort    uint16 = 0x21
	slaveCommandPort  uint16 = 0xA0
	slaveDataPort     uint16 = 0xA1

	cmdEOI uint32 = 0x20
)

// PIC models one 8259 programmable interrupt controller: a command port,
// a data port holding the interrupt mask register (IMR), and EOI
// acknowledgement, all routed through an ioport.Port so the same model
// can be driven by a real chip or an in-memory test double.
type PIC struct {
	port        ioport.Port
	commandPort uint16
	dataPort    uint16
}

// NewMasterPIC returns a PIC model bound to the master chip's ports.
func NewMasterPIC(port ioport.Port) *PIC {
	return &PIC{port: port, commandPort: masterCommandPort, dataPort: masterDataPort}
}

// NewSlavePIC returns a PIC model bound to the slave chip's ports.
func NewSlavePIC(port ioport.Port) *PIC {
	return &PIC{port: port, commandPort: slaveCommandPort, dataPort: slaveDataPort}
}

// SendEOI acknowledges the current interrupt on this chip.
func (p *PIC) SendEOI() error {
	return p.port.Out(p.commandPort, ioport.Width8, cmdEOI)
}

// MaskLine sets the IMR bit for the given IRQ line (0-7 relative to this
// chip), suppressing further delivery of that line.
func (p *PIC) MaskLine(line int) error {
	cur, err := p.port.In(p.dataPort, ioport.Width8)
	if err != nil {
		return err
	}
	return p.port.Out(p.dataPort, ioport.Width8, cur|(1<<uint(line)))
}

// UnmaskLine clears the IMR bit for the given IRQ line.
func (p *PIC) UnmaskLine(line int) error {
	cur, err := p.port.In(p.dataPort, ioport.Width8)
	if err != nil {
		return err
	}
	return p.port.Out(p.dataPort, ioport.Width8, cur&^(1<<uint(line)))
}

// IsMasked reports whether the given IRQ line is currently masked.
func (p *PIC) IsMasked(line int) (bool, error) {
	cur, err := p.port.In(p.dataPort, ioport.Width8)
	if err != nil {
		return false, err
	}
	return cur&(1<<uint(line)) != 0, nil
}
