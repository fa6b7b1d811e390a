package boot

import "nexaos/kerrors"

// Stage is one point in the boot sequence.
type Stage int

const (
	Bootloader Stage = iota
	KernelInit
	InitramfsStage
	RootSwitch
	RealRoot
	UserSpace
	Emergency
)

func (s Stage) String() string {
	switch s {
	case Bootloader:
		return "bootloader"
	case KernelInit:
		return "kernel-init"
	case InitramfsStage:
		return "initramfs"
	case RootSwitch:
		return "root-switch"
	case RealRoot:
		return "real-root"
	case UserSpace:
		return "user-space"
	case Emergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// nextStage is the single successor each non-terminal stage may
// advance to in the normal boot path. Emergency is reachable from any
// stage (a fallback, not part of the forward chain) and UserSpace is
// terminal on success.
var nextStage = map[Stage]Stage{
	Bootloader:     KernelInit,
	KernelInit:     InitramfsStage,
	InitramfsStage: RootSwitch,
	RootSwitch:     RealRoot,
	RealRoot:       UserSpace,
}

// Sequencer drives the boot-stage state machine forward, with a
// fallback to Emergency from any point in the sequence.
type Sequencer struct {
	stage Stage
}

// NewSequencer returns a Sequencer starting at Bootloader.
func NewSequencer() *Sequencer {
	return &Sequencer{stage: Bootloader}
}

// Stage returns the current boot stage.
func (s *Sequencer) Stage() Stage {
	return s.stage
}

// Advance moves to the next stage in the normal sequence. It fails if
// called from UserSpace or Emergency, both terminal.
func (s *Sequencer) Advance() error {
	next, ok := nextStage[s.stage]
	if !ok {
		return kerrors.New(kerrors.KindInvalidState, "advance", s.stage.String()+" has no successor")
	}
	s.stage = next
	return nil
}

// Fallback drops to Emergency from any stage, the terminal recovery
// path when boot cannot proceed normally.
func (s *Sequencer) Fallback() {
	s.stage = Emergency
}

// Done reports whether the sequencer has reached a terminal stage.
func (s *Sequencer) Done() bool {
	return s.stage == UserSpace || s.stage == Emergency
}
