// Package process implements the kernel's process model: the
// Fresh/Ready/Running/Sleeping/Zombie state machine, fork/clone/exec
// semantics, and the per-process exec-pending context slot.
package process

import (
	"sync"

	"nexaos/kerrors"
	"nexaos/mm"
)

// State is a process lifecycle state.
type State int

const (
	StateFresh State = iota
	StateReady
	StateRunning
	StateSleeping
	StateZombie
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// rflagsDefault is RFLAGS with IF=1 and the architecturally reserved bit
// 1 set, the value a Fresh process's context carries before its first run.
const rflagsDefault uint64 = 0x202

// Context is the saved register context for a process not currently
// executing on a CPU.
type Context struct {
	RIP    uint64
	RSP    uint64
	RFlags uint64
	RAX    uint64
	// Callee-saved registers restored on a fork-child return.
	RBX, RBP, R12, R13, R14, R15 uint64
}

// ExecRequest is the (entry, stack, data-segment selector) triple staged
// by execve, consumed on the next return-to-user path.
type ExecRequest struct {
	Entry    uint64
	Stack    uint64
	DataSeg  uint16
}

// Process is one schedulable unit of execution.
type Process struct {
	mu sync.Mutex

	PID  int
	PPID int
	TGID int

	State State
	Ctx   Context

	AddressSpace *mm.AddressSpace

	// ExecPending is staged by Execve and consumed by the next
	// return-to-user path. It lives on the process, never in a
	// package-level global, so that preemption across multiple
	// concurrently-executing processes cannot clobber another
	// process's in-flight exec.
	ExecPending *ExecRequest

	CPUMask   uint64
	ExitCode  int
	TermSig   int
	Reaped    bool

	// childCleartid is the user-space address CLONE_CHILD_CLEARTID
	// asked to be zeroed on thread exit, or 0 if none was requested.
	childCleartid uint64
}

// ChildCleartid returns the address CLONE_CHILD_CLEARTID recorded for
// this process, or 0 if none was requested.
func (p *Process) ChildCleartid() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.childCleartid
}

// DefaultCPUMask is the "all CPUs" affinity mask new processes start with.
const DefaultCPUMask = ^uint64(0)

// New creates a Fresh process with a zeroed context except RFLAGS, and
// child.tgid = child.pid (a fresh, non-thread process).
func New(pid, ppid int, addrSpace *mm.AddressSpace) *Process {
	return &Process{
		PID:          pid,
		PPID:         ppid,
		TGID:         pid,
		State:        StateFresh,
		Ctx:          Context{RFlags: rflagsDefault},
		AddressSpace: addrSpace,
		CPUMask:      DefaultCPUMask,
	}
}

// Transition moves the process to the given state, validating that the
// transition is one the lifecycle state machine permits.
func (p *Process) Transition(to State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !validTransition(p.State, to) {
		return kerrors.WrapWithSubsystem(kerrors.ErrProcessNotRunning, kerrors.KindInvalidState, "transition", "process")
	}
	p.State = to
	return nil
}

func validTransition(from, to State) bool {
	switch from {
	case StateFresh:
		return to == StateReady
	case StateReady:
		return to == StateRunning || to == StateZombie
	case StateRunning:
		return to == StateReady || to == StateSleeping || to == StateZombie
	case StateSleeping:
		return to == StateReady
	case StateZombie:
		return false
	default:
		return false
	}
}

// CurrentState returns the process's current lifecycle state.
func (p *Process) CurrentState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.State
}

// StageExec records a pending exec context. Any previously staged
// request is discarded, matching a fresh execve() overriding one in
// flight at the same return-to-user boundary.
func (p *Process) StageExec(req *ExecRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ExecPending = req
}

// ConsumeExec returns and clears the pending exec request, or an error
// if none is staged. Called exactly once, from the return-to-user path.
func (p *Process) ConsumeExec() (*ExecRequest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ExecPending == nil {
		return nil, kerrors.WrapWithSubsystem(kerrors.ErrNoExecPending, kerrors.KindInvalidState, "consume-exec", "process")
	}
	req := p.ExecPending
	p.ExecPending = nil
	return req, nil
}

// HasExecPending reports whether an exec request is staged.
func (p *Process) HasExecPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ExecPending != nil
}

// HasAffinity reports whether the process's CPU mask permits running on cpu.
func (p *Process) HasAffinity(cpuID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cpuID < 0 || cpuID >= 64 {
		return false
	}
	return p.CPUMask&(1<<uint(cpuID)) != 0
}

// SetAffinity replaces the process's CPU mask.
func (p *Process) SetAffinity(mask uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CPUMask = mask
}
