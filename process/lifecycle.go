package process

import (
	"sync"

	"nexaos/kerrors"
	"nexaos/mm"
)

// Table is the PID-keyed process arena. Processes are looked up by PID
// through the table rather than held via direct pointers between the
// scheduler and the process, so that nothing outside this package needs
// a cyclic process<->scheduler-entry reference.
type Table struct {
	mu      sync.RWMutex
	procs   map[int]*Process
	nextPID int
}

// NewTable creates an empty process table. PIDs are allocated starting
// at 1; PID 0 is reserved for the idle/boot pseudo-process.
func NewTable() *Table {
	return &Table{procs: make(map[int]*Process), nextPID: 1}
}

// Create allocates a fresh PID and registers a new Fresh process with
// the given parent PID and address space.
func (t *Table) Create(ppid int, addrSpace *mm.AddressSpace) *Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	pid := t.nextPID
	t.nextPID++
	p := New(pid, ppid, addrSpace)
	t.procs[pid] = p
	return p
}

// Get looks up a process by PID.
func (t *Table) Get(pid int) (*Process, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.procs[pid]
	if !ok {
		return nil, kerrors.WrapWithSubsystem(kerrors.ErrProcessNotFound, kerrors.KindNotFound, "get", "process")
	}
	return p, nil
}

// Remove deletes a process from the table, called once its parent has
// reaped its Zombie state.
func (t *Table) Remove(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, pid)
}

// Children returns the PIDs of every process whose PPID matches the
// given PID.
func (t *Table) Children(ppid int) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []int
	for pid, p := range t.procs {
		if p.PPID == ppid {
			out = append(out, pid)
		}
	}
	return out
}

// Exit transitions a process to Zombie, recording its exit code and
// optional terminating signal. The Zombie persists until reaped.
func (t *Table) Exit(pid int, exitCode int, termSig int) error {
	p, err := t.Get(pid)
	if err != nil {
		return err
	}
	if err := p.Transition(StateZombie); err != nil {
		return err
	}
	p.mu.Lock()
	p.ExitCode = exitCode
	p.TermSig = termSig
	p.mu.Unlock()
	return nil
}

// Wait4 implements the reap half of exit(): if the child is a Zombie,
// it is removed from the table and its exit status returned. Returns
// an error if the child does not exist or is not yet a Zombie.
func (t *Table) Wait4(childPID int) (exitCode int, termSig int, err error) {
	p, err := t.Get(childPID)
	if err != nil {
		return 0, 0, err
	}
	if p.CurrentState() != StateZombie {
		return 0, 0, &kerrors.KernelError{Op: "wait4", Subsystem: "process", Kind: kerrors.KindInvalidState, Detail: "process is not a zombie"}
	}

	p.mu.Lock()
	exitCode, termSig = p.ExitCode, p.TermSig
	p.Reaped = true
	p.mu.Unlock()

	t.Remove(childPID)
	return exitCode, termSig, nil
}
