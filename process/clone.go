package process

// CloneFlags controls fork vs. clone semantics.
type CloneFlags uint32

const (
	// CloneVM shares the address space with the parent (threads).
	CloneVM CloneFlags = 1 << iota
	// CloneThread sets the child's TGID to the parent's TGID (new
	// thread in the same group) rather than to the child's own PID
	// (new process).
	CloneThread
	// CloneChildCleartid records a user-space address to clear on
	// thread exit.
	CloneChildCleartid
)

// Fork creates a new process from parent: a new TGID equal to the
// child's own PID, the parent's address space (the caller is
// responsible for installing a copy-on-write-equivalent snapshot before
// the child runs), and an unconditionally cleared exec-pending slot
// regardless of what the parent had staged.
func (t *Table) Fork(parent *Process) *Process {
	child := t.Create(parent.PID, parent.AddressSpace)
	child.CPUMask = parent.CPUMask
	child.ExecPending = nil // cleared unconditionally, per the fork path
	return child
}

// Clone creates a new schedulable context from parent under the given
// flags. With CloneThread set, the child shares the parent's TGID (a new
// thread in the same group). Without CloneThread it behaves like Fork: a
// new TGID equal to the child's PID. The child always receives the
// parent's address-space pointer: CloneVM is not consulted, and no copy
// of the address space is made either way.
func (t *Table) Clone(parent *Process, flags CloneFlags, childTLSClearAddr uint64) *Process {
	child := t.Create(parent.PID, parent.AddressSpace)
	child.CPUMask = parent.CPUMask
	child.ExecPending = nil

	if flags&CloneThread != 0 {
		child.TGID = parent.TGID
	}
	if flags&CloneChildCleartid != 0 {
		child.childCleartid = childTLSClearAddr
	}
	return child
}
