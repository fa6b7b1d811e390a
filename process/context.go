package process

// Execve stages the (entry, stack, data-segment selector) triple into
// the process's per-process exec-pending slot. It does not switch
// immediately: the actual jump happens when the next return-to-user
// path calls ConsumeExec. reset_to_default-equivalent signal state is
// the caller's (ipc package's) responsibility, not this package's.
func (p *Process) Execve(entry, stack uint64, dataSeg uint16) {
	p.StageExec(&ExecRequest{Entry: entry, Stack: stack, DataSeg: dataSeg})
}

// FreshEntryContext builds the register context for a fresh-entry
// return to user mode (init or a consumed execve): the new address
// space is assumed already installed by the caller, RSP and RIP come
// from the exec request, and RFLAGS is restored to its default.
func FreshEntryContext(req *ExecRequest) Context {
	return Context{
		RIP:    req.Entry,
		RSP:    req.Stack,
		RFlags: rflagsDefault,
	}
}

// ForkChildContext builds the register context for a fork-child return:
// callee-saved registers are restored from the parent's saved context at
// the point of the fork call, and RAX is forced to zero (the child's
// view of fork()'s return value).
func ForkChildContext(parentSaved Context) Context {
	child := parentSaved
	child.RAX = 0
	return child
}
