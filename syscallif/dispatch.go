package syscallif

import (
	"nexaos/kerrors"
	"nexaos/mm"
)

// Number identifies a syscall by its ABI number.
type Number uint64

// Selected syscall numbers the dispatcher recognizes by name, in the
// order spec.md's external-interfaces section lists them.
const (
	SysRead Number = iota
	SysWrite
	SysOpen
	SysClose
	SysLseek
	SysDup
	SysDup2
	SysPipe
	SysFcntl
	SysFork
	SysExecve
	SysWait4
	SysExit
	SysExitGroup
	SysGetpid
	SysGetppid
	SysKill
	SysSigaction
	SysSigprocmask
	SysMmap
	SysMunmap
	SysMprotect
	SysBrk
	SysSocket
	SysBind
	SysSendto
	SysRecvfrom
	SysNanosleep
	SysClockGettime
)

// Args is the register-argument tuple a trap delivers: RDI, RSI, RDX,
// R10, R8, R9.
type Args struct {
	A0, A1, A2, A3, A4, A5 uint64
}

// Handler implements one syscall's semantics.
type Handler func(args Args) (uint64, error)

// Dispatcher validates and routes syscalls entering via the trap gate.
type Dispatcher struct {
	handlers map[Number]Handler
}

// NewDispatcher creates an empty syscall table.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Number]Handler)}
}

// Register installs the handler for a syscall number.
func (d *Dispatcher) Register(num Number, h Handler) {
	d.handlers[num] = h
}

// Dispatch validates that num is registered, runs its handler, and
// applies the errno discipline: ErrSentinel plus a recorded errno on
// failure, the real result plus errno 0 on success.
func (d *Dispatcher) Dispatch(num Number, args Args, errnoState *ErrnoState) uint64 {
	h, ok := d.handlers[num]
	if !ok {
		return Result(0, kerrors.ErrUnknownSyscall, errnoState)
	}
	value, err := h(args)
	return Result(value, err, errnoState)
}

// ValidatePointerArgs is a convenience wrapper syscall handlers call
// before touching a user buffer argument, narrowing a bad pointer to
// the dispatcher's standard errno discipline.
func ValidatePointerArgs(addr, length uint64, writable bool, space *mm.AddressSpace) error {
	return ValidatePointer(addr, length, writable, space)
}
