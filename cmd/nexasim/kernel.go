package nexasim

import (
	"context"
	"fmt"
	"log/slog"

	"nexaos/boot"
	"nexaos/ipc"
	"nexaos/isolation"
	"nexaos/kerrors"
	"nexaos/kmod"
	"nexaos/mm"
	"nexaos/process"
	"nexaos/syscallif"
	"nexaos/vfs"
	"nexaos/vfs/memfs"

	"nexaos/klog"
)

// Kernel holds every subsystem a booted simulation instance owns, wired
// together the way a real boot sequence would construct them in order.
type Kernel struct {
	Sequencer *boot.Sequencer
	Params    boot.Params

	Buddy     *mm.Buddy
	Symbols   *kmod.Registry
	Domains   *isolation.DomainManager
	Mounts    *vfs.Registry
	RootFS    *memfs.FS
	Processes *process.Table
	Dispatch  *syscallif.Dispatcher
	FDs       *syscallif.FDTable
	Errno     *syscallif.ErrnoState

	Init *process.Process

	// PathTable resolves the small integer path indices the scripted
	// syscall trace passes to open(), standing in for the string
	// pointer a real trap gate would validate and dereference out of
	// user memory.
	PathTable []string
	openFiles map[int]vfs.Handle

	// WriteBuffers stands in for the byte ranges a real write() would
	// copy in from user memory; the scripted trace passes an index
	// into this slice instead of a user pointer.
	WriteBuffers [][]byte
}

func (k *Kernel) writeBuf(idx uint64) []byte {
	if int(idx) >= len(k.WriteBuffers) {
		return nil
	}
	return k.WriteBuffers[idx]
}

// NewKernel constructs a Kernel from raw boot-parameter text, without
// yet running any boot stage.
func NewKernel(cmdline string) *Kernel {
	return &Kernel{
		Sequencer: boot.NewSequencer(),
		Params:    boot.ParseCmdline(cmdline),
		Buddy:     mm.NewBuddy(0, 1<<mm.MaxOrder),
		Symbols:   kmod.NewRegistry(),
		Domains:   isolation.NewDomainManager(),
		Mounts:    vfs.NewRegistry(),
		RootFS:    memfs.New(),
		Processes: process.NewTable(),
		Dispatch:  syscallif.NewDispatcher(),
		FDs:       syscallif.NewFDTable(),
		Errno:     &syscallif.ErrnoState{},
		openFiles: make(map[int]vfs.Handle),
	}
}

// Boot walks the kernel through every boot stage, initializing each
// subsystem as the sequencer reaches the stage that owns it. It falls
// back to Emergency on any failure rather than propagating a partial
// boot.
func (k *Kernel) Boot(ctx context.Context) error {
	log := klog.WithSubsystem(klog.Default(), "boot")

	if k.Params.Emergency {
		k.Sequencer.Fallback()
		log.Warn("emergency boot requested by cmdline")
		return nil
	}

	if err := k.Sequencer.Advance(); err != nil { // -> KernelInit
		return k.emergency(log, "kernel-init", err)
	}
	k.Symbols.Init()
	if err := k.registerCoreSymbols(); err != nil {
		return k.emergency(log, "kernel-init", err)
	}

	if err := k.Sequencer.Advance(); err != nil { // -> InitramfsStage
		return k.emergency(log, "initramfs", err)
	}
	if err := k.Mounts.Mount("/", k.RootFS); err != nil {
		return k.emergency(log, "initramfs", err)
	}
	for _, dir := range []string{"/var", "/var/log"} {
		if err := k.RootFS.Mkdir(dir, 0o755); err != nil {
			return k.emergency(log, "initramfs", err)
		}
	}

	if err := k.Sequencer.Advance(); err != nil { // -> RootSwitch
		return k.emergency(log, "root-switch", err)
	}

	if err := k.Sequencer.Advance(); err != nil { // -> RealRoot
		return k.emergency(log, "real-root", err)
	}
	k.registerSyscalls()

	if err := k.Sequencer.Advance(); err != nil { // -> UserSpace
		return k.emergency(log, "user-space", err)
	}
	k.Init = k.Processes.Create(0, mm.NewAddressSpace())
	if err := k.Init.Transition(process.StateReady); err != nil {
		return k.emergency(log, "user-space", err)
	}
	if _, err := k.Domains.Allocate(k.Init.PID); err != nil {
		return k.emergency(log, "user-space", err)
	}

	log.Info("boot complete", "stage", k.Sequencer.Stage().String(), "init_pid", k.Init.PID)
	return nil
}

func (k *Kernel) emergency(log *slog.Logger, op string, err error) error {
	k.Sequencer.Fallback()
	log.Error("boot stage failed, falling back to emergency", "op", op, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}

// registerCoreSymbols populates the symbol table with the names a
// booted instance always exposes to loadable modules.
func (k *Kernel) registerCoreSymbols() error {
	core := []struct {
		name string
		addr uint64
		typ  kmod.SymbolType
	}{
		{"kernel_panic", 0xffffffff81000000, kmod.SymbolFunction},
		{"schedule", 0xffffffff81001000, kmod.SymbolFunction},
		{"current_process", 0xffffffff81002000, kmod.SymbolData},
	}
	for _, s := range core {
		if err := k.Symbols.Register(s.name, s.addr, s.typ); err != nil {
			return err
		}
	}
	return nil
}

// registerSyscalls wires the minimal syscall surface nexasim's scripted
// traces exercise: open/read/write/close against the root memfs mount,
// getpid, fork and exit, plus a kill handler that always succeeds.
func (k *Kernel) registerSyscalls() {
	k.Dispatch.Register(syscallif.SysOpen, func(args syscallif.Args) (uint64, error) {
		idx := int(args.A0)
		if idx < 0 || idx >= len(k.PathTable) {
			return 0, kerrors.New(kerrors.KindInvalidArgument, "open", "path index out of range")
		}
		path := k.PathTable[idx]
		h, err := k.RootFS.Lookup(path)
		if err != nil {
			h, err = k.RootFS.Create(path, 0o644)
			if err != nil {
				return 0, err
			}
		}
		fd, err := k.FDs.Allocate(syscallif.FDBase, &syscallif.FileHandle{Backing: syscallif.BackingVFS, Ref: h.ID})
		if err != nil {
			return 0, err
		}
		k.openFiles[fd] = h
		return uint64(fd), nil
	})

	k.Dispatch.Register(syscallif.SysWrite, func(args syscallif.Args) (uint64, error) {
		fd := int(args.A0)
		data := k.writeBuf(args.A1)
		handle, ok := k.openFiles[fd]
		if !ok {
			return 0, kerrors.New(kerrors.KindBadDescriptor, "write", "fd not open")
		}
		fh, err := k.FDs.Get(fd)
		if err != nil {
			return 0, err
		}
		n, err := k.RootFS.Write(handle, int(fh.Position), data)
		if err != nil {
			return 0, err
		}
		fh.Position += uint64(n)
		return uint64(n), nil
	})

	k.Dispatch.Register(syscallif.SysRead, func(args syscallif.Args) (uint64, error) {
		fd := int(args.A0)
		length := int(args.A2)
		handle, ok := k.openFiles[fd]
		if !ok {
			return 0, kerrors.New(kerrors.KindBadDescriptor, "read", "fd not open")
		}
		fh, err := k.FDs.Get(fd)
		if err != nil {
			return 0, err
		}
		buf := make([]byte, length)
		n, err := k.RootFS.Read(handle, int(fh.Position), buf)
		if err != nil {
			return 0, err
		}
		fh.Position += uint64(n)
		return uint64(n), nil
	})

	k.Dispatch.Register(syscallif.SysClose, func(args syscallif.Args) (uint64, error) {
		fd := int(args.A0)
		delete(k.openFiles, fd)
		return 0, k.FDs.Close(fd)
	})

	k.Dispatch.Register(syscallif.SysGetpid, func(args syscallif.Args) (uint64, error) {
		if k.Init == nil {
			return 0, fmt.Errorf("no init process")
		}
		return uint64(k.Init.PID), nil
	})

	k.Dispatch.Register(syscallif.SysFork, func(args syscallif.Args) (uint64, error) {
		child := k.Processes.Fork(k.Init)
		return uint64(child.PID), nil
	})

	k.Dispatch.Register(syscallif.SysExit, func(args syscallif.Args) (uint64, error) {
		return 0, k.Processes.Exit(k.Init.PID, int(args.A0), 0)
	})

	k.Dispatch.Register(syscallif.SysKill, func(args syscallif.Args) (uint64, error) {
		return 0, nil
	})
}

// NewProcessSignalState returns a fresh per-process signal-delivery table, the
// way the syscall surface hands one to each new process.
func NewProcessSignalState() *ipc.SignalState {
	return ipc.NewSignalState()
}
