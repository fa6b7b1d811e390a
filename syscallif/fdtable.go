// Package syscallif implements the trap-gate syscall surface: syscall
// number and pointer-range validation, per-process errno discipline, and
// the file-descriptor table.
package syscallif

import "nexaos/kerrors"

const (
	// StdinFD, StdoutFD, StderrFD are the standard stream descriptors,
	// resolved without consulting the FD table.
	StdinFD  = 0
	StdoutFD = 1
	StderrFD = 2

	// FDBase is the first index the table itself allocates.
	FDBase = 3
	// MaxOpenFiles bounds the per-process FD table.
	MaxOpenFiles = 16
)

// FileBacking identifies what kind of object an FD slot refers to.
type FileBacking int

const (
	BackingInline FileBacking = iota
	BackingVFS
	BackingStdStream
	BackingSocket
	BackingPipe
)

// FileHandle is one open-file-table entry.
type FileHandle struct {
	Backing  FileBacking
	Position uint64
	// Ref is an opaque handle into the owning subsystem (a vfs handle
	// id, a pipe id, a socket id); syscallif does not interpret it.
	Ref   uint64
	Flags int
}

// FDTable is a process's per-process file-descriptor table. FDs 0-2
// resolve to standard streams without consulting the table; indices
// 3..MaxOpenFiles-1 are allocated from here.
type FDTable struct {
	slots [MaxOpenFiles]*FileHandle
}

// NewFDTable creates an empty table.
func NewFDTable() *FDTable {
	return &FDTable{}
}

// Install places handle at an explicit index, closing whatever was
// there.
func (t *FDTable) Install(fd int, handle *FileHandle) error {
	if fd < FDBase || fd >= MaxOpenFiles {
		return kerrors.WrapWithSubsystem(kerrors.ErrBadDescriptor, kerrors.KindBadDescriptor, "install", "fdtable")
	}
	t.slots[fd] = handle
	return nil
}

// Allocate installs handle at the lowest free index >= minFD (3 by
// default), used by open/socket/pipe/dup. Fails with EMFILE-equivalent
// if the table is full.
func (t *FDTable) Allocate(minFD int, handle *FileHandle) (int, error) {
	if minFD < FDBase {
		minFD = FDBase
	}
	for fd := minFD; fd < MaxOpenFiles; fd++ {
		if t.slots[fd] == nil {
			t.slots[fd] = handle
			return fd, nil
		}
	}
	return -1, kerrors.WrapWithSubsystem(kerrors.ErrTooManyFiles, kerrors.KindResource, "allocate", "fdtable")
}

// Get returns the handle at fd. Standard streams resolve to a
// synthesized handle; fd < FDBase beyond those three, or an unoccupied
// table slot, is EBADF.
func (t *FDTable) Get(fd int) (*FileHandle, error) {
	switch fd {
	case StdinFD, StdoutFD, StderrFD:
		return &FileHandle{Backing: BackingStdStream, Ref: uint64(fd)}, nil
	}
	if fd < FDBase || fd >= MaxOpenFiles || t.slots[fd] == nil {
		return nil, kerrors.WrapWithSubsystem(kerrors.ErrBadDescriptor, kerrors.KindBadDescriptor, "get", "fdtable")
	}
	return t.slots[fd], nil
}

// Close frees the slot at fd.
func (t *FDTable) Close(fd int) error {
	if fd < FDBase || fd >= MaxOpenFiles || t.slots[fd] == nil {
		return kerrors.WrapWithSubsystem(kerrors.ErrBadDescriptor, kerrors.KindBadDescriptor, "close", "fdtable")
	}
	t.slots[fd] = nil
	return nil
}

// Dup allocates the lowest free index for a duplicate of the handle at
// oldFD.
func (t *FDTable) Dup(oldFD int) (int, error) {
	h, err := t.Get(oldFD)
	if err != nil {
		return -1, err
	}
	dup := *h
	return t.Allocate(FDBase, &dup)
}

// Dup2 forcibly installs a duplicate of oldFD's handle at newFD, closing
// whatever was previously there. A no-op (but still validating oldFD)
// when old == new, per the adopted interpretation of an open question
// in the distilled model.
func (t *FDTable) Dup2(oldFD, newFD int) error {
	h, err := t.Get(oldFD)
	if err != nil {
		return err
	}
	if oldFD == newFD {
		return nil
	}
	if newFD < FDBase || newFD >= MaxOpenFiles {
		return kerrors.WrapWithSubsystem(kerrors.ErrBadDescriptor, kerrors.KindBadDescriptor, "dup2", "fdtable")
	}
	dup := *h
	t.slots[newFD] = &dup
	return nil
}
