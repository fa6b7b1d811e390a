// Package vfs defines the pluggable filesystem abstraction the kernel
// dispatches path operations through: the BlockFileSystem interface,
// file handles and directory entries, and the mount-point registry.
package vfs

import (
	"nexaos/kerrors"
)

// Mode bit patterns, matching POSIX st_mode: the high nibble (via
// ModeTypeMask) carries the file-type bits, the low bits carry
// permissions.
const (
	ModeTypeMask = 0o170000
	ModeDir      = 0o040000
	ModeFile     = 0o100000
	ModeSymlink  = 0o120000
	ModeChar     = 0o020000
	ModeBlock    = 0o060000
	ModeFifo     = 0o010000
	ModeSocket   = 0o140000
)

// Handle is a lightweight reference to an open file or directory,
// independent of any particular backing filesystem.
type Handle struct {
	ID    uint64
	Size  uint64
	Mode  uint16
	UID   uint32
	GID   uint32
	MTime uint64
	NLink uint32
	// Blocks is the number of 512-byte blocks allocated.
	Blocks uint64
}

// IsFile reports whether Mode's type nibble names a regular file.
func (h Handle) IsFile() bool {
	return h.Mode&ModeTypeMask == ModeFile
}

// IsDirectory reports whether Mode's type nibble names a directory.
func (h Handle) IsDirectory() bool {
	return h.Mode&ModeTypeMask == ModeDir
}

// IsSymlink reports whether Mode's type nibble names a symbolic link.
func (h Handle) IsSymlink() bool {
	return h.Mode&ModeTypeMask == ModeSymlink
}

// DirEntry is one entry yielded during a directory listing.
type DirEntry struct {
	ID       uint64
	Name     string
	FileType uint8
}

// Stats reports filesystem-level usage and limits, as statfs(2) would.
type Stats struct {
	TotalBlocks uint64
	FreeBlocks  uint64
	AvailBlocks uint64
	TotalInodes uint64
	FreeInodes  uint64
	BlockSize   uint32
	NameMax     uint32
	FSType      uint32
}

// BlockFileSystem is the minimal interface any concrete filesystem
// implements to be usable through the registry. Write-side operations
// default to a read-only error via embedding ReadOnlyFS; an
// implementation that supports writes overrides the subset it needs.
type BlockFileSystem interface {
	FSType() string
	IsReadOnly() bool

	Lookup(path string) (Handle, error)
	Read(h Handle, offset int, buf []byte) (int, error)
	Stat(path string) (Handle, error)
	Readdir(path string, each func(DirEntry)) error

	Write(h Handle, offset int, data []byte) (int, error)
	Truncate(h Handle, length uint64) error
	Create(path string, mode uint16) (Handle, error)
	Mkdir(path string, mode uint16) error
	Unlink(path string) error
	Rmdir(path string) error
	Rename(oldPath, newPath string) error
	Link(oldPath, newPath string) error
	Symlink(target, linkPath string) error
	Readlink(path string, buf []byte) (int, error)
	Chmod(path string, mode uint16) error
	Chown(path string, uid, gid uint32) error
	Utimes(path string, atime, mtime uint64) error
	Sync() error
	Statfs() (Stats, error)
}

// ReadOnlyFS implements every write-side BlockFileSystem method with
// the read-only (or not-supported) default, so a concrete read-only
// filesystem need only embed it and implement the read-side methods.
type ReadOnlyFS struct{}

func (ReadOnlyFS) IsReadOnly() bool { return true }

func (ReadOnlyFS) Write(Handle, int, []byte) (int, error) {
	return 0, kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Truncate(Handle, uint64) error {
	return kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Create(string, uint16) (Handle, error) {
	return Handle{}, kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Mkdir(string, uint16) error {
	return kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Unlink(string) error {
	return kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Rmdir(string) error {
	return kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Rename(string, string) error {
	return kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Link(string, string) error {
	return kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Symlink(string, string) error {
	return kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Readlink(string, []byte) (int, error) {
	return 0, kerrors.ErrNotSupportedFS
}

func (ReadOnlyFS) Chmod(string, uint16) error {
	return kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Chown(string, uint32, uint32) error {
	return kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Utimes(string, uint64, uint64) error {
	return kerrors.ErrReadOnlyFS
}

func (ReadOnlyFS) Sync() error {
	return nil
}

func (ReadOnlyFS) Statfs() (Stats, error) {
	return Stats{}, kerrors.ErrNotSupportedFS
}
