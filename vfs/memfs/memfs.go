// Package memfs is an in-memory vfs.BlockFileSystem: a directory tree
// of byte slices with full read/write support, used to exercise the
// registry end to end without a real disk-backed filesystem.
package memfs

import (
	"path"
	"strings"
	"sync"

	"nexaos/kerrors"
	"nexaos/vfs"
)

type nodeKind int

const (
	nodeFile nodeKind = iota
	nodeDir
)

type node struct {
	kind     nodeKind
	name     string
	data     []byte
	mode     uint16
	uid, gid uint32
	mtime    uint64
	children map[string]*node
}

// FS is a process-local in-memory filesystem rooted at "/".
type FS struct {
	mu       sync.RWMutex
	root     *node
	nextID   uint64
	idOf     map[*node]uint64
	byID     map[uint64]*node
	readOnly bool
}

// New returns an empty in-memory filesystem with just a root
// directory.
func New() *FS {
	root := &node{kind: nodeDir, name: "/", mode: vfs.ModeDir | 0o755, children: map[string]*node{}}
	fs := &FS{
		root: root,
		idOf: map[*node]uint64{},
		byID: map[uint64]*node{},
	}
	fs.assignID(root)
	return fs
}

func (f *FS) assignID(n *node) uint64 {
	f.nextID++
	id := f.nextID
	f.idOf[n] = id
	f.byID[id] = n
	return id
}

func (f *FS) FSType() string   { return "memfs" }
func (f *FS) IsReadOnly() bool { return f.readOnly }

func splitPath(p string) []string {
	p = path.Clean("/" + p)
	if p == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

func (f *FS) walk(p string) (*node, error) {
	parts := splitPath(p)
	cur := f.root
	for _, part := range parts {
		if cur.kind != nodeDir {
			return nil, kerrors.New(kerrors.KindInvalidState, "lookup", p+": not a directory")
		}
		child, ok := cur.children[part]
		if !ok {
			return nil, kerrors.New(kerrors.KindNotFound, "lookup", p)
		}
		cur = child
	}
	return cur, nil
}

func (f *FS) toHandle(n *node) vfs.Handle {
	mode := n.mode
	var size uint64
	if n.kind == nodeFile {
		size = uint64(len(n.data))
	}
	return vfs.Handle{
		ID:     f.idOf[n],
		Size:   size,
		Mode:   mode,
		UID:    n.uid,
		GID:    n.gid,
		MTime:  n.mtime,
		NLink:  1,
		Blocks: (size + 511) / 512,
	}
}

// Lookup resolves path to a handle.
func (f *FS) Lookup(p string) (vfs.Handle, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n, err := f.walk(p)
	if err != nil {
		return vfs.Handle{}, err
	}
	return f.toHandle(n), nil
}

// Stat is equivalent to Lookup for memfs: every handle already
// carries its metadata.
func (f *FS) Stat(p string) (vfs.Handle, error) {
	return f.Lookup(p)
}

// Read copies file bytes starting at offset into buf.
func (f *FS) Read(h vfs.Handle, offset int, buf []byte) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n, ok := f.byID[h.ID]
	if !ok {
		return 0, kerrors.ErrNotFound
	}
	if n.kind != nodeFile {
		return 0, kerrors.ErrIsADirectory
	}
	if offset >= len(n.data) {
		return 0, nil
	}
	copied := copy(buf, n.data[offset:])
	return copied, nil
}

// Write copies data into the file starting at offset, growing it if
// necessary.
func (f *FS) Write(h vfs.Handle, offset int, data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[h.ID]
	if !ok {
		return 0, kerrors.ErrNotFound
	}
	if n.kind != nodeFile {
		return 0, kerrors.ErrIsADirectory
	}
	end := offset + len(data)
	if end > len(n.data) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[offset:], data)
	return len(data), nil
}

// Readdir calls each for every entry directly under path.
func (f *FS) Readdir(p string, each func(vfs.DirEntry)) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n, err := f.walk(p)
	if err != nil {
		return err
	}
	if n.kind != nodeDir {
		return kerrors.New(kerrors.KindInvalidState, "readdir", p+": not a directory")
	}
	for name, child := range n.children {
		each(vfs.DirEntry{
			ID:       f.idOf[child],
			Name:     name,
			FileType: uint8(child.mode & vfs.ModeTypeMask >> 12),
		})
	}
	return nil
}

// Create makes a new regular file at path, failing if it already
// exists or its parent directory does not.
func (f *FS) Create(p string, mode uint16) (vfs.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir, base := path.Split(path.Clean("/" + p))
	parent, err := f.walk(dir)
	if err != nil {
		return vfs.Handle{}, err
	}
	if parent.kind != nodeDir {
		return vfs.Handle{}, kerrors.New(kerrors.KindInvalidState, "create", dir+": not a directory")
	}
	if _, exists := parent.children[base]; exists {
		return vfs.Handle{}, kerrors.New(kerrors.KindAlreadyExists, "create", p)
	}
	child := &node{kind: nodeFile, name: base, mode: vfs.ModeFile | mode&0o777}
	parent.children[base] = child
	f.assignID(child)
	return f.toHandle(child), nil
}

// Mkdir makes a new directory at path.
func (f *FS) Mkdir(p string, mode uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir, base := path.Split(path.Clean("/" + p))
	parent, err := f.walk(dir)
	if err != nil {
		return err
	}
	if parent.kind != nodeDir {
		return kerrors.New(kerrors.KindInvalidState, "mkdir", dir+": not a directory")
	}
	if _, exists := parent.children[base]; exists {
		return kerrors.New(kerrors.KindAlreadyExists, "mkdir", p)
	}
	child := &node{kind: nodeDir, name: base, mode: vfs.ModeDir | mode&0o777, children: map[string]*node{}}
	parent.children[base] = child
	f.assignID(child)
	return nil
}

// Unlink removes a file.
func (f *FS) Unlink(p string) error {
	return f.remove(p, nodeFile)
}

// Rmdir removes an empty directory.
func (f *FS) Rmdir(p string) error {
	f.mu.Lock()
	n, err := f.walk(p)
	if err == nil && n.kind == nodeDir && len(n.children) > 0 {
		f.mu.Unlock()
		return kerrors.New(kerrors.KindInvalidArgument, "rmdir", p+": not empty")
	}
	f.mu.Unlock()
	return f.remove(p, nodeDir)
}

func (f *FS) remove(p string, want nodeKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir, base := path.Split(path.Clean("/" + p))
	parent, err := f.walk(dir)
	if err != nil {
		return err
	}
	child, ok := parent.children[base]
	if !ok {
		return kerrors.ErrNotFound
	}
	if child.kind != want {
		if want == nodeFile {
			return kerrors.ErrIsADirectory
		}
		return kerrors.New(kerrors.KindInvalidState, "rmdir", p+": not a directory")
	}
	delete(parent.children, base)
	delete(f.idOf, child)
	return nil
}

// Truncate resizes a file in place.
func (f *FS) Truncate(h vfs.Handle, length uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[h.ID]
	if !ok {
		return kerrors.ErrNotFound
	}
	if n.kind != nodeFile {
		return kerrors.ErrIsADirectory
	}
	if uint64(len(n.data)) == length {
		return nil
	}
	grown := make([]byte, length)
	copy(grown, n.data)
	n.data = grown
	return nil
}

// Rename moves a node from oldPath to newPath.
func (f *FS) Rename(oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	oldDir, oldBase := path.Split(path.Clean("/" + oldPath))
	oldParent, err := f.walk(oldDir)
	if err != nil {
		return err
	}
	child, ok := oldParent.children[oldBase]
	if !ok {
		return kerrors.ErrNotFound
	}

	newDir, newBase := path.Split(path.Clean("/" + newPath))
	newParent, err := f.walk(newDir)
	if err != nil {
		return err
	}
	if _, exists := newParent.children[newBase]; exists {
		return kerrors.New(kerrors.KindAlreadyExists, "rename", newPath)
	}

	delete(oldParent.children, oldBase)
	child.name = newBase
	newParent.children[newBase] = child
	return nil
}

func (f *FS) Link(string, string) error {
	return kerrors.ErrNotSupportedFS
}

func (f *FS) Symlink(string, string) error {
	return kerrors.ErrNotSupportedFS
}

func (f *FS) Readlink(string, []byte) (int, error) {
	return 0, kerrors.ErrNotSupportedFS
}

// Chmod updates a node's permission bits.
func (f *FS) Chmod(p string, mode uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.walk(p)
	if err != nil {
		return err
	}
	n.mode = n.mode&vfs.ModeTypeMask | mode&0o777
	return nil
}

// Chown updates a node's owning uid/gid.
func (f *FS) Chown(p string, uid, gid uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.walk(p)
	if err != nil {
		return err
	}
	n.uid, n.gid = uid, gid
	return nil
}

// Utimes updates a node's modification time.
func (f *FS) Utimes(p string, _ uint64, mtime uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.walk(p)
	if err != nil {
		return err
	}
	n.mtime = mtime
	return nil
}

func (f *FS) Sync() error { return nil }

// Statfs reports synthetic, unbounded filesystem statistics: memfs
// has no block-count limit.
func (f *FS) Statfs() (vfs.Stats, error) {
	return vfs.Stats{
		BlockSize: 4096,
		NameMax:   255,
	}, nil
}
