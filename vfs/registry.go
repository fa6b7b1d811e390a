package vfs

import (
	"strings"
	"sync"

	"nexaos/kerrors"
)

// mount binds a path prefix to the filesystem implementation mounted
// there.
type mount struct {
	point string
	fs    BlockFileSystem
}

// Registry dispatches path operations to the filesystem mounted at
// the longest matching path prefix, modeling NexaOS's modular
// filesystem registry: multiple BlockFileSystem implementations
// register under distinct mount points and the registry owns
// resolution, not the caller.
type Registry struct {
	mu     sync.RWMutex
	mounts []mount
}

// NewRegistry returns an empty registry with no mounts.
func NewRegistry() *Registry {
	return &Registry{}
}

// Mount registers fs at point. point must be non-empty; "/" is the
// root mount.
func (r *Registry) Mount(point string, fs BlockFileSystem) error {
	if point == "" {
		return kerrors.New(kerrors.KindInvalidArgument, "mount", "empty mount point")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mounts {
		if m.point == point {
			return kerrors.New(kerrors.KindAlreadyExists, "mount", point)
		}
	}
	r.mounts = append(r.mounts, mount{point: point, fs: fs})
	return nil
}

// Unmount removes the mount previously registered at point.
func (r *Registry) Unmount(point string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.mounts {
		if m.point == point {
			r.mounts = append(r.mounts[:i], r.mounts[i+1:]...)
			return nil
		}
	}
	return kerrors.ErrNotFound
}

// Resolve returns the filesystem mounted at the longest prefix of
// path, and the path relative to that mount point.
func (r *Registry) Resolve(path string) (BlockFileSystem, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *mount
	for i := range r.mounts {
		m := &r.mounts[i]
		if !isPrefix(m.point, path) {
			continue
		}
		if best == nil || len(m.point) > len(best.point) {
			best = m
		}
	}
	if best == nil {
		return nil, "", kerrors.ErrNotFound
	}
	return best.fs, relativePath(best.point, path), nil
}

func isPrefix(mountPoint, path string) bool {
	if mountPoint == "/" {
		return true
	}
	if !strings.HasPrefix(path, mountPoint) {
		return false
	}
	rest := path[len(mountPoint):]
	return rest == "" || rest[0] == '/'
}

func relativePath(mountPoint, path string) string {
	if mountPoint == "/" {
		if path == "" {
			return "/"
		}
		return path
	}
	rel := strings.TrimPrefix(path, mountPoint)
	if rel == "" {
		return "/"
	}
	return rel
}

// Lookup resolves path to its mount and delegates Lookup.
func (r *Registry) Lookup(path string) (Handle, error) {
	fs, rel, err := r.Resolve(path)
	if err != nil {
		return Handle{}, err
	}
	return fs.Lookup(rel)
}

// Read resolves path to its mount and delegates Read.
func (r *Registry) Read(path string, h Handle, offset int, buf []byte) (int, error) {
	fs, _, err := r.Resolve(path)
	if err != nil {
		return 0, err
	}
	return fs.Read(h, offset, buf)
}

// Stat resolves path to its mount and delegates Stat.
func (r *Registry) Stat(path string) (Handle, error) {
	fs, rel, err := r.Resolve(path)
	if err != nil {
		return Handle{}, err
	}
	return fs.Stat(rel)
}

// Readdir resolves path to its mount and delegates Readdir.
func (r *Registry) Readdir(path string, each func(DirEntry)) error {
	fs, rel, err := r.Resolve(path)
	if err != nil {
		return err
	}
	return fs.Readdir(rel, each)
}
