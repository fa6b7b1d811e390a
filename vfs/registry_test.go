package vfs

import "testing"

type stubFS struct {
	ReadOnlyFS
	name string
}

func (s *stubFS) FSType() string { return s.name }
func (s *stubFS) Lookup(path string) (Handle, error) {
	return Handle{ID: 1, Mode: ModeFile}, nil
}
func (s *stubFS) Read(Handle, int, []byte) (int, error) { return 0, nil }
func (s *stubFS) Stat(path string) (Handle, error)      { return s.Lookup(path) }
func (s *stubFS) Readdir(string, func(DirEntry)) error  { return nil }

func TestRegistry_LongestPrefixMatch(t *testing.T) {
	r := NewRegistry()
	root := &stubFS{name: "root"}
	mnt := &stubFS{name: "mnt"}
	r.Mount("/", root)
	r.Mount("/mnt/data", mnt)

	fs, rel, err := r.Resolve("/mnt/data/file.txt")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if fs.FSType() != "mnt" {
		t.Errorf("resolved fs = %s, want mnt", fs.FSType())
	}
	if rel != "/file.txt" {
		t.Errorf("relative path = %q, want /file.txt", rel)
	}

	fs, rel, err = r.Resolve("/etc/hosts")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if fs.FSType() != "root" {
		t.Errorf("resolved fs = %s, want root", fs.FSType())
	}
	if rel != "/etc/hosts" {
		t.Errorf("relative path = %q, want /etc/hosts", rel)
	}
}

func TestRegistry_NoMountFails(t *testing.T) {
	r := NewRegistry()
	if _, _, err := r.Resolve("/anything"); err == nil {
		t.Error("expected error resolving against an empty registry")
	}
}

func TestRegistry_DuplicateMountRejected(t *testing.T) {
	r := NewRegistry()
	r.Mount("/", &stubFS{name: "a"})
	if err := r.Mount("/", &stubFS{name: "b"}); err == nil {
		t.Error("expected error mounting over an existing mount point")
	}
}

func TestRegistry_Unmount(t *testing.T) {
	r := NewRegistry()
	r.Mount("/mnt", &stubFS{name: "a"})
	if err := r.Unmount("/mnt"); err != nil {
		t.Fatalf("Unmount failed: %v", err)
	}
	if _, _, err := r.Resolve("/mnt/file"); err == nil {
		t.Error("expected Resolve to fail after Unmount")
	}
}

func TestRegistry_MountPointBoundary(t *testing.T) {
	r := NewRegistry()
	r.Mount("/", &stubFS{name: "root"})
	r.Mount("/mnt", &stubFS{name: "mnt"})

	// "/mntilla" shares the "/mnt" prefix as a string but is not under
	// the mount point; it must resolve to root, not mnt.
	fs, _, err := r.Resolve("/mntilla/x")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if fs.FSType() != "root" {
		t.Errorf("resolved fs = %s, want root (mount boundary respected)", fs.FSType())
	}
}
