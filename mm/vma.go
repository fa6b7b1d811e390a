package mm

import (
	"sort"
	"sync"

	"nexaos/kerrors"
)

const (
	// NullAddr is the sentinel address returned on mmap/allocation failure.
	NullAddr uint64 = 0

	// USERVirtBase is the lowest address of the high user region.
	USERVirtBase uint64 = 16 << 20 // 16 MiB
	// HeapBase is the start of the heap sub-region, immediately above
	// the code/data region.
	HeapBase uint64 = USERVirtBase + (256 << 20)
	// HeapSize bounds brk growth.
	HeapSize uint64 = 512 << 20
	// StackBase is the start of the (downward-growing) stack sub-region.
	StackBase uint64 = HeapBase + HeapSize
	// StackSize bounds the stack region.
	StackSize uint64 = 8 << 20
	// InterpBase is the start of the dynamic-linker sub-region.
	InterpBase uint64 = StackBase + StackSize
	// InterpRegionSize bounds the interpreter region.
	InterpRegionSize uint64 = 64 << 20
)

// Prot is the permission bitmask requested for a mapping.
type Prot uint8

const (
	ProtRead Prot = 1 << iota
	ProtWrite
	ProtExec
)

// MapFlags controls mmap placement and backing semantics.
type MapFlags uint8

const (
	MapFixed MapFlags = 1 << iota
	MapAnonymous
	MapPrivate
	MapShared
)

// VMA is a single virtual memory area: a contiguous, page-aligned range
// of virtual addresses sharing one permission set and backing.
type VMA struct {
	Start  uint64
	End    uint64 // exclusive
	Prot   Prot
	Flags  MapFlags
	FD     int
	Offset uint64
}

// Len returns the length of the VMA in bytes.
func (v *VMA) Len() uint64 { return v.End - v.Start }

// overlaps reports whether v and other share any address.
func (v *VMA) overlaps(start, end uint64) bool {
	return v.Start < end && start < v.End
}

// AddressSpace owns one process's VMA collection plus its brk cursor.
type AddressSpace struct {
	mu    sync.Mutex
	vmas  []*VMA // kept sorted by Start for O(log n) lookup
	brk   uint64
	nextH uint64 // next mmap placement hint above all current mappings
}

// NewAddressSpace creates an address space with the four fixed
// sub-regions empty and the brk cursor at HeapBase.
func NewAddressSpace() *AddressSpace {
	return &AddressSpace{
		brk:   HeapBase,
		nextH: USERVirtBase,
	}
}

// Count returns the number of VMAs currently tracked.
func (a *AddressSpace) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.vmas)
}

// Find returns the VMA containing addr, or nil if none does.
func (a *AddressSpace) Find(addr uint64) *VMA {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.find(addr)
}

func (a *AddressSpace) find(addr uint64) *VMA {
	i := sort.Search(len(a.vmas), func(i int) bool { return a.vmas[i].End > addr })
	if i < len(a.vmas) && a.vmas[i].Start <= addr {
		return a.vmas[i]
	}
	return nil
}

// Insert adds a new VMA, rejecting it if it overlaps any existing one.
func (a *AddressSpace) Insert(vma *VMA) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.insertLocked(vma)
}

func (a *AddressSpace) insertLocked(vma *VMA) error {
	for _, existing := range a.vmas {
		if existing.overlaps(vma.Start, vma.End) {
			return kerrors.WrapWithSubsystem(kerrors.ErrVMAOverlap, kerrors.KindAlreadyExists, "insert", "vma")
		}
	}
	a.vmas = append(a.vmas, vma)
	sort.Slice(a.vmas, func(i, j int) bool { return a.vmas[i].Start < a.vmas[j].Start })
	return nil
}

// Remove deletes the VMA containing addr, in full.
func (a *AddressSpace) Remove(addr uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	vma := a.find(addr)
	if vma == nil {
		return kerrors.WrapWithSubsystem(kerrors.ErrVMANotFound, kerrors.KindNotFound, "remove", "vma")
	}
	a.removeRange(vma.Start, vma.End)
	return nil
}

// removeRange deletes or truncates every VMA intersecting [start, end).
// The caller must hold a.mu.
func (a *AddressSpace) removeRange(start, end uint64) {
	var kept []*VMA
	for _, v := range a.vmas {
		if !v.overlaps(start, end) {
			kept = append(kept, v)
			continue
		}
		if v.Start < start {
			kept = append(kept, &VMA{Start: v.Start, End: start, Prot: v.Prot, Flags: v.Flags, FD: v.FD, Offset: v.Offset})
		}
		if v.End > end {
			kept = append(kept, &VMA{Start: end, End: v.End, Prot: v.Prot, Flags: v.Flags, FD: v.FD, Offset: v.Offset})
		}
	}
	a.vmas = kept
}

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

func isAligned(n, align uint64) bool {
	return n%align == 0
}

// Mmap implements the mmap state machine: length is rounded up to page
// size; MAP_FIXED requires an aligned, non-zero address and replaces any
// overlapping VMAs; otherwise a free range at or above hint is located.
// Returns the chosen base, or NullAddr on failure.
func (a *AddressSpace) Mmap(hint uint64, length uint64, prot Prot, flags MapFlags, fd int, offset uint64) uint64 {
	if length == 0 {
		return NullAddr
	}
	length = alignUp(length, PageSize)

	a.mu.Lock()
	defer a.mu.Unlock()

	var base uint64
	if flags&MapFixed != 0 {
		if hint == 0 || !isAligned(hint, PageSize) {
			return NullAddr
		}
		base = hint
		a.removeRange(base, base+length)
	} else {
		base = a.findFreeRange(hint, length)
	}

	vma := &VMA{Start: base, End: base + length, Prot: prot, Flags: flags, FD: fd, Offset: offset}
	if err := a.insertLocked(vma); err != nil {
		return NullAddr
	}
	if base+length > a.nextH {
		a.nextH = base + length
	}
	return base
}

// findFreeRange locates a free span of `length` bytes at or above hint,
// scanning the sorted VMA list for the first sufficiently large gap.
func (a *AddressSpace) findFreeRange(hint uint64, length uint64) uint64 {
	candidate := hint
	if candidate < USERVirtBase {
		candidate = a.nextH
	}
	for _, v := range a.vmas {
		if v.Start >= candidate+length {
			break
		}
		if v.overlaps(candidate, candidate+length) {
			candidate = v.End
		}
	}
	return candidate
}

// Munmap removes all VMAs, or the covered portions of VMAs, within
// [addr, addr+length).
func (a *AddressSpace) Munmap(addr uint64, length uint64) error {
	if !isAligned(addr, PageSize) {
		return &kerrors.KernelError{Op: "munmap", Subsystem: "vma", Kind: kerrors.KindInvalidArgument, Detail: "address not page-aligned"}
	}
	length = alignUp(length, PageSize)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.removeRange(addr, addr+length)
	return nil
}

// Mprotect changes the permission set for the VMAs exactly spanning
// [addr, addr+length), preserving their other attributes. Per the
// adopted interpretation of an open question in the distilled model,
// mprotect rejects ranges that do not exactly cover one or more whole
// VMAs rather than silently splitting them.
func (a *AddressSpace) Mprotect(addr uint64, length uint64, prot Prot) error {
	if !isAligned(addr, PageSize) {
		return &kerrors.KernelError{Op: "mprotect", Subsystem: "vma", Kind: kerrors.KindInvalidArgument, Detail: "address not page-aligned"}
	}
	length = alignUp(length, PageSize)
	end := addr + length

	a.mu.Lock()
	defer a.mu.Unlock()

	var covered []*VMA
	cursor := addr
	for _, v := range a.vmas {
		if v.overlaps(addr, end) {
			if v.Start != cursor {
				return kerrors.WrapWithSubsystem(kerrors.ErrProtectSpanMismatch, kerrors.KindInvalidArgument, "mprotect", "vma")
			}
			covered = append(covered, v)
			cursor = v.End
		}
	}
	if cursor != end || len(covered) == 0 {
		return kerrors.WrapWithSubsystem(kerrors.ErrProtectSpanMismatch, kerrors.KindInvalidArgument, "mprotect", "vma")
	}

	for _, v := range covered {
		v.Prot = prot
	}
	return nil
}

// Brk sets the heap break to newBreak, which must lie in
// [HeapBase, StackBase]. A zero argument returns the current break
// without changing it.
func (a *AddressSpace) Brk(newBreak uint64) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if newBreak == 0 {
		return a.brk, nil
	}
	if newBreak < HeapBase || newBreak > StackBase {
		return a.brk, &kerrors.KernelError{Op: "brk", Subsystem: "vma", Kind: kerrors.KindInvalidArgument, Detail: "break outside heap range"}
	}
	a.brk = newBreak
	return a.brk, nil
}
