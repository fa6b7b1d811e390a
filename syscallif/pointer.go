package syscallif

import (
	"nexaos/kerrors"
	"nexaos/mm"
)

const (
	// UserLowStart and UserLowEnd bound the low user address region
	// (legacy 32-bit-style mappings).
	UserLowStart uint64 = 0x1000
	UserLowEnd   uint64 = 0x4000_0000

	// UserRegionSize bounds the high user region, spanning every
	// sub-region mm defines (code/data through the interpreter area).
	UserRegionSize = mm.InterpBase + mm.InterpRegionSize - mm.USERVirtBase
)

// InUserRange reports whether [addr, addr+length) lies entirely within
// one of the two permitted user pointer ranges, guarding against
// integer overflow on the addition.
func InUserRange(addr uint64, length uint64) bool {
	end := addr + length
	if end < addr { // overflow
		return false
	}
	if addr >= mm.USERVirtBase && end <= mm.USERVirtBase+UserRegionSize {
		return true
	}
	if addr >= UserLowStart && end <= UserLowEnd {
		return true
	}
	return false
}

// ValidatePointer checks a syscall argument pointer against the
// permitted user ranges and, for a writable argument, against the
// caller's address space to ensure the target VMA is writable.
func ValidatePointer(addr uint64, length uint64, writable bool, space *mm.AddressSpace) error {
	if !InUserRange(addr, length) {
		return kerrors.ErrFaultyPointer
	}
	if writable && space != nil {
		vma := space.Find(addr)
		if vma == nil || vma.Prot&mm.ProtWrite == 0 {
			return kerrors.ErrFaultyPointer
		}
	}
	return nil
}
