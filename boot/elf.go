package boot

import "nexaos/kerrors"

// ELF magic and class/data-encoding constants this kernel accepts:
// 64-bit little-endian only.
const (
	elfMagic0 = 0x7F
	elfMagic1 = 'E'
	elfMagic2 = 'L'
	elfMagic3 = 'F'

	ClassNone = 0
	Class32   = 1
	Class64   = 2

	DataNone         = 0
	DataLittleEndian = 1
	DataBigEndian    = 2
)

// SegmentType enumerates the program-header types this loader
// recognizes.
type SegmentType uint32

const (
	PTNull SegmentType = iota
	PTLoad
	PTDynamic
	PTInterp
	PTNote
	PTShlib
	PTPHDR
	PTTLS
)

// GNU-specific segment types, outside the standard PT_* range.
const (
	PTGNUStack SegmentType = 0x6474e551
	PTGNURelro SegmentType = 0x6474e552
)

// Header is the subset of the ELF64 file header this loader
// validates before trusting an executable.
type Header struct {
	Magic      [4]byte
	Class      uint8
	DataEncode uint8
	Entry      uint64
	PhOff      uint64
	PhEntSize  uint16
	PhNum      uint16
}

// ProgramHeader is one ELF64 program-header table entry.
type ProgramHeader struct {
	Type   SegmentType
	Offset uint64
	VAddr  uint64
	FileSz uint64
	MemSz  uint64
	Flags  uint32
}

// End returns the first address past this segment's in-memory
// extent.
func (p ProgramHeader) End() uint64 {
	return p.VAddr + p.MemSz
}

// ValidateHeader checks the ELF identification fields this kernel
// requires: the 4-byte magic, 64-bit class, little-endian encoding.
func ValidateHeader(h Header) error {
	if h.Magic != [4]byte{elfMagic0, elfMagic1, elfMagic2, elfMagic3} {
		return kerrors.New(kerrors.KindInvalidArgument, "validate-elf", "bad magic")
	}
	if h.Class != Class64 {
		return kerrors.New(kerrors.KindInvalidArgument, "validate-elf", "not a 64-bit ELF")
	}
	if h.DataEncode != DataLittleEndian {
		return kerrors.New(kerrors.KindInvalidArgument, "validate-elf", "not little-endian")
	}
	return nil
}

// ValidateEntryPoint checks that h.Entry lies within one of the
// executable's LOAD segments.
func ValidateEntryPoint(h Header, phdrs []ProgramHeader) error {
	for _, ph := range phdrs {
		if ph.Type != PTLoad {
			continue
		}
		if h.Entry >= ph.VAddr && h.Entry < ph.End() {
			return nil
		}
	}
	return kerrors.New(kerrors.KindInvalidArgument, "validate-elf", "entry point outside any LOAD segment")
}

// FindInterp returns the dynamic-linker path named by a PT_INTERP
// segment, if present. readSegment returns the file's bytes at
// [ph.Offset, ph.Offset+ph.FileSz) for a header, NUL-terminated.
func FindInterp(phdrs []ProgramHeader, readSegment func(ProgramHeader) []byte) (string, bool) {
	for _, ph := range phdrs {
		if ph.Type != PTInterp {
			continue
		}
		data := readSegment(ph)
		for i, b := range data {
			if b == 0 {
				data = data[:i]
				break
			}
		}
		return string(data), true
	}
	return "", false
}
