package boot

import "testing"

func validHeader(entry uint64) Header {
	return Header{
		Magic:      [4]byte{0x7F, 'E', 'L', 'F'},
		Class:      Class64,
		DataEncode: DataLittleEndian,
		Entry:      entry,
	}
}

func TestValidateHeader_Valid(t *testing.T) {
	if err := ValidateHeader(validHeader(0x401000)); err != nil {
		t.Errorf("expected valid header to pass, got %v", err)
	}
}

func TestValidateHeader_BadMagic(t *testing.T) {
	h := validHeader(0)
	h.Magic = [4]byte{0, 0, 0, 0}
	if err := ValidateHeader(h); err == nil {
		t.Error("expected bad magic to be rejected")
	}
}

func TestValidateHeader_Not64Bit(t *testing.T) {
	h := validHeader(0)
	h.Class = Class32
	if err := ValidateHeader(h); err == nil {
		t.Error("expected non-64-bit class to be rejected")
	}
}

func TestValidateHeader_NotLittleEndian(t *testing.T) {
	h := validHeader(0)
	h.DataEncode = DataBigEndian
	if err := ValidateHeader(h); err == nil {
		t.Error("expected big-endian encoding to be rejected")
	}
}

func TestValidateEntryPoint_WithinLoadSegment(t *testing.T) {
	h := validHeader(0x401000)
	phdrs := []ProgramHeader{
		{Type: PTLoad, VAddr: 0x400000, MemSz: 0x2000},
		{Type: PTInterp, VAddr: 0x600000, MemSz: 0x100},
	}
	if err := ValidateEntryPoint(h, phdrs); err != nil {
		t.Errorf("expected entry point within LOAD segment to pass, got %v", err)
	}
}

func TestValidateEntryPoint_OutsideLoadSegment(t *testing.T) {
	h := validHeader(0x800000)
	phdrs := []ProgramHeader{
		{Type: PTLoad, VAddr: 0x400000, MemSz: 0x2000},
	}
	if err := ValidateEntryPoint(h, phdrs); err == nil {
		t.Error("expected entry point outside any LOAD segment to be rejected")
	}
}

func TestFindInterp(t *testing.T) {
	phdrs := []ProgramHeader{
		{Type: PTLoad, VAddr: 0x400000, MemSz: 0x2000},
		{Type: PTInterp, Offset: 0, FileSz: 20},
	}
	reader := func(ph ProgramHeader) []byte {
		return []byte("/lib64/ld-linux.so\x00extra")
	}
	path, ok := FindInterp(phdrs, reader)
	if !ok || path != "/lib64/ld-linux.so" {
		t.Errorf("FindInterp = %q, %v, want /lib64/ld-linux.so, true", path, ok)
	}
}

func TestFindInterp_Absent(t *testing.T) {
	phdrs := []ProgramHeader{{Type: PTLoad, VAddr: 0x400000, MemSz: 0x2000}}
	if _, ok := FindInterp(phdrs, func(ProgramHeader) []byte { return nil }); ok {
		t.Error("expected FindInterp to report false when no PT_INTERP exists")
	}
}
