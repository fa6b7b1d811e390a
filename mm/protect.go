package mm

import "nexaos/kerrors"

// PageFlags is the per-page policy a page-table entry must encode:
// present, writable, user-accessible, and no-execute.
type PageFlags struct {
	Present      bool
	Writable     bool
	UserAccess   bool
	NoExecute    bool
}

// ValidateKernelPage enforces that kernel pages are never user-accessible.
func ValidateKernelPage(f PageFlags) error {
	if f.UserAccess {
		return &kerrors.KernelError{Op: "validate-kernel-page", Subsystem: "mm", Kind: kerrors.KindPermission, Detail: "kernel page is user-accessible"}
	}
	return nil
}

// ValidateUserPage enforces the W^X policy for user pages: user pages
// must be user-accessible, data pages must be no-execute, and a page may
// never be simultaneously user-writable and user-executable.
func ValidateUserPage(f PageFlags) error {
	if !f.UserAccess {
		return &kerrors.KernelError{Op: "validate-user-page", Subsystem: "mm", Kind: kerrors.KindPermission, Detail: "user page is not user-accessible"}
	}
	if f.Writable && !f.NoExecute {
		return kerrors.WrapWithSubsystem(kerrors.ErrWriteExecute, kerrors.KindPermission, "validate-user-page", "mm")
	}
	return nil
}

// FlagsForProt derives the page-table policy flags a mapping's
// requested Prot bits imply, applying the W^X data-page rule: any
// writable page is automatically marked no-execute.
func FlagsForProt(prot Prot, user bool) PageFlags {
	f := PageFlags{
		Present:    true,
		Writable:   prot&ProtWrite != 0,
		UserAccess: user,
	}
	if f.Writable || prot&ProtExec == 0 {
		f.NoExecute = true
	}
	return f
}
