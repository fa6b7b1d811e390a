// Package boot implements the kernel's early boot sequencing: command-
// line parameter parsing, the boot-stage state machine, and ELF
// header/program-header validation for the initial executable.
package boot

import "strings"

// Params holds the recognized boot-command-line parameters. Unknown
// parameters are silently ignored, matching a real bootloader's
// cmdline contract.
type Params struct {
	RootDevice  string
	RootFSType  string
	RootOptions string
	InitPath    string
	Emergency   bool
}

// emergencyKeywords are the recognized single-user-mode tokens.
var emergencyKeywords = map[string]bool{
	"emergency": true,
	"single":    true,
	"1":         true,
}

// ParseCmdline parses a space-separated boot command line into Params.
func ParseCmdline(cmdline string) Params {
	var p Params
	for _, tok := range strings.Fields(cmdline) {
		switch {
		case strings.HasPrefix(tok, "root="):
			p.RootDevice = strings.TrimPrefix(tok, "root=")
		case strings.HasPrefix(tok, "rootfstype="):
			p.RootFSType = strings.TrimPrefix(tok, "rootfstype=")
		case strings.HasPrefix(tok, "rootflags="):
			p.RootOptions = strings.TrimPrefix(tok, "rootflags=")
		case strings.HasPrefix(tok, "init="):
			p.InitPath = strings.TrimPrefix(tok, "init=")
		case emergencyKeywords[tok]:
			p.Emergency = true
		}
	}
	return p
}

// IsUUIDRoot reports whether RootDevice names a filesystem by UUID.
func (p Params) IsUUIDRoot() bool {
	return strings.HasPrefix(p.RootDevice, "UUID=")
}

// IsLabelRoot reports whether RootDevice names a filesystem by label.
func (p Params) IsLabelRoot() bool {
	return strings.HasPrefix(p.RootDevice, "LABEL=")
}
