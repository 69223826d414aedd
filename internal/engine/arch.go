package engine

import (
	"fmt"
	"runtime"
	"strings"
)

// Arch is a code generation target architecture
type Arch int

const (
	ArchUnknown Arch = iota
	ArchX86_64
	ArchARM64
	ArchRiscv64
)

func (a Arch) String() string {
	switch a {
	case ArchX86_64:
		return "x86_64"
	case ArchARM64:
		return "aarch64"
	case ArchRiscv64:
		return "riscv64"
	default:
		return "unknown"
	}
}

// PointerSize is the width of a machine word on the architecture, in bytes
func (a Arch) PointerSize() int {
	switch a {
	case ArchX86_64, ArchARM64, ArchRiscv64:
		return 8
	default:
		return 0
	}
}

// ParseArch parses an architecture string (like GOARCH values)
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(s) {
	case "x86_64", "amd64", "x86-64":
		return ArchX86_64, nil
	case "aarch64", "arm64":
		return ArchARM64, nil
	case "riscv64", "riscv", "rv64":
		return ArchRiscv64, nil
	default:
		return ArchUnknown, fmt.Errorf("unsupported architecture: %s (supported: amd64, arm64, riscv64)", s)
	}
}

// OS is the operating system the generated code runs under
type OS int

const (
	OSLinux OS = iota
	OSDarwin
	OSFreeBSD
	OSWindows
)

func (o OS) String() string {
	switch o {
	case OSLinux:
		return "linux"
	case OSDarwin:
		return "darwin"
	case OSFreeBSD:
		return "freebsd"
	case OSWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// ParseOS parses an OS string (like GOOS values)
func ParseOS(s string) (OS, error) {
	switch strings.ToLower(s) {
	case "linux":
		return OSLinux, nil
	case "darwin", "macos":
		return OSDarwin, nil
	case "freebsd":
		return OSFreeBSD, nil
	case "windows", "win":
		return OSWindows, nil
	default:
		return 0, fmt.Errorf("unsupported OS: %s (supported: linux, darwin, freebsd, windows)", s)
	}
}

// Platform represents a target platform (architecture + OS)
type Platform struct {
	Arch Arch
	OS   OS
}

// HostPlatform returns the platform the process is running on.
// Unknown values fall back to x86_64/linux.
func HostPlatform() Platform {
	p := Platform{Arch: ArchX86_64, OS: OSLinux}
	if a, err := ParseArch(runtime.GOARCH); err == nil {
		p.Arch = a
	}
	if o, err := ParseOS(runtime.GOOS); err == nil {
		p.OS = o
	}
	return p
}

// CanGenerate reports whether the back end emits code for the platform.
// Only x86_64 has a stub library and per-instruction emitters.
func (p Platform) CanGenerate() bool {
	return p.Arch == ArchX86_64 && p.OS != OSWindows
}

// String returns a human-readable platform string
func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.Arch, p.OS)
}
