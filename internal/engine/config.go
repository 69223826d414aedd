package engine

import (
	"fmt"

	"github.com/xyproto/env/v2"
)

const (
	defaultPageSize    = 1 << 20
	defaultGCThreshold = 8 << 20
)

// Config holds the knobs of a JIT context.
// Zero values are replaced by defaults in Normalize.
type Config struct {
	Platform Platform

	// Verbose prints lowering/allocation/emission diagnostics
	Verbose bool

	// PageSize is the size of one heap page, in bytes
	PageSize int

	// GCThreshold is the number of bytes handed out by the runtime
	// allocator after which a collection is requested
	GCThreshold int

	// TrapEntry emits the int3 marker in front of every function region
	TrapEntry bool
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Platform:    HostPlatform(),
		PageSize:    defaultPageSize,
		GCThreshold: defaultGCThreshold,
		TrapEntry:   true,
	}
}

// LoadConfig reads LIRJIT_* environment variables on top of DefaultConfig
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if archName := env.Str("LIRJIT_ARCH"); archName != "" {
		arch, err := ParseArch(archName)
		if err != nil {
			return cfg, fmt.Errorf("LIRJIT_ARCH: %w", err)
		}
		cfg.Platform.Arch = arch
	}
	cfg.Verbose = env.Bool("LIRJIT_VERBOSE")
	cfg.PageSize = env.Int("LIRJIT_PAGE_SIZE", defaultPageSize)
	cfg.GCThreshold = env.Int("LIRJIT_GC_THRESHOLD", defaultGCThreshold)
	if env.Str("LIRJIT_TRAP_ENTRY") != "" {
		cfg.TrapEntry = env.Bool("LIRJIT_TRAP_ENTRY")
	}
	return cfg, cfg.Validate()
}

// Normalize fills in defaults for zero fields
func (c *Config) Normalize() {
	if c.Platform.Arch == ArchUnknown {
		c.Platform = HostPlatform()
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.GCThreshold <= 0 {
		c.GCThreshold = defaultGCThreshold
	}
}

// Validate checks that the configuration can drive code generation
func (c Config) Validate() error {
	if !c.Platform.CanGenerate() {
		return fmt.Errorf("no code generator for %s", c.Platform)
	}
	if c.PageSize < 4096 || !IsPowerOfTwo(c.PageSize) {
		return fmt.Errorf("page size %d must be a power of two >= 4096", c.PageSize)
	}
	return nil
}
