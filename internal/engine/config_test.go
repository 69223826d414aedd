package engine

import "testing"

func TestLoadConfigFromEnvironment(t *testing.T) {
	if HostPlatform().OS == OSWindows {
		t.Skip("no code generator for windows")
	}
	t.Setenv("LIRJIT_ARCH", "amd64")
	t.Setenv("LIRJIT_VERBOSE", "1")
	t.Setenv("LIRJIT_PAGE_SIZE", "65536")
	t.Setenv("LIRJIT_GC_THRESHOLD", "4096")
	t.Setenv("LIRJIT_TRAP_ENTRY", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected the configuration to load, got: %v", err)
	}
	if cfg.Platform.Arch != ArchX86_64 {
		t.Errorf("Expected x86_64, got %s", cfg.Platform.Arch)
	}
	if !cfg.Verbose {
		t.Errorf("Expected verbose mode")
	}
	if cfg.PageSize != 65536 {
		t.Errorf("Expected a page size of 65536, got %d", cfg.PageSize)
	}
	if cfg.GCThreshold != 4096 {
		t.Errorf("Expected a gc threshold of 4096, got %d", cfg.GCThreshold)
	}
	if cfg.TrapEntry {
		t.Errorf("Expected the trap marker to be disabled")
	}
}

func TestLoadConfigRejectsUnknownArch(t *testing.T) {
	t.Setenv("LIRJIT_ARCH", "sparc")
	if _, err := LoadConfig(); err == nil {
		t.Errorf("Expected sparc to be rejected")
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize()
	if cfg.PageSize != defaultPageSize || cfg.GCThreshold != defaultGCThreshold {
		t.Errorf("Expected defaults, got page size %d and threshold %d", cfg.PageSize, cfg.GCThreshold)
	}
	if cfg.Platform != HostPlatform() {
		t.Errorf("Expected the host platform, got %s", cfg.Platform)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"x86_64", Config{Platform: Platform{ArchX86_64, OSLinux}, PageSize: 4096}, true},
		{"arm64", Config{Platform: Platform{ArchARM64, OSLinux}, PageSize: 4096}, false},
		{"windows", Config{Platform: Platform{ArchX86_64, OSWindows}, PageSize: 4096}, false},
		{"small page", Config{Platform: Platform{ArchX86_64, OSLinux}, PageSize: 1024}, false},
		{"odd page", Config{Platform: Platform{ArchX86_64, OSLinux}, PageSize: 5000}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Expected ok=%v, got error %v", tt.ok, err)
			}
		})
	}
}

func TestParseArch(t *testing.T) {
	for in, want := range map[string]Arch{"amd64": ArchX86_64, "x86-64": ArchX86_64, "ARM64": ArchARM64, "rv64": ArchRiscv64} {
		got, err := ParseArch(in)
		if err != nil || got != want {
			t.Errorf("Expected %s for %q, got %s (%v)", want, in, got, err)
		}
	}
}
