package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xyproto/lirjit/host"
	"github.com/xyproto/lirjit/internal/engine"
)

func testConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Platform = engine.Platform{Arch: engine.ArchX86_64, OS: engine.OSLinux}
	return cfg
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	if err := RunCLI(nil, testConfig(), &out); err != nil {
		t.Fatalf("Expected help, got error: %v", err)
	}
	if !strings.Contains(out.String(), "Commands:") {
		t.Errorf("Expected a command list, got:\n%s", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := RunCLI([]string{"frobnicate"}, testConfig(), &out)
	if err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("Expected an unknown command error, got %v", err)
	}
}

func TestConfigCommand(t *testing.T) {
	var out bytes.Buffer
	if err := RunCLI([]string{"config"}, testConfig(), &out); err != nil {
		t.Fatalf("Expected the configuration, got error: %v", err)
	}
	if !strings.Contains(out.String(), "x86_64-linux") {
		t.Errorf("Expected the platform in the output, got:\n%s", out.String())
	}
}

func TestDemo(t *testing.T) {
	var out bytes.Buffer
	if err := RunCLI([]string{"demo"}, testConfig(), &out); err != nil {
		t.Fatalf("Expected the demo to compile, got error: %v", err)
	}
	for _, want := range []string{"Entry", "BinOp(+)", "ParallelMove", "spill slots"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in the demo output", want)
		}
	}
	if host.Available && !strings.Contains(out.String(), "result: 45") {
		t.Errorf("Expected the demo to sum to 45, got:\n%s", out.String())
	}
}

func TestStubsCommand(t *testing.T) {
	var out bytes.Buffer
	if err := RunCLI([]string{"stubs"}, testConfig(), &out); err != nil {
		t.Fatalf("Expected the stub list, got error: %v", err)
	}
	if !strings.Contains(out.String(), "LookupProperty") || !strings.Contains(out.String(), "36 stubs") {
		t.Errorf("Expected every stub listed, got:\n%s", out.String())
	}
}
