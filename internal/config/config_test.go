package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err, "Load")
	if cfg != Default() {
		t.Fatalf("expected a missing file to yield Default(), got %+v", cfg)
	}
}

func TestLoadParsesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "korec.yaml")
	content := "min_tool_version: 0.5.0\nbackend: native\nverbosity: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	require.NoError(t, err, "Load")
	if cfg.MinToolVersion != "0.5.0" {
		t.Fatalf("expected min_tool_version to be parsed, got %q", cfg.MinToolVersion)
	}
	if cfg.Backend != "native" {
		t.Fatalf("expected backend to be parsed, got %q", cfg.Backend)
	}
	if cfg.OutDir != Default().OutDir {
		t.Fatalf("expected an unset field to keep its default, got %q", cfg.OutDir)
	}
}

func TestCheckToolVersionAcceptsNewerRunningVersion(t *testing.T) {
	cfg := Config{MinToolVersion: "0.3.0"}
	if err := cfg.CheckToolVersion("0.4.0"); err != nil {
		t.Fatalf("expected a newer running version to satisfy the minimum, got %v", err)
	}
}

func TestCheckToolVersionRejectsOlderRunningVersion(t *testing.T) {
	cfg := Config{MinToolVersion: "v0.9.0"}
	if err := cfg.CheckToolVersion("0.1.0"); err == nil {
		t.Fatalf("expected an older running version to fail the check")
	}
}

func TestCheckToolVersionSkippedWhenUnset(t *testing.T) {
	cfg := Config{}
	if err := cfg.CheckToolVersion("not-a-version"); err != nil {
		t.Fatalf("expected no minimum to skip validation entirely, got %v", err)
	}
}

func TestFingerprintIsStableAndSensitiveToFields(t *testing.T) {
	a := Config{Backend: "eval", OutDir: ".korec"}
	b := a
	b.Verbosity = 5 // excluded from the fingerprint

	sumA, err := a.Fingerprint()
	require.NoError(t, err, "Fingerprint")
	sumB, err := b.Fingerprint()
	require.NoError(t, err, "Fingerprint")
	if sumA != sumB {
		t.Fatalf("expected verbosity changes not to affect the fingerprint")
	}

	c := a
	c.Backend = "native"
	sumC, err := c.Fingerprint()
	require.NoError(t, err, "Fingerprint")
	if sumA == sumC {
		t.Fatalf("expected a backend change to change the fingerprint")
	}
}

func TestRegisterFlagsOverridesDefaults(t *testing.T) {
	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, &cfg)

	if err := fs.Parse([]string{"--backend=native", "--out-dir=/tmp/out", "-v", "-v"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Backend != "native" {
		t.Fatalf("expected --backend to override the default, got %q", cfg.Backend)
	}
	if cfg.OutDir != "/tmp/out" {
		t.Fatalf("expected --out-dir to override the default, got %q", cfg.OutDir)
	}
	if cfg.Verbosity != 2 {
		t.Fatalf("expected repeated -v to count to 2, got %d", cfg.Verbosity)
	}
}
