// Package config loads and validates the compiler's own configuration:
// a korec.yaml manifest, overridable by command-line flags, checked
// against the running toolchain's version, and fingerprinted for use
// as a build-cache key. Grounded on the teacher's cli/main.go flag
// wiring (generalized from ad-hoc cobra.Command locals to a loaded,
// mergeable struct) and core/planfmt/idfactory.go's
// cryptographic-hash-for-stable-id pattern (generalized from HKDF over
// a plan digest to a flat BLAKE2b sum over the resolved configuration).
package config

import (
	"fmt"
	"os"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Config is the compiler's resolved configuration, after a korec.yaml
// file and any command-line overrides (internal/config/flags.go) have
// been merged.
type Config struct {
	// MinToolVersion gates compilation on the running toolchain, e.g.
	// "v0.4.0" — checked with golang.org/x/mod/semver, which requires
	// the "v" prefix spec.md's source format doesn't, so
	// CheckToolVersion normalizes it before comparing (Load keeps the
	// string as written).
	MinToolVersion string `yaml:"min_tool_version"`

	// ManifestPath points at the capability manifest this compilation
	// should load (internal/capability.LoadManifest).
	ManifestPath string `yaml:"capability_manifest"`

	// OutDir is where lowered artifacts (CanonIR dumps, native object
	// files) are written.
	OutDir string `yaml:"out_dir"`

	// Backend selects which backend runs the program: "eval" for the
	// tree-walking internal/eval backend, "native" for the
	// internal/blockir-based code generator.
	Backend string `yaml:"backend"`

	// Verbosity controls internal operational logging (§6 of
	// SPEC_FULL.md): 0 logs only warnings and errors, higher numbers
	// are noisier (see internal/corelog.New).
	Verbosity int `yaml:"verbosity"`
}

// Default returns the configuration used when no korec.yaml exists.
func Default() Config {
	return Config{
		MinToolVersion: "v0.1.0",
		OutDir:         ".korec",
		Backend:        "eval",
		Verbosity:      0,
	}
}

// Load reads and parses a korec.yaml file at path, returning Default
// unchanged (not an error) if the file does not exist — a compilation
// with no configuration file is the common case, not a misconfiguration.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// CheckToolVersion reports whether runningVersion (the compiler
// binary's own version) satisfies cfg.MinToolVersion. Both versions
// are normalized to carry the "v" prefix semver.Compare requires,
// mirroring core/types/validation.go's "semver" format validator,
// which does the same normalization for user-supplied version strings.
func (c Config) CheckToolVersion(runningVersion string) error {
	if c.MinToolVersion == "" {
		return nil
	}
	want := normalizeSemver(c.MinToolVersion)
	got := normalizeSemver(runningVersion)
	if !semver.IsValid(want) {
		return fmt.Errorf("config: min_tool_version %q is not a valid semantic version", c.MinToolVersion)
	}
	if !semver.IsValid(got) {
		return fmt.Errorf("config: running tool version %q is not a valid semantic version", runningVersion)
	}
	if semver.Compare(got, want) < 0 {
		return fmt.Errorf("config: this program requires korec %s or newer, running %s", want, got)
	}
	return nil
}

func normalizeSemver(v string) string {
	if v == "" {
		return v
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}
