package config

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a stable hash of the resolved configuration for
// use as a build-cache key, grounded on core/planfmt/writer.go's
// blake2b.New256 use for plan hashing — here over the configuration's
// own fields rather than a serialized plan, and deliberately excluding
// Verbosity, since changing log noise shouldn't invalidate a cache
// keyed on what actually affects the compiled output.
func (c Config) Fingerprint() ([32]byte, error) {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, err
	}

	fmt.Fprintf(hasher, "min_tool_version=%s\n", c.MinToolVersion)
	fmt.Fprintf(hasher, "capability_manifest=%s\n", c.ManifestPath)
	fmt.Fprintf(hasher, "out_dir=%s\n", c.OutDir)
	fmt.Fprintf(hasher, "backend=%s\n", c.Backend)

	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return sum, nil
}
