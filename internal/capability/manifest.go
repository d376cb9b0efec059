package capability

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/korelang/korec/internal/diag"
	"github.com/korelang/korec/internal/source"
)

// Manifest is the on-disk declaration of a program's capability
// surface: which capabilities it may use, and (optionally) a
// JSON-Schema fragment constraining each one's config. Grounded on
// the teacher's decorator-registration style (core/decorator/registry.go's
// Register calls) generalized from Go `init()`-time registration to a
// data file a compilation loads once at startup, since capability
// effects are the program's declared interface to the outside world
// rather than a fixed set the compiler ships with.
type Manifest struct {
	Capabilities []ManifestEntry `yaml:"capabilities"`
}

// ManifestEntry declares one capability a manifest grants.
type ManifestEntry struct {
	Name     string                 `yaml:"name"`
	Kind     string                 `yaml:"kind"`
	Summary  string                 `yaml:"summary"`
	Fallible bool                   `yaml:"fallible"`
	Config   map[string]interface{} `yaml:"config"`
	// Schema, if set, is a JSON-Schema document (as a YAML-decoded
	// map[string]interface{}) constraining Config — §6 of SPEC_FULL's
	// "validates optional JSON-Schema fragments embedded in capability
	// manifests" requirement.
	Schema map[string]interface{} `yaml:"schema"`
}

// LoadManifest reads and parses a capability manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capability: reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("capability: parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks every entry's Config against its Schema (when
// present) and reports the result as a diag.Bag rather than failing
// fast on the first bad entry, consistent with §7's "user errors
// accumulate" policy — a manifest with three misconfigured
// capabilities should report all three in one pass.
func (m *Manifest) Validate() *diag.Bag {
	bag := diag.NewBag()
	for _, entry := range m.Capabilities {
		if entry.Schema == nil {
			continue
		}
		sch, err := compileSchema(entry.Schema)
		if err != nil {
			bag.Addf(diag.CodeInvalidCast, source.Span{}, "capability %q: invalid schema: %v", entry.Name, err)
			continue
		}
		if err := sch.Validate(entry.Config); err != nil {
			bag.Addf(diag.CodeInvalidCast, source.Span{}, "capability %q: config does not satisfy its schema: %v", entry.Name, err)
		}
	}
	return bag
}

// compileSchema turns a YAML-decoded schema document into a compiled
// jsonschema.Schema, grounded on core/types/validation.go's
// compileSchema: marshal to JSON, add it as an in-memory resource
// under a synthetic URL, then compile that URL — the schema lives
// inline in the manifest rather than on disk as its own file, so there
// is nothing for the library's own loader to fetch.
func compileSchema(doc map[string]interface{}) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	const resourceURL = "capability-schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile(resourceURL)
}

// Register populates reg with every entry in the manifest, resolving
// each one's Kind string against the known Kind constants and wiring a
// factory that returns the entry's static Config — a manifest has no
// Go code to call, so "the provider" a with-capability body receives
// is just its declared config map, left for internal/eval or
// internal/blockir to interpret at the value level.
func (m *Manifest) Register(reg *Registry) error {
	for _, entry := range m.Capabilities {
		desc := Descriptor{
			Name:     entry.Name,
			Kind:     Kind(entry.Kind),
			Summary:  entry.Summary,
			Fallible: entry.Fallible,
		}
		config := entry.Config
		factory := func(override map[string]interface{}) (interface{}, error) {
			merged := make(map[string]interface{}, len(config)+len(override))
			for k, v := range config {
				merged[k] = v
			}
			for k, v := range override {
				merged[k] = v
			}
			return merged, nil
		}
		if err := reg.Register(desc, factory); err != nil {
			return err
		}
	}
	return nil
}

// SuggestCapability returns ranked "did you mean" candidates for an
// unresolved capability name, mirroring the teacher's planner use of
// fuzzysearch for unresolved-identifier suggestions (§6.3's
// "unknown-capability diagnostics use fuzzysearch" requirement).
func SuggestCapability(reg *Registry, name string) []string {
	names := reg.Names()
	sort.Strings(names)
	return diag.Suggest(name, names)
}
