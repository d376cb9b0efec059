package capability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	reg := New()
	desc := Descriptor{Name: "filesystem", Kind: KindFilesystem, Summary: "read/write the local filesystem"}
	factory := func(cfg map[string]interface{}) (interface{}, error) { return cfg, nil }

	if err := reg.Register(desc, factory); err != nil {
		t.Fatalf("Register: %v", err)
	}

	entry, ok := reg.Lookup("filesystem")
	if !ok {
		t.Fatalf("expected filesystem to be registered")
	}
	if entry.Descriptor.Kind != KindFilesystem {
		t.Fatalf("expected KindFilesystem, got %v", entry.Descriptor.Kind)
	}
}

func TestRegisterDuplicateNameFails(t *testing.T) {
	reg := New()
	desc := Descriptor{Name: "network", Kind: KindNetwork}
	noop := func(map[string]interface{}) (interface{}, error) { return nil, nil }

	if err := reg.Register(desc, noop); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := reg.Register(desc, noop); err == nil {
		t.Fatalf("expected registering the same capability name twice to fail")
	}
}

func TestRegisterWithoutNameFails(t *testing.T) {
	reg := New()
	if err := reg.Register(Descriptor{}, nil); err == nil {
		t.Fatalf("expected a nameless descriptor to be rejected")
	}
}

func TestNewInvokesFactoryWithConfig(t *testing.T) {
	reg := New()
	desc := Descriptor{Name: "clock", Kind: KindClock}
	factory := func(cfg map[string]interface{}) (interface{}, error) { return cfg["zone"], nil }
	if err := reg.Register(desc, factory); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := reg.New("clock", map[string]interface{}{"zone": "UTC"})
	require.NoError(t, err, "New")
	if got != "UTC" {
		t.Fatalf("expected the factory's own return value to flow through, got %v", got)
	}
}

func TestNewOnUnregisteredCapabilityFails(t *testing.T) {
	reg := New()
	if _, err := reg.New("entropy", nil); err == nil {
		t.Fatalf("expected New on an unregistered capability to fail")
	}
}

func TestManifestRegisterWiresEveryEntry(t *testing.T) {
	m := &Manifest{
		Capabilities: []ManifestEntry{
			{Name: "env", Kind: "env", Summary: "read process environment variables"},
			{Name: "process", Kind: "process", Summary: "spawn subprocesses", Fallible: true},
		},
	}
	reg := New()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	entry, ok := reg.Lookup("process")
	if !ok {
		t.Fatalf("expected process to be registered from the manifest")
	}
	if !entry.Descriptor.Fallible {
		t.Fatalf("expected Fallible to carry through from the manifest entry")
	}
	if len(reg.Names()) != 2 {
		t.Fatalf("expected both manifest entries registered, got %d", len(reg.Names()))
	}
}

func TestManifestFactoryMergesOverrideOverConfig(t *testing.T) {
	m := &Manifest{
		Capabilities: []ManifestEntry{
			{Name: "network", Kind: "network", Config: map[string]interface{}{"timeout": "5s", "retries": 3}},
		},
	}
	reg := New()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := reg.New("network", map[string]interface{}{"timeout": "30s"})
	require.NoError(t, err, "New")
	merged, ok := got.(map[string]interface{})
	if !ok {
		t.Fatalf("expected a merged config map, got %T", got)
	}
	if merged["timeout"] != "30s" {
		t.Fatalf("expected the override to win over the manifest default, got %v", merged["timeout"])
	}
	if merged["retries"] != 3 {
		t.Fatalf("expected an unrelated manifest default to survive the merge, got %v", merged["retries"])
	}
}

func TestManifestValidateRejectsConfigOutsideItsSchema(t *testing.T) {
	m := &Manifest{
		Capabilities: []ManifestEntry{
			{
				Name:   "network",
				Kind:   "network",
				Config: map[string]interface{}{"timeout": "not-a-number"},
				Schema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"timeout": map[string]interface{}{"type": "integer"},
					},
				},
			},
		},
	}
	bag := m.Validate()
	if !bag.HasErrors() {
		t.Fatalf("expected a schema mismatch to produce a diagnostic")
	}
}

func TestManifestValidateAcceptsConformingConfig(t *testing.T) {
	m := &Manifest{
		Capabilities: []ManifestEntry{
			{
				Name:   "clock",
				Kind:   "clock",
				Config: map[string]interface{}{"zone": "UTC"},
				Schema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"zone": map[string]interface{}{"type": "string"},
					},
				},
			},
		},
	}
	bag := m.Validate()
	if bag.HasErrors() {
		t.Fatalf("expected conforming config to pass validation, got %v", bag.Items())
	}
}

func TestSuggestCapabilityRanksClosestName(t *testing.T) {
	reg := New()
	for _, name := range []string{"filesystem", "network", "clock"} {
		if err := reg.Register(Descriptor{Name: name, Kind: Kind(name)}, nil); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}

	got := SuggestCapability(reg, "filesytem")
	if len(got) == 0 || got[0] != "filesystem" {
		t.Fatalf(`expected "filesystem" to rank first for a near-miss of "filesytem", got %v`, got)
	}
}
