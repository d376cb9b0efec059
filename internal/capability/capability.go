// Package capability is the provider registry behind the language's
// explicit capability effects (spec.md §1, with-capability — CanonIR's
// KindWithCapability per §3.1). A capability is a named effect (file
// system access, network, clock, entropy, ...); a Provider is the
// concrete implementation a program supplies when it enters one via
// with-capability. The registry itself is agnostic to what a provider
// actually does at runtime — internal/eval and internal/blockir each
// evaluate the provider expression on their own terms (eval.go's
// KindWithCapability case, builder.go's InstApply lowering) — this
// package only tracks which capability names a program is allowed to
// name, what shape their providers must have, and how to report a
// typo in one.
package capability

import (
	"fmt"
	"sync"
)

// Kind classifies what a capability grants access to, mirroring the
// teacher's Role taxonomy (core/decorator/decorator.go) but keyed to
// effects rather than decorator behaviors.
type Kind string

const (
	KindFilesystem Kind = "filesystem"
	KindNetwork    Kind = "network"
	KindClock      Kind = "clock"
	KindEntropy    Kind = "entropy"
	KindEnv        Kind = "env"
	KindProcess    Kind = "process"
)

// Descriptor is a capability's registered metadata: the single source
// of truth a manifest entry, a diagnostic, and a doc generator all read
// from, grounded on core/decorator/decorator.go's Descriptor.
type Descriptor struct {
	Name    string
	Kind    Kind
	Summary string

	// Fallible marks a capability whose provider can fail to acquire
	// (a socket that cannot bind, a path that does not exist) — such
	// providers produce a Result, not a bare value, in CanonIR.
	Fallible bool

	// Revocable marks a capability that can be withdrawn mid-program
	// (the effect system's "provider deallocated" case); a body
	// entered under a revocable capability must tolerate losing it.
	Revocable bool
}

// Entry is a capability's registration: its metadata plus the factory
// a with-capability body's provider expression resolves against.
type Entry struct {
	Descriptor Descriptor
	Factory    Factory
}

// Factory builds a capability's runtime provider value from whatever
// config a manifest attached to it. It returns an opaque value because
// the registry has no opinion on what a filesystem or network provider
// looks like at the value level — that's internal/eval's or
// internal/blockir's concern, not this package's.
type Factory func(config map[string]interface{}) (interface{}, error)

// Registry holds every capability a compilation is allowed to name,
// keyed by name — grounded on core/decorator/registry.go's
// database/sql-style Registry, generalized from decorator paths to
// capability names and from an interface-inferred role set to an
// explicit Kind field (capability effects don't compose the way a
// decorator's Value/Exec/Transport/IO interfaces do).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty capability registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a capability. Registering the same name twice is a
// configuration error, not a silent overwrite, since two manifests
// disagreeing about what "network" means is a bug worth surfacing
// immediately rather than resolving by last-write-wins.
func (r *Registry) Register(desc Descriptor, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if desc.Name == "" {
		return fmt.Errorf("capability: descriptor has no name")
	}
	if _, exists := r.entries[desc.Name]; exists {
		return fmt.Errorf("capability: %q is already registered", desc.Name)
	}
	r.entries[desc.Name] = Entry{Descriptor: desc, Factory: factory}
	return nil
}

// Lookup retrieves a capability by name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// Names returns every registered capability name, in no particular
// order — callers that need stable output (manifest export, "did you
// mean" candidate lists) sort it themselves.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// New builds a provider value for a registered capability by invoking
// its factory with the supplied config.
func (r *Registry) New(name string, config map[string]interface{}) (interface{}, error) {
	entry, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("capability: %q is not registered", name)
	}
	if entry.Factory == nil {
		return nil, fmt.Errorf("capability: %q has no factory", name)
	}
	return entry.Factory(config)
}
