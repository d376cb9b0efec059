// Package ident implements the process-wide string interner the core
// treats as its one piece of externally-shared mutable state (§5). Every
// other identifier-bearing structure — function names, field names,
// decorator names — stores a Name handle instead of a string, so
// equality and hashing are a single integer comparison.
package ident

import "sync"

// Name is a handle into the interner. The zero Name is the empty
// string's handle (New pre-registers "", so Intern("") returns it) and
// is reserved as an explicit "no name" sentinel for callers that need
// one (e.g. a for-loop binding pattern with no name).
type Name uint32

// Interner maps strings to stable Name handles. Reads (Lookup, and the
// read side of Intern for an already-seen string) may happen
// concurrently from any pass; writes happen only during the
// canonicalizer's single-threaded walk, guarded by the same mutex so the
// type is safe to share regardless.
type Interner struct {
	mu     sync.RWMutex
	byName map[string]Name
	byID   []string
}

// New returns an Interner with Name(0) reserved as the empty-name
// sentinel.
func New() *Interner {
	return &Interner{
		byName: map[string]Name{"": 0},
		byID:   []string{""},
	}
}

// Intern returns the stable Name for s, allocating one if s has not been
// seen before. Calling Intern twice with an equal string returns the
// same Name.
func (in *Interner) Intern(s string) Name {
	in.mu.RLock()
	if n, ok := in.byName[s]; ok {
		in.mu.RUnlock()
		return n
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if n, ok := in.byName[s]; ok {
		return n
	}
	n := Name(len(in.byID))
	in.byID = append(in.byID, s)
	in.byName[s] = n
	return n
}

// Lookup returns the string behind a Name. Panics are never raised here;
// an unknown Name (one from a different Interner) returns ("", false).
func (in *Interner) Lookup(n Name) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(n) >= len(in.byID) {
		return "", false
	}
	return in.byID[n], true
}

// MustLookup is Lookup without the ok result, for call sites that hold
// an invariant that n came from this interner.
func (in *Interner) MustLookup(n Name) string {
	s, ok := in.Lookup(n)
	if !ok {
		return "<unknown-name>"
	}
	return s
}

// Len reports how many distinct strings have been interned, including
// the empty-name sentinel.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byID)
}
