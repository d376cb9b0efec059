// Package constpool implements the Constant Pool (§3.3): the
// content-addressed table of literal values referenced from CanonIR.
// Interning hashes a value's canonical CBOR encoding so that two
// identical literals anywhere in one compilation unit collapse to the
// same Ref — grounded on the teacher's canonical-plan hashing, which
// used the same canonical-CBOR-then-hash recipe to give two
// structurally identical plans the same content hash.
package constpool

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/korelang/korec/internal/value"
)

// Ref is a handle into a Pool, stable for the lifetime of the pool.
type Ref uint32

// Sentinel refs are pre-reserved at construction (P3) so that the
// overwhelmingly common literals — unit, the two booleans, 0, 1, and
// the empty string — never cost a hash lookup or grow the pool.
const (
	RefUnit Ref = iota
	RefTrue
	RefFalse
	RefZero
	RefOne
	RefEmptyString

	numSentinels
)

// Pool interns Values by content hash. It is append-only: once built
// during a canonicalization pass, entries are never removed or
// reordered, so a Ref stays valid for the pool's lifetime.
type Pool struct {
	mode   cbor.EncMode
	values []value.Value
	byHash map[[sha256.Size]byte]Ref
}

// NewPool creates a Pool with the sentinel constants pre-registered.
func NewPool() (*Pool, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("constpool: building canonical CBOR mode: %w", err)
	}
	p := &Pool{
		mode:   mode,
		values: make([]value.Value, 0, numSentinels),
		byHash: make(map[[sha256.Size]byte]Ref, numSentinels),
	}
	for _, v := range []value.Value{
		value.Unit(),
		value.Bool(true),
		value.Bool(false),
		value.Int(0),
		value.Int(1),
		value.Str(""),
	} {
		if _, err := p.intern(v); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Intern returns the stable Ref for v, allocating a new slot only if
// this exact content hasn't been interned yet in this pool.
func (p *Pool) Intern(v value.Value) (Ref, error) {
	return p.intern(v)
}

func (p *Pool) intern(v value.Value) (Ref, error) {
	encoded, err := p.mode.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("constpool: canonical-encoding value: %w", err)
	}
	hash := sha256.Sum256(encoded)
	if ref, ok := p.byHash[hash]; ok {
		return ref, nil
	}
	ref := Ref(len(p.values))
	p.values = append(p.values, v)
	p.byHash[hash] = ref
	return ref, nil
}

// Lookup returns the Value behind a Ref.
func (p *Pool) Lookup(ref Ref) value.Value {
	return p.values[ref]
}

// Len reports how many distinct values have been interned, including
// the pre-reserved sentinels.
func (p *Pool) Len() int {
	return len(p.values)
}
