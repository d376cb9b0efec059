package constpool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/korelang/korec/internal/constpool"
	"github.com/korelang/korec/internal/value"
)

func TestSentinelsPreregistered(t *testing.T) {
	pool, err := constpool.NewPool()
	require.NoError(t, err, "NewPool() error")
	if got, want := pool.Len(), 6; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	if got := pool.Lookup(constpool.RefZero); !got.Equal(value.Int(0)) {
		t.Errorf("RefZero = %+v, want Int(0)", got)
	}
	if got := pool.Lookup(constpool.RefEmptyString); !got.Equal(value.Str("")) {
		t.Errorf("RefEmptyString = %+v, want Str(\"\")", got)
	}
}

func TestInternDedupsIdenticalValues(t *testing.T) {
	pool, err := constpool.NewPool()
	require.NoError(t, err, "NewPool() error")
	a, err := pool.Intern(value.Int(42))
	require.NoError(t, err, "Intern() error")
	b, err := pool.Intern(value.Int(42))
	require.NoError(t, err, "Intern() error")
	if a != b {
		t.Errorf("expected two Int(42) interns to collapse to one ref, got %d and %d", a, b)
	}
}

func TestInternDistinguishesByContent(t *testing.T) {
	pool, err := constpool.NewPool()
	require.NoError(t, err, "NewPool() error")
	a, err := pool.Intern(value.Int(42))
	require.NoError(t, err, "Intern() error")
	b, err := pool.Intern(value.Str("42"))
	require.NoError(t, err, "Intern() error")
	if a == b {
		t.Errorf("expected Int(42) and Str(\"42\") to get distinct refs")
	}
}

func TestInternReusesSentinel(t *testing.T) {
	pool, err := constpool.NewPool()
	require.NoError(t, err, "NewPool() error")
	ref, err := pool.Intern(value.Unit())
	require.NoError(t, err, "Intern() error")
	if ref != constpool.RefUnit {
		t.Errorf("expected re-interning unit to reuse the sentinel ref, got %d want %d", ref, constpool.RefUnit)
	}
	if got, want := pool.Len(), 6; got != want {
		t.Errorf("Len() = %d, want %d (no growth from re-interning a sentinel)", got, want)
	}
}
