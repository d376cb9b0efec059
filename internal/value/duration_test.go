package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/korelang/korec/internal/value"
)

func TestParseDurationRoundTrip(t *testing.T) {
	cases := []string{
		"1s", "1m", "1h", "1d", "1w", "1y", "1ms", "1us", "1ns",
		"1h30m", "1h30m45s", "1d2h3m4s",
	}
	for _, s := range cases {
		d, err := value.ParseDuration(s)
		require.NoError(t, err, "ParseDuration(%q)", s)
		if got := d.String(); got != s {
			t.Errorf("ParseDuration(%q).String() = %q, want %q", s, got, s)
		}
	}
}

func TestParseDurationOverflowNormalization(t *testing.T) {
	cases := map[string]string{
		"60s":     "1m",
		"90s":     "1m30s",
		"90m":     "1h30m",
		"25h":     "1d1h",
		"1000ms":  "1s",
	}
	for in, want := range cases {
		d, err := value.ParseDuration(in)
		require.NoError(t, err, "ParseDuration(%q)", in)
		if got := d.String(); got != want {
			t.Errorf("ParseDuration(%q).String() = %q, want %q", in, got, want)
		}
	}
}

func TestParseDurationErrors(t *testing.T) {
	bad := []string{"", "1.5h", "-1h", "30m1h", "1h2h", "1h30"}
	for _, s := range bad {
		if _, err := value.ParseDuration(s); err == nil {
			t.Errorf("ParseDuration(%q): expected error, got none", s)
		}
	}
}

func TestDurationCompare(t *testing.T) {
	short, _ := value.ParseDuration("1s")
	long, _ := value.ParseDuration("1m")
	if short.Compare(long) != -1 {
		t.Errorf("expected 1s < 1m")
	}
	if long.Compare(short) != 1 {
		t.Errorf("expected 1m > 1s")
	}
	if short.Compare(short) != 0 {
		t.Errorf("expected 1s == 1s")
	}
}

func TestDurationUnit(t *testing.T) {
	d, _ := value.ParseDuration("1h30m")
	if d.Unit() != value.UnitHour {
		t.Errorf("expected coarsest unit Hour, got %v", d.Unit())
	}
}

func TestDurationIsZero(t *testing.T) {
	d, _ := value.ParseDuration("0s")
	if !d.IsZero() {
		t.Errorf("expected 0s to be zero")
	}
}
