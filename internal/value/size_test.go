package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/korelang/korec/internal/value"
)

func TestParseSize(t *testing.T) {
	cases := map[string]int64{
		"0B":   0,
		"512B": 512,
		"1KB":  value.Kilobyte,
		"4MB":  4 * value.Megabyte,
		"2GB":  2 * value.Gigabyte,
		"1TB":  value.Terabyte,
	}
	for in, want := range cases {
		sz, err := value.ParseSize(in)
		require.NoError(t, err, "ParseSize(%q)", in)
		if sz.Bytes() != want {
			t.Errorf("ParseSize(%q).Bytes() = %d, want %d", in, sz.Bytes(), want)
		}
	}
}

func TestParseSizeErrors(t *testing.T) {
	bad := []string{"", "KB", "1", "-1KB", "1XB"}
	for _, s := range bad {
		if _, err := value.ParseSize(s); err == nil {
			t.Errorf("ParseSize(%q): expected error, got none", s)
		}
	}
}

func TestSizeCompare(t *testing.T) {
	small, _ := value.ParseSize("1KB")
	big, _ := value.ParseSize("1MB")
	if small.Compare(big) != -1 {
		t.Errorf("expected 1KB < 1MB")
	}
}

func TestSizeString(t *testing.T) {
	sz, _ := value.ParseSize("4MB")
	if sz.String() != "4MB" {
		t.Errorf("got %q, want 4MB", sz.String())
	}
}
