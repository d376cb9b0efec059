package value

import "fmt"

// Duration and size literals are folded constants carrying a magnitude
// plus a unit enum (see the constant pool's closed value-kind set). Both
// normalize to a canonical integer so that compare/equals/hash can treat
// them exactly like signed integers (§4.3.1); Unit is retained purely for
// re-rendering the literal in diagnostics and decompiled IR.
//
// Duration grammar: component+, component = number unit, units in
// descending order y/w/d/h/m/s/ms/us/ns, each appearing at most once.
// Examples: "1h30m", "90s" normalizes to "1m30s".

// DurationUnit identifies the coarsest unit present in a duration literal.
type DurationUnit int

const (
	UnitNanosecond DurationUnit = iota
	UnitMicrosecond
	UnitMillisecond
	UnitSecond
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitYear
)

// Duration is a folded duration constant: a value in nanoseconds plus the
// coarsest unit used in its source spelling.
type Duration struct {
	nanos int64
	unit  DurationUnit
}

// Unit multipliers in nanoseconds.
const (
	Nanosecond  int64 = 1
	Microsecond int64 = 1000 * Nanosecond
	Millisecond int64 = 1000 * Microsecond
	Second      int64 = 1000 * Millisecond
	Minute      int64 = 60 * Second
	Hour        int64 = 60 * Minute
	Day         int64 = 24 * Hour
	Week        int64 = 7 * Day
	Year        int64 = 365 * Day
)

// MaxDuration is the maximum representable duration (2^63-1 nanoseconds).
const MaxDuration = int64(^uint64(0) >> 1)

var unitOrder = []struct {
	name       string
	multiplier int64
	unit       DurationUnit
}{
	{"y", Year, UnitYear},
	{"w", Week, UnitWeek},
	{"d", Day, UnitDay},
	{"h", Hour, UnitHour},
	{"m", Minute, UnitMinute},
	{"s", Second, UnitSecond},
	{"ms", Millisecond, UnitMillisecond},
	{"us", Microsecond, UnitMicrosecond},
	{"ns", Nanosecond, UnitNanosecond},
}

// ParseDuration parses a duration literal's source spelling.
func ParseDuration(s string) (Duration, error) {
	if s == "" {
		return Duration{}, fmt.Errorf("duration cannot be empty")
	}
	nanos, unit, err := parseDurationToNanos(s)
	if err != nil {
		return Duration{}, err
	}
	return Duration{nanos: nanos, unit: unit}, nil
}

// String returns the canonical string representation.
func (d Duration) String() string {
	return formatDuration(d.nanos)
}

// Nanoseconds returns the total duration in nanoseconds — this is the
// "value" half of the value+unit-enum literal representation, and the
// operand the built-in method lowerer compares/hashes as a plain int64.
func (d Duration) Nanoseconds() int64 {
	return d.nanos
}

// Unit returns the coarsest unit present in the source spelling.
func (d Duration) Unit() DurationUnit {
	return d.unit
}

func (d Duration) IsZero() bool {
	return d.nanos == 0
}

// Compare returns -1, 0, or 1, matching the built-in signed-integer
// ordering rule (two icmp + select producing the ordering tag).
func (d Duration) Compare(other Duration) int {
	switch {
	case d.nanos < other.nanos:
		return -1
	case d.nanos > other.nanos:
		return 1
	default:
		return 0
	}
}

func parseDurationToNanos(s string) (int64, DurationUnit, error) {
	var total int64
	var num int64
	var hasDigit bool
	lastUnitIndex := -1
	coarsest := UnitNanosecond
	sawUnit := false

	i := 0
	for i < len(s) {
		ch := s[i]
		if ch >= '0' && ch <= '9' {
			digit := int64(ch - '0')
			if num > MaxDuration/10 {
				return 0, 0, fmt.Errorf("invalid duration %q: number too large (overflow)", s)
			}
			num *= 10
			if num > MaxDuration-digit {
				return 0, 0, fmt.Errorf("invalid duration %q: number too large (overflow)", s)
			}
			num += digit
			hasDigit = true
			i++
			continue
		}

		if !hasDigit {
			return 0, 0, fmt.Errorf("invalid duration %q: missing number before unit at position %d", s, i)
		}

		matchedUnitIdx, matchedUnitLen := -1, 0
		for unitIdx, unit := range unitOrder {
			if i+len(unit.name) <= len(s) && s[i:i+len(unit.name)] == unit.name && len(unit.name) > matchedUnitLen {
				matchedUnitIdx, matchedUnitLen = unitIdx, len(unit.name)
			}
		}
		if matchedUnitIdx < 0 {
			return 0, 0, fmt.Errorf("invalid duration %q: unknown unit at position %d", s, i)
		}

		unit := unitOrder[matchedUnitIdx]
		if matchedUnitIdx <= lastUnitIndex {
			return 0, 0, fmt.Errorf("invalid duration %q: units must be in descending order (found %s after larger unit)", s, unit.name)
		}
		lastUnitIndex = matchedUnitIdx
		if !sawUnit {
			coarsest, sawUnit = unit.unit, true
		}

		if num > MaxDuration/unit.multiplier {
			return 0, 0, fmt.Errorf("invalid duration %q: overflow (duration too large)", s)
		}
		product := num * unit.multiplier
		if total > MaxDuration-product {
			return 0, 0, fmt.Errorf("invalid duration %q: overflow (duration too large)", s)
		}
		total += product
		num, hasDigit = 0, false
		i += matchedUnitLen
	}

	if hasDigit {
		return 0, 0, fmt.Errorf("invalid duration %q: missing unit after number", s)
	}
	return total, coarsest, nil
}

func formatDuration(nanos int64) string {
	if nanos == 0 {
		return "0s"
	}
	var result string
	remaining := nanos
	for _, unit := range unitOrder {
		if remaining >= unit.multiplier {
			count := remaining / unit.multiplier
			remaining %= unit.multiplier
			result += fmt.Sprintf("%d%s", count, unit.name)
		}
	}
	return result
}
