// Package invariant provides contract assertions for the korec compiler core.
//
// The core never returns an error for a bug in its own passes: a violated
// invariant, an overflowed arena, or an unbalanced refcount is a compiler
// bug, not a user error (see the error taxonomy in DESIGN.md). These
// helpers are a force multiplier for catching such bugs close to their
// source: call Precondition/Postcondition to express a pass's contract,
// Invariant for internal consistency checks, and Internal for a pass that
// has already detected it cannot produce a sound result.
//
// All functions panic on violation.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution.
//
// Example: the RC inserter's balance check (every acyclic entry-to-exit
// path must have inserted_incs + definitions == inserted_decs +
// consuming_uses) is expressed as an Invariant at the end of each pass.
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil, including a typed nil such as (*T)(nil).
func NotNil(value interface{}, name string) {
	if value == nil || isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func isNilValue(value interface{}) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// InRange panics if value is outside [min, max].
func InRange(value, minVal, maxVal int, name string) {
	if value < minVal || value > maxVal {
		fail("PRECONDITION", "%s must be in range [%d, %d], got %d", name, minVal, maxVal, value)
	}
}

// Positive panics if value <= 0. Typically a postcondition on generated ids.
func Positive(value int, name string) {
	if value <= 0 {
		fail("POSTCONDITION", "%s must be positive, got %d", name, value)
	}
}

// ExpectNoError panics if err is not nil. For operations the core
// guarantees never fail given well-formed input (e.g. re-reading a value
// this pass itself just wrote into an arena).
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", msg, err)
	}
}

// ArenaFits panics if appending count more elements would push an arena's
// length past capacity. Ranges are stored as (start uint32, len uint16),
// so a single aggregate is capped at 65535 elements; the arena itself is
// capped at 1<<32-1 nodes. Both limits are asserted here rather than
// silently wrapping.
func ArenaFits(current, count, capacity int, name string) {
	if current+count > capacity {
		fail("INTERNAL", "%s would overflow arena capacity %d (have %d, adding %d)", name, capacity, current, count)
	}
}

// Internal records a bug discovered by a pass in its own output, as
// opposed to a user error. Use this for RC-balance failures, unreachable
// switch arms, and other conditions that indicate an earlier pass emitted
// something this pass cannot make sound sense of.
func Internal(format string, args ...interface{}) {
	fail("INTERNAL", format, args...)
}

// fail panics with a formatted message including call stack context.
func fail(kind, format string, args ...interface{}) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]interface{}{kind}, args...)...)

	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}
	panic(msg)
}
