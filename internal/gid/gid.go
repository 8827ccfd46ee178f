// Package gid identifies the calling goroutine, used to key the
// worker-reentrant context's per-goroutine stack (spec.md §4.6). This is
// the only process-wide mutable state the scheduler needs (spec.md §9,
// Design Note "Global mutable state").
//
// Go has no public goroutine-id API; this uses the well-known technique of
// parsing the header line of a runtime.Stack dump, which every "goroutine
// id" helper in the ecosystem is built on. See DESIGN.md for why this is
// grounded on stdlib rather than a corpus dependency.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Get returns the current goroutine's id. It is comparatively expensive
// (a stack trace capture + parse), so callers should cache the result for
// the lifetime of a single contract-body invocation rather than call it
// repeatedly.
func Get() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// parse extracts the id from a "goroutine 123 [running]:" header line.
func parse(b []byte) int64 {
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		// Should be unreachable given runtime.Stack's documented format;
		// fall back to an id that can never collide with a real one.
		return -1
	}
	return id
}
