// Package thiscontract implements the "this_contract" free functions
// (spec.md §4.6, §6): callable only from inside a running contract body,
// letting it reschedule or release itself without threading its Handle
// through closures.
//
// A goroutine-local stack (keyed by goroutine id, see internal/gid) is
// pushed on entry to a contract body and popped on exit. Nesting — a
// contract body driving another contract to completion via direct
// execution — is supported: pushing a new frame hides, but does not
// disturb, the parent's.
package thiscontract

import (
	"sync"

	"github.com/gsingh-ds/go-work-contract/internal/gid"
)

// SlotID identifies a contract slot within its group, for ID's return
// value; it is intentionally opaque here (package workcontract defines the
// canonical type and converts to/from it).
type SlotID = uint64

// Frame is the per-invocation context pushed around a contract body.
type Frame struct {
	SlotID    SlotID
	Schedule  func() bool
	Release   func() bool
}

var (
	mu    sync.Mutex
	stack = map[int64][]*Frame{}
)

// Push installs f as the current goroutine's active contract context,
// returning a function that pops it. Callers must defer the returned
// function so nested/parent frames are restored even if the body panics.
func Push(f *Frame) (pop func()) {
	id := gid.Get()
	mu.Lock()
	stack[id] = append(stack[id], f)
	mu.Unlock()
	return func() {
		mu.Lock()
		s := stack[id]
		s = s[:len(s)-1]
		if len(s) == 0 {
			delete(stack, id)
		} else {
			stack[id] = s
		}
		mu.Unlock()
	}
}

func current() *Frame {
	id := gid.Get()
	mu.Lock()
	defer mu.Unlock()
	s := stack[id]
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// Schedule reschedules the currently-executing contract. It is a no-op
// returning false if called outside a contract body.
func Schedule() bool {
	f := current()
	if f == nil {
		return false
	}
	return f.Schedule()
}

// Release releases the currently-executing contract. It is a no-op
// returning false if called outside a contract body.
func Release() bool {
	f := current()
	if f == nil {
		return false
	}
	return f.Release()
}

// ID returns the currently-executing contract's slot id, and whether a
// contract body is actually executing on the calling goroutine.
func ID() (SlotID, bool) {
	f := current()
	if f == nil {
		return 0, false
	}
	return f.SlotID, true
}
