package workcontract

import "errors"

// ErrCapacityExhausted is returned by CreateContract when every segment's
// availability tree is fully allocated.
var ErrCapacityExhausted = errors.New("workcontract: capacity exhausted")

// ErrInvalidHandle is returned by Handle.Schedule when the handle no longer
// refers to a live contract: it was already released, or the slot it named
// has since been retired and reused (detected via the generation counter).
var ErrInvalidHandle = errors.New("workcontract: invalid handle")

// ErrStopped is returned by CreateContract once the group has been
// stopped: a stopped group is draining down, not accepting new work.
var ErrStopped = errors.New("workcontract: group stopped")
