package workcontract

import "sync/atomic"

// SlotID identifies a contract's slot within its owning Group.
type SlotID uint64

// Token is passed to a contract's work function while it runs, giving it
// access to the same reschedule/release operations available via package
// thiscontract, without relying on goroutine-local lookup.
type Token interface {
	// Schedule marks this contract pending again. Safe to call multiple
	// times; redundant calls while already pending or executing are
	// coalesced (spec.md §5).
	Schedule() bool
	// Release marks this contract for retirement once the current
	// invocation returns. Idempotent.
	Release() bool
	// ID returns the contract's slot id.
	ID() SlotID
}

// WorkFunc is a contract's body.
type WorkFunc func(Token)

// ReleaseFunc runs once, after a contract's last invocation, when the
// contract is retired.
type ReleaseFunc func()

// ExceptionFunc handles a panic recovered from a WorkFunc or ReleaseFunc
// invocation. If nil, the panic propagates to the caller of
// Group.ExecuteNextContract instead.
type ExceptionFunc func(error)

// FromNullary adapts a plain func() into a WorkFunc that ignores its Token,
// for callers who don't need to reschedule or release from within the body.
func FromNullary(fn func()) WorkFunc {
	return func(Token) { fn() }
}

// handleCore is the state behind one Handle. The original's work_contract
// held a std::shared_ptr<release_token> so the group could detect whether
// the owner-side handle had already been released or dropped; here a
// single atomic "released" flag, checked alongside the slot's generation,
// serves the same purpose without per-handle reference counting.
type handleCore struct {
	group      *Group
	slot       SlotID
	generation uint32
	released   atomic.Bool
}

// noCopy lets go vet's copylocks analysis flag accidental copies of a
// Handle, the same trick sync.WaitGroup uses for its own non-copyable
// value types. It has no behavior of its own.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle is a move-only, external reference to one contract (spec.md's
// "a Handle is move-only; copying it is a programming error"): always used
// through a *Handle, never copied by value, mirroring the original's
// non-copyable ownership of a release token. Pass it by pointer, or store
// it; do not dereference and assign it into a new variable.
type Handle struct {
	noCopy noCopy
	core   *handleCore
}

// IsValid reports whether the handle still refers to a live, unretired
// contract. Purely diagnostic: a true result can go stale the instant
// another goroutine releases the same contract, so callers that need to
// act on the result should call Schedule or Release directly and check its
// return instead of gating on IsValid first.
func (h *Handle) IsValid() bool {
	if h == nil || h.core == nil || h.core.released.Load() {
		return false
	}
	return h.core.group.segmentFor(h.core.slot).flags(h.core.slot).Generation() == h.core.generation
}

// Schedule marks the referenced contract pending. Returns ErrInvalidHandle
// if the handle has already been released, or the slot has since been
// retired and reused; the generation check and the schedule happen as a
// single atomic operation, so a concurrent retire-and-reuse of this slot
// can never be raced into scheduling an unrelated contract.
func (h *Handle) Schedule() error {
	if h == nil || h.core == nil || h.core.released.Load() {
		return ErrInvalidHandle
	}
	seg := h.core.group.segmentFor(h.core.slot)
	if !seg.scheduleSlotIfGeneration(h.core.slot, h.core.generation) {
		return ErrInvalidHandle
	}
	return nil
}

// Release marks the contract for retirement. Returns true iff this call is
// the one that performed the release; a later call on an already-released
// handle is a no-op returning false. Like Schedule, the generation check
// and the release happen as a single atomic operation.
func (h *Handle) Release() bool {
	if h == nil || h.core == nil {
		return false
	}
	if !h.core.released.CompareAndSwap(false, true) {
		return false
	}
	seg := h.core.group.segmentFor(h.core.slot)
	return seg.releaseSlotIfGeneration(h.core.slot, h.core.generation)
}

// ID returns the slot this handle refers to.
func (h *Handle) ID() SlotID {
	if h == nil || h.core == nil {
		return 0
	}
	return h.core.slot
}
