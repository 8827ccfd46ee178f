// Package state implements the per-slot contract state table (spec.md
// §4.2): one atomic flag word per slot, holding the SCHEDULE/EXECUTE/
// RELEASE protocol bits plus a generation counter used to detect
// use-after-retire races on a Handle (spec.md §9, Design Note "Cyclic
// ownership of the release-token is replaced by indices").
package state

import "sync/atomic"

const (
	// Schedule is set by Schedule/Release and cleared by the atomic ++ in
	// SetExecute (spec.md §4.2 rationale: SCHEDULE=0x1, EXECUTE=0x2, so a
	// flags word with low bits "01" becomes "10" in one RMW).
	Schedule uint32 = 0x1
	Execute  uint32 = 0x2
	Release  uint32 = 0x4

	protocolBits = Schedule | Execute | Release

	// generationShift places the generation counter above the 3 protocol
	// bits; 16 bits of generation (resolved Open Question (a), spec.md §9)
	// leaves 13 bits reserved/unused in the 32-bit word.
	generationShift = 4
	generationBits  = 16
	generationMask  = uint32(1)<<generationBits - 1
)

// Word is one slot's atomic flag+generation word.
type Word struct {
	v atomic.Uint32
}

// Flags returns the current SCHEDULE/EXECUTE/RELEASE bits.
func (w *Word) Flags() uint32 { return w.v.Load() & protocolBits }

// Generation returns the current generation, incremented once per
// retirement, used by Handle to detect a stale slot reference.
func (w *Word) Generation() uint32 {
	return (w.v.Load() >> generationShift) & generationMask
}

// Schedule sets the SCHEDULE bit. needsSignal is true iff the slot was
// neither scheduled nor executing beforehand, meaning the caller must also
// set the segment's signal-tree bit for this slot (spec.md §4.2).
func (w *Word) Schedule() (needsSignal bool) {
	old := w.v.Or(Schedule)
	return old&(Schedule|Execute) == 0
}

// MarkRelease sets RELEASE and SCHEDULE together. needsSignal has the same
// meaning as in Schedule.
func (w *Word) MarkRelease() (needsSignal bool) {
	old := w.v.Or(Release | Schedule)
	return old&(Schedule|Execute) == 0
}

// ScheduleIfGeneration behaves like Schedule, but only takes effect if the
// word's current generation equals expected; the generation check and the
// flag update happen as a single CAS loop on the packed flags+generation
// word, so a concurrent retire-and-reallocate of this slot (which bumps the
// generation) can never land between an external caller's check and its
// act. ok is false iff the generation had already moved on.
func (w *Word) ScheduleIfGeneration(expected uint32) (needsSignal, ok bool) {
	for {
		old := w.v.Load()
		if (old>>generationShift)&generationMask != expected {
			return false, false
		}
		n := old | Schedule
		if n == old {
			return false, true
		}
		if w.v.CompareAndSwap(old, n) {
			return old&(Schedule|Execute) == 0, true
		}
	}
}

// MarkReleaseIfGeneration is the generation-checked counterpart of
// MarkRelease, with the same atomicity guarantee as ScheduleIfGeneration.
func (w *Word) MarkReleaseIfGeneration(expected uint32) (needsSignal, ok bool) {
	for {
		old := w.v.Load()
		if (old>>generationShift)&generationMask != expected {
			return false, false
		}
		n := old | Release | Schedule
		if n == old {
			return false, true
		}
		if w.v.CompareAndSwap(old, n) {
			return old&(Schedule|Execute) == 0, true
		}
	}
}

// SetExecute atomically consumes a pending SCHEDULE and marks EXECUTE, via
// a single increment (spec.md §4.2): the caller's protocol guarantees
// SCHEDULE was set and EXECUTE clear, so adding 1 flips "01" to "10" in one
// RMW. Returns the resulting protocol bits.
func (w *Word) SetExecute() uint32 {
	return (w.v.Add(Execute - Schedule)) & protocolBits
}

// ClearExecute clears EXECUTE. rescheduled is true iff SCHEDULE was set
// again while this slot was executing, in which case the caller must
// re-set the segment's signal-tree bit so the reschedule isn't lost.
func (w *Word) ClearExecute() (rescheduled bool) {
	newFlags := w.v.Add(^uint32(Execute - 1)) // -Execute, via two's complement
	return newFlags&Schedule != 0
}

// Retire bumps the generation counter, leaving the protocol bits
// untouched, and returns the new generation. Called at the start of
// retirement, before the slot's release callback runs: bumping the
// generation first (rather than only after the callback returns) means any
// Handle.Schedule/Release call racing the callback, still holding the
// pre-retirement generation, fails its generation check immediately
// instead of momentarily succeeding and then being silently clobbered once
// the slot is actually cleared.
func (w *Word) Retire() (generation uint32) {
	for {
		old := w.v.Load()
		gen := (old >> generationShift) & generationMask
		newGen := (gen + 1) & generationMask
		n := (old &^ (generationMask << generationShift)) | (newGen << generationShift)
		if w.v.CompareAndSwap(old, n) {
			return newGen
		}
	}
}

// ClearFlags resets the protocol bits to zero, keeping the current
// generation. Called once a retired slot's release callback has returned
// and the slot is about to be handed back to the availability pool.
func (w *Word) ClearFlags() {
	for {
		old := w.v.Load()
		n := old &^ protocolBits
		if n == old || w.v.CompareAndSwap(old, n) {
			return
		}
	}
}
