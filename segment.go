package workcontract

import (
	"github.com/gsingh-ds/go-work-contract/internal/state"
	"github.com/gsingh-ds/go-work-contract/signaltree"
)

// slotCallables holds one slot's user-supplied body, release hook and
// exception handler (spec.md §4.5, grounded on work_contract_group's
// contracts_/release_/exception_ parallel vectors).
type slotCallables struct {
	work      WorkFunc
	release   ReleaseFunc
	exception ExceptionFunc
}

// segment is a shared-state segment (spec.md §4.3): one dispatch signal
// tree paired with its contract state table, plus an availability tree used
// to allocate free slots within the segment. Grounded on
// internal/shared_state_segment.h, generalized from a fixed signalTree_ +
// contractFlags_ pair into a self-contained allocation unit so a Group can
// hold several of them for locality (signal_map.h's per-tree subdivision).
type segment struct {
	group *Group
	base  SlotID

	dispatch  *signaltree.Tree
	available *signaltree.Tree

	flagsArr  []state.Word
	callables []slotCallables
}

func newSegment(group *Group, base SlotID, capacity uint64) *segment {
	s := &segment{
		group:     group,
		base:      base,
		dispatch:  signaltree.New(capacity, signaltree.Biased),
		available: signaltree.New(capacity, signaltree.LargestChild),
		flagsArr:  make([]state.Word, capacity),
		callables: make([]slotCallables, capacity),
	}
	for i := uint64(0); i < s.dispatch.Capacity(); i++ {
		s.available.Set(i)
	}
	return s
}

func (s *segment) flags(global SlotID) *state.Word {
	return &s.flagsArr[uint64(global)-uint64(s.base)]
}

// scheduleSlotIfGeneration sets SCHEDULE on global's flags for a caller
// (Handle) that only knows global's generation as of some earlier
// observation: the generation check and the flag update are one atomic
// operation, so ok is false rather than acting on a slot that was retired
// and reallocated in the meantime. If that actually made the slot newly
// pending, also sets its dispatch bit and wakes blocked workers.
func (s *segment) scheduleSlotIfGeneration(global SlotID, generation uint32) (ok bool) {
	local := uint64(global) - uint64(s.base)
	needsSignal, ok := s.flagsArr[local].ScheduleIfGeneration(generation)
	if !ok {
		return false
	}
	if needsSignal {
		s.dispatch.Set(local)
		s.group.noteSignal()
	}
	return true
}

// releaseSlotIfGeneration marks global for retirement for a caller that
// only knows its generation as of an earlier observation, with the same
// atomicity guarantee as scheduleSlotIfGeneration. Used by Handle.Release.
func (s *segment) releaseSlotIfGeneration(global SlotID, generation uint32) (ok bool) {
	local := uint64(global) - uint64(s.base)
	needsSignal, ok := s.flagsArr[local].MarkReleaseIfGeneration(generation)
	if !ok {
		return false
	}
	if needsSignal {
		s.dispatch.Set(local)
		s.group.noteSignal()
	}
	return true
}

// allocate claims a free slot from the availability tree, spread via
// largest-child selection (spec.md §4.1, §4.4) so allocation doesn't
// cluster in one corner of the segment.
func (s *segment) allocate() (local uint64, ok bool) {
	local, _, ok = s.available.Select(0)
	return local, ok
}

// free returns local to the availability tree once its generation has been
// bumped and its callables cleared.
func (s *segment) free(local uint64) {
	s.available.Set(local)
}

// trySelect pulls one pending slot out of the dispatch tree, biased by
// hint.
func (s *segment) trySelect(hint uint64) (local uint64, ok bool) {
	local, _, ok = s.dispatch.Select(hint)
	if ok {
		s.group.noteConsumed()
	}
	return local, ok
}
