package workcontract

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gsingh-ds/go-work-contract/internal/state"
	"github.com/gsingh-ds/go-work-contract/signaltree"
	"github.com/gsingh-ds/go-work-contract/thiscontract"
)

// Group owns a fixed pool of contract slots, partitioned into segments
// (spec.md §4.3, §4.4), and is the entry point for creating contracts and
// pulling ready ones onto a worker. Grounded on work_contract_group.h/.cpp.
type Group struct {
	segments []*segment
	segCap   uint64
	mode     Mode

	stopped atomic.Bool

	// blockingMu/blockingCond/pendingSignals implement the same
	// counting-semaphore wake mechanism as waitable_state.h's
	// nonZeroCounter_: incremented once per slot transitioning to pending,
	// decremented once per successful dispatch, so a blocked worker wakes
	// whenever there is reason to look again.
	blockingMu     sync.Mutex
	blockingCond   *sync.Cond
	pendingSignals int64

	nextSegment atomic.Uint64
}

// NewGroup constructs a Group per cfg (which may be nil, taking every
// default).
func NewGroup(cfg *GroupConfig) (*Group, error) {
	numSeg := cfg.segments()
	total := cfg.capacity()
	perSeg := (total + uint64(numSeg) - 1) / uint64(numSeg)
	if perSeg > signaltree.MaxCapacity {
		return nil, fmt.Errorf("workcontract: capacity %d across %d segments exceeds per-segment maximum %d", total, numSeg, signaltree.MaxCapacity)
	}
	segCap := signaltree.RoundCapacity(perSeg)

	g := &Group{
		segments: make([]*segment, numSeg),
		segCap:   segCap,
		mode:     cfg.mode(),
	}
	g.blockingCond = sync.NewCond(&g.blockingMu)
	for i := 0; i < numSeg; i++ {
		g.segments[i] = newSegment(g, SlotID(uint64(i)*segCap), segCap)
	}
	return g, nil
}

// Capacity returns the total number of contract slots across every
// segment.
func (g *Group) Capacity() uint64 { return g.segCap * uint64(len(g.segments)) }

func (g *Group) segmentFor(global SlotID) *segment {
	return g.segments[uint64(global)/g.segCap]
}

// CreateContract allocates a slot and installs work as its body, applying
// any options. Returns ErrCapacityExhausted if every segment is full, or
// ErrStopped if the group has already been stopped.
func (g *Group) CreateContract(work WorkFunc, opts ...ContractOption) (*Handle, error) {
	if g.stopped.Load() {
		return nil, ErrStopped
	}

	var o contractOptions
	for _, opt := range opts {
		opt(&o)
	}

	numSeg := uint64(len(g.segments))
	start := g.nextSegment.Add(1) % numSeg
	for i := uint64(0); i < numSeg; i++ {
		seg := g.segments[(start+i)%numSeg]
		local, ok := seg.allocate()
		if !ok {
			continue
		}

		global := seg.base + SlotID(local)
		seg.callables[local] = slotCallables{work: work, release: o.release, exception: o.exception}

		core := &handleCore{
			group:      g,
			slot:       global,
			generation: seg.flagsArr[local].Generation(),
		}
		h := &Handle{core: core}
		if o.initial == Scheduled {
			h.Schedule()
		}
		return h, nil
	}
	return nil, ErrCapacityExhausted
}

// ExecuteNextContract dispatches and runs one pending contract, biased by
// hint (spec.md §4.4, §5). ok is false iff no contract was pending in any
// segment.
func (g *Group) ExecuteNextContract(hint uint64) (SlotID, bool) {
	numSeg := uint64(len(g.segments))
	start := hint % numSeg
	for i := uint64(0); i < numSeg; i++ {
		seg := g.segments[(start+i)%numSeg]
		if local, ok := seg.trySelect(hint); ok {
			g.process(seg, local)
			return seg.base + SlotID(local), true
		}
	}
	return 0, false
}

// ExecuteNextContractTimeout behaves like ExecuteNextContract, but when the
// Group is in Blocking mode and nothing is immediately pending, it waits up
// to timeout (or indefinitely, if timeout <= 0) for a contract to become
// pending or the group to be stopped. In NonBlocking mode it is equivalent
// to ExecuteNextContract and timeout is ignored.
func (g *Group) ExecuteNextContractTimeout(hint uint64, timeout time.Duration) (SlotID, bool) {
	if g.mode != Blocking {
		return g.ExecuteNextContract(hint)
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if slot, ok := g.ExecuteNextContract(hint); ok {
			return slot, true
		}
		if g.stopped.Load() {
			return 0, false
		}

		g.blockingMu.Lock()
		if g.pendingSignals != 0 || g.stopped.Load() {
			g.blockingMu.Unlock()
			continue
		}
		if deadline.IsZero() {
			g.blockingCond.Wait()
			g.blockingMu.Unlock()
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			g.blockingMu.Unlock()
			return 0, false
		}
		timer := time.AfterFunc(remaining, func() {
			g.blockingMu.Lock()
			g.blockingCond.Broadcast()
			g.blockingMu.Unlock()
		})
		g.blockingCond.Wait()
		g.blockingMu.Unlock()
		timer.Stop()
	}
}

// Stop marks the group stopped, waking any worker blocked in
// ExecuteNextContractTimeout. Idempotent. Contracts already pending are not
// discarded; workers that keep calling ExecuteNextContract (non-blocking)
// can still drain them, but blocked waiters give up once stopped.
func (g *Group) Stop() {
	if !g.stopped.CompareAndSwap(false, true) {
		return
	}
	if g.mode == Blocking {
		g.blockingMu.Lock()
		g.blockingCond.Broadcast()
		g.blockingMu.Unlock()
	}
}

// Stopped reports whether Stop has been called. Workers that drive their
// own ExecuteNextContract/ExecuteNextContractTimeout loop (spec.md's
// documented polling pattern) should check this instead of hand-rolling a
// separate stop channel around the Group.
func (g *Group) Stopped() bool { return g.stopped.Load() }

func (g *Group) noteSignal() {
	if g.mode != Blocking {
		return
	}
	g.blockingMu.Lock()
	if g.pendingSignals == 0 {
		g.blockingCond.Broadcast()
	}
	g.pendingSignals++
	g.blockingMu.Unlock()
}

func (g *Group) noteConsumed() {
	if g.mode != Blocking {
		return
	}
	g.blockingMu.Lock()
	g.pendingSignals--
	g.blockingMu.Unlock()
}

// process runs the state-machine transition for one dispatched slot:
// either an ordinary invocation of its work function, or, if it was marked
// for release, retirement (spec.md §4.5, §6).
func (g *Group) process(seg *segment, local uint64) {
	global := seg.base + SlotID(local)
	flags := seg.flagsArr[local].SetExecute()
	if flags&state.Release != 0 {
		g.processRelease(seg, local)
		return
	}
	g.processContract(seg, local, global)
}

func (g *Group) processContract(seg *segment, local uint64, global SlotID) {
	cb := &seg.callables[local]
	tok := &contractToken{seg: seg, local: local, global: global}

	pop := thiscontract.Push(&thiscontract.Frame{
		SlotID:   uint64(global),
		Schedule: tok.Schedule,
		Release:  tok.Release,
	})
	defer func() {
		pop()
		if seg.flagsArr[local].ClearExecute() {
			seg.dispatch.Set(local)
			g.noteSignal()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			if cb.exception != nil {
				cb.exception(panicToError(r))
				return
			}
			panic(r)
		}
	}()
	cb.work(tok)
}

func (g *Group) processRelease(seg *segment, local uint64) {
	cb := &seg.callables[local]
	// Bump the generation before running the release callback, not after:
	// any Handle.Schedule/Release racing the callback with the
	// pre-retirement generation must see it as stale immediately, rather
	// than briefly succeed and then have its effect silently erased once
	// the slot's flags are cleared below.
	seg.flagsArr[local].Retire()
	defer func() {
		seg.callables[local] = slotCallables{}
		seg.flagsArr[local].ClearFlags()
		seg.free(local)
	}()
	defer func() {
		if r := recover(); r != nil {
			if cb.exception != nil {
				cb.exception(panicToError(r))
				return
			}
			panic(r)
		}
	}()
	if cb.release != nil {
		cb.release()
	}
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("workcontract: panic: %v", r)
}

// contractToken is the Token handed to a running contract's work function.
type contractToken struct {
	seg    *segment
	local  uint64
	global SlotID
}

func (t *contractToken) Schedule() bool {
	if t.seg.flagsArr[t.local].Schedule() {
		t.seg.dispatch.Set(t.local)
		t.seg.group.noteSignal()
	}
	return true
}

func (t *contractToken) Release() bool {
	if t.seg.flagsArr[t.local].MarkRelease() {
		t.seg.dispatch.Set(t.local)
		t.seg.group.noteSignal()
	}
	return true
}

func (t *contractToken) ID() SlotID { return t.global }
