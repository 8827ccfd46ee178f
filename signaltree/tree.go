package signaltree

import (
	"math/bits"
	"sync/atomic"
)

// node is one cacheline-sized packed atomic word. The padding mirrors the
// teacher's `_padding [56]byte` fields on its ring-buffer nodes: an 8-byte
// atomic word plus 56 bytes keeps each node on its own cacheline so
// false-sharing between adjacent nodes under concurrent CAS/Add doesn't
// degrade throughput.
type node struct {
	v    atomic.Uint64
	_pad [56]byte
}

// level describes one level of the trie, from leaf (level 0) upward.
// fanout is the number of children/counters addressed by one node at this
// level; width is the bit width of each counter (1 at the leaf level,
// where the "counter" is the pending bit itself); nodeCount is the number
// of nodes at this level.
type level struct {
	fanout    uint
	width     uint
	nodeCount uint64
}

// Tree is a fixed-capacity signal tree: see the package doc for semantics.
type Tree struct {
	capacity uint64
	selector Selector
	levels   []level     // levels[0] = leaf, levels[len-1] = root
	storage  [][]node    // storage[i] parallels levels[i]
}

// buildLevels derives the trie geometry for capacity, a power of two >=
// MinCapacity, entirely at construction time (the target language lacks
// the source's compile-time template arithmetic, so this is done once,
// eagerly, rather than dynamically on every access).
func buildLevels(capacity uint64) []level {
	leafNodes := capacity / 64
	levels := []level{{fanout: 64, width: 1, nodeCount: leafNodes}}

	nodeCount := leafNodes
	subtreeCap := uint64(64)
	for nodeCount > 1 {
		width := uint(bits.Len64(subtreeCap))
		fanout := pow2Floor(64 / width)
		if fanout < 2 || uint64(fanout) > nodeCount {
			// Final collapse into the root: not enough room left in a
			// 64-bit word for another power-of-two split, or fewer nodes
			// remain than a full split would consume. Address every
			// remaining node directly from one top node.
			fanout = uint(nodeCount)
		}
		levels = append(levels, level{fanout: fanout, width: width, nodeCount: nodeCount / uint64(fanout)})
		subtreeCap *= uint64(fanout)
		nodeCount /= uint64(fanout)
	}
	return levels
}

// New constructs a Tree of the given capacity (rounded up via
// RoundCapacity) using selector to resolve ties during Select.
func New(capacity uint64, selector Selector) *Tree {
	capacity = RoundCapacity(capacity)
	if selector == nil {
		selector = Biased
	}
	levels := buildLevels(capacity)
	storage := make([][]node, len(levels))
	for i, l := range levels {
		storage[i] = make([]node, l.nodeCount)
	}
	return &Tree{
		capacity: capacity,
		selector: selector,
		levels:   levels,
		storage:  storage,
	}
}

// Capacity returns the tree's (rounded-up) leaf capacity.
func (t *Tree) Capacity() uint64 { return t.capacity }

// Empty reports whether no leaf is currently pending.
func (t *Tree) Empty() bool {
	top := len(t.levels) - 1
	return t.storage[top][0].v.Load() == 0
}

// Set marks leaf i pending. newlySet is true iff the leaf transitioned
// from clear to pending; setting an already-pending leaf is a no-op that
// reports newlySet=false and leaves every counter unchanged. wasEmpty is
// true iff this call is the one that drove the tree from empty to
// nonempty.
func (t *Tree) Set(i uint64) (wasEmpty, newlySet bool) {
	leafIdx := i >> 6
	bit := uint64(1) << (i & 63)

	old := t.storage[0][leafIdx].v.Or(bit)
	if old&bit != 0 {
		return false, false
	}
	if len(t.levels) == 1 {
		// The leaf level doubles as the root (minimum-capacity tree).
		return old == 0, true
	}

	childIdx := leafIdx
	for lvl := 1; lvl < len(t.levels); lvl++ {
		l := t.levels[lvl]
		parentIdx := childIdx / uint64(l.fanout)
		counterIdx := uint(childIdx % uint64(l.fanout))
		delta := uint64(1) << (counterIdx * l.width)

		newWord := t.storage[lvl][parentIdx].v.Add(delta)
		if lvl == len(t.levels)-1 {
			wasEmpty = newWord-delta == 0
		}
		childIdx = parentIdx
	}
	return wasEmpty, true
}

// Select atomically picks one pending leaf, biased by hint, and clears it.
// ok is false iff no leaf is pending. becameEmpty is true iff this call
// drove the tree from nonempty to empty.
func (t *Tree) Select(hint uint64) (index uint64, becameEmpty bool, ok bool) {
	top := len(t.levels) - 1

selectLoop:
	for {
		curHint := hint
		var nodeIdx uint64
		for lvl := top; lvl >= 1; lvl-- {
			l := t.levels[lvl]
			for {
				word := t.storage[lvl][nodeIdx].v.Load()
				chosen, consumed, found := t.selector.Select(word, l.width, uint(l.fanout), curHint)
				if !found {
					if lvl == top {
						return 0, false, false
					}
					// Raced with another selector that drained this subtree
					// since our parent observed it nonzero; restart from
					// the root entirely.
					continue selectLoop
				}
				delta := uint64(1) << (chosen * l.width)
				newWord := word - delta
				if !t.storage[lvl][nodeIdx].v.CompareAndSwap(word, newWord) {
					continue
				}
				if lvl == top {
					becameEmpty = newWord == 0
				}
				curHint = shiftHint(curHint, consumed, l.fanout)
				nodeIdx = nodeIdx*uint64(l.fanout) + uint64(chosen)
				break
			}
		}

		leaf := t.levels[0]
		for {
			word := t.storage[0][nodeIdx].v.Load()
			chosen, _, found := t.selector.Select(word, leaf.width, uint(leaf.fanout), curHint)
			if !found {
				if top == 0 {
					// The leaf level doubles as the root: there is no
					// ancestor level to have already reported this, so the
					// not-found check that ends selectLoop for a multi-level
					// tree has to happen here instead.
					return 0, false, false
				}
				continue selectLoop
			}
			bit := uint64(1) << chosen
			old := t.storage[0][nodeIdx].v.And(^bit)
			if old&bit == 0 {
				continue
			}
			if top == 0 {
				// The leaf level doubles as the root (minimum-capacity tree).
				becameEmpty = old&^bit == 0
			}
			return nodeIdx*64 + uint64(chosen), becameEmpty, true
		}
	}
}

// shiftHint drops the hint bits a Select call at a fanout-wide level
// consumed, so the next level down reads fresh bits rather than replaying
// the same ones.
func shiftHint(hint, consumed uint64, fanout uint) uint64 {
	bitsPerLevel := uint(bits.Len64(uint64(fanout) - 1))
	if bitsPerLevel == 0 {
		return hint
	}
	return hint>>bitsPerLevel | consumed<<(64-bitsPerLevel)
}
