package signaltree

// Selector is a pluggable policy choosing a non-zero child counter at one
// level of the tree, given a hint that biases the choice. word packs count
// consecutive width-bit counters starting at bit 0; count is always a
// power of two. Select must return ok=false iff every counter in word is
// zero; otherwise it returns the chosen counter's index and the hint bits
// it actually consumed, foldable back into a later hint to reproduce the
// same path ("hint feedback", spec.md §4.1).
type Selector interface {
	Select(word uint64, width, count uint, hint uint64) (index uint, consumed uint64, ok bool)
}

// biasedSelector is the default selector: at each binary split of the
// counter range it treats the next hint bit as "prefer right half" (1) or
// "prefer left half" (0), falling back to the other half only if the
// preferred one is entirely zero. Threads using distinct hints tend to
// land in disjoint subtrees (sticky locality) while still always finding
// a pending leaf when one exists.
type biasedSelector struct{}

// Biased is the default, contention-reducing, hint-biased Selector.
var Biased Selector = biasedSelector{}

func (biasedSelector) Select(word uint64, width, count uint, hint uint64) (index uint, consumed uint64, ok bool) {
	lo, hi := uint(0), count
	var usedBits uint
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		preferRight := hint&1 != 0
		hint >>= 1

		leftMask := maskRange(lo*width, (mid-lo)*width)
		rightMask := maskRange(mid*width, (hi-mid)*width)

		var wentRight bool
		switch {
		case preferRight && word&rightMask != 0:
			lo, wentRight = mid, true
		case !preferRight && word&leftMask == 0 && word&rightMask != 0:
			lo, wentRight = mid, true
		case word&leftMask != 0:
			hi = mid
		case word&rightMask != 0:
			lo, wentRight = mid, true
		default:
			return 0, 0, false
		}

		if wentRight {
			consumed |= 1 << usedBits
		}
		usedBits++
	}
	if word&counterMask(width, lo) == 0 {
		return 0, 0, false
	}
	return lo, consumed, true
}

// largestChildSelector picks the child whose counter currently holds the
// largest value, ignoring the hint entirely. Used by the availability
// tree (spec.md §4.1, §4.4) to spread slot allocation across subtrees
// rather than clustering it via locality bias.
type largestChildSelector struct{}

// LargestChild spreads selection toward the fullest subtree; used by the
// per-segment availability tree so allocations don't cluster.
var LargestChild Selector = largestChildSelector{}

func (largestChildSelector) Select(word uint64, width, count uint, _ uint64) (index uint, consumed uint64, ok bool) {
	var best uint64
	found := false
	for i := uint(0); i < count; i++ {
		v := counterValue(word, width, i)
		if v == 0 {
			continue
		}
		if !found || v > best {
			best, index, found = v, i, true
		}
	}
	return index, 0, found
}
