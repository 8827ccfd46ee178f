package signaltree

import (
	"math/rand/v2"
	"sync"
	"testing"
)

func TestSetSelectRoundTrip(t *testing.T) {
	tr := New(64, Biased)
	wasEmpty, newlySet := tr.Set(5)
	if !wasEmpty || !newlySet {
		t.Fatalf("first set: wasEmpty=%v newlySet=%v, want true,true", wasEmpty, newlySet)
	}

	idx, becameEmpty, ok := tr.Select(0)
	if !ok || idx != 5 || !becameEmpty {
		t.Fatalf("select: idx=%d ok=%v becameEmpty=%v, want 5,true,true", idx, ok, becameEmpty)
	}

	if !tr.Empty() {
		t.Fatalf("expected tree empty after draining only leaf")
	}

	if _, _, ok := tr.Select(0); ok {
		t.Fatalf("select on empty tree should fail")
	}
}

func TestSetIdempotent(t *testing.T) {
	tr := New(64, Biased)
	tr.Set(3)
	wasEmpty, newlySet := tr.Set(3)
	if wasEmpty || newlySet {
		t.Fatalf("second set on pending leaf: wasEmpty=%v newlySet=%v, want false,false", wasEmpty, newlySet)
	}
	idx, _, ok := tr.Select(0)
	if !ok || idx != 3 {
		t.Fatalf("expected exactly one leaf to select, got idx=%d ok=%v", idx, ok)
	}
	if _, _, ok := tr.Select(0); ok {
		t.Fatalf("idempotent set must not have perturbed future selects")
	}
}

func TestWasEmptyOnlyOnFirstSet(t *testing.T) {
	tr := New(2048, Biased)
	wasEmpty, _ := tr.Set(10)
	if !wasEmpty {
		t.Fatalf("first set on empty tree must report wasEmpty=true")
	}
	wasEmpty, _ = tr.Set(20)
	if wasEmpty {
		t.Fatalf("set on already-nonempty tree must report wasEmpty=false")
	}
}

func TestBecameEmptyOnlyOnLastSelect(t *testing.T) {
	tr := New(2048, Biased)
	tr.Set(1)
	tr.Set(2)

	_, becameEmpty, ok := tr.Select(0)
	if !ok || becameEmpty {
		t.Fatalf("first select of two pending must not report becameEmpty")
	}
	_, becameEmpty, ok = tr.Select(0)
	if !ok || !becameEmpty {
		t.Fatalf("second (last) select must report becameEmpty=true")
	}
}

func TestRoundTripAcrossCapacities(t *testing.T) {
	for _, capacity := range []uint64{64, 512, 2048, 8192, 32768, 131072} {
		capacity := capacity
		t.Run("", func(t *testing.T) {
			tr := New(capacity, Biased)
			n := tr.Capacity()

			set := make(map[uint64]bool, n)
			for i := uint64(0); i < n; i += 7 {
				set[i] = true
				tr.Set(i)
			}

			got := make(map[uint64]bool, len(set))
			for {
				idx, _, ok := tr.Select(rand.Uint64())
				if !ok {
					break
				}
				if got[idx] {
					t.Fatalf("capacity %d: leaf %d selected twice", capacity, idx)
				}
				got[idx] = true
			}

			if len(got) != len(set) {
				t.Fatalf("capacity %d: selected %d leaves, want %d", capacity, len(got), len(set))
			}
			for idx := range set {
				if !got[idx] {
					t.Fatalf("capacity %d: leaf %d was set but never selected", capacity, idx)
				}
			}
			if !tr.Empty() {
				t.Fatalf("capacity %d: tree should be empty after draining every set leaf", capacity)
			}
		})
	}
}

func TestConcurrentSetSelectNoDuplicateNoLoss(t *testing.T) {
	const capacity = 8192
	const numSetters = 8
	const perSetter = 512

	tr := New(capacity, Biased)

	var wg sync.WaitGroup
	indices := make(chan uint64, numSetters*perSetter)
	for s := 0; s < numSetters; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			for i := 0; i < perSetter; i++ {
				idx := uint64(s*perSetter + i)
				tr.Set(idx)
				indices <- idx
			}
		}(s)
	}
	wg.Wait()
	close(indices)

	want := make(map[uint64]bool, numSetters*perSetter)
	for idx := range indices {
		want[idx] = true
	}

	var mu sync.Mutex
	got := make(map[uint64]int, len(want))
	var workers sync.WaitGroup
	for w := 0; w < 4; w++ {
		workers.Add(1)
		go func(hint uint64) {
			defer workers.Done()
			for {
				idx, _, ok := tr.Select(hint)
				if !ok {
					return
				}
				mu.Lock()
				got[idx]++
				mu.Unlock()
				hint = hint*2 + 1
			}
		}(uint64(w))
	}
	workers.Wait()

	if !tr.Empty() {
		t.Fatalf("tree not empty after all workers drained it")
	}
	for idx := range want {
		if got[idx] != 1 {
			t.Fatalf("leaf %d selected %d times, want exactly 1", idx, got[idx])
		}
	}
	if len(got) != len(want) {
		t.Fatalf("selected %d distinct leaves, want %d", len(got), len(want))
	}
}

func TestLargestChildSelectorSpreadsAllocation(t *testing.T) {
	tr := New(2048, LargestChild)
	for i := uint64(0); i < 40; i++ {
		tr.Set(i)
	}
	seen := map[uint64]bool{}
	for i := 0; i < 40; i++ {
		idx, _, ok := tr.Select(0)
		if !ok {
			t.Fatalf("expected a pending leaf at iteration %d", i)
		}
		if seen[idx] {
			t.Fatalf("largest-child selector selected %d twice", idx)
		}
		seen[idx] = true
	}

	// One pending leaf under the root's first child, three under its second:
	// the selector must descend into the fuller second subtree.
	tr.Set(0)
	for i := uint64(512); i < 515; i++ {
		tr.Set(i)
	}
	if idx, _, ok := tr.Select(0); !ok || idx < 512 {
		t.Fatalf("largest-child selector picked %d (ok=%v), want a leaf under the fuller subtree (>= 512)", idx, ok)
	}
}

func TestRoundCapacity(t *testing.T) {
	cases := []struct {
		n    uint64
		want uint64
	}{
		{0, 64},
		{1, 64},
		{64, 64},
		{65, 128},
		{500, 512},
		{512, 512},
		{513, 1024},
	}
	for _, c := range cases {
		if got := RoundCapacity(c.n); got != c.want {
			t.Errorf("RoundCapacity(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
