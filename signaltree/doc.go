// Package signaltree implements a fixed-capacity, cacheline-padded,
// lock-free counted trie of pending "signals". Each leaf is a single
// pending bit; each internal node packs several fixed-width sub-counters
// into one 64-bit atomic word, one counter per child subtree, holding the
// number of pending leaves beneath that child.
//
// Set marks a leaf pending and propagates the +1 up every ancestor counter.
// Select picks one pending leaf (biased by a caller-supplied hint, via a
// pluggable Selector) and propagates the -1 back down to the leaf it
// claims. Empty reports whether the root counter is zero.
//
// The tree is not a queue: a leaf has identity and a single pending bit,
// not a count, and selection order is not FIFO.
package signaltree
