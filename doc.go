// Package workcontract implements a low-latency, lock-free work-contract
// scheduler: a persistent, reusable unit of deferred work (a "contract")
// that can be scheduled repeatedly, reschedule itself from inside its own
// body, and is eventually released either externally or by its own body.
//
// Worker goroutines pull ready contracts via a signal tree
// (github.com/gsingh-ds/go-work-contract/signaltree), a counted-trie that
// supports contention-resistant multi-producer/multi-consumer selection
// with biased, sticky locality. A Group owns a fixed-capacity array of
// contract slots, partitioned into segments for that locality; a Handle
// ties an external owner to one slot; package thiscontract lets a running
// contract body reschedule or release itself.
//
// The scheduler does not preserve fairness across contracts, is not a
// general MPMC queue (a contract has identity and a single pending bit,
// not a count), and does not guarantee FIFO ordering of work.
package workcontract
