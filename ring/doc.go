// Package ring implements a fixed-capacity lock-free single-producer/
// single-consumer ring buffer, used to feed a contract's work function
// from outside the scheduler (spec.md §8 scenarios 5 and 6: "data ingress"
// via an external queue that a contract's body drains).
//
// Adapted from a multi-producer/multi-consumer node-based ring design: an
// SPSC needs no per-node CAS protocol, since head is owned
// exclusively by the consumer goroutine and tail exclusively by the
// producer goroutine. Only the head/tail indices themselves need to be
// atomic, to publish writes across that single producer/consumer boundary.
package ring
