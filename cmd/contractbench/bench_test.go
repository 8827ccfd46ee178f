package main

import (
	"testing"
	"time"

	checker "gopkg.in/check.v1"
)

func Test(t *testing.T) { checker.TestingT(t) }

type BenchSuite struct{}

var _ = checker.Suite(&BenchSuite{})

// TestThroughputIsPositive is a loose regression guard, not a performance
// assertion: it catches a dispatch loop that silently stops making
// progress (e.g. a deadlock introduced in Group.ExecuteNextContract)
// rather than tracking a throughput budget.
func (s *BenchSuite) TestThroughputIsPositive(c *checker.C) {
	got := runTrial(2, 50*time.Millisecond)
	c.Assert(got, checker.Not(checker.Equals), float64(0))
}

func (s *BenchSuite) TestChannelBaselineThroughputIsPositive(c *checker.C) {
	got := runChannelBaseline(2, 50*time.Millisecond)
	c.Assert(got, checker.Not(checker.Equals), float64(0))
}
