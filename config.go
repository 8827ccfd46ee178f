package workcontract

// Mode selects whether a Group's ExecuteNextContract blocks when no
// contract is pending (spec.md §4.3, §9 Open Question (c); grounded on
// synchronization_mode in the original source).
type Mode int

const (
	// NonBlocking is the default: ExecuteNextContract returns immediately,
	// ok=false, when nothing is pending.
	NonBlocking Mode = iota
	// Blocking makes ExecuteNextContract wait (optionally bounded by a
	// timeout) until a contract becomes pending or the group is stopped.
	Blocking
)

// GroupConfig models optional configuration, for NewGroup.
type GroupConfig struct {
	// Capacity is the total number of contract slots the group can hold,
	// across all of its segments, rounded up to the signal tree's nearest
	// supported size per segment. **Defaults to DefaultCapacity, if 0.**
	Capacity uint64

	// Segments partitions Capacity into independent shared-state
	// segments (spec.md §4.3), each with its own dispatch and availability
	// tree. More segments reduce contention between unrelated workers at
	// the cost of coarser locality. **Defaults to 1, if 0.**
	Segments int

	// Mode selects blocking or non-blocking ExecuteNextContract.
	// **Defaults to NonBlocking.**
	Mode Mode
}

// DefaultCapacity is used when GroupConfig.Capacity is zero, matching the
// original's default_capacity.
const DefaultCapacity = 512

func (c *GroupConfig) capacity() uint64 {
	if c == nil || c.Capacity == 0 {
		return DefaultCapacity
	}
	return c.Capacity
}

func (c *GroupConfig) segments() int {
	if c == nil || c.Segments <= 0 {
		return 1
	}
	return c.Segments
}

func (c *GroupConfig) mode() Mode {
	if c == nil {
		return NonBlocking
	}
	return c.Mode
}

// InitialState selects whether a newly created contract starts pending.
type InitialState int

const (
	// Unscheduled contracts are not pending until Schedule is called.
	Unscheduled InitialState = iota
	// Scheduled contracts are pending immediately upon creation.
	Scheduled
)
