package workcontract

// contractOptions collects the optional pieces of a CreateContract call.
type contractOptions struct {
	release   ReleaseFunc
	exception ExceptionFunc
	initial   InitialState
}

// ContractOption configures a contract at creation time.
type ContractOption func(*contractOptions)

// WithRelease attaches a function run once, after the contract's last
// invocation, when it is retired (spec.md §4.5; the original's second
// create_contract overload taking a std::invocable auto&&).
func WithRelease(fn ReleaseFunc) ContractOption {
	return func(o *contractOptions) { o.release = fn }
}

// WithException attaches a handler for panics recovered from the work or
// release function. Without one, such a panic propagates out of
// Group.ExecuteNextContract instead (the original's third create_contract
// overload, taking an exception_ptr handler).
func WithException(fn ExceptionFunc) ContractOption {
	return func(o *contractOptions) { o.exception = fn }
}

// WithInitialState makes a newly created contract pending immediately,
// instead of waiting for the first explicit Schedule.
func WithInitialState(s InitialState) ContractOption {
	return func(o *contractOptions) { o.initial = s }
}
