package weave

// CheckResult captures any non-error check result. Check is a dry run of an
// operation and never changes the state.
type CheckResult struct {
	// Data is a machine-parseable return value.
	Data []byte
	// Log is human-readable informational string.
	Log string
	// GasAllocated is the amount of work the transaction requires.
	GasAllocated int64
}

// DeliverResult captures any non-error result of an operation that was
// executed.
type DeliverResult struct {
	// Data is a machine-parseable return value, like the id of a newly
	// created entity.
	Data []byte
	// Log is human-readable informational string.
	Log string
	// Events describe, in order, every state change done by the
	// operation. They are published only when the operation succeeded.
	Events []Event
}

// Event is an observation of a state change, consumed by an external
// monitoring.
type Event interface {
	// EventName returns a unique name of the event kind, for example
	// "TradeCreated".
	EventName() string
}
