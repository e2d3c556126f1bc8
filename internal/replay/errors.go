package replay

import "fmt"

// ConflictingOperationError refuses a new run while a previous replay
// is parked or a native rebase is active. The existing state is left
// untouched.
type ConflictingOperationError struct{}

func (*ConflictingOperationError) Error() string {
	return "an operation is already in progress"
}

// Guidance is the fixed continue/abort text shown to the user.
func (*ConflictingOperationError) Guidance() string {
	return "An operation is already in progress.\n" +
		"Run rangetest continue or rangetest abort to resolve it and proceed."
}

// DirtyWorktreeError refuses to materialize trees over uncommitted
// changes.
type DirtyWorktreeError struct{}

func (*DirtyWorktreeError) Error() string {
	return "the working tree has uncommitted changes"
}

// Guidance is the remediation text shown to the user.
func (*DirtyWorktreeError) Guidance() string {
	return "The working tree has uncommitted changes.\n" +
		"Commit or stash them before running tests."
}

// NoOperationError is returned by continue/abort when nothing is
// parked.
type NoOperationError struct{}

func (*NoOperationError) Error() string {
	return "no test run is in progress"
}

// SignalError reports that the test command was terminated by a signal.
// The replay stays parked and the process exits with a derived code.
type SignalError struct {
	Signal int
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("test command terminated by signal %d", e.Signal)
}

// ExitCode derives the conventional 128+signal process exit status.
func (e *SignalError) ExitCode() int {
	return 128 + e.Signal
}
