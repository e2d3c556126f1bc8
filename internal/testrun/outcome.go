package testrun

import (
	"github.com/masmgr/rangetest/internal/cache"
	"github.com/masmgr/rangetest/internal/revset"
)

// OutcomeKind classifies the result of testing one commit.
type OutcomeKind int

const (
	Passed OutcomeKind = iota
	PassedCached
	Failed
	FailedCached
	SignalTerminated
	Skipped
)

// String returns a string representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case Passed:
		return "passed"
	case PassedCached:
		return "passed (cached)"
	case Failed:
		return "failed"
	case FailedCached:
		return "failed (cached)"
	case SignalTerminated:
		return "terminated by signal"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Cached reports whether the outcome was served from the cache.
func (k OutcomeKind) Cached() bool {
	return k == PassedCached || k == FailedCached
}

// Outcome is the result of testing one commit.
type Outcome struct {
	Kind     OutcomeKind
	ExitCode int
	Signal   int

	// Entry references the capture blobs; nil for Skipped and
	// SignalTerminated outcomes.
	Entry *cache.Entry
}

// Passed reports whether the commit's test command exited zero.
func (o Outcome) Passed() bool {
	return o.Kind == Passed || o.Kind == PassedCached
}

// Failed reports whether the commit's test command exited nonzero.
func (o Outcome) Failed() bool {
	return o.Kind == Failed || o.Kind == FailedCached
}

// CommitResult pairs a commit with its outcome, in replay order.
type CommitResult struct {
	Commit  revset.Commit
	Outcome Outcome
}

// Counts tallies passed, failed and skipped results.
func Counts(results []CommitResult) (passed, failed, skipped int) {
	for _, r := range results {
		switch {
		case r.Outcome.Passed():
			passed++
		case r.Outcome.Failed():
			failed++
		case r.Outcome.Kind == Skipped:
			skipped++
		}
	}
	return passed, failed, skipped
}
