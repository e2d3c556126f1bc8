// Package report renders per-commit test outcomes and run summaries.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/masmgr/rangetest/config"
	"github.com/masmgr/rangetest/internal/cache"
	"github.com/masmgr/rangetest/internal/revset"
	"github.com/masmgr/rangetest/internal/testrun"
)

// elideContext is the number of head and tail lines kept when capture
// output collapses at verbosity 1.
const elideContext = 5

// Reporter formats run output. Verbosity 0 prints status lines only;
// 1 adds collapsed capture sections; 2 or higher prints captures in
// full.
type Reporter struct {
	W         io.Writer
	Verbosity int
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer, verbosity int) *Reporter {
	return &Reporter{W: w, Verbosity: verbosity}
}

// Header prints the run banner.
func (r *Reporter) Header(command string, n int) {
	noun := "commits"
	if n == 1 {
		noun = "commit"
	}
	fmt.Fprintf(r.W, "Ran %s on %d %s:\n", command, n, noun)
}

// Result prints one commit's status line, plus capture sections when
// verbose. The sections render identically for fresh and cached
// outcomes, since capture blobs persist independently of execution.
func (r *Reporter) Result(res testrun.CommitResult) error {
	fmt.Fprintln(r.W, statusLine(res.Commit, res.Outcome))

	if r.Verbosity < 1 || res.Outcome.Entry == nil {
		return nil
	}

	if err := r.captureSection("Stdout", res.Outcome.Entry.StdoutPath); err != nil {
		return err
	}
	return r.captureSection("Stderr", res.Outcome.Entry.StderrPath)
}

// Summary prints the final counts line.
func (r *Reporter) Summary(results []testrun.CommitResult) {
	passed, failed, skipped := testrun.Counts(results)
	fmt.Fprintf(r.W, "%d passed, %d failed, %d skipped\n", passed, failed, skipped)
}

// NoCachedData prints the cache-miss line used by show.
func (r *Reporter) NoCachedData(c revset.Commit) {
	fmt.Fprintf(r.W, "No cached test data for %s %s\n", c.ShortHash(), c.Subject)
}

// CachedEntry prints a cached entry's status line for show, plus
// capture sections when verbose.
func (r *Reporter) CachedEntry(c revset.Commit, entry *cache.Entry) error {
	kind := testrun.PassedCached
	if entry.ExitCode != 0 {
		kind = testrun.FailedCached
	}
	return r.Result(testrun.CommitResult{
		Commit:  c,
		Outcome: testrun.Outcome{Kind: kind, ExitCode: entry.ExitCode, Entry: entry},
	})
}

// ShowHints prints the show-mode hint block.
func (r *Reporter) ShowHints() {
	fmt.Fprintln(r.W, "hint: To see more detailed output, re-run with -v/--verbose.")
	fmt.Fprintf(r.W, "hint: disable this hint by running: git config --global %s false\n",
		config.HintShowVerboseKey)
}

// CleanConfirmation prints the fixed clean confirmation line.
func (r *Reporter) CleanConfirmation() {
	fmt.Fprintln(r.W, "Cleaned cached test results.")
}

func statusLine(c revset.Commit, o testrun.Outcome) string {
	ident := fmt.Sprintf("%s %s", c.ShortHash(), c.Subject)
	switch o.Kind {
	case testrun.Passed:
		return fmt.Sprintf("%s Passed: %s", color.GreenString("✓"), ident)
	case testrun.PassedCached:
		return fmt.Sprintf("%s Passed (cached): %s", color.GreenString("✓"), ident)
	case testrun.Failed:
		return fmt.Sprintf("%s Failed with exit code %d: %s", color.RedString("✗"), o.ExitCode, ident)
	case testrun.FailedCached:
		return fmt.Sprintf("%s Failed (cached) with exit code %d: %s", color.RedString("✗"), o.ExitCode, ident)
	case testrun.Skipped:
		return fmt.Sprintf("%s Skipped: %s", color.YellowString("⚠"), ident)
	default:
		return fmt.Sprintf("%s %s: %s", color.RedString("✗"), o.Kind, ident)
	}
}

func (r *Reporter) captureSection(label, path string) error {
	fmt.Fprintf(r.W, "%s: %s\n", label, path)

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read capture blob: %w", err)
	}

	for _, line := range ElideLines(splitLines(content), r.Verbosity) {
		fmt.Fprintln(r.W, line)
	}
	return nil
}

// ElideLines collapses long output at verbosity 1: the first and last
// elideContext lines around a marker stating the omitted count. At
// verbosity 2 or higher all lines pass through. Empty output becomes a
// literal "<no output>" marker.
func ElideLines(lines []string, verbosity int) []string {
	if len(lines) == 0 {
		return []string{"<no output>"}
	}
	if verbosity >= 2 || len(lines) <= 2*elideContext {
		return lines
	}

	elided := make([]string, 0, 2*elideContext+1)
	elided = append(elided, lines[:elideContext]...)
	elided = append(elided, fmt.Sprintf("<%d more lines>", len(lines)-2*elideContext))
	elided = append(elided, lines[len(lines)-elideContext:]...)
	return elided
}

func splitLines(content []byte) []string {
	s := strings.TrimSuffix(string(content), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
