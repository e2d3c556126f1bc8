package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/masmgr/rangetest/internal/cache"
	"github.com/masmgr/rangetest/internal/revset"
	"github.com/masmgr/rangetest/internal/testrun"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func testCommit() revset.Commit {
	return revset.Commit{
		Hash:    plumbing.NewHash("fe65c1fe15584744e649b2c79d4cf9b0d878f92e"),
		Subject: "create test2.txt",
	}
}

// writeCaptures stores stdout/stderr blobs and returns a cache entry
// pointing at them.
func writeCaptures(t *testing.T, stdout, stderr string) *cache.Entry {
	t.Helper()
	dir := t.TempDir()
	entry := &cache.Entry{
		StdoutPath: filepath.Join(dir, "stdout"),
		StderrPath: filepath.Join(dir, "stderr"),
	}
	if err := os.WriteFile(entry.StdoutPath, []byte(stdout), 0o644); err != nil {
		t.Fatalf("write stdout: %v", err)
	}
	if err := os.WriteFile(entry.StderrPath, []byte(stderr), 0o644); err != nil {
		t.Fatalf("write stderr: %v", err)
	}
	return entry
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, 0).Header("exit 0", 2)
	if got := buf.String(); got != "Ran exit 0 on 2 commits:\n" {
		t.Fatalf("Header = %q", got)
	}

	buf.Reset()
	NewReporter(&buf, 0).Header("bash test.sh 10", 1)
	if got := buf.String(); got != "Ran bash test.sh 10 on 1 commit:\n" {
		t.Fatalf("Header = %q", got)
	}
}

func TestResultStatusLines(t *testing.T) {
	tests := []struct {
		name    string
		outcome testrun.Outcome
		want    string
	}{
		{
			name:    "Passed",
			outcome: testrun.Outcome{Kind: testrun.Passed},
			want:    "✓ Passed: fe65c1f create test2.txt\n",
		},
		{
			name:    "PassedCached",
			outcome: testrun.Outcome{Kind: testrun.PassedCached},
			want:    "✓ Passed (cached): fe65c1f create test2.txt\n",
		},
		{
			name:    "Failed",
			outcome: testrun.Outcome{Kind: testrun.Failed, ExitCode: 1},
			want:    "✗ Failed with exit code 1: fe65c1f create test2.txt\n",
		},
		{
			name:    "FailedCached",
			outcome: testrun.Outcome{Kind: testrun.FailedCached, ExitCode: 7},
			want:    "✗ Failed (cached) with exit code 7: fe65c1f create test2.txt\n",
		},
		{
			name:    "Skipped",
			outcome: testrun.Outcome{Kind: testrun.Skipped},
			want:    "⚠ Skipped: fe65c1f create test2.txt\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := NewReporter(&buf, 0).Result(testrun.CommitResult{
				Commit:  testCommit(),
				Outcome: tt.outcome,
			})
			if err != nil {
				t.Fatalf("Result: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Fatalf("Result = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResultVerboseShowsCaptures(t *testing.T) {
	entry := writeCaptures(t, "This is line 1\n", "")
	res := testrun.CommitResult{
		Commit:  testCommit(),
		Outcome: testrun.Outcome{Kind: testrun.Passed, Entry: entry},
	}

	// Verbosity 0 prints the status line only.
	var quiet bytes.Buffer
	if err := NewReporter(&quiet, 0).Result(res); err != nil {
		t.Fatalf("Result: %v", err)
	}
	if strings.Contains(quiet.String(), "Stdout") {
		t.Fatalf("verbosity 0 must not print captures: %q", quiet.String())
	}

	var buf bytes.Buffer
	if err := NewReporter(&buf, 1).Result(res); err != nil {
		t.Fatalf("Result: %v", err)
	}
	want := "✓ Passed: fe65c1f create test2.txt\n" +
		"Stdout: " + entry.StdoutPath + "\n" +
		"This is line 1\n" +
		"Stderr: " + entry.StderrPath + "\n" +
		"<no output>\n"
	if got := buf.String(); got != want {
		t.Fatalf("Result = %q, want %q", got, want)
	}
}

func TestResultVerboseElidesLongCaptures(t *testing.T) {
	var stdout strings.Builder
	for i := 1; i <= 15; i++ {
		fmt.Fprintf(&stdout, "This is line %d\n", i)
	}
	entry := writeCaptures(t, stdout.String(), "")
	res := testrun.CommitResult{
		Commit:  testCommit(),
		Outcome: testrun.Outcome{Kind: testrun.Passed, Entry: entry},
	}

	var buf bytes.Buffer
	if err := NewReporter(&buf, 1).Result(res); err != nil {
		t.Fatalf("Result: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"This is line 1\n", "This is line 5\n",
		"<5 more lines>\n",
		"This is line 11\n", "This is line 15\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "This is line 6\n") {
		t.Fatalf("elided line printed:\n%s", out)
	}

	// Verbosity 2 prints everything.
	buf.Reset()
	if err := NewReporter(&buf, 2).Result(res); err != nil {
		t.Fatalf("Result: %v", err)
	}
	if !strings.Contains(buf.String(), "This is line 6\n") ||
		strings.Contains(buf.String(), "more lines>") {
		t.Fatalf("verbosity 2 must print in full:\n%s", buf.String())
	}
}

func TestElideLines(t *testing.T) {
	lines := func(n int) []string {
		out := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, fmt.Sprintf("line %d", i))
		}
		return out
	}

	tests := []struct {
		name      string
		lines     []string
		verbosity int
		want      []string
	}{
		{
			name:      "Empty",
			lines:     nil,
			verbosity: 1,
			want:      []string{"<no output>"},
		},
		{
			name:      "ExactlyTenPassesThrough",
			lines:     lines(10),
			verbosity: 1,
			want:      lines(10),
		},
		{
			name:      "ElevenCollapses",
			lines:     lines(11),
			verbosity: 1,
			want: append(append(lines(5), "<1 more lines>"),
				"line 7", "line 8", "line 9", "line 10", "line 11"),
		},
		{
			name:      "FullAtVerbosityTwo",
			lines:     lines(30),
			verbosity: 2,
			want:      lines(30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ElideLines(tt.lines, tt.verbosity)
			if len(got) != len(tt.want) {
				t.Fatalf("ElideLines = %d lines, want %d\n%v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ElideLines[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, 0).Summary([]testrun.CommitResult{
		{Outcome: testrun.Outcome{Kind: testrun.Passed}},
		{Outcome: testrun.Outcome{Kind: testrun.PassedCached}},
		{Outcome: testrun.Outcome{Kind: testrun.Failed, ExitCode: 1}},
		{Outcome: testrun.Outcome{Kind: testrun.Skipped}},
	})
	if got := buf.String(); got != "2 passed, 1 failed, 1 skipped\n" {
		t.Fatalf("Summary = %q", got)
	}
}

func TestNoCachedData(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, 0).NoCachedData(testCommit())
	if got := buf.String(); got != "No cached test data for fe65c1f create test2.txt\n" {
		t.Fatalf("NoCachedData = %q", got)
	}
}

func TestCachedEntryClassifiesByExitCode(t *testing.T) {
	entry := writeCaptures(t, "", "")

	var buf bytes.Buffer
	entry.ExitCode = 0
	if err := NewReporter(&buf, 0).CachedEntry(testCommit(), entry); err != nil {
		t.Fatalf("CachedEntry: %v", err)
	}
	if got := buf.String(); got != "✓ Passed (cached): fe65c1f create test2.txt\n" {
		t.Fatalf("CachedEntry = %q", got)
	}

	buf.Reset()
	entry.ExitCode = 1
	if err := NewReporter(&buf, 0).CachedEntry(testCommit(), entry); err != nil {
		t.Fatalf("CachedEntry: %v", err)
	}
	if got := buf.String(); got != "✗ Failed (cached) with exit code 1: fe65c1f create test2.txt\n" {
		t.Fatalf("CachedEntry = %q", got)
	}
}

func TestShowHints(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, 0).ShowHints()
	want := "hint: To see more detailed output, re-run with -v/--verbose.\n" +
		"hint: disable this hint by running: git config --global rangetest.hint.testShowVerbose false\n"
	if got := buf.String(); got != want {
		t.Fatalf("ShowHints = %q", got)
	}
}

func TestCleanConfirmation(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, 0).CleanConfirmation()
	if got := buf.String(); got != "Cleaned cached test results.\n" {
		t.Fatalf("CleanConfirmation = %q", got)
	}
}
