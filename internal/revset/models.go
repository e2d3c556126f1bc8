package revset

import "github.com/go-git/go-git/v5/plumbing"

// Commit is a commit selected for testing. Tree is the content
// fingerprint: two commits with identical file trees share it even
// across unrelated history.
type Commit struct {
	Hash    plumbing.Hash
	Tree    plumbing.Hash
	Subject string

	// Skipped marks commits excluded by the include/exclude path
	// filters. They are reported but never executed.
	Skipped bool
}

// ShortHash returns the abbreviated commit identifier used in output.
func (c Commit) ShortHash() string {
	return c.Hash.String()[:7]
}
