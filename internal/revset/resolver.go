// Package revset resolves revset expressions to ordered commit lists.
package revset

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Options configures commit selection.
type Options struct {
	// Include and Exclude are doublestar patterns matched against the
	// paths a commit changes. Commits whose changes match no include
	// pattern (or only exclude patterns) are marked Skipped.
	Include []string
	Exclude []string
}

// Resolver maps revset expressions to ordered, oldest-first commit
// lists.
type Resolver struct {
	repo *git.Repository
	opts Options
}

// NewResolver opens the repository containing repoPath. Like `git -C`,
// a path anywhere inside the worktree resolves to its repository.
func NewResolver(repoPath string, opts Options) (*Resolver, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return NewResolverFromRepo(repo, opts), nil
}

// NewResolverFromRepo wraps an already-open repository.
func NewResolverFromRepo(repo *git.Repository, opts Options) *Resolver {
	return &Resolver{repo: repo, opts: opts}
}

// Resolve maps a revset expression to an ordered commit list. Supported
// forms:
//
//	""          commits reachable from HEAD but not from the main branch
//	"." / HEAD  the HEAD commit only
//	"A..B"      commits reachable from B but not from A
//	rev         commits reachable from rev but not from the main branch
//
// The list may be empty. Replay order is oldest-first along the first-
// parent chain.
func (r *Resolver) Resolve(expr string) ([]Commit, error) {
	expr = strings.TrimSpace(expr)

	if expr == "." || strings.EqualFold(expr, "HEAD") {
		head, err := r.repo.Head()
		if err != nil {
			return nil, fmt.Errorf("resolve HEAD: %w", err)
		}
		c, err := r.repo.CommitObject(head.Hash())
		if err != nil {
			return nil, err
		}
		return r.annotate([]*object.Commit{c})
	}

	if from, to, ok := strings.Cut(expr, ".."); ok {
		fromHash, err := r.resolveRevision(from)
		if err != nil {
			return nil, err
		}
		toHash, err := r.resolveRevision(to)
		if err != nil {
			return nil, err
		}
		excluded, err := r.ancestors(*fromHash)
		if err != nil {
			return nil, err
		}
		return r.stack(*toHash, excluded)
	}

	tipRev := expr
	if tipRev == "" {
		tipRev = "HEAD"
	}
	tipHash, err := r.resolveRevision(tipRev)
	if err != nil {
		return nil, err
	}

	excluded, err := r.mainBranchAncestors()
	if err != nil {
		return nil, err
	}
	return r.stack(*tipHash, excluded)
}

func (r *Resolver) resolveRevision(rev string) (*plumbing.Hash, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		rev = "HEAD"
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	return hash, nil
}

// mainBranchAncestors returns the set of commits reachable from the
// repository's main branch (master or main). With no main branch there
// is nothing to exclude.
func (r *Resolver) mainBranchAncestors() (map[plumbing.Hash]bool, error) {
	for _, name := range []string{"master", "main"} {
		ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
		if err != nil {
			continue
		}
		return r.ancestors(ref.Hash())
	}
	return map[plumbing.Hash]bool{}, nil
}

// ancestors collects every commit reachable from start, across all
// parents.
func (r *Resolver) ancestors(start plumbing.Hash) (map[plumbing.Hash]bool, error) {
	seen := make(map[plumbing.Hash]bool)
	queue := []plumbing.Hash{start}
	for len(queue) > 0 {
		h := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if seen[h] {
			continue
		}
		seen[h] = true

		c, err := r.repo.CommitObject(h)
		if err != nil {
			return nil, err
		}
		queue = append(queue, c.ParentHashes...)
	}
	return seen, nil
}

// stack walks the first-parent chain from tip down to the first
// excluded commit and returns the remainder oldest-first. Replay
// materializes one tree at a time, so the selection is the linear
// chain a rebase would visit.
func (r *Resolver) stack(tip plumbing.Hash, excluded map[plumbing.Hash]bool) ([]Commit, error) {
	var chain []*object.Commit

	h := tip
	for !excluded[h] {
		c, err := r.repo.CommitObject(h)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
		if c.NumParents() == 0 {
			break
		}
		h = c.ParentHashes[0]
	}

	// Reverse into replay (oldest-first) order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return r.annotate(chain)
}

// annotate converts commit objects to Commit records, applying the
// include/exclude filters.
func (r *Resolver) annotate(chain []*object.Commit) ([]Commit, error) {
	commits := make([]Commit, 0, len(chain))
	for _, c := range chain {
		skipped, err := r.isSkipped(c)
		if err != nil {
			return nil, err
		}
		commits = append(commits, Commit{
			Hash:    c.Hash,
			Tree:    c.TreeHash,
			Subject: subjectLine(c.Message),
			Skipped: skipped,
		})
	}
	return commits, nil
}

// isSkipped reports whether none of the commit's changed paths pass
// the filters. Root commits match against their full tree listing.
func (r *Resolver) isSkipped(c *object.Commit) (bool, error) {
	if len(r.opts.Include) == 0 && len(r.opts.Exclude) == 0 {
		return false, nil
	}

	paths, err := r.changedPaths(c)
	if err != nil {
		return false, err
	}

	for _, p := range paths {
		if r.matchesFilters(p) {
			return false, nil
		}
	}
	return true, nil
}

func (r *Resolver) changedPaths(c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	if c.NumParents() == 0 {
		var paths []string
		err := tree.Files().ForEach(func(f *object.File) error {
			paths = append(paths, f.Name)
			return nil
		})
		return paths, err
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, ch := range changes {
		name := ch.To.Name
		if name == "" {
			name = ch.From.Name
		}
		if name != "" {
			paths = append(paths, name)
		}
	}
	return paths, nil
}

// matchesFilters checks a path against the exclude patterns first,
// then the include patterns (absent include patterns accept all).
func (r *Resolver) matchesFilters(path string) bool {
	path = strings.ReplaceAll(path, "\\", "/")

	for _, pattern := range r.opts.Exclude {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return false
		}
	}

	if len(r.opts.Include) == 0 {
		return true
	}

	for _, pattern := range r.opts.Include {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

func subjectLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx != -1 {
		message = message[:idx]
	}
	return message
}
