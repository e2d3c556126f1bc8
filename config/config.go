// Package config exposes Git configuration as an injectable key/value
// provider, so command resolution and reporting can be tested without a
// real repository.
package config

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Configuration keys consumed by the tool.
const (
	// AliasPrefix is the prefix under which test command aliases live.
	// The full key for an alias named "foo" is "rangetest.test.alias.foo".
	AliasPrefix = "rangetest.test.alias."

	// DefaultAliasKey is the fallback command used when neither an
	// explicit command nor an alias name is given.
	DefaultAliasKey = AliasPrefix + "default"

	// HintShowVerboseKey suppresses the hint block printed by `show`
	// when set to false.
	HintShowVerboseKey = "rangetest.hint.testShowVerbose"
)

// Entry is a single configuration key/value pair.
type Entry struct {
	Key   string
	Value string
}

// Provider reads and writes configuration values.
type Provider interface {
	// Get returns the value for a key and whether it was set.
	Get(key string) (string, bool)

	// GetBool returns the boolean value for a key, or def when the key
	// is unset or unparseable.
	GetBool(key string, def bool) bool

	// List returns all entries whose key starts with prefix, in
	// definition order.
	List(prefix string) []Entry

	// Set writes a key/value pair.
	Set(key, value string) error
}

// GitProvider reads configuration through the git CLI so that local,
// global and system scopes are merged the same way git itself merges
// them.
type GitProvider struct {
	RepoPath string
}

// NewGitProvider creates a provider for the repository at repoPath.
func NewGitProvider(repoPath string) *GitProvider {
	return &GitProvider{RepoPath: repoPath}
}

// Get returns the value for a key and whether it was set.
func (p *GitProvider) Get(key string) (string, bool) {
	out, err := exec.Command("git", "-C", p.RepoPath, "config", "--get", key).Output()
	if err != nil {
		return "", false
	}
	return strings.TrimSuffix(string(out), "\n"), true
}

// GetBool returns the boolean value for a key, following git's boolean
// spellings (true/yes/on/1 and false/no/off/0).
func (p *GitProvider) GetBool(key string, def bool) bool {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	return ParseBool(v, def)
}

// List returns all entries under prefix in the order git reports them,
// which matches definition order within each scope.
func (p *GitProvider) List(prefix string) []Entry {
	pattern := "^" + regexp.QuoteMeta(prefix)
	out, err := exec.Command("git", "-C", p.RepoPath, "config", "--get-regexp", pattern).Output()
	if err != nil {
		// Exit code 1 means no matches.
		return nil
	}

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSuffix(string(out), "\n"), "\n") {
		if line == "" {
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		entries = append(entries, Entry{Key: key, Value: value})
	}
	return entries
}

// Set writes a key into the repository-local configuration.
func (p *GitProvider) Set(key, value string) error {
	out, err := exec.Command("git", "-C", p.RepoPath, "config", key, value).CombinedOutput()
	if err != nil {
		return fmt.Errorf("git config %s: %w: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// MapProvider is an in-memory Provider for tests. Entries preserve
// insertion order.
type MapProvider struct {
	entries []Entry
	index   map[string]int
}

// NewMapProvider creates an empty in-memory provider.
func NewMapProvider() *MapProvider {
	return &MapProvider{index: make(map[string]int)}
}

// Get returns the value for a key and whether it was set.
func (p *MapProvider) Get(key string) (string, bool) {
	i, ok := p.index[key]
	if !ok {
		return "", false
	}
	return p.entries[i].Value, true
}

// GetBool returns the boolean value for a key, or def when unset.
func (p *MapProvider) GetBool(key string, def bool) bool {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	return ParseBool(v, def)
}

// List returns all entries under prefix in insertion order.
func (p *MapProvider) List(prefix string) []Entry {
	var entries []Entry
	for _, e := range p.entries {
		if strings.HasPrefix(e.Key, prefix) {
			entries = append(entries, e)
		}
	}
	return entries
}

// Set writes a key/value pair, keeping first-insertion order on update.
func (p *MapProvider) Set(key, value string) error {
	if i, ok := p.index[key]; ok {
		p.entries[i].Value = value
		return nil
	}
	p.index[key] = len(p.entries)
	p.entries = append(p.entries, Entry{Key: key, Value: value})
	return nil
}

// ParseBool interprets a git-style boolean string.
func ParseBool(v string, def bool) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true
	case "false", "no", "off", "0":
		return false
	default:
		return def
	}
}

// Compile-time interface conformance checks.
var (
	_ Provider = (*GitProvider)(nil)
	_ Provider = (*MapProvider)(nil)
)
