// Package command resolves the test command to run from explicit input
// or configured aliases.
package command

import (
	"fmt"
	"strings"

	"github.com/masmgr/rangetest/config"
)

// Origin records how the command was resolved.
type Origin int

const (
	OriginExplicit Origin = iota
	OriginAlias
	OriginDefault
)

// TestCommand is the resolved command string. Immutable for a run.
type TestCommand struct {
	Command string
	Origin  Origin

	// Alias holds the alias name when Origin is OriginAlias.
	Alias string
}

// ConfigurationError is an unresolved-command error carrying the full
// remediation text shown to the user. No state is mutated.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// Resolve determines the test command. Precedence: an explicit command
// wins outright; then a named alias; then the reserved "default" alias;
// otherwise the resolution fails with remediation hints. Alias matching
// is exact-string: a multi-word name forms one lookup key.
func Resolve(explicit, aliasName string, cfg config.Provider) (TestCommand, error) {
	if explicit != "" {
		return TestCommand{Command: explicit, Origin: OriginExplicit}, nil
	}

	if aliasName != "" {
		if cmd, ok := cfg.Get(config.AliasPrefix + aliasName); ok {
			return TestCommand{Command: cmd, Origin: OriginAlias, Alias: aliasName}, nil
		}
		return TestCommand{}, &ConfigurationError{Message: noSuchAliasMessage(aliasName, cfg)}
	}

	if cmd, ok := cfg.Get(config.DefaultAliasKey); ok {
		return TestCommand{Command: cmd, Origin: OriginDefault}, nil
	}
	return TestCommand{}, &ConfigurationError{Message: noCommandMessage(cfg)}
}

func noSuchAliasMessage(aliasName string, cfg config.Provider) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The test command alias %q was not defined.\n", aliasName)
	b.WriteString("\n")
	fmt.Fprintf(&b, "To create it, run: git config %s%s <command>\n", config.AliasPrefix, aliasName)
	b.WriteString("Or use the -x/--exec flag instead to run a test command without first creating an alias.")
	appendAliasListing(&b, cfg)
	return b.String()
}

func noCommandMessage(cfg config.Provider) string {
	var b strings.Builder
	b.WriteString("Could not determine test command to run. No test command was provided with -c/--command or\n")
	fmt.Fprintf(&b, "-x/--exec, and the configuration value '%s' was not set.\n", config.DefaultAliasKey)
	b.WriteString("\n")
	fmt.Fprintf(&b, "To configure a default test command, run: git config %s <command>\n", config.DefaultAliasKey)
	b.WriteString("To run a specific test command, run: rangetest run -x <command>\n")
	b.WriteString("To run a specific command alias, run: rangetest run -c <alias>")
	appendAliasListing(&b, cfg)
	return b.String()
}

func appendAliasListing(b *strings.Builder, cfg config.Provider) {
	aliases := cfg.List(config.AliasPrefix)
	if len(aliases) == 0 {
		return
	}
	b.WriteString("\n\nThese are the currently-configured command aliases:")
	for _, a := range aliases {
		fmt.Fprintf(b, "\n- %s = %q", a.Key, a.Value)
	}
}
