// Package shellerr defines the shell's three error-kind sentinels and
// the exit-code mapping spec.md §7 assigns them, matching the original
// oursh::program::Error enum (original_source/src/program/mod.rs).
package shellerr

import "errors"

// Sentinel kinds. Wrap with fmt.Errorf("%w: ...", ErrRuntime) so callers
// can use errors.Is without string matching.
var (
	ErrRead    = errors.New("read error")
	ErrParse   = errors.New("parse error")
	ErrRuntime = errors.New("runtime error")
)

// ExitCode maps an error produced by this shell to the process exit code
// spec.md §6/§7 specifies. A nil error maps to 0; an error matching none
// of the three sentinels maps to 1, the conservative default for an
// unclassified failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrParse):
		return 2
	case errors.Is(err, ErrRuntime):
		return 127
	case errors.Is(err, ErrRead):
		return 1
	default:
		return 1
	}
}
