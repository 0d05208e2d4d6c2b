// Package expand implements the word-expansion rules applied to
// argv/assignment values before a Simple command executes: parameter
// expansion ($NAME, ${NAME}) and tilde expansion, in the ordering
// spec.md §3 requires (assignments expand before the command's own
// argv is expanded; tilde expansion happens after variable expansion
// within the same word). Ported from original_source's expand_vars and
// expand_home (DESIGN.md's Expansion entry) since no library in
// the example pack implements POSIX-style parameter expansion.
package expand

import (
	"os"
	"os/user"
	"strings"
)

// Lookup resolves a shell variable by name. Runtime implements this by
// consulting its own assignment scope before falling back to the
// process environment.
type Lookup func(name string) (string, bool)

// OSEnv is a Lookup backed directly by the process environment.
func OSEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Word expands parameter references, and — when allowTilde is set — a
// single leading tilde, per spec.md §3's expansion invariant. Single-
// quoted words must never be passed here (callers check Word.Expandable
// first). spec.md §4.3 scopes tilde expansion to an unquoted leading
// "~"; double-quoted words still take variable expansion but leave a
// leading "~" literal (original_source's expand_home is only ever
// called on unquoted words), so callers pass allowTilde=false for those.
func Word(s string, lookup Lookup, allowTilde bool) string {
	expanded := expandVars(s, lookup)
	if !allowTilde {
		return expanded
	}
	return expandTilde(expanded, lookup)
}

// expandVars scans s for $NAME and ${NAME}. Special parameters such as
// $?, $$ and $# are not expanded anywhere: a '$' not followed by '{' or a
// name-start character is kept literally.
func expandVars(s string, lookup Lookup) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '$' || i == len(s)-1 {
			out.WriteByte(c)
			i++
			continue
		}

		next := s[i+1]
		switch {
		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				out.WriteByte(c)
				i++
				continue
			}
			name := s[i+2 : i+2+end]
			if v, ok := lookup(name); ok {
				out.WriteString(v)
			}
			i = i + 2 + end + 1
		case isNameStart(next):
			j := i + 1
			for j < len(s) && isNameContinue(s[j]) {
				j++
			}
			name := s[i+1 : j]
			if v, ok := lookup(name); ok {
				out.WriteString(v)
			}
			i = j
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameContinue(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// expandTilde implements the common subset of POSIX tilde expansion: a
// bare leading "~" or "~/rest" expands to the invoking user's home
// directory; "~name" or "~name/rest" expands to name's home directory.
// A tilde anywhere else in the word is left verbatim.
func expandTilde(s string, lookup Lookup) string {
	if !strings.HasPrefix(s, "~") {
		return s
	}
	rest := s[1:]
	name, tail, hasSlash := rest, "", false
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		name, tail, hasSlash = rest[:idx], rest[idx:], true
	}
	if !isPlainName(name) {
		return s
	}

	var home string
	if name == "" {
		if h, ok := lookup("HOME"); ok && h != "" {
			home = h
		} else if h, err := os.UserHomeDir(); err == nil {
			home = h
		} else {
			return s
		}
	} else {
		u, err := user.Lookup(name)
		if err != nil {
			return s
		}
		home = u.HomeDir
	}

	if hasSlash {
		return home + tail
	}
	return home
}

func isPlainName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '.' {
			continue
		}
		return false
	}
	return true
}
