package interp

import (
	"github.com/oursh-shell/oursh/internal/ast"
	"github.com/oursh-shell/oursh/internal/expand"
)

// expandWord applies variable and tilde expansion to w per its quoting,
// matching spec.md §3's "quoted words do not further split or glob" and
// §4.3's variable-before-tilde ordering. Single-quoted words pass
// through verbatim.
func expandWord(w ast.Word, rt *Runtime) string {
	if !w.Expandable() {
		return w.Value
	}
	// Tilde expansion only applies to an unquoted leading "~" (spec.md
	// §4.3); double-quoted words still get variable expansion but keep
	// a leading "~" literal.
	return expand.Word(w.Value, rt.Lookup, w.Kind == ast.WordBare)
}

func expandWords(ws []ast.Word, rt *Runtime) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = expandWord(w, rt)
	}
	return out
}

// expandAssignment expands an assignment's value the same way, so
// `X=$Y` resolves $Y against the current variable scope before X is
// bound.
func expandAssignment(a ast.Assignment, rt *Runtime) string {
	return expand.Word(a.Value, rt.Lookup, true)
}
