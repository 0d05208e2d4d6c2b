package parser

import (
	"fmt"
	"strings"

	"github.com/oursh-shell/oursh/internal/token"
)

// ErrorKind distinguishes parser failure modes, mirroring the
// lalrpop-style error taxonomy of original_source's ParseError enum and
// spec.md §4.2's error policy.
type ErrorKind int

const (
	InvalidToken ErrorKind = iota
	UnrecognizedToken
	UnrecognizedEOF
	ExtraToken
)

// Error reports a parse failure with enough context to reproduce the
// diagnostics spec.md §4.2 requires: position, offending token, and the
// expected set.
type Error struct {
	Kind     ErrorKind
	Pos      token.Position
	Got      token.Token
	Expected []string
}

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidToken:
		return fmt.Sprintf("invalid token found at %d:%d", e.Pos.Line, e.Pos.Column)
	case UnrecognizedEOF:
		return fmt.Sprintf("unexpected EOF found at %d:%d, expecting one of: %s",
			e.Pos.Line, e.Pos.Column, strings.Join(e.Expected, ", "))
	case ExtraToken:
		return fmt.Sprintf("extra token %s found at %d:%d", e.Got, e.Pos.Line, e.Pos.Column)
	default:
		return fmt.Sprintf("unexpected token %s found at %d:%d, expecting one of: %s",
			e.Got, e.Pos.Line, e.Pos.Column, strings.Join(e.Expected, ", "))
	}
}
