package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/oursh-shell/oursh/internal/token"
)

// assertSameTree checks the property spec.md §8 describes as
// parse(serialize(ast)) stability: two differently-spaced but
// equivalent source strings must parse to the same tree, ignoring
// source position (token.Position), which legitimately differs.
func assertSameTree(t *testing.T, a, b string) {
	t.Helper()
	progA, err := Parse(a)
	require.NoError(t, err)
	progB, err := Parse(b)
	require.NoError(t, err)
	diff := cmp.Diff(progA, progB, cmpopts.IgnoreTypes(token.Position{}))
	require.Empty(t, diff, "parse(%q) != parse(%q):\n%s", a, b, diff)
}

func TestRoundTripWhitespaceInsensitive(t *testing.T) {
	assertSameTree(t, "true&&false", "true && false")
}

func TestRoundTripSemicolonVsNewline(t *testing.T) {
	assertSameTree(t, "echo a; echo b", "echo a\necho b")
}

func TestRoundTripExtraBlankLinesIgnored(t *testing.T) {
	assertSameTree(t, "echo a\n\n\necho b", "echo a\necho b")
}

func TestRoundTripIfEquivalentSpacing(t *testing.T) {
	assertSameTree(t,
		"if true; then echo a; fi",
		"if true\nthen\necho a\nfi",
	)
}

func TestRoundTripIdempotentOnSingleParse(t *testing.T) {
	src := "for x in a b c; do echo $x; done"
	p1, err := Parse(src)
	require.NoError(t, err)
	p2, err := Parse(src)
	require.NoError(t, err)
	diff := cmp.Diff(p1, p2)
	require.Empty(t, diff)
}
