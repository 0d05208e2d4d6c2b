package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oursh-shell/oursh/internal/token"
)

func TestLexSimpleWord(t *testing.T) {
	toks, err := All("echo hello")
	require.NoError(t, err)
	require.Len(t, toks, 3) // Word, Word, EOF
	assert.Equal(t, token.WORD, toks[0].Kind)
	assert.Equal(t, "echo", toks[0].Text)
	assert.Equal(t, token.WORD, toks[1].Kind)
	assert.Equal(t, "hello", toks[1].Text)
	assert.Equal(t, token.EOF, toks[2].Kind)
}

// TestLexQuotedWordRoundTrip is spec.md §8's lexer property: for
// "'abc'", lex yields a single Word("abc") span whose end equals the
// original length.
func TestLexQuotedWordRoundTrip(t *testing.T) {
	src := "'abc'"
	toks, err := All(src)
	require.NoError(t, err)
	require.Len(t, toks, 2) // Word, EOF
	assert.Equal(t, token.WORD, toks[0].Kind)
	assert.Equal(t, "abc", toks[0].Text)
	assert.Equal(t, len(src), toks[0].End.Offset)
}

func TestLexOperators(t *testing.T) {
	toks, err := All("a && b || c | d ; e & f")
	require.NoError(t, err)
	kinds := make([]token.Kind, 0, len(toks))
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	assert.Contains(t, kinds, token.AND)
	assert.Contains(t, kinds, token.OR)
	assert.Contains(t, kinds, token.PIPE)
	assert.Contains(t, kinds, token.SEMI)
	assert.Contains(t, kinds, token.AMPER)
}

func TestLexRedirectOperators(t *testing.T) {
	toks, err := All("2>&1")
	require.NoError(t, err)
	require.True(t, len(toks) >= 2)
	assert.Equal(t, token.IONUMBER, toks[0].Kind)
	assert.Equal(t, "2", toks[0].Text)
	assert.Equal(t, token.GREATAND, toks[1].Kind)
}

func TestLexUnterminatedQuoteIsError(t *testing.T) {
	_, err := All("echo 'abc")
	require.Error(t, err)
	lexErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, UnterminatedQuote, lexErr.Kind)
}

func TestLexBraceShebangBlock(t *testing.T) {
	toks, err := All("{#!/bin/sh; echo 1}")
	require.NoError(t, err)
	require.Len(t, toks, 4) // Shebang, Text, RBrace, EOF
	assert.Equal(t, token.SHEBANG, toks[0].Kind)
	assert.Equal(t, "!/bin/sh", toks[0].Text)
	assert.Equal(t, token.TEXT, toks[1].Kind)
	assert.Equal(t, " echo 1", toks[1].Text)
	assert.Equal(t, token.RBRACE, toks[2].Kind)
}

func TestLexBraceShebangCountsNestedBraces(t *testing.T) {
	toks, err := All("{#!ruby; {1 => 2}}")
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, token.TEXT, toks[1].Kind)
	assert.Equal(t, " {1 => 2}", toks[1].Text)
}

func TestLexIsTotalOverCharacterClasses(t *testing.T) {
	// Every printable, non-control ASCII byte other than '*' is a
	// recognized operator or word character, so lexing never halts on
	// ordinary input like this.
	_, err := All("echo $HOME ~user/a/b 2>>out.log <<in")
	assert.NoError(t, err)
}

func TestLexUnrecognizedCharError(t *testing.T) {
	_, err := All("echo \x01")
	require.Error(t, err)
	lexErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, UnrecognizedChar, lexErr.Kind)
}
