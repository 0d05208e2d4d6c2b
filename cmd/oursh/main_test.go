package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oursh-shell/oursh/internal/parser"
)

func TestDumpProgramRendersNestedKinds(t *testing.T) {
	prog, err := parser.Parse("if true; then echo hi; fi")
	require.NoError(t, err)

	var buf bytes.Buffer
	dumpProgram(&buf, prog, 0)

	out := buf.String()
	assert.Contains(t, out, "If")
	assert.Contains(t, out, "  Simple")
}

func TestDumpProgramIndentsByDepth(t *testing.T) {
	prog, err := parser.Parse("{ echo hi; }")
	require.NoError(t, err)

	var buf bytes.Buffer
	dumpProgram(&buf, prog, 0)

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "Compound", string(lines[0]))
	assert.Equal(t, "  Simple", string(lines[1]))
}

func TestExitErrCarriesCode(t *testing.T) {
	err := exitErr(7)
	ee, ok := err.(*exitError)
	require.True(t, ok)
	assert.Equal(t, 7, ee.code)
	assert.Equal(t, "exit 7", err.Error())
}

func TestLoadConfigMissingFileReturnsError(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfigEmptyPathWithoutHomeFileReturnsZeroValue(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.False(t, cfg.Posix)
}

func TestLoadConfigReadsExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oursh.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"posix": true}`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.Posix)
}
