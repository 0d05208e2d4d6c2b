package interp

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupShadowsProcessEnv(t *testing.T) {
	t.Setenv("OURSH_TEST_VAR", "from-env")
	rt := New(Flags{})

	v, ok := rt.Lookup("OURSH_TEST_VAR")
	require.True(t, ok)
	assert.Equal(t, "from-env", v)

	rt.SetVar("OURSH_TEST_VAR", "from-shell")
	v, ok = rt.Lookup("OURSH_TEST_VAR")
	require.True(t, ok)
	assert.Equal(t, "from-shell", v)
}

func TestChildEnvPrecedenceExtraOverridesExportedOverridesOS(t *testing.T) {
	t.Setenv("OURSH_TEST_VAR", "os-value")
	rt := New(Flags{})
	rt.Export("OURSH_TEST_VAR", "exported-value")

	env := rt.ChildEnv(map[string]string{"OURSH_TEST_VAR": "extra-value"})
	assert.Contains(t, env, "OURSH_TEST_VAR=extra-value")
	assert.NotContains(t, env, "OURSH_TEST_VAR=os-value")
	assert.NotContains(t, env, "OURSH_TEST_VAR=exported-value")
}

func TestChildEnvWithoutExtraUsesExportedValue(t *testing.T) {
	rt := New(Flags{})
	rt.Export("OURSH_TEST_VAR2", "exported-value")
	env := rt.ChildEnv(nil)
	assert.Contains(t, env, "OURSH_TEST_VAR2=exported-value")
}

func TestExportExistingPullsFromProcessEnvWhenUnset(t *testing.T) {
	t.Setenv("OURSH_TEST_VAR3", "inherited")
	rt := New(Flags{})
	rt.ExportExisting("OURSH_TEST_VAR3")
	env := rt.ChildEnv(nil)
	assert.Contains(t, env, "OURSH_TEST_VAR3=inherited")
}

func TestExportedLinesSortedAndQuoted(t *testing.T) {
	rt := New(Flags{})
	rt.Export("Z", "3")
	rt.Export("A", "1")
	lines := rt.ExportedLines()
	require.Len(t, lines, 2)
	assert.Equal(t, `declare -x A="1"`, lines[0])
	assert.Equal(t, `declare -x Z="3"`, lines[1])
}

func TestIndexByteFindsFirstOccurrence(t *testing.T) {
	assert.Equal(t, 3, indexByte("ABC=DEF=GHI", '='))
	assert.Equal(t, -1, indexByte("NOEQUALS", '='))
}

func TestNewRuntimeHasInheritedIO(t *testing.T) {
	rt := New(Flags{})
	assert.Equal(t, os.Stdin, rt.IO.Stdin)
	assert.Equal(t, os.Stdout, rt.IO.Stdout)
}
