package interp

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oursh-shell/oursh/internal/ast"
)

func TestCopyStringMapIsIndependentOfSource(t *testing.T) {
	src := map[string]string{"X": "1"}
	dst := copyStringMap(src)
	dst["X"] = "2"
	assert.Equal(t, "1", src["X"])
}

func TestCopyBoolMapIsIndependentOfSource(t *testing.T) {
	src := map[string]bool{"X": true}
	dst := copyBoolMap(src)
	delete(dst, "X")
	assert.True(t, src["X"])
}

// TestPayloadRoundTripsThroughCBOR exercises the exact encode/decode
// pair forkEval and RunInternalEval use to hand a program and variable
// scope across the re-exec boundary.
func TestPayloadRoundTripsThroughCBOR(t *testing.T) {
	prog := &ast.Program{
		Commands: []ast.Command{
			ast.Simple(
				[]ast.Assignment{{Name: "X", Value: "1"}},
				[]ast.Word{{Kind: ast.WordBare, Value: "echo"}},
				nil,
				ast.Command{}.Pos,
			),
		},
	}
	p := payload{
		Program:       prog,
		Vars:          map[string]string{"HOME": "/home/me"},
		Exported:      map[string]bool{"HOME": true},
		Flags:         Flags{Posix: true},
		SubshellDepth: 3,
	}

	data, err := cbor.Marshal(p)
	require.NoError(t, err)

	var got payload
	require.NoError(t, cbor.Unmarshal(data, &got))

	assert.Equal(t, p.Vars, got.Vars)
	assert.Equal(t, p.Exported, got.Exported)
	assert.Equal(t, p.Flags, got.Flags)
	assert.Equal(t, p.SubshellDepth, got.SubshellDepth)
	require.Len(t, got.Program.Commands, 1)
	assert.Equal(t, "X", got.Program.Commands[0].Assignments[0].Name)
	assert.Equal(t, "echo", got.Program.Commands[0].Words[0].Value)
}
