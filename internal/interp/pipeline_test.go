package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oursh-shell/oursh/internal/ast"
	"github.com/oursh-shell/oursh/internal/parser"
)

func TestFlattenPipelineSingleStage(t *testing.T) {
	prog, err := parser.Parse("echo hi")
	require.NoError(t, err)
	stages := flattenPipeline(prog.Commands[0])
	require.Len(t, stages, 1)
	assert.Equal(t, "echo", stages[0].Words[0].Value)
}

func TestFlattenPipelineOrdersLeftToRight(t *testing.T) {
	prog, err := parser.Parse("a | b | c")
	require.NoError(t, err)
	require.Equal(t, ast.KindPipeline, prog.Commands[0].Kind)

	stages := flattenPipeline(prog.Commands[0])
	require.Len(t, stages, 3)
	assert.Equal(t, "a", stages[0].Words[0].Value)
	assert.Equal(t, "b", stages[1].Words[0].Value)
	assert.Equal(t, "c", stages[2].Words[0].Value)
}
