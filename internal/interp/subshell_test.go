package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oursh-shell/oursh/internal/ast"
)

func TestEvalSubshellRejectsExcessiveNesting(t *testing.T) {
	rt := New(Flags{})
	rt.subshellDepth = maxSubshellDepth

	status, err := rt.evalSubshell(context.Background(), ast.Command{
		Kind:    ast.KindSubshell,
		Program: &ast.Program{},
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, status)
}
