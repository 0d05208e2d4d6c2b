package interp

import (
	"context"
	"fmt"
	"os"

	"github.com/oursh-shell/oursh/internal/ast"
	"github.com/oursh-shell/oursh/internal/process"
)

// maxSubshellDepth guards against runaway recursive ( ( ( ... ) ) )
// nesting spawning unbounded child processes.
const maxSubshellDepth = 64

// evalSubshell implements spec.md §9 open question 1 / SPEC_FULL.md
// §12.6: a Subshell forks a child that evaluates the inner Program in
// isolation — environment and working-directory changes made inside
// `( ... )` never reach the parent.
func (rt *Runtime) evalSubshell(ctx context.Context, cmd ast.Command) (int, error) {
	if rt.subshellDepth >= maxSubshellDepth {
		fmt.Fprintln(os.Stderr, "oursh: subshell nesting too deep")
		return 1, nil
	}

	proc, err := rt.forkEval(cmd.Program, rt.IO, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
		return 1, nil
	}
	return process.WaitContext(ctx, proc)
}
