package interp

import (
	"context"
	"fmt"
	"os"

	"github.com/oursh-shell/oursh/internal/ast"
	"github.com/oursh-shell/oursh/internal/process"
)

// flattenPipeline unwraps the left-nested Pipeline tree the parser
// builds for "a | b | c" (Pipeline(Pipeline(a, b), c)) into an ordered
// list of stages.
func flattenPipeline(cmd ast.Command) []ast.Command {
	if cmd.Kind != ast.KindPipeline {
		return []ast.Command{cmd}
	}
	return append(flattenPipeline(*cmd.Left), *cmd.Right)
}

// evalPipeline implements spec.md §4.5 "Pipeline": a pipe(2) per
// adjacent pair, every stage launched as its own process in one shared
// process group (SPEC_FULL.md §13.5 — real pipes, not shelled-out
// os/exec piping), parent closes every fd it doesn't need, waits for
// every stage, and the rightmost stage's status is the pipeline's.
type pipeEnds struct{ r, w *os.File }

func (rt *Runtime) evalPipeline(ctx context.Context, cmd ast.Command) (int, error) {
	stages := flattenPipeline(cmd)

	pipes := make([]pipeEnds, len(stages)-1)
	for i := range pipes {
		r, w, err := os.Pipe()
		if err != nil {
			fmt.Fprintf(os.Stderr, "oursh: pipe: %v\n", err)
			return 1, nil
		}
		pipes[i] = pipeEnds{r, w}
	}

	procs := make([]*process.Process, len(stages))
	pgid := 0
	for i, stage := range stages {
		io := rt.IO
		if i > 0 {
			io.Stdin = pipes[i-1].r
		}
		if i < len(stages)-1 {
			io.Stdout = pipes[i].w
		}

		prog := &ast.Program{Commands: []ast.Command{stage}}
		proc, err := rt.forkEval(prog, io, pgid)
		if err != nil {
			fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
			closePipes(pipes)
			killAll(procs[:i])
			return 1, nil
		}
		if i == 0 {
			pgid = proc.Pid
		}
		procs[i] = proc
	}

	closePipes(pipes)

	var status int
	var err error
	for i, proc := range procs {
		s, e := process.WaitContext(ctx, proc)
		if i == len(procs)-1 {
			status, err = s, e
		}
	}
	return status, err
}

func closePipes(pipes []pipeEnds) {
	for _, p := range pipes {
		p.r.Close()
		p.w.Close()
	}
}

func killAll(procs []*process.Process) {
	for _, p := range procs {
		if p != nil {
			p.Kill()
		}
	}
}
