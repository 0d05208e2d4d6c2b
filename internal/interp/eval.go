package interp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oursh-shell/oursh/internal/ast"
	"github.com/oursh-shell/oursh/internal/process"
)

// Eval walks cmd, realizing the POSIX semantics of spec.md §4.5 for
// every node kind, and returns the resulting exit status.
func (rt *Runtime) Eval(ctx context.Context, cmd ast.Command) (int, error) {
	switch cmd.Kind {
	case ast.KindSimple:
		return rt.evalSimple(ctx, cmd)
	case ast.KindCompound:
		return rt.evalProgram(ctx, cmd.Program)
	case ast.KindNot:
		status, err := rt.Eval(ctx, *cmd.Inner)
		if err != nil {
			return status, err
		}
		if status == 0 {
			return 1, nil
		}
		return 0, nil
	case ast.KindAnd:
		left, err := rt.Eval(ctx, *cmd.Left)
		if err != nil || left != 0 {
			return left, err
		}
		return rt.Eval(ctx, *cmd.Right)
	case ast.KindOr:
		left, err := rt.Eval(ctx, *cmd.Left)
		if err != nil || left == 0 {
			return left, err
		}
		return rt.Eval(ctx, *cmd.Right)
	case ast.KindSubshell:
		return rt.evalSubshell(ctx, cmd)
	case ast.KindPipeline:
		return rt.evalPipeline(ctx, cmd)
	case ast.KindBackground:
		return rt.evalBackground(ctx, cmd)
	case ast.KindLang:
		return rt.evalLang(ctx, cmd)
	case ast.KindIf:
		return rt.evalIf(ctx, cmd)
	case ast.KindWhile:
		return rt.evalLoop(ctx, cmd.Cond, cmd.Body, false)
	case ast.KindUntil:
		return rt.evalLoop(ctx, cmd.Cond, cmd.Body, true)
	case ast.KindFor:
		return rt.evalFor(ctx, cmd)
	default:
		return 1, fmt.Errorf("interp: unhandled command kind %v", cmd.Kind)
	}
}

// evalProgram evaluates every command of prog in order, propagating the
// last one's status (spec.md §4.5 "Compound").
func (rt *Runtime) evalProgram(ctx context.Context, prog *ast.Program) (int, error) {
	status := 0
	for _, c := range prog.Commands {
		var err error
		status, err = rt.Eval(ctx, c)
		if err != nil {
			return status, err
		}
		rt.Jobs.RetainAlive(os.Stdout)
	}
	return status, nil
}

func (rt *Runtime) evalIf(ctx context.Context, cmd ast.Command) (int, error) {
	for _, branch := range cmd.Branches {
		status, err := rt.evalProgram(ctx, branch.Cond)
		if err != nil {
			return status, err
		}
		if status == 0 {
			return rt.evalProgram(ctx, branch.Body)
		}
	}
	if cmd.Else != nil {
		return rt.evalProgram(ctx, cmd.Else)
	}
	return 0, nil
}

func (rt *Runtime) evalLoop(ctx context.Context, cond, body *ast.Program, until bool) (int, error) {
	status := 0
	for {
		condStatus, err := rt.evalProgram(ctx, cond)
		if err != nil {
			return condStatus, err
		}
		continueLoop := condStatus == 0
		if until {
			continueLoop = !continueLoop
		}
		if !continueLoop {
			return status, nil
		}
		status, err = rt.evalProgram(ctx, body)
		if err != nil {
			return status, err
		}
	}
}

func (rt *Runtime) evalFor(ctx context.Context, cmd ast.Command) (int, error) {
	status := 0
	for _, w := range cmd.ForItems {
		rt.SetVar(cmd.ForVar, expandWord(w, rt))
		var err error
		status, err = rt.evalProgram(ctx, cmd.Body)
		if err != nil {
			return status, err
		}
	}
	return status, nil
}

func (rt *Runtime) evalBackground(ctx context.Context, cmd ast.Command) (int, error) {
	prev := rt.Background
	rt.Background = true
	defer func() { rt.Background = prev }()
	return rt.Eval(ctx, *cmd.Inner)
}

// evalSimple applies assignments, expands words, applies redirects, and
// either dispatches a builtin or forks/execs — spec.md §4.5 "Simple".
func (rt *Runtime) evalSimple(ctx context.Context, cmd ast.Command) (int, error) {
	extra := make(map[string]string, len(cmd.Assignments))
	for _, a := range cmd.Assignments {
		value := expandAssignment(a, rt)
		extra[a.Name] = value
		if len(cmd.Words) == 0 {
			// Assignment-only command: persists as a shell variable, per
			// spec.md §8 scenario 6 ("X=1; echo $X" sees it, "X=1; printenv
			// X" does not — no implicit export).
			rt.SetVar(a.Name, value)
		}
	}

	if len(cmd.Words) == 0 {
		return 0, nil
	}

	argv := expandWords(cmd.Words, rt)

	io, opened, err := applyRedirects(rt.IO, cmd.Redirects)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
		closeAll(opened)
		return 1, nil
	}
	defer closeAll(opened)

	if fn, ok := builtins[argv[0]]; ok {
		return fn(ctx, rt, argv, io)
	}

	env := rt.ChildEnv(extra)

	if rt.Background {
		rt.Background = false
		return rt.spawnBackground(argv, env, io)
	}

	proc, err := process.Spawn(argv, env, io, 0)
	if err != nil {
		return rt.reportSpawnError(err)
	}
	return process.WaitContext(ctx, proc)
}

func (rt *Runtime) spawnBackground(argv, env []string, io process.IO) (int, error) {
	proc, err := process.Spawn(argv, env, io, 0)
	if err != nil {
		return rt.reportSpawnError(err)
	}
	grp := process.NewGroup(proc)
	id := rt.Jobs.Push(grp)
	fmt.Printf("[%d]\t%d\n", id, proc.Pid)
	return 0, nil
}

// reportSpawnError implements spec.md §4.4's "command not found" (127)
// vs. other exec failure (128) split, with an additional SPEC_FULL.md
// §11.2 fuzzy-match suggestion line.
func (rt *Runtime) reportSpawnError(err error) (int, error) {
	var notFound *process.NotFoundError
	if errors.As(err, &notFound) {
		fmt.Fprintf(os.Stderr, "oursh: %s: command not found\n", notFound.Name)
		if suggestion := rt.Suggest.Closest(notFound.Name); suggestion != "" {
			fmt.Fprintf(os.Stderr, "oursh: did you mean %q?\n", suggestion)
		}
		return 127, nil
	}
	fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
	return 128, nil
}
