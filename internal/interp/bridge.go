package interp

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/oursh-shell/oursh/internal/ast"
	"github.com/oursh-shell/oursh/internal/process"
)

// defaultHashLang is the closed interpreter map of spec.md §4.5.
var defaultHashLang = map[string]string{
	"ruby":   "/usr/bin/env ruby",
	"node":   "/usr/bin/env node",
	"python": "/usr/bin/env python",
	"racket": "/usr/bin/env racket",
}

var bridgeCounter atomic.Uint64

// resolveShebangLine turns an ast.Interpreter into the literal text that
// follows "#!" in a materialized bridge file, per spec.md §4.5.
func resolveShebangLine(interp ast.Interpreter, extra map[string]string) (string, error) {
	switch interp.Kind {
	case ast.InterpreterPrimary:
		return "", fmt.Errorf("interp: the primary language is reserved and not implemented")
	case ast.InterpreterAlternate:
		return "/bin/sh", nil
	case ast.InterpreterHashLang:
		if line, ok := extra[interp.Name]; ok {
			return line, nil
		}
		if line, ok := defaultHashLang[interp.Name]; ok {
			return line, nil
		}
		return "", fmt.Errorf("interp: unknown language block tag %q", interp.Name)
	case ast.InterpreterShebang:
		return interp.Name, nil
	default:
		return "", fmt.Errorf("interp: unknown interpreter kind %d", interp.Kind)
	}
}

// evalLang materializes a uniquely named temporary executable ("#!" +
// interpreter line, then the block's body), runs it to completion, and
// removes it afterward regardless of exit status. Naming follows
// spec.md §9 open question 4 / SPEC_FULL.md §12.5: PID plus a
// process-local atomic counter, no UUID dependency.
func (rt *Runtime) evalLang(ctx context.Context, cmd ast.Command) (int, error) {
	line, err := resolveShebangLine(cmd.Interpreter, rt.Flags.HashLang)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
		return 127, nil
	}

	path := bridgeFilePath()
	content := "#!" + line + "\n" + cmd.Text
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
		return 1, nil
	}
	defer os.Remove(path)

	if err := os.Chmod(path, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
		return 1, nil
	}

	proc, err := process.Spawn([]string{path}, rt.ChildEnv(nil), rt.IO, 0)
	if err != nil {
		return rt.reportSpawnError(err)
	}
	return process.WaitContext(ctx, proc)
}

func bridgeFilePath() string {
	n := bridgeCounter.Add(1)
	dir := os.TempDir()
	return fmt.Sprintf("%s/.oursh_bridge-%d-%d", dir, os.Getpid(), n)
}
