// Builtin dispatch, grounded on original_source/src/program/posix/
// builtin.rs's per-builtin Run impls, enriched per SPEC_FULL.md
// §12.3/§12.4 (export with no args, the command builtin).
package interp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/oursh-shell/oursh/internal/process"
)

type builtinFunc func(ctx context.Context, rt *Runtime, argv []string, io process.IO) (int, error)

var builtins = map[string]builtinFunc{
	":":       builtinColon,
	"true":    builtinTrue,
	"false":   builtinFalse,
	".":       builtinDot,
	"cd":      builtinCd,
	"command": builtinCommand,
	"exit":    builtinExit,
	"export":  builtinExport,
	"jobs":    builtinJobs,
	"wait":    builtinWait,
}

func builtinColon(_ context.Context, _ *Runtime, _ []string, _ process.IO) (int, error) {
	return 0, nil
}

func builtinTrue(_ context.Context, _ *Runtime, _ []string, _ process.IO) (int, error) {
	return 0, nil
}

func builtinFalse(_ context.Context, _ *Runtime, _ []string, _ process.IO) (int, error) {
	return 1, nil
}

// builtinDot implements `.`: read the named file and feed it to
// parse-and-run on the current runtime (no forked isolation, unlike
// Subshell — spec.md §4.5's builtin table).
func builtinDot(ctx context.Context, rt *Runtime, argv []string, io process.IO) (int, error) {
	if len(argv) < 2 {
		fmt.Fprintln(io.Stderr, "oursh: .: filename argument required")
		return 1, nil
	}
	return rt.sourceFile(ctx, argv[1])
}

// builtinCd implements `cd`: no arg goes to $HOME, one arg to that path,
// updating $PWD; any os error becomes exit 1 (spec.md §4.5).
func builtinCd(_ context.Context, rt *Runtime, argv []string, io process.IO) (int, error) {
	target := ""
	if len(argv) >= 2 {
		target = argv[1]
	}
	if target == "" {
		home, ok := rt.Lookup("HOME")
		if !ok || home == "" {
			fmt.Fprintln(io.Stderr, "oursh: cd: HOME not set")
			return 1, nil
		}
		target = home
	}
	if err := os.Chdir(target); err != nil {
		fmt.Fprintf(io.Stderr, "oursh: cd: %v\n", err)
		return 1, nil
	}
	pwd, err := os.Getwd()
	if err == nil {
		rt.SetVar("PWD", pwd)
	}
	return 0, nil
}

// builtinCommand implements the POSIX-standard subset of `command`
// (SPEC_FULL.md §12.4): bypass builtin dispatch and always run the
// external program, or with -v print its resolved path.
func builtinCommand(ctx context.Context, rt *Runtime, argv []string, io process.IO) (int, error) {
	if len(argv) < 2 {
		fmt.Fprintln(io.Stderr, "oursh: command: NAME argument required")
		return 1, nil
	}

	if argv[1] == "-v" {
		if len(argv) < 3 {
			fmt.Fprintln(io.Stderr, "oursh: command: -v: NAME argument required")
			return 1, nil
		}
		path, err := exec.LookPath(argv[2])
		if err != nil {
			return 1, nil
		}
		fmt.Fprintln(io.Stdout, path)
		return 0, nil
	}

	rest := argv[1:]
	proc, err := process.Spawn(rest, rt.ChildEnv(nil), io, 0)
	if err != nil {
		return rt.reportSpawnError(err)
	}
	return process.WaitContext(ctx, proc)
}

// builtinExit implements `exit`: optional numeric argument, default 0,
// terminates the process immediately (spec.md §4.5).
func builtinExit(_ context.Context, _ *Runtime, argv []string, io process.IO) (int, error) {
	code := 0
	if len(argv) >= 2 {
		n, err := strconv.Atoi(argv[1])
		if err != nil {
			fmt.Fprintf(io.Stderr, "oursh: exit: %s: numeric argument required\n", argv[1])
			os.Exit(2)
		}
		code = n
	}
	os.Exit(code)
	return code, nil // unreachable
}

// builtinExport implements `export`: K=V pairs set and export; a bare
// NAME exports an already-set variable; no arguments lists the exported
// environment (SPEC_FULL.md §12.3, filling the original's
// unimplemented!() zero-arg case).
func builtinExport(_ context.Context, rt *Runtime, argv []string, io process.IO) (int, error) {
	if len(argv) == 1 {
		for _, line := range rt.ExportedLines() {
			fmt.Fprintln(io.Stdout, line)
		}
		return 0, nil
	}
	for _, arg := range argv[1:] {
		if i := strings.IndexByte(arg, '='); i >= 0 {
			rt.Export(arg[:i], arg[i+1:])
		} else {
			rt.ExportExisting(arg)
		}
	}
	return 0, nil
}

// builtinJobs prints the job table; `jobs --format=yaml` switches to a
// structured YAML listing (SPEC_FULL.md §11.3).
func builtinJobs(_ context.Context, rt *Runtime, argv []string, io process.IO) (int, error) {
	yamlFormat := false
	for _, a := range argv[1:] {
		if a == "--format=yaml" {
			yamlFormat = true
		}
	}
	if yamlFormat {
		data, err := rt.Jobs.MarshalYAML()
		if err != nil {
			fmt.Fprintf(io.Stderr, "oursh: jobs: %v\n", err)
			return 1, nil
		}
		io.Stdout.Write(data)
		return 0, nil
	}
	for _, j := range rt.Jobs.List() {
		fmt.Fprintf(io.Stdout, "[%d]\t%d\t%s\n", j.ID, j.Group.Leader.Pid, j.Group.Leader.Body())
	}
	return 0, nil
}

// builtinWait implements `wait`: with no arguments, wait for every
// tracked background job; with pid arguments, wait only for those.
func builtinWait(_ context.Context, rt *Runtime, argv []string, io process.IO) (int, error) {
	jobs := rt.Jobs.List()
	status := 0

	if len(argv) == 1 {
		for _, j := range jobs {
			s, err := j.Group.Leader.Wait()
			if err != nil {
				fmt.Fprintf(io.Stderr, "oursh: wait: %v\n", err)
				continue
			}
			status = s
		}
		rt.Jobs.RetainAlive(io.Stdout)
		return status, nil
	}

	want := make(map[int]bool, len(argv)-1)
	for _, a := range argv[1:] {
		pid, err := strconv.Atoi(a)
		if err != nil {
			fmt.Fprintf(io.Stderr, "oursh: wait: %s: not a pid\n", a)
			return 1, nil
		}
		want[pid] = true
	}
	for _, j := range jobs {
		if !want[j.Group.Leader.Pid] {
			continue
		}
		s, err := j.Group.Leader.Wait()
		if err != nil {
			fmt.Fprintf(io.Stderr, "oursh: wait: %v\n", err)
			continue
		}
		status = s
	}
	rt.Jobs.RetainAlive(io.Stdout)
	return status, nil
}
