// Package process implements fork/exec and process-group job control for
// the interpreter: a Process wraps one child PID, a ProcessGroup is the
// leader plus any pipeline members sharing its pgid, and IO describes the
// stdin/stdout/stderr file descriptor plan a child inherits after dup2.
//
// Grounded on original_source's process/mod.rs and process/io.rs for the
// Process/IO field shapes and the 127 (command not found) / 128 (other
// exec failure) exit-code contract, generalized from the original's
// fork(2)+execvp via nix to Go's os/exec plus
// syscall.SysProcAttr{Setpgid: true} (same process-group
// discipline core/decorator/local_session_unix.go uses for cancellation,
// extended here to full job control).
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// IO is the file-descriptor triple [stdin, stdout, stderr] a Process
// inherits. The zero value means "inherit the shell's own descriptors".
type IO struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Inherited is the default IO: the shell's own standard streams.
func Inherited() IO {
	return IO{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Process is one spawned child, the unit Jobs and ProcessGroup track.
type Process struct {
	Argv []string
	Pid  int
	cmd  *exec.Cmd
}

// Body renders the process's argv the way job-status lines print it.
func (p *Process) Body() string {
	return strings.Join(p.Argv, " ")
}

// Spawn starts argv as a new child. When pgid is 0 the child becomes its
// own process group leader (the first stage of a pipeline or a standalone
// background job); a non-zero pgid joins an existing group (later
// pipeline stages).
func Spawn(argv []string, env []string, io IO, pgid int) (*Process, error) {
	if len(argv) == 0 {
		return nil, errors.New("process: empty argv")
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, &NotFoundError{Name: argv[0]}
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Args = argv
	cmd.Env = env
	cmd.Stdin = io.Stdin
	cmd.Stdout = io.Stdout
	cmd.Stderr = io.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    pgid,
	}

	return SpawnCmd(argv, cmd)
}

// SpawnCmd starts an already-configured exec.Cmd and wraps it as a
// Process. Used directly by callers that need more control over the
// exec.Cmd than Spawn exposes — e.g. the subshell/pipeline re-exec path,
// which attaches ExtraFiles to pass a serialized AST to a child instance
// of the shell binary.
func SpawnCmd(argv []string, cmd *exec.Cmd) (*Process, error) {
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("process: exec %s: %w", argv[0], err)
	}
	return &Process{Argv: argv, Pid: cmd.Process.Pid, cmd: cmd}, nil
}

// NotFoundError reports an argv[0] that could not be resolved on $PATH,
// the trigger for the shell's exit-127 convention and its
// command-not-found suggestion (internal/suggest).
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: command not found", e.Name)
}

// Wait blocks until the process exits and returns its exit status. A
// process killed by a signal reports 128+signal, the shell convention
// mirrored from original_source's exec failure path.
func (p *Process) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return 128 + int(ws.Signal()), nil
			}
			return ws.ExitStatus(), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// TryWait polls the process non-blockingly (WNOHANG). alive is true if
// the process has not yet exited; code and signaled are only meaningful
// when alive is false.
func (p *Process) TryWait() (alive bool, code int, signaled bool, sig syscall.Signal, err error) {
	var ws unix.WaitStatus
	wpid, werr := unix.Wait4(p.Pid, &ws, unix.WNOHANG, nil)
	if werr != nil {
		if errors.Is(werr, unix.ECHILD) {
			return false, 0, false, 0, nil
		}
		return false, 0, false, 0, werr
	}
	if wpid == 0 {
		return true, 0, false, 0, nil
	}
	if ws.Signaled() {
		return false, 0, true, ws.Signal(), nil
	}
	return false, ws.ExitStatus(), false, 0, nil
}

// Signal delivers sig to the process's entire group (negative pid), the
// standard way to reach a pipeline's children as well as its leader.
func (p *Process) Signal(sig syscall.Signal) error {
	return syscall.Kill(-p.Pid, sig)
}

// Kill is a convenience wrapper for the common cancellation path: send
// SIGKILL to the whole group, matching
// core/decorator/local_session_unix.go's terminateCommandOnCancel.
func (p *Process) Kill() {
	_ = p.Signal(syscall.SIGKILL)
}

// WaitContext blocks on Wait but also watches ctx; on cancellation it
// kills the process group and returns ctx.Err() once the child has
// actually exited, so the caller never leaks a zombie.
func WaitContext(ctx context.Context, p *Process) (int, error) {
	done := make(chan struct{})
	var code int
	var err error
	go func() {
		code, err = p.Wait()
		close(done)
	}()

	select {
	case <-done:
		return code, err
	case <-ctx.Done():
		p.Kill()
		<-done
		return code, ctx.Err()
	}
}

// ProcessGroup is the leader process of a pipeline or background job plus
// any additional members sharing its pgid. Pgid is always the leader's
// PID, per setpgid(2) convention.
type ProcessGroup struct {
	Leader  *Process
	Members []*Process
}

func NewGroup(leader *Process) *ProcessGroup {
	return &ProcessGroup{Leader: leader}
}

func (g *ProcessGroup) Add(p *Process) {
	g.Members = append(g.Members, p)
}

func (g *ProcessGroup) Pgid() int {
	return g.Leader.Pid
}

// Signal reaches every process in the group via the group's negative
// pgid — a single kill(2) call suffices, but Signal is kept on the group
// type as the natural call site for job control.
func (g *ProcessGroup) Signal(sig syscall.Signal) error {
	return syscall.Kill(-g.Pgid(), sig)
}
