// Re-exec based process isolation.
//
// Go programs cannot safely call POSIX fork(2) directly once the
// runtime has started extra OS threads (the garbage collector, the
// network poller, etc. may hold locks mid-fork in the child, which never
// resumes their owning threads). The idiomatic Go substitute — used by
// container runtimes and init systems for the same reason — is to
// re-exec the same binary with a hidden internal entrypoint and hand it
// just enough state to continue. oursh uses it for exactly the two
// places spec.md requires real process isolation: Subshell (§9 open
// question 1 / SPEC_FULL.md §12.6) and every stage of a Pipeline
// (§4.5).
//
// InternalEvalFlag is the argv[1] cmd/oursh recognizes to enter this
// mode; ordinary invocations never see it.
package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/fxamacker/cbor/v2"

	"github.com/oursh-shell/oursh/internal/ast"
	"github.com/oursh-shell/oursh/internal/process"
)

// InternalEvalFlag is the hidden argv[1] that selects re-exec mode.
const InternalEvalFlag = "--oursh-internal-eval"

// payload is the state a re-exec child needs to continue evaluation:
// the AST fragment to run, the parent's shell-variable scope at fork
// time, and the invocation flags. It travels over fd 3 as CBOR.
type payload struct {
	Program       *ast.Program
	Vars          map[string]string
	Exported      map[string]bool
	Flags         Flags
	SubshellDepth int
}

// forkEval spawns a fresh child instance of the oursh binary to evaluate
// prog with io as its standard streams, joining pgid (0 to become a new
// group leader). It returns immediately after starting the child; the
// caller waits on the returned Process.
func (rt *Runtime) forkEval(prog *ast.Program, io process.IO, pgid int) (*process.Process, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("interp: resolving own executable: %w", err)
	}

	rt.varsMu.RLock()
	p := payload{
		Program:       prog,
		Vars:          copyStringMap(rt.vars),
		Exported:      copyBoolMap(rt.exported),
		Flags:         rt.Flags,
		SubshellDepth: rt.subshellDepth + 1,
	}
	rt.varsMu.RUnlock()

	data, err := cbor.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("interp: encoding subprocess payload: %w", err)
	}

	payloadRead, payloadWrite, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("interp: creating payload pipe: %w", err)
	}

	argv := []string{self, InternalEvalFlag}
	cmd := exec.Command(self, InternalEvalFlag)
	cmd.Stdin = io.Stdin
	cmd.Stdout = io.Stdout
	cmd.Stderr = io.Stderr
	cmd.ExtraFiles = []*os.File{payloadRead}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}

	proc, err := process.SpawnCmd(argv, cmd)
	payloadRead.Close()
	if err != nil {
		payloadWrite.Close()
		return nil, err
	}

	go func() {
		defer payloadWrite.Close()
		_, _ = payloadWrite.Write(data)
	}()

	return proc, nil
}

// RunInternalEval is the entrypoint cmd/oursh calls when invoked with
// InternalEvalFlag: it decodes the payload from fd 3, rebuilds a Runtime
// from it, evaluates the program, and returns the exit status for the
// caller to os.Exit with.
func RunInternalEval(ctx context.Context) int {
	pf := os.NewFile(3, "oursh-payload")
	if pf == nil {
		fmt.Fprintln(os.Stderr, "oursh: internal eval: missing payload fd")
		return 1
	}
	defer pf.Close()

	data, err := readAll(pf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oursh: internal eval: %v\n", err)
		return 1
	}

	var p payload
	if err := cbor.Unmarshal(data, &p); err != nil {
		fmt.Fprintf(os.Stderr, "oursh: internal eval: decoding payload: %v\n", err)
		return 1
	}

	rt := New(p.Flags)
	rt.subshellDepth = p.SubshellDepth
	for name, value := range p.Vars {
		rt.vars[name] = value
	}
	for name := range p.Exported {
		rt.exported[name] = true
	}

	status, err := rt.evalProgram(ctx, p.Program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
	}
	return status
}

func readAll(f *os.File) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, 32*1024)
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf, nil
			}
			return buf, err
		}
	}
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
