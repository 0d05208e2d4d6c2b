package interp

import (
	"context"
	"fmt"
	"os"

	"github.com/oursh-shell/oursh/internal/parser"
	"github.com/oursh-shell/oursh/internal/shellerr"
)

// sourceFile implements the `.` builtin and profile loading: read path,
// parse it (consulting the AST cache), and evaluate the result on the
// current Runtime — no forked isolation, unlike Subshell. A read
// failure returns 1 (spec.md §4.5: "`.` failing to read a file returns
// 1"); a parse failure is a different outcome — it propagates as an
// abort through the ordinary parse-error exit code (spec.md §7), not a
// swallowed 1.
func (rt *Runtime) sourceFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oursh: .: %v\n", err)
		return 1, nil
	}

	if prog, ok := rt.Cache.Lookup(data); ok {
		return rt.evalProgram(ctx, prog)
	}

	prog, err := parser.Parse(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "oursh: .: %s: %v\n", path, err)
		return shellerr.ExitCode(shellerr.ErrParse), shellerr.ErrParse
	}
	rt.Cache.Store(data, prog)

	return rt.evalProgram(ctx, prog)
}
