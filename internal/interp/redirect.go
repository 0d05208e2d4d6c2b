package interp

import (
	"fmt"
	"os"
	"strconv"

	"github.com/oursh-shell/oursh/internal/ast"
	"github.com/oursh-shell/oursh/internal/process"
)

// applyRedirects opens every redirect's target file against base and
// returns the resulting IO plan plus the files that must be closed in
// the parent once the child has inherited them (spec.md §4.3's
// "redirection application" + §3's fd-safety invariant). Duplicate
// targets (n<&m / n>&m) are resolved by aliasing an existing slot of
// base rather than opening anything.
func applyRedirects(base process.IO, redirects []ast.Redirect) (process.IO, []*os.File, error) {
	io := base
	var opened []*os.File

	for _, r := range redirects {
		if r.Duplicate {
			// n>&m / n<&m: Filename holds the source fd (m) as decimal
			// text; FD is the target slot (n) being overwritten.
			srcFD, err := strconv.Atoi(r.Filename)
			if err != nil {
				return process.IO{}, opened, fmt.Errorf("interp: invalid duplicate target %q: %w", r.Filename, err)
			}
			src, err := fdFile(io, srcFD)
			if err != nil {
				return process.IO{}, opened, err
			}
			setFD(&io, targetFD(r), src)
			continue
		}

		flags, err := openFlags(r)
		if err != nil {
			return process.IO{}, opened, err
		}
		f, err := os.OpenFile(r.Filename, flags, 0o644)
		if err != nil {
			return process.IO{}, opened, fmt.Errorf("%s: %w", r.Filename, err)
		}
		opened = append(opened, f)
		setFD(&io, targetFD(r), f)
	}

	return io, opened, nil
}

// targetFD resolves the slot a redirect installs into. The per-kind
// default (0 for read forms, 1 for write forms) for an absent IoNumber
// is already filled into r.FD by the parser.
func targetFD(r ast.Redirect) int {
	return r.FD
}

func openFlags(r ast.Redirect) (int, error) {
	switch r.Kind {
	case ast.RedirectRead:
		return os.O_RDONLY, nil
	case ast.RedirectRW:
		return os.O_RDWR | os.O_CREATE, nil
	case ast.RedirectWrite:
		flags := os.O_WRONLY | os.O_CREATE
		if r.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		return flags, nil
	default:
		return 0, fmt.Errorf("interp: unknown redirect kind %d", r.Kind)
	}
}

func fdFile(io process.IO, fd int) (*os.File, error) {
	switch fd {
	case 0:
		return io.Stdin, nil
	case 1:
		return io.Stdout, nil
	case 2:
		return io.Stderr, nil
	default:
		return nil, fmt.Errorf("interp: duplicating fd %d is not supported", fd)
	}
}

func setFD(io *process.IO, fd int, f *os.File) {
	switch fd {
	case 0:
		io.Stdin = f
	case 1:
		io.Stdout = f
	case 2:
		io.Stderr = f
	}
}

// closeAll closes every file opened by applyRedirects once the child has
// started (or failed to start), avoiding descriptor leaks in the parent.
func closeAll(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
