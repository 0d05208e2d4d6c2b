// Command oursh is a POSIX-compatible shell with a language-bridge
// block extension. Flag surface grounded on spec.md §6; construction
// style (a single rootCmd with RunE, explicit SilenceErrors/
// SilenceUsage, cancellable context on SIGINT) grounded on the teacher's
// cli/main.go.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oursh-shell/oursh/internal/ast"
	"github.com/oursh-shell/oursh/internal/config"
	"github.com/oursh-shell/oursh/internal/interp"
	"github.com/oursh-shell/oursh/internal/parser"
	"github.com/oursh-shell/oursh/internal/shellerr"
)

func main() {
	// The re-exec entrypoint used for Subshell/Pipeline process isolation
	// (internal/interp's rexec.go) must be checked before cobra ever sees
	// argv, since it is not a user-facing flag.
	if len(os.Args) >= 2 && os.Args[1] == interp.InternalEvalFlag {
		ctx, cancel := newCancellableContext()
		defer cancel()
		os.Exit(interp.RunInternalEval(ctx))
	}

	os.Exit(run())
}

func run() int {
	var (
		cmdString   string
		stdinMode   bool
		interactive bool
		login       bool
		dumpAST     bool
		alternate   bool
		noProfile   bool
		posixMode   bool
		configPath  string
	)

	rootCmd := &cobra.Command{
		Use:           "oursh [options] [file [args...]]",
		Short:         "A POSIX-compatible shell with a language-bridge extension",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := newCancellableContext()
			defer cancel()

			flags := interp.Flags{
				Posix:     posixMode,
				Alternate: alternate,
				Login:     login,
				NoProfile: noProfile,
				DumpAST:   dumpAST,
			}

			if configPath != "" || !noProfile {
				cfg, err := loadConfig(configPath)
				if err != nil {
					fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
					cmd.SilenceUsage = true
					return exitErr(1)
				}
				if cfg != nil {
					flags.Posix = flags.Posix || cfg.Posix
					flags.Alternate = flags.Alternate || cfg.Alternate
					flags.Login = flags.Login || cfg.Login
					flags.HashLang = cfg.HashLang
				}
			}

			rt := interp.New(flags)

			var source string
			switch {
			case cmdString != "":
				source = cmdString
			case stdinMode || (len(args) == 0 && !interactive):
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
					return exitErr(shellerr.ExitCode(shellerr.ErrRead))
				}
				source = string(data)
			case len(args) > 0:
				data, err := os.ReadFile(args[0])
				if err != nil {
					fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
					return exitErr(shellerr.ExitCode(shellerr.ErrRead))
				}
				source = string(data)
			default:
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
					return exitErr(shellerr.ExitCode(shellerr.ErrRead))
				}
				source = string(data)
			}

			prog, err := parser.Parse(source)
			if err != nil {
				fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
				return exitErr(shellerr.ExitCode(shellerr.ErrParse))
			}

			if dumpAST {
				dumpProgram(os.Stderr, prog, 0)
			}

			status := 0
			for _, c := range prog.Commands {
				var err error
				status, err = rt.Eval(ctx, c)
				if err != nil {
					fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
				}
			}
			if status != 0 {
				return exitErr(status)
			}
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&cmdString, "command", "c", "", "execute cmd_string and exit")
	rootCmd.Flags().BoolVarP(&stdinMode, "stdin", "s", false, "read commands from standard input")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "force interactive mode")
	rootCmd.Flags().BoolVar(&login, "login", false, "act as a login shell")
	rootCmd.Flags().BoolVarP(&dumpAST, "ast", "a", false, "dump the parsed AST to stderr")
	rootCmd.Flags().BoolVarP(&alternate, "alternate", "#", false, "use the alternate grammar")
	rootCmd.Flags().BoolVar(&noProfile, "noprofile", false, "skip startup file sourcing")
	rootCmd.Flags().BoolVar(&posixMode, "posix", false, "enable strict POSIX mode")
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a structured config file (SPEC_FULL.md §10.4)")

	exitCode := 0
	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(*exitError); ok {
			exitCode = ee.code
		} else {
			fmt.Fprintf(os.Stderr, "oursh: %v\n", err)
			exitCode = 1
		}
	}
	return exitCode
}

type exitError struct{ code int }

func (e *exitError) Error() string { return "exit " + strconv.Itoa(e.code) }

func exitErr(code int) error { return &exitError{code: code} }

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr)
		cancel()
	}()
	return ctx, cancel
}

// dumpProgram renders a Program as an indented tree, for -a/--ast.
func dumpProgram(w io.Writer, prog *ast.Program, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range prog.Commands {
		fmt.Fprintf(w, "%s%s\n", indent, c.Kind)
		switch c.Kind {
		case ast.KindCompound, ast.KindSubshell:
			dumpProgram(w, c.Program, depth+1)
		case ast.KindIf:
			for _, b := range c.Branches {
				dumpProgram(w, b.Cond, depth+1)
				dumpProgram(w, b.Body, depth+1)
			}
			if c.Else != nil {
				dumpProgram(w, c.Else, depth+1)
			}
		case ast.KindWhile, ast.KindUntil:
			dumpProgram(w, c.Cond, depth+1)
			dumpProgram(w, c.Body, depth+1)
		case ast.KindFor:
			dumpProgram(w, c.Body, depth+1)
		}
	}
}
