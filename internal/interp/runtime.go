// Package interp is the tree-walking evaluator: it realizes the POSIX
// semantics for every ast.Command kind, dispatches builtins, and drives
// the process layer for everything else. Grounded on the teacher's
// runtime/executor package (the dispatch-by-node-kind shape and
// context.Context-threaded execution of executor.go/shell_worker.go)
// combined with original_source/src/program/posix/mod.rs's `Run for
// Command` match arms, the real source of truth for exact per-node POSIX
// semantics since the teacher's own node kinds belong to a different
// language.
package interp

import (
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/oursh-shell/oursh/internal/cache"
	"github.com/oursh-shell/oursh/internal/job"
	"github.com/oursh-shell/oursh/internal/process"
	"github.com/oursh-shell/oursh/internal/suggest"
)

// Flags mirrors the parsed shell invocation options threaded through
// Runtime (spec.md §3's Runtime.args).
type Flags struct {
	Posix      bool
	Alternate  bool
	Login      bool
	NoProfile  bool
	DumpAST    bool
	HashLang   map[string]string // extends the closed HashLang table (SPEC_FULL.md §10.4)
}

// Runtime is the mutable context threaded through evaluation: the
// "background" flag the next Simple command consumes, the current I/O
// plan, the shared job table, shell-local variables, and the set of
// exported names. Single-owner, no interior aliasing beyond the mutex
// guarding Vars (spec.md §9 "Cyclic/shared ownership": encapsulate, don't
// deep-alias).
type Runtime struct {
	Background bool
	IO         process.IO
	Jobs       *job.Table
	Flags      Flags
	Cache      *cache.Store
	Suggest    *suggest.Cache

	varsMu   sync.RWMutex
	vars     map[string]string
	exported map[string]bool

	subshellDepth int

	Logger *slog.Logger
}

// New builds a fresh top-level Runtime.
func New(flags Flags) *Runtime {
	return &Runtime{
		IO:       process.Inherited(),
		Jobs:     job.NewTable(),
		Flags:    flags,
		Cache:    cache.Open(),
		Suggest:  &suggest.Cache{},
		vars:     make(map[string]string),
		exported: make(map[string]bool),
		Logger:   newLogger(),
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("OURSH_DEBUG") != "" || os.Getenv("OURSH_DEBUG_JOBS") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// SetVar sets a shell-local variable, visible to $-expansion but not
// inherited by children unless also exported (spec.md §8 scenario 6:
// "X=1; printenv X" sees nothing).
func (rt *Runtime) SetVar(name, value string) {
	rt.varsMu.Lock()
	defer rt.varsMu.Unlock()
	rt.vars[name] = value
}

// Export marks name as exported, so its current (and future) value is
// included in children's environment.
func (rt *Runtime) Export(name, value string) {
	rt.varsMu.Lock()
	defer rt.varsMu.Unlock()
	rt.vars[name] = value
	rt.exported[name] = true
}

// ExportExisting marks an already-set variable as exported without
// changing its value; used by `export NAME` (no `=`).
func (rt *Runtime) ExportExisting(name string) {
	rt.varsMu.Lock()
	defer rt.varsMu.Unlock()
	rt.exported[name] = true
	if _, ok := rt.vars[name]; !ok {
		if v, ok := os.LookupEnv(name); ok {
			rt.vars[name] = v
		}
	}
}

// Lookup implements expand.Lookup: shell-local variables shadow the
// process environment, falling back to it for names never assigned in
// this shell.
func (rt *Runtime) Lookup(name string) (string, bool) {
	rt.varsMu.RLock()
	v, ok := rt.vars[name]
	rt.varsMu.RUnlock()
	if ok {
		return v, true
	}
	return os.LookupEnv(name)
}

// ChildEnv builds the environment slice for a spawned child: the
// process's own environment, overridden by every exported shell
// variable's current value, overridden in turn by extra (the command's
// own leading assignments, which apply only to this one child per
// spec.md §4.3's expansion-ordering invariant).
func (rt *Runtime) ChildEnv(extra map[string]string) []string {
	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := indexByte(kv, '='); i >= 0 {
			merged[kv[:i]] = kv[i+1:]
		}
	}

	rt.varsMu.RLock()
	for name := range rt.exported {
		merged[name] = rt.vars[name]
	}
	rt.varsMu.RUnlock()

	for k, v := range extra {
		merged[k] = v
	}

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// ExportedLines renders `declare -x NAME="VALUE"` lines sorted by name,
// for `export` called with no arguments (SPEC_FULL.md §12.3, filling the
// original's unimplemented!() zero-arg case).
func (rt *Runtime) ExportedLines() []string {
	rt.varsMu.RLock()
	defer rt.varsMu.RUnlock()
	names := make([]string, 0, len(rt.exported))
	for name := range rt.exported {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, "declare -x "+name+"=\""+rt.vars[name]+"\"")
	}
	return lines
}
