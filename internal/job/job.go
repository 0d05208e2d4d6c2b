// Package job implements the background-job table: a simple ordered list
// of (id, process group) pairs with a RetainAlive sweep that prunes
// exited jobs and prints their status lines, ported verbatim in
// behavior from original_source's process/jobs.rs retain_alive.
package job

import (
	"fmt"
	"io"
	"sync"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/oursh-shell/oursh/internal/invariant"
	"github.com/oursh-shell/oursh/internal/process"
)

// Job is one tracked background process group.
type Job struct {
	ID    int
	Group *process.ProcessGroup
}

// Table is the shell's single-owner collection of live background jobs,
// mirroring original_source's Jobs = Rc<RefCell<Vec<(String,
// ProcessGroup)>>> but without the Rc/RefCell indirection, since Go's
// Runtime holds its Table by plain pointer with no inter-goroutine
// aliasing.
type Table struct {
	mu     sync.Mutex
	nextID int
	jobs   []*Job
}

func NewTable() *Table {
	return &Table{nextID: 1}
}

// Push registers a new background process group and returns its job id.
func (t *Table) Push(g *process.ProcessGroup) int {
	invariant.NotNil(g, "g")
	t.mu.Lock()
	defer t.mu.Unlock()
	before := len(t.jobs)
	id := t.nextID
	t.nextID++
	t.jobs = append(t.jobs, &Job{ID: id, Group: g})
	invariant.Invariant(len(t.jobs) == before+1, "job table did not grow on Push: before=%d after=%d", before, len(t.jobs))
	return id
}

// Len reports the number of jobs currently tracked (alive or not yet
// swept).
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// RetainAlive polls every tracked job with a non-blocking wait, printing
// a status line and dropping any job that has exited or been signaled,
// and silently dropping jobs whose process has already been reaped by
// someone else (ECHILD). Still-alive jobs are kept for the next sweep.
func (t *Table) RetainAlive(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	before := len(t.jobs)
	kept := t.jobs[:0]
	for _, j := range t.jobs {
		alive, code, signaled, sig, err := j.Group.Leader.TryWait()
		switch {
		case err != nil:
			fmt.Fprintf(w, "err: %v\n", err)
			continue
		case alive:
			kept = append(kept, j)
		case signaled:
			fmt.Fprintf(w, "[%d]+\t%s\t%d\t%s\n", j.ID, signalName(sig), j.Group.Leader.Pid, j.Group.Leader.Body())
		default:
			fmt.Fprintf(w, "[%d]+\tExit(%d)\t%d\t%s\n", j.ID, code, j.Group.Leader.Pid, j.Group.Leader.Body())
		}
	}
	invariant.Invariant(len(kept) <= before, "job table grew during RetainAlive sweep: before=%d after=%d", before, len(kept))
	t.jobs = kept
}

func signalName(sig syscall.Signal) string {
	return sig.String()
}

// listEntry is the structured view of a job used for --format=yaml
// output (SPEC_FULL.md §11.3); the field names are deliberately stable
// wire names, independent of the Job struct's Go-side shape.
type listEntry struct {
	ID   int    `yaml:"id"`
	Pid  int    `yaml:"pid"`
	Body string `yaml:"body"`
}

// MarshalYAML renders the current job table as YAML, for the `jobs
// --format=yaml` builtin flag.
func (t *Table) MarshalYAML() ([]byte, error) {
	t.mu.Lock()
	entries := make([]listEntry, 0, len(t.jobs))
	for _, j := range t.jobs {
		entries = append(entries, listEntry{ID: j.ID, Pid: j.Group.Leader.Pid, Body: j.Group.Leader.Body()})
	}
	t.mu.Unlock()
	return yaml.Marshal(entries)
}

// List returns a snapshot of tracked jobs for plain-text listing.
func (t *Table) List() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}
