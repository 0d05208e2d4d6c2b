package job

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oursh-shell/oursh/internal/process"
)

func spawnGroup(t *testing.T, argv ...string) *process.ProcessGroup {
	t.Helper()
	p, err := process.Spawn(argv, os.Environ(), process.Inherited(), 0)
	require.NoError(t, err)
	return process.NewGroup(p)
}

func TestPushAssignsIncreasingIDs(t *testing.T) {
	tbl := NewTable()
	id1 := tbl.Push(spawnGroup(t, "true"))
	id2 := tbl.Push(spawnGroup(t, "true"))
	assert.Equal(t, 1, id1)
	assert.Equal(t, 2, id2)
	assert.Equal(t, 2, tbl.Len())

	var buf bytes.Buffer
	for tbl.Len() > 0 {
		tbl.RetainAlive(&buf)
	}
}

func TestRetainAliveKeepsRunningJobs(t *testing.T) {
	tbl := NewTable()
	tbl.Push(spawnGroup(t, "sh", "-c", "sleep 5"))

	var buf bytes.Buffer
	tbl.RetainAlive(&buf)
	assert.Equal(t, 1, tbl.Len())
	assert.Empty(t, buf.String())

	for _, j := range tbl.List() {
		j.Group.Leader.Kill()
	}
	for tbl.Len() > 0 {
		tbl.RetainAlive(&buf)
	}
}

func TestRetainAliveReportsExitedJob(t *testing.T) {
	tbl := NewTable()
	tbl.Push(spawnGroup(t, "true"))

	var buf bytes.Buffer
	for tbl.Len() > 0 {
		tbl.RetainAlive(&buf)
	}
	assert.Contains(t, buf.String(), "Exit(0)")
}

func TestMarshalYAMLRendersTrackedJobs(t *testing.T) {
	tbl := NewTable()
	g := spawnGroup(t, "sh", "-c", "sleep 5")
	id := tbl.Push(g)

	data, err := tbl.MarshalYAML()
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, yaml.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, g.Leader.Pid, entries[0].Pid)

	g.Leader.Kill()
	var buf bytes.Buffer
	for tbl.Len() > 0 {
		tbl.RetainAlive(&buf)
	}
}

func TestListReturnsSnapshotCopy(t *testing.T) {
	tbl := NewTable()
	tbl.Push(spawnGroup(t, "true"))
	snapshot := tbl.List()
	require.Len(t, snapshot, 1)

	var buf bytes.Buffer
	for tbl.Len() > 0 {
		tbl.RetainAlive(&buf)
	}
	// The earlier snapshot is unaffected by the table being drained.
	assert.Len(t, snapshot, 1)
}
