package process

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnAndWaitSuccess(t *testing.T) {
	p, err := Spawn([]string{"true"}, os.Environ(), Inherited(), 0)
	require.NoError(t, err)
	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestSpawnAndWaitFailure(t *testing.T) {
	p, err := Spawn([]string{"false"}, os.Environ(), Inherited(), 0)
	require.NoError(t, err)
	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestSpawnUnknownCommandIsNotFoundError(t *testing.T) {
	_, err := Spawn([]string{"this-command-does-not-exist-xyz"}, os.Environ(), Inherited(), 0)
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "this-command-does-not-exist-xyz", nf.Name)
}

func TestSpawnEmptyArgv(t *testing.T) {
	_, err := Spawn(nil, os.Environ(), Inherited(), 0)
	assert.Error(t, err)
}

func TestTryWaitReportsAliveThenExited(t *testing.T) {
	p, err := Spawn([]string{"sh", "-c", "sleep 0.2"}, os.Environ(), Inherited(), 0)
	require.NoError(t, err)

	alive, _, _, _, err := p.TryWait()
	require.NoError(t, err)
	assert.True(t, alive)

	_, err = p.Wait()
	require.NoError(t, err)
}

func TestWaitContextCancelsAndKillsProcess(t *testing.T) {
	p, err := Spawn([]string{"sh", "-c", "sleep 5"}, os.Environ(), Inherited(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = WaitContext(ctx, p)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 4*time.Second)
}

func TestProcessGroupPgidIsLeaderPid(t *testing.T) {
	p, err := Spawn([]string{"true"}, os.Environ(), Inherited(), 0)
	require.NoError(t, err)
	g := NewGroup(p)
	assert.Equal(t, p.Pid, g.Pgid())
	_, _ = p.Wait()
}
