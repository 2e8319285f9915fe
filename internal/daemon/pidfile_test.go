package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFile_WriteRead(t *testing.T) {
	p := NewPIDFile(filepath.Join(t.TempDir(), "test.pid"))

	require.NoError(t, p.Write())

	pid, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestPIDFile_ReadMissing(t *testing.T) {
	p := NewPIDFile(filepath.Join(t.TempDir(), "test.pid"))

	pid, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, 0, pid)
}

func TestPIDFile_ReadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0644))

	p := NewPIDFile(path)
	_, err := p.Read()
	assert.Error(t, err)
}

func TestPIDFile_IsRunning(t *testing.T) {
	p := NewPIDFile(filepath.Join(t.TempDir(), "test.pid"))

	// Our own pid is always running.
	require.NoError(t, p.Write())
	running, pid, err := p.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)
}

func TestPIDFile_IsRunning_StaleFileRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pid")
	// Pid values beyond the kernel maximum never exist.
	require.NoError(t, os.WriteFile(path, []byte("999999999"), 0644))

	p := NewPIDFile(path)
	running, _, err := p.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPIDFile_Remove(t *testing.T) {
	p := NewPIDFile(filepath.Join(t.TempDir(), "test.pid"))

	require.NoError(t, p.Write())
	require.NoError(t, p.Remove())
	// Removing twice is fine.
	require.NoError(t, p.Remove())
}

func TestPIDFile_StopNotRunning(t *testing.T) {
	p := NewPIDFile(filepath.Join(t.TempDir(), "test.pid"))
	assert.Error(t, p.Stop())
}
