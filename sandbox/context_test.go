package sandbox

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLifecycle(t *testing.T) {
	fs := RealFileSystem{}
	root := t.TempDir()

	ectx, err := NewContext(fs, root)
	require.NoError(t, err)
	require.NotEmpty(t, ectx.ID)
	require.DirExists(t, ectx.Workdir)
	assert.False(t, ectx.StartedAt.IsZero())

	require.NoError(t, ectx.Close())
	assert.NoDirExists(t, ectx.Workdir)
	assert.False(t, ectx.EndedAt.IsZero())
	assert.GreaterOrEqual(t, ectx.Elapsed(), time.Duration(0))
}

func TestContextIDsAreUnique(t *testing.T) {
	fs := RealFileSystem{}
	root := t.TempDir()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		ectx, err := NewContext(fs, root)
		require.NoError(t, err)
		assert.False(t, seen[ectx.ID], "context id reused")
		seen[ectx.ID] = true
		require.NoError(t, ectx.Close())
	}
}

func TestContextsDoNotShareWorkdirs(t *testing.T) {
	fs := RealFileSystem{}
	root := t.TempDir()

	a, err := NewContext(fs, root)
	require.NoError(t, err)
	defer a.Close()

	b, err := NewContext(fs, root)
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Workdir, b.Workdir)

	// Identically named files in each workdir must not interfere.
	require.NoError(t, os.WriteFile(a.Workdir+"/out.txt", []byte("from a"), 0600))
	require.NoError(t, os.WriteFile(b.Workdir+"/out.txt", []byte("from b"), 0600))

	fromA, err := os.ReadFile(a.Workdir + "/out.txt")
	require.NoError(t, err)
	fromB, err := os.ReadFile(b.Workdir + "/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "from a", string(fromA))
	assert.Equal(t, "from b", string(fromB))
}

func TestNewContextFailure(t *testing.T) {
	fs := &MockFileSystem{mkdirTempErr: errors.New("disk full")}

	ectx, err := NewContext(fs, "")
	require.Error(t, err)
	assert.Nil(t, ectx)
	assert.Contains(t, err.Error(), "failed to create workdir")
}
