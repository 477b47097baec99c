package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping(t *testing.T) {
	dir := t.TempDir()

	t.Run("ReadAt", func(t *testing.T) {
		path := filepath.Join(dir, "data")
		require.NoError(t, os.WriteFile(path, []byte("hello, kdtree"), 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		defer m.Close()

		assert.Equal(t, int64(13), m.Size())
		assert.Equal(t, []byte("hello, kdtree"), m.Bytes())
		require.NoError(t, m.Advise(AccessRandom))

		buf := make([]byte, 6)
		n, err := m.ReadAt(buf, 7)
		require.NoError(t, err)
		assert.Equal(t, 6, n)
		assert.Equal(t, "kdtree", string(buf))

		n, err = m.ReadAt(buf, 10)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 3, n)

		_, err = m.ReadAt(buf, 100)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("Empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		assert.Zero(t, m.Size())
		assert.NoError(t, m.Advise(AccessSequential))
		assert.NoError(t, m.Close())
	})

	t.Run("Close", func(t *testing.T) {
		path := filepath.Join(dir, "closed")
		require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, m.Close())
		require.NoError(t, m.Close())

		_, err = m.ReadAt(make([]byte, 1), 0)
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "missing"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
