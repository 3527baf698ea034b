package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFS_RequiresDir(t *testing.T) {
	_, err := NewFS("")
	assert.Error(t, err)
}

func TestFS_PutGetOverwrite(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFS(dir)
	require.NoError(t, err)

	require.NoError(t, b.Put(t.Context(), "mitzvot/001.json", []byte("first")))
	require.NoError(t, b.Put(t.Context(), "mitzvot/001.json", []byte("second")))

	data, err := b.Get(t.Context(), "mitzvot/001.json")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	_, err = os.Stat(filepath.Join(dir, "mitzvot", "001.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file should not remain")
}

func TestFS_GetMissing(t *testing.T) {
	b, err := NewFS(t.TempDir())
	require.NoError(t, err)

	_, err = b.Get(t.Context(), "failed.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFS_DeleteIsIdempotent(t *testing.T) {
	b, err := NewFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, b.Put(t.Context(), "failed.json", []byte("[]")))
	require.NoError(t, b.Delete(t.Context(), "failed.json"))
	require.NoError(t, b.Delete(t.Context(), "failed.json"))

	_, err = b.Get(t.Context(), "failed.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFS_List(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFS(dir)
	require.NoError(t, err)

	names, err := b.List(t.Context(), "mitzvot")
	require.NoError(t, err)
	assert.Empty(t, names, "missing directory lists as empty")

	require.NoError(t, b.Put(t.Context(), "mitzvot/003.json", []byte("{}")))
	require.NoError(t, b.Put(t.Context(), "mitzvot/001.json", []byte("{}")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mitzvot", "002.json.tmp"), []byte("{"), 0o644))

	names, err = b.List(t.Context(), "mitzvot")
	require.NoError(t, err)
	assert.Equal(t, []string{"001.json", "003.json"}, names)
}
