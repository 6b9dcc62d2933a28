package filekv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schoolhub")
	s, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), s.Path())

	_, ok, err := s.Get("compareList")
	require.NoError(t, err)
	assert.False(t, ok, "missing file reads as empty")

	require.NoError(t, s.Set("compareList", `[{"id":"a"}]`))
	require.NoError(t, s.Set("token", "abc"))

	// another instance over the same directory sees the writes
	other, err := New(dir)
	require.NoError(t, err)
	v, ok, err := other.Get("compareList")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, v)

	require.NoError(t, other.Remove("token"))
	require.NoError(t, other.Remove("token"))
	_, ok, err = s.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file is left behind")
}

func TestStore_corruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o600))

	s, err := New(dir)
	require.NoError(t, err)

	_, ok, err := s.Get("compareList")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("token", "abc"))
	v, ok, err := s.Get("token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}
