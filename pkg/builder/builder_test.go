package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/beluga/pkg/cache"
	"github.com/ssargent/beluga/pkg/dictfile"
)

func TestSaveAndReopenRoundTrip(t *testing.T) {
	b := New(dictfile.Metadata{Version: "1", Author: "tester"}, 256, 256)
	b.InputEntry("apple", []byte("a-def"))
	b.InputEntry("banana", []byte("b-def"))
	b.InputToken("apple", []string{"apples", "apple pie"})

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bel")
	require.NoError(t, b.Save(dest))

	c := cache.New(1 << 20)
	df, err := dictfile.Open(dest, c, 1)
	require.NoError(t, err)
	defer df.Close()

	require.Equal(t, "tester", df.Metadata.Author)
	require.EqualValues(t, 2, df.Metadata.EntryNum)
	require.True(t, df.HasTokenTree())

	v, ok := df.SearchEntry("apple")
	require.True(t, ok)
	require.Equal(t, "a-def", string(v))

	tok, ok := df.SearchToken("apple")
	require.True(t, ok)
	require.NotEmpty(t, tok)
}

func TestSaveWithoutTokensOmitsTokenTree(t *testing.T) {
	b := New(dictfile.Metadata{Version: "1"}, 256, 256)
	b.InputEntry("apple", []byte("a-def"))

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bel")
	require.NoError(t, b.Save(dest))

	c := cache.New(1 << 20)
	df, err := dictfile.Open(dest, c, 1)
	require.NoError(t, err)
	defer df.Close()
	require.False(t, df.HasTokenTree())
}

func TestSaveRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bel")
	require.NoError(t, os.WriteFile(dest, []byte("existing"), 0o644))

	b := New(dictfile.Metadata{Version: "1"}, 256, 256)
	b.InputEntry("apple", []byte("a-def"))
	err := b.Save(dest)
	require.Error(t, err)
}
