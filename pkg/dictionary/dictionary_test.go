package dictionary

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/beluga/pkg/bytesx"
	"github.com/ssargent/beluga/pkg/cache"
	"github.com/ssargent/beluga/pkg/tree"
)

func writeBelFile(t *testing.T, path string, entries, tokens map[string]string) {
	t.Helper()

	entryTree := tree.New(256, 256)
	for k, v := range entries {
		entryTree.Insert(k, []byte(v))
	}
	tokenTree := tree.New(256, 256)
	for k, v := range tokens {
		tokenTree.Insert(k, []byte(v))
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	md := map[string]any{"version": "1", "entry_num": len(entries)}
	metaBuf, err := json.Marshal(md)
	require.NoError(t, err)

	_, err = f.Write(bytesx.U16(1))
	require.NoError(t, err)
	_, err = f.Write(bytesx.U32(uint32(len(metaBuf))))
	require.NoError(t, err)
	_, err = f.Write(metaBuf)
	require.NoError(t, err)

	var body bytes.Buffer
	w := tree.NewWriter(&body, uint64(6+len(metaBuf)))
	entryOffset, entrySize, err := entryTree.WriteTo(w)
	require.NoError(t, err)
	tokenOffset, tokenSize := uint64(0), uint32(0)
	if len(tokens) > 0 {
		tokenOffset, tokenSize, err = tokenTree.WriteTo(w)
		require.NoError(t, err)
	}
	_, err = f.Write(body.Bytes())
	require.NoError(t, err)

	footer := append(bytesx.U64(entryOffset), bytesx.U32(entrySize)...)
	footer = append(footer, bytesx.U64(tokenOffset)...)
	footer = append(footer, bytesx.U32(tokenSize)...)
	_, err = f.Write(footer)
	require.NoError(t, err)
}

func packTokens(items ...string) string {
	var buf bytes.Buffer
	for _, it := range items {
		buf.Write(bytesx.U16(uint16(len(it))))
		buf.WriteString(it)
	}
	return buf.String()
}

func TestOpenDiscoversResourceSiblingsAndSidecars(t *testing.T) {
	dir := t.TempDir()
	entryPath := filepath.Join(dir, "sample.bel")
	writeBelFile(t, entryPath, map[string]string{"apple": "<p>apple</p>"}, nil)
	writeBelFile(t, filepath.Join(dir, "sample.beld"), map[string]string{"img1.png": "BYTES"}, nil)
	writeBelFile(t, filepath.Join(dir, "sample.photo.beld"), map[string]string{"img1.png": "PHOTO-BYTES"}, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.js"), []byte("console.log(1)"), 0o644))

	c := cache.New(1 << 20)
	d, next, err := Open(entryPath, c, 1)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	require.Equal(t, "body{}", d.CSS)
	require.Equal(t, "console.log(1)", d.JS)
	require.Len(t, d.resources, 2)
	require.Greater(t, next, uint32(1))
}

func TestSearchEntryChasesRedirects(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redir.bel")
	writeBelFile(t, path, map[string]string{
		"go":   "v1",
		"goto": "@@@LINK=go",
	}, nil)

	c := cache.New(1 << 20)
	d, _, err := Open(path, c, 1)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	v, ok := d.SearchEntry("goto")
	require.True(t, ok)
	require.Equal(t, "v1", v)
}

func TestSearchEntryAbortsAfterThreeHops(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loop.bel")
	writeBelFile(t, path, map[string]string{
		"a": "@@@LINK=b",
		"b": "@@@LINK=c",
		"c": "@@@LINK=d",
		"d": "v",
	}, nil)

	c := cache.New(1 << 20)
	d, _, err := Open(path, c, 1)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	_, ok := d.SearchEntry("a")
	require.False(t, ok)
}

func TestSearchExpandsTokens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tok.bel")
	writeBelFile(t, path,
		map[string]string{"run": "<p>run</p>"},
		map[string]string{"run": packTokens("ran", "running", "run away")},
	)

	c := cache.New(1 << 20)
	d, _, err := Open(path, c, 1)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	result := d.Search("run", false, 0, 10)
	require.Contains(t, result, "ran")
	require.Contains(t, result, "running")
	require.Contains(t, result, "run away")
}

func TestSearchResourceFirstHitAndByID(t *testing.T) {
	dir := t.TempDir()
	entryPath := filepath.Join(dir, "sample.bel")
	writeBelFile(t, entryPath, map[string]string{"apple": "entry"}, nil)
	writeBelFile(t, filepath.Join(dir, "sample.beld"), map[string]string{"shared.png": "DEFAULT"}, nil)
	writeBelFile(t, filepath.Join(dir, "sample.hd.beld"), map[string]string{"shared.png": "HD"}, nil)

	c := cache.New(1 << 20)
	d, _, err := Open(entryPath, c, 1)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	v, ok := d.SearchResource("shared.png")
	require.True(t, ok)
	require.Contains(t, []string{"DEFAULT", "HD"}, string(v))

	v, ok = d.SearchResource("hd//shared.png")
	require.True(t, ok)
	require.Equal(t, "HD", string(v))
}
