package staging

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertEntryFlushAndIterateInOrder(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.InsertEntry("apple", []byte("a-def")))
	require.NoError(t, s.InsertEntry("banana", []byte("b-def")))
	require.NoError(t, s.InsertEntry("cherry", []byte("c-def")))
	require.NoError(t, s.Close())

	it, err := s.IterEntries(dir)
	require.NoError(t, err)
	defer it.Close()

	var names []string
	for it.Next() {
		names = append(names, it.Name())
	}
	require.Equal(t, []string{"apple", "banana", "cherry"}, names)
}

func TestInsertTokenFlushAndIterate(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.InsertToken("run", []string{"ran", "running"}))
	require.NoError(t, s.Close())

	it, err := s.IterTokens(dir)
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	require.Equal(t, "run", it.Name())
	require.Equal(t, []string{"ran", "running"}, it.Alternates())
	require.False(t, it.Next())
}

func TestAutoFlushAtBatchSize(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	s.batchSize = 3

	require.NoError(t, s.InsertEntry("a", []byte("1")))
	require.NoError(t, s.InsertEntry("b", []byte("2")))
	require.NoError(t, s.InsertEntry("c", []byte("3"))) // triggers auto-flush
	require.Empty(t, s.entryBatch)

	require.NoError(t, s.Close())

	it, err := s.IterEntries(dir)
	require.NoError(t, err)
	defer it.Close()
	count := 0
	for it.Next() {
		count++
	}
	require.Equal(t, 3, count)
}

func TestCorruptRecordDetected(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.InsertEntry("apple", []byte("a-def")))
	require.NoError(t, s.Close())

	path := dir + "/" + entryLogName
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[5] ^= 0xFF // corrupt a byte within the ksuid/header region
	require.NoError(t, os.WriteFile(path, data, 0o600))

	it, err := s.IterEntries(dir)
	require.NoError(t, err)
	defer it.Close()
	require.False(t, it.Next())
}
