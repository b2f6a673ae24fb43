package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterListRemoveDictionary(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RegisterDictionary(0, "/data/sample.bel"))
	require.NoError(t, s.RegisterDictionary(1, "/data/other.bel"))

	dicts, err := s.ListDictionaries()
	require.NoError(t, err)
	require.Equal(t, map[uint32]string{
		0: "/data/sample.bel",
		1: "/data/other.bel",
	}, dicts)

	require.NoError(t, s.RemoveDictionary(0))
	dicts, err = s.ListDictionaries()
	require.NoError(t, err)
	require.Equal(t, map[uint32]string{1: "/data/other.bel"}, dicts)
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.RegisterDictionary(0, "/data/sample.bel"))
	require.NoError(t, s.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	dicts, err := reopened.ListDictionaries()
	require.NoError(t, err)
	require.Equal(t, map[uint32]string{0: "/data/sample.bel"}, dicts)
}
