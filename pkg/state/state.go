// Package state persists which dictionary files are registered on a
// bookshelf across separate CLI invocations, so "beluga add" in one
// process and "beluga search" in the next see the same handle
// assignments. Built on a pebble key-value store, narrowed down to a
// single handle registry rather than general create/read/update/delete
// storage.
package state

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble"
)

const dictPrefix = "dict:"

// Store is a small pebble-backed registry of handle -> dictionary
// file path.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) the state store at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func dictKey(handle uint32) []byte {
	return []byte(fmt.Sprintf("%s%010d", dictPrefix, handle))
}

// RegisterDictionary records that handle is backed by the file at
// path.
func (s *Store) RegisterDictionary(handle uint32, path string) error {
	if err := s.db.Set(dictKey(handle), []byte(path), pebble.Sync); err != nil {
		return fmt.Errorf("state: register dictionary: %w", err)
	}
	return nil
}

// RemoveDictionary drops a handle's registration.
func (s *Store) RemoveDictionary(handle uint32) error {
	if err := s.db.Delete(dictKey(handle), pebble.Sync); err != nil {
		return fmt.Errorf("state: remove dictionary: %w", err)
	}
	return nil
}

// ListDictionaries returns every registered handle -> path pair.
func (s *Store) ListDictionaries() (map[uint32]string, error) {
	result := make(map[uint32]string)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(dictPrefix),
		UpperBound: []byte(dictPrefix + "\xff"),
	})
	if err != nil {
		return nil, fmt.Errorf("state: list dictionaries: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := string(iter.Key())
		var handle uint32
		if _, err := fmt.Sscanf(strings.TrimPrefix(key, dictPrefix), "%d", &handle); err != nil {
			continue
		}
		result[handle] = string(iter.Value())
	}
	return result, iter.Error()
}
