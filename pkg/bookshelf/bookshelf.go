// Package bookshelf registers and fans out queries across a set of
// open Dictionary instances sharing one node cache.
package bookshelf

import (
	"log"

	"github.com/ssargent/beluga/pkg/cache"
	"github.com/ssargent/beluga/pkg/dictfile"
	"github.com/ssargent/beluga/pkg/dictionary"
)

type entry struct {
	handle uint32
	dict   *dictionary.Dictionary
}

// Bookshelf is a handle-assigned registry of open dictionaries sharing
// a single size-bounded cache.
type Bookshelf struct {
	nextHandle  uint32
	nextCacheID uint32
	dicts       []entry
	cache       *cache.Cache
}

// New returns an empty Bookshelf backed by a cache with the given byte
// capacity.
func New(cacheCapacity uint64) *Bookshelf {
	return &Bookshelf{cache: cache.New(cacheCapacity)}
}

// Add opens the dictionary at path, assigns it a handle, and returns
// that handle plus its metadata.
func (b *Bookshelf) Add(path string) (uint32, dictfile.Metadata, error) {
	dict, nextCacheID, err := dictionary.Open(path, b.cache, b.nextCacheID)
	if err != nil {
		return 0, dictfile.Metadata{}, err
	}
	b.nextCacheID = nextCacheID

	handle := b.nextHandle
	b.nextHandle++
	b.dicts = append(b.dicts, entry{handle: handle, dict: dict})
	return handle, dict.Metadata(), nil
}

// Remove closes and drops the dictionary registered under handle, if
// any.
func (b *Bookshelf) Remove(handle uint32) {
	for i, e := range b.dicts {
		if e.handle == handle {
			e.dict.Close()
			b.dicts = append(b.dicts[:i], b.dicts[i+1:]...)
			return
		}
	}
	log.Printf("bookshelf: remove: handle %d not found", handle)
}

// Clear closes and drops every registered dictionary.
func (b *Bookshelf) Clear() {
	for _, e := range b.dicts {
		e.dict.Close()
	}
	b.dicts = nil
}

func (b *Bookshelf) find(handle uint32) (*dictionary.Dictionary, bool) {
	for _, e := range b.dicts {
		if e.handle == handle {
			return e.dict, true
		}
	}
	return nil, false
}

// Search runs a prefix scan (with token expansion) against the
// dictionary registered under handle. An empty word or unknown handle
// is a soft failure: logged, empty result.
func (b *Bookshelf) Search(handle uint32, word string, strict bool, prefixLimit, phraseLimit int) []string {
	if word == "" {
		log.Printf("bookshelf: search: empty word")
		return nil
	}
	d, ok := b.find(handle)
	if !ok {
		log.Printf("bookshelf: search: invalid handle %d", handle)
		return nil
	}
	return d.Search(word, strict, prefixLimit, phraseLimit)
}

// SearchEntry performs an exact lookup (with redirect chasing) against
// the dictionary registered under handle.
func (b *Bookshelf) SearchEntry(handle uint32, name string) (string, bool) {
	if name == "" {
		log.Printf("bookshelf: search_entry: empty name")
		return "", false
	}
	d, ok := b.find(handle)
	if !ok {
		log.Printf("bookshelf: search_entry: invalid handle %d", handle)
		return "", false
	}
	return d.SearchEntry(name)
}

// SearchResource looks up a resource by name against the dictionary
// registered under handle.
func (b *Bookshelf) SearchResource(handle uint32, name string) ([]byte, bool) {
	if name == "" {
		log.Printf("bookshelf: search_resource: empty name")
		return nil, false
	}
	d, ok := b.find(handle)
	if !ok {
		log.Printf("bookshelf: search_resource: invalid handle %d", handle)
		return nil, false
	}
	return d.SearchResource(name)
}

// StaticFiles returns the CSS and JS sidecar text for handle, if
// registered.
func (b *Bookshelf) StaticFiles(handle uint32) (css, js string, ok bool) {
	d, ok := b.find(handle)
	if !ok {
		log.Printf("bookshelf: static_files: invalid handle %d", handle)
		return "", "", false
	}
	return d.CSS, d.JS, true
}

// ResizeCache adjusts the shared cache's byte capacity, evicting as
// needed.
func (b *Bookshelf) ResizeCache(capacity uint64) {
	b.cache.Resize(capacity)
}
