// Package dictfile opens one persisted dictionary file and performs
// cached, paged search over its entry tree and optional token tree.
package dictfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ssargent/beluga/pkg/bytesx"
	"github.com/ssargent/beluga/pkg/cache"
	"github.com/ssargent/beluga/pkg/tree"
)

// SpecMagic is the file format's u16 magic value.
const SpecMagic uint16 = 1

// Metadata is the JSON header carried by every persisted dictionary
// file.
type Metadata struct {
	Version    string `json:"version"`
	EntryNum   uint64 `json:"entry_num"`
	Author     string `json:"author"`
	Email      string `json:"email"`
	CreateTime string `json:"create_time"`
	Comment    string `json:"comment"`
}

// DictFile owns one open file and a process-local cache-id under
// which its nodes are keyed in the shared cache.
type DictFile struct {
	ID       string
	Metadata Metadata

	file      *os.File
	entryRoot tree.ChildRef
	tokenRoot tree.ChildRef
	cacheID   uint32
	cache     *cache.Cache
}

// Open parses the spec magic, metadata, and dual-root footer of the
// file at path, returning a DictFile keyed under cacheID in the given
// shared cache.
func Open(path string, c *cache.Cache, cacheID uint32) (*DictFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictfile: open %s: %w", path, err)
	}

	hdr := make([]byte, 6)
	if _, err := f.ReadAt(hdr, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("dictfile: read header: %w", err)
	}
	s := bytesx.NewScanner(hdr)
	magic := s.ReadU16()
	if magic != SpecMagic {
		f.Close()
		return nil, fmt.Errorf("dictfile: %w: got %d", ErrBadFileMagic, magic)
	}
	metaLen := s.ReadU32()

	metaBuf := make([]byte, metaLen)
	if _, err := f.ReadAt(metaBuf, 6); err != nil {
		f.Close()
		return nil, fmt.Errorf("dictfile: read metadata: %w", err)
	}
	var md Metadata
	if err := json.Unmarshal(metaBuf, &md); err != nil {
		f.Close()
		return nil, fmt.Errorf("dictfile: %w: %v", ErrBadMetadata, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("dictfile: stat: %w", err)
	}
	footer := make([]byte, 24)
	if _, err := f.ReadAt(footer, info.Size()-24); err != nil {
		f.Close()
		return nil, fmt.Errorf("dictfile: read footer: %w", err)
	}
	fs := bytesx.NewScanner(footer)
	entryOffset := fs.ReadU64()
	entrySize := fs.ReadU32()
	tokenOffset := fs.ReadU64()
	tokenSize := fs.ReadU32()

	return &DictFile{
		Metadata:  md,
		file:      f,
		entryRoot: tree.ChildRef{Offset: entryOffset, Size: entrySize},
		tokenRoot: tree.ChildRef{Offset: tokenOffset, Size: tokenSize},
		cacheID:   cacheID,
		cache:     c,
	}, nil
}

// Close releases the underlying file handle.
func (d *DictFile) Close() error {
	return d.file.Close()
}

// HasTokenTree reports whether this file carries a non-empty token
// tree.
func (d *DictFile) HasTokenTree() bool {
	return d.tokenRoot.Size != 0
}

// getNode implements the cache-then-file-path: shared lock, lookup; on
// miss, drop the lock, seek+read+inflate+decode, then take the
// exclusive lock to insert. Any I/O or decode error returns (nil,
// false) — callers treat this as a soft failure per the error model.
func (d *DictFile) getNode(ref tree.ChildRef) (*tree.Node, bool) {
	if ref.Offset == 0 && ref.Size == 0 {
		return nil, false
	}
	key := cache.Key{CacheID: d.cacheID, Offset: ref.Offset}
	if v, ok := d.cache.Get(key); ok {
		return v.(*tree.Node), true
	}

	compressed := make([]byte, ref.Size)
	if _, err := d.file.ReadAt(compressed, int64(ref.Offset)); err != nil {
		return nil, false
	}
	raw, err := tree.Inflate(compressed)
	if err != nil {
		return nil, false
	}
	node, err := tree.DecodeNode(raw)
	if err != nil {
		return nil, false
	}
	d.cache.Put(key, node, uint64(ref.Size))
	return node, true
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// SearchEntry performs an exact lookup of name within the entry tree,
// with case-insensitive widening: if no key raw-equals name but one or
// more keys share its smoothed form, the lexicographically raw-smallest
// such key's value is returned instead. Redirects are NOT chased here
// (see pkg/dictionary, which owns the @@@LINK= hop logic).
func (d *DictFile) SearchEntry(name string) ([]byte, bool) {
	return d.searchEntry(d.entryRoot, name)
}

// SearchToken performs an exact lookup of name within the token tree.
func (d *DictFile) SearchToken(name string) ([]byte, bool) {
	if !d.HasTokenTree() {
		return nil, false
	}
	return d.searchEntry(d.tokenRoot, name)
}

func (d *DictFile) searchEntry(root tree.ChildRef, name string) ([]byte, bool) {
	ref := root
	for {
		node, ok := d.getNode(ref)
		if !ok {
			return nil, false
		}
		if !node.Leaf {
			idx := tree.RouteIndex(node.Records, name, true)
			ref = node.ChildRefs[idx]
			continue
		}
		return d.scanClusterForExact(node, name)
	}
}

// scanClusterForExact walks forward across the leaf chain collecting
// every record whose smoothed key equals smoothed(name), starting at
// the partition point within the initial leaf. Among the cluster: an
// exact raw match wins outright; otherwise the raw-lexicographically
// smallest key's value is returned (deterministic case-fold fallback).
func (d *DictFile) scanClusterForExact(leaf *tree.Node, name string) ([]byte, bool) {
	lower := asciiLower(name)
	idx := tree.RouteIndex(leaf.Records, name, false)

	var bestKey string
	var bestVal []byte
	haveBest := false

	consider := func(rec tree.Record) (done bool, value []byte, ok bool) {
		if rec.Key == name {
			return true, rec.Value, true
		}
		if !haveBest || rec.Key < bestKey {
			bestKey, bestVal, haveBest = rec.Key, rec.Value, true
		}
		return false, nil, false
	}

	for i := idx; i < len(leaf.Records); i++ {
		if asciiLower(leaf.Records[i].Key) != lower {
			if haveBest {
				return bestVal, true
			}
			return nil, false
		}
		if done, v, ok := consider(leaf.Records[i]); done {
			return v, ok
		}
	}

	next := leaf.ChildRefs[0]
	for {
		if next.Offset == 0 && next.Size == 0 {
			if haveBest {
				return bestVal, true
			}
			return nil, false
		}
		node, ok := d.getNode(next)
		if !ok {
			if haveBest {
				return bestVal, true
			}
			return nil, false
		}
		for _, rec := range node.Records {
			if asciiLower(rec.Key) != lower {
				if haveBest {
					return bestVal, true
				}
				return nil, false
			}
			if done, v, ok := consider(rec); done {
				return v, ok
			}
		}
		next = node.ChildRefs[0]
	}
}

// Search performs a prefix scan: descend to the leaf containing the
// smallest key whose smoothed form is >= smoothed(name), then scan
// forward (across leaf siblings) accepting keys whose lower-cased
// form has lower-cased name as a prefix. If strict, additionally
// require the raw form to start with name (non-conforming keys are
// skipped, not terminating); scanning stops at limit results or the
// first key whose lower-cased form is not a prefix match.
func (d *DictFile) Search(name string, strict bool, limit int) []string {
	var result []string
	if name == "" || limit <= 0 {
		return result
	}
	lower := asciiLower(name)

	ref := d.entryRoot
	var leaf *tree.Node
	for {
		node, ok := d.getNode(ref)
		if !ok {
			return result
		}
		if !node.Leaf {
			idx := tree.RouteIndex(node.Records, name, true)
			ref = node.ChildRefs[idx]
			continue
		}
		leaf = node
		break
	}

	idx := tree.RouteIndex(leaf.Records, name, false)
	for {
		for i := idx; i < len(leaf.Records); i++ {
			k := leaf.Records[i].Key
			if !strings.HasPrefix(asciiLower(k), lower) {
				return result
			}
			if strict && !strings.HasPrefix(k, name) {
				continue
			}
			result = append(result, k)
			if len(result) >= limit {
				return result
			}
		}
		next := leaf.ChildRefs[0]
		if next.Offset == 0 && next.Size == 0 {
			return result
		}
		node, ok := d.getNode(next)
		if !ok {
			return result
		}
		leaf = node
		idx = 0
	}
}
