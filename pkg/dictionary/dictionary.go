// Package dictionary bundles a primary entry file with its co-located
// resource files, implementing token expansion, redirect chasing, and
// resource lookup on top of pkg/dictfile.
package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ssargent/beluga/pkg/bytesx"
	"github.com/ssargent/beluga/pkg/cache"
	"github.com/ssargent/beluga/pkg/dictfile"
)

const (
	// ExtEntry is the reference file extension for primary entry files.
	ExtEntry = "bel"
	// ExtResource is the reference file extension for resource files.
	ExtResource = "beld"

	linkPrefix   = "@@@LINK="
	maxRedirects = 3
)

// Dictionary bundles one primary entry file with zero or more sibling
// resource files and optional CSS/JS text sidecars.
type Dictionary struct {
	word      *dictfile.DictFile
	resources []*dictfile.DictFile
	CSS       string
	JS        string
}

// Open loads the entry file at path plus any sibling resource files and
// CSS/JS sidecars found alongside it, assigning cache-ids starting at
// nextCacheID. It returns the Dictionary and the next unused cache-id
// for the caller (a Bookshelf) to continue from.
func Open(path string, c *cache.Cache, nextCacheID uint32) (*Dictionary, uint32, error) {
	if filepath.Ext(path) != "."+ExtEntry {
		return nil, nextCacheID, fmt.Errorf("dictionary: %s is not a .%s file", path, ExtEntry)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, nextCacheID, fmt.Errorf("dictionary: invalid entry path %s", path)
	}

	word, err := dictfile.Open(path, c, nextCacheID)
	if err != nil {
		return nil, nextCacheID, fmt.Errorf("dictionary: open entry file: %w", err)
	}
	cacheID := nextCacheID

	dir := filepath.Dir(path)
	stem := strings.TrimSuffix(filepath.Base(path), "."+ExtEntry)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nextCacheID, fmt.Errorf("dictionary: read sibling directory: %w", err)
	}

	resExt := "." + ExtResource
	var resources []*dictfile.DictFile
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), resExt) {
			continue
		}
		resName := strings.TrimSuffix(ent.Name(), resExt)
		if !strings.HasPrefix(resName, stem) {
			continue
		}

		resID := ""
		isResource := false
		switch {
		case len(resName) == len(stem):
			isResource = true
		case len(resName) > len(stem)+1 && resName[len(stem)] == '.':
			isResource = true
			resID = resName[len(stem)+1:]
		}
		if !isResource {
			continue
		}

		cacheID++
		res, err := dictfile.Open(filepath.Join(dir, ent.Name()), c, cacheID)
		if err != nil {
			return nil, nextCacheID, fmt.Errorf("dictionary: open resource file %s: %w", ent.Name(), err)
		}
		res.ID = resID
		resources = append(resources, res)
	}

	d := &Dictionary{word: word, resources: resources}
	if text, err := os.ReadFile(filepath.Join(dir, stem+".css")); err == nil {
		d.CSS = string(text)
	}
	if text, err := os.ReadFile(filepath.Join(dir, stem+".js")); err == nil {
		d.JS = string(text)
	}
	return d, cacheID + 1, nil
}

// Close releases the entry file and every resource file.
func (d *Dictionary) Close() error {
	var firstErr error
	if err := d.word.Close(); err != nil {
		firstErr = err
	}
	for _, r := range d.resources {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Metadata returns the primary entry file's metadata.
func (d *Dictionary) Metadata() dictfile.Metadata {
	return d.word.Metadata
}

// Search concatenates a prefix scan of the entry tree with, when a
// token tree exists and phraseLimit > 0, alternate-spelling expansions
// looked up by exact token-tree match. Token entries already present in
// the prefix results are skipped; additions stop at phraseLimit.
func (d *Dictionary) Search(name string, strict bool, prefixLimit, phraseLimit int) []string {
	result := d.word.Search(name, strict, prefixLimit)
	if phraseLimit <= 0 {
		return result
	}
	data, ok := d.word.SearchToken(name)
	if !ok {
		return result
	}
	seen := make(map[string]bool, len(result))
	for _, r := range result {
		seen[r] = true
	}
	added := 0
	for _, entry := range parseTokenEntries(data) {
		if added >= phraseLimit {
			break
		}
		if seen[entry] {
			continue
		}
		seen[entry] = true
		result = append(result, entry)
		added++
	}
	return result
}

// SearchEntry performs an exact lookup of name, chasing "@@@LINK="
// redirects for at most maxRedirects lookups in total (the name itself
// plus up to maxRedirects-1 redirect targets). A chain that is still
// redirecting after that many lookups, or any lookup that fails to
// resolve, returns absent.
func (d *Dictionary) SearchEntry(name string) (string, bool) {
	key := name
	for hop := 0; hop < maxRedirects; hop++ {
		v, ok := d.word.SearchEntry(key)
		if !ok {
			return "", false
		}
		s := string(v)
		if !strings.HasPrefix(s, linkPrefix) {
			return s, true
		}
		key = strings.TrimSpace(strings.TrimPrefix(s, linkPrefix))
	}
	return "", false
}

// SearchResource looks up a resource by name. When name contains a
// "//" separator it is treated as "{id}//{name}" and only the resource
// file whose captured id matches is consulted (per-id addressing);
// otherwise every resource file is consulted in declaration order and
// the first hit wins. Both behaviors are exposed per the reference
// implementation's ambiguity on this point rather than guessing one.
func (d *Dictionary) SearchResource(name string) ([]byte, bool) {
	id, n, hasID := strings.Cut(name, "//")
	if !hasID {
		return d.searchResourceFirstHit(name)
	}
	return d.searchResourceByID(id, n)
}

func (d *Dictionary) searchResourceFirstHit(name string) ([]byte, bool) {
	for _, r := range d.resources {
		if v, ok := r.SearchEntry(name); ok {
			return v, true
		}
	}
	return nil, false
}

func (d *Dictionary) searchResourceByID(id, name string) ([]byte, bool) {
	for _, r := range d.resources {
		if r.ID == id {
			return r.SearchEntry(name)
		}
	}
	return nil, false
}

// parseTokenEntries decodes a token-tree value (repeat u16-length-
// prefixed UTF-8 strings) into its individual alternate spellings.
func parseTokenEntries(data []byte) []string {
	var result []string
	s := bytesx.NewScanner(data)
	for !s.IsEnd() {
		size := s.ReadU16()
		result = append(result, s.ReadString(int(size)))
	}
	return result
}
