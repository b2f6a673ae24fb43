// Package builder assembles an in-memory entry tree and token tree and
// persists them to a single dictionary file in the on-disk layout
// pkg/dictfile expects to open.
package builder

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ssargent/beluga/pkg/bytesx"
	"github.com/ssargent/beluga/pkg/dictfile"
	"github.com/ssargent/beluga/pkg/tree"
)

// SpecMagic re-exports dictfile.SpecMagic, the magic value Save writes
// at the start of every dictionary file.
const SpecMagic = dictfile.SpecMagic

// Builder accumulates entries and tokens in memory before a single
// linear Save.
type Builder struct {
	Metadata  dictfile.Metadata
	entryTree *tree.Tree
	tokenTree *tree.Tree
	hasTokens bool
}

// New returns an empty Builder with the given per-node size limits
// applied to both the entry and token trees.
func New(metadata dictfile.Metadata, indexSizeLimit, leafSizeLimit int) *Builder {
	return &Builder{
		Metadata:  metadata,
		entryTree: tree.New(indexSizeLimit, leafSizeLimit),
		tokenTree: tree.New(indexSizeLimit, leafSizeLimit),
	}
}

// InputEntry inserts one (headword, value) pair into the entry tree and
// bumps the metadata's entry count.
func (b *Builder) InputEntry(name string, value []byte) {
	b.Metadata.EntryNum++
	b.entryTree.Insert(name, value)
}

// InputToken inserts one (headword, alternate-spellings) pair into the
// token tree, packing the alternates as repeated u16-length-prefixed
// UTF-8 strings.
func (b *Builder) InputToken(name string, alternates []string) {
	var packed []byte
	for _, alt := range alternates {
		packed = append(packed, bytesx.U16(uint16(len(alt)))...)
		packed = append(packed, alt...)
	}
	b.tokenTree.Insert(name, packed)
	b.hasTokens = true
}

// Save writes spec magic, metadata, the entry tree, the token tree (if
// any tokens were input), and the 24-byte dual-root footer to dest. It
// refuses to overwrite an existing file, so a build never clobbers a
// prior output. A write that fails midway leaves a partial file at dest.
func (b *Builder) Save(dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("builder: destination exists: %s", dest)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("builder: stat destination: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("builder: create %s: %w", dest, err)
	}
	defer f.Close()

	metaBuf, err := json.Marshal(b.Metadata)
	if err != nil {
		return fmt.Errorf("builder: marshal metadata: %w", err)
	}

	if _, err := f.Write(bytesx.U16(SpecMagic)); err != nil {
		return fmt.Errorf("builder: write magic: %w", err)
	}
	if _, err := f.Write(bytesx.U32(uint32(len(metaBuf)))); err != nil {
		return fmt.Errorf("builder: write metadata length: %w", err)
	}
	if _, err := f.Write(metaBuf); err != nil {
		return fmt.Errorf("builder: write metadata: %w", err)
	}

	w := tree.NewWriter(f, uint64(6+len(metaBuf)))
	entryOffset, entrySize, err := b.entryTree.WriteTo(w)
	if err != nil {
		return fmt.Errorf("builder: write entry tree: %w", err)
	}

	tokenOffset, tokenSize := uint64(0), uint32(0)
	if b.hasTokens {
		tokenOffset, tokenSize, err = b.tokenTree.WriteTo(w)
		if err != nil {
			return fmt.Errorf("builder: write token tree: %w", err)
		}
	}

	footer := append(bytesx.U64(entryOffset), bytesx.U32(entrySize)...)
	footer = append(footer, bytesx.U64(tokenOffset)...)
	footer = append(footer, bytesx.U32(tokenSize)...)
	if _, err := f.Write(footer); err != nil {
		return fmt.Errorf("builder: write footer: %w", err)
	}
	return nil
}
